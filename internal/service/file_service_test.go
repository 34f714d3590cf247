package service

import (
	"bytes"
	"context"
	"errors"
	"mime/multipart"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/scriptdesk-api/internal/dto"
)

func multipartFile(t *testing.T, name string, payload []byte) *multipart.FileHeader {
	t.Helper()
	body := &bytes.Buffer{}
	form := multipart.NewWriter(body)
	part, err := form.CreateFormFile("file", name)
	require.NoError(t, err)
	_, err = part.Write(payload)
	require.NoError(t, err)
	require.NoError(t, form.Close())

	parsed, err := multipart.NewReader(body, form.Boundary()).ReadForm(int64(len(payload)) + 1024)
	require.NoError(t, err)
	t.Cleanup(func() { _ = parsed.RemoveAll() })
	return parsed.File["file"][0]
}

func TestRegisterFilesAppends(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first, err := f.files.Register(ctx, writer, f.project.ID, dto.FileBatchRequest{Files: []dto.FileMetadataRequest{
		{Name: "intro.docx", Size: 2048, Type: "application/vnd.openxmlformats-officedocument.wordprocessingml.document"},
		{Name: "jingle.mp3", Size: 4096, Type: "audio/mpeg", URL: "https://cdn.example.com/jingle.mp3"},
	}})
	require.NoError(t, err)
	require.Len(t, first, 2)
	require.Equal(t, "/uploads/intro.docx", first[0].URL)
	require.NotEmpty(t, first[0].ID)
	require.NotEqual(t, first[0].ID, first[1].ID)
	require.True(t, first[0].UploadedAt.Equal(f.clock))

	_, err = f.files.Register(ctx, producer, f.project.ID, dto.FileBatchRequest{Files: []dto.FileMetadataRequest{
		{Name: "outro.docx", Size: 1024},
	}})
	require.NoError(t, err)

	all, err := f.files.List(ctx, f.project.ID)
	require.NoError(t, err)
	require.Len(t, all, 3)
	require.EqualValues(t, 2, f.activityCount(t, EntityFiles, f.project.ID))
}

func TestRegisterFilesValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.files.Register(ctx, writer, f.project.ID, dto.FileBatchRequest{})
	var validationErr *ValidationError
	require.True(t, errors.As(err, &validationErr))
	require.Contains(t, validationErr.Fields, "files")

	_, err = f.files.Register(ctx, writer, f.project.ID, dto.FileBatchRequest{Files: []dto.FileMetadataRequest{{Size: 10}}})
	require.True(t, errors.As(err, &validationErr))
	require.Contains(t, validationErr.Fields, "files[0].name")

	_, err = f.files.Register(ctx, writer, 999, dto.FileBatchRequest{Files: []dto.FileMetadataRequest{{Name: "a.txt"}}})
	require.ErrorIs(t, err, ErrProjectNotFound)

	_, err = f.files.List(ctx, 999)
	require.ErrorIs(t, err, ErrProjectNotFound)
}

func TestUploadStoresBinaryAndMetadata(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	file := multipartFile(t, "Episode 12 Script.txt", []byte("Good morning and welcome to the show.\n"))
	stored, err := f.files.Upload(ctx, writer, f.project.ID, file)
	require.NoError(t, err)
	require.Equal(t, "episode-12-script.txt", stored.Name)
	require.Equal(t, "text/plain", stored.MimeType)
	require.Len(t, stored.Checksum, 64)
	require.Contains(t, stored.URL, "project-")
	require.Len(t, f.storage.objects, 1)

	all, err := f.files.List(ctx, f.project.ID)
	require.NoError(t, err)
	require.Len(t, all, 1)
	require.EqualValues(t, 1, f.activityCount(t, EntityFiles, f.project.ID))
}

func TestUploadRejections(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	executable := append([]byte{0x7f, 'E', 'L', 'F', 2, 1, 1, 0}, make([]byte, 64)...)
	_, err := f.files.Upload(ctx, writer, f.project.ID, multipartFile(t, "tool", executable))
	require.ErrorIs(t, err, ErrUploadTypeNotAllowed)

	tooLarge := bytes.Repeat([]byte("a"), 1024*1024+1)
	_, err = f.files.Upload(ctx, writer, f.project.ID, multipartFile(t, "big.txt", tooLarge))
	require.ErrorIs(t, err, ErrUploadTooLarge)

	_, err = f.files.Upload(ctx, writer, f.project.ID, nil)
	var validationErr *ValidationError
	require.True(t, errors.As(err, &validationErr))

	f.storage.err = errors.New("bucket unavailable")
	_, err = f.files.Upload(ctx, writer, f.project.ID, multipartFile(t, "notes.txt", []byte("plain notes")))
	var storageErr *StorageError
	require.True(t, errors.As(err, &storageErr))

	all, err := f.files.List(ctx, f.project.ID)
	require.NoError(t, err)
	require.Empty(t, all)
	require.Zero(t, f.activityCount(t, EntityFiles, f.project.ID))
}

func TestUploadDisabledWithoutStorage(t *testing.T) {
	f := newFixture(t)
	f.files.(*fileService).storage = nil

	_, err := f.files.Upload(context.Background(), writer, f.project.ID, multipartFile(t, "a.txt", []byte("x")))
	require.ErrorIs(t, err, ErrUploadsDisabled)
}

func TestSanitizeFileName(t *testing.T) {
	require.Equal(t, "my-script.pdf", sanitizeFileName("../My Script.PDF", ""))
	require.Equal(t, "file.mp3", sanitizeFileName("???", ".mp3"))
	require.Equal(t, "recording.bin", sanitizeFileName("recording", ""))
}
