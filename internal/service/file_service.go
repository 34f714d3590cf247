package service

import (
	"archive/zip"
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"path/filepath"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/noah-isme/scriptdesk-api/internal/dto"
	"github.com/noah-isme/scriptdesk-api/internal/models"
	"github.com/noah-isme/scriptdesk-api/internal/observability"
	"github.com/noah-isme/scriptdesk-api/internal/repository"
	"github.com/noah-isme/scriptdesk-api/internal/workflow"
)

var (
	// ErrUploadTooLarge indicates the payload exceeded the configured limit.
	ErrUploadTooLarge = errors.New("file exceeds maximum allowed size")
	// ErrUploadTypeNotAllowed indicates the MIME type is not permitted.
	ErrUploadTypeNotAllowed = errors.New("file type not allowed")
	// ErrUploadScanFailed indicates validation of the file failed.
	ErrUploadScanFailed = errors.New("file scanning failed")
	// ErrUploadsDisabled indicates no object store is configured.
	ErrUploadsDisabled = errors.New("binary uploads are not configured")
)

// FileStorage abstracts the object store holding file bytes.
type FileStorage interface {
	Put(ctx context.Context, prefix, name string, reader io.Reader) (string, error)
}

// FileService attaches file metadata to projects. New files are always appended.
type FileService interface {
	Register(ctx context.Context, actor workflow.Actor, projectID uint, req dto.FileBatchRequest) ([]dto.ProjectFileResponse, error)
	Upload(ctx context.Context, actor workflow.Actor, projectID uint, file *multipart.FileHeader) (dto.ProjectFileResponse, error)
	List(ctx context.Context, projectID uint) ([]dto.ProjectFileResponse, error)
}

type fileService struct {
	files     repository.ProjectFileRepository
	projects  repository.ProjectRepository
	storage   FileStorage
	validator *validator.Validate
	activity  ActivityRecorder
	logger    zerolog.Logger
	maxSize   int64
	tracer    trace.Tracer
	now       func() time.Time
	newID     func() string
}

// NewFileService constructs the project file service. storage may be nil, in
// which case only metadata registration is available.
func NewFileService(files repository.ProjectFileRepository, projects repository.ProjectRepository, storage FileStorage, maxSizeMB int, validate *validator.Validate, activity ActivityRecorder, logger zerolog.Logger) FileService {
	if maxSizeMB <= 0 {
		maxSizeMB = 50
	}
	return &fileService{
		files:     files,
		projects:  projects,
		storage:   storage,
		validator: validate,
		activity:  activity,
		logger:    logger.With().Str("component", "file_service").Logger(),
		maxSize:   int64(maxSizeMB) * 1024 * 1024,
		tracer:    otel.Tracer("github.com/noah-isme/scriptdesk-api/internal/service/file"),
		now:       time.Now,
		newID:     func() string { return uuid.NewString() },
	}
}

// Register appends metadata for files stored elsewhere. The bytes are never inspected.
func (s *fileService) Register(ctx context.Context, actor workflow.Actor, projectID uint, req dto.FileBatchRequest) ([]dto.ProjectFileResponse, error) {
	if err := workflow.Authorize(actor, nil, workflow.ActionUploadFiles); err != nil {
		return nil, err
	}
	if err := validateStruct(s.validator, req); err != nil {
		return nil, err
	}
	if err := s.ensureProject(ctx, projectID); err != nil {
		return nil, err
	}

	uploadedAt := s.now().UTC()
	records := make([]models.ProjectFile, 0, len(req.Files))
	for _, file := range req.Files {
		name := strings.TrimSpace(file.Name)
		url := strings.TrimSpace(file.URL)
		if url == "" {
			url = "/uploads/" + name
		}
		records = append(records, models.ProjectFile{
			ID:         s.newID(),
			ProjectID:  projectID,
			UploadedBy: actor.ID,
			Name:       name,
			SizeBytes:  file.Size,
			MimeType:   strings.ToLower(strings.TrimSpace(file.Type)),
			URL:        url,
			UploadedAt: uploadedAt,
		})
	}

	if err := s.files.Append(ctx, records); err != nil {
		return nil, storageError("project_file.append", err)
	}

	s.recordUpload(ctx, actor, projectID, len(records))
	return dto.NewProjectFileResponseSlice(records), nil
}

// Upload validates a binary file, stores it and appends its metadata.
func (s *fileService) Upload(ctx context.Context, actor workflow.Actor, projectID uint, file *multipart.FileHeader) (dto.ProjectFileResponse, error) {
	ctx, span := s.tracer.Start(ctx, "project_file.upload")
	defer span.End()

	span.SetAttributes(
		attribute.Int64("upload.max_bytes", s.maxSize),
		attribute.Int("upload.project_id", int(projectID)),
	)

	start := time.Now()
	defer func() {
		observability.UploadLatency().Observe(time.Since(start).Seconds())
	}()

	if err := workflow.Authorize(actor, nil, workflow.ActionUploadFiles); err != nil {
		span.SetStatus(codes.Error, "permission denied")
		return dto.ProjectFileResponse{}, err
	}
	if s.storage == nil {
		span.SetStatus(codes.Error, "storage disabled")
		return dto.ProjectFileResponse{}, ErrUploadsDisabled
	}
	if file == nil {
		span.SetStatus(codes.Error, "validation failed")
		return dto.ProjectFileResponse{}, NewValidationError("file", "is required")
	}
	span.SetAttributes(
		attribute.String("upload.original_name", strings.TrimSpace(file.Filename)),
		attribute.Int64("upload.request_size", file.Size),
	)

	if err := s.ensureProject(ctx, projectID); err != nil {
		span.SetStatus(codes.Error, "project lookup failed")
		return dto.ProjectFileResponse{}, err
	}

	if file.Size > s.maxSize {
		return dto.ProjectFileResponse{}, s.reject(span, "size", ErrUploadTooLarge)
	}

	handle, err := file.Open()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "open failed")
		return dto.ProjectFileResponse{}, err
	}
	defer handle.Close()

	buf := bytes.NewBuffer(nil)
	if _, err := io.Copy(buf, io.LimitReader(handle, s.maxSize+1)); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "read failed")
		return dto.ProjectFileResponse{}, err
	}
	if int64(buf.Len()) > s.maxSize {
		return dto.ProjectFileResponse{}, s.reject(span, "size", ErrUploadTooLarge)
	}

	detected := mimetype.Detect(buf.Bytes())
	span.SetAttributes(attribute.String("upload.detected_mime", detected.String()))
	if !isAllowedType(detected) {
		return dto.ProjectFileResponse{}, s.reject(span, "type", ErrUploadTypeNotAllowed)
	}

	if err := s.scan(buf.Bytes(), detected); err != nil {
		return dto.ProjectFileResponse{}, s.reject(span, "scan", err)
	}

	checksum := sha256.Sum256(buf.Bytes())
	name := sanitizeFileName(file.Filename, detected.Extension())
	span.SetAttributes(
		attribute.String("upload.sanitized_name", name),
		attribute.Int64("upload.size_bytes", int64(buf.Len())),
	)

	url, err := s.storage.Put(ctx, fmt.Sprintf("project-%d", projectID), name, bytes.NewReader(buf.Bytes()))
	if err != nil {
		observability.UploadRejected().WithLabelValues("storage").Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, "storage failed")
		return dto.ProjectFileResponse{}, storageError("object.put", err)
	}

	record := models.ProjectFile{
		ID:         s.newID(),
		ProjectID:  projectID,
		UploadedBy: actor.ID,
		Name:       name,
		SizeBytes:  int64(buf.Len()),
		MimeType:   baseMime(detected.String()),
		URL:        url,
		Checksum:   hex.EncodeToString(checksum[:]),
		UploadedAt: s.now().UTC(),
	}

	if err := s.files.Append(ctx, []models.ProjectFile{record}); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "persistence failed")
		return dto.ProjectFileResponse{}, storageError("project_file.append", err)
	}

	observability.UploadRequests().WithLabelValues(record.MimeType).Inc()
	span.SetStatus(codes.Ok, "stored")

	s.recordUpload(ctx, actor, projectID, 1)
	return dto.NewProjectFileResponse(record), nil
}

func (s *fileService) List(ctx context.Context, projectID uint) ([]dto.ProjectFileResponse, error) {
	if err := s.ensureProject(ctx, projectID); err != nil {
		return nil, err
	}
	files, err := s.files.ListByProject(ctx, projectID)
	if err != nil {
		return nil, storageError("project_file.list", err)
	}
	return dto.NewProjectFileResponseSlice(files), nil
}

func (s *fileService) ensureProject(ctx context.Context, projectID uint) error {
	exists, err := s.projects.Exists(ctx, projectID)
	if err != nil {
		return storageError("project.exists", err)
	}
	if !exists {
		return ErrProjectNotFound
	}
	return nil
}

func (s *fileService) recordUpload(ctx context.Context, actor workflow.Actor, projectID uint, count int) {
	recordActivity(ctx, s.activity, s.logger, ActivityEntry{
		ActorID:    actor.ID,
		Action:     ActionUploaded,
		EntityType: EntityFiles,
		EntityID:   projectID,
		Details:    fmt.Sprintf("Uploaded %d files to project", count),
		Metadata:   map[string]interface{}{"count": count},
	})
}

func (s *fileService) reject(span trace.Span, reason string, err error) error {
	observability.UploadRejected().WithLabelValues(reason).Inc()
	span.RecordError(err)
	span.SetStatus(codes.Error, reason)
	return err
}

// scan guards against zip bombs hidden in office documents and archives.
func (s *fileService) scan(payload []byte, detected *mimetype.MIME) error {
	if !isZipFamily(detected) {
		return nil
	}
	reader, err := zip.NewReader(bytes.NewReader(payload), int64(len(payload)))
	if err != nil {
		return ErrUploadScanFailed
	}
	var totalUncompressed uint64
	for _, f := range reader.File {
		totalUncompressed += f.UncompressedSize64
		if totalUncompressed > uint64(s.maxSize*20) {
			return fmt.Errorf("zip archive uncompressed size too large: %w", ErrUploadScanFailed)
		}
	}
	return nil
}

func isZipFamily(detected *mimetype.MIME) bool {
	for m := detected; m != nil; m = m.Parent() {
		if m.Is("application/zip") {
			return true
		}
	}
	return false
}

var allowedMimes = []string{
	"application/pdf",
	"application/zip",
	"application/msword",
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	"application/vnd.oasis.opendocument.text",
	"text/plain",
	"text/rtf",
}

// isAllowedType accepts scripts, documents, images and audio recordings.
func isAllowedType(detected *mimetype.MIME) bool {
	base := baseMime(detected.String())
	if strings.HasPrefix(base, "audio/") || strings.HasPrefix(base, "image/") {
		return true
	}
	for _, allowed := range allowedMimes {
		if detected.Is(allowed) {
			return true
		}
	}
	return false
}

func baseMime(m string) string {
	lower := strings.ToLower(strings.TrimSpace(m))
	if idx := strings.Index(lower, ";"); idx >= 0 {
		lower = strings.TrimSpace(lower[:idx])
	}
	return lower
}

func sanitizeFileName(name, detectedExt string) string {
	base := strings.TrimSuffix(filepath.Base(name), filepath.Ext(name))
	base = strings.ToLower(base)
	base = strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			return r
		}
		if r == '-' || r == '_' {
			return r
		}
		return '-'
	}, base)
	base = strings.Trim(base, "-")
	if base == "" {
		base = "file"
	}
	ext := strings.ToLower(filepath.Ext(name))
	if ext == "" {
		ext = detectedExt
	}
	if ext == "" {
		ext = ".bin"
	}
	return base + ext
}
