package service

import (
	"context"
	"fmt"
	"io"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/noah-isme/scriptdesk-api/internal/database"
	"github.com/noah-isme/scriptdesk-api/internal/dto"
	"github.com/noah-isme/scriptdesk-api/internal/events"
	"github.com/noah-isme/scriptdesk-api/internal/models"
	"github.com/noah-isme/scriptdesk-api/internal/repository"
	"github.com/noah-isme/scriptdesk-api/internal/workflow"
)

func testLogger() zerolog.Logger {
	return zerolog.New(io.Discard)
}

var (
	writer      = workflow.Actor{ID: "writer-1", Role: workflow.RoleScriptwriter}
	otherWriter = workflow.Actor{ID: "writer-2", Role: workflow.RoleScriptwriter}
	producer    = workflow.Actor{ID: "producer-1", Role: workflow.RoleRadioProducer}
	manager     = workflow.Actor{ID: "manager-1", Role: workflow.RoleProgramManager}
	admin       = workflow.Actor{ID: "admin-1", Role: workflow.RoleAdministrator}
)

type recordingPublisher struct {
	events []events.StatusChanged
}

func (p *recordingPublisher) PublishStatusChanged(_ context.Context, event events.StatusChanged) error {
	p.events = append(p.events, event)
	return nil
}

type fixture struct {
	db        *gorm.DB
	clock     time.Time
	scripts   ScriptService
	projects  ProjectService
	topics    TopicService
	files     FileService
	users     UserService
	activity  ActivityService
	dashboard DashboardService
	publisher *recordingPublisher
	storage   *memoryStorage
	project   models.Project
	topicIDs  []uint
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:service_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := database.ConnectSQLite(dsn)
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	return db
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := newTestDB(t)
	logger := testLogger()
	validate := NewValidator()

	scriptRepo := repository.NewScriptRepository(db)
	projectRepo := repository.NewProjectRepository(db)
	topicRepo := repository.NewTopicRepository(db)
	userRepo := repository.NewUserRepository(db)
	fileRepo := repository.NewProjectFileRepository(db)

	f := &fixture{
		db:        db,
		clock:     time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC),
		publisher: &recordingPublisher{},
		storage:   &memoryStorage{},
	}

	f.activity = NewActivityService(repository.NewActivityLogRepository(db), 10, logger)
	f.users = NewUserService(userRepo, logger)
	f.projects = NewProjectService(projectRepo, validate, f.activity, logger)
	f.topics = NewTopicService(topicRepo, validate, f.activity, logger)
	f.dashboard = NewDashboardService(scriptRepo, logger)

	scripts := NewScriptService(ScriptRepositories{
		Scripts:  scriptRepo,
		Projects: projectRepo,
		Topics:   topicRepo,
		Users:    userRepo,
	}, validate, f.activity, f.publisher, logger)
	scripts.(*scriptService).now = func() time.Time { return f.clock }
	f.scripts = scripts

	files := NewFileService(fileRepo, projectRepo, f.storage, 1, validate, f.activity, logger)
	files.(*fileService).now = func() time.Time { return f.clock }
	f.files = files

	for _, actor := range []workflow.Actor{writer, otherWriter, producer, manager, admin} {
		_, err := f.users.Sync(context.Background(), Identity{Subject: actor.ID, Role: actor.Role.String()})
		require.NoError(t, err)
	}

	f.project = models.Project{Name: "Morning Show"}
	require.NoError(t, db.Create(&f.project).Error)
	for _, name := range []string{"Culture", "Traffic"} {
		topic := models.Topic{Name: name}
		require.NoError(t, db.Create(&topic).Error)
		f.topicIDs = append(f.topicIDs, topic.ID)
	}

	return f
}

// advance moves the injected clock forward.
func (f *fixture) advance(d time.Duration) {
	f.clock = f.clock.Add(d)
}

func (f *fixture) createDraft(t *testing.T, author workflow.Actor, title string) dto.ScriptResponse {
	t.Helper()
	script, err := f.scripts.Create(context.Background(), author, dto.ScriptCreateRequest{
		Title:     title,
		ProjectID: f.project.ID,
		Content:   "<p>Good morning</p>",
		TopicIDs:  f.topicIDs,
	})
	require.NoError(t, err)
	return script
}

func (f *fixture) transition(t *testing.T, id uint, actor workflow.Actor, target workflow.Status) dto.ScriptResponse {
	t.Helper()
	script, err := f.scripts.TransitionStatus(context.Background(), id, actor, target.String())
	require.NoError(t, err)
	require.Equal(t, target, script.Status)
	return script
}

func (f *fixture) storedStatus(t *testing.T, id uint) workflow.Status {
	t.Helper()
	var script models.Script
	require.NoError(t, f.db.First(&script, id).Error)
	return script.Status
}

func (f *fixture) activityCount(t *testing.T, entityType string, entityID uint) int64 {
	t.Helper()
	var count int64
	require.NoError(t, f.db.Model(&models.ActivityLog{}).
		Where("entity_type = ? AND entity_id = ?", entityType, entityID).
		Count(&count).Error)
	return count
}

type memoryStorage struct {
	objects map[string][]byte
	err     error
}

func (m *memoryStorage) Put(_ context.Context, prefix, name string, reader io.Reader) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	data, err := io.ReadAll(reader)
	if err != nil {
		return "", err
	}
	if m.objects == nil {
		m.objects = map[string][]byte{}
	}
	key := prefix + "/" + name
	m.objects[key] = data
	return "https://cdn.example.com/" + key, nil
}

func dtoActivityFilter(entityType string) dto.ActivityListRequest {
	return dto.ActivityListRequest{EntityType: entityType, Page: 1, PageSize: 10}
}
