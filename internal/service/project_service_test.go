package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/scriptdesk-api/internal/dto"
	"github.com/noah-isme/scriptdesk-api/internal/models"
	"github.com/noah-isme/scriptdesk-api/internal/workflow"
)

func TestProjectLifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.projects.Create(ctx, producer, dto.ProjectCreateRequest{Name: "Late Night"})
	require.ErrorIs(t, err, workflow.ErrPermissionDenied)

	project, err := f.projects.Create(ctx, manager, dto.ProjectCreateRequest{Name: " Late Night ", Description: "After hours"})
	require.NoError(t, err)
	require.Equal(t, "Late Night", project.Name)
	require.EqualValues(t, 1, f.activityCount(t, EntityProject, project.ID))

	_, err = f.projects.Create(ctx, manager, dto.ProjectCreateRequest{Name: "late night"})
	var validationErr *ValidationError
	require.True(t, errors.As(err, &validationErr))
	require.Contains(t, validationErr.Fields, "name")

	updated, err := f.projects.Update(ctx, project.ID, manager, dto.ProjectUpdateRequest{Description: strPtr("Midnight to dawn")})
	require.NoError(t, err)
	require.Equal(t, "Late Night", updated.Name)
	require.Equal(t, "Midnight to dawn", updated.Description)
	require.EqualValues(t, 2, f.activityCount(t, EntityProject, project.ID))

	_, err = f.projects.Update(ctx, 999, manager, dto.ProjectUpdateRequest{Name: strPtr("x")})
	require.ErrorIs(t, err, ErrProjectNotFound)

	require.NoError(t, f.projects.Delete(ctx, project.ID, admin))
	require.EqualValues(t, 3, f.activityCount(t, EntityProject, project.ID))
	require.ErrorIs(t, f.projects.Delete(ctx, project.ID, admin), ErrProjectNotFound)

	projects, err := f.projects.List(ctx)
	require.NoError(t, err)
	require.Len(t, projects, 1)
}

func TestProjectDeleteRefusedWhileScriptsRemain(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.createDraft(t, writer, "Keeps the project alive")

	require.ErrorIs(t, f.projects.Delete(ctx, f.project.ID, manager), ErrProjectInUse)

	_, err := f.projects.Get(ctx, f.project.ID)
	require.NoError(t, err)
}

func TestTopicLifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.topics.Create(ctx, writer, dto.TopicCreateRequest{Name: "Sports"})
	require.ErrorIs(t, err, workflow.ErrPermissionDenied)

	topic, err := f.topics.Create(ctx, manager, dto.TopicCreateRequest{Name: "Sports"})
	require.NoError(t, err)
	require.EqualValues(t, 1, f.activityCount(t, EntityTopic, topic.ID))

	_, err = f.topics.Create(ctx, manager, dto.TopicCreateRequest{Name: "sports"})
	var validationErr *ValidationError
	require.True(t, errors.As(err, &validationErr))

	topics, err := f.topics.List(ctx)
	require.NoError(t, err)
	require.Len(t, topics, 3)
}

func TestTopicDeleteDetachesScripts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	script := f.createDraft(t, writer, "Tagged")

	require.ErrorIs(t, f.topics.Delete(ctx, f.topicIDs[0], producer), workflow.ErrPermissionDenied)
	require.NoError(t, f.topics.Delete(ctx, f.topicIDs[0], manager))
	require.EqualValues(t, 1, f.activityCount(t, EntityTopic, f.topicIDs[0]))

	var links int64
	require.NoError(t, f.db.Model(&models.ScriptTopic{}).Where("topic_id = ?", f.topicIDs[0]).Count(&links).Error)
	require.Zero(t, links)

	reloaded, err := f.scripts.Get(ctx, script.ID)
	require.NoError(t, err)
	require.Len(t, reloaded.Topics, 1)

	require.ErrorIs(t, f.topics.Delete(ctx, f.topicIDs[0], manager), ErrTopicNotFound)
}
