package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/scriptdesk-api/internal/models"
	"github.com/noah-isme/scriptdesk-api/internal/repository"
	"github.com/noah-isme/scriptdesk-api/internal/workflow"
)

func TestDashboardStatsEmpty(t *testing.T) {
	f := newFixture(t)

	stats := f.dashboard.GetDashboardStats(context.Background())
	require.Zero(t, stats.TotalScripts)
	require.Zero(t, stats.PendingReview)
	require.Zero(t, stats.Approved)
	require.Zero(t, stats.Recorded)
	require.Zero(t, stats.Drafts)
	require.Zero(t, stats.NeedsRevision)
	require.NotNil(t, stats.WorkflowCounts)
	require.Empty(t, stats.WorkflowCounts)
}

func TestDashboardStatsCountsByStatus(t *testing.T) {
	f := newFixture(t)

	first := f.createDraft(t, writer, "One")
	second := f.createDraft(t, writer, "Two")
	f.createDraft(t, otherWriter, "Three")

	f.transition(t, first.ID, writer, workflow.StatusSubmitted)
	f.transition(t, first.ID, manager, workflow.StatusUnderReview)
	f.transition(t, second.ID, writer, workflow.StatusSubmitted)

	stats := f.dashboard.GetDashboardStats(context.Background())
	require.EqualValues(t, 3, stats.TotalScripts)
	require.EqualValues(t, 1, stats.Drafts)
	require.EqualValues(t, 1, stats.PendingReview)
	require.Zero(t, stats.Approved)
	require.Equal(t, map[string]int64{"draft": 1, "submitted": 1, "under_review": 1}, stats.WorkflowCounts)
}

type brokenScriptRepo struct {
	repository.ScriptRepository
}

func (brokenScriptRepo) CountByStatus(context.Context) ([]repository.StatusCount, error) {
	return nil, errors.New("connection refused")
}

func TestDashboardStatsDegradesOnStorageFailure(t *testing.T) {
	svc := NewDashboardService(brokenScriptRepo{}, testLogger())

	stats := svc.GetDashboardStats(context.Background())
	require.Zero(t, stats.TotalScripts)
	require.Empty(t, stats.WorkflowCounts)
}

func TestRecentActivityJoinsUsers(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.createDraft(t, writer, "One")
	f.createDraft(t, writer, "Two")

	recent, err := f.activity.Recent(ctx, 1)
	require.NoError(t, err)
	require.Len(t, recent, 1)
	require.Equal(t, "Created script: Two", recent[0].Details)
	require.NotNil(t, recent[0].User)
	require.Equal(t, writer.ID, recent[0].User.ID)

	list, err := f.activity.List(ctx, dtoActivityFilter(EntityScript))
	require.NoError(t, err)
	require.EqualValues(t, 2, list.Pagination.TotalItems)
}

func TestLogActivityValidatesAndMasks(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.activity.LogActivity(ctx, "", ActionCreated, EntityScript, 1, "no actor")
	var validationErr *ValidationError
	require.True(t, errors.As(err, &validationErr))
	require.Contains(t, validationErr.Fields, "user_id")

	entry, err := f.activity.Record(ctx, ActivityEntry{
		ActorID:    manager.ID,
		Action:     "Created",
		EntityType: "Project",
		EntityID:   3,
		Metadata:   map[string]interface{}{"contact_email": "host@example.com", "field": "name"},
	})
	require.NoError(t, err)
	require.Equal(t, "created", entry.Action)
	require.Equal(t, "project", entry.EntityType)
	require.Equal(t, "***", entry.Metadata["contact_email"])
	require.Equal(t, "name", entry.Metadata["field"])
}

func TestActivityLogIsAppendOnly(t *testing.T) {
	f := newFixture(t)
	_, err := f.activity.LogActivity(context.Background(), writer.ID, ActionCreated, EntityScript, 1, "Created script: x")
	require.NoError(t, err)

	var entry models.ActivityLog
	require.NoError(t, f.db.First(&entry).Error)

	entry.Details = "rewritten"
	require.ErrorIs(t, f.db.Save(&entry).Error, models.ErrActivityLogImmutable)
	require.ErrorIs(t, f.db.Delete(&entry).Error, models.ErrActivityLogImmutable)
}
