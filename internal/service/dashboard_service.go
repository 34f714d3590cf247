package service

import (
	"context"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/noah-isme/scriptdesk-api/internal/dto"
	"github.com/noah-isme/scriptdesk-api/internal/repository"
	"github.com/noah-isme/scriptdesk-api/internal/workflow"
)

// DashboardService aggregates workflow counts for the dashboard.
type DashboardService interface {
	GetDashboardStats(ctx context.Context) dto.DashboardStats
}

type dashboardService struct {
	scripts repository.ScriptRepository
	logger  zerolog.Logger
	tracer  trace.Tracer
}

// NewDashboardService constructs the aggregator.
func NewDashboardService(scripts repository.ScriptRepository, logger zerolog.Logger) DashboardService {
	return &dashboardService{
		scripts: scripts,
		logger:  logger.With().Str("component", "dashboard_service").Logger(),
		tracer:  otel.Tracer("github.com/noah-isme/scriptdesk-api/internal/service/dashboard"),
	}
}

// GetDashboardStats never fails: storage errors degrade to zeroed stats.
func (s *dashboardService) GetDashboardStats(ctx context.Context) dto.DashboardStats {
	ctx, span := s.tracer.Start(ctx, "dashboard.stats")
	defer span.End()

	rows, err := s.scripts.CountByStatus(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "count failed")
		s.logger.Warn().Err(err).Msg("dashboard aggregation failed, returning zeroed stats")
		return dto.EmptyDashboardStats()
	}

	stats := dto.EmptyDashboardStats()
	for _, row := range rows {
		if row.Count == 0 {
			continue
		}
		stats.WorkflowCounts[row.Status.String()] += row.Count
		stats.TotalScripts += row.Count

		switch row.Status {
		case workflow.StatusUnderReview:
			stats.PendingReview += row.Count
		case workflow.StatusApproved:
			stats.Approved += row.Count
		case workflow.StatusRecorded:
			stats.Recorded += row.Count
		case workflow.StatusDraft:
			stats.Drafts += row.Count
		case workflow.StatusNeedsRevision:
			stats.NeedsRevision += row.Count
		}
	}

	span.SetAttributes(attribute.Int64("dashboard.total_scripts", stats.TotalScripts))
	span.SetStatus(codes.Ok, "aggregated")
	return stats
}
