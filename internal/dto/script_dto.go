package dto

import (
	"time"

	"github.com/noah-isme/scriptdesk-api/internal/models"
	"github.com/noah-isme/scriptdesk-api/internal/workflow"
)

// ScriptCreateRequest describes the payload for creating a script. The author is
// always the authenticated user.
type ScriptCreateRequest struct {
	Title         string  `json:"title" validate:"required,max=255"`
	ProjectID     uint    `json:"project_id" validate:"required"`
	EpisodeNumber *string `json:"episode_number" validate:"omitempty,max=50"`
	Content       string  `json:"content"`
	BroadcastDate string  `json:"broadcast_date" validate:"max=10"`
	AudioLink     string  `json:"audio_link" validate:"max=500"`
	TopicIDs      []uint  `json:"topic_ids" validate:"omitempty,dive,gt=0"`
}

// ScriptUpdateRequest describes a partial update. Nil fields are left untouched;
// status is changed only through transitions.
type ScriptUpdateRequest struct {
	Title          *string `json:"title" validate:"omitempty,max=255"`
	EpisodeNumber  *string `json:"episode_number" validate:"omitempty,max=50"`
	ProjectID      *uint   `json:"project_id" validate:"omitempty,gt=0"`
	Content        *string `json:"content"`
	ReviewComments *string `json:"review_comments" validate:"omitempty,max=20000"`
	BroadcastDate  *string `json:"broadcast_date" validate:"omitempty,max=10"`
	AudioLink      *string `json:"audio_link" validate:"omitempty,max=500"`
	TopicIDs       *[]uint `json:"topic_ids"`
}

// Empty reports whether the request carries no field at all.
func (r ScriptUpdateRequest) Empty() bool {
	return r.Title == nil && r.EpisodeNumber == nil && r.ProjectID == nil && r.Content == nil &&
		r.ReviewComments == nil && r.BroadcastDate == nil && r.AudioLink == nil && r.TopicIDs == nil
}

// ScriptTransitionRequest asks for a status change.
type ScriptTransitionRequest struct {
	Status string `json:"status" validate:"required"`
}

// ScriptListRequest carries list filters.
type ScriptListRequest struct {
	Status    string
	ProjectID *uint
	AuthorID  string
	Search    string
	Page      int
	PageSize  int
}

// ScriptResponse is the serialized representation returned to API clients.
type ScriptResponse struct {
	ID             uint              `json:"id"`
	Title          string            `json:"title"`
	EpisodeNumber  *string           `json:"episode_number"`
	AuthorID       string            `json:"author_id"`
	ProjectID      uint              `json:"project_id"`
	Content        string            `json:"content"`
	Status         workflow.Status   `json:"status"`
	NextStatuses   []workflow.Status `json:"next_statuses"`
	ReviewComments string            `json:"review_comments"`
	BroadcastDate  *string           `json:"broadcast_date"`
	AudioLink      string            `json:"audio_link"`
	IsArchived     bool              `json:"is_archived"`
	SubmissionDate time.Time         `json:"submission_date"`
	LastUpdated    time.Time         `json:"last_updated"`
	CreatedAt      time.Time         `json:"created_at"`
	Author         *UserSummary      `json:"author,omitempty"`
	Project        *ProjectResponse  `json:"project,omitempty"`
	Topics         []TopicResponse   `json:"topics"`
}

// ScriptListResponse wraps a paginated script list.
type ScriptListResponse struct {
	Items      []ScriptResponse `json:"items"`
	Pagination PaginationMeta   `json:"pagination"`
}

// NewScriptResponse converts a model into a DTO.
func NewScriptResponse(script models.Script) ScriptResponse {
	response := ScriptResponse{
		ID:             script.ID,
		Title:          script.Title,
		EpisodeNumber:  script.EpisodeNumber,
		AuthorID:       script.AuthorID,
		ProjectID:      script.ProjectID,
		Content:        script.Content,
		Status:         script.Status,
		NextStatuses:   workflow.NextStatuses(script.Status),
		ReviewComments: script.ReviewComments,
		AudioLink:      script.AudioLink,
		IsArchived:     script.IsArchived,
		SubmissionDate: script.SubmissionDate,
		LastUpdated:    script.LastUpdated,
		CreatedAt:      script.CreatedAt,
		Author:         NewUserSummary(script.Author),
		Topics:         NewTopicResponseSlice(script.Topics),
	}
	if script.BroadcastDate != nil {
		formatted := script.BroadcastDate.Format(DateLayout)
		response.BroadcastDate = &formatted
	}
	if script.Project.ID != 0 {
		project := NewProjectResponse(script.Project)
		response.Project = &project
	}
	return response
}

// NewScriptResponseSlice converts a slice of models into DTOs.
func NewScriptResponseSlice(scripts []models.Script) []ScriptResponse {
	responses := make([]ScriptResponse, 0, len(scripts))
	for _, script := range scripts {
		responses = append(responses, NewScriptResponse(script))
	}
	return responses
}
