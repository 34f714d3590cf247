package dto

// DashboardStats summarises scripts per workflow state.
type DashboardStats struct {
	TotalScripts   int64            `json:"total_scripts"`
	PendingReview  int64            `json:"pending_review"`
	Approved       int64            `json:"approved"`
	Recorded       int64            `json:"recorded"`
	Drafts         int64            `json:"drafts"`
	NeedsRevision  int64            `json:"needs_revision"`
	WorkflowCounts map[string]int64 `json:"workflow_counts"`
}

// EmptyDashboardStats is the zeroed structure returned for an empty or unreachable store.
func EmptyDashboardStats() DashboardStats {
	return DashboardStats{WorkflowCounts: map[string]int64{}}
}
