package workflow

import (
	"errors"
	"fmt"
	"strings"
)

// Status is a workflow state of a script.
type Status string

// Workflow states.
const (
	StatusDraft         Status = "draft"
	StatusSubmitted     Status = "submitted"
	StatusUnderReview   Status = "under_review"
	StatusApproved      Status = "approved"
	StatusNeedsRevision Status = "needs_revision"
	StatusRecorded      Status = "recorded"
	StatusArchived      Status = "archived"
)

// InitialStatus is the state every new script starts in.
const InitialStatus = StatusDraft

// ErrInvalidTransition matches every *InvalidTransitionError.
var ErrInvalidTransition = errors.New("invalid status transition")

// InvalidTransitionError reports an edge that is not part of the state machine.
type InvalidTransitionError struct {
	From Status
	To   Status
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("cannot move script from %q to %q", e.From, e.To)
}

// Is lets errors.Is match against ErrInvalidTransition.
func (e *InvalidTransitionError) Is(target error) bool {
	return target == ErrInvalidTransition
}

// EdgeActor names who may fire an edge.
type EdgeActor int

const (
	// ActorAuthor restricts the edge to the script's author.
	ActorAuthor EdgeActor = iota + 1
	// ActorCapability restricts the edge to roles holding Edge.Requires.
	ActorCapability
)

// Edge is one legal transition of the state machine.
type Edge struct {
	From     Status
	To       Status
	Trigger  string
	Actor    EdgeActor
	Requires Capability
}

var edges = []Edge{
	{From: StatusDraft, To: StatusSubmitted, Trigger: "submit for review", Actor: ActorAuthor},
	{From: StatusSubmitted, To: StatusUnderReview, Trigger: "open for review", Actor: ActorCapability, Requires: CapReview},
	{From: StatusUnderReview, To: StatusApproved, Trigger: "approve", Actor: ActorCapability, Requires: CapReview},
	{From: StatusUnderReview, To: StatusNeedsRevision, Trigger: "request changes", Actor: ActorCapability, Requires: CapReview},
	{From: StatusNeedsRevision, To: StatusSubmitted, Trigger: "resubmit", Actor: ActorAuthor},
	{From: StatusApproved, To: StatusRecorded, Trigger: "attach recording", Actor: ActorCapability, Requires: CapRecord},
	{From: StatusRecorded, To: StatusArchived, Trigger: "archive", Actor: ActorCapability, Requires: CapArchive},
}

var edgeIndex = func() map[Status]map[Status]Edge {
	index := make(map[Status]map[Status]Edge, len(edges))
	for _, edge := range edges {
		if index[edge.From] == nil {
			index[edge.From] = make(map[Status]Edge)
		}
		index[edge.From][edge.To] = edge
	}
	return index
}()

// Statuses lists every workflow state in lifecycle order.
func Statuses() []Status {
	return []Status{
		StatusDraft,
		StatusSubmitted,
		StatusUnderReview,
		StatusApproved,
		StatusNeedsRevision,
		StatusRecorded,
		StatusArchived,
	}
}

// ParseStatus normalises a raw status value.
func ParseStatus(raw string) (Status, error) {
	status := Status(strings.ToLower(strings.TrimSpace(raw)))
	if !status.Valid() {
		return "", fmt.Errorf("unknown status %q", raw)
	}
	return status, nil
}

// Valid reports whether s is a defined workflow state.
func (s Status) Valid() bool {
	switch s {
	case StatusDraft, StatusSubmitted, StatusUnderReview, StatusApproved,
		StatusNeedsRevision, StatusRecorded, StatusArchived:
		return true
	}
	return false
}

// AuthorEditable reports whether an author may still edit a script in this state.
func (s Status) AuthorEditable() bool {
	return s == StatusDraft || s == StatusNeedsRevision
}

func (s Status) String() string {
	return string(s)
}

// Edges returns a copy of the transition table.
func Edges() []Edge {
	return append([]Edge(nil), edges...)
}

// NextStatuses lists the states reachable from s in one step.
func NextStatuses(s Status) []Status {
	next := make([]Status, 0, 2)
	for _, edge := range edges {
		if edge.From == s {
			next = append(next, edge.To)
		}
	}
	return next
}

// Transition looks up the edge from -> to. It never coerces: anything outside
// the table is an *InvalidTransitionError.
func Transition(from, to Status) (Edge, error) {
	if edge, ok := edgeIndex[from][to]; ok {
		return edge, nil
	}
	return Edge{}, &InvalidTransitionError{From: from, To: to}
}
