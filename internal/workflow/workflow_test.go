package workflow

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseRoleNormalises(t *testing.T) {
	role, err := ParseRole("  Program_Manager ")
	require.NoError(t, err)
	require.Equal(t, RoleProgramManager, role)

	_, err = ParseRole("listener")
	require.Error(t, err)
}

func TestCapabilityTableIsCumulative(t *testing.T) {
	roles := Roles()
	for i := 1; i < len(roles); i++ {
		lower := roles[i-1].Capabilities()
		higher := roles[i].Capabilities()
		require.Equal(t, lower, higher&lower, "%s must include every capability of %s", roles[i], roles[i-1])
	}

	require.False(t, RoleScriptwriter.Has(CapManageProjects))
	require.False(t, RoleRadioProducer.Has(CapManageTopics))
	require.True(t, RoleRadioProducer.Has(CapEditProduction))
	require.True(t, RoleProgramManager.Has(CapDeleteAnyScript))
	require.False(t, Role("guest").HasAny(^Capability(0)))
}

func TestTransitionAcceptsOnlyTableEdges(t *testing.T) {
	legal := map[Status]map[Status]bool{}
	for _, edge := range Edges() {
		if legal[edge.From] == nil {
			legal[edge.From] = map[Status]bool{}
		}
		legal[edge.From][edge.To] = true
	}

	for _, from := range Statuses() {
		for _, to := range Statuses() {
			_, err := Transition(from, to)
			if legal[from][to] {
				require.NoError(t, err, "%s -> %s", from, to)
				continue
			}
			require.ErrorIs(t, err, ErrInvalidTransition, "%s -> %s", from, to)

			var transitionErr *InvalidTransitionError
			require.True(t, errors.As(err, &transitionErr))
			require.Equal(t, from, transitionErr.From)
			require.Equal(t, to, transitionErr.To)
		}
	}
}

func TestNeedsRevisionOnlyReachableFromUnderReview(t *testing.T) {
	for _, edge := range Edges() {
		if edge.To == StatusNeedsRevision {
			require.Equal(t, StatusUnderReview, edge.From)
		}
	}
	require.ElementsMatch(t, []Status{StatusApproved, StatusNeedsRevision}, NextStatuses(StatusUnderReview))
	require.Empty(t, NextStatuses(StatusArchived))
}

func TestParseStatus(t *testing.T) {
	status, err := ParseStatus("UNDER_REVIEW")
	require.NoError(t, err)
	require.Equal(t, StatusUnderReview, status)

	_, err = ParseStatus("deleted")
	require.Error(t, err)
}

func TestCanPerformRules(t *testing.T) {
	const author = "writer-1"
	draft := &ScriptRef{AuthorID: author, Status: StatusDraft}
	submitted := &ScriptRef{AuthorID: author, Status: StatusSubmitted}
	revision := &ScriptRef{AuthorID: author, Status: StatusNeedsRevision}

	writer := Actor{ID: author, Role: RoleScriptwriter}
	otherWriter := Actor{ID: "writer-2", Role: RoleScriptwriter}
	producer := Actor{ID: "producer-1", Role: RoleRadioProducer}
	manager := Actor{ID: "manager-1", Role: RoleProgramManager}
	admin := Actor{ID: "admin-1", Role: RoleAdministrator}
	unknown := Actor{ID: "x", Role: Role("guest")}

	cases := []struct {
		name   string
		actor  Actor
		script *ScriptRef
		action Action
		want   Decision
	}{
		{"admin deletes anything", admin, submitted, ActionDeleteScript, Allow},
		{"admin manages topics", admin, nil, ActionManageTopics, Allow},
		{"author edits own draft", writer, draft, ActionEditScript, Allow},
		{"author edits own revision", writer, revision, ActionEditScript, Allow},
		{"author edits production fields on own draft", writer, draft, ActionEditProduction, Allow},
		{"author cannot edit submitted", writer, submitted, ActionEditScript, Deny},
		{"author cannot delete own", writer, draft, ActionDeleteScript, Deny},
		{"author cannot review own", writer, draft, ActionReviewScript, Deny},
		{"writer cannot edit others", otherWriter, draft, ActionEditScript, Deny},
		{"writer creates scripts", otherWriter, nil, ActionCreateScript, Allow},
		{"writer cannot manage projects", writer, nil, ActionManageProjects, Deny},
		{"manager edits any", manager, submitted, ActionEditScript, Allow},
		{"manager deletes any", manager, draft, ActionDeleteScript, Allow},
		{"manager reviews", manager, submitted, ActionReviewScript, Allow},
		{"manager manages projects", manager, nil, ActionManageProjects, Allow},
		{"producer edits audio on any", producer, submitted, ActionEditProduction, Allow},
		{"producer cannot edit content of others", producer, draft, ActionEditScript, Deny},
		{"producer cannot manage topics", producer, nil, ActionManageTopics, Deny},
		{"producer cannot delete", producer, draft, ActionDeleteScript, Deny},
		{"author has transition standing", writer, submitted, ActionTransitionScript, Allow},
		{"other writer lacks transition standing", otherWriter, submitted, ActionTransitionScript, Deny},
		{"producer has transition standing", producer, submitted, ActionTransitionScript, Allow},
		{"everyone uploads files", writer, nil, ActionUploadFiles, Allow},
		{"unknown role denied", unknown, draft, ActionCreateScript, Deny},
		{"unknown action denied", manager, draft, Action("publish"), Deny},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			first := CanPerform(tc.actor, tc.script, tc.action)
			require.Equal(t, tc.want, first)
			// pure: repeated evaluation yields the same decision
			require.Equal(t, first, CanPerform(tc.actor, tc.script, tc.action))
		})
	}
}

func TestAuthorizeReturnsPermissionError(t *testing.T) {
	err := Authorize(Actor{ID: "w", Role: RoleScriptwriter}, nil, ActionManageTopics)
	require.ErrorIs(t, err, ErrPermissionDenied)
	require.Equal(t, "insufficient permissions", err.Error())

	require.NoError(t, Authorize(Actor{ID: "m", Role: RoleProgramManager}, nil, ActionManageTopics))
}

func TestAuthorizeTransitionChecksEdgeActor(t *testing.T) {
	script := &ScriptRef{AuthorID: "writer-1", Status: StatusDraft}
	submit, err := Transition(StatusDraft, StatusSubmitted)
	require.NoError(t, err)

	require.NoError(t, AuthorizeTransition(Actor{ID: "writer-1", Role: RoleScriptwriter}, script, submit))
	require.ErrorIs(t, AuthorizeTransition(Actor{ID: "manager", Role: RoleProgramManager}, script, submit), ErrPermissionDenied)
	require.NoError(t, AuthorizeTransition(Actor{ID: "admin", Role: RoleAdministrator}, script, submit))

	record, err := Transition(StatusApproved, StatusRecorded)
	require.NoError(t, err)
	approved := &ScriptRef{AuthorID: "writer-1", Status: StatusApproved}
	require.NoError(t, AuthorizeTransition(Actor{ID: "p", Role: RoleRadioProducer}, approved, record))
	require.NoError(t, AuthorizeTransition(Actor{ID: "m", Role: RoleProgramManager}, approved, record))
	require.ErrorIs(t, AuthorizeTransition(Actor{ID: "writer-1", Role: RoleScriptwriter}, approved, record), ErrPermissionDenied)

	archive, err := Transition(StatusRecorded, StatusArchived)
	require.NoError(t, err)
	require.ErrorIs(t, AuthorizeTransition(Actor{ID: "p", Role: RoleRadioProducer}, approved, archive), ErrPermissionDenied)
}
