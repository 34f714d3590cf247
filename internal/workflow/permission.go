package workflow

import "errors"

// ErrPermissionDenied is returned for every denied action. It never carries
// the reason.
var ErrPermissionDenied = errors.New("insufficient permissions")

// Action is something an actor may attempt.
type Action string

// Actions evaluated by CanPerform.
const (
	ActionCreateScript     Action = "create_script"
	ActionEditScript       Action = "edit_script"
	ActionEditProduction   Action = "edit_production"
	ActionReviewScript     Action = "review_script"
	ActionDeleteScript     Action = "delete_script"
	ActionTransitionScript Action = "transition_script"
	ActionManageProjects   Action = "manage_projects"
	ActionManageTopics     Action = "manage_topics"
	ActionUploadFiles      Action = "upload_files"
)

// Decision is the outcome of a permission check.
type Decision bool

const (
	Allow Decision = true
	Deny  Decision = false
)

// Actor is the authenticated user as claimed by the identity provider.
type Actor struct {
	ID   string
	Role Role
}

// ScriptRef carries the script attributes permission rules depend on.
type ScriptRef struct {
	AuthorID string
	Status   Status
}

// Owns reports whether the actor authored the referenced script.
func (a Actor) Owns(script *ScriptRef) bool {
	return script != nil && a.ID != "" && script.AuthorID == a.ID
}

// CanPerform decides whether actor may perform action on script. script may be
// nil for actions that are not scoped to a script. The result depends only on
// role, authorship and status.
func CanPerform(actor Actor, script *ScriptRef, action Action) Decision {
	if actor.Role == RoleAdministrator {
		return Allow
	}

	if actor.Owns(script) && isEditAction(action) && script.Status.AuthorEditable() && actor.Role.Has(CapEditOwnScript) {
		return Allow
	}

	role := actor.Role
	switch action {
	case ActionCreateScript:
		return Decision(role.Has(CapCreateScript))
	case ActionEditScript:
		return Decision(script != nil && role.Has(CapEditAnyScript))
	case ActionEditProduction:
		return Decision(script != nil && role.Has(CapEditProduction))
	case ActionReviewScript:
		return Decision(script != nil && role.Has(CapReview))
	case ActionDeleteScript:
		return Decision(script != nil && role.Has(CapDeleteAnyScript))
	case ActionTransitionScript:
		if script == nil {
			return Deny
		}
		return Decision(actor.Owns(script) || role.HasAny(CapReview|CapRecord|CapArchive))
	case ActionManageProjects:
		return Decision(role.Has(CapManageProjects))
	case ActionManageTopics:
		return Decision(role.Has(CapManageTopics))
	case ActionUploadFiles:
		return Decision(role.Has(CapUploadFiles))
	}

	return Deny
}

// Authorize is CanPerform expressed as an error.
func Authorize(actor Actor, script *ScriptRef, action Action) error {
	if CanPerform(actor, script, action) == Deny {
		return ErrPermissionDenied
	}
	return nil
}

// AuthorizeTransition checks that actor may fire edge on script.
func AuthorizeTransition(actor Actor, script *ScriptRef, edge Edge) error {
	if actor.Role == RoleAdministrator {
		return nil
	}
	switch edge.Actor {
	case ActorAuthor:
		if actor.Owns(script) {
			return nil
		}
	case ActorCapability:
		if actor.Role.Has(edge.Requires) {
			return nil
		}
	}
	return ErrPermissionDenied
}

func isEditAction(action Action) bool {
	return action == ActionEditScript || action == ActionEditProduction
}
