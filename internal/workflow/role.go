package workflow

import (
	"fmt"
	"strings"
)

// Role identifies the workflow role carried by an authenticated user.
type Role string

// Supported roles.
const (
	RoleScriptwriter   Role = "scriptwriter"
	RoleRadioProducer  Role = "radio_producer"
	RoleProgramManager Role = "program_manager"
	RoleAdministrator  Role = "administrator"
)

// Capability is a single permission bit held by a role.
type Capability uint16

// Capabilities granted through the role table.
const (
	CapCreateScript Capability = 1 << iota
	CapEditOwnScript
	CapUploadFiles
	CapEditProduction
	CapRecord
	CapEditAnyScript
	CapDeleteAnyScript
	CapReview
	CapArchive
	CapManageProjects
	CapManageTopics
)

const writerCapabilities = CapCreateScript | CapEditOwnScript | CapUploadFiles

const producerCapabilities = writerCapabilities | CapEditProduction | CapRecord

const managerCapabilities = producerCapabilities |
	CapEditAnyScript |
	CapDeleteAnyScript |
	CapReview |
	CapArchive |
	CapManageProjects |
	CapManageTopics

var capabilityTable = map[Role]Capability{
	RoleScriptwriter:   writerCapabilities,
	RoleRadioProducer:  producerCapabilities,
	RoleProgramManager: managerCapabilities,
	RoleAdministrator:  ^Capability(0),
}

// Roles lists every supported role in ascending order of privilege.
func Roles() []Role {
	return []Role{RoleScriptwriter, RoleRadioProducer, RoleProgramManager, RoleAdministrator}
}

// ParseRole normalises a raw role claim. Unknown values are rejected.
func ParseRole(raw string) (Role, error) {
	role := Role(strings.ToLower(strings.TrimSpace(raw)))
	if !role.Valid() {
		return "", fmt.Errorf("unknown role %q", raw)
	}
	return role, nil
}

// Valid reports whether the role is part of the capability table.
func (r Role) Valid() bool {
	_, ok := capabilityTable[r]
	return ok
}

// Capabilities returns the capability set of the role; unknown roles hold none.
func (r Role) Capabilities() Capability {
	return capabilityTable[r]
}

// Has reports whether the role holds every bit of want.
func (r Role) Has(want Capability) bool {
	return want != 0 && r.Capabilities()&want == want
}

// HasAny reports whether the role holds at least one bit of caps.
func (r Role) HasAny(caps Capability) bool {
	return r.Capabilities()&caps != 0
}

func (r Role) String() string {
	return string(r)
}
