// Package scope decides which rows belong to which viewing context.
//
// A Context is the tri-state active context of a user (unloaded, personal or one
// group). Filter turns a loaded Context into a Predicate, and every read and write
// against a scoped record goes through a Predicate.
package scope

import "fmt"

// Mode is the kind of context.
type Mode int

const (
	// Unloaded means the context has not been fetched yet.
	// It is never treated as personal.
	Unloaded Mode = iota
	Personal
	Group
)

func (m Mode) String() string {
	switch m {
	case Personal:
		return "personal"
	case Group:
		return "group"
	default:
		return "unloaded"
	}
}

// Context is the data-ownership scope a user is viewing under.
// The zero value is Unloaded.
type Context struct {
	Mode    Mode
	GroupID string
}

// PersonalContext returns the personal context.
func PersonalContext() Context { return Context{Mode: Personal} }

// GroupContext returns the shared context of one group.
func GroupContext(groupID string) Context { return Context{Mode: Group, GroupID: groupID} }

// FromActiveContextID converts the nullable profile column into a Context.
func FromActiveContextID(id *string) Context {
	if id == nil || *id == "" {
		return PersonalContext()
	}
	return GroupContext(*id)
}

// ActiveContextID is the value to persist on the profile: nil for personal.
func (c Context) ActiveContextID() *string {
	if c.Mode != Group {
		return nil
	}
	id := c.GroupID
	return &id
}

func (c Context) IsLoaded() bool   { return c.Mode != Unloaded }
func (c Context) IsPersonal() bool { return c.Mode == Personal }

// Key identifies the context in cache entries. Unloaded contexts have no key.
func (c Context) Key() string {
	switch c.Mode {
	case Personal:
		return "personal"
	case Group:
		return "group:" + c.GroupID
	default:
		return ""
	}
}

func (c Context) String() string {
	if c.Mode == Group {
		return fmt.Sprintf("group(%s)", c.GroupID)
	}
	return c.Mode.String()
}
