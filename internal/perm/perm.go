// Package perm computes what a given user may change on a given task.
package perm

import (
	"strings"
	"time"

	"nova-cli/internal/model"
)

// Capability is the field-level edit tier for one (user, task) pair.
type Capability int

const (
	// None: the user may not change any field.
	None Capability = iota
	// StatusOnly: assignees who are neither admin nor creator may change
	// status and nothing else.
	StatusOnly
	// Full: admins and the task's creator may change all fields.
	Full
)

func (c Capability) String() string {
	switch c {
	case Full:
		return "full"
	case StatusOnly:
		return "status-only"
	default:
		return "none"
	}
}

// Resolve is deterministic in (userID, role, task.CreatedBy, task.AssignedTo):
//   - admin -> Full
//   - creator -> Full
//   - assignee (neither of the above) -> StatusOnly
//   - otherwise -> None
func Resolve(userID string, role model.Role, task model.Task) Capability {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return None
	}
	if role == model.RoleAdmin {
		return Full
	}
	if task.CreatedBy == userID {
		return Full
	}
	for _, id := range task.AssignedTo {
		if id == userID {
			return StatusOnly
		}
	}
	return None
}

// ClampPatch strips fields outside the capability's permitted set. This is a
// defensive clamp: even if a UI bug lets a status-only user edit priority,
// the submitted patch must not carry it.
func ClampPatch(c Capability, patch model.TaskPatch) model.TaskPatch {
	switch c {
	case Full:
		return patch
	case StatusOnly:
		return model.TaskPatch{Status: patch.Status}
	default:
		return model.TaskPatch{}
	}
}

// Edits holds the form state a detail view submits. Zero values mean
// "unchanged" only where the original is also zero; DiffPatch compares
// against the original record field by field.
type Edits struct {
	Title       string
	Description string
	Status      model.TaskStatus
	Priority    model.TaskPriority
	DueDate     *time.Time
	AssignedTo  []string
}

// EditsFrom seeds a form from the task's current values (priority defaults to
// medium, matching the web form).
func EditsFrom(t model.Task) Edits {
	prio := t.Priority
	if prio == "" {
		prio = model.PriorityMedium
	}
	assigned := make([]string, len(t.AssignedTo))
	copy(assigned, t.AssignedTo)
	return Edits{
		Title:       t.Title,
		Description: t.Description,
		Status:      t.Status,
		Priority:    prio,
		DueDate:     t.DueDate,
		AssignedTo:  assigned,
	}
}

// DiffPatch produces the minimal patch that turns the original task into the
// edited form: only changed fields are set. Dates compare by calendar day,
// assignees by set membership.
func DiffPatch(orig model.Task, edited Edits) model.TaskPatch {
	var patch model.TaskPatch

	if edited.Title != "" && edited.Title != orig.Title {
		title := edited.Title
		patch.Title = &title
	}
	if edited.Description != orig.Description {
		desc := edited.Description
		patch.Description = &desc
	}
	if edited.Status != "" && edited.Status != orig.Status {
		status := edited.Status
		patch.Status = &status
	}

	origPrio := orig.Priority
	if origPrio == "" {
		origPrio = model.PriorityMedium
	}
	if edited.Priority != "" && edited.Priority != origPrio {
		prio := edited.Priority
		patch.Priority = &prio
	}

	if !sameDay(edited.DueDate, orig.DueDate) {
		patch.DueDate = edited.DueDate
	}

	if !sameIDSet(edited.AssignedTo, orig.AssignedTo) {
		ids := make([]string, len(edited.AssignedTo))
		copy(ids, edited.AssignedTo)
		patch.AssignedTo = &ids
	}

	return patch
}

func sameDay(a, b *time.Time) bool {
	if a == nil && b == nil {
		return true
	}
	if a == nil || b == nil {
		return false
	}
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

func sameIDSet(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	in := func(id string, list []string) bool {
		for _, x := range list {
			if x == id {
				return true
			}
		}
		return false
	}
	for _, id := range a {
		if !in(id, b) {
			return false
		}
	}
	return true
}
