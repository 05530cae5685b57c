package cli

import "fmt"

type notFoundError struct {
	kind string
	id   string
}

func (e notFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.kind, e.id)
}

func errNotFound(kind, id string) error {
	return notFoundError{kind: kind, id: id}
}

type adminOnlyError struct {
	what string
}

func (e adminOnlyError) Error() string {
	return fmt.Sprintf("permission denied: %s requires the admin role", e.what)
}

func errAdminOnly(what string) error {
	return adminOnlyError{what: what}
}

type capabilityError struct {
	taskID string
	field  string
}

func (e capabilityError) Error() string {
	return fmt.Sprintf("permission denied: not allowed to change %s on task %s", e.field, e.taskID)
}

func errCapability(taskID, field string) error {
	return capabilityError{taskID: taskID, field: field}
}

type confirmError struct {
	phrase string
}

func (e confirmError) Error() string {
	return fmt.Sprintf("confirmation mismatch: type exactly %q to proceed", e.phrase)
}

func errConfirm(phrase string) error {
	return confirmError{phrase: phrase}
}
