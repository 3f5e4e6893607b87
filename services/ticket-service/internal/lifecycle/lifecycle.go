// Package lifecycle is the service ticket state machine.
package lifecycle

import (
	"fmt"
	"strings"

	"github.com/nexzo/platform/gomicro/apperror"
)

// Status of a service ticket. NEW is the only initial state and CLOSED is terminal.
type Status string

const (
	StatusNew        Status = "NEW"
	StatusTriaged    Status = "TRIAGED"
	StatusQuoted     Status = "QUOTED"
	StatusScheduled  Status = "SCHEDULED"
	StatusInProgress Status = "IN_PROGRESS"
	StatusCompleted  Status = "COMPLETED"
	StatusVerified   Status = "VERIFIED"
	StatusClosed     Status = "CLOSED"
)

// Statuses lists every status in lifecycle order
var Statuses = []Status{
	StatusNew, StatusTriaged, StatusQuoted, StatusScheduled,
	StatusInProgress, StatusCompleted, StatusVerified, StatusClosed,
}

// ParseStatus accepts the exact status name
func ParseStatus(s string) (Status, error) {
	for _, status := range Statuses {
		if string(status) == s {
			return status, nil
		}
	}
	return "", apperror.BadRequestf("Unknown ticket status: %s", s)
}

// AllowedTransitions returns the statuses reachable from current
func AllowedTransitions(current Status) []Status {
	switch current {
	case StatusNew:
		return []Status{StatusTriaged, StatusInProgress, StatusClosed}
	case StatusTriaged:
		return []Status{StatusQuoted, StatusInProgress, StatusClosed}
	case StatusQuoted:
		return []Status{StatusScheduled, StatusClosed}
	case StatusScheduled:
		return []Status{StatusInProgress, StatusClosed}
	case StatusInProgress:
		return []Status{StatusCompleted, StatusClosed}
	case StatusCompleted:
		return []Status{StatusVerified, StatusClosed}
	case StatusVerified:
		return []Status{StatusClosed}
	case StatusClosed:
		return nil
	default:
		return nil
	}
}

// CanTransition reports whether current may move to next
func CanTransition(current, next Status) bool {
	for _, allowed := range AllowedTransitions(current) {
		if allowed == next {
			return true
		}
	}
	return false
}

// EnsureTransition fails with BadRequest naming both states when the move is not allowed
func EnsureTransition(current, next Status) error {
	if !CanTransition(current, next) {
		return apperror.BadRequestf("Cannot transition ticket from %s to %s", current, next)
	}
	return nil
}

// Activity actions written to the audit trail
const (
	ActionCreated    = "created"
	ActionAssignment = "assignment:provider"
)

// StatusAction is the activity action recorded for a move to next
func StatusAction(next Status) string {
	return "status:" + strings.ToLower(string(next))
}

// Priority of a service ticket
type Priority string

const (
	PriorityLow    Priority = "LOW"
	PriorityMedium Priority = "MEDIUM"
	PriorityHigh   Priority = "HIGH"
)

// ParsePriority maps low/medium/high in any case; anything else is MEDIUM
func ParsePriority(s string) Priority {
	switch p := Priority(strings.ToUpper(s)); p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return p
	default:
		return PriorityMedium
	}
}

// ScheduleStatus is the status every upserted schedule is set to
const ScheduleStatus = "scheduled"

// ContactNotes joins the contact fields that are present, or returns nil
// when there are none
func ContactNotes(email, phone string) *string {
	parts := make([]string, 0, 2)
	for _, p := range []string{email, phone} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	if len(parts) == 0 {
		return nil
	}
	notes := fmt.Sprintf("Contact: %s", strings.Join(parts, " / "))
	return &notes
}
