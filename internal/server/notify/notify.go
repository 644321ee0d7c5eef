// Package notify dispatches one-shot milestone notifications after a lock
// scan reached a configured threshold.
package notify

import (
	"context"
	"errors"
	"time"
)

// MilestoneEvent is the payload sent when a lock reaches a milestone.
type MilestoneEvent struct {
	LockID     int64     `json:"lockId"`
	HashedID   string    `json:"hashedId,omitempty"`
	LockName   string    `json:"lockName"`
	AlbumTitle string    `json:"albumTitle"`
	UserID     *int64    `json:"userId,omitempty"`
	Milestone  int64     `json:"milestone"`
	ScanCount  int64     `json:"scanCount"`
	OccurredAt time.Time `json:"occurredAt"`
}

// Notifier delivers milestone events. Implementations do not retry.
type Notifier interface {
	NotifyMilestone(ctx context.Context, event MilestoneEvent) error
}

// Nop discards events.
type Nop struct{}

func (Nop) NotifyMilestone(context.Context, MilestoneEvent) error { return nil }

// Multi delivers an event to every notifier and joins their errors. One
// failing sink does not stop the others.
type Multi []Notifier

func (m Multi) NotifyMilestone(ctx context.Context, event MilestoneEvent) error {
	var errs []error
	for _, n := range m {
		if err := n.NotifyMilestone(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
