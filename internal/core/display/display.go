// Package display defines the message types that flow through the rotation.
package display

import (
	"errors"
	"time"
)

// ErrInvalidInput is returned when submitted text is empty after trimming or
// longer than MaxTextLength.
var ErrInvalidInput = errors.New("invalid text")

// MaxTextLength is the maximum message length in characters.
const MaxTextLength = 128

// Outcome reports what happened to a submitted message.
type Outcome string

const (
	// OutcomeQueued means the message was appended to the queue tail.
	OutcomeQueued Outcome = "queued"
	// OutcomeSwitched means the message replaced the current slot immediately.
	OutcomeSwitched Outcome = "switched"
)

// QueuedMessage is a message waiting for its turn on the display.
type QueuedMessage struct {
	ID         uint64    `json:"id"`
	Text       string    `json:"text"`
	Color      string    `json:"color,omitempty"` // #rrggbb, empty when unset
	EnqueuedAt time.Time `json:"-"`
}

// Current is the message presently shown on the device.
type Current struct {
	ID        uint64    `json:"id"`
	Text      string    `json:"text"`
	Color     string    `json:"color,omitempty"`
	StartedAt time.Time `json:"-"`
}

// Promote turns a queued message into the current display starting at now.
func (m QueuedMessage) Promote(now time.Time) Current {
	return Current{
		ID:        m.ID,
		Text:      m.Text,
		Color:     m.Color,
		StartedAt: now,
	}
}

// Elapsed returns how long the message has been showing.
func (c Current) Elapsed(now time.Time) time.Duration {
	return now.Sub(c.StartedAt)
}

// Item is the reporting view of a message.
type Item struct {
	ID    uint64 `json:"id"`
	Text  string `json:"text"`
	Color string `json:"color,omitempty"`
}

// Snapshot is a read-only view of the rotation state.
type Snapshot struct {
	Current        *Item  `json:"current"`
	ElapsedSeconds uint64 `json:"elapsed_seconds"`
	Items          []Item `json:"items"`
}

// Receipt is returned to a submitter.
type Receipt struct {
	ID      uint64  `json:"id"`
	Outcome Outcome `json:"status"`
}
