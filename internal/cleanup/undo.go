package cleanup

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// PreState captures the remote state relevant to one action just before it
// is applied. Rollback compares against it to detect drift. Only the field
// matching the action kind is set.
type PreState struct {
	Liked      *bool `json:"liked,omitempty"`
	InPlaylist *bool `json:"in_playlist,omitempty"`
}

// UndoEntry records one successfully applied action's exact inverse plus
// the pre-action state needed to detect drift.
type UndoEntry struct {
	Inverse   Action    `json:"inverse"`
	Pre       PreState  `json:"pre_state"`
	AppliedAt time.Time `json:"applied_at"`
}

// UndoLog is an append-only sequence of undo entries, one per successfully
// applied action, in application order. Rollback consumes it strictly
// back-to-front and requires no other state.
type UndoLog struct {
	PlanID  string      `json:"plan_id"`
	Entries []UndoEntry `json:"entries"`
}

// NewUndoLog creates an empty log for a plan.
func NewUndoLog(planID string) *UndoLog {
	return &UndoLog{PlanID: planID}
}

// Append records one applied action. Entries are never edited or reordered
// after the fact.
func (u *UndoLog) Append(entry UndoEntry) {
	u.Entries = append(u.Entries, entry)
}

// Len returns the number of recorded entries.
func (u *UndoLog) Len() int { return len(u.Entries) }

// Save writes the log as indented JSON with a stable field order.
func (u *UndoLog) Save(path string) error {
	data, err := json.MarshalIndent(u, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal undo log: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("failed to write undo log: %w", err)
	}
	return nil
}

// LoadUndoLog reads an undo log written by [UndoLog.Save].
func LoadUndoLog(path string) (*UndoLog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read undo log: %w", err)
	}
	var log UndoLog
	if err := json.Unmarshal(data, &log); err != nil {
		return nil, fmt.Errorf("failed to parse undo log: %w", err)
	}
	return &log, nil
}
