package amqp

import (
	"encoding/json"
	"errors"
	"time"

	"mypgrade/internal/core"
)

// Snapshot reasons, one per mutation kind.
const (
	ReasonUpdate      = "update"
	ReasonAddScore    = "add_score"
	ReasonRemoveScore = "remove_score"
	ReasonReset       = "reset"
)

// SnapshotMessage carries the full subject collection after a mutation.
// Consumers treat the latest message as the authoritative state.
type SnapshotMessage struct {
	Reason    string         `json:"reason"`
	Subjects  []core.Subject `json:"subjects"`
	Timestamp time.Time      `json:"timestamp"`
}

// NewSnapshotMessage copies subjects so later mutations do not leak into
// a message still waiting to be published.
func NewSnapshotMessage(reason string, subjects []core.Subject) *SnapshotMessage {
	return &SnapshotMessage{
		Reason:    reason,
		Subjects:  core.CloneSubjects(subjects),
		Timestamp: time.Now().UTC(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *SnapshotMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// SnapshotMessageFromJSON decodes a message and checks it carries a usable
// subject list.
func SnapshotMessageFromJSON(data []byte) (*SnapshotMessage, error) {
	var msg SnapshotMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if msg.Subjects == nil {
		return nil, errors.New("snapshot without subjects")
	}
	if err := core.ValidateSubjects(msg.Subjects); err != nil {
		return nil, err
	}
	for i := range msg.Subjects {
		msg.Subjects[i].Scores = msg.Subjects[i].Scores.Clone()
	}
	return &msg, nil
}
