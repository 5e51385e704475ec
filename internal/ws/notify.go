package ws

import (
	"encoding/json"
	"time"
)

type CVChangedEvent struct {
	Type      string `json:"type"`
	VersionID int64  `json:"versionId,omitempty"`
	Source    string `json:"source,omitempty"`
	Timestamp string `json:"timestamp"`
}

// NotifyCVChanged broadcasts a change event. versionID is the archived snapshot created by the
// change.
func (h *Hub) NotifyCVChanged(eventType string, versionID int64, source string) {
	if h == nil {
		return
	}
	b, err := json.Marshal(CVChangedEvent{
		Type:      eventType,
		VersionID: versionID,
		Source:    source,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		return
	}
	h.Broadcast(b)
}
