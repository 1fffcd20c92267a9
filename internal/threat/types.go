package threat

import (
	"context"
	"time"
)

// AlertRecord is a stored copy of a bus alert.
type AlertRecord struct {
	ID         string    `json:"id"`
	ThreatType string    `json:"threat_type"`
	Snippet    string    `json:"snippet"`
	Context    string    `json:"context"`
	Timestamp  time.Time `json:"timestamp"`
}

// AlertStore persists alert records.
type AlertStore interface {
	Save(ctx context.Context, rec AlertRecord) error
}
