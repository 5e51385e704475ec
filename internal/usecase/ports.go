package usecase

import (
	"context"
	"time"
)

// PublicCache stores the rendered public CV. A disabled cache reports misses and accepts writes.
type PublicCache interface {
	GetJSON(ctx context.Context, key string, out any) (bool, error)
	SetJSON(ctx context.Context, key string, value any, ttl time.Duration) error
	DeleteByPattern(ctx context.Context, pattern string) error
}

const (
	EventCVUpdated    = "cv_updated"
	EventCVRolledBack = "cv_rolled_back"
)

type ChangeNotifier interface {
	NotifyCVChanged(eventType string, versionID int64, source string)
}

type CVMetrics interface {
	CVUpdated(source string)
	CVRolledBack()
	PublicCache(hit bool)
}
