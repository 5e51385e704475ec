package usecase

import (
	"context"
	"time"

	"cv-hub/internal/database"
)

const (
	HealthOK    = "ok"
	HealthError = "error"

	DBConnected    = "connected"
	DBDisconnected = "disconnected"

	CacheConnected    = "connected"
	CacheDisconnected = "disconnected"
	CacheDisabled     = "disabled"
)

type HealthStatus struct {
	Status    string
	Timestamp time.Time
	Uptime    int64
	Database  DatabaseStatus
	Cache     string
}

type DatabaseStatus struct {
	Status string
	Type   string
}

func (h HealthStatus) Healthy() bool {
	return h.Status == HealthOK
}

// CachePinger is the cache as seen by the health check. *cache.Redis satisfies it.
type CachePinger interface {
	Enabled() bool
	Ping(ctx context.Context) error
}

type HealthUsecase interface {
	Check(ctx context.Context) HealthStatus
}

type HealthService struct {
	db      database.DB
	cache   CachePinger
	started time.Time
	now     func() time.Time
}

// NewHealthUsecase reports on db and, when non-nil, the cache. A cache outage is reported but
// does not make the service unhealthy since reads bypass it.
func NewHealthUsecase(db database.DB, cache CachePinger, started time.Time) *HealthService {
	return &HealthService{db: db, cache: cache, started: started, now: time.Now}
}

func (u *HealthService) Check(ctx context.Context) HealthStatus {
	now := u.now()
	out := HealthStatus{
		Status:    HealthOK,
		Timestamp: now.UTC(),
		Uptime:    int64(now.Sub(u.started) / time.Second),
		Database:  DatabaseStatus{Status: DBConnected},
		Cache:     u.cacheStatus(ctx),
	}
	if u.db == nil {
		out.Status = HealthError
		out.Database.Status = DBDisconnected
		return out
	}
	out.Database.Type = string(u.db.Dialect())

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := u.db.Ping(pingCtx); err != nil {
		out.Status = HealthError
		out.Database.Status = DBDisconnected
	}
	return out
}

func (u *HealthService) cacheStatus(ctx context.Context) string {
	if u.cache == nil || !u.cache.Enabled() {
		return CacheDisabled
	}
	pingCtx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	if err := u.cache.Ping(pingCtx); err != nil {
		return CacheDisconnected
	}
	return CacheConnected
}
