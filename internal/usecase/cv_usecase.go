package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"cv-hub/internal/database"
	"cv-hub/internal/domain/cv"
	"cv-hub/internal/repository"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

const (
	DefaultVersionLimit = 10
	MaxVersionLimit     = 100

	publicCacheKey     = "cv:public:v1"
	publicCachePattern = "cv:public:*"

	publicBuildTimeout = 5 * time.Second
)

// PublicCV is the serialized privacy-filtered document and its strong ETag.
type PublicCV struct {
	Body []byte `json:"body"`
	ETag string `json:"etag"`
}

type VersionPage struct {
	Items   []cv.Version
	Total   int
	Limit   int
	Offset  int
	HasNext bool
}

type CVUsecase interface {
	GetPublic(ctx context.Context) (PublicCV, error)
	GetFull(ctx context.Context) (cv.Record, error)
	Update(ctx context.Context, patch []byte, source string) (cv.Record, error)
	ListVersions(ctx context.Context, limit, offset int) (VersionPage, error)
	GetVersion(ctx context.Context, id int64) (cv.Version, error)
	Rollback(ctx context.Context, versionID int64) (cv.Record, error)
	Import(ctx context.Context, doc cv.CV, source string) (cv.Record, error)
}

type CVOptions struct {
	Cache    PublicCache
	CacheTTL time.Duration
	Notifier ChangeNotifier
	Metrics  CVMetrics
	Logger   *zap.Logger
}

type CVService struct {
	db       database.DB
	cache    PublicCache
	cacheTTL time.Duration
	notifier ChangeNotifier
	metrics  CVMetrics
	logger   *zap.Logger
	now      func() time.Time

	group      singleflight.Group
	generation atomic.Uint64
}

func NewCVUsecase(db database.DB, opts CVOptions) *CVService {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CVService{
		db:       db,
		cache:    opts.Cache,
		cacheTTL: opts.CacheTTL,
		notifier: opts.Notifier,
		metrics:  opts.Metrics,
		logger:   logger,
		now:      time.Now,
	}
}

func (u *CVService) GetPublic(ctx context.Context) (PublicCV, error) {
	if u.cache != nil {
		var cached PublicCV
		hit, err := u.cache.GetJSON(ctx, publicCacheKey, &cached)
		if err != nil {
			u.logger.Warn("public cv cache read failed", zap.Error(err))
		}
		if hit && len(cached.Body) > 0 && cached.ETag != "" {
			u.observeCache(true)
			return cached, nil
		}
	}
	u.observeCache(false)

	v, err, _ := u.group.Do(publicCacheKey, func() (any, error) {
		// Shared by every coalesced caller; detached from the first caller's cancellation.
		buildCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publicBuildTimeout)
		defer cancel()

		gen := u.generation.Load()
		out, err := u.buildPublic(buildCtx)
		if err != nil {
			return PublicCV{}, err
		}
		if u.cache != nil && u.generation.Load() == gen {
			u.storePublic(buildCtx, gen, out)
		}
		return out, nil
	})
	if err != nil {
		return PublicCV{}, err
	}
	return v.(PublicCV), nil
}

// storePublic caches a body built at generation gen. afterWrite bumps the generation before it
// invalidates, so a write that raced with the SET is either seen here or deletes after it.
func (u *CVService) storePublic(ctx context.Context, gen uint64, out PublicCV) {
	if err := u.cache.SetJSON(ctx, publicCacheKey, out, u.cacheTTL); err != nil {
		u.logger.Warn("public cv cache write failed", zap.Error(err))
		return
	}
	if u.generation.Load() == gen {
		return
	}
	if err := u.cache.DeleteByPattern(ctx, publicCachePattern); err != nil {
		u.logger.Warn("public cv cache invalidation failed", zap.Error(err))
	}
}

func (u *CVService) buildPublic(ctx context.Context) (PublicCV, error) {
	rec, err := repository.NewCVRepository(u.db).GetActive(ctx)
	if err != nil {
		return PublicCV{}, err
	}
	doc, err := cv.Decode(rec.Data)
	if err != nil {
		return PublicCV{}, fmt.Errorf("decode stored cv: %w", err)
	}
	body, err := json.Marshal(cv.PublicView(doc))
	if err != nil {
		return PublicCV{}, err
	}
	return PublicCV{Body: body, ETag: `"` + cv.Fingerprint(body) + `"`}, nil
}

func (u *CVService) GetFull(ctx context.Context) (cv.Record, error) {
	return repository.NewCVRepository(u.db).GetActive(ctx)
}

// Update archives the current document, applies patch as a JSON merge patch and stores the
// result, all in one transaction.
func (u *CVService) Update(ctx context.Context, patch []byte, source string) (cv.Record, error) {
	if source == "" {
		source = cv.SourceAPIUpdate
	}

	var (
		out      cv.Record
		archived cv.Version
	)
	err := database.WithTx(ctx, u.db, func(tx database.Tx) error {
		cvs := repository.NewCVRepository(tx)
		current, err := cvs.GetActive(ctx)
		if err != nil {
			return err
		}

		merged, err := cv.MergePatch(current.Data, patch)
		if err != nil {
			return err
		}

		now := u.now().UTC()
		archived, err = repository.NewCVVersionRepository(tx).Create(ctx, repository.NewVersion{
			CVID:     current.ID,
			Data:     current.Data,
			Status:   cv.StatusArchived,
			Source:   source,
			FileHash: cv.Fingerprint(current.Data),
		}, now)
		if err != nil {
			return fmt.Errorf("archive cv version: %w", err)
		}

		if err := cvs.UpdateData(ctx, current.ID, merged, now); err != nil {
			return fmt.Errorf("write cv: %w", err)
		}
		out = cv.Record{ID: current.ID, Data: merged, UpdatedAt: now}
		return nil
	})
	if err != nil {
		return cv.Record{}, err
	}

	u.afterWrite(ctx, EventCVUpdated, archived.ID, source)
	if u.metrics != nil {
		u.metrics.CVUpdated(source)
	}
	u.logger.Info("cv updated", zap.Int64("cv_id", out.ID), zap.Int64("archived_version_id", archived.ID), zap.String("source", source))
	return out, nil
}

func (u *CVService) ListVersions(ctx context.Context, limit, offset int) (VersionPage, error) {
	if limit < 1 || limit > MaxVersionLimit || offset < 0 {
		return VersionPage{}, ErrInvalidInput
	}

	rec, err := repository.NewCVRepository(u.db).GetActive(ctx)
	if err != nil {
		if errors.Is(err, cv.ErrNotFound) {
			return VersionPage{Items: []cv.Version{}, Limit: limit, Offset: offset}, nil
		}
		return VersionPage{}, err
	}

	versions := repository.NewCVVersionRepository(u.db)
	total, err := versions.Count(ctx, rec.ID)
	if err != nil {
		return VersionPage{}, err
	}
	items, err := versions.List(ctx, rec.ID, limit, offset)
	if err != nil {
		return VersionPage{}, err
	}

	return VersionPage{
		Items:   items,
		Total:   total,
		Limit:   limit,
		Offset:  offset,
		HasNext: offset+len(items) < total,
	}, nil
}

func (u *CVService) GetVersion(ctx context.Context, id int64) (cv.Version, error) {
	if id <= 0 {
		return cv.Version{}, ErrVersionNotFound
	}
	return repository.NewCVVersionRepository(u.db).FindByID(ctx, id)
}

// Rollback archives the current document with source "rollback" and restores the data of
// versionID verbatim.
func (u *CVService) Rollback(ctx context.Context, versionID int64) (cv.Record, error) {
	if versionID <= 0 {
		return cv.Record{}, ErrVersionNotFound
	}

	var (
		out      cv.Record
		archived cv.Version
	)
	err := database.WithTx(ctx, u.db, func(tx database.Tx) error {
		versions := repository.NewCVVersionRepository(tx)
		target, err := versions.FindByID(ctx, versionID)
		if err != nil {
			return err
		}

		cvs := repository.NewCVRepository(tx)
		current, err := cvs.GetActive(ctx)
		if err != nil {
			return err
		}
		if target.CVID != current.ID {
			return ErrVersionNotFound
		}

		now := u.now().UTC()
		archived, err = versions.Create(ctx, repository.NewVersion{
			CVID:     current.ID,
			Data:     current.Data,
			Status:   cv.StatusArchived,
			Source:   cv.SourceRollback,
			FileHash: cv.Fingerprint(current.Data),
		}, now)
		if err != nil {
			return fmt.Errorf("archive cv version: %w", err)
		}

		if err := cvs.UpdateData(ctx, current.ID, target.Data, now); err != nil {
			return fmt.Errorf("restore cv: %w", err)
		}
		out = cv.Record{ID: current.ID, Data: target.Data, UpdatedAt: now}
		return nil
	})
	if err != nil {
		return cv.Record{}, err
	}

	u.afterWrite(ctx, EventCVRolledBack, archived.ID, cv.SourceRollback)
	if u.metrics != nil {
		u.metrics.CVRolledBack()
	}
	u.logger.Info("cv rolled back", zap.Int64("cv_id", out.ID), zap.Int64("restored_version_id", versionID), zap.Int64("archived_version_id", archived.ID))
	return out, nil
}

// Import replaces the whole document. The previous document, if any, is archived with source.
func (u *CVService) Import(ctx context.Context, doc cv.CV, source string) (cv.Record, error) {
	if source == "" {
		source = cv.SourceImport
	}
	data, err := cv.Encode(doc)
	if err != nil {
		return cv.Record{}, err
	}

	var (
		out        cv.Record
		archivedID int64
	)
	err = database.WithTx(ctx, u.db, func(tx database.Tx) error {
		cvs := repository.NewCVRepository(tx)
		now := u.now().UTC()

		current, err := cvs.GetActive(ctx)
		if errors.Is(err, cv.ErrNotFound) {
			out, err = cvs.Create(ctx, data, now)
			return err
		}
		if err != nil {
			return err
		}

		v, err := repository.NewCVVersionRepository(tx).Create(ctx, repository.NewVersion{
			CVID:     current.ID,
			Data:     current.Data,
			Status:   cv.StatusArchived,
			Source:   source,
			FileHash: cv.Fingerprint(current.Data),
		}, now)
		if err != nil {
			return fmt.Errorf("archive cv version: %w", err)
		}
		archivedID = v.ID

		if err := cvs.UpdateData(ctx, current.ID, data, now); err != nil {
			return err
		}
		out = cv.Record{ID: current.ID, Data: data, UpdatedAt: now}
		return nil
	})
	if err != nil {
		return cv.Record{}, err
	}

	u.afterWrite(ctx, EventCVUpdated, archivedID, source)
	if u.metrics != nil {
		u.metrics.CVUpdated(source)
	}
	u.logger.Info("cv imported", zap.Int64("cv_id", out.ID), zap.String("source", source))
	return out, nil
}

func (u *CVService) afterWrite(ctx context.Context, event string, versionID int64, source string) {
	u.generation.Add(1)
	u.group.Forget(publicCacheKey)
	if u.cache != nil {
		if err := u.cache.DeleteByPattern(ctx, publicCachePattern); err != nil {
			u.logger.Warn("public cv cache invalidation failed", zap.Error(err))
		}
	}
	if u.notifier != nil {
		u.notifier.NotifyCVChanged(event, versionID, source)
	}
}

func (u *CVService) observeCache(hit bool) {
	if u.metrics != nil && u.cache != nil {
		u.metrics.PublicCache(hit)
	}
}
