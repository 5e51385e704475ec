package seeder

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"cv-hub/internal/database"
	"cv-hub/internal/domain/cv"
	"cv-hub/internal/repository"
	"cv-hub/internal/usecase"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

//go:embed data/default_cv.yaml
var defaultCV []byte

// Importer replaces the stored CV. The server passes its CV use case so that caches and
// subscribers see the change.
type Importer interface {
	Import(ctx context.Context, doc cv.CV, source string) (cv.Record, error)
}

// CVSeeder stores a CV when the table is empty, or always when Force is set. The document comes
// from File (YAML or JSON) or the bundled default.
type CVSeeder struct {
	File     string
	Force    bool
	Importer Importer
	Logger   *zap.Logger
}

func (CVSeeder) Name() string { return "cv" }

func (s CVSeeder) Run(ctx context.Context, db database.DB) error {
	logger := s.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := EnsureTableColumns(ctx, db, "cv", "id", "data", "updated_at"); err != nil {
		return err
	}

	if !s.Force {
		_, err := repository.NewCVRepository(db).GetActive(ctx)
		if err == nil {
			logger.Debug("cv already present, skipping seed")
			return nil
		}
		if !errors.Is(err, cv.ErrNotFound) {
			return err
		}
	}

	doc, err := s.document()
	if err != nil {
		return err
	}

	importer := s.Importer
	if importer == nil {
		importer = usecase.NewCVUsecase(db, usecase.CVOptions{Logger: logger})
	}
	rec, err := importer.Import(ctx, doc, cv.SourceSeed)
	if err != nil {
		return err
	}

	from := "embedded default"
	if s.File != "" {
		from = s.File
	}
	logger.Info("cv seeded", zap.Int64("cv_id", rec.ID), zap.String("from", from))
	return nil
}

func (s CVSeeder) document() (cv.CV, error) {
	if s.File == "" {
		return ParseDocument(defaultCV, ".yaml")
	}
	b, err := os.ReadFile(s.File)
	if err != nil {
		return cv.CV{}, fmt.Errorf("read seed file: %w", err)
	}
	return ParseDocument(b, filepath.Ext(s.File))
}

// ParseDocument decodes a CV from JSON or YAML. ext selects the format; anything other than
// .json is treated as YAML.
func ParseDocument(b []byte, ext string) (cv.CV, error) {
	if strings.EqualFold(ext, ".json") {
		return cv.Decode(b)
	}

	var raw any
	if err := yaml.Unmarshal(b, &raw); err != nil {
		return cv.CV{}, fmt.Errorf("%w: %v", cv.ErrInvalidCV, err)
	}
	if _, ok := raw.(map[string]any); !ok {
		return cv.CV{}, fmt.Errorf("%w: document must be a mapping", cv.ErrInvalidCV)
	}
	j, err := json.Marshal(raw)
	if err != nil {
		return cv.CV{}, fmt.Errorf("%w: %v", cv.ErrInvalidCV, err)
	}
	return cv.Decode(j)
}
