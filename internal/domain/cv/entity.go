package cv

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

type Status string

const (
	StatusActive   Status = "active"
	StatusArchived Status = "archived"
)

const (
	SourceAPIUpdate = "api-update"
	SourceRollback  = "rollback"
	SourceSeed      = "seed"
	SourceImport    = "import"
)

var (
	ErrNotFound        = errors.New("cv not found")
	ErrVersionNotFound = errors.New("cv version not found")
	ErrInvalidCV       = errors.New("invalid cv document")
)

// Record is the single active CV row. Data holds the stored JSON exactly as persisted.
type Record struct {
	ID        int64
	Data      json.RawMessage
	UpdatedAt time.Time
}

// Version is an archived snapshot of a previous Record.Data.
type Version struct {
	ID        int64
	CVID      int64
	Data      json.RawMessage
	Status    Status
	Source    string
	FileHash  string
	CreatedAt time.Time
}

// Decode parses and validates a stored or submitted document.
func Decode(raw []byte) (CV, error) {
	var c CV
	dec := json.NewDecoder(bytes.NewReader(raw))
	if err := dec.Decode(&c); err != nil {
		return CV{}, fmt.Errorf("%w: %v", ErrInvalidCV, err)
	}
	if err := c.Validate(); err != nil {
		return CV{}, err
	}
	return c, nil
}

// Encode produces the canonical stored form of a document.
func Encode(c CV) ([]byte, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return json.Marshal(c)
}

func (c CV) Validate() error {
	if strings.TrimSpace(c.Basics.Name) == "" {
		return fmt.Errorf("%w: basics.name is required", ErrInvalidCV)
	}
	return nil
}
