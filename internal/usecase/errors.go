package usecase

import (
	"errors"

	"cv-hub/internal/domain/cv"
	"cv-hub/internal/repository"
)

var (
	ErrCVNotFound      = cv.ErrNotFound
	ErrVersionNotFound = cv.ErrVersionNotFound
	ErrInvalidCV       = cv.ErrInvalidCV
	ErrConfigNotFound  = repository.ErrConfigNotFound
	ErrConfigExists    = repository.ErrConfigExists
	ErrInvalidInput    = errors.New("invalid input")
)
