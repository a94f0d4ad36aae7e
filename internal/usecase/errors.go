package usecase

import "errors"

var (
	ErrInvalidInput          = errors.New("invalid input")
	ErrNotFound              = errors.New("resource not found")
	ErrSchemaNotReady        = errors.New("database schema not ready")
	ErrDependencyUnavailable = errors.New("dependency unavailable")
)
