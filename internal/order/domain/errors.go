package domain

import (
	"errors"
	"fmt"
)

// Failure kinds the transport layer maps onto HTTP statuses. The service
// translates repository and catalog errors into these; nothing below the
// service leaks upward.
var (
	ErrDependencyFailure = errors.New("dependency failure")
	ErrPersistenceFailed = errors.New("order persistence failed")

	ErrProductNotFound    = errors.New("product not found")
	ErrCatalogUnavailable = errors.New("product catalog unavailable")
	ErrCatalogMalformed   = errors.New("product catalog returned malformed response")
)

type InvalidRequestError struct {
	Reason string
}

func (e *InvalidRequestError) Error() string { return e.Reason }

type NotFoundError struct {
	ID string
}

func (e *NotFoundError) Error() string { return fmt.Sprintf("order %s not found", e.ID) }
