package http

import (
	"errors"
	"net/http"

	"github.com/speedsneakers/order-service/internal/order/domain"
)

// Error kinds as they appear on the wire.
const (
	kindInvalidRequest     = "InvalidOrderRequest"
	kindNotFound           = "OrderNotFound"
	kindDependencyFailure  = "DependencyFailure"
	kindPersistenceFailure = "OrderPersistenceFailed"
	kindUnexpected         = "Unexpected"
)

// statusFor is the single mapping from failure kinds to HTTP statuses.
// The handlers carry no error logic beyond calling it.
func statusFor(err error) (int, string, string) {
	var ire *domain.InvalidRequestError
	if errors.As(err, &ire) {
		return http.StatusBadRequest, kindInvalidRequest, ire.Reason
	}
	var nfe *domain.NotFoundError
	if errors.As(err, &nfe) {
		return http.StatusNotFound, kindNotFound, nfe.Error()
	}
	if errors.Is(err, domain.ErrDependencyFailure) {
		return http.StatusBadGateway, kindDependencyFailure, "product catalog unavailable"
	}
	if errors.Is(err, domain.ErrPersistenceFailed) {
		return http.StatusServiceUnavailable, kindPersistenceFailure, "order could not be stored"
	}

	return http.StatusInternalServerError, kindUnexpected, "internal error"
}
