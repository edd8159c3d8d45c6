package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	validatorv10 "github.com/go-playground/validator/v10"

	"github.com/speedsneakers/order-service/internal/order/service"
	"github.com/speedsneakers/order-service/internal/platform/idempotency"
	"github.com/speedsneakers/order-service/internal/platform/log"
	"github.com/speedsneakers/order-service/pkg/request"
	"github.com/speedsneakers/order-service/pkg/respond"
)

type Service interface {
	Create(ctx context.Context, req service.CreateRequest) (*service.View, error)
	GetByID(ctx context.Context, id string) (*service.View, error)
}

type IdempotencyStore interface {
	Get(ctx context.Context, key, route string) (*idempotency.Result, error)
	Save(ctx context.Context, key, route string, orderID int64, status int) error
}

type Handler struct {
	svc      Service
	log      *log.Logger
	idem     IdempotencyStore
	validate *validatorv10.Validate
}

func NewHandler(svc Service, logger *log.Logger, idem IdempotencyStore) *Handler {
	return &Handler{svc: svc, log: logger, idem: idem, validate: validatorv10.New()}
}

type orderItemReq struct {
	ProductID int64 `json:"productId" validate:"gt=0"`
	Quantity  int   `json:"quantity" validate:"gt=0"`
}

type createOrderReq struct {
	OrderItems []orderItemReq `json:"orderItems" validate:"min=1,dive"`
}

const createRoute = "POST:/orders"

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req createOrderReq
	if err := request.DecodeJSON(w, r, &req); err != nil {
		h.warn(r, "invalid request body", err)
		respond.Error(w, http.StatusBadRequest, kindInvalidRequest, "invalid json body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.warn(r, "request validation failed", err)
		respond.Error(w, http.StatusBadRequest, kindInvalidRequest, validationReason(err))
		return
	}

	// A replayed Idempotency-Key returns the order created the first time
	// around instead of creating a duplicate.
	key := r.Header.Get("Idempotency-Key")
	if key != "" && h.idem != nil {
		if res, err := h.idem.Get(r.Context(), key, createRoute); err == nil && res.Found {
			if v, err := h.svc.GetByID(r.Context(), fmt.Sprintf("%d", res.OrderID)); err == nil {
				respond.JSON(w, res.Status, v)
				return
			}
		}
	}

	in := service.CreateRequest{Items: make([]service.ItemRequest, 0, len(req.OrderItems))}
	for _, it := range req.OrderItems {
		in.Items = append(in.Items, service.ItemRequest{ProductID: it.ProductID, Quantity: it.Quantity})
	}

	v, err := h.svc.Create(r.Context(), in)
	if err != nil {
		status, kind, msg := statusFor(err)
		h.warn(r, "order creation failed", err)
		respond.Error(w, status, kind, msg)
		return
	}

	if key != "" && h.idem != nil {
		if err := h.idem.Save(r.Context(), key, createRoute, v.ID, http.StatusCreated); err != nil {
			h.warn(r, "failed to save idempotency key", err)
		}
	}

	respond.JSON(w, http.StatusCreated, v)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	v, err := h.svc.GetByID(ctx, chiURLParam(r, "id"))
	if err != nil {
		status, kind, msg := statusFor(err)
		h.warn(r, "order lookup failed", err)
		respond.Error(w, status, kind, msg)
		return
	}
	respond.JSON(w, http.StatusOK, v)
}

// warn logs a rejection exactly once, tagged with the correlation id.
func (h *Handler) warn(r *http.Request, msg string, err error) {
	h.log.Warn(msg, log.Err(err), log.Str("correlation_id", correlationID(r.Context())))
}

func validationReason(err error) string {
	if verrs, ok := err.(validatorv10.ValidationErrors); ok && len(verrs) > 0 {
		fe := verrs[0]
		switch fe.Field() {
		case "OrderItems":
			return "orderItems must not be empty"
		case "ProductID":
			return "productId must be positive"
		case "Quantity":
			return "quantity must be positive"
		}
		return fmt.Sprintf("invalid field %s", fe.Field())
	}

	return "invalid request"
}

// --- tiny shims to decouple router from handler for tests ---

type ctxKey string

func WithURLParam(r *http.Request, key, val string) *http.Request {
	ctx := context.WithValue(r.Context(), ctxKey(key), val)

	return r.WithContext(ctx)
}

func chiURLParam(r *http.Request, key string) string {
	if v := r.Context().Value(ctxKey(key)); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}
