package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/speedsneakers/order-service/internal/order/domain"
	"github.com/speedsneakers/order-service/internal/platform/log"
	"github.com/speedsneakers/order-service/internal/platform/observability"
	"github.com/speedsneakers/order-service/internal/product"
)

type Repo interface {
	CreateInTx(ctx context.Context, tx pgx.Tx, o *domain.Order) error
	Get(ctx context.Context, id int64) (*domain.Order, error)
}

type Catalog interface {
	GetByID(ctx context.Context, productID int64) (*product.Snapshot, error)
}

type TxRunner interface {
	InTx(ctx context.Context, fn func(pgx.Tx) error) error
}

type ItemRequest struct {
	ProductID int64
	Quantity  int
}

type CreateRequest struct {
	Items []ItemRequest
}

type Service struct {
	repo    Repo
	catalog Catalog
	tx      TxRunner
	log     *log.Logger
	now     func() time.Time
}

func New(repo Repo, catalog Catalog, tx TxRunner, logger *log.Logger) *Service {
	return &Service{repo: repo, catalog: catalog, tx: tx, log: logger, now: time.Now}
}

var (
	ordersCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "orders_created_total",
		Help: "total number of orders created",
	})
	ordersRejected = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "orders_rejected_total",
		Help: "number of order creations rejected",
	}, []string{"reason"})
)

// Create validates the request, prices every line against the product
// catalog in request order, and persists the aggregate in one transaction.
// Nothing is written unless every item priced successfully.
func (s *Service) Create(ctx context.Context, req CreateRequest) (*View, error) {
	ctx, span := observability.Tracer("order.service").Start(ctx, "Create")
	defer span.End()

	if err := validate(req); err != nil {
		ordersRejected.WithLabelValues("invalid_request").Inc()
		s.log.Warn("order request rejected", log.Err(err))
		return nil, err
	}

	o := domain.New(s.now())
	for _, ir := range req.Items {
		snap, err := s.catalog.GetByID(ctx, ir.ProductID)
		if err != nil {
			return nil, s.catalogErr(ir.ProductID, err)
		}
		if err := o.AddItem(ir.ProductID, ir.Quantity, snap.Price); err != nil {
			ordersRejected.WithLabelValues("invalid_request").Inc()
			s.log.Warn("order request rejected", log.Err(err))
			return nil, err
		}
	}

	// Catalog calls are done; only now does the transaction open, so no
	// row locks are held while awaiting the remote service.
	if err := s.tx.InTx(ctx, func(tx pgx.Tx) error {
		return s.repo.CreateInTx(ctx, tx, o)
	}); err != nil {
		ordersRejected.WithLabelValues("persistence").Inc()
		s.log.Error("failed to persist order", log.Err(err))
		if errors.Is(err, domain.ErrPersistenceFailed) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrPersistenceFailed, err)
	}

	ordersCreated.Inc()

	return toView(o), nil
}

// GetByID resolves the raw path id and loads the aggregate. Blankness and
// numericness are business rules, not routing concerns.
func (s *Service) GetByID(ctx context.Context, id string) (*View, error) {
	ctx, span := observability.Tracer("order.service").Start(ctx, "GetByID")
	defer span.End()

	trimmed := strings.TrimSpace(id)
	if trimmed == "" {
		return nil, &domain.InvalidRequestError{Reason: "id required"}
	}
	n, err := strconv.ParseInt(trimmed, 10, 64)
	if err != nil {
		return nil, &domain.InvalidRequestError{Reason: "id must be integer"}
	}

	o, err := s.repo.Get(ctx, n)
	if err != nil {
		s.log.Error("failed to load order", log.Str("id", trimmed), log.Err(err))
		return nil, err
	}
	if o == nil {
		s.log.Warn("order not found", log.Str("id", trimmed))
		return nil, &domain.NotFoundError{ID: trimmed}
	}

	return toView(o), nil
}

func validate(req CreateRequest) error {
	if len(req.Items) == 0 {
		return &domain.InvalidRequestError{Reason: "orderItems must not be empty"}
	}
	for i, it := range req.Items {
		if it.ProductID <= 0 {
			return &domain.InvalidRequestError{Reason: fmt.Sprintf("orderItems[%d].productId must be positive", i)}
		}
		if it.Quantity <= 0 {
			return &domain.InvalidRequestError{Reason: fmt.Sprintf("orderItems[%d].quantity must be positive", i)}
		}
	}

	return nil
}

func (s *Service) catalogErr(productID int64, err error) error {
	if errors.Is(err, domain.ErrProductNotFound) {
		ordersRejected.WithLabelValues("unknown_product").Inc()
		s.log.Warn("unknown product in order request", log.Int("product_id", int(productID)))
		return &domain.InvalidRequestError{Reason: fmt.Sprintf("unknown productId=%d", productID)}
	}
	ordersRejected.WithLabelValues("catalog").Inc()
	s.log.Error("product catalog failure", log.Int("product_id", int(productID)), log.Err(err))

	return fmt.Errorf("%w: %v", domain.ErrDependencyFailure, err)
}
