package http

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/speedsneakers/order-service/internal/order/domain"
	"github.com/speedsneakers/order-service/internal/order/service"
	"github.com/speedsneakers/order-service/internal/platform/idempotency"
	"github.com/speedsneakers/order-service/internal/platform/log"
)

type fakeService struct {
	createFn func(ctx context.Context, req service.CreateRequest) (*service.View, error)
	getFn    func(ctx context.Context, id string) (*service.View, error)
}

func (f *fakeService) Create(ctx context.Context, req service.CreateRequest) (*service.View, error) {
	return f.createFn(ctx, req)
}

func (f *fakeService) GetByID(ctx context.Context, id string) (*service.View, error) {
	return f.getFn(ctx, id)
}

func sampleView() *service.View {
	return &service.View{
		ID:          1,
		OrderDate:   "2025-03-14T12:00:00",
		Status:      "PENDING",
		TotalAmount: "100.00",
		OrderItems: []service.ItemView{
			{ID: 2, ProductID: 10, Quantity: 2, PricePerUnit: "50.00", Subtotal: "100.00"},
		},
	}
}

func newTestRouter(svc Service) http.Handler {
	return NewRouter(NewHandler(svc, log.New("test"), nil), log.New("test"))
}

type errBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func decodeErr(t *testing.T, rec *httptest.ResponseRecorder) errBody {
	t.Helper()
	var b errBody
	if err := json.NewDecoder(rec.Body).Decode(&b); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	return b
}

func TestCreateHappyPath(t *testing.T) {
	var gotReq service.CreateRequest
	svc := &fakeService{
		createFn: func(ctx context.Context, req service.CreateRequest) (*service.View, error) {
			gotReq = req
			return sampleView(), nil
		},
	}
	rec := httptest.NewRecorder()
	body := `{"orderItems":[{"productId":10,"quantity":2}]}`
	newTestRouter(svc).ServeHTTP(rec, httptest.NewRequest("POST", "/orders", strings.NewReader(body)))

	if rec.Code != http.StatusCreated {
		t.Fatalf("status: got %d want 201, body %s", rec.Code, rec.Body)
	}
	if len(gotReq.Items) != 1 || gotReq.Items[0].ProductID != 10 || gotReq.Items[0].Quantity != 2 {
		t.Fatalf("request mapping: got %+v", gotReq)
	}
	var v service.View
	if err := json.NewDecoder(rec.Body).Decode(&v); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if v.TotalAmount != "100.00" || v.Status != "PENDING" || v.OrderItems[0].Subtotal != "100.00" {
		t.Fatalf("view: got %+v", v)
	}
}

func TestCreateRejectsBadBodies(t *testing.T) {
	svc := &fakeService{
		createFn: func(ctx context.Context, req service.CreateRequest) (*service.View, error) {
			t.Fatal("service must not be called")
			return nil, nil
		},
	}
	router := newTestRouter(svc)

	cases := map[string]string{
		"not json":          `{`,
		"unknown field":     `{"items":[{"productId":10,"quantity":2}]}`,
		"empty items":       `{"orderItems":[]}`,
		"zero quantity":     `{"orderItems":[{"productId":10,"quantity":0}]}`,
		"negative quantity": `{"orderItems":[{"productId":10,"quantity":-1}]}`,
		"zero product id":   `{"orderItems":[{"productId":0,"quantity":1}]}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest("POST", "/orders", strings.NewReader(body)))
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status: got %d want 400", rec.Code)
			}
			if b := decodeErr(t, rec); b.Error != kindInvalidRequest {
				t.Fatalf("kind: got %q", b.Error)
			}
		})
	}
}

func TestCreateErrorMapping(t *testing.T) {
	cases := []struct {
		name       string
		err        error
		wantStatus int
		wantKind   string
	}{
		{"unknown product", &domain.InvalidRequestError{Reason: "unknown productId=99"}, 400, kindInvalidRequest},
		{"catalog outage", fmt.Errorf("%w: status 500", domain.ErrDependencyFailure), 502, kindDependencyFailure},
		{"storage conflict", fmt.Errorf("%w: conflict", domain.ErrPersistenceFailed), 503, kindPersistenceFailure},
		{"unexpected", fmt.Errorf("boom"), 500, kindUnexpected},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc := &fakeService{
				createFn: func(ctx context.Context, req service.CreateRequest) (*service.View, error) {
					return nil, tc.err
				},
			}
			rec := httptest.NewRecorder()
			body := `{"orderItems":[{"productId":99,"quantity":1}]}`
			newTestRouter(svc).ServeHTTP(rec, httptest.NewRequest("POST", "/orders", strings.NewReader(body)))
			if rec.Code != tc.wantStatus {
				t.Fatalf("status: got %d want %d", rec.Code, tc.wantStatus)
			}
			b := decodeErr(t, rec)
			if b.Error != tc.wantKind {
				t.Fatalf("kind: got %q want %q", b.Error, tc.wantKind)
			}
			if b.Message == "" {
				t.Fatal("message must not be empty")
			}
		})
	}
}

func TestGetByID(t *testing.T) {
	svc := &fakeService{
		getFn: func(ctx context.Context, id string) (*service.View, error) {
			switch id {
			case "1":
				return sampleView(), nil
			case "abc", " ", "%20":
				return nil, &domain.InvalidRequestError{Reason: "id must be integer"}
			default:
				return nil, &domain.NotFoundError{ID: id}
			}
		},
	}
	router := newTestRouter(svc)

	cases := []struct {
		path       string
		wantStatus int
	}{
		{"/orders/1", 200},
		{"/orders/abc", 400},
		{"/orders/%20", 400},
		{"/orders/9999999", 404},
	}
	for _, tc := range cases {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest("GET", tc.path, nil))
		if rec.Code != tc.wantStatus {
			t.Fatalf("%s: status got %d want %d", tc.path, rec.Code, tc.wantStatus)
		}
	}
}

func TestGetNotFoundBody(t *testing.T) {
	svc := &fakeService{
		getFn: func(ctx context.Context, id string) (*service.View, error) {
			return nil, &domain.NotFoundError{ID: id}
		},
	}
	rec := httptest.NewRecorder()
	newTestRouter(svc).ServeHTTP(rec, httptest.NewRequest("GET", "/orders/424242", nil))

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status: got %d want 404", rec.Code)
	}
	b := decodeErr(t, rec)
	if b.Error != kindNotFound {
		t.Fatalf("kind: got %q", b.Error)
	}
	if !strings.Contains(b.Message, "424242") {
		t.Fatalf("message should name the id, got %q", b.Message)
	}
}

type savedKey struct {
	key     string
	route   string
	orderID int64
	status  int
}

type fakeIdem struct {
	result *idempotency.Result
	getErr error
	saved  []savedKey
}

func (f *fakeIdem) Get(ctx context.Context, key, route string) (*idempotency.Result, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	if f.result != nil {
		return f.result, nil
	}
	return &idempotency.Result{Found: false}, nil
}

func (f *fakeIdem) Save(ctx context.Context, key, route string, orderID int64, status int) error {
	f.saved = append(f.saved, savedKey{key: key, route: route, orderID: orderID, status: status})
	return nil
}

func newIdemRouter(svc Service, idem IdempotencyStore) http.Handler {
	return NewRouter(NewHandler(svc, log.New("test"), idem), log.New("test"))
}

func postOrder(router http.Handler, key string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	body := `{"orderItems":[{"productId":10,"quantity":2}]}`
	req := httptest.NewRequest("POST", "/orders", strings.NewReader(body))
	if key != "" {
		req.Header.Set("Idempotency-Key", key)
	}
	router.ServeHTTP(rec, req)
	return rec
}

func TestIdempotencyReplayReturnsStoredOrder(t *testing.T) {
	svc := &fakeService{
		createFn: func(ctx context.Context, req service.CreateRequest) (*service.View, error) {
			t.Fatal("a replayed key must not create a second order")
			return nil, nil
		},
		getFn: func(ctx context.Context, id string) (*service.View, error) {
			if id != "1" {
				t.Fatalf("replay must load the stored order, got id %q", id)
			}
			return sampleView(), nil
		},
	}
	idem := &fakeIdem{result: &idempotency.Result{OrderID: 1, Status: http.StatusCreated, Found: true}}

	rec := postOrder(newIdemRouter(svc, idem), "key-1")
	if rec.Code != http.StatusCreated {
		t.Fatalf("status: got %d want stored 201", rec.Code)
	}
	var v service.View
	if err := json.NewDecoder(rec.Body).Decode(&v); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if v.ID != 1 || v.TotalAmount != "100.00" {
		t.Fatalf("replay body: got %+v", v)
	}
	if len(idem.saved) != 0 {
		t.Fatal("a replay hit must not re-save the key")
	}
}

func TestIdempotencyMissCreatesAndSaves(t *testing.T) {
	var created bool
	svc := &fakeService{
		createFn: func(ctx context.Context, req service.CreateRequest) (*service.View, error) {
			created = true
			return sampleView(), nil
		},
	}
	idem := &fakeIdem{}

	rec := postOrder(newIdemRouter(svc, idem), "key-2")
	if rec.Code != http.StatusCreated {
		t.Fatalf("status: got %d want 201", rec.Code)
	}
	if !created {
		t.Fatal("a miss must create the order")
	}
	if len(idem.saved) != 1 {
		t.Fatalf("saved keys: got %d want 1", len(idem.saved))
	}
	s := idem.saved[0]
	if s.key != "key-2" || s.route != createRoute || s.orderID != 1 || s.status != http.StatusCreated {
		t.Fatalf("saved key: got %+v", s)
	}
}

func TestIdempotencyStoreErrorFallsThroughToCreate(t *testing.T) {
	var created bool
	svc := &fakeService{
		createFn: func(ctx context.Context, req service.CreateRequest) (*service.View, error) {
			created = true
			return sampleView(), nil
		},
	}
	idem := &fakeIdem{getErr: fmt.Errorf("store down")}

	rec := postOrder(newIdemRouter(svc, idem), "key-3")
	if rec.Code != http.StatusCreated {
		t.Fatalf("status: got %d want 201", rec.Code)
	}
	if !created {
		t.Fatal("a store error must not block creation")
	}
}

func TestNoIdempotencyKeySkipsStore(t *testing.T) {
	svc := &fakeService{
		createFn: func(ctx context.Context, req service.CreateRequest) (*service.View, error) {
			return sampleView(), nil
		},
	}
	idem := &fakeIdem{result: &idempotency.Result{OrderID: 1, Status: http.StatusCreated, Found: true}}

	rec := postOrder(newIdemRouter(svc, idem), "")
	if rec.Code != http.StatusCreated {
		t.Fatalf("status: got %d want 201", rec.Code)
	}
	if len(idem.saved) != 0 {
		t.Fatal("no key, nothing to save")
	}
}

func TestCorrelationIDEchoed(t *testing.T) {
	svc := &fakeService{
		getFn: func(ctx context.Context, id string) (*service.View, error) {
			return sampleView(), nil
		},
	}
	router := newTestRouter(svc)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/orders/1", nil)
	req.Header.Set("X-Correlation-ID", "corr-123")
	router.ServeHTTP(rec, req)
	if got := rec.Header().Get("X-Correlation-ID"); got != "corr-123" {
		t.Fatalf("correlation id: got %q", got)
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("GET", "/orders/1", nil))
	if rec.Header().Get("X-Correlation-ID") == "" {
		t.Fatal("a correlation id must be minted when absent")
	}
}

func TestHealthz(t *testing.T) {
	svc := &fakeService{}
	rec := httptest.NewRecorder()
	newTestRouter(svc).ServeHTTP(rec, httptest.NewRequest("GET", "/healthz", nil))
	if rec.Code != 200 {
		t.Fatalf("healthz: got %d", rec.Code)
	}
}
