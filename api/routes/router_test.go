package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/suuq-marketplace/api/controllers"
	"github.com/angelmondragon/suuq-marketplace/api/middleware"
	"github.com/angelmondragon/suuq-marketplace/internal/cart"
	"github.com/angelmondragon/suuq-marketplace/internal/catalog"
	"github.com/angelmondragon/suuq-marketplace/internal/checkout"
	"github.com/angelmondragon/suuq-marketplace/internal/orders"
	"github.com/angelmondragon/suuq-marketplace/internal/pricing"
	"github.com/angelmondragon/suuq-marketplace/pkg/blob"
	"github.com/angelmondragon/suuq-marketplace/pkg/config"
	"github.com/angelmondragon/suuq-marketplace/pkg/logger"
	"github.com/angelmondragon/suuq-marketplace/pkg/metrics"
)

var fixedNow = time.Date(2026, time.October, 18, 12, 0, 0, 0, time.UTC)

type stubPinger struct{}

func (stubPinger) Ping(context.Context) error {
	return nil
}

type memoryIdempotency struct {
	mu   sync.Mutex
	data map[string]string
}

func (m *memoryIdempotency) Get(_ context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if v, ok := m.data[key]; ok {
		return v, nil
	}
	return "", redis.Nil
}

func (m *memoryIdempotency) SetNX(_ context.Context, key string, value any, _ time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.data[key]; ok {
		return false, nil
	}
	m.data[key] = fmt.Sprint(value)
	return true, nil
}

func (m *memoryIdempotency) IdempotencyKey(scope, id string) string {
	return "idem:" + scope + ":" + id
}

type testServer struct {
	handler  http.Handler
	registry *prometheus.Registry
	idem     *memoryIdempotency
}

func newTestServer(t *testing.T, statusOverride bool) *testServer {
	t.Helper()
	cfg := &config.Config{
		App:          config.AppConfig{Env: "test"},
		CORS:         config.CORSConfig{AllowedOrigins: []string{"http://localhost:3000"}},
		Checkout:     config.CheckoutConfig{CouponWindow: time.Minute, CouponLimit: 10, IdempotencyTTL: time.Hour},
		FeatureFlags: config.FeatureFlagsConfig{StatusOverride: statusOverride},
	}
	logg := logger.New(logger.Options{ServiceName: "router-test", Output: io.Discard})
	registry := prometheus.NewRegistry()
	m := metrics.NewMarketplaceMetrics(registry)

	store := blob.NewMemoryStore()
	locker := blob.NewLocker()
	catalogRepo, err := catalog.NewRepository(store, locker)
	require.NoError(t, err)
	catalogSvc, err := catalog.NewService(catalog.ServiceParams{Repo: catalogRepo, Clock: func() time.Time { return fixedNow }})
	require.NoError(t, err)
	cartSvc, err := cart.NewService(cart.ServiceParams{Store: store, Locker: locker, Catalog: catalogSvc, Policy: pricing.DefaultPolicy()})
	require.NoError(t, err)
	checkoutSvc, err := checkout.NewService(checkout.ServiceParams{
		Store:   store,
		Locker:  locker,
		Policy:  pricing.DefaultPolicy(),
		Logger:  logg,
		Metrics: m,
		Clock:   func() time.Time { return fixedNow },
		Sleep:   func(time.Duration) {},
	})
	require.NoError(t, err)
	ordersRepo, err := orders.NewRepository(store, locker)
	require.NoError(t, err)
	ordersSvc, err := orders.NewService(orders.ServiceParams{Repo: ordersRepo, Logger: logg, Metrics: m})
	require.NoError(t, err)

	idem := &memoryIdempotency{data: map[string]string{}}
	handler := NewRouter(cfg, logg, Dependencies{
		Catalog:     catalogSvc,
		Cart:        cartSvc,
		Checkout:    checkoutSvc,
		Orders:      ordersSvc,
		Idempotency: idem,
		Gatherer:    registry,
		Checks:      map[string]controllers.Pinger{"db": stubPinger{}},
	})
	return &testServer{handler: handler, registry: registry, idem: idem}
}

func (s *testServer) do(t *testing.T, method, path, session, body string, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = bytes.NewBufferString(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if session != "" {
		req.Header.Set(middleware.SessionHeader, session)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func data(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var envelope struct {
		Data map[string]any `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope), rec.Body.String())
	return envelope.Data
}

func TestHealthRoutes(t *testing.T) {
	srv := newTestServer(t, false)

	rec := srv.do(t, http.MethodGet, "/health/live", "", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = srv.do(t, http.MethodGet, "/health/ready", "", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestSessionIsMintedAndEchoed(t *testing.T) {
	srv := newTestServer(t, false)

	rec := srv.do(t, http.MethodGet, "/api/v1/cart", "", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get(middleware.SessionHeader))

	rec = srv.do(t, http.MethodGet, "/api/v1/cart", "bad session!", "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCatalogRoutes(t *testing.T) {
	srv := newTestServer(t, false)

	rec := srv.do(t, http.MethodGet, "/api/v1/products/1", "s1", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Canjeero Somaliyeed", data(t, rec)["name"])

	for _, path := range []string{
		"/api/v1/products",
		"/api/v1/products/featured",
		"/api/v1/products/1/related",
		"/api/v1/categories",
		"/api/v1/stores",
		"/api/v1/stores/featured",
		"/api/v1/vendor/products",
	} {
		rec := srv.do(t, http.MethodGet, path, "s1", "", nil)
		assert.Equal(t, http.StatusOK, rec.Code, path)
	}

	rec = srv.do(t, http.MethodGet, "/api/v1/stores?page=2&limit=2", "s1", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	stores := data(t, rec)
	assert.Len(t, stores["stores"], 1)
	meta := stores["meta"].(map[string]any)
	assert.Equal(t, float64(3), meta["total"])
	assert.Equal(t, float64(2), meta["total_pages"])
}

func TestCheckoutFlowPlacesOrder(t *testing.T) {
	srv := newTestServer(t, false)
	const session = "shopper-1"

	rec := srv.do(t, http.MethodPost, "/api/v1/cart/items", session, `{"productId":1,"quantity":2}`, nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = srv.do(t, http.MethodPost, "/api/v1/checkout/place", session, "", map[string]string{"Idempotency-Key": "early"})
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	shipping := `{"fullName":"Hodan Ali","email":"hodan@example.com","phone":"615000000","address":"KM4","city":"Mogadishu","country":"Somalia"}`
	rec = srv.do(t, http.MethodPost, "/api/v1/checkout/shipping", session, shipping, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "payment", data(t, rec)["step"])

	payment := `{"method":"card","cardNumber":"4242 4242 4242 4242","expiry":"12/30","cvv":"123","cardName":"Hodan Ali","acceptTerms":true}`
	rec = srv.do(t, http.MethodPost, "/api/v1/checkout/payment", session, payment, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "review", data(t, rec)["step"])

	rec = srv.do(t, http.MethodPost, "/api/v1/checkout/coupon", session, `{"code":"save5"}`, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	summary := data(t, rec)["summary"].(map[string]any)
	assert.Equal(t, "10.58", summary["total"])

	rec = srv.do(t, http.MethodPost, "/api/v1/checkout/coupon", session, `{"code":"save5"}`, nil)
	require.Equal(t, http.StatusConflict, rec.Code)

	rec = srv.do(t, http.MethodPost, "/api/v1/checkout/place", session, "", nil)
	require.Equal(t, http.StatusBadRequest, rec.Code, "placement requires an idempotency key")

	headers := map[string]string{"Idempotency-Key": "place-1"}
	rec = srv.do(t, http.MethodPost, "/api/v1/checkout/place", session, "", headers)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	order := data(t, rec)["order"].(map[string]any)
	orderID := order["id"].(string)
	assert.True(t, strings.HasPrefix(orderID, "ORD"))
	assert.Equal(t, "processing", order["status"])
	assert.Equal(t, "************4242", order["paymentInfo"].(map[string]any)["cardNumber"])

	replay := srv.do(t, http.MethodPost, "/api/v1/checkout/place", session, "", headers)
	require.Equal(t, http.StatusCreated, replay.Code)
	assert.JSONEq(t, rec.Body.String(), replay.Body.String())

	rec = srv.do(t, http.MethodGet, "/api/v1/cart", session, "", nil)
	assert.Equal(t, float64(0), data(t, rec)["count"])

	rec = srv.do(t, http.MethodGet, "/api/v1/orders", session, "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var list struct {
		Data []map[string]any `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list.Data, 1)

	rec = srv.do(t, http.MethodPost, "/api/v1/orders/"+orderID+"/cancel", session, "", map[string]string{"Idempotency-Key": "cancel-1"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "cancelled", data(t, rec)["status"])

	rec = srv.do(t, http.MethodGet, "/api/v1/orders/"+orderID, "other-shopper", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	metricsRec := srv.do(t, http.MethodGet, "/metrics", "", "", nil)
	require.Equal(t, http.StatusOK, metricsRec.Code)
	assert.Contains(t, metricsRec.Body.String(), "orders_placed_total 1")
}

func TestStatusOverrideRequiresFlag(t *testing.T) {
	srv := newTestServer(t, false)
	rec := srv.do(t, http.MethodPost, "/api/v1/orders/ORD1/status", "s1", `{"status":"lost"}`, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code, "route is not mounted without the flag")

	srv = newTestServer(t, true)
	rec = srv.do(t, http.MethodPost, "/api/v1/orders/ORD1/status", "s1", `{"status":"lost"}`, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code, "controller rejects unknown status once mounted")
}

func TestPlaceRejectsCartEditedAfterReview(t *testing.T) {
	srv := newTestServer(t, false)
	const session = "shopper-2"

	rec := srv.do(t, http.MethodPost, "/api/v1/cart/items", session, `{"productId":1,"quantity":2}`, nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	shipping := `{"fullName":"Hodan Ali","email":"hodan@example.com","phone":"615000000","address":"KM4","city":"Mogadishu","country":"Somalia"}`
	rec = srv.do(t, http.MethodPost, "/api/v1/checkout/shipping", session, shipping, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	payment := `{"method":"cod","acceptTerms":true}`
	rec = srv.do(t, http.MethodPost, "/api/v1/checkout/payment", session, payment, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "15.58", data(t, rec)["summary"].(map[string]any)["total"])

	rec = srv.do(t, http.MethodPost, "/api/v1/cart/items", session, `{"productId":3}`, nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = srv.do(t, http.MethodPost, "/api/v1/checkout/place", session, "", map[string]string{"Idempotency-Key": "stale"})
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code, rec.Body.String())

	rec = srv.do(t, http.MethodGet, "/api/v1/checkout", session, "", nil)
	assert.Equal(t, "payment", data(t, rec)["step"])
	rec = srv.do(t, http.MethodGet, "/api/v1/orders", session, "", nil)
	var list struct {
		Data []map[string]any `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	assert.Empty(t, list.Data)

	rec = srv.do(t, http.MethodPost, "/api/v1/checkout/payment", session, payment, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	reviewedTotal := data(t, rec)["summary"].(map[string]any)["total"]

	rec = srv.do(t, http.MethodPost, "/api/v1/checkout/place", session, "", map[string]string{"Idempotency-Key": "fresh"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	order := data(t, rec)["order"].(map[string]any)
	assert.Equal(t, reviewedTotal, order["orderSummary"].(map[string]any)["summary"].(map[string]any)["total"])
}
