package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"rwa-registry-go/internal/models"
	"rwa-registry-go/internal/registry"
	"rwa-registry-go/internal/store"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testAdminToken = "test-admin-token"

type capturePublisher struct {
	mu     sync.Mutex
	events []models.Event
}

func (p *capturePublisher) Publish(event models.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
}

func (p *capturePublisher) last() models.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.events[len(p.events)-1]
}

type fakeJournal struct {
	filter models.EventFilter
	events []models.Event
}

func (j *fakeJournal) ListEvents(_ context.Context, filter models.EventFilter) ([]models.Event, error) {
	j.filter = filter
	return j.events, nil
}

type testServer struct {
	router    *gin.Engine
	publisher *capturePublisher
}

func setupServer(t *testing.T, cfg models.ServerConfig, opts ...ServiceOption) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	publisher := &capturePublisher{}
	reg := registry.New(registry.WithPublisher(publisher))
	if cfg.AdminToken == "" {
		cfg.AdminToken = testAdminToken
	}
	return &testServer{
		router:    NewRouter(NewRegistryService(reg, opts...), cfg),
		publisher: publisher,
	}
}

func (s *testServer) do(t *testing.T, method, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(encoded)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *testServer) admin(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	return s.do(t, method, path, body, map[string]string{"Authorization": "Bearer " + testAdminToken})
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body), w.Body.String())
	return body
}

func errorMessage(t *testing.T, w *httptest.ResponseRecorder) (string, string) {
	t.Helper()
	var resp errorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	require.NotNil(t, resp.Error)
	return string(resp.Error.Code), resp.Error.Message
}

// seedMarket initializes the registry with one whitelisted country, one
// accredited investor and one asset priced at 100 per unit.
func seedMarket(t *testing.T, s *testServer) {
	t.Helper()
	require.Equal(t, http.StatusCreated, s.admin(t, http.MethodPost, "/v1/registry/initialize", gin.H{"admin": "admin-wallet"}).Code)
	require.Equal(t, http.StatusOK, s.admin(t, http.MethodPut, "/v1/compliance/countries/us", gin.H{"allowed": true}).Code)
	require.Equal(t, http.StatusCreated, s.do(t, http.MethodPost, "/v1/investors", gin.H{
		"address": "alice", "accredited": true, "country_code": "US",
	}, nil).Code)

	w := s.admin(t, http.MethodPost, "/v1/assets", gin.H{
		"name":           "Harbor Tower",
		"symbol":         "HBT",
		"asset_type":     "real_estate",
		"total_supply":   "1000",
		"valuation_usd":  100000,
		"custodian":      "custodian-bank",
		"token_address":  "0xtoken",
		"min_investment": "10",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, float64(1), decodeBody(t, w)["id"])
}

func TestHealthz(t *testing.T) {
	s := setupServer(t, models.ServerConfig{})

	w := s.do(t, http.MethodGet, "/healthz", nil, nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", decodeBody(t, w)["status"])
}

func TestAdminRoutesRequireToken(t *testing.T) {
	s := setupServer(t, models.ServerConfig{})

	tests := []struct {
		name    string
		headers map[string]string
	}{
		{name: "missing header", headers: nil},
		{name: "wrong token", headers: map[string]string{"Authorization": "Bearer nope"}},
		{name: "wrong scheme", headers: map[string]string{"Authorization": "Basic " + testAdminToken}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := s.do(t, http.MethodPost, "/v1/registry/initialize", gin.H{"admin": "admin-wallet"}, tt.headers)
			assert.Equal(t, http.StatusUnauthorized, w.Code)
			code, _ := errorMessage(t, w)
			assert.Equal(t, "unauthorized", code)
		})
	}

	w := s.admin(t, http.MethodPost, "/v1/registry/initialize", gin.H{"admin": "admin-wallet"})
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "admin-wallet", decodeBody(t, w)["admin"])

	w = s.admin(t, http.MethodPost, "/v1/registry/initialize", gin.H{"admin": "other"})
	assert.Equal(t, http.StatusConflict, w.Code)
	_, message := errorMessage(t, w)
	assert.Equal(t, "Contract already initialized", message)
}

func TestInvestAndQueryHoldings(t *testing.T) {
	s := setupServer(t, models.ServerConfig{})
	seedMarket(t, s)

	w := s.do(t, http.MethodPost, "/v1/assets/1/invest", gin.H{
		"investor":       "alice",
		"amount":         "100",
		"payment_token":  "USDC",
		"payment_amount": "10000",
	}, map[string]string{actorHeader: "alice"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "100", decodeBody(t, w)["amount"])

	event := s.publisher.last()
	assert.Equal(t, models.EventInvestment, event.Type)
	assert.Equal(t, "alice", event.Actor)

	w = s.do(t, http.MethodGet, "/v1/assets/1/holdings/alice", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "100", decodeBody(t, w)["amount"])

	w = s.do(t, http.MethodGet, "/v1/assets/1/holdings/bob", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "0", decodeBody(t, w)["amount"])

	w = s.do(t, http.MethodGet, "/v1/assets/1/price", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "100", decodeBody(t, w)["price"])

	w = s.do(t, http.MethodGet, "/v1/assets/1/eligibility/alice", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, decodeBody(t, w)["eligible"])

	w = s.do(t, http.MethodGet, "/v1/investors/alice/portfolio", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	portfolio := decodeBody(t, w)
	assert.Equal(t, "10000", portfolio["total_value_usd"])
	assert.Equal(t, float64(1), portfolio["asset_count"])

	w = s.do(t, http.MethodGet, "/v1/registry", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "100000", decodeBody(t, w)["total_value_locked"])
}

func TestRequestValidation(t *testing.T) {
	s := setupServer(t, models.ServerConfig{})
	seedMarket(t, s)

	tests := []struct {
		name       string
		method     string
		path       string
		body       any
		wantStatus int
		wantCode   string
	}{
		{
			name:       "fractional amount",
			method:     http.MethodPost,
			path:       "/v1/assets/1/invest",
			body:       gin.H{"investor": "alice", "amount": "1.5"},
			wantStatus: http.StatusBadRequest,
			wantCode:   "bad_request",
		},
		{
			name:       "zero amount",
			method:     http.MethodPost,
			path:       "/v1/assets/1/invest",
			body:       gin.H{"investor": "alice", "amount": "0"},
			wantStatus: http.StatusBadRequest,
			wantCode:   "bad_request",
		},
		{
			name:       "missing investor",
			method:     http.MethodPost,
			path:       "/v1/assets/1/invest",
			body:       gin.H{"amount": "10"},
			wantStatus: http.StatusBadRequest,
			wantCode:   "bad_request",
		},
		{
			name:       "non numeric id",
			method:     http.MethodGet,
			path:       "/v1/assets/abc",
			wantStatus: http.StatusBadRequest,
			wantCode:   "bad_request",
		},
		{
			name:       "unknown asset",
			method:     http.MethodGet,
			path:       "/v1/assets/42",
			wantStatus: http.StatusNotFound,
			wantCode:   "not_found",
		},
		{
			name:       "unregistered investor",
			method:     http.MethodPost,
			path:       "/v1/assets/1/invest",
			body:       gin.H{"investor": "mallory", "amount": "10"},
			wantStatus: http.StatusUnprocessableEntity,
			wantCode:   "rule_violation",
		},
		{
			name:       "below minimum",
			method:     http.MethodPost,
			path:       "/v1/assets/1/invest",
			body:       gin.H{"investor": "alice", "amount": "5"},
			wantStatus: http.StatusUnprocessableEntity,
			wantCode:   "rule_violation",
		},
		{
			name:       "unknown investor",
			method:     http.MethodGet,
			path:       "/v1/investors/nobody",
			wantStatus: http.StatusNotFound,
			wantCode:   "not_found",
		},
		{
			name:       "country not whitelisted",
			method:     http.MethodPost,
			path:       "/v1/investors",
			body:       gin.H{"address": "bob", "country_code": "FR"},
			wantStatus: http.StatusUnprocessableEntity,
			wantCode:   "rule_violation",
		},
		{
			name:       "malformed country",
			method:     http.MethodPost,
			path:       "/v1/investors",
			body:       gin.H{"address": "bob", "country_code": "FRA"},
			wantStatus: http.StatusBadRequest,
			wantCode:   "bad_request",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := s.do(t, tt.method, tt.path, tt.body, nil)
			assert.Equal(t, tt.wantStatus, w.Code, w.Body.String())
			code, _ := errorMessage(t, w)
			assert.Equal(t, tt.wantCode, code)
		})
	}
}

func TestCreateAssetRejectsZeroSupply(t *testing.T) {
	s := setupServer(t, models.ServerConfig{})

	w := s.admin(t, http.MethodPost, "/v1/assets", gin.H{
		"name": "Empty", "symbol": "EMP", "asset_type": "Bond",
		"total_supply": "0", "valuation_usd": "10",
	})

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	_, message := errorMessage(t, w)
	assert.Equal(t, "Invalid supply or value", message)
}

func TestDistributionClaimFlow(t *testing.T) {
	s := setupServer(t, models.ServerConfig{})
	seedMarket(t, s)
	require.Equal(t, http.StatusOK, s.do(t, http.MethodPost, "/v1/assets/1/invest",
		gin.H{"investor": "alice", "amount": "100"}, nil).Code)

	w := s.admin(t, http.MethodPost, "/v1/distributions", gin.H{
		"asset_id": 1, "total_amount": "1000", "payout_token": "USDC",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	distribution := decodeBody(t, w)
	assert.Equal(t, float64(1), distribution["id"])
	assert.Equal(t, "100", distribution["snapshot_supply"])
	assert.Equal(t, "admin", s.publisher.last().Actor)

	w = s.do(t, http.MethodGet, "/v1/investors/alice/distributions", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decodeBody(t, w)["distributions"], 1)

	w = s.do(t, http.MethodPost, "/v1/distributions/1/claim", gin.H{"investor": "alice"}, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	claim := decodeBody(t, w)
	assert.Equal(t, "1000", claim["amount"])
	assert.Equal(t, "USDC", claim["payout_token"])

	w = s.do(t, http.MethodPost, "/v1/distributions/1/claim", gin.H{"investor": "alice"}, nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	_, message := errorMessage(t, w)
	assert.Equal(t, "Already claimed", message)

	w = s.do(t, http.MethodGet, "/v1/distributions/1/claims/alice", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, decodeBody(t, w)["claimed"])

	w = s.do(t, http.MethodGet, "/v1/distributions/1/claims", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decodeBody(t, w)["claims"], 1)

	w = s.do(t, http.MethodGet, "/v1/assets/1/distributions", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decodeBody(t, w)["distributions"], 1)

	w = s.do(t, http.MethodGet, "/v1/distributions/9", nil, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestTransferDisabledAsset(t *testing.T) {
	s := setupServer(t, models.ServerConfig{})
	seedMarket(t, s)
	require.Equal(t, http.StatusCreated, s.do(t, http.MethodPost, "/v1/investors", gin.H{
		"address": "bob", "accredited": true, "country_code": "US",
	}, nil).Code)
	require.Equal(t, http.StatusOK, s.do(t, http.MethodPost, "/v1/assets/1/invest",
		gin.H{"investor": "alice", "amount": "100"}, nil).Code)

	w := s.do(t, http.MethodPost, "/v1/assets/1/transfer", gin.H{"from": "alice", "to": "bob", "amount": "40"}, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	result := decodeBody(t, w)
	assert.Equal(t, "60", result["from_balance"])
	assert.Equal(t, "40", result["to_balance"])

	w = s.admin(t, http.MethodPut, "/v1/assets/1/transferable", gin.H{"transferable": false})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, false, decodeBody(t, w)["is_transferable"])

	w = s.do(t, http.MethodPost, "/v1/assets/1/transfer", gin.H{"from": "alice", "to": "bob", "amount": "10"}, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	_, message := errorMessage(t, w)
	assert.Equal(t, "Asset transfers disabled", message)
}

func TestListEvents(t *testing.T) {
	t.Run("journal disabled", func(t *testing.T) {
		s := setupServer(t, models.ServerConfig{})
		w := s.do(t, http.MethodGet, "/v1/events", nil, nil)
		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	})

	t.Run("filters forwarded", func(t *testing.T) {
		journal := &fakeJournal{events: []models.Event{{Id: "evt-1", Type: models.EventInvestment}}}
		s := setupServer(t, models.ServerConfig{}, WithJournal(journal))

		w := s.do(t, http.MethodGet, "/v1/events?type=Investment&asset_id=3&actor=alice&limit=5&offset=10", nil, nil)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		assert.Equal(t, models.EventFilter{
			Type: models.EventInvestment, AssetId: 3, Actor: "alice", Limit: 5, Offset: 10,
		}, journal.filter)
		var resp EventsResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		require.Len(t, resp.Events, 1)
		assert.Equal(t, "evt-1", resp.Events[0].Id)
	})

	t.Run("bad paging", func(t *testing.T) {
		s := setupServer(t, models.ServerConfig{}, WithJournal(&fakeJournal{}))
		w := s.do(t, http.MethodGet, "/v1/events?limit=-1", nil, nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestRateLimiter(t *testing.T) {
	s := setupServer(t, models.ServerConfig{RateLimitRPS: 0.001, RateLimitBurst: 1})

	assert.Equal(t, http.StatusOK, s.do(t, http.MethodGet, "/v1/assets", nil, nil).Code)
	w := s.do(t, http.MethodGet, "/v1/assets", nil, nil)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "1", w.Header().Get("Retry-After"))

	// health checks are not rate limited
	assert.Equal(t, http.StatusOK, s.do(t, http.MethodGet, "/healthz", nil, nil).Code)
}

func TestClassify(t *testing.T) {
	tests := []struct {
		err        error
		wantStatus int
		wantCode   ErrorCode
	}{
		{invalidInput("bad"), http.StatusBadRequest, errCodeBadRequest},
		{registry.ErrAssetNotFound, http.StatusNotFound, errCodeNotFound},
		{fmt.Errorf("lookup: %w", registry.ErrDistributionNotFound), http.StatusNotFound, errCodeNotFound},
		{registry.ErrAlreadyInitialized, http.StatusConflict, errCodeConflict},
		{fmt.Errorf("persist: %w", store.ErrConcurrentModification), http.StatusConflict, errCodeConflict},
		{registry.ErrInsufficientBalance, http.StatusUnprocessableEntity, errCodeRuleViolation},
		{ErrJournalUnavailable, http.StatusServiceUnavailable, errCodeUnavailable},
		{errors.New("disk full"), http.StatusInternalServerError, errCodeInternalError},
	}
	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			status, apiErr := classify(tt.err)
			assert.Equal(t, tt.wantStatus, status)
			assert.Equal(t, tt.wantCode, apiErr.Code)
		})
	}

	_, apiErr := classify(errors.New("disk full"))
	assert.Equal(t, "Internal server error", apiErr.Message)
	_, apiErr = classify(fmt.Errorf("persist: %w", store.ErrConcurrentModification))
	assert.Equal(t, store.ErrConcurrentModification.Error(), apiErr.Message)
}
