package router

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"beckon/config"
	"beckon/internal/auth"
	"beckon/internal/domain"
	"beckon/internal/models"
	"beckon/internal/store"
	"beckon/internal/store/memstore"
)

type testAPI struct {
	engine   *gin.Engine
	store    *memstore.Store
	verifier *auth.JWTVerifier
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	gin.SetMode(gin.TestMode)
	st := memstore.New()
	verifier := auth.NewJWTVerifier("test-secret", "beckon")
	cfg := &config.Config{}
	cfg.Server.Env = "test"
	engine := Setup(cfg, st, verifier, nil, zap.NewNop())
	return &testAPI{engine: engine, store: st, verifier: verifier}
}

func (a *testAPI) seed(t *testing.T, coll, id string, data map[string]interface{}) {
	t.Helper()
	err := a.store.RunTransaction(context.Background(), func(tx store.Tx) error {
		return tx.Set(coll, id, data)
	})
	require.NoError(t, err)
}

func (a *testAPI) do(t *testing.T, uid, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if uid != "" {
		token, err := a.verifier.GenerateToken(uid, time.Minute)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	a.engine.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func seedScenario(t *testing.T, a *testAPI) {
	t.Helper()
	a.seed(t, models.RequestsCollection, "r1", map[string]interface{}{
		"createdByUid": "u1",
		"rawQuery":     "need dinner",
		"lat":          40.0,
		"lng":          -74.0,
		"status":       string(domain.StatusBroadcasting),
		"createdAt":    time.Now(),
	})
	a.seed(t, models.BusinessesCollection, "biz-a", map[string]interface{}{
		"ownerUid":  "owner-a",
		"category":  domain.CategoryRestaurant,
		"lat":       40.018,
		"lng":       -74.0,
		"radiusKm":  5.0,
		"isOnline":  true,
		"fcmTokens": []string{"tok-a"},
	})
}

func TestHealthIsPublic(t *testing.T) {
	a := newTestAPI(t)
	w := a.do(t, "", http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestCommandsRequireAuth(t *testing.T) {
	a := newTestAPI(t)
	w := a.do(t, "", http.MethodPost, "/api/v1/route-request", map[string]interface{}{"requestId": "r1"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestMeReportsTrust(t *testing.T) {
	a := newTestAPI(t)
	w := a.do(t, "u1", http.MethodGet, "/api/v1/me", nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, "u1", body["uid"])
	assert.Equal(t, float64(domain.TrustDefaultScore), body["trustScore"])
	assert.Equal(t, string(domain.TrustGood), body["trustStatus"])
}

func TestRouteRequestOverHTTP(t *testing.T) {
	a := newTestAPI(t)
	seedScenario(t, a)

	w := a.do(t, "u1", http.MethodPost, "/api/v1/route-request", map[string]interface{}{"requestId": "r1"})
	require.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, float64(1), body["deliveriesCreated"])
	assert.Equal(t, domain.CategoryRestaurant, body["resolvedCategory"])
}

func TestRouteRequestErrorMapping(t *testing.T) {
	a := newTestAPI(t)
	seedScenario(t, a)

	tests := []struct {
		name       string
		uid        string
		body       map[string]interface{}
		wantStatus int
	}{
		{"missing requestId", "u1", map[string]interface{}{}, http.StatusBadRequest},
		{"unknown request", "u1", map[string]interface{}{"requestId": "ghost"}, http.StatusNotFound},
		{"foreign request", "intruder", map[string]interface{}{"requestId": "r1"}, http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := a.do(t, tt.uid, http.MethodPost, "/api/v1/route-request", tt.body)
			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Contains(t, decodeBody(t, w), "error")
		})
	}
}

func TestOfferFlowOverHTTP(t *testing.T) {
	a := newTestAPI(t)
	seedScenario(t, a)

	w := a.do(t, "u1", http.MethodPost, "/api/v1/route-request", map[string]interface{}{"requestId": "r1"})
	require.Equal(t, http.StatusOK, w.Code)

	w = a.do(t, "owner-a", http.MethodPost, "/api/v1/respond-offer", map[string]interface{}{
		"requestId":  "r1",
		"businessId": "biz-a",
		"message":    "table for two",
		"price":      25,
		"photoUrls":  []string{"a", "b", "c", "d"},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code, "four photo urls rejected")

	w = a.do(t, "owner-a", http.MethodPost, "/api/v1/respond-offer", map[string]interface{}{
		"requestId":  "r1",
		"businessId": "biz-a",
		"message":    "table for two",
		"price":      25,
	})
	require.Equal(t, http.StatusOK, w.Code)
	offerID := decodeBody(t, w)["offerId"].(string)
	require.NotEmpty(t, offerID)

	w = a.do(t, "u1", http.MethodPost, "/api/v1/accept-offer", map[string]interface{}{
		"requestId": "r1",
		"offerId":   offerID,
	})
	require.Equal(t, http.StatusOK, w.Code)
	accept := decodeBody(t, w)
	assert.Equal(t, "biz-a", accept["businessId"])
	chatID := accept["chatId"].(string)

	w = a.do(t, "u1", http.MethodPost, "/api/v1/send-chat-message", map[string]interface{}{
		"chatId": chatID,
		"text":   "see you soon",
	})
	require.Equal(t, http.StatusOK, w.Code)

	w = a.do(t, "owner-a", http.MethodPost, "/api/v1/mark-completed", map[string]interface{}{
		"requestId":  "r1",
		"businessId": "biz-a",
	})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, string(domain.StatusCompleted), decodeBody(t, w)["status"])

	// terminal request rejects further transitions
	w = a.do(t, "u1", http.MethodPost, "/api/v1/cancel-request", map[string]interface{}{"requestId": "r1"})
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestRegisterPushTokenOverHTTP(t *testing.T) {
	a := newTestAPI(t)
	seedScenario(t, a)

	w := a.do(t, "owner-a", http.MethodPost, "/api/v1/register-push-token", map[string]interface{}{
		"token":      "tok-new",
		"businessId": "biz-a",
	})
	require.Equal(t, http.StatusOK, w.Code)

	w = a.do(t, "u1", http.MethodPost, "/api/v1/register-push-token", map[string]interface{}{
		"token":      "tok-x",
		"businessId": "biz-a",
	})
	assert.Equal(t, http.StatusForbidden, w.Code, "caller must own the business")
}
