package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/tair/goldlink/internal/audit"
	"github.com/tair/goldlink/internal/lending/domain"
	"github.com/tair/goldlink/internal/lending/gateway"
	"github.com/tair/goldlink/internal/lending/repository"
	"github.com/tair/goldlink/internal/lending/usecase/command"
	"github.com/tair/goldlink/internal/lending/usecase/query"
	userdomain "github.com/tair/goldlink/internal/user/domain"
	userrepo "github.com/tair/goldlink/internal/user/repository"
	"github.com/tair/goldlink/pkg/auth"
	"github.com/tair/goldlink/pkg/database"
	"github.com/tair/goldlink/pkg/metrics"
)

const testWebhookSecret = "whsec_test"

type testServer struct {
	router   *mux.Router
	sessions *auth.SessionManager
	metrics  *LendingMetrics
	customer *userdomain.User
	owner    *userdomain.User
}

func newTestServer(t *testing.T, webhookSecret string) *testServer {
	t.Helper()
	db, err := database.NewSQLiteConnection(filepath.Join(t.TempDir(), "handler.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	users := userrepo.NewGormUserRepository(db)
	auditRepo := audit.NewGormRepository(db)
	for _, migrate := range []func() error{users.AutoMigrate, auditRepo.AutoMigrate, func() error { return repository.AutoMigrate(db) }} {
		if err := migrate(); err != nil {
			t.Fatalf("migrate: %v", err)
		}
	}

	apps := repository.NewGormApplicationRepository(db)
	settlements := repository.NewGormSettlementRepository(db)
	payments := repository.NewGormPaymentRepository(db)
	tx := database.NewGormTransactor(db)
	recorder := audit.NewRecorder(auditRepo)
	events := command.NopPublisher{}

	reg := prometheus.NewRegistry()
	sessions := auth.NewSessionManager("test-secret", time.Hour)
	lendingMetrics := NewLendingMetrics(reg)
	h := NewLendingHandler(
		command.NewSubmitApplicationHandler(apps, users, tx, recorder),
		command.NewApproveApplicationHandler(apps, settlements, tx, recorder, events),
		command.NewRejectApplicationHandler(apps, tx, recorder, events),
		command.NewInitiatePaymentHandler(settlements, payments, tx, recorder, events, nil, nil, time.Second),
		command.NewConfirmPaymentHandler(settlements, payments, tx, recorder, events, nil),
		command.NewCloseSettlementHandler(settlements, tx, recorder, events),
		query.NewListApplicationsHandler(apps),
		query.NewListSettlementsHandler(settlements),
		query.NewGetSettlementHandler(settlements, payments),
		sessions,
		metrics.NewHTTPMetrics(reg, "goldlink-test"),
		lendingMetrics,
		Options{WebhookSecret: webhookSecret},
	)

	router := mux.NewRouter()
	h.RegisterRoutes(router)

	ts := &testServer{router: router, sessions: sessions, metrics: lendingMetrics}
	ts.customer = createUser(t, users, userdomain.RoleCustomer, "customer@example.com")
	ts.owner = createUser(t, users, userdomain.RoleOwner, "owner@example.com")
	return ts
}

func createUser(t *testing.T, repo *userrepo.GormUserRepository, role userdomain.Role, email string) *userdomain.User {
	t.Helper()
	now := time.Now().UTC()
	u := &userdomain.User{ID: uuid.NewString(), Name: string(role), Email: email, PasswordHash: "x", Role: role, CreatedAt: now, UpdatedAt: now}
	if err := repo.Create(context.Background(), u); err != nil {
		t.Fatalf("create user: %v", err)
	}
	return u
}

func (ts *testServer) do(t *testing.T, method, path string, as *userdomain.User, body interface{}) (*httptest.ResponseRecorder, Response) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	if as != nil {
		token, err := ts.sessions.Issue(as.ID, string(as.Role))
		if err != nil {
			t.Fatal(err)
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	ts.router.ServeHTTP(rec, req)

	var resp Response
	json.Unmarshal(rec.Body.Bytes(), &resp)
	return rec, resp
}

func (ts *testServer) submit(t *testing.T) string {
	t.Helper()
	rec, resp := ts.do(t, http.MethodPost, "/applications", ts.customer, map[string]interface{}{
		"ownerId":     ts.owner.ID,
		"grade":       "22K",
		"weightGrams": 10,
		"photos":      []string{"https://cdn.example.com/a.jpg"},
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("submit status = %d, body = %s", rec.Code, rec.Body.String())
	}
	data := resp.Data.(map[string]interface{})
	return data["application"].(map[string]interface{})["id"].(string)
}

func TestSubmitApplicationRoles(t *testing.T) {
	ts := newTestServer(t, testWebhookSecret)
	body := map[string]interface{}{"ownerId": ts.owner.ID, "grade": "24K", "weightGrams": 2}

	rec, _ := ts.do(t, http.MethodPost, "/applications", nil, body)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("anonymous status = %d, want 401", rec.Code)
	}
	rec, _ = ts.do(t, http.MethodPost, "/applications", ts.owner, body)
	if rec.Code != http.StatusForbidden {
		t.Errorf("owner status = %d, want 403", rec.Code)
	}
	rec, resp := ts.do(t, http.MethodPost, "/applications", ts.customer, map[string]interface{}{"ownerId": ts.owner.ID, "grade": "18K", "weightGrams": 2})
	if rec.Code != http.StatusBadRequest || resp.Success {
		t.Errorf("bad grade status = %d, want 400", rec.Code)
	}
}

func TestApplicationLifecycleOverHTTP(t *testing.T) {
	ts := newTestServer(t, testWebhookSecret)
	appID := ts.submit(t)

	rec, resp := ts.do(t, http.MethodGet, "/applications", ts.owner, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list status = %d", rec.Code)
	}
	if total := resp.Data.(map[string]interface{})["total"].(float64); total != 1 {
		t.Errorf("owner sees %v applications, want 1", total)
	}

	rec, _ = ts.do(t, http.MethodPost, "/applications/"+appID+"/approve", ts.owner, map[string]string{"principalAmount": "50000", "monthlyRatePct": "0.49"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("low rate status = %d, want 400", rec.Code)
	}

	rec, resp = ts.do(t, http.MethodPost, "/applications/"+appID+"/approve", ts.owner, map[string]interface{}{"principalAmount": 50000, "monthlyRatePct": 0.8})
	if rec.Code != http.StatusOK {
		t.Fatalf("approve status = %d, body = %s", rec.Code, rec.Body.String())
	}
	settlement := resp.Data.(map[string]interface{})["settlement"].(map[string]interface{})
	settlementID := settlement["id"].(string)

	rec, _ = ts.do(t, http.MethodPost, "/applications/"+appID+"/approve", ts.owner, map[string]interface{}{"principalAmount": 50000, "monthlyRatePct": 0.8})
	if rec.Code != http.StatusConflict {
		t.Errorf("re-approve status = %d, want 409", rec.Code)
	}
	if got := testutil.ToFloat64(ts.metrics.decisions.WithLabelValues("approved")); got != 1 {
		t.Errorf("approved counter = %v, want 1", got)
	}

	rec, _ = ts.do(t, http.MethodPost, "/settlements/"+settlementID+"/pay", ts.owner, nil)
	if rec.Code != http.StatusForbidden {
		t.Errorf("owner pay status = %d, want 403", rec.Code)
	}

	rec, resp = ts.do(t, http.MethodPost, "/settlements/"+settlementID+"/pay", ts.customer, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("pay status = %d, body = %s", rec.Code, rec.Body.String())
	}
	intent := resp.Data.(map[string]interface{})
	if intent["mode"] != command.ModeMock || intent["amount"] != "400.00" {
		t.Errorf("intent = %v", intent)
	}

	rec, resp = ts.do(t, http.MethodGet, "/settlements/"+settlementID, ts.customer, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("get settlement status = %d", rec.Code)
	}
	view := resp.Data.(map[string]interface{})
	if payments := view["payments"].([]interface{}); len(payments) != 1 {
		t.Errorf("payments = %v", payments)
	}

	rec, _ = ts.do(t, http.MethodPost, "/settlements/"+settlementID+"/close", ts.owner, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("close status = %d", rec.Code)
	}
	rec, _ = ts.do(t, http.MethodPost, "/settlements/"+settlementID+"/close", ts.owner, nil)
	if rec.Code != http.StatusConflict {
		t.Errorf("second close status = %d, want 409", rec.Code)
	}
}

func TestRejectApplicationOverHTTP(t *testing.T) {
	ts := newTestServer(t, testWebhookSecret)
	appID := ts.submit(t)

	rec, resp := ts.do(t, http.MethodPost, "/applications/"+appID+"/reject", ts.owner, map[string]string{"reason": "quality concerns"})
	if rec.Code != http.StatusOK {
		t.Fatalf("reject status = %d", rec.Code)
	}
	app := resp.Data.(map[string]interface{})["application"].(map[string]interface{})
	if app["status"] != string(domain.ApplicationRejected) {
		t.Errorf("status = %v", app["status"])
	}

	rec, _ = ts.do(t, http.MethodGet, "/settlements", ts.customer, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list settlements status = %d", rec.Code)
	}
}

func TestWebhookSignature(t *testing.T) {
	ts := newTestServer(t, testWebhookSecret)
	body := []byte(`{"event":"payment.captured","payload":{"payment":{"entity":{"id":"pay_1","order_id":"order_unknown","amount":40000}}}}`)

	tests := []struct {
		name       string
		signature  string
		wantStatus int
		outcome    string
	}{
		{"missing signature", "", http.StatusUnauthorized, "bad_signature"},
		{"wrong signature", gateway.Sign("other", body), http.StatusUnauthorized, "bad_signature"},
		{"valid signature unmatched order", gateway.Sign(testWebhookSecret, body), http.StatusOK, string(command.OutcomeUnmatched)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := testutil.ToFloat64(ts.metrics.webhookEvents.WithLabelValues(tt.outcome))

			req := httptest.NewRequest(http.MethodPost, "/payments/webhook", bytes.NewReader(body))
			if tt.signature != "" {
				req.Header.Set(gateway.SignatureHeader, tt.signature)
			}
			rec := httptest.NewRecorder()
			ts.router.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if after := testutil.ToFloat64(ts.metrics.webhookEvents.WithLabelValues(tt.outcome)); after != before+1 {
				t.Errorf("%s counter = %v, want %v", tt.outcome, after, before+1)
			}
		})
	}
}

func TestWebhookWithoutSecret(t *testing.T) {
	ts := newTestServer(t, "")
	body := []byte(`{"event":"payment.captured"}`)

	req := httptest.NewRequest(http.MethodPost, "/payments/webhook", bytes.NewReader(body))
	req.Header.Set(gateway.SignatureHeader, gateway.Sign("", body))
	rec := httptest.NewRecorder()
	ts.router.ServeHTTP(rec, req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rec.Code)
	}
}
