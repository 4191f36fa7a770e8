package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/tair/goldlink/internal/lending/domain"
)

func TestVerifySignature(t *testing.T) {
	body := []byte(`{"event":"payment.captured"}`)
	valid := Sign("whsec", body)

	tests := []struct {
		name      string
		secret    string
		signature string
		want      error
	}{
		{"valid", "whsec", valid, nil},
		{"missing", "whsec", "", ErrMissingSignature},
		{"wrong secret", "other", valid, ErrInvalidSignature},
		{"not hex", "whsec", "zz-not-hex", ErrInvalidSignature},
		{"empty secret", "", valid, ErrInvalidSignature},
		{"truncated", "whsec", valid[:10], ErrInvalidSignature},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := VerifySignature(tt.secret, body, tt.signature)
			if !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
		})
	}

	if err := VerifySignature("whsec", append(body, ' '), valid); !errors.Is(err, ErrInvalidSignature) {
		t.Error("modified body must not verify")
	}
}

func TestParseWebhook(t *testing.T) {
	body := []byte(`{"event":"payment.captured","payload":{"payment":{"entity":{"id":"pay_1","order_id":"order_1","amount":40000,"status":"captured"}}}}`)
	event, err := ParseWebhook(body)
	if err != nil {
		t.Fatal(err)
	}
	e := event.Payload.Payment.Entity
	if event.Event != "payment.captured" || e.ID != "pay_1" || e.OrderID != "order_1" || e.Amount != 40000 {
		t.Errorf("event = %+v", event)
	}

	if _, err := ParseWebhook([]byte(`not json`)); err == nil {
		t.Error("expected error for malformed body")
	}
}

func TestRazorpayClient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		if !ok || user != "rzp_key" || pass != "rzp_secret" {
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"error":{"code":"BAD_REQUEST_ERROR","description":"Authentication failed"}}`))
			return
		}
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/orders":
			var p orderPayload
			json.NewDecoder(r.Body).Decode(&p)
			json.NewEncoder(w).Encode(map[string]interface{}{
				"id": "order_abc", "amount": p.Amount, "currency": p.Currency,
				"receipt": p.Receipt, "status": "created", "notes": p.Notes,
			})
		case r.Method == http.MethodGet && r.URL.Path == "/orders/order_abc":
			w.Write([]byte(`{"id":"order_abc","amount":40000,"currency":"INR","receipt":"pay-1","notes":{"settlementId":"set-1"}}`))
		case r.Method == http.MethodGet && r.URL.Path == "/orders/order_bare":
			w.Write([]byte(`{"id":"order_bare","entity":"order","amount":40000,"currency":"INR","receipt":null,"status":"paid","notes":[]}`))
		case r.URL.Path == "/orders/slow":
			time.Sleep(200 * time.Millisecond)
			w.Write([]byte(`{}`))
		default:
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte(`{"error":{"code":"BAD_REQUEST_ERROR","description":"not found"}}`))
		}
	}))
	defer srv.Close()

	ctx := context.Background()
	c := NewRazorpayClient(srv.URL, "rzp_key", "rzp_secret", time.Second)

	t.Run("create order", func(t *testing.T) {
		order, err := c.CreateOrder(ctx, domain.OrderRequest{
			AmountMinor: 40000,
			Currency:    "INR",
			Receipt:     "pay-1",
			Notes:       map[string]string{"settlementId": "set-1"},
		})
		if err != nil {
			t.Fatal(err)
		}
		if order.ID != "order_abc" || order.AmountMinor != 40000 || order.Notes["settlementId"] != "set-1" {
			t.Errorf("order = %+v", order)
		}
	})

	t.Run("fetch order", func(t *testing.T) {
		order, err := c.FetchOrder(ctx, "order_abc")
		if err != nil {
			t.Fatal(err)
		}
		if order.Receipt != "pay-1" {
			t.Errorf("order = %+v", order)
		}
	})

	t.Run("fetch order without notes", func(t *testing.T) {
		order, err := c.FetchOrder(ctx, "order_bare")
		if err != nil {
			t.Fatal(err)
		}
		if order.ID != "order_bare" || len(order.Notes) != 0 || order.Notes[domain.NotePaymentID] != "" {
			t.Errorf("order = %+v", order)
		}
	})

	t.Run("api error", func(t *testing.T) {
		_, err := c.FetchOrder(ctx, "missing")
		var apiErr *APIError
		if !errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusNotFound {
			t.Errorf("err = %v", err)
		}
	})

	t.Run("bad credentials", func(t *testing.T) {
		bad := NewRazorpayClient(srv.URL, "rzp_key", "nope", time.Second)
		_, err := bad.FetchOrder(ctx, "order_abc")
		var apiErr *APIError
		if !errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusUnauthorized {
			t.Errorf("err = %v", err)
		}
	})

	t.Run("context deadline", func(t *testing.T) {
		short, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
		defer cancel()
		if _, err := c.FetchOrder(short, "slow"); err == nil {
			t.Error("expected timeout")
		}
	})
}
