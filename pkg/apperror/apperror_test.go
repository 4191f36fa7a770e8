package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"validation", Validation("bad weight"), http.StatusBadRequest},
		{"authentication", Authentication("no session"), http.StatusUnauthorized},
		{"authorization", Authorization("not your application"), http.StatusForbidden},
		{"not found", NotFound("application not found"), http.StatusNotFound},
		{"conflict", Conflict("already processed"), http.StatusConflict},
		{"upstream", Upstream("gateway unavailable", errors.New("timeout")), http.StatusBadGateway},
		{"plain error", errors.New("boom"), http.StatusInternalServerError},
		{"wrapped conflict", fmt.Errorf("approve: %w", Conflict("already processed")), http.StatusConflict},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := HTTPStatus(tt.err); got != tt.want {
				t.Errorf("HTTPStatus() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestPublicMessage(t *testing.T) {
	if got := PublicMessage(Validation("weight must be positive")); got != "weight must be positive" {
		t.Errorf("unexpected message %q", got)
	}

	internal := Internal("failed to approve", errors.New("pq: connection reset"))
	if got := PublicMessage(internal); got != "Internal server error" {
		t.Errorf("internal details leaked: %q", got)
	}
	if got := PublicMessage(errors.New("raw")); got != "Internal server error" {
		t.Errorf("raw error leaked: %q", got)
	}
}

func TestUnwrap(t *testing.T) {
	cause := errors.New("dial tcp: i/o timeout")
	err := Upstream("payment gateway unavailable", cause)
	if !errors.Is(err, cause) {
		t.Error("expected cause to be reachable through Unwrap")
	}
	if !Is(err, KindUpstream) {
		t.Error("expected upstream kind")
	}
}
