// Package health exposes liveness over HTTP and the standard gRPC health service.
package health

import (
	"context"
	"encoding/json"
	"net/http"
	"time"
)

// Pinger is satisfied by *sql.DB
type Pinger interface {
	PingContext(ctx context.Context) error
}

// UserCounter reports how many accounts exist
type UserCounter func(ctx context.Context) (int64, error)

// Report is the body of GET /health
type Report struct {
	Status    string    `json:"status"`
	Database  string    `json:"database"`
	Users     int64     `json:"users"`
	CheckedAt time.Time `json:"checkedAt"`
}

// Check pings the database and counts users
func Check(ctx context.Context, db Pinger, count UserCounter) (Report, error) {
	report := Report{Status: "ok", Database: "up", CheckedAt: time.Now().UTC()}

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		report.Status = "degraded"
		report.Database = "down"
		return report, err
	}
	users, err := count(ctx)
	if err != nil {
		report.Status = "degraded"
		return report, err
	}
	report.Users = users
	return report, nil
}

// Handler serves GET /health
func Handler(db Pinger, count UserCounter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		report, err := Check(r.Context(), db, count)
		status := http.StatusOK
		if err != nil {
			status = http.StatusServiceUnavailable
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		json.NewEncoder(w).Encode(report)
	}
}
