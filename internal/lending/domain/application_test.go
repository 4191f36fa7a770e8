package domain

import (
	"testing"

	"github.com/tair/goldlink/pkg/apperror"
)

func TestValidateSubmission(t *testing.T) {
	photos := []string{"https://cdn.example.com/a.jpg"}

	tests := []struct {
		name   string
		owner  string
		karat  Karat
		weight float64
		photos []string
		ok     bool
	}{
		{"valid 22K", "owner-1", Karat22, 10, photos, true},
		{"valid 24K", "owner-1", Karat24, 0.5, photos, true},
		{"missing owner", "", Karat22, 10, photos, false},
		{"unsupported grade", "owner-1", Karat("18K"), 10, photos, false},
		{"zero weight", "owner-1", Karat22, 0, photos, false},
		{"negative weight", "owner-1", Karat22, -1, photos, false},
		{"no photos", "owner-1", Karat22, 10, nil, false},
		{"relative photo", "owner-1", Karat22, 10, []string{"/uploads/a.jpg"}, false},
		{"non-http photo", "owner-1", Karat22, 10, []string{"ftp://host/a.jpg"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateSubmission(tt.owner, tt.karat, tt.weight, tt.photos)
			if tt.ok && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
			if !tt.ok && !apperror.Is(err, apperror.KindValidation) {
				t.Errorf("err = %v, want validation", err)
			}
		})
	}
}

func TestCheckDecision(t *testing.T) {
	app := &Application{OwnerID: "owner-1", Status: ApplicationPending}

	if err := app.CheckDecision("owner-2"); !apperror.Is(err, apperror.KindAuthorization) {
		t.Errorf("other owner: %v", err)
	}
	if err := app.CheckDecision("owner-1"); err != nil {
		t.Errorf("target owner: %v", err)
	}

	for _, status := range []ApplicationStatus{ApplicationApproved, ApplicationRejected} {
		decided := &Application{OwnerID: "owner-1", Status: status}
		if err := decided.CheckDecision("owner-1"); !apperror.Is(err, apperror.KindConflict) {
			t.Errorf("%s: err = %v", status, err)
		}
	}
}
