package query

import (
	"context"

	"github.com/tair/goldlink/internal/user/domain"
	"github.com/tair/goldlink/pkg/apperror"
)

// OwnerSummary is the public view of an owner shown to customers choosing a jeweler
type OwnerSummary struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	CompanyName    string `json:"companyName,omitempty"`
	CompanyAddress string `json:"companyAddress,omitempty"`
	CompanyRanks   string `json:"companyRanks,omitempty"`
	Quality        string `json:"quality,omitempty"`
	Achievements   string `json:"achievements,omitempty"`
}

// ListOwnersHandler handles list owners query
type ListOwnersHandler struct {
	repo domain.UserRepository
}

// NewListOwnersHandler creates a new list owners handler
func NewListOwnersHandler(repo domain.UserRepository) *ListOwnersHandler {
	return &ListOwnersHandler{repo: repo}
}

// Handle executes the list owners query
func (h *ListOwnersHandler) Handle(ctx context.Context) ([]OwnerSummary, error) {
	owners, err := h.repo.FindByRole(ctx, domain.RoleOwner)
	if err != nil {
		return nil, apperror.Internal("failed to list owners", err)
	}

	summaries := make([]OwnerSummary, 0, len(owners))
	for _, o := range owners {
		summaries = append(summaries, OwnerSummary{
			ID:             o.ID,
			Name:           o.Name,
			CompanyName:    o.CompanyName,
			CompanyAddress: o.CompanyAddress,
			CompanyRanks:   o.CompanyRanks,
			Quality:        o.Quality,
			Achievements:   o.Achievements,
		})
	}
	return summaries, nil
}
