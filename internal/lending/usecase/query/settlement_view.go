package query

import (
	"time"

	"github.com/tair/goldlink/internal/lending/domain"
)

// SettlementView adds the derived obligation fields to a settlement
type SettlementView struct {
	*domain.Settlement
	InterestDue domain.InterestDue `json:"interestDue"`
	Overdue     bool               `json:"overdue"`
}

func newSettlementView(s *domain.Settlement, now time.Time) SettlementView {
	return SettlementView{
		Settlement:  s,
		InterestDue: s.MonthlyInterestDue(),
		Overdue:     s.IsActive() && s.IsOverdue(now),
	}
}
