package loan

import (
	"errors"
	"time"

	"microloans-api/internal/domain/loan"
)

var (
	ErrInvalidInput  = errors.New("invalid input")
	ErrInvalidStatus = errors.New("unknown loan status")
)

type CreateLoanInput struct {
	BorrowerID string  `json:"borrower_id"`
	Amount     float64 `json:"amount"`
	Rate       float64 `json:"rate"`
	ROI        float64 `json:"roi"`
}

// ListInput carries already-clamped pagination plus optional filters.
type ListInput struct {
	Limit      int
	Offset     int
	Status     string
	BorrowerID string
}

type LoanDTO struct {
	ID              string    `json:"id"`
	BorrowerID      string    `json:"borrower_id"`
	Amount          float64   `json:"amount"`
	Rate            float64   `json:"rate"`
	ROI             float64   `json:"roi"`
	Status          string    `json:"status"`
	StatusUpdatedAt time.Time `json:"status_updated_at"`
	CreatedAt       time.Time `json:"created_at"`
}

func toDTO(l *loan.Loan) LoanDTO {
	return LoanDTO{
		ID:              l.LoanID,
		BorrowerID:      l.BorrowerID,
		Amount:          l.Principal,
		Rate:            l.Rate,
		ROI:             l.ROI,
		Status:          string(l.State),
		StatusUpdatedAt: l.StateUpdatedAt,
		CreatedAt:       l.CreatedAt,
	}
}
