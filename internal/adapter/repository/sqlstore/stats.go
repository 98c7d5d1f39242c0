package sqlstore

import (
	"context"

	"gorm.io/gorm"

	"microloans-api/internal/domain/borrower"
	"microloans-api/internal/domain/loan"
	"microloans-api/internal/domain/stats"
)

type StatsRepository struct{ db *gorm.DB }

var _ stats.Repository = (*StatsRepository)(nil)

func NewStatsRepository(db *gorm.DB) *StatsRepository { return &StatsRepository{db: db} }

func (r *StatsRepository) Summarize(ctx context.Context) (*stats.Summary, error) {
	db := r.db.WithContext(ctx)

	var totals struct {
		TotalLoans    int64
		TotalAmount   float64
		AverageAmount float64
	}
	err := db.Model(&loan.Loan{}).
		Select("COUNT(*) AS total_loans, COALESCE(SUM(principal), 0) AS total_amount, COALESCE(AVG(principal), 0) AS average_amount").
		Scan(&totals).Error
	if err != nil {
		return nil, err
	}

	var byState []struct {
		State loan.State
		N     int64
	}
	if err := db.Model(&loan.Loan{}).Select("state, COUNT(*) AS n").Group("state").Scan(&byState).Error; err != nil {
		return nil, err
	}

	var borrowers int64
	if err := db.Model(&borrower.Borrower{}).Count(&borrowers).Error; err != nil {
		return nil, err
	}

	s := &stats.Summary{
		TotalLoans:     totals.TotalLoans,
		TotalBorrowers: borrowers,
		TotalAmount:    totals.TotalAmount,
		AverageAmount:  totals.AverageAmount,
		LoansByState:   make(map[loan.State]int64, len(byState)),
	}
	for _, row := range byState {
		s.LoansByState[row.State] = row.N
	}
	return s, nil
}
