package stats

import (
	"context"

	"microloans-api/internal/domain/loan"
)

// Summary holds portfolio-wide aggregates.
type Summary struct {
	TotalLoans     int64
	TotalBorrowers int64
	TotalAmount    float64
	AverageAmount  float64
	LoansByState   map[loan.State]int64
}

// Map flattens the summary into the JSON object served by the API.
// Every known state gets a key, so the result is never empty.
func (s *Summary) Map() map[string]float64 {
	out := map[string]float64{
		"total_loans":     float64(s.TotalLoans),
		"total_borrowers": float64(s.TotalBorrowers),
		"total_amount":    s.TotalAmount,
		"average_amount":  s.AverageAmount,
	}
	for _, st := range loan.States {
		out["loans_"+string(st)] = float64(s.LoansByState[st])
	}
	return out
}

type Repository interface {
	Summarize(ctx context.Context) (*Summary, error)
}

// Cache stores the latest summary together with the write generation it
// was computed under. Every Invalidate starts a new generation, and Set
// drops a summary whose generation is no longer current. Implementations
// must treat every failure as a miss.
type Cache interface {
	// Get returns the cached summary, if any, and the current generation.
	// A negative generation means it could not be read.
	Get(ctx context.Context) (s *Summary, gen int64, ok bool)
	Set(ctx context.Context, gen int64, s *Summary)
	Invalidate(ctx context.Context)
}

// NopCache never hits.
type NopCache struct{}

func (NopCache) Get(context.Context) (*Summary, int64, bool) { return nil, 0, false }
func (NopCache) Set(context.Context, int64, *Summary)        {}
func (NopCache) Invalidate(context.Context)                  {}
