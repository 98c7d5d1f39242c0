package uow

import (
	"context"

	"microloans-api/internal/domain/approval"
	"microloans-api/internal/domain/borrower"
	"microloans-api/internal/domain/loan"
)

// Repos are bound to the same transaction.
type Repos struct {
	Loans     loan.Repository
	Borrowers borrower.Repository
	Approvals approval.Repository
}

type UnitOfWork interface {
	WithinTx(ctx context.Context, fn func(r Repos) error) error
	// WithinLoanTx locks the loan first, then passes it in.
	WithinLoanTx(ctx context.Context, loanID string, fn func(r Repos, l *loan.Loan) error) error
}
