package loan

import "context"

type Repository interface {
	Create(ctx context.Context, l *Loan) error
	Save(ctx context.Context, l *Loan) error
	GetByLoanID(ctx context.Context, loanID string) (*Loan, error)
	// GetByID looks up by the internal numeric id.
	GetByID(ctx context.Context, id uint64) (*Loan, error)
	// GetByLoanIDForUpdate locks the row for the rest of the surrounding transaction.
	GetByLoanIDForUpdate(ctx context.Context, loanID string) (*Loan, error)
	GetPendingLoanByBorrowerID(ctx context.Context, borrowerID string) (*Loan, error)
	// List returns loans newest first.
	List(ctx context.Context, f ListFilter) ([]Loan, error)
}
