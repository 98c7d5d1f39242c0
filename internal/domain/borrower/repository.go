package borrower

import "context"

type Repository interface {
	Create(ctx context.Context, b *Borrower) error
	GetByBorrowerID(ctx context.Context, borrowerID string) (*Borrower, error)
	// GetByBorrowerIDForUpdate locks the row for the rest of the surrounding
	// transaction, serializing loan creation per borrower.
	GetByBorrowerIDForUpdate(ctx context.Context, borrowerID string) (*Borrower, error)
	// List returns borrowers newest first.
	List(ctx context.Context, limit, offset int) ([]Borrower, error)
}
