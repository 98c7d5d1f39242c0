package borrowermock

import (
	"context"
	"errors"

	domain "microloans-api/internal/domain/borrower"
)

var _ domain.Repository = (*Repo)(nil)

var ErrUnimplemented = errors.New("borrowermock: method not implemented")

// Repo is a function-backed mock that satisfies domain.Repository.
type Repo struct {
	CreateFn                   func(ctx context.Context, b *domain.Borrower) error
	GetByBorrowerIDFn          func(ctx context.Context, borrowerID string) (*domain.Borrower, error)
	GetByBorrowerIDForUpdateFn func(ctx context.Context, borrowerID string) (*domain.Borrower, error)
	ListFn                     func(ctx context.Context, limit, offset int) ([]domain.Borrower, error)
}

func (m *Repo) Create(ctx context.Context, b *domain.Borrower) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, b)
	}
	return nil
}

func (m *Repo) GetByBorrowerID(ctx context.Context, borrowerID string) (*domain.Borrower, error) {
	if m.GetByBorrowerIDFn != nil {
		return m.GetByBorrowerIDFn(ctx, borrowerID)
	}
	return nil, ErrUnimplemented
}

func (m *Repo) GetByBorrowerIDForUpdate(ctx context.Context, borrowerID string) (*domain.Borrower, error) {
	if m.GetByBorrowerIDForUpdateFn != nil {
		return m.GetByBorrowerIDForUpdateFn(ctx, borrowerID)
	}
	return nil, ErrUnimplemented
}

func (m *Repo) List(ctx context.Context, limit, offset int) ([]domain.Borrower, error) {
	if m.ListFn != nil {
		return m.ListFn(ctx, limit, offset)
	}
	return nil, ErrUnimplemented
}

// Found returns a lookup func that resolves any id to a borrower.
func Found() func(context.Context, string) (*domain.Borrower, error) {
	return func(_ context.Context, borrowerID string) (*domain.Borrower, error) {
		return &domain.Borrower{ID: 1, BorrowerID: borrowerID, FullName: "Test Borrower"}, nil
	}
}
