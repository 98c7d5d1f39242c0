package loanmock

import (
	"context"
	"errors"

	domain "microloans-api/internal/domain/loan"
)

var _ domain.Repository = (*Repo)(nil)

// ErrUnimplemented is returned by lookups whose Fn field is nil.
var ErrUnimplemented = errors.New("loanmock: method not implemented")

// Repo is a function-backed mock that satisfies domain.Repository.
// Nil write funcs are no-ops; nil lookups return ErrUnimplemented.
type Repo struct {
	CreateFn                     func(ctx context.Context, l *domain.Loan) error
	SaveFn                       func(ctx context.Context, l *domain.Loan) error
	GetByLoanIDFn                func(ctx context.Context, loanID string) (*domain.Loan, error)
	GetByIDFn                    func(ctx context.Context, id uint64) (*domain.Loan, error)
	GetByLoanIDForUpdateFn       func(ctx context.Context, loanID string) (*domain.Loan, error)
	GetPendingLoanByBorrowerIDFn func(ctx context.Context, borrowerID string) (*domain.Loan, error)
	ListFn                       func(ctx context.Context, f domain.ListFilter) ([]domain.Loan, error)
}

func (m *Repo) Create(ctx context.Context, l *domain.Loan) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, l)
	}
	return nil
}

func (m *Repo) Save(ctx context.Context, l *domain.Loan) error {
	if m.SaveFn != nil {
		return m.SaveFn(ctx, l)
	}
	return nil
}

func (m *Repo) GetByLoanID(ctx context.Context, loanID string) (*domain.Loan, error) {
	if m.GetByLoanIDFn != nil {
		return m.GetByLoanIDFn(ctx, loanID)
	}
	return nil, ErrUnimplemented
}

func (m *Repo) GetByID(ctx context.Context, id uint64) (*domain.Loan, error) {
	if m.GetByIDFn != nil {
		return m.GetByIDFn(ctx, id)
	}
	return nil, ErrUnimplemented
}

func (m *Repo) GetByLoanIDForUpdate(ctx context.Context, loanID string) (*domain.Loan, error) {
	if m.GetByLoanIDForUpdateFn != nil {
		return m.GetByLoanIDForUpdateFn(ctx, loanID)
	}
	return nil, ErrUnimplemented
}

func (m *Repo) GetPendingLoanByBorrowerID(ctx context.Context, borrowerID string) (*domain.Loan, error) {
	if m.GetPendingLoanByBorrowerIDFn != nil {
		return m.GetPendingLoanByBorrowerIDFn(ctx, borrowerID)
	}
	return nil, ErrUnimplemented
}

func (m *Repo) List(ctx context.Context, f domain.ListFilter) ([]domain.Loan, error) {
	if m.ListFn != nil {
		return m.ListFn(ctx, f)
	}
	return nil, ErrUnimplemented
}
