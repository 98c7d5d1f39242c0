package sqlstore

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	loanDomain "microloans-api/internal/domain/loan"
)

type LoanRepository struct{ db *gorm.DB }

var _ loanDomain.Repository = (*LoanRepository)(nil)

func NewLoanRepository(db *gorm.DB) *LoanRepository { return &LoanRepository{db: db} }

func (r *LoanRepository) Create(ctx context.Context, l *loanDomain.Loan) error {
	return r.db.WithContext(ctx).Create(l).Error
}

func (r *LoanRepository) Save(ctx context.Context, l *loanDomain.Loan) error {
	return r.db.WithContext(ctx).Save(l).Error
}

func (r *LoanRepository) GetByLoanID(ctx context.Context, loanID string) (*loanDomain.Loan, error) {
	var out loanDomain.Loan
	err := r.db.WithContext(ctx).Where("loan_id = ?", loanID).First(&out).Error
	return notFound(&out, err, loanDomain.ErrNotFound)
}

func (r *LoanRepository) GetByID(ctx context.Context, id uint64) (*loanDomain.Loan, error) {
	var out loanDomain.Loan
	err := r.db.WithContext(ctx).First(&out, id).Error
	return notFound(&out, err, loanDomain.ErrNotFound)
}

func (r *LoanRepository) GetByLoanIDForUpdate(ctx context.Context, loanID string) (*loanDomain.Loan, error) {
	var out loanDomain.Loan
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("loan_id = ?", loanID).
		First(&out).Error
	return notFound(&out, err, loanDomain.ErrNotFound)
}

func (r *LoanRepository) GetPendingLoanByBorrowerID(ctx context.Context, borrowerID string) (*loanDomain.Loan, error) {
	var out loanDomain.Loan
	err := r.db.WithContext(ctx).
		Where("borrower_id = ? AND state = ?", borrowerID, loanDomain.StateProposed).
		Order("state_updated_at DESC, id DESC").
		First(&out).Error
	return notFound(&out, err, loanDomain.ErrNotFound)
}

func (r *LoanRepository) List(ctx context.Context, f loanDomain.ListFilter) ([]loanDomain.Loan, error) {
	q := r.db.WithContext(ctx).Model(&loanDomain.Loan{})
	if f.State != "" {
		q = q.Where("state = ?", f.State)
	}
	if f.BorrowerID != "" {
		q = q.Where("borrower_id = ?", f.BorrowerID)
	}
	if f.Limit > 0 {
		q = q.Limit(f.Limit)
	}
	if f.Offset > 0 {
		q = q.Offset(f.Offset)
	}
	out := make([]loanDomain.Loan, 0)
	if err := q.Order("created_at DESC, id DESC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// notFound maps gorm.ErrRecordNotFound onto the domain sentinel.
func notFound[T any](v *T, err error, sentinel error) (*T, error) {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, sentinel
	}
	if err != nil {
		return nil, err
	}
	return v, nil
}
