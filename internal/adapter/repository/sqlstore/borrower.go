package sqlstore

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	borrowerDomain "microloans-api/internal/domain/borrower"
)

type BorrowerRepository struct{ db *gorm.DB }

var _ borrowerDomain.Repository = (*BorrowerRepository)(nil)

func NewBorrowerRepository(db *gorm.DB) *BorrowerRepository { return &BorrowerRepository{db: db} }

func (r *BorrowerRepository) Create(ctx context.Context, b *borrowerDomain.Borrower) error {
	return r.db.WithContext(ctx).Create(b).Error
}

func (r *BorrowerRepository) GetByBorrowerID(ctx context.Context, borrowerID string) (*borrowerDomain.Borrower, error) {
	var out borrowerDomain.Borrower
	err := r.db.WithContext(ctx).Where("borrower_id = ?", borrowerID).First(&out).Error
	return notFound(&out, err, borrowerDomain.ErrNotFound)
}

func (r *BorrowerRepository) GetByBorrowerIDForUpdate(ctx context.Context, borrowerID string) (*borrowerDomain.Borrower, error) {
	var out borrowerDomain.Borrower
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("borrower_id = ?", borrowerID).
		First(&out).Error
	return notFound(&out, err, borrowerDomain.ErrNotFound)
}

func (r *BorrowerRepository) List(ctx context.Context, limit, offset int) ([]borrowerDomain.Borrower, error) {
	q := r.db.WithContext(ctx).Order("created_at DESC, id DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if offset > 0 {
		q = q.Offset(offset)
	}
	out := make([]borrowerDomain.Borrower, 0)
	if err := q.Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
