package sqlstore

import (
	"context"

	"gorm.io/gorm"

	approvalDomain "microloans-api/internal/domain/approval"
)

type ApprovalRepository struct{ db *gorm.DB }

var _ approvalDomain.Repository = (*ApprovalRepository)(nil)

func NewApprovalRepository(db *gorm.DB) *ApprovalRepository { return &ApprovalRepository{db: db} }

func (r *ApprovalRepository) Create(ctx context.Context, a *approvalDomain.Approval) error {
	return r.db.WithContext(ctx).Create(a).Error
}

func (r *ApprovalRepository) GetByLoanID(ctx context.Context, loanNumericID uint64) (*approvalDomain.Approval, error) {
	var out approvalDomain.Approval
	err := r.db.WithContext(ctx).Where("loan_id = ?", loanNumericID).First(&out).Error
	return notFound(&out, err, approvalDomain.ErrNotFound)
}

func (r *ApprovalRepository) GetByApprovalID(ctx context.Context, approvalID string) (*approvalDomain.Approval, error) {
	var out approvalDomain.Approval
	err := r.db.WithContext(ctx).Where("approval_id = ?", approvalID).First(&out).Error
	return notFound(&out, err, approvalDomain.ErrNotFound)
}
