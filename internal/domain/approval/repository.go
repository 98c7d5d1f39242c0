package approval

import "context"

type Repository interface {
	Create(ctx context.Context, a *Approval) error

	// GetByLoanID looks up by the loan's internal numeric id.
	GetByLoanID(ctx context.Context, loanID uint64) (*Approval, error)

	GetByApprovalID(ctx context.Context, approvalID string) (*Approval, error)
}
