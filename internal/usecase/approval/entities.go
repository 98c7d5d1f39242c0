package approval

import (
	"time"
)

type ApproveInput struct {
	LoanID              string
	PhotoURL            string
	ValidatorEmployeeID string    // 32-char hex
	ApprovalDate        time.Time // truncated to the UTC day
}

type ApprovalDTO struct {
	ApprovalID          string    `json:"approval_id"`
	LoanID              string    `json:"loan_id"`
	PhotoURL            string    `json:"photo_url"`
	ValidatorEmployeeID string    `json:"validator_employee_id"`
	Status              string    `json:"status"`
	ApprovedAt          time.Time `json:"approved_at"` // input date at 00:00:00 UTC
}
