package approval

import (
	"errors"
	"time"

	"gorm.io/gorm"
)

var ErrNotFound = errors.New("approval not found")

// Approval records the field validation that moved a loan from proposed to approved.
// The unique index on loan_id keeps it to one live approval per loan.
type Approval struct {
	ID                  uint64         `gorm:"column:id;primaryKey;autoIncrement"`
	ApprovalID          string         `gorm:"column:approval_id;size:32;not null;uniqueIndex"`
	LoanID              uint64         `gorm:"column:loan_id;not null;uniqueIndex"`
	PhotoURL            string         `gorm:"column:photo_url;type:text;not null"`
	ValidatorEmployeeID string         `gorm:"column:validator_employee_id;size:32;not null"`
	ApprovalDate        time.Time      `gorm:"column:approval_date;type:date;not null"`
	CreatedAt           time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt           time.Time      `gorm:"column:updated_at;autoUpdateTime"`
	DeletedAt           gorm.DeletedAt `gorm:"column:deleted_at;index"`
	DeletedBy           *string        `gorm:"column:deleted_by;size:32"`
}

func (Approval) TableName() string { return "approvals" }
