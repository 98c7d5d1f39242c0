package loan

import (
	"errors"
	"time"

	"gorm.io/gorm"
)

type State string

const (
	StateProposed  State = "proposed"
	StateApproved  State = "approved"
	StateInvested  State = "invested"
	StateDisbursed State = "disbursed"
	StateRejected  State = "rejected"
)

// States lists every loan state in lifecycle order.
var States = []State{StateProposed, StateApproved, StateInvested, StateDisbursed, StateRejected}

func (s State) Valid() bool {
	for _, v := range States {
		if s == v {
			return true
		}
	}
	return false
}

var (
	ErrNotFound          = errors.New("loan not found")
	ErrPendingLoanExists = errors.New("borrower already has a pending loan")
	ErrAlreadyApproved   = errors.New("loan already approved")
	ErrInvalidTransition = errors.New("loan not in a state that can be approved")
)

type Loan struct {
	ID             uint64         `gorm:"primaryKey;column:id"`
	LoanID         string         `gorm:"column:loan_id;size:32;uniqueIndex"`
	BorrowerID     string         `gorm:"column:borrower_id;size:32;index"`
	Principal      float64        `gorm:"column:principal;type:decimal(18,2)"`
	Rate           float64        `gorm:"column:rate;type:decimal(6,4)"`
	ROI            float64        `gorm:"column:roi;type:decimal(6,4)"`
	AgreementLink  string         `gorm:"column:agreement_link;type:text"`
	State          State          `gorm:"column:state;size:16;default:proposed"`
	StateUpdatedAt time.Time      `gorm:"column:state_updated_at"`
	CreatedAt      time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time      `gorm:"column:updated_at;autoUpdateTime"`
	DeletedAt      gorm.DeletedAt `gorm:"column:deleted_at;index"`
	DeletedBy      *string        `gorm:"column:deleted_by;size:32"`
}

func (Loan) TableName() string { return "loans" }

// ListFilter narrows a loan listing. Zero values mean "no filter".
type ListFilter struct {
	Limit      int
	Offset     int
	State      State
	BorrowerID string
}
