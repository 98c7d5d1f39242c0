package sqlstore

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"microloans-api/internal/domain/approval"
	"microloans-api/internal/domain/borrower"
	"microloans-api/internal/domain/loan"
	"microloans-api/internal/infrastructure/db"
)

// openTestDB creates an in-memory sqlite DB with the real sqlite migrations applied.
func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	gdb, err := db.Open("sqlite://:memory:", zap.NewNop(), logger.Silent)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := gdb.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	t.Cleanup(func() { _ = sqlDB.Close() })
	if _, err := db.MigrateUp(context.Background(), sqlDB, "sqlite"); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return gdb
}

func makeLoan(loanID, borrowerID string) *loan.Loan {
	return &loan.Loan{
		LoanID:         loanID,
		BorrowerID:     borrowerID,
		Principal:      1_000_000.00,
		Rate:           0.2200,
		ROI:            0.1800,
		State:          loan.StateProposed,
		StateUpdatedAt: time.Now().UTC(),
	}
}

func makeBorrower(borrowerID, name string) *borrower.Borrower {
	return &borrower.Borrower{BorrowerID: borrowerID, FullName: name, Region: "Bogor"}
}

func makeApproval(approvalID string, loanNumericID uint64, when time.Time) *approval.Approval {
	return &approval.Approval{
		ApprovalID:          approvalID,
		LoanID:              loanNumericID,
		PhotoURL:            "https://example.com/a.jpg",
		ValidatorEmployeeID: "eeeeeeeeeeeeeeeeeeeeeeeeeeeeeeee",
		ApprovalDate:        when.UTC().Truncate(24 * time.Hour),
	}
}
