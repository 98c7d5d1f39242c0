package borrower

import (
	"errors"
	"time"

	"gorm.io/gorm"
)

var ErrNotFound = errors.New("borrower not found")

type Borrower struct {
	ID         uint64         `gorm:"primaryKey;column:id"`
	BorrowerID string         `gorm:"column:borrower_id;size:32;uniqueIndex"`
	FullName   string         `gorm:"column:full_name;size:120"`
	Region     string         `gorm:"column:region;size:64"`
	CreatedAt  time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time      `gorm:"column:updated_at;autoUpdateTime"`
	DeletedAt  gorm.DeletedAt `gorm:"column:deleted_at;index"`
}

func (Borrower) TableName() string { return "borrowers" }
