package borrower

import (
	"errors"
	"time"

	"microloans-api/internal/domain/borrower"
)

var ErrInvalidInput = errors.New("invalid input")

type CreateBorrowerInput struct {
	FullName string `json:"full_name"`
	Region   string `json:"region"`
}

type BorrowerDTO struct {
	ID        string    `json:"id"`
	FullName  string    `json:"full_name"`
	Region    string    `json:"region"`
	CreatedAt time.Time `json:"created_at"`
}

func toDTO(b *borrower.Borrower) BorrowerDTO {
	return BorrowerDTO{ID: b.BorrowerID, FullName: b.FullName, Region: b.Region, CreatedAt: b.CreatedAt}
}
