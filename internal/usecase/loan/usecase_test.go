package loan

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"microloans-api/internal/domain/borrower"
	"microloans-api/internal/domain/event"
	domain "microloans-api/internal/domain/loan"
	"microloans-api/internal/domain/stats"
	"microloans-api/internal/domain/uow"
	"microloans-api/internal/testutil/borrowermock"
	"microloans-api/internal/testutil/eventmock"
	"microloans-api/internal/testutil/loanmock"
	"microloans-api/internal/testutil/statsmock"
	"microloans-api/internal/testutil/uowmock"
)

const borrowerID = "bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb"

func noPending(context.Context, string) (*domain.Loan, error) { return nil, domain.ErrNotFound }

// newCreateUsecase runs the create flow directly against the given mocks.
func newCreateUsecase(loans *loanmock.Repo, borrowers *borrowermock.Repo, events event.Publisher, cache stats.Cache) *Usecase {
	tx := uowmock.Passthrough(uow.Repos{Loans: loans, Borrowers: borrowers})
	return NewUsecase(loans, tx, events, cache, nil)
}

func TestCreate_Success_NoPendingLoan(t *testing.T) {
	events := &eventmock.Publisher{}
	cache := &statsmock.Cache{}
	var created *domain.Loan

	uc := newCreateUsecase(&loanmock.Repo{
		GetPendingLoanByBorrowerIDFn: noPending,
		CreateFn: func(_ context.Context, l *domain.Loan) error {
			l.CreatedAt = time.Now().UTC()
			created = l
			return nil
		},
	}, &borrowermock.Repo{GetByBorrowerIDForUpdateFn: borrowermock.Found()}, events, cache)

	dto, err := uc.Create(context.Background(), CreateLoanInput{
		BorrowerID: borrowerID,
		Amount:     5_000_000,
		Rate:       0.22, ROI: 0.18,
	})
	if err != nil {
		t.Fatalf("Create err: %v", err)
	}
	if len(dto.ID) != 32 {
		t.Fatalf("ID length: %d", len(dto.ID))
	}
	if dto.Status != string(domain.StateProposed) || dto.Amount != 5_000_000 {
		t.Fatalf("unexpected dto: %+v", dto)
	}
	if created == nil || created.LoanID != dto.ID {
		t.Fatalf("repo.Create not called with the returned loan")
	}
	if cache.Invalidations != 1 {
		t.Fatalf("stats cache invalidations = %d, want 1", cache.Invalidations)
	}
	got := events.Events()
	if len(got) != 1 || got[0].Type != event.LoanCreated || got[0].LoanID != dto.ID {
		t.Fatalf("events = %+v", got)
	}
}

func TestCreate_Rejects_WhenPendingLoanExists(t *testing.T) {
	const existingLoanID = "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"

	uc := newCreateUsecase(&loanmock.Repo{
		GetPendingLoanByBorrowerIDFn: func(_ context.Context, id string) (*domain.Loan, error) {
			return &domain.Loan{LoanID: existingLoanID, BorrowerID: id, State: domain.StateProposed}, nil
		},
		CreateFn: func(context.Context, *domain.Loan) error {
			t.Fatalf("Create must not be called when pending loan exists")
			return nil
		},
	}, &borrowermock.Repo{GetByBorrowerIDForUpdateFn: borrowermock.Found()}, nil, nil)

	_, err := uc.Create(context.Background(), CreateLoanInput{BorrowerID: borrowerID, Amount: 7_000_000})
	if !errors.Is(err, domain.ErrPendingLoanExists) {
		t.Fatalf("want ErrPendingLoanExists, got %v", err)
	}
	if !strings.Contains(err.Error(), existingLoanID) {
		t.Fatalf("error should mention existing loan id, got %q", err.Error())
	}
}

func TestCreate_UnknownBorrower(t *testing.T) {
	uc := newCreateUsecase(&loanmock.Repo{
		GetPendingLoanByBorrowerIDFn: func(context.Context, string) (*domain.Loan, error) {
			t.Fatal("pending check must not run for an unknown borrower")
			return nil, nil
		},
	}, &borrowermock.Repo{
		GetByBorrowerIDForUpdateFn: func(context.Context, string) (*borrower.Borrower, error) {
			return nil, borrower.ErrNotFound
		},
	}, nil, nil)

	_, err := uc.Create(context.Background(), CreateLoanInput{BorrowerID: borrowerID, Amount: 1})
	if !errors.Is(err, borrower.ErrNotFound) {
		t.Fatalf("want borrower.ErrNotFound, got %v", err)
	}
}

func TestCreate_InvalidInput(t *testing.T) {
	uc := newCreateUsecase(&loanmock.Repo{}, &borrowermock.Repo{}, nil, nil)

	cases := []struct {
		name string
		in   CreateLoanInput
	}{
		{"short borrower id", CreateLoanInput{BorrowerID: "abc", Amount: 1}},
		{"uppercase borrower id", CreateLoanInput{BorrowerID: strings.ToUpper(borrowerID), Amount: 1}},
		{"zero amount", CreateLoanInput{BorrowerID: borrowerID}},
		{"negative amount", CreateLoanInput{BorrowerID: borrowerID, Amount: -5}},
		{"negative rate", CreateLoanInput{BorrowerID: borrowerID, Amount: 1, Rate: -0.1}},
		{"negative roi", CreateLoanInput{BorrowerID: borrowerID, Amount: 1, ROI: -0.1}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := uc.Create(context.Background(), tc.in); !errors.Is(err, ErrInvalidInput) {
				t.Fatalf("want ErrInvalidInput, got %v", err)
			}
		})
	}
}

func TestCreate_PendingLookupError(t *testing.T) {
	boom := errors.New("db down")
	uc := newCreateUsecase(&loanmock.Repo{
		GetPendingLoanByBorrowerIDFn: func(context.Context, string) (*domain.Loan, error) { return nil, boom },
	}, &borrowermock.Repo{GetByBorrowerIDForUpdateFn: borrowermock.Found()}, nil, nil)

	if _, err := uc.Create(context.Background(), CreateLoanInput{BorrowerID: borrowerID, Amount: 1}); !errors.Is(err, boom) {
		t.Fatalf("want %v, got %v", boom, err)
	}
}

func TestCreate_PublishFailureDoesNotFail(t *testing.T) {
	uc := newCreateUsecase(&loanmock.Repo{GetPendingLoanByBorrowerIDFn: noPending},
		&borrowermock.Repo{GetByBorrowerIDForUpdateFn: borrowermock.Found()},
		&eventmock.Publisher{Err: errors.New("broker down")}, nil)

	if _, err := uc.Create(context.Background(), CreateLoanInput{BorrowerID: borrowerID, Amount: 1}); err != nil {
		t.Fatalf("publish failure must not fail Create: %v", err)
	}
}

func TestCreate_TxFailureIsReturned(t *testing.T) {
	boom := errors.New("begin failed")
	events := &eventmock.Publisher{}
	cache := &statsmock.Cache{}
	tx := uowmock.New().WithWithinTx(func(context.Context, func(uow.Repos) error) error { return boom })
	uc := NewUsecase(&loanmock.Repo{}, tx, events, cache, nil)

	if _, err := uc.Create(context.Background(), CreateLoanInput{BorrowerID: borrowerID, Amount: 1}); !errors.Is(err, boom) {
		t.Fatalf("want %v, got %v", boom, err)
	}
	if len(events.Events()) != 0 || cache.Invalidations != 0 {
		t.Fatal("nothing may be published or invalidated when the tx fails")
	}
}

// Two creates for one borrower race. The borrower row lock is modelled by a
// mutex taken in GetByBorrowerIDForUpdate and released when the tx ends.
func TestCreate_ConcurrentCreatesKeepOnePendingLoan(t *testing.T) {
	var (
		rowLock sync.Mutex
		mu      sync.Mutex
		stored  []*domain.Loan
	)
	loans := &loanmock.Repo{
		GetPendingLoanByBorrowerIDFn: func(_ context.Context, bid string) (*domain.Loan, error) {
			mu.Lock()
			var found *domain.Loan
			for _, l := range stored {
				if l.BorrowerID == bid && l.State == domain.StateProposed {
					found = l
				}
			}
			mu.Unlock()
			// widen the window between the check and the insert
			time.Sleep(20 * time.Millisecond)
			if found == nil {
				return nil, domain.ErrNotFound
			}
			return found, nil
		},
		CreateFn: func(_ context.Context, l *domain.Loan) error {
			mu.Lock()
			defer mu.Unlock()
			stored = append(stored, l)
			return nil
		},
	}
	tx := uowmock.New().WithWithinTx(func(_ context.Context, fn func(uow.Repos) error) error {
		held := false
		borrowers := &borrowermock.Repo{
			GetByBorrowerIDForUpdateFn: func(_ context.Context, bid string) (*borrower.Borrower, error) {
				rowLock.Lock()
				held = true
				return &borrower.Borrower{ID: 1, BorrowerID: bid}, nil
			},
		}
		defer func() {
			if held {
				rowLock.Unlock()
			}
		}()
		return fn(uow.Repos{Loans: loans, Borrowers: borrowers})
	})
	uc := NewUsecase(loans, tx, nil, nil, nil)

	const n = 4
	start := make(chan struct{})
	errs := make([]error, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			_, errs[i] = uc.Create(context.Background(), CreateLoanInput{BorrowerID: borrowerID, Amount: 1})
		}(i)
	}
	close(start)
	wg.Wait()

	ok := 0
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case !errors.Is(err, domain.ErrPendingLoanExists):
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if ok != 1 || len(stored) != 1 {
		t.Fatalf("successful creates = %d, stored loans = %d; want 1 and 1", ok, len(stored))
	}
}

func TestGet(t *testing.T) {
	now := time.Now().UTC()
	uc := NewUsecase(&loanmock.Repo{
		GetByLoanIDFn: func(_ context.Context, loanID string) (*domain.Loan, error) {
			if loanID != "LN-1" {
				return nil, domain.ErrNotFound
			}
			return &domain.Loan{ID: 77, LoanID: "LN-1", Principal: 10, State: domain.StateApproved, StateUpdatedAt: now}, nil
		},
	}, nil, nil, nil, nil)

	dto, err := uc.Get(context.Background(), "LN-1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if dto.ID != "LN-1" || dto.Status != "approved" || !dto.StatusUpdatedAt.Equal(now) {
		t.Fatalf("unexpected dto: %+v", dto)
	}

	if _, err := uc.Get(context.Background(), "missing"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}

func TestList(t *testing.T) {
	var gotFilter domain.ListFilter
	uc := NewUsecase(&loanmock.Repo{
		ListFn: func(_ context.Context, f domain.ListFilter) ([]domain.Loan, error) {
			gotFilter = f
			return []domain.Loan{{LoanID: "LN-2"}, {LoanID: "LN-1"}}, nil
		},
	}, nil, nil, nil, nil)

	out, err := uc.List(context.Background(), ListInput{Limit: 10, Offset: 5, Status: "proposed", BorrowerID: borrowerID})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(out) != 2 || out[0].ID != "LN-2" {
		t.Fatalf("unexpected list: %+v", out)
	}
	want := domain.ListFilter{Limit: 10, Offset: 5, State: domain.StateProposed, BorrowerID: borrowerID}
	if gotFilter != want {
		t.Fatalf("filter = %+v, want %+v", gotFilter, want)
	}
}

func TestList_EmptyIsNonNil(t *testing.T) {
	uc := NewUsecase(&loanmock.Repo{
		ListFn: func(context.Context, domain.ListFilter) ([]domain.Loan, error) { return nil, nil },
	}, nil, nil, nil, nil)

	out, err := uc.List(context.Background(), ListInput{Limit: 1})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if out == nil {
		t.Fatal("want empty non-nil slice")
	}
}

func TestList_UnknownStatus(t *testing.T) {
	uc := NewUsecase(&loanmock.Repo{}, nil, nil, nil, nil)

	if _, err := uc.List(context.Background(), ListInput{Status: "paid"}); !errors.Is(err, ErrInvalidStatus) {
		t.Fatalf("want ErrInvalidStatus, got %v", err)
	}
}
