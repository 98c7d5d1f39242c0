package loan

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"microloans-api/internal/domain/event"
	"microloans-api/internal/domain/loan"
	"microloans-api/internal/domain/stats"
	"microloans-api/internal/domain/uow"
	"microloans-api/pkg/id"
)

type Usecase struct {
	loans  loan.Repository
	tx     uow.UnitOfWork
	events event.Publisher
	cache  stats.Cache
	log    *zap.Logger
}

// NewUsecase wires the loan flows: loans serves reads, tx the create flow.
// events, cache and log may be nil.
func NewUsecase(loans loan.Repository, tx uow.UnitOfWork, events event.Publisher, cache stats.Cache, log *zap.Logger) *Usecase {
	if events == nil {
		events = event.Nop{}
	}
	if cache == nil {
		cache = stats.NopCache{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Usecase{loans: loans, tx: tx, events: events, cache: cache, log: log}
}

func (u *Usecase) Create(ctx context.Context, in CreateLoanInput) (*LoanDTO, error) {
	if !id.Valid(in.BorrowerID) || in.Amount <= 0 || in.Rate < 0 || in.ROI < 0 {
		return nil, ErrInvalidInput
	}

	var l *loan.Loan
	err := u.tx.WithinTx(ctx, func(r uow.Repos) error {
		// Holding the borrower row makes the pending check and the insert
		// atomic against other creates for the same borrower.
		if _, err := r.Borrowers.GetByBorrowerIDForUpdate(ctx, in.BorrowerID); err != nil {
			return err
		}

		pending, err := r.Loans.GetPendingLoanByBorrowerID(ctx, in.BorrowerID)
		switch {
		case err == nil:
			return fmt.Errorf("%w: %s", loan.ErrPendingLoanExists, pending.LoanID)
		case !errors.Is(err, loan.ErrNotFound):
			return err
		}

		l = &loan.Loan{
			LoanID:         id.NewID32(),
			BorrowerID:     in.BorrowerID,
			Principal:      in.Amount,
			Rate:           in.Rate,
			ROI:            in.ROI,
			State:          loan.StateProposed,
			StateUpdatedAt: time.Now().UTC(),
		}
		return r.Loans.Create(ctx, l)
	})
	if err != nil {
		return nil, err
	}

	u.cache.Invalidate(ctx)
	u.publish(ctx, event.Event{
		Type:       event.LoanCreated,
		LoanID:     l.LoanID,
		BorrowerID: l.BorrowerID,
		Amount:     l.Principal,
		Status:     string(l.State),
		OccurredAt: l.StateUpdatedAt,
	})

	dto := toDTO(l)
	return &dto, nil
}

func (u *Usecase) Get(ctx context.Context, loanID string) (*LoanDTO, error) {
	l, err := u.loans.GetByLoanID(ctx, loanID)
	if err != nil {
		return nil, err
	}
	dto := toDTO(l)
	return &dto, nil
}

func (u *Usecase) List(ctx context.Context, in ListInput) ([]LoanDTO, error) {
	f := loan.ListFilter{Limit: in.Limit, Offset: in.Offset, BorrowerID: in.BorrowerID}
	if in.Status != "" {
		f.State = loan.State(in.Status)
		if !f.State.Valid() {
			return nil, ErrInvalidStatus
		}
	}

	rows, err := u.loans.List(ctx, f)
	if err != nil {
		return nil, err
	}
	out := make([]LoanDTO, 0, len(rows))
	for i := range rows {
		out = append(out, toDTO(&rows[i]))
	}
	return out, nil
}

func (u *Usecase) publish(ctx context.Context, e event.Event) {
	if err := u.events.Publish(ctx, e); err != nil {
		u.log.Warn("publish event failed", zap.String("type", string(e.Type)), zap.Error(err))
	}
}
