package approval

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	domainApproval "microloans-api/internal/domain/approval"
	"microloans-api/internal/domain/event"
	domainLoan "microloans-api/internal/domain/loan"
	"microloans-api/internal/domain/stats"
	"microloans-api/internal/domain/uow"
	"microloans-api/pkg/id"
)

type Usecase struct {
	loanRepo     domainLoan.Repository
	approvalRepo domainApproval.Repository
	uow          uow.UnitOfWork
	events       event.Publisher
	cache        stats.Cache
	log          *zap.Logger
}

// NewUsecase: pass both repos for reads and a UoW for the approve flow.
func NewUsecase(loans domainLoan.Repository, approvals domainApproval.Repository, tx uow.UnitOfWork, events event.Publisher, cache stats.Cache, log *zap.Logger) *Usecase {
	if events == nil {
		events = event.Nop{}
	}
	if cache == nil {
		cache = stats.NopCache{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Usecase{loanRepo: loans, approvalRepo: approvals, uow: tx, events: events, cache: cache, log: log}
}

func (u *Usecase) Approve(ctx context.Context, in ApproveInput) (*ApprovalDTO, error) {
	var (
		dto *ApprovalDTO
		l   *domainLoan.Loan
	)

	err := u.uow.WithinLoanTx(ctx, in.LoanID, func(r uow.Repos, locked *domainLoan.Loan) error {
		// State guard: only proposed → approved
		switch locked.State {
		case domainLoan.StateProposed:
		case domainLoan.StateApproved:
			return domainLoan.ErrAlreadyApproved
		default:
			return domainLoan.ErrInvalidTransition
		}

		if _, err := r.Approvals.GetByLoanID(ctx, locked.ID); err == nil {
			return domainLoan.ErrAlreadyApproved
		} else if !errors.Is(err, domainApproval.ErrNotFound) {
			return err
		}

		a := &domainApproval.Approval{
			ApprovalID:          id.NewID32(),
			LoanID:              locked.ID,
			PhotoURL:            in.PhotoURL,
			ValidatorEmployeeID: in.ValidatorEmployeeID,
			ApprovalDate:        in.ApprovalDate.UTC().Truncate(24 * time.Hour),
		}
		if err := r.Approvals.Create(ctx, a); err != nil {
			return err
		}

		locked.State = domainLoan.StateApproved
		locked.StateUpdatedAt = time.Now().UTC()
		if err := r.Loans.Save(ctx, locked); err != nil {
			return err
		}

		l = locked
		dto = toDTO(a, locked)
		return nil
	})
	if err != nil {
		return nil, err
	}

	u.cache.Invalidate(ctx)
	e := event.Event{
		Type:       event.LoanApproved,
		LoanID:     l.LoanID,
		BorrowerID: l.BorrowerID,
		Amount:     l.Principal,
		Status:     string(l.State),
		OccurredAt: l.StateUpdatedAt,
	}
	if err := u.events.Publish(ctx, e); err != nil {
		u.log.Warn("publish event failed", zap.String("type", string(e.Type)), zap.Error(err))
	}
	return dto, nil
}

// GetByLoanID returns the approval recorded for a public loan id.
func (u *Usecase) GetByLoanID(ctx context.Context, loanID string) (*ApprovalDTO, error) {
	l, err := u.loanRepo.GetByLoanID(ctx, loanID)
	if err != nil {
		return nil, err
	}
	a, err := u.approvalRepo.GetByLoanID(ctx, l.ID)
	if err != nil {
		return nil, err
	}
	return toDTO(a, l), nil
}

// GetByApprovalID returns an approval by its own public id.
func (u *Usecase) GetByApprovalID(ctx context.Context, approvalID string) (*ApprovalDTO, error) {
	a, err := u.approvalRepo.GetByApprovalID(ctx, approvalID)
	if err != nil {
		return nil, err
	}
	l, err := u.loanRepo.GetByID(ctx, a.LoanID)
	if err != nil {
		return nil, err
	}
	return toDTO(a, l), nil
}

func toDTO(a *domainApproval.Approval, l *domainLoan.Loan) *ApprovalDTO {
	return &ApprovalDTO{
		ApprovalID:          a.ApprovalID,
		LoanID:              l.LoanID,
		PhotoURL:            a.PhotoURL,
		ValidatorEmployeeID: a.ValidatorEmployeeID,
		Status:              string(l.State),
		ApprovedAt:          a.ApprovalDate,
	}
}
