package borrower

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"microloans-api/internal/domain/borrower"
	"microloans-api/internal/domain/event"
	"microloans-api/internal/domain/stats"
	"microloans-api/pkg/id"
)

type Usecase struct {
	repo   borrower.Repository
	events event.Publisher
	cache  stats.Cache
	log    *zap.Logger
}

func NewUsecase(r borrower.Repository, events event.Publisher, cache stats.Cache, log *zap.Logger) *Usecase {
	if events == nil {
		events = event.Nop{}
	}
	if cache == nil {
		cache = stats.NopCache{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Usecase{repo: r, events: events, cache: cache, log: log}
}

func (u *Usecase) Create(ctx context.Context, in CreateBorrowerInput) (*BorrowerDTO, error) {
	name := strings.TrimSpace(in.FullName)
	if name == "" {
		return nil, ErrInvalidInput
	}

	b := &borrower.Borrower{
		BorrowerID: id.NewID32(),
		FullName:   name,
		Region:     strings.TrimSpace(in.Region),
	}
	if err := u.repo.Create(ctx, b); err != nil {
		return nil, err
	}

	u.cache.Invalidate(ctx)
	e := event.Event{Type: event.BorrowerCreated, BorrowerID: b.BorrowerID, OccurredAt: time.Now().UTC()}
	if err := u.events.Publish(ctx, e); err != nil {
		u.log.Warn("publish event failed", zap.String("type", string(e.Type)), zap.Error(err))
	}

	dto := toDTO(b)
	return &dto, nil
}

func (u *Usecase) Get(ctx context.Context, borrowerID string) (*BorrowerDTO, error) {
	b, err := u.repo.GetByBorrowerID(ctx, borrowerID)
	if err != nil {
		return nil, err
	}
	dto := toDTO(b)
	return &dto, nil
}

func (u *Usecase) List(ctx context.Context, limit, offset int) ([]BorrowerDTO, error) {
	rows, err := u.repo.List(ctx, limit, offset)
	if err != nil {
		return nil, err
	}
	out := make([]BorrowerDTO, 0, len(rows))
	for i := range rows {
		out = append(out, toDTO(&rows[i]))
	}
	return out, nil
}
