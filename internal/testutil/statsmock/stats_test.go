package statsmock

import (
	"context"
	"errors"
	"testing"

	"microloans-api/internal/domain/stats"
)

func TestRepo_Default(t *testing.T) {
	if _, err := (&Repo{}).Summarize(context.Background()); !errors.Is(err, ErrUnimplemented) {
		t.Fatalf("want ErrUnimplemented, got %v", err)
	}
}

func TestCache_RoundTrip(t *testing.T) {
	ctx := context.Background()
	c := &Cache{}

	_, gen, ok := c.Get(ctx)
	if ok {
		t.Fatal("empty cache must miss")
	}
	want := &stats.Summary{TotalLoans: 3}
	c.Set(ctx, gen, want)
	got, _, ok := c.Get(ctx)
	if !ok || got != want {
		t.Fatalf("Get = %+v, %v", got, ok)
	}
	c.Invalidate(ctx)
	if _, _, ok := c.Get(ctx); ok {
		t.Fatal("invalidated cache must miss")
	}
	if c.Invalidations != 1 {
		t.Fatalf("Invalidations = %d, want 1", c.Invalidations)
	}
}

func TestCache_SetWithOldGenerationIsDropped(t *testing.T) {
	ctx := context.Background()
	c := &Cache{}

	_, gen, _ := c.Get(ctx)
	c.Invalidate(ctx)
	c.Set(ctx, gen, &stats.Summary{TotalLoans: 1})
	if _, _, ok := c.Get(ctx); ok {
		t.Fatal("summary from an older generation must not be cached")
	}
}
