package stats

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ayush/card-tracker/backend/internal/models"
)

// CardSource is the card snapshot read used by the aggregator.
type CardSource interface {
	ListByOwner(ctx context.Context, ownerID string) ([]models.Card, error)
	ListAll(ctx context.Context) ([]models.Card, error)
}

// UserLookup resolves the requesting user for the report header.
type UserLookup interface {
	GetUserByID(ctx context.Context, id string) (*models.User, error)
}

// Aggregator computes statistics reports. It keeps no state between calls.
type Aggregator struct {
	cards CardSource
	users UserLookup
	loc   *time.Location
	now   func() time.Time
	log   *zap.Logger
}

// NewAggregator creates an Aggregator that buckets completion days in loc.
func NewAggregator(cards CardSource, users UserLookup, loc *time.Location, log *zap.Logger) *Aggregator {
	if loc == nil {
		loc = time.UTC
	}
	return &Aggregator{
		cards: cards,
		users: users,
		loc:   loc,
		now:   time.Now,
		log:   log.Named("stats"),
	}
}

// ComputeStats returns the report over the cards owned by userID.
//
// Errors: ErrMalformedInput for a non-UUID id, ErrUserNotFound when the
// user does not exist, ErrStoreUnavailable when either store fails. An
// owner with no cards gets DefaultReport, never an error.
func (a *Aggregator) ComputeStats(ctx context.Context, userID string) (*models.StatsReport, error) {
	if _, err := uuid.Parse(userID); err != nil {
		return nil, fmt.Errorf("%w: user id %q", models.ErrMalformedInput, userID)
	}

	user, err := a.users.GetUserByID(ctx, userID)
	switch {
	case errors.Is(err, models.ErrNotFound):
		return nil, fmt.Errorf("stats for %s: %w", userID, models.ErrUserNotFound)
	case errors.Is(err, models.ErrMalformedInput):
		return nil, err
	case err != nil:
		return nil, unavailable("load user", err)
	}

	cards, err := a.cards.ListByOwner(ctx, userID)
	if err != nil {
		return nil, unavailable("load cards", err)
	}

	return a.report(ctx, cards, user)
}

// ComputeGlobalStats returns the report over every card in the store.
func (a *Aggregator) ComputeGlobalStats(ctx context.Context) (*models.StatsReport, error) {
	cards, err := a.cards.ListAll(ctx)
	if err != nil {
		return nil, unavailable("load cards", err)
	}
	return a.report(ctx, cards, nil)
}

func (a *Aggregator) report(ctx context.Context, cards []models.Card, user *models.User) (*models.StatsReport, error) {
	now := a.now()
	facets, err := computeFacets(ctx, cards, now, a.loc)
	if err != nil {
		return nil, err
	}

	r := Shape(facets, user, now)
	a.log.Debug("stats computed",
		zap.Int("cards", len(cards)),
		zap.Bool("global", user == nil),
		zap.Duration("elapsed", time.Since(now)),
	)
	return &r, nil
}

// computeFacets runs every reduction concurrently over the same slice.
// Each goroutine owns one field of the result.
func computeFacets(ctx context.Context, cards []models.Card, now time.Time, loc *time.Location) (Facets, error) {
	var f Facets
	weekAgo := now.Add(-weekWindow)
	monthAgo := now.Add(-monthWindow)

	g, gctx := errgroup.WithContext(ctx)
	run := func(reduce func()) {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			reduce()
			return nil
		})
	}

	run(func() { f.TotalCards = countTotal(cards) })
	run(func() { f.ByStatus = countByStatus(cards) })
	run(func() { f.TotalProjects = countProjects(cards) })
	run(func() { f.CreatedLast7Days = countCreatedSince(cards, weekAgo) })
	run(func() { f.CompletedLast7Days = countCompletedSince(cards, weekAgo) })
	run(func() { f.CompletionsPerActiveDay = averageCompletionsPerDay(cards, monthAgo, loc) })
	run(func() { f.MostActiveProject = mostActiveProject(cards, monthAgo) })

	if err := g.Wait(); err != nil {
		return Facets{}, fmt.Errorf("compute facets: %w", err)
	}
	return f, nil
}

func unavailable(op string, err error) error {
	if errors.Is(err, models.ErrStoreUnavailable) || errors.Is(err, context.Canceled) {
		return fmt.Errorf("%s: %w", op, err)
	}
	return fmt.Errorf("%s: %w: %v", op, models.ErrStoreUnavailable, err)
}
