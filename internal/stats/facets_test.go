package stats

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayush/card-tracker/backend/internal/models"
)

var refNow = time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)

func card(title string, status models.CardStatus, created, updated time.Time) models.Card {
	return models.Card{
		Title:       title,
		Description: "d",
		Status:      status,
		OwnerID:     "owner",
		CreatedAt:   created,
		UpdatedAt:   updated,
	}
}

func TestFacets_EmptyInputYieldsNoRows(t *testing.T) {
	t.Parallel()

	cutoff := refNow.Add(-weekWindow)
	assert.Nil(t, countTotal(nil))
	assert.Nil(t, countByStatus(nil))
	assert.Nil(t, countProjects(nil))
	assert.Nil(t, countCreatedSince(nil, cutoff))
	assert.Nil(t, countCompletedSince(nil, cutoff))
	assert.Nil(t, averageCompletionsPerDay(nil, cutoff, time.UTC))
	assert.Nil(t, mostActiveProject(nil, cutoff))
}

func TestCountCreatedSince_InclusiveBoundary(t *testing.T) {
	t.Parallel()

	cutoff := refNow.Add(-weekWindow)
	cards := []models.Card{
		card("a", models.StatusTodo, cutoff, cutoff),
		card("b", models.StatusTodo, cutoff.Add(-time.Nanosecond), cutoff),
	}

	got := countCreatedSince(cards, cutoff)
	require.NotNil(t, got)
	assert.Equal(t, 1, *got)
}

func TestCountCompletedSince_RequiresDone(t *testing.T) {
	t.Parallel()

	recent := refNow.Add(-time.Hour)
	cards := []models.Card{
		card("a", models.StatusDone, recent, recent),
		card("b", models.StatusDoing, recent, recent),
		card("c", models.StatusDone, recent, refNow.Add(-8*day)),
	}

	got := countCompletedSince(cards, refNow.Add(-weekWindow))
	require.NotNil(t, got)
	assert.Equal(t, 1, *got)
}

func TestCountByStatus_MissingStatusIsTodo(t *testing.T) {
	t.Parallel()

	cards := []models.Card{
		card("a", "", refNow, refNow),
		card("b", models.StatusDone, refNow, refNow),
	}

	got := countByStatus(cards)
	assert.Equal(t, map[models.CardStatus]int{models.StatusTodo: 1, models.StatusDone: 1}, got)
}

func TestAverageCompletionsPerDay(t *testing.T) {
	t.Parallel()

	dayA := refNow.Add(-5 * day)
	dayB := refNow.Add(-10 * day)
	var cards []models.Card
	for i := 0; i < 4; i++ {
		at := dayA.Add(time.Duration(i) * time.Minute)
		cards = append(cards, card("p", models.StatusDone, at, at))
	}
	for i := 0; i < 2; i++ {
		at := dayB.Add(time.Duration(i) * time.Minute)
		cards = append(cards, card("p", models.StatusDone, at, at))
	}
	// outside the window and not done: ignored
	old := refNow.Add(-31 * day)
	cards = append(cards,
		card("p", models.StatusDone, old, old),
		card("p", models.StatusTodo, dayA, dayA),
	)

	got := averageCompletionsPerDay(cards, refNow.Add(-monthWindow), time.UTC)
	require.NotNil(t, got)
	assert.InDelta(t, 3.0, *got, 1e-9)
}

func TestAverageCompletionsPerDay_TimeZoneBuckets(t *testing.T) {
	t.Parallel()

	berlin, err := time.LoadLocation("Europe/Berlin")
	require.NoError(t, err)

	lateUTC := time.Date(2026, 3, 10, 23, 30, 0, 0, time.UTC)
	earlyUTC := time.Date(2026, 3, 11, 0, 30, 0, 0, time.UTC)
	cards := []models.Card{
		card("p", models.StatusDone, lateUTC, lateUTC),
		card("p", models.StatusDone, earlyUTC, earlyUTC),
	}
	cutoff := refNow.Add(-monthWindow)

	utc := averageCompletionsPerDay(cards, cutoff, time.UTC)
	require.NotNil(t, utc)
	assert.InDelta(t, 1.0, *utc, 1e-9)

	local := averageCompletionsPerDay(cards, cutoff, berlin)
	require.NotNil(t, local)
	assert.InDelta(t, 2.0, *local, 1e-9)
}

func TestMostActiveProject(t *testing.T) {
	t.Parallel()

	recent := refNow.Add(-2 * day)
	old := refNow.Add(-40 * day)
	cutoff := refNow.Add(-monthWindow)

	t.Run("highest count wins", func(t *testing.T) {
		t.Parallel()
		cards := []models.Card{
			card("alpha", models.StatusTodo, recent, recent),
			card("beta", models.StatusTodo, recent, recent),
			card("beta", models.StatusTodo, recent, recent),
			card("alpha", models.StatusTodo, old, old),
			card("alpha", models.StatusTodo, old, old),
		}
		assert.Equal(t, &models.ProjectActivity{Name: "beta", Count: 2}, mostActiveProject(cards, cutoff))
	})

	t.Run("ties resolve to smallest title", func(t *testing.T) {
		t.Parallel()
		cards := []models.Card{
			card("zeta", models.StatusTodo, recent, recent),
			card("Zeta", models.StatusTodo, recent, recent),
			card("eta", models.StatusTodo, recent, recent),
		}
		for i := 0; i < 20; i++ {
			assert.Equal(t, &models.ProjectActivity{Name: "Zeta", Count: 1}, mostActiveProject(cards, cutoff))
		}
	})

	t.Run("nothing in window", func(t *testing.T) {
		t.Parallel()
		cards := []models.Card{card("alpha", models.StatusTodo, old, old)}
		assert.Nil(t, mostActiveProject(cards, cutoff))
	})
}
