package stats

import (
	"time"

	"github.com/ayush/card-tracker/backend/internal/models"
)

const (
	day         = 24 * time.Hour
	weekWindow  = 7 * day
	monthWindow = 30 * day
	dayLayout   = "2006-01-02"
)

// Facets holds the raw output of every reduction over one card snapshot.
// A nil field means the reduction matched no cards.
type Facets struct {
	TotalCards              *int
	ByStatus                map[models.CardStatus]int
	TotalProjects           *int
	CreatedLast7Days        *int
	CompletedLast7Days      *int
	CompletionsPerActiveDay *float64
	MostActiveProject       *models.ProjectActivity
}

func optional(n int) *int {
	if n == 0 {
		return nil
	}
	return &n
}

func since(t, cutoff time.Time) bool {
	return !t.Before(cutoff)
}

// statusOf treats a card stored without a status as todo, the value it is
// created with.
func statusOf(c *models.Card) models.CardStatus {
	if c.Status.Valid() {
		return c.Status
	}
	return models.StatusTodo
}

func countTotal(cards []models.Card) *int {
	return optional(len(cards))
}

func countByStatus(cards []models.Card) map[models.CardStatus]int {
	if len(cards) == 0 {
		return nil
	}
	out := make(map[models.CardStatus]int, 3)
	for i := range cards {
		out[statusOf(&cards[i])]++
	}
	return out
}

func countProjects(cards []models.Card) *int {
	titles := make(map[string]struct{}, len(cards))
	for i := range cards {
		titles[cards[i].Title] = struct{}{}
	}
	return optional(len(titles))
}

func countCreatedSince(cards []models.Card, cutoff time.Time) *int {
	n := 0
	for i := range cards {
		if since(cards[i].CreatedAt, cutoff) {
			n++
		}
	}
	return optional(n)
}

func countCompletedSince(cards []models.Card, cutoff time.Time) *int {
	n := 0
	for i := range cards {
		if statusOf(&cards[i]) == models.StatusDone && since(cards[i].UpdatedAt, cutoff) {
			n++
		}
	}
	return optional(n)
}

// averageCompletionsPerDay groups completions after cutoff by calendar day
// in loc and averages over the days that had at least one.
func averageCompletionsPerDay(cards []models.Card, cutoff time.Time, loc *time.Location) *float64 {
	perDay := make(map[string]int)
	total := 0
	for i := range cards {
		c := &cards[i]
		if statusOf(c) != models.StatusDone || !since(c.UpdatedAt, cutoff) {
			continue
		}
		perDay[c.UpdatedAt.In(loc).Format(dayLayout)]++
		total++
	}
	if len(perDay) == 0 {
		return nil
	}
	avg := float64(total) / float64(len(perDay))
	return &avg
}

// mostActiveProject returns the title with the most cards created after
// cutoff. Equal counts resolve to the lexicographically smallest title.
func mostActiveProject(cards []models.Card, cutoff time.Time) *models.ProjectActivity {
	counts := make(map[string]int)
	for i := range cards {
		if since(cards[i].CreatedAt, cutoff) {
			counts[cards[i].Title]++
		}
	}

	var best *models.ProjectActivity
	for title, n := range counts {
		if best == nil || n > best.Count || (n == best.Count && title < best.Name) {
			best = &models.ProjectActivity{Name: title, Count: n}
		}
	}
	return best
}
