package stats

import (
	"time"

	"github.com/ayush/card-tracker/backend/internal/models"
)

// DefaultReport is the report for an empty card set: every count zero,
// all three statuses listed, no most active project.
func DefaultReport(generatedAt time.Time) models.StatsReport {
	statuses := models.Statuses()
	totalStatus := make([]models.StatusCount, len(statuses))
	for i, s := range statuses {
		totalStatus[i] = models.StatusCount{Status: s}
	}
	return models.StatsReport{
		TotalStatus: totalStatus,
		GeneratedAt: generatedAt.UTC(),
	}
}

// Shape assembles the final report from raw facets, substituting the
// defaults for facets that matched nothing. user may be nil.
func Shape(f Facets, user *models.User, generatedAt time.Time) models.StatsReport {
	r := DefaultReport(generatedAt)

	if f.TotalCards != nil {
		r.TotalCards = *f.TotalCards
	}
	for i := range r.TotalStatus {
		r.TotalStatus[i].Count = f.ByStatus[r.TotalStatus[i].Status]
	}
	if f.TotalProjects != nil {
		r.TotalProjects = *f.TotalProjects
	}
	if f.CreatedLast7Days != nil {
		r.CardsCreatedLast7Days = *f.CreatedLast7Days
	}
	if f.CompletedLast7Days != nil {
		r.CardsCompletedLast7Days = *f.CompletedLast7Days
	}
	if f.CompletionsPerActiveDay != nil {
		r.CardsCompletedLast30Days = *f.CompletionsPerActiveDay
	}
	if f.MostActiveProject != nil {
		p := *f.MostActiveProject
		r.MostActiveProjectLast30Days = &p
	}
	if user != nil {
		sum := user.Summary()
		r.User = &sum
	}
	return r
}
