package models

import "time"

// StatusCount is the number of cards in one status.
type StatusCount struct {
	Status CardStatus `json:"status"`
	Count  int        `json:"count"`
}

// ProjectActivity names a project and how many cards it gained.
type ProjectActivity struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// StatsReport is the point-in-time statistics snapshot over a set of cards.
// User is nil for the global report.
type StatsReport struct {
	TotalCards                  int              `json:"totalCards"`
	TotalStatus                 []StatusCount    `json:"totalStatus"`
	TotalProjects               int              `json:"totalProjects"`
	CardsCreatedLast7Days       int              `json:"cardsCreatedLast7Days"`
	CardsCompletedLast7Days     int              `json:"cardsCompletedLast7Days"`
	CardsCompletedLast30Days    float64          `json:"cardsCompletedLast30Days"`
	MostActiveProjectLast30Days *ProjectActivity `json:"mostActiveProjectLast30Days"`
	User                        *Summary         `json:"user,omitempty"`
	GeneratedAt                 time.Time        `json:"generatedAt"`
}

// StatsExport describes a report snapshot written to object storage.
type StatsExport struct {
	Key       string    `json:"key"`
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expiresAt"`
}
