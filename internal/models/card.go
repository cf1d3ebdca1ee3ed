package models

import (
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CardStatus is the workflow state of a card.
type CardStatus string

const (
	StatusTodo  CardStatus = "todo"
	StatusDoing CardStatus = "doing"
	StatusDone  CardStatus = "done"
)

// Statuses lists every status in report order.
func Statuses() []CardStatus {
	return []CardStatus{StatusTodo, StatusDoing, StatusDone}
}

func (s CardStatus) Valid() bool {
	switch s {
	case StatusTodo, StatusDoing, StatusDone:
		return true
	}
	return false
}

// Card is a single task stored in MongoDB. The title doubles as the
// project key used by the statistics report.
type Card struct {
	ID          primitive.ObjectID `json:"id"                bson:"_id,omitempty"`
	Title       string             `json:"title"             bson:"title"`
	Description string             `json:"description"       bson:"description"`
	Status      CardStatus         `json:"status"            bson:"status"`
	OwnerID     string             `json:"ownerId"           bson:"ownerId"`
	DueDate     *time.Time         `json:"dueDate,omitempty" bson:"dueDate,omitempty"`
	CreatedAt   time.Time          `json:"createdAt"         bson:"createdAt"`
	UpdatedAt   time.Time          `json:"updatedAt"         bson:"updatedAt"`
}

// CardWithOwner is a card joined with its owner's public details.
type CardWithOwner struct {
	Card
	Owner *Summary `json:"owner"`
}

// CreateCardRequest is the JSON body for POST /api/cards.
type CreateCardRequest struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Status      CardStatus `json:"status,omitempty"`
	DueDate     *time.Time `json:"dueDate,omitempty"`
}

// Validate trims the text fields and checks required values.
func (r *CreateCardRequest) Validate() error {
	r.Title = strings.TrimSpace(r.Title)
	r.Description = strings.TrimSpace(r.Description)
	if r.Status == "" {
		r.Status = StatusTodo
	}

	var errs []FieldError
	if r.Title == "" {
		errs = append(errs, FieldError{Field: "title", Message: "required"})
	}
	if r.Description == "" {
		errs = append(errs, FieldError{Field: "description", Message: "required"})
	}
	if !r.Status.Valid() {
		errs = append(errs, FieldError{Field: "status", Message: "must be one of todo, doing, done"})
	}
	if len(errs) > 0 {
		return NewValidationErrors(errs)
	}
	return nil
}

// UpdateCardRequest is the JSON body for PUT /api/cards/{id}. Nil fields
// are left untouched.
type UpdateCardRequest struct {
	Title        *string     `json:"title,omitempty"`
	Description  *string     `json:"description,omitempty"`
	Status       *CardStatus `json:"status,omitempty"`
	DueDate      *time.Time  `json:"dueDate,omitempty"`
	ClearDueDate bool        `json:"clearDueDate,omitempty"`
}

// Apply validates the request and copies the set fields onto c.
func (r *UpdateCardRequest) Apply(c *Card) error {
	var errs []FieldError
	if r.Title != nil {
		t := strings.TrimSpace(*r.Title)
		if t == "" {
			errs = append(errs, FieldError{Field: "title", Message: "must not be empty"})
		}
		r.Title = &t
	}
	if r.Description != nil {
		d := strings.TrimSpace(*r.Description)
		if d == "" {
			errs = append(errs, FieldError{Field: "description", Message: "must not be empty"})
		}
		r.Description = &d
	}
	if r.Status != nil && !r.Status.Valid() {
		errs = append(errs, FieldError{Field: "status", Message: "must be one of todo, doing, done"})
	}
	if r.ClearDueDate && r.DueDate != nil {
		errs = append(errs, FieldError{Field: "dueDate", Message: "cannot set and clear at the same time"})
	}
	if len(errs) > 0 {
		return NewValidationErrors(errs)
	}

	if r.Title != nil {
		c.Title = *r.Title
	}
	if r.Description != nil {
		c.Description = *r.Description
	}
	if r.Status != nil {
		c.Status = *r.Status
	}
	if r.DueDate != nil {
		c.DueDate = r.DueDate
	}
	if r.ClearDueDate {
		c.DueDate = nil
	}
	return nil
}
