package cards

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/ayush/card-tracker/backend/internal/models"
)

// CardStore defines the interface for card persistence.
type CardStore interface {
	Insert(ctx context.Context, card *models.Card) error
	ListByOwner(ctx context.Context, ownerID string) ([]models.Card, error)
	ListAll(ctx context.Context) ([]models.Card, error)
	GetByID(ctx context.Context, ownerID, id string) (*models.Card, error)
	Replace(ctx context.Context, card *models.Card) error
	Delete(ctx context.Context, id string) error
}

// OwnerDirectory resolves card owners for the admin listing.
type OwnerDirectory interface {
	GetUsersByIDs(ctx context.Context, ids []string) ([]models.User, error)
}

// Service implements owner-scoped card operations.
type Service struct {
	store  CardStore
	owners OwnerDirectory
	now    func() time.Time
	log    *zap.Logger
}

func NewService(store CardStore, owners OwnerDirectory, log *zap.Logger) *Service {
	return &Service{store: store, owners: owners, now: time.Now, log: log.Named("cards")}
}

func (s *Service) List(ctx context.Context, ownerID string) ([]models.Card, error) {
	cards, err := s.store.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list cards: %w", err)
	}
	return cards, nil
}

// Get returns the card if ownerID owns it. Cards of other owners are
// reported as not found.
func (s *Service) Get(ctx context.Context, ownerID, id string) (*models.Card, error) {
	card, err := s.store.GetByID(ctx, ownerID, id)
	if err != nil {
		return nil, fmt.Errorf("get card: %w", err)
	}
	return card, nil
}

func (s *Service) Create(ctx context.Context, ownerID string, req models.CreateCardRequest) (*models.Card, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	card := &models.Card{
		Title:       req.Title,
		Description: req.Description,
		Status:      req.Status,
		OwnerID:     ownerID,
		DueDate:     req.DueDate,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.store.Insert(ctx, card); err != nil {
		return nil, fmt.Errorf("create card: %w", err)
	}
	s.log.Debug("card created", zap.String("card_id", card.ID.Hex()), zap.String("owner_id", ownerID))
	return card, nil
}

// Update applies a partial update. Owner and creation time never change;
// UpdatedAt is refreshed.
func (s *Service) Update(ctx context.Context, ownerID, id string, req models.UpdateCardRequest) (*models.Card, error) {
	card, err := s.store.GetByID(ctx, ownerID, id)
	if err != nil {
		return nil, fmt.Errorf("update card: %w", err)
	}

	if err := req.Apply(card); err != nil {
		return nil, err
	}
	card.UpdatedAt = s.now().UTC()

	if err := s.store.Replace(ctx, card); err != nil {
		return nil, fmt.Errorf("update card: %w", err)
	}
	return card, nil
}

// Delete removes any card. Callers must be admins.
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.store.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete card: %w", err)
	}
	s.log.Info("card deleted", zap.String("card_id", id))
	return nil
}

// ListAllWithOwners returns every card joined with its owner. Cards whose
// owner no longer resolves carry a nil owner.
func (s *Service) ListAllWithOwners(ctx context.Context) ([]models.CardWithOwner, error) {
	cards, err := s.store.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list all cards: %w", err)
	}

	seen := make(map[string]struct{})
	var ids []string
	for _, c := range cards {
		if _, ok := seen[c.OwnerID]; !ok {
			seen[c.OwnerID] = struct{}{}
			ids = append(ids, c.OwnerID)
		}
	}

	users, err := s.owners.GetUsersByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("resolve owners: %w", err)
	}
	byID := make(map[string]models.Summary, len(users))
	for i := range users {
		byID[users[i].ID] = users[i].Summary()
	}

	out := make([]models.CardWithOwner, len(cards))
	for i, c := range cards {
		out[i] = models.CardWithOwner{Card: c}
		if sum, ok := byID[c.OwnerID]; ok {
			out[i].Owner = &sum
		}
	}
	return out, nil
}
