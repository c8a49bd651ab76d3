package services

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"streameconomy/domain"
	"streameconomy/domain/entities"
	"streameconomy/domain/events"
	"streameconomy/domain/interfaces"

	log "github.com/sirupsen/logrus"
)

const maxTierNameLength = 64

type tierCatalogService struct {
	userRepo         interfaces.UserRepository
	viewerTierRepo   interfaces.ViewerTierRepository
	streamerTierRepo interfaces.StreamerTierRepository
	eventPublisher   interfaces.EventPublisher
}

// NewTierCatalogService creates a new tier catalog service
func NewTierCatalogService(
	userRepo interfaces.UserRepository,
	viewerTierRepo interfaces.ViewerTierRepository,
	streamerTierRepo interfaces.StreamerTierRepository,
	eventPublisher interfaces.EventPublisher,
) interfaces.TierCatalogService {
	return &tierCatalogService{
		userRepo:         userRepo,
		viewerTierRepo:   viewerTierRepo,
		streamerTierRepo: streamerTierRepo,
		eventPublisher:   eventPublisher,
	}
}

func (s *tierCatalogService) ListTiers(ctx context.Context, streamerID int64) ([]entities.ViewerTier, error) {
	if _, err := requireStreamer(ctx, s.userRepo, streamerID); err != nil {
		return nil, err
	}
	tiers, err := s.viewerTierRepo.ListByStreamer(ctx, streamerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list viewer tiers: %w", err)
	}
	return tiers, nil
}

func (s *tierCatalogService) ListStreamerTiers(ctx context.Context) ([]entities.StreamerTier, error) {
	tiers, err := s.streamerTierRepo.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list streamer tiers: %w", err)
	}
	return tiers, nil
}

// CreateTier adds a tier to the actor's catalog. The resulting active
// catalog must still start at 0 and never decrease with rank.
func (s *tierCatalogService) CreateTier(ctx context.Context, actorID int64, rank int, name string, threshold int64) (*entities.ViewerTier, error) {
	if _, err := requireStreamerActor(ctx, s.userRepo, actorID); err != nil {
		return nil, err
	}

	tier := &entities.ViewerTier{
		StreamerID: actorID,
		Rank:       rank,
		Name:       strings.TrimSpace(name),
		Threshold:  threshold,
		Active:     true,
	}
	if err := validateTierFields(tier); err != nil {
		return nil, err
	}
	if err := s.viewerTierRepo.LockCatalog(ctx, actorID); err != nil {
		return nil, err
	}

	existing, err := s.viewerTierRepo.ListByStreamer(ctx, actorID)
	if err != nil {
		return nil, fmt.Errorf("failed to list viewer tiers: %w", err)
	}
	for _, other := range existing {
		if other.Rank == rank {
			return nil, domain.NewConflictError("rank %d is already used by %s", rank, other.Name)
		}
	}
	if err := validateCatalog(append(existing, *tier)); err != nil {
		return nil, err
	}

	if err := s.viewerTierRepo.Create(ctx, tier); err != nil {
		if errors.Is(err, interfaces.ErrDuplicateTierRank) {
			return nil, domain.NewConflictError("rank %d is already used", rank)
		}
		return nil, fmt.Errorf("failed to create viewer tier: %w", err)
	}

	s.publishCatalogChange(actorID, tier.ID)
	return tier, nil
}

// UpdateTier edits a tier the actor owns
func (s *tierCatalogService) UpdateTier(ctx context.Context, actorID, tierID int64, update interfaces.TierUpdate) (*entities.ViewerTier, error) {
	if _, err := requireStreamerActor(ctx, s.userRepo, actorID); err != nil {
		return nil, err
	}
	if err := s.viewerTierRepo.LockCatalog(ctx, actorID); err != nil {
		return nil, err
	}

	tier, err := s.viewerTierRepo.GetByID(ctx, tierID)
	if err != nil {
		return nil, fmt.Errorf("failed to get viewer tier: %w", err)
	}
	if tier == nil {
		return nil, domain.NewNotFoundError("tier %d not found", tierID)
	}
	if tier.StreamerID != actorID {
		return nil, domain.NewForbiddenError("tier %d belongs to another channel", tierID)
	}

	if update.Name != nil {
		tier.Name = strings.TrimSpace(*update.Name)
	}
	if update.Threshold != nil {
		tier.Threshold = *update.Threshold
	}
	if update.Active != nil {
		tier.Active = *update.Active
	}
	if err := validateTierFields(tier); err != nil {
		return nil, err
	}

	existing, err := s.viewerTierRepo.ListByStreamer(ctx, actorID)
	if err != nil {
		return nil, fmt.Errorf("failed to list viewer tiers: %w", err)
	}
	for i := range existing {
		if existing[i].ID == tier.ID {
			existing[i] = *tier
		}
	}
	if err := validateCatalog(existing); err != nil {
		return nil, err
	}

	if err := s.viewerTierRepo.Update(ctx, tier); err != nil {
		return nil, fmt.Errorf("failed to update viewer tier: %w", err)
	}

	s.publishCatalogChange(actorID, tier.ID)
	return tier, nil
}

func (s *tierCatalogService) publishCatalogChange(streamerID, tierID int64) {
	log.WithFields(log.Fields{
		"streamerID": streamerID,
		"tierID":     tierID,
	}).Info("Viewer tier catalog changed")

	if err := s.eventPublisher.Publish(events.TierCatalogChangedEvent{StreamerID: streamerID, TierID: tierID}); err != nil {
		log.WithError(err).Error("Failed to publish tier catalog changed event")
	}
}

func validateTierFields(tier *entities.ViewerTier) error {
	if tier.Name == "" {
		return domain.NewValidationError("tier name is required")
	}
	if len(tier.Name) > maxTierNameLength {
		return domain.NewValidationError("tier name cannot exceed %d characters", maxTierNameLength)
	}
	if tier.Rank < 0 {
		return domain.NewValidationError("tier rank cannot be negative")
	}
	if tier.Threshold < 0 {
		return domain.NewValidationError("tier threshold cannot be negative")
	}
	return nil
}

// validateCatalog checks the active subset of a catalog in rank order
func validateCatalog(tiers []entities.ViewerTier) error {
	active := make([]entities.ViewerTier, 0, len(tiers))
	for _, tier := range tiers {
		if tier.Active {
			active = append(active, tier)
		}
	}
	slices.SortFunc(active, func(a, b entities.ViewerTier) int {
		return cmp.Compare(a.Rank, b.Rank)
	})

	if err := entities.ValidateTierOrder(active); err != nil {
		return domain.NewValidationError("invalid tier catalog: %v", err)
	}
	return nil
}
