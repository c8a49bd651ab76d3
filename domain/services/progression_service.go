package services

import (
	"context"
	"fmt"

	"streameconomy/domain"
	"streameconomy/domain/entities"
	"streameconomy/domain/events"
	"streameconomy/domain/interfaces"

	log "github.com/sirupsen/logrus"
)

// maxTierSwapAttempts bounds the re-read and compare-and-swap loop of a
// single tier recalculation
const maxTierSwapAttempts = 3

type progressionService struct {
	progressRepo        interfaces.ProgressRepository
	viewerTierRepo      interfaces.ViewerTierRepository
	streamerTierRepo    interfaces.StreamerTierRepository
	profileRepo         interfaces.StreamerProfileRepository
	notificationService interfaces.NotificationService
	eventPublisher      interfaces.EventPublisher
}

// NewProgressionService creates a new progression service
func NewProgressionService(
	progressRepo interfaces.ProgressRepository,
	viewerTierRepo interfaces.ViewerTierRepository,
	streamerTierRepo interfaces.StreamerTierRepository,
	profileRepo interfaces.StreamerProfileRepository,
	notificationService interfaces.NotificationService,
	eventPublisher interfaces.EventPublisher,
) interfaces.ProgressionService {
	return &progressionService{
		progressRepo:        progressRepo,
		viewerTierRepo:      viewerTierRepo,
		streamerTierRepo:    streamerTierRepo,
		profileRepo:         profileRepo,
		notificationService: notificationService,
		eventPublisher:      eventPublisher,
	}
}

// AddViewerPoints credits points and recalculates the viewer's tier in the
// streamer's room. An empty tier catalog leaves the tier unset but still
// keeps the points.
func (s *progressionService) AddViewerPoints(ctx context.Context, viewerID, streamerID int64, delta int64) (*interfaces.ProgressResult, error) {
	if delta <= 0 {
		return nil, domain.NewValidationError("points to add must be positive")
	}

	tiers, err := s.viewerTierRepo.ListActiveByStreamer(ctx, streamerID)
	if err != nil {
		return nil, fmt.Errorf("failed to load viewer tiers: %w", err)
	}

	if _, err := s.progressRepo.GetOrInitialize(ctx, viewerID, streamerID, baselineID(tiers)); err != nil {
		return nil, fmt.Errorf("failed to initialize progress: %w", err)
	}

	progress, err := s.progressRepo.AddPoints(ctx, viewerID, streamerID, delta)
	if err != nil {
		return nil, fmt.Errorf("failed to add points: %w", err)
	}

	if len(tiers) == 0 {
		log.WithFields(log.Fields{
			"viewerID":   viewerID,
			"streamerID": streamerID,
			"points":     progress.Points,
		}).Warn("Streamer has no active viewer tiers, leaving tier unset")
		return &interfaces.ProgressResult{Progress: progress}, nil
	}

	change, err := s.applyViewerTier(ctx, tiers, progress)
	if err != nil {
		return nil, err
	}

	return &interfaces.ProgressResult{Progress: progress, TierChange: change}, nil
}

// RecalculateViewerTier re-evaluates a single progress row
func (s *progressionService) RecalculateViewerTier(ctx context.Context, viewerID, streamerID int64) (*interfaces.TierChange, error) {
	tiers, err := s.viewerTierRepo.ListActiveByStreamer(ctx, streamerID)
	if err != nil {
		return nil, fmt.Errorf("failed to load viewer tiers: %w", err)
	}
	if len(tiers) == 0 {
		return nil, domain.NewInapplicableTierListError("streamer %d has no active viewer tiers", streamerID)
	}

	progress, err := s.progressRepo.Get(ctx, viewerID, streamerID)
	if err != nil {
		return nil, fmt.Errorf("failed to load progress: %w", err)
	}
	if progress == nil {
		return nil, domain.NewNotFoundError("no progress for viewer %d in this room", viewerID)
	}

	return s.applyViewerTier(ctx, tiers, progress)
}

// RecalculateAudience re-evaluates one page of a streamer's progress rows
// against the current catalog
func (s *progressionService) RecalculateAudience(ctx context.Context, streamerID int64, afterViewerID int64, limit int) (*interfaces.AudiencePage, error) {
	if limit <= 0 {
		return nil, domain.NewValidationError("page size must be positive")
	}

	tiers, err := s.viewerTierRepo.ListActiveByStreamer(ctx, streamerID)
	if err != nil {
		return nil, fmt.Errorf("failed to load viewer tiers: %w", err)
	}
	if len(tiers) == 0 {
		log.WithField("streamerID", streamerID).Warn("Skipping audience recalculation, no active viewer tiers")
		return &interfaces.AudiencePage{NextViewerID: afterViewerID, Done: true}, nil
	}

	rows, err := s.progressRepo.ListByStreamer(ctx, streamerID, afterViewerID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list progress rows: %w", err)
	}

	page := &interfaces.AudiencePage{
		NextViewerID: afterViewerID,
		Done:         len(rows) < limit,
	}
	for _, row := range rows {
		change, err := s.applyViewerTier(ctx, tiers, row)
		if err != nil {
			return nil, fmt.Errorf("failed to recalculate viewer %d: %w", row.ViewerID, err)
		}
		page.Processed++
		if change != nil {
			page.Changed++
		}
		page.NextViewerID = row.ViewerID
	}

	return page, nil
}

// BaselineViewerTierID returns the lowest active tier id or nil
func (s *progressionService) BaselineViewerTierID(ctx context.Context, streamerID int64) (*int64, error) {
	tiers, err := s.viewerTierRepo.ListActiveByStreamer(ctx, streamerID)
	if err != nil {
		return nil, fmt.Errorf("failed to load viewer tiers: %w", err)
	}
	return baselineID(tiers), nil
}

// applyViewerTier writes the resolved tier with a compare-and-swap on the
// (points, tier) pair it was computed from. A lost swap re-reads the row and
// tries again so a stale total never overwrites a newer one's tier.
// progress is updated in place to the state that was written.
func (s *progressionService) applyViewerTier(ctx context.Context, tiers []entities.ViewerTier, progress *entities.ViewerProgress) (*interfaces.TierChange, error) {
	current := progress
	for attempt := 1; attempt <= maxTierSwapAttempts; attempt++ {
		target, _ := ResolveTier(current.Points, tiers)
		if current.HasTierID(target.ID) {
			*progress = *current
			return nil, nil
		}

		swapped, err := s.progressRepo.CompareAndSwapTier(ctx, current.ViewerID, current.StreamerID, current.Points, current.TierID, target.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to update viewer tier: %w", err)
		}

		if swapped {
			held, err := s.heldViewerRank(ctx, tiers, current.TierID)
			if err != nil {
				return nil, err
			}
			change := &interfaces.TierChange{
				OldTierID: current.TierID,
				NewTier:   target,
				Promoted:  isPromotion(tiers, held, target),
			}
			updated := *current
			newTierID := target.ID
			updated.TierID = &newTierID
			*progress = updated

			if change.Promoted {
				if err := s.announceViewerLevelUp(ctx, &updated, change.OldTierID, target); err != nil {
					return nil, err
				}
			} else {
				log.WithFields(log.Fields{
					"viewerID":   updated.ViewerID,
					"streamerID": updated.StreamerID,
					"points":     updated.Points,
					"tier":       target.Name,
				}).Info("Viewer tier lowered")
			}
			return change, nil
		}

		log.WithFields(log.Fields{
			"viewerID":   current.ViewerID,
			"streamerID": current.StreamerID,
			"attempt":    attempt,
		}).Debug("Viewer tier swap lost a race, re-reading progress")

		reread, err := s.progressRepo.Get(ctx, current.ViewerID, current.StreamerID)
		if err != nil {
			return nil, fmt.Errorf("failed to re-read progress: %w", err)
		}
		if reread == nil {
			return nil, domain.NewNotFoundError("progress for viewer %d disappeared", current.ViewerID)
		}
		current = reread
	}

	return nil, domain.NewTransientStoreError(fmt.Errorf("viewer %d tier in room %d kept changing after %d attempts",
		progress.ViewerID, progress.StreamerID, maxTierSwapAttempts))
}

// heldViewerRank returns the rank of the viewer's stored tier. A tier missing
// from the active list was deactivated and is read from the full catalog.
func (s *progressionService) heldViewerRank(ctx context.Context, tiers []entities.ViewerTier, tierID *int64) (*int, error) {
	if tierID == nil {
		return nil, nil
	}
	if rank := heldRank(tiers, tierID); rank != nil {
		return rank, nil
	}

	tier, err := s.viewerTierRepo.GetByID(ctx, *tierID)
	if err != nil {
		return nil, fmt.Errorf("failed to load held viewer tier: %w", err)
	}
	if tier == nil {
		return nil, nil
	}
	return &tier.Rank, nil
}

func (s *progressionService) announceViewerLevelUp(ctx context.Context, progress *entities.ViewerProgress, oldTierID *int64, tier entities.ViewerTier) error {
	log.WithFields(log.Fields{
		"viewerID":   progress.ViewerID,
		"streamerID": progress.StreamerID,
		"points":     progress.Points,
		"tier":       tier.Name,
		"rank":       tier.Rank,
	}).Info("Viewer leveled up")

	payload := map[string]any{
		"streamerId": progress.StreamerID,
		"tierId":     tier.ID,
		"tierName":   tier.Name,
		"tierRank":   tier.Rank,
		"points":     progress.Points,
	}
	message := fmt.Sprintf("You reached %s!", tier.Name)
	if _, err := s.notificationService.Emit(ctx, progress.ViewerID, entities.NotificationTypeLevelUpViewer, message, payload); err != nil {
		return fmt.Errorf("failed to emit level up notification: %w", err)
	}

	event := events.ViewerLevelUpEvent{
		ViewerID:    progress.ViewerID,
		StreamerID:  progress.StreamerID,
		Points:      progress.Points,
		OldTierID:   oldTierID,
		NewTierID:   tier.ID,
		NewTierName: tier.Name,
		NewTierRank: tier.Rank,
	}
	if err := s.eventPublisher.Publish(event); err != nil {
		log.WithError(err).Error("Failed to publish viewer level up event")
	}
	return nil
}

// AddStreamerMinutes credits airtime and recalculates against the global
// streamer tier list
func (s *progressionService) AddStreamerMinutes(ctx context.Context, streamerID int64, minutes int64) (*interfaces.AirtimeResult, error) {
	if minutes < 0 {
		return nil, domain.NewValidationError("elapsed minutes cannot be negative")
	}

	tiers, err := s.streamerTierRepo.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load streamer tiers: %w", err)
	}

	profile, err := s.profileRepo.GetOrInitialize(ctx, streamerID, baselineID(tiers))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize streamer profile: %w", err)
	}

	if minutes > 0 {
		profile, err = s.profileRepo.AddMinutes(ctx, streamerID, minutes)
		if err != nil {
			return nil, fmt.Errorf("failed to add airtime: %w", err)
		}
	}

	if len(tiers) == 0 {
		log.WithField("streamerID", streamerID).Warn("No streamer tiers configured, leaving tier unset")
		return &interfaces.AirtimeResult{Profile: profile}, nil
	}

	change, err := s.applyStreamerTier(ctx, tiers, profile)
	if err != nil {
		return nil, err
	}
	return &interfaces.AirtimeResult{Profile: profile, TierChange: change}, nil
}

func (s *progressionService) applyStreamerTier(ctx context.Context, tiers []entities.StreamerTier, profile *entities.StreamerProfile) (*interfaces.TierChange, error) {
	current := profile
	for attempt := 1; attempt <= maxTierSwapAttempts; attempt++ {
		target, _ := ResolveTier(current.AirtimeMinutes, tiers)
		if current.HasTierID(target.ID) {
			*profile = *current
			return nil, nil
		}

		swapped, err := s.profileRepo.CompareAndSwapTier(ctx, current.UserID, current.AirtimeMinutes, current.TierID, target.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to update streamer tier: %w", err)
		}

		if swapped {
			change := &interfaces.TierChange{
				OldTierID: current.TierID,
				NewTier:   target,
				Promoted:  isPromotion(tiers, heldRank(tiers, current.TierID), target),
			}
			updated := *current
			newTierID := target.ID
			updated.TierID = &newTierID
			*profile = updated

			if change.Promoted {
				if err := s.announceStreamerLevelUp(ctx, &updated, change.OldTierID, target); err != nil {
					return nil, err
				}
			}
			return change, nil
		}

		reread, err := s.profileRepo.Get(ctx, current.UserID)
		if err != nil {
			return nil, fmt.Errorf("failed to re-read streamer profile: %w", err)
		}
		if reread == nil {
			return nil, domain.NewNotFoundError("streamer profile %d disappeared", current.UserID)
		}
		current = reread
	}

	return nil, domain.NewTransientStoreError(fmt.Errorf("streamer %d tier kept changing after %d attempts",
		profile.UserID, maxTierSwapAttempts))
}

func (s *progressionService) announceStreamerLevelUp(ctx context.Context, profile *entities.StreamerProfile, oldTierID *int64, tier entities.StreamerTier) error {
	log.WithFields(log.Fields{
		"streamerID":     profile.UserID,
		"airtimeMinutes": profile.AirtimeMinutes,
		"tier":           tier.Name,
	}).Info("Streamer leveled up")

	payload := map[string]any{
		"tierId":         tier.ID,
		"tierName":       tier.Name,
		"tierRank":       tier.Rank,
		"airtimeMinutes": profile.AirtimeMinutes,
	}
	message := fmt.Sprintf("Your channel reached %s!", tier.Name)
	if _, err := s.notificationService.Emit(ctx, profile.UserID, entities.NotificationTypeLevelUpStreamer, message, payload); err != nil {
		return fmt.Errorf("failed to emit streamer level up notification: %w", err)
	}

	event := events.StreamerLevelUpEvent{
		StreamerID:     profile.UserID,
		AirtimeMinutes: profile.AirtimeMinutes,
		OldTierID:      oldTierID,
		NewTierID:      tier.ID,
		NewTierName:    tier.Name,
		NewTierRank:    tier.Rank,
	}
	if err := s.eventPublisher.Publish(event); err != nil {
		log.WithError(err).Error("Failed to publish streamer level up event")
	}
	return nil
}

// baselineID returns the id of the lowest-ranked tier, or nil for an empty list
func baselineID[T entities.Tier](tiers []T) *int64 {
	if len(tiers) == 0 {
		return nil
	}
	id := tiers[0].TierID()
	return &id
}
