package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"streameconomy/config"
	"streameconomy/database"
	"streameconomy/domain"
	"streameconomy/domain/entities"
	"streameconomy/domain/interfaces"
	"streameconomy/domain/services"
	"streameconomy/infrastructure/observability"

	log "github.com/sirupsen/logrus"
)

// Use case names used in logs and metrics
const (
	UseCaseRegisterUser         = "register_user"
	UseCaseBecomeStreamer       = "become_streamer"
	UseCaseSendGift             = "send_gift"
	UseCaseRecharge             = "recharge"
	UseCasePlayRoulette         = "play_roulette"
	UseCaseRecordChatMessage    = "record_chat_message"
	UseCaseRecordSession        = "record_session"
	UseCaseCreateViewerTier     = "create_viewer_tier"
	UseCaseUpdateViewerTier     = "update_viewer_tier"
	UseCaseRecalculateAudience  = "recalculate_audience"
	UseCaseCreateGift           = "create_gift"
	UseCaseUpdateGift           = "update_gift"
	UseCaseMarkNotificationRead = "mark_notification_read"
	UseCaseMarkAllRead          = "mark_all_notifications_read"
)

// CascadeResult summarises a full audience recalculation
type CascadeResult struct {
	StreamerID int64
	Batches    int
	Processed  int
	Changed    int
}

// TransactionProcessor runs every use case inside its own unit of work,
// bounded by the store timeout. Events buffered by the services reach the
// bus only after the unit of work commits.
type TransactionProcessor struct {
	uowFactory UnitOfWorkFactory
	cfg        *config.Config
	wheel      *entities.RouletteWheel
	pick       services.SlotPicker
}

// NewTransactionProcessor creates a processor. A nil pick draws roulette
// slots from math/rand.
func NewTransactionProcessor(uowFactory UnitOfWorkFactory, cfg *config.Config, pick services.SlotPicker) (*TransactionProcessor, error) {
	sectors, err := entities.ParseRouletteSectors(cfg.RouletteSectors)
	if err != nil {
		return nil, fmt.Errorf("failed to parse roulette sectors: %w", err)
	}
	wheel, err := entities.NewRouletteWheel(sectors)
	if err != nil {
		return nil, fmt.Errorf("failed to build roulette wheel: %w", err)
	}

	return &TransactionProcessor{
		uowFactory: uowFactory,
		cfg:        cfg,
		wheel:      wheel,
		pick:       pick,
	}, nil
}

// serviceSet is every domain service bound to one unit of work
type serviceSet struct {
	users         interfaces.UserService
	notifications interfaces.NotificationService
	progression   interfaces.ProgressionService
	gifts         interfaces.GiftService
	recharges     interfaces.RechargeService
	roulette      interfaces.RouletteService
	engagement    interfaces.EngagementService
	airtime       interfaces.AirtimeService
	catalog       interfaces.TierCatalogService
	queries       interfaces.QueryService
	progress      interfaces.ProgressRepository
}

func (p *TransactionProcessor) newServiceSet(uow UnitOfWork) *serviceSet {
	bus := uow.EventBus()
	notifications := services.NewNotificationService(uow.NotificationRepository(), bus)
	progression := services.NewProgressionService(
		uow.ProgressRepository(),
		uow.ViewerTierRepository(),
		uow.StreamerTierRepository(),
		uow.StreamerProfileRepository(),
		notifications,
		bus,
	)

	return &serviceSet{
		users:         services.NewUserService(uow.UserRepository(), uow.BalanceRepository(), progression, bus),
		notifications: notifications,
		progression:   progression,
		gifts: services.NewGiftService(
			uow.UserRepository(),
			uow.GiftRepository(),
			uow.BalanceRepository(),
			uow.BalanceHistoryRepository(),
			progression,
			notifications,
			bus,
			p.cfg.GiftMaxQuantity,
		),
		recharges: services.NewRechargeService(
			uow.UserRepository(),
			uow.BalanceRepository(),
			uow.RechargeRepository(),
			uow.BalanceHistoryRepository(),
			notifications,
			bus,
		),
		roulette: services.NewRouletteService(
			uow.UserRepository(),
			uow.ProgressRepository(),
			uow.BalanceRepository(),
			uow.WagerRecordRepository(),
			uow.BalanceHistoryRepository(),
			notifications,
			bus,
			p.wheel,
			p.cfg.RouletteStake,
			p.pick,
		),
		engagement: services.NewEngagementService(uow.UserRepository(), progression, p.cfg.ChatPointIncrement),
		airtime:    services.NewAirtimeService(uow.UserRepository(), progression),
		catalog:    services.NewTierCatalogService(uow.UserRepository(), uow.ViewerTierRepository(), uow.StreamerTierRepository(), bus),
		queries: services.NewQueryService(
			uow.UserRepository(),
			uow.BalanceRepository(),
			uow.ProgressRepository(),
			uow.ViewerTierRepository(),
			uow.StreamerProfileRepository(),
			uow.StreamerTierRepository(),
			uow.BalanceHistoryRepository(),
			uow.WagerRecordRepository(),
		),
		progress: uow.ProgressRepository(),
	}
}

// execute runs fn in a fresh unit of work and commits when it succeeds.
// The deferred rollback discards the transaction and its buffered events on
// any failure, including a cancelled context.
func execute[T any](ctx context.Context, p *TransactionProcessor, fn func(ctx context.Context, s *serviceSet) (T, error)) (T, error) {
	var zero T

	if p.cfg.StoreTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.cfg.StoreTimeout)
		defer cancel()
	}

	uow := p.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return zero, classifyError(fmt.Errorf("failed to begin transaction: %w", err))
	}
	defer uow.Rollback()

	result, err := fn(ctx, p.newServiceSet(uow))
	if err != nil {
		return zero, classifyError(err)
	}

	if err := uow.Commit(); err != nil {
		return zero, classifyError(fmt.Errorf("failed to commit transaction: %w", err))
	}
	return result, nil
}

// classifyError keeps domain errors as they are and maps everything else to
// a transient store failure or an internal error
func classifyError(err error) error {
	if err == nil {
		return nil
	}

	var domainErr *domain.Error
	if errors.As(err, &domainErr) {
		return err
	}
	if database.IsTransientError(err) || errors.Is(err, context.Canceled) {
		return domain.NewTransientStoreError(err)
	}
	return domain.NewInternalError(err, "something went wrong, please try again later")
}

// observe logs and records the outcome of a use case
func observe(useCase string, start time.Time, err error) {
	duration := time.Since(start)
	outcome := observability.OutcomeSuccess

	if err != nil {
		outcome = observability.OutcomeFailure
		kind := domain.KindOf(err)
		entry := log.WithFields(log.Fields{
			"useCase": useCase,
			"kind":    kind,
		}).WithError(err)
		switch kind {
		case domain.KindInternal:
			entry.Error("Use case failed")
		case domain.KindTransientStore:
			entry.Warn("Use case hit a transient store failure")
		default:
			entry.Debug("Use case rejected")
		}
	}

	observability.GetMetrics().RecordUseCase(useCase, outcome, duration)
}

// RegisterUser creates an account with an empty balance
func (p *TransactionProcessor) RegisterUser(ctx context.Context, username string, role entities.UserRole) (user *entities.User, err error) {
	defer func(start time.Time) { observe(UseCaseRegisterUser, start, err) }(time.Now())

	return execute(ctx, p, func(ctx context.Context, s *serviceSet) (*entities.User, error) {
		return s.users.Register(ctx, username, role)
	})
}

// BecomeStreamer upgrades a viewer and opens their streamer profile
func (p *TransactionProcessor) BecomeStreamer(ctx context.Context, userID int64) (user *entities.User, err error) {
	defer func(start time.Time) { observe(UseCaseBecomeStreamer, start, err) }(time.Now())

	return execute(ctx, p, func(ctx context.Context, s *serviceSet) (*entities.User, error) {
		return s.users.BecomeStreamer(ctx, userID)
	})
}

// SendGift debits the sender and credits points in one transaction
func (p *TransactionProcessor) SendGift(ctx context.Context, senderID, streamerID, giftID, quantity int64) (result *interfaces.GiftResult, err error) {
	defer func(start time.Time) { observe(UseCaseSendGift, start, err) }(time.Now())

	return execute(ctx, p, func(ctx context.Context, s *serviceSet) (*interfaces.GiftResult, error) {
		return s.gifts.SendGift(ctx, senderID, streamerID, giftID, quantity)
	})
}

// Recharge credits purchased coins once per idempotency key
func (p *TransactionProcessor) Recharge(ctx context.Context, request interfaces.RechargeRequest) (record *entities.RechargeRecord, err error) {
	defer func(start time.Time) { observe(UseCaseRecharge, start, err) }(time.Now())

	return execute(ctx, p, func(ctx context.Context, s *serviceSet) (*entities.RechargeRecord, error) {
		return s.recharges.Recharge(ctx, request)
	})
}

// PlayRoulette stakes points in a streamer's room for a coin draw
func (p *TransactionProcessor) PlayRoulette(ctx context.Context, viewerID, streamerID int64) (result *interfaces.RouletteResult, err error) {
	defer func(start time.Time) { observe(UseCasePlayRoulette, start, err) }(time.Now())

	return execute(ctx, p, func(ctx context.Context, s *serviceSet) (*interfaces.RouletteResult, error) {
		return s.roulette.Play(ctx, viewerID, streamerID)
	})
}

// RouletteStake is the point cost of one spin
func (p *TransactionProcessor) RouletteStake() int64 {
	return p.cfg.RouletteStake
}

// RecordChatMessage accrues the engagement increment for one chat message
func (p *TransactionProcessor) RecordChatMessage(ctx context.Context, viewerID, streamerID int64, text string) (result *interfaces.ProgressResult, err error) {
	defer func(start time.Time) { observe(UseCaseRecordChatMessage, start, err) }(time.Now())

	return execute(ctx, p, func(ctx context.Context, s *serviceSet) (*interfaces.ProgressResult, error) {
		return s.engagement.RecordChatMessage(ctx, viewerID, streamerID, text)
	})
}

// RecordSession adds a finished broadcast to the streamer's airtime
func (p *TransactionProcessor) RecordSession(ctx context.Context, streamerID, elapsedMinutes int64) (result *interfaces.AirtimeResult, err error) {
	defer func(start time.Time) { observe(UseCaseRecordSession, start, err) }(time.Now())

	return execute(ctx, p, func(ctx context.Context, s *serviceSet) (*interfaces.AirtimeResult, error) {
		return s.airtime.RecordSession(ctx, streamerID, elapsedMinutes)
	})
}

// CreateViewerTier adds a tier to the actor's catalog and re-evaluates the
// audience before returning
func (p *TransactionProcessor) CreateViewerTier(ctx context.Context, actorID int64, rank int, name string, threshold int64) (tier *entities.ViewerTier, err error) {
	defer func(start time.Time) { observe(UseCaseCreateViewerTier, start, err) }(time.Now())

	tier, err = execute(ctx, p, func(ctx context.Context, s *serviceSet) (*entities.ViewerTier, error) {
		return s.catalog.CreateTier(ctx, actorID, rank, name, threshold)
	})
	if err != nil {
		return nil, err
	}

	if _, err := p.cascade(ctx, tier.StreamerID); err != nil {
		return nil, err
	}
	return tier, nil
}

// UpdateViewerTier edits or deactivates a tier and re-evaluates the audience
// before returning
func (p *TransactionProcessor) UpdateViewerTier(ctx context.Context, actorID, tierID int64, update interfaces.TierUpdate) (tier *entities.ViewerTier, err error) {
	defer func(start time.Time) { observe(UseCaseUpdateViewerTier, start, err) }(time.Now())

	tier, err = execute(ctx, p, func(ctx context.Context, s *serviceSet) (*entities.ViewerTier, error) {
		return s.catalog.UpdateTier(ctx, actorID, tierID, update)
	})
	if err != nil {
		return nil, err
	}

	if _, err := p.cascade(ctx, tier.StreamerID); err != nil {
		return nil, err
	}
	return tier, nil
}

// RecalculateAudience re-evaluates every progress row of a streamer against
// the current catalog
func (p *TransactionProcessor) RecalculateAudience(ctx context.Context, streamerID int64) (result *CascadeResult, err error) {
	defer func(start time.Time) { observe(UseCaseRecalculateAudience, start, err) }(time.Now())

	return p.cascade(ctx, streamerID)
}

// cascade walks the audience in keyset pages, one unit of work per page, so
// a large room never holds a single long transaction
func (p *TransactionProcessor) cascade(ctx context.Context, streamerID int64) (*CascadeResult, error) {
	result := &CascadeResult{StreamerID: streamerID}
	afterViewerID := int64(0)

	for {
		if err := ctx.Err(); err != nil {
			return nil, classifyError(err)
		}

		page, err := execute(ctx, p, func(ctx context.Context, s *serviceSet) (*interfaces.AudiencePage, error) {
			return s.progression.RecalculateAudience(ctx, streamerID, afterViewerID, p.cfg.CascadeBatchSize)
		})
		if err != nil {
			log.WithError(err).WithFields(log.Fields{
				"streamerID":    streamerID,
				"afterViewerID": afterViewerID,
				"batches":       result.Batches,
			}).Error("Audience recalculation stopped")
			return nil, err
		}

		result.Batches++
		result.Processed += page.Processed
		result.Changed += page.Changed
		afterViewerID = page.NextViewerID

		if page.Done {
			break
		}
	}

	log.WithFields(log.Fields{
		"streamerID": streamerID,
		"batches":    result.Batches,
		"processed":  result.Processed,
		"changed":    result.Changed,
	}).Info("Audience recalculated")

	return result, nil
}

// StreamersWithStaleTiers returns streamers whose audience holds a tier that
// is missing or inactive in the current catalog
func (p *TransactionProcessor) StreamersWithStaleTiers(ctx context.Context, limit int) ([]int64, error) {
	return execute(ctx, p, func(ctx context.Context, s *serviceSet) ([]int64, error) {
		return s.progress.ListStreamersWithStaleTiers(ctx, limit)
	})
}

// ListViewerTiers returns a streamer's full catalog, inactive tiers included
func (p *TransactionProcessor) ListViewerTiers(ctx context.Context, streamerID int64) ([]entities.ViewerTier, error) {
	return execute(ctx, p, func(ctx context.Context, s *serviceSet) ([]entities.ViewerTier, error) {
		return s.catalog.ListTiers(ctx, streamerID)
	})
}

// ListStreamerTiers returns the global streamer tier list
func (p *TransactionProcessor) ListStreamerTiers(ctx context.Context) ([]entities.StreamerTier, error) {
	return execute(ctx, p, func(ctx context.Context, s *serviceSet) ([]entities.StreamerTier, error) {
		return s.catalog.ListStreamerTiers(ctx)
	})
}

// CreateGift adds an entry to the actor's gift catalog
func (p *TransactionProcessor) CreateGift(ctx context.Context, actorID int64, name string, coinCost, pointsAwarded int64) (gift *entities.Gift, err error) {
	defer func(start time.Time) { observe(UseCaseCreateGift, start, err) }(time.Now())

	return execute(ctx, p, func(ctx context.Context, s *serviceSet) (*entities.Gift, error) {
		return s.gifts.CreateGift(ctx, actorID, name, coinCost, pointsAwarded)
	})
}

// UpdateGift edits an entry of the actor's gift catalog
func (p *TransactionProcessor) UpdateGift(ctx context.Context, actorID, giftID int64, update interfaces.GiftUpdate) (gift *entities.Gift, err error) {
	defer func(start time.Time) { observe(UseCaseUpdateGift, start, err) }(time.Now())

	return execute(ctx, p, func(ctx context.Context, s *serviceSet) (*entities.Gift, error) {
		return s.gifts.UpdateGift(ctx, actorID, giftID, update)
	})
}

// ListGifts returns a streamer's gift catalog
func (p *TransactionProcessor) ListGifts(ctx context.Context, streamerID int64, activeOnly bool) ([]*entities.Gift, error) {
	return execute(ctx, p, func(ctx context.Context, s *serviceSet) ([]*entities.Gift, error) {
		return s.gifts.ListGifts(ctx, streamerID, activeOnly)
	})
}

// ListNotifications returns a user's notifications, newest first
func (p *TransactionProcessor) ListNotifications(ctx context.Context, userID int64, unreadOnly bool, limit int) ([]*entities.Notification, error) {
	return execute(ctx, p, func(ctx context.Context, s *serviceSet) ([]*entities.Notification, error) {
		return s.notifications.List(ctx, userID, unreadOnly, limit)
	})
}

// UnreadCount returns how many notifications the user has not read
func (p *TransactionProcessor) UnreadCount(ctx context.Context, userID int64) (int64, error) {
	return execute(ctx, p, func(ctx context.Context, s *serviceSet) (int64, error) {
		return s.notifications.UnreadCount(ctx, userID)
	})
}

// MarkNotificationRead flips the read flag of one of the user's notifications
func (p *TransactionProcessor) MarkNotificationRead(ctx context.Context, userID, notificationID int64) (err error) {
	defer func(start time.Time) { observe(UseCaseMarkNotificationRead, start, err) }(time.Now())

	_, err = execute(ctx, p, func(ctx context.Context, s *serviceSet) (struct{}, error) {
		return struct{}{}, s.notifications.MarkRead(ctx, userID, notificationID)
	})
	return err
}

// MarkAllNotificationsRead flips every unread notification of the user
func (p *TransactionProcessor) MarkAllNotificationsRead(ctx context.Context, userID int64) (changed int64, err error) {
	defer func(start time.Time) { observe(UseCaseMarkAllRead, start, err) }(time.Now())

	return execute(ctx, p, func(ctx context.Context, s *serviceSet) (int64, error) {
		return s.notifications.MarkAllRead(ctx, userID)
	})
}

// GetUser returns an account by id
func (p *TransactionProcessor) GetUser(ctx context.Context, userID int64) (*entities.User, error) {
	return execute(ctx, p, func(ctx context.Context, s *serviceSet) (*entities.User, error) {
		return s.users.GetUser(ctx, userID)
	})
}

// GetBalance returns a user's coin balance
func (p *TransactionProcessor) GetBalance(ctx context.Context, userID int64) (*entities.ViewerBalance, error) {
	return execute(ctx, p, func(ctx context.Context, s *serviceSet) (*entities.ViewerBalance, error) {
		return s.queries.GetBalance(ctx, userID)
	})
}

// GetProgress returns a viewer's points and tier in a streamer's room
func (p *TransactionProcessor) GetProgress(ctx context.Context, viewerID, streamerID int64) (*interfaces.ProgressView, error) {
	return execute(ctx, p, func(ctx context.Context, s *serviceSet) (*interfaces.ProgressView, error) {
		return s.queries.GetProgress(ctx, viewerID, streamerID)
	})
}

// GetStreamerProfile returns a streamer's airtime and tier
func (p *TransactionProcessor) GetStreamerProfile(ctx context.Context, streamerID int64) (*interfaces.StreamerView, error) {
	return execute(ctx, p, func(ctx context.Context, s *serviceSet) (*interfaces.StreamerView, error) {
		return s.queries.GetStreamerProfile(ctx, streamerID)
	})
}

// GetBalanceHistory returns a user's coin ledger, newest first
func (p *TransactionProcessor) GetBalanceHistory(ctx context.Context, userID int64, limit int) ([]*entities.BalanceHistory, error) {
	return execute(ctx, p, func(ctx context.Context, s *serviceSet) ([]*entities.BalanceHistory, error) {
		return s.queries.GetBalanceHistory(ctx, userID, limit)
	})
}

// GetWagerHistory returns a viewer's roulette spins, newest first
func (p *TransactionProcessor) GetWagerHistory(ctx context.Context, viewerID int64, limit int) ([]*entities.WagerRecord, error) {
	return execute(ctx, p, func(ctx context.Context, s *serviceSet) ([]*entities.WagerRecord, error) {
		return s.queries.GetWagerHistory(ctx, viewerID, limit)
	})
}
