package interfaces

import (
	"context"

	"streameconomy/domain/entities"
)

// TierChange describes the outcome of a tier recalculation that wrote a new tier
type TierChange struct {
	OldTierID *int64
	NewTier   entities.Tier
	Promoted  bool
}

// ProgressResult is a viewer's progress after a point mutation
type ProgressResult struct {
	Progress   *entities.ViewerProgress
	TierChange *TierChange
}

// AirtimeResult is a streamer's profile after an airtime mutation
type AirtimeResult struct {
	Profile    *entities.StreamerProfile
	TierChange *TierChange
}

// AudiencePage is one batch of a tier catalog cascade
type AudiencePage struct {
	Processed    int
	Changed      int
	NextViewerID int64
	Done         bool
}

// ProgressionService drives tier recalculation after point or minute changes
type ProgressionService interface {
	// AddViewerPoints credits points to the (viewer, streamer) row, creating it
	// against the baseline tier if absent, then recalculates its tier
	AddViewerPoints(ctx context.Context, viewerID, streamerID int64, delta int64) (*ProgressResult, error)

	// RecalculateViewerTier re-evaluates one progress row against the
	// streamer's active tiers
	RecalculateViewerTier(ctx context.Context, viewerID, streamerID int64) (*TierChange, error)

	// AddStreamerMinutes credits airtime and recalculates the streamer tier
	AddStreamerMinutes(ctx context.Context, streamerID int64, minutes int64) (*AirtimeResult, error)

	// RecalculateAudience re-evaluates one page of a streamer's progress rows
	RecalculateAudience(ctx context.Context, streamerID int64, afterViewerID int64, limit int) (*AudiencePage, error)

	// BaselineViewerTierID returns the lowest active tier of a streamer, or nil
	BaselineViewerTierID(ctx context.Context, streamerID int64) (*int64, error)
}

// NotificationService persists notifications and publishes them for delivery
type NotificationService interface {
	// Emit persists a notification and queues its real-time event
	Emit(ctx context.Context, userID int64, notificationType entities.NotificationType, message string, payload map[string]any) (*entities.Notification, error)

	// List returns a user's notifications, newest first
	List(ctx context.Context, userID int64, unreadOnly bool, limit int) ([]*entities.Notification, error)

	// MarkRead flips the read flag on one of the user's notifications
	MarkRead(ctx context.Context, userID, notificationID int64) error

	// MarkAllRead flips every unread notification and returns how many changed
	MarkAllRead(ctx context.Context, userID int64) (int64, error)

	// UnreadCount returns the number of unread notifications
	UnreadCount(ctx context.Context, userID int64) (int64, error)
}

// GiftResult is the outcome of a gift send
type GiftResult struct {
	Gift         *entities.Gift
	Quantity     int64
	CoinsSpent   int64
	PointsEarned int64
	BalanceAfter int64
	Progress     *entities.ViewerProgress
	TierChange   *TierChange
}

// GiftUpdate carries optional changes to a catalog entry
type GiftUpdate struct {
	Name          *string
	CoinCost      *int64
	PointsAwarded *int64
	Active        *bool
}

// GiftService handles gift sends and gift catalog management
type GiftService interface {
	// SendGift debits the sender and credits points in the streamer's room as one unit
	SendGift(ctx context.Context, senderID, streamerID, giftID int64, quantity int64) (*GiftResult, error)

	// CreateGift adds an entry to the actor's catalog
	CreateGift(ctx context.Context, actorID int64, name string, coinCost, pointsAwarded int64) (*entities.Gift, error)

	// UpdateGift edits an entry the actor owns
	UpdateGift(ctx context.Context, actorID, giftID int64, update GiftUpdate) (*entities.Gift, error)

	// ListGifts returns a streamer's catalog
	ListGifts(ctx context.Context, streamerID int64, activeOnly bool) ([]*entities.Gift, error)
}

// RechargeRequest is a coin purchase from an external payment rail
type RechargeRequest struct {
	ViewerID       int64
	Amount         int64
	Currency       string
	PaymentRail    string
	IdempotencyKey string
}

// RechargeService credits purchased coins exactly once per idempotency key
type RechargeService interface {
	Recharge(ctx context.Context, request RechargeRequest) (*entities.RechargeRecord, error)
}

// RouletteResult is the outcome of one spin
type RouletteResult struct {
	Record       *entities.WagerRecord
	Sector       entities.RouletteSector
	BalanceAfter int64
	PointsAfter  int64
}

// RouletteService trades a fixed point stake for a weighted coin draw
type RouletteService interface {
	Play(ctx context.Context, viewerID, streamerID int64) (*RouletteResult, error)

	// Stake is the point cost of one spin
	Stake() int64
}

// EngagementService accrues points for chat activity
type EngagementService interface {
	RecordChatMessage(ctx context.Context, viewerID, streamerID int64, text string) (*ProgressResult, error)
}

// AirtimeService accrues streamer airtime from completed sessions
type AirtimeService interface {
	RecordSession(ctx context.Context, streamerID int64, elapsedMinutes int64) (*AirtimeResult, error)
}

// TierUpdate carries optional changes to a viewer tier
type TierUpdate struct {
	Name      *string
	Threshold *int64
	Active    *bool
}

// TierCatalogService manages a streamer's viewer tiers. Callers must run the
// audience cascade after any change that alters thresholds or membership.
type TierCatalogService interface {
	ListTiers(ctx context.Context, streamerID int64) ([]entities.ViewerTier, error)
	CreateTier(ctx context.Context, actorID int64, rank int, name string, threshold int64) (*entities.ViewerTier, error)
	UpdateTier(ctx context.Context, actorID, tierID int64, update TierUpdate) (*entities.ViewerTier, error)
	ListStreamerTiers(ctx context.Context) ([]entities.StreamerTier, error)
}

// UserService handles registration and role changes
type UserService interface {
	Register(ctx context.Context, username string, role entities.UserRole) (*entities.User, error)
	BecomeStreamer(ctx context.Context, userID int64) (*entities.User, error)
	GetUser(ctx context.Context, userID int64) (*entities.User, error)
}

// ProgressView is a progress row with its resolved tier
type ProgressView struct {
	Progress *entities.ViewerProgress
	Tier     *entities.ViewerTier
}

// StreamerView is a streamer profile with its resolved tier
type StreamerView struct {
	Profile *entities.StreamerProfile
	Tier    *entities.StreamerTier
}

// QueryService answers read-only questions about balances and progression
type QueryService interface {
	GetBalance(ctx context.Context, userID int64) (*entities.ViewerBalance, error)
	GetProgress(ctx context.Context, viewerID, streamerID int64) (*ProgressView, error)
	GetStreamerProfile(ctx context.Context, streamerID int64) (*StreamerView, error)
	GetBalanceHistory(ctx context.Context, userID int64, limit int) ([]*entities.BalanceHistory, error)
	GetWagerHistory(ctx context.Context, viewerID int64, limit int) ([]*entities.WagerRecord, error)
}
