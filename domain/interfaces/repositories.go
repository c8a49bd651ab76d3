package interfaces

import (
	"context"
	"errors"

	"streameconomy/domain/entities"
)

// Sentinel errors returned by guarded store operations
var (
	// ErrInsufficientBalance is returned when a guarded debit finds too few coins
	ErrInsufficientBalance = errors.New("insufficient balance")
	// ErrInsufficientPoints is returned when a guarded point debit finds too few points
	ErrInsufficientPoints = errors.New("insufficient points")
	// ErrDuplicateUsername is returned when a username is already taken
	ErrDuplicateUsername = errors.New("username already taken")
	// ErrDuplicateIdempotencyKey is returned when a recharge key was already used
	ErrDuplicateIdempotencyKey = errors.New("idempotency key already used")
	// ErrDuplicateTierRank is returned when a streamer already has a tier at that rank
	ErrDuplicateTierRank = errors.New("tier rank already defined")
)

// UserRepository defines the interface for user data access
type UserRepository interface {
	// GetByID retrieves a user, returning nil when absent
	GetByID(ctx context.Context, id int64) (*entities.User, error)

	// Create registers a new user
	Create(ctx context.Context, username string, role entities.UserRole) (*entities.User, error)

	// UpdateRole changes a user's role
	UpdateRole(ctx context.Context, id int64, role entities.UserRole) error
}

// BalanceRepository is the Balance Store. Every mutation is a single
// server-side increment or guarded decrement.
type BalanceRepository interface {
	// GetOrInitialize returns the balance row, creating it at zero if absent
	GetOrInitialize(ctx context.Context, userID int64) (*entities.ViewerBalance, error)

	// Get returns the balance row or nil
	Get(ctx context.Context, userID int64) (*entities.ViewerBalance, error)

	// Credit adds amount and returns the new balance
	Credit(ctx context.Context, userID int64, amount int64) (int64, error)

	// Debit removes amount only if the balance covers it and returns the new
	// balance, or ErrInsufficientBalance
	Debit(ctx context.Context, userID int64, amount int64) (int64, error)
}

// ProgressRepository is the Progress Store for (viewer, streamer) pairs
type ProgressRepository interface {
	// GetOrInitialize returns the progress row, creating it with baselineTierID if absent
	GetOrInitialize(ctx context.Context, viewerID, streamerID int64, baselineTierID *int64) (*entities.ViewerProgress, error)

	// Get returns the progress row or nil
	Get(ctx context.Context, viewerID, streamerID int64) (*entities.ViewerProgress, error)

	// AddPoints increments the point total and returns the updated row
	AddPoints(ctx context.Context, viewerID, streamerID int64, delta int64) (*entities.ViewerProgress, error)

	// DeductPoints decrements only if the total covers delta, or returns ErrInsufficientPoints
	DeductPoints(ctx context.Context, viewerID, streamerID int64, delta int64) (*entities.ViewerProgress, error)

	// CompareAndSwapTier writes newTierID only if the row still holds
	// expectedPoints and expectedTierID. It reports whether the swap happened.
	CompareAndSwapTier(ctx context.Context, viewerID, streamerID int64, expectedPoints int64, expectedTierID *int64, newTierID int64) (bool, error)

	// ListByStreamer pages through a streamer's audience ordered by viewer id
	ListByStreamer(ctx context.Context, streamerID int64, afterViewerID int64, limit int) ([]*entities.ViewerProgress, error)

	// ListStreamersWithStaleTiers returns streamers having rows whose tier
	// reference is missing or inactive while active tiers exist
	ListStreamersWithStaleTiers(ctx context.Context, limit int) ([]int64, error)
}

// ViewerTierRepository holds per-streamer tier catalogs
type ViewerTierRepository interface {
	// ListActiveByStreamer returns active tiers sorted by rank
	ListActiveByStreamer(ctx context.Context, streamerID int64) ([]entities.ViewerTier, error)

	// ListByStreamer returns every tier, active or not, sorted by rank
	ListByStreamer(ctx context.Context, streamerID int64) ([]entities.ViewerTier, error)

	// GetByID returns a tier or nil
	GetByID(ctx context.Context, id int64) (*entities.ViewerTier, error)

	// Create inserts a tier, returning ErrDuplicateTierRank on a rank clash
	Create(ctx context.Context, tier *entities.ViewerTier) error

	// Update persists name, threshold and active flag
	Update(ctx context.Context, tier *entities.ViewerTier) error

	// LockCatalog serializes catalog edits of a streamer until the
	// surrounding transaction ends
	LockCatalog(ctx context.Context, streamerID int64) error
}

// StreamerTierRepository holds the global streamer tier list
type StreamerTierRepository interface {
	// ListAll returns every streamer tier sorted by rank
	ListAll(ctx context.Context) ([]entities.StreamerTier, error)
}

// StreamerProfileRepository tracks streamer airtime
type StreamerProfileRepository interface {
	// GetOrInitialize returns the profile, creating it with baselineTierID if absent
	GetOrInitialize(ctx context.Context, userID int64, baselineTierID *int64) (*entities.StreamerProfile, error)

	// Get returns the profile or nil
	Get(ctx context.Context, userID int64) (*entities.StreamerProfile, error)

	// AddMinutes increments cumulative airtime and returns the updated profile
	AddMinutes(ctx context.Context, userID int64, minutes int64) (*entities.StreamerProfile, error)

	// CompareAndSwapTier writes newTierID only if the row still holds
	// expectedMinutes and expectedTierID
	CompareAndSwapTier(ctx context.Context, userID int64, expectedMinutes int64, expectedTierID *int64, newTierID int64) (bool, error)
}

// GiftRepository holds streamer gift catalogs
type GiftRepository interface {
	GetByID(ctx context.Context, id int64) (*entities.Gift, error)
	ListByStreamer(ctx context.Context, streamerID int64, activeOnly bool) ([]*entities.Gift, error)
	Create(ctx context.Context, gift *entities.Gift) error
	Update(ctx context.Context, gift *entities.Gift) error
}

// NotificationRepository persists user notifications
type NotificationRepository interface {
	// Create inserts a notification and fills its ID and CreatedAt
	Create(ctx context.Context, notification *entities.Notification) error

	// ListByUser returns newest first
	ListByUser(ctx context.Context, userID int64, unreadOnly bool, limit int) ([]*entities.Notification, error)

	// MarkRead flips the read flag of one of userID's notifications and
	// reports whether a row matched
	MarkRead(ctx context.Context, userID, notificationID int64) (bool, error)

	// MarkAllRead flips every unread notification and returns the count
	MarkAllRead(ctx context.Context, userID int64) (int64, error)

	// CountUnread returns the number of unread notifications
	CountUnread(ctx context.Context, userID int64) (int64, error)
}

// RechargeRepository stores coin purchases
type RechargeRepository interface {
	// Create inserts the record, returning ErrDuplicateIdempotencyKey on reuse
	Create(ctx context.Context, record *entities.RechargeRecord) error

	// GetByIdempotencyKey returns the record or nil
	GetByIdempotencyKey(ctx context.Context, key string) (*entities.RechargeRecord, error)
}

// WagerRecordRepository stores roulette spins
type WagerRecordRepository interface {
	Create(ctx context.Context, record *entities.WagerRecord) error
	ListByViewer(ctx context.Context, viewerID int64, limit int) ([]*entities.WagerRecord, error)
}

// BalanceHistoryRepository defines the interface for the coin ledger
type BalanceHistoryRepository interface {
	// Record creates a new balance history entry
	Record(ctx context.Context, history *entities.BalanceHistory) error

	// GetByUser returns balance history for a user, newest first
	GetByUser(ctx context.Context, userID int64, limit int) ([]*entities.BalanceHistory, error)
}
