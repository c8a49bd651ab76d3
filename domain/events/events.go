package events

import "streameconomy/domain/entities"

// EventType represents different types of events in the system
type EventType string

const (
	EventTypeBalanceChange       EventType = "balance_change"
	EventTypeUserRegistered      EventType = "user_registered"
	EventTypeGiftSent            EventType = "gift_sent"
	EventTypeCoinsRecharged      EventType = "coins_recharged"
	EventTypeRoulettePlayed      EventType = "roulette_played"
	EventTypeViewerLevelUp       EventType = "viewer_level_up"
	EventTypeStreamerLevelUp     EventType = "streamer_level_up"
	EventTypeNotificationCreated EventType = "notification_created"
	EventTypeTierCatalogChanged  EventType = "tier_catalog_changed"
)

// Event is the base interface for all events
type Event interface {
	Type() EventType
}

// BalanceChangeEvent represents a coin balance change that occurred
type BalanceChangeEvent struct {
	UserID          int64
	OldBalance      int64
	NewBalance      int64
	TransactionType entities.TransactionType
	ChangeAmount    int64
}

func (e BalanceChangeEvent) Type() EventType {
	return EventTypeBalanceChange
}

// UserRegisteredEvent is emitted once per new account
type UserRegisteredEvent struct {
	UserID   int64
	Username string
	Role     entities.UserRole
}

func (e UserRegisteredEvent) Type() EventType {
	return EventTypeUserRegistered
}

// GiftSentEvent is broadcast to the streamer's room on every gift send
type GiftSentEvent struct {
	SenderID       int64
	SenderUsername string
	StreamerID     int64
	GiftID         int64
	GiftName       string
	Quantity       int64
	CoinsSpent     int64
	PointsAwarded  int64
}

func (e GiftSentEvent) Type() EventType {
	return EventTypeGiftSent
}

// CoinsRechargedEvent records a completed coin purchase
type CoinsRechargedEvent struct {
	ViewerID     int64
	Amount       int64
	ReceiptCode  string
	BalanceAfter int64
}

func (e CoinsRechargedEvent) Type() EventType {
	return EventTypeCoinsRecharged
}

// RoulettePlayedEvent records one roulette spin
type RoulettePlayedEvent struct {
	ViewerID     int64
	StreamerID   int64
	StakePoints  int64
	SectorIndex  int
	CoinsWon     int64
	BalanceAfter int64
}

func (e RoulettePlayedEvent) Type() EventType {
	return EventTypeRoulettePlayed
}

// ViewerLevelUpEvent is emitted when a viewer is promoted in a streamer's room
type ViewerLevelUpEvent struct {
	ViewerID    int64
	StreamerID  int64
	Points      int64
	OldTierID   *int64
	NewTierID   int64
	NewTierName string
	NewTierRank int
}

func (e ViewerLevelUpEvent) Type() EventType {
	return EventTypeViewerLevelUp
}

// StreamerLevelUpEvent is emitted when a streamer reaches a new airtime tier
type StreamerLevelUpEvent struct {
	StreamerID     int64
	AirtimeMinutes int64
	OldTierID      *int64
	NewTierID      int64
	NewTierName    string
	NewTierRank    int
}

func (e StreamerLevelUpEvent) Type() EventType {
	return EventTypeStreamerLevelUp
}

// NotificationCreatedEvent carries a persisted notification to the owner's
// personal channel.
type NotificationCreatedEvent struct {
	NotificationID int64
	UserID         int64
	Kind           entities.NotificationType
	Message        string
	Payload        map[string]any
}

func (e NotificationCreatedEvent) Type() EventType {
	return EventTypeNotificationCreated
}

// TierCatalogChangedEvent is emitted after a streamer edits viewer tiers
type TierCatalogChangedEvent struct {
	StreamerID int64
	TierID     int64
}

func (e TierCatalogChangedEvent) Type() EventType {
	return EventTypeTierCatalogChanged
}
