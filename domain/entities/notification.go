package entities

import "time"

// NotificationType enumerates the kinds of user notifications
type NotificationType string

const (
	NotificationTypeLevelUpViewer   NotificationType = "LEVEL_UP_VIEWER"
	NotificationTypeLevelUpStreamer NotificationType = "LEVEL_UP_STREAMER"
	NotificationTypeGiftReceived    NotificationType = "GIFT_RECEIVED"
	NotificationTypeCoinsRecharged  NotificationType = "COINS_RECHARGED"
	NotificationTypeRouletteWon     NotificationType = "ROULETTE_WON"
)

// Notification is an append-only message addressed to one user. Only the
// read flag ever changes.
type Notification struct {
	ID        int64            `db:"id"`
	UserID    int64            `db:"user_id"`
	Type      NotificationType `db:"type"`
	Message   string           `db:"message"`
	Payload   map[string]any   `db:"payload"`
	IsRead    bool             `db:"is_read"`
	CreatedAt time.Time        `db:"created_at"`
}
