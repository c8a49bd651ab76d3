package dto

import (
	"strconv"
	"time"
)

// Real-time message types
const (
	MessageTypeGiftReceived    = "GIFT_RECEIVED"
	MessageTypeLevelUpViewer   = "LEVEL_UP_VIEWER"
	MessageTypeLevelUpStreamer = "LEVEL_UP_STREAMER"
	MessageTypeNotification    = "NOTIFICATION"
)

// Channel name prefixes
const (
	RoomChannelPrefix = "room:streamer:"
	UserChannelPrefix = "user:"
)

// RoomChannel is the shared channel of a streamer's audience
func RoomChannel(streamerID int64) string {
	return RoomChannelPrefix + strconv.FormatInt(streamerID, 10)
}

// UserChannel is the personal channel of one user
func UserChannel(userID int64) string {
	return UserChannelPrefix + strconv.FormatInt(userID, 10)
}

// RealtimeMessage is the JSON frame pushed to real-time channels
type RealtimeMessage struct {
	Type    string    `json:"type"`
	Channel string    `json:"channel"`
	SentAt  time.Time `json:"sentAt"`
	Data    any       `json:"data"`
}

// GiftReceivedData is the room payload of a gift send
type GiftReceivedData struct {
	SenderID       int64  `json:"senderId"`
	SenderUsername string `json:"senderUsername"`
	GiftID         int64  `json:"giftId"`
	GiftName       string `json:"giftName"`
	Quantity       int64  `json:"quantity"`
	CoinsSpent     int64  `json:"coinsSpent"`
}

// LevelUpData is the room payload of a viewer or streamer promotion
type LevelUpData struct {
	UserID   int64  `json:"userId"`
	TierID   int64  `json:"tierId"`
	TierName string `json:"tierName"`
	TierRank int    `json:"tierRank"`
	Total    int64  `json:"total"`
}

// NotificationData is the personal payload of a persisted notification
type NotificationData struct {
	NotificationID int64          `json:"notificationId"`
	Kind           string         `json:"kind"`
	Message        string         `json:"message"`
	Payload        map[string]any `json:"payload,omitempty"`
}
