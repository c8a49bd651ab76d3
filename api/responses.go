package api

import (
	"fmt"
	"time"

	"streameconomy/domain/entities"
	"streameconomy/domain/interfaces"

	"github.com/jinzhu/copier"
)

// UserResponse is the public view of an account
type UserResponse struct {
	ID        int64               `json:"id"`
	Username  string              `json:"username"`
	Role      entities.UserRole   `json:"role"`
	Status    entities.UserStatus `json:"status"`
	CreatedAt time.Time           `json:"createdAt"`
}

// BalanceResponse is a coin balance
type BalanceResponse struct {
	UserID    int64     `json:"userId"`
	Balance   int64     `json:"balance"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// BalanceHistoryResponse is one ledger entry
type BalanceHistoryResponse struct {
	ID                  int64                    `json:"id"`
	BalanceBefore       int64                    `json:"balanceBefore"`
	BalanceAfter        int64                    `json:"balanceAfter"`
	ChangeAmount        int64                    `json:"changeAmount"`
	TransactionType     entities.TransactionType `json:"transactionType"`
	TransactionMetadata map[string]any           `json:"metadata,omitempty"`
	CreatedAt           time.Time                `json:"createdAt"`
}

// RechargeResponse is a completed coin purchase
type RechargeResponse struct {
	ID             int64     `json:"id"`
	Amount         int64     `json:"amount"`
	Currency       string    `json:"currency"`
	PaymentRail    string    `json:"paymentRail"`
	IdempotencyKey string    `json:"idempotencyKey"`
	ReceiptCode    string    `json:"receiptCode"`
	BalanceAfter   int64     `json:"balanceAfter"`
	CreatedAt      time.Time `json:"createdAt"`
}

// ViewerTierResponse is one tier of a streamer's catalog
type ViewerTierResponse struct {
	ID         int64  `json:"id"`
	StreamerID int64  `json:"streamerId"`
	Rank       int    `json:"rank"`
	Name       string `json:"name"`
	Threshold  int64  `json:"threshold"`
	Active     bool   `json:"active"`
}

// StreamerTierResponse is one tier of the global streamer list
type StreamerTierResponse struct {
	ID               int64  `json:"id"`
	Rank             int    `json:"rank"`
	Name             string `json:"name"`
	ThresholdMinutes int64  `json:"thresholdMinutes"`
}

// GiftResponse is a catalog gift
type GiftResponse struct {
	ID            int64  `json:"id"`
	StreamerID    int64  `json:"streamerId"`
	Name          string `json:"name"`
	CoinCost      int64  `json:"coinCost"`
	PointsAwarded int64  `json:"pointsAwarded"`
	Active        bool   `json:"active"`
}

// NotificationResponse is one stored notification
type NotificationResponse struct {
	ID        int64                     `json:"id"`
	Type      entities.NotificationType `json:"type"`
	Message   string                    `json:"message"`
	Payload   map[string]any            `json:"payload,omitempty"`
	IsRead    bool                      `json:"isRead"`
	CreatedAt time.Time                 `json:"createdAt"`
}

// WagerResponse is one roulette spin
type WagerResponse struct {
	ID              int64     `json:"id"`
	StreamerID      int64     `json:"streamerId"`
	StakePoints     int64     `json:"stakePoints"`
	SectorIndex     int       `json:"sectorIndex"`
	CoinsWon        int64     `json:"coinsWon"`
	BalanceAfter    int64     `json:"balanceAfter"`
	PointsAfter     int64     `json:"pointsAfter"`
	CorrelationCode string    `json:"correlationCode"`
	CreatedAt       time.Time `json:"createdAt"`
}

// ProgressResponse is a viewer's standing in one room
type ProgressResponse struct {
	ViewerID   int64               `json:"viewerId"`
	StreamerID int64               `json:"streamerId"`
	Points     int64               `json:"points"`
	Tier       *ViewerTierResponse `json:"tier"`
	LeveledUp  bool                `json:"leveledUp,omitempty"`
}

// StreamerProfileResponse is a streamer's airtime standing
type StreamerProfileResponse struct {
	StreamerID     int64                 `json:"streamerId"`
	AirtimeMinutes int64                 `json:"airtimeMinutes"`
	Tier           *StreamerTierResponse `json:"tier"`
	LeveledUp      bool                  `json:"leveledUp,omitempty"`
}

// GiftSendResponse is the outcome of a gift send
type GiftSendResponse struct {
	Gift         GiftResponse      `json:"gift"`
	Quantity     int64             `json:"quantity"`
	CoinsSpent   int64             `json:"coinsSpent"`
	PointsEarned int64             `json:"pointsEarned"`
	BalanceAfter int64             `json:"balanceAfter"`
	Progress     *ProgressResponse `json:"progress,omitempty"`
}

// RouletteResponse is the outcome of one spin
type RouletteResponse struct {
	Wager        WagerResponse `json:"wager"`
	BalanceAfter int64         `json:"balanceAfter"`
	PointsAfter  int64         `json:"pointsAfter"`
}

// UnreadCountResponse is the number of unread notifications
type UnreadCountResponse struct {
	Unread int64 `json:"unread"`
}

// MarkAllReadResponse is the number of notifications flipped to read
type MarkAllReadResponse struct {
	Updated int64 `json:"updated"`
}

// copyInto maps an entity onto its response type by field name
func copyInto[T any](src any) (T, error) {
	var dst T
	if err := copier.Copy(&dst, src); err != nil {
		return dst, fmt.Errorf("failed to map %T: %w", src, err)
	}
	return dst, nil
}

// copyList maps a slice of entities, returning an empty list rather than nil
func copyList[T any](src any) ([]T, error) {
	dst := []T{}
	if err := copier.Copy(&dst, src); err != nil {
		return nil, fmt.Errorf("failed to map %T: %w", src, err)
	}
	return dst, nil
}

func newProgressResponse(progress *entities.ViewerProgress, tier *entities.ViewerTier, change *interfaces.TierChange) (*ProgressResponse, error) {
	if progress == nil {
		return nil, nil
	}

	response := &ProgressResponse{
		ViewerID:   progress.ViewerID,
		StreamerID: progress.StreamerID,
		Points:     progress.Points,
		LeveledUp:  change != nil && change.Promoted,
	}
	if tier == nil && change != nil {
		if resolved, ok := change.NewTier.(entities.ViewerTier); ok {
			tier = &resolved
		}
	}
	if tier != nil {
		tierResponse, err := copyInto[ViewerTierResponse](tier)
		if err != nil {
			return nil, err
		}
		response.Tier = &tierResponse
	}
	return response, nil
}

func newStreamerProfileResponse(profile *entities.StreamerProfile, tier *entities.StreamerTier, change *interfaces.TierChange) (*StreamerProfileResponse, error) {
	response := &StreamerProfileResponse{
		StreamerID:     profile.UserID,
		AirtimeMinutes: profile.AirtimeMinutes,
		LeveledUp:      change != nil && change.Promoted,
	}
	if tier == nil && change != nil {
		if resolved, ok := change.NewTier.(entities.StreamerTier); ok {
			tier = &resolved
		}
	}
	if tier != nil {
		tierResponse, err := copyInto[StreamerTierResponse](tier)
		if err != nil {
			return nil, err
		}
		response.Tier = &tierResponse
	}
	return response, nil
}
