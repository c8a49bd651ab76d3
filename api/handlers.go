package api

import (
	"context"
	"net/http"

	"streameconomy/application"
	"streameconomy/domain"
	"streameconomy/domain/entities"
	"streameconomy/domain/interfaces"
)

// HeaderIdempotencyKey may carry the recharge key instead of the body
const HeaderIdempotencyKey = "Idempotency-Key"

// Economy is the set of use cases the HTTP surface exposes
type Economy interface {
	RegisterUser(ctx context.Context, username string, role entities.UserRole) (*entities.User, error)
	BecomeStreamer(ctx context.Context, userID int64) (*entities.User, error)
	GetUser(ctx context.Context, userID int64) (*entities.User, error)

	SendGift(ctx context.Context, senderID, streamerID, giftID, quantity int64) (*interfaces.GiftResult, error)
	Recharge(ctx context.Context, request interfaces.RechargeRequest) (*entities.RechargeRecord, error)
	PlayRoulette(ctx context.Context, viewerID, streamerID int64) (*interfaces.RouletteResult, error)
	RecordChatMessage(ctx context.Context, viewerID, streamerID int64, text string) (*interfaces.ProgressResult, error)
	RecordSession(ctx context.Context, streamerID, elapsedMinutes int64) (*interfaces.AirtimeResult, error)

	CreateViewerTier(ctx context.Context, actorID int64, rank int, name string, threshold int64) (*entities.ViewerTier, error)
	UpdateViewerTier(ctx context.Context, actorID, tierID int64, update interfaces.TierUpdate) (*entities.ViewerTier, error)
	ListViewerTiers(ctx context.Context, streamerID int64) ([]entities.ViewerTier, error)
	ListStreamerTiers(ctx context.Context) ([]entities.StreamerTier, error)

	CreateGift(ctx context.Context, actorID int64, name string, coinCost, pointsAwarded int64) (*entities.Gift, error)
	UpdateGift(ctx context.Context, actorID, giftID int64, update interfaces.GiftUpdate) (*entities.Gift, error)
	ListGifts(ctx context.Context, streamerID int64, activeOnly bool) ([]*entities.Gift, error)

	ListNotifications(ctx context.Context, userID int64, unreadOnly bool, limit int) ([]*entities.Notification, error)
	UnreadCount(ctx context.Context, userID int64) (int64, error)
	MarkNotificationRead(ctx context.Context, userID, notificationID int64) error
	MarkAllNotificationsRead(ctx context.Context, userID int64) (int64, error)

	GetBalance(ctx context.Context, userID int64) (*entities.ViewerBalance, error)
	GetProgress(ctx context.Context, viewerID, streamerID int64) (*interfaces.ProgressView, error)
	GetStreamerProfile(ctx context.Context, streamerID int64) (*interfaces.StreamerView, error)
	GetBalanceHistory(ctx context.Context, userID int64, limit int) ([]*entities.BalanceHistory, error)
	GetWagerHistory(ctx context.Context, viewerID int64, limit int) ([]*entities.WagerRecord, error)
}

var _ Economy = (*application.TransactionProcessor)(nil)

// Handler serves the REST API
type Handler struct {
	economy Economy
}

// NewHandler creates a handler backed by economy
func NewHandler(economy Economy) *Handler {
	return &Handler{economy: economy}
}

// RegisterUser handles POST /users. It is the one route that needs no identity.
func (h *Handler) RegisterUser(w http.ResponseWriter, r *http.Request) {
	var req RegisterUserRequest
	if err := decodeRequest(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	role := entities.UserRole(req.Role)
	if role == "" {
		role = entities.UserRoleViewer
	}

	user, err := h.economy.RegisterUser(r.Context(), req.Username, role)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeMapped[UserResponse](w, r, http.StatusCreated, user)
}

// Me handles GET /me
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	identity := caller(r)
	user, err := h.economy.GetUser(r.Context(), identity.UserID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeMapped[UserResponse](w, r, http.StatusOK, user)
}

// BecomeStreamer handles POST /me/streamer
func (h *Handler) BecomeStreamer(w http.ResponseWriter, r *http.Request) {
	identity := caller(r)
	user, err := h.economy.BecomeStreamer(r.Context(), identity.UserID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeMapped[UserResponse](w, r, http.StatusOK, user)
}

// Balance handles GET /me/balance
func (h *Handler) Balance(w http.ResponseWriter, r *http.Request) {
	identity := caller(r)
	balance, err := h.economy.GetBalance(r.Context(), identity.UserID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeMapped[BalanceResponse](w, r, http.StatusOK, balance)
}

// BalanceHistory handles GET /me/balance/history
func (h *Handler) BalanceHistory(w http.ResponseWriter, r *http.Request) {
	identity := caller(r)
	limit, err := queryLimit(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	history, err := h.economy.GetBalanceHistory(r.Context(), identity.UserID, limit)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeMappedList[BalanceHistoryResponse](w, r, history)
}

// Recharge handles POST /me/recharges
func (h *Handler) Recharge(w http.ResponseWriter, r *http.Request) {
	identity := caller(r)
	var req RechargeRequest
	if err := decodeRequest(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if req.IdempotencyKey == "" {
		req.IdempotencyKey = r.Header.Get(HeaderIdempotencyKey)
	}
	if req.IdempotencyKey == "" {
		writeError(w, r, domain.NewValidationError("an idempotency key is required"))
		return
	}

	record, err := h.economy.Recharge(r.Context(), interfaces.RechargeRequest{
		ViewerID:       identity.UserID,
		Amount:         req.Amount,
		Currency:       req.Currency,
		PaymentRail:    req.PaymentRail,
		IdempotencyKey: req.IdempotencyKey,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeMapped[RechargeResponse](w, r, http.StatusCreated, record)
}

// Wagers handles GET /me/wagers
func (h *Handler) Wagers(w http.ResponseWriter, r *http.Request) {
	identity := caller(r)
	limit, err := queryLimit(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	records, err := h.economy.GetWagerHistory(r.Context(), identity.UserID, limit)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeMappedList[WagerResponse](w, r, records)
}

// Notifications handles GET /me/notifications
func (h *Handler) Notifications(w http.ResponseWriter, r *http.Request) {
	identity := caller(r)
	unreadOnly, err := queryBool(r, "unread")
	if err != nil {
		writeError(w, r, err)
		return
	}
	limit, err := queryLimit(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	notifications, err := h.economy.ListNotifications(r.Context(), identity.UserID, unreadOnly, limit)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeMappedList[NotificationResponse](w, r, notifications)
}

// UnreadCount handles GET /me/notifications/unread-count
func (h *Handler) UnreadCount(w http.ResponseWriter, r *http.Request) {
	identity := caller(r)
	count, err := h.economy.UnreadCount(r.Context(), identity.UserID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, UnreadCountResponse{Unread: count})
}

// MarkNotificationRead handles POST /me/notifications/{notificationID}/read
func (h *Handler) MarkNotificationRead(w http.ResponseWriter, r *http.Request) {
	identity := caller(r)
	notificationID, err := pathID(r, "notificationID")
	if err != nil {
		writeError(w, r, err)
		return
	}

	if err := h.economy.MarkNotificationRead(r.Context(), identity.UserID, notificationID); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// MarkAllNotificationsRead handles POST /me/notifications/read-all
func (h *Handler) MarkAllNotificationsRead(w http.ResponseWriter, r *http.Request) {
	identity := caller(r)
	updated, err := h.economy.MarkAllNotificationsRead(r.Context(), identity.UserID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, MarkAllReadResponse{Updated: updated})
}

// RecordSession handles POST /me/sessions for the calling streamer
func (h *Handler) RecordSession(w http.ResponseWriter, r *http.Request) {
	identity := caller(r)
	var req SessionRequest
	if err := decodeRequest(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	result, err := h.economy.RecordSession(r.Context(), identity.UserID, req.ElapsedMinutes)
	if err != nil {
		writeError(w, r, err)
		return
	}

	response, err := newStreamerProfileResponse(result.Profile, nil, result.TierChange)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, response)
}

// StreamerProfile handles GET /streamers/{streamerID}
func (h *Handler) StreamerProfile(w http.ResponseWriter, r *http.Request) {
	streamerID, err := pathID(r, "streamerID")
	if err != nil {
		writeError(w, r, err)
		return
	}

	view, err := h.economy.GetStreamerProfile(r.Context(), streamerID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	response, err := newStreamerProfileResponse(view.Profile, view.Tier, nil)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, response)
}

// StreamerViewerTiers handles GET /streamers/{streamerID}/tiers
func (h *Handler) StreamerViewerTiers(w http.ResponseWriter, r *http.Request) {
	streamerID, err := pathID(r, "streamerID")
	if err != nil {
		writeError(w, r, err)
		return
	}

	tiers, err := h.economy.ListViewerTiers(r.Context(), streamerID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeMappedList[ViewerTierResponse](w, r, tiers)
}

// StreamerGifts handles GET /streamers/{streamerID}/gifts. ?all=true includes
// retired gifts.
func (h *Handler) StreamerGifts(w http.ResponseWriter, r *http.Request) {
	streamerID, err := pathID(r, "streamerID")
	if err != nil {
		writeError(w, r, err)
		return
	}
	includeRetired, err := queryBool(r, "all")
	if err != nil {
		writeError(w, r, err)
		return
	}

	gifts, err := h.economy.ListGifts(r.Context(), streamerID, !includeRetired)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeMappedList[GiftResponse](w, r, gifts)
}

// Progress handles GET /streamers/{streamerID}/progress for the caller
func (h *Handler) Progress(w http.ResponseWriter, r *http.Request) {
	identity := caller(r)
	streamerID, err := pathID(r, "streamerID")
	if err != nil {
		writeError(w, r, err)
		return
	}

	view, err := h.economy.GetProgress(r.Context(), identity.UserID, streamerID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	response, err := newProgressResponse(view.Progress, view.Tier, nil)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if response == nil {
		response = &ProgressResponse{ViewerID: identity.UserID, StreamerID: streamerID}
	}
	writeJSON(w, http.StatusOK, response)
}

// SendGift handles POST /streamers/{streamerID}/gifts/send
func (h *Handler) SendGift(w http.ResponseWriter, r *http.Request) {
	identity := caller(r)
	streamerID, err := pathID(r, "streamerID")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req SendGiftRequest
	if err := decodeRequest(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if req.Quantity == 0 {
		req.Quantity = defaultGiftQuantity
	}

	result, err := h.economy.SendGift(r.Context(), identity.UserID, streamerID, req.GiftID, req.Quantity)
	if err != nil {
		writeError(w, r, err)
		return
	}

	gift, err := copyInto[GiftResponse](result.Gift)
	if err != nil {
		writeError(w, r, err)
		return
	}
	progress, err := newProgressResponse(result.Progress, nil, result.TierChange)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, GiftSendResponse{
		Gift:         gift,
		Quantity:     result.Quantity,
		CoinsSpent:   result.CoinsSpent,
		PointsEarned: result.PointsEarned,
		BalanceAfter: result.BalanceAfter,
		Progress:     progress,
	})
}

// PlayRoulette handles POST /streamers/{streamerID}/roulette
func (h *Handler) PlayRoulette(w http.ResponseWriter, r *http.Request) {
	identity := caller(r)
	streamerID, err := pathID(r, "streamerID")
	if err != nil {
		writeError(w, r, err)
		return
	}

	result, err := h.economy.PlayRoulette(r.Context(), identity.UserID, streamerID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	wager, err := copyInto[WagerResponse](result.Record)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, RouletteResponse{
		Wager:        wager,
		BalanceAfter: result.BalanceAfter,
		PointsAfter:  result.PointsAfter,
	})
}

// ChatMessage handles POST /streamers/{streamerID}/chat
func (h *Handler) ChatMessage(w http.ResponseWriter, r *http.Request) {
	identity := caller(r)
	streamerID, err := pathID(r, "streamerID")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req ChatMessageRequest
	if err := decodeRequest(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	result, err := h.economy.RecordChatMessage(r.Context(), identity.UserID, streamerID, req.Text)
	if err != nil {
		writeError(w, r, err)
		return
	}

	response, err := newProgressResponse(result.Progress, nil, result.TierChange)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, response)
}

// CreateViewerTier handles POST /tiers
func (h *Handler) CreateViewerTier(w http.ResponseWriter, r *http.Request) {
	identity := caller(r)
	var req CreateTierRequest
	if err := decodeRequest(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	tier, err := h.economy.CreateViewerTier(r.Context(), identity.UserID, *req.Rank, req.Name, req.Threshold)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeMapped[ViewerTierResponse](w, r, http.StatusCreated, tier)
}

// UpdateViewerTier handles PATCH /tiers/{tierID}
func (h *Handler) UpdateViewerTier(w http.ResponseWriter, r *http.Request) {
	identity := caller(r)
	tierID, err := pathID(r, "tierID")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req UpdateTierRequest
	if err := decodeRequest(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	tier, err := h.economy.UpdateViewerTier(r.Context(), identity.UserID, tierID, interfaces.TierUpdate{
		Name:      req.Name,
		Threshold: req.Threshold,
		Active:    req.Active,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeMapped[ViewerTierResponse](w, r, http.StatusOK, tier)
}

// StreamerTiers handles GET /streamer-tiers
func (h *Handler) StreamerTiers(w http.ResponseWriter, r *http.Request) {
	tiers, err := h.economy.ListStreamerTiers(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeMappedList[StreamerTierResponse](w, r, tiers)
}

// CreateGift handles POST /gifts
func (h *Handler) CreateGift(w http.ResponseWriter, r *http.Request) {
	identity := caller(r)
	var req CreateGiftRequest
	if err := decodeRequest(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	gift, err := h.economy.CreateGift(r.Context(), identity.UserID, req.Name, req.CoinCost, req.PointsAwarded)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeMapped[GiftResponse](w, r, http.StatusCreated, gift)
}

// UpdateGift handles PATCH /gifts/{giftID}
func (h *Handler) UpdateGift(w http.ResponseWriter, r *http.Request) {
	identity := caller(r)
	giftID, err := pathID(r, "giftID")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req UpdateGiftRequest
	if err := decodeRequest(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	gift, err := h.economy.UpdateGift(r.Context(), identity.UserID, giftID, interfaces.GiftUpdate{
		Name:          req.Name,
		CoinCost:      req.CoinCost,
		PointsAwarded: req.PointsAwarded,
		Active:        req.Active,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeMapped[GiftResponse](w, r, http.StatusOK, gift)
}

func writeMapped[T any](w http.ResponseWriter, r *http.Request, status int, src any) {
	response, err := copyInto[T](src)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, status, response)
}

func writeMappedList[T any](w http.ResponseWriter, r *http.Request, src any) {
	response, err := copyList[T](src)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, response)
}
