package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"streameconomy/domain"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
)

const (
	maxRequestBodyBytes = 1 << 16

	defaultGiftQuantity = 1
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// RegisterUserRequest creates an account
type RegisterUserRequest struct {
	Username string `json:"username" validate:"required,min=3,max=32"`
	Role     string `json:"role" validate:"omitempty,oneof=VIEWER STREAMER"`
}

// RechargeRequest buys coins through a payment rail
type RechargeRequest struct {
	Amount         int64  `json:"amount" validate:"required,gt=0"`
	Currency       string `json:"currency" validate:"required,max=8"`
	PaymentRail    string `json:"paymentRail" validate:"required,max=32"`
	IdempotencyKey string `json:"idempotencyKey" validate:"omitempty,max=128"`
}

// SendGiftRequest sends a quantity of one catalog gift. Quantity defaults
// to one when omitted.
type SendGiftRequest struct {
	GiftID   int64 `json:"giftId" validate:"required,gt=0"`
	Quantity int64 `json:"quantity,omitempty" validate:"omitempty,gt=0"`
}

// ChatMessageRequest records one chat message for engagement points
type ChatMessageRequest struct {
	Text string `json:"text" validate:"required,max=500"`
}

// SessionRequest records a finished broadcast
type SessionRequest struct {
	ElapsedMinutes int64 `json:"elapsedMinutes" validate:"gte=0"`
}

// CreateTierRequest defines a viewer tier. Rank 0 is the baseline tier.
type CreateTierRequest struct {
	Rank      *int   `json:"rank" validate:"required,gte=0"`
	Name      string `json:"name" validate:"required,max=64"`
	Threshold int64  `json:"threshold" validate:"gte=0"`
}

// UpdateTierRequest edits or deactivates a viewer tier
type UpdateTierRequest struct {
	Name      *string `json:"name" validate:"omitempty,min=1,max=64"`
	Threshold *int64  `json:"threshold" validate:"omitempty,gte=0"`
	Active    *bool   `json:"active"`
}

// CreateGiftRequest adds a gift to the caller's catalog
type CreateGiftRequest struct {
	Name          string `json:"name" validate:"required,max=64"`
	CoinCost      int64  `json:"coinCost" validate:"required,gt=0"`
	PointsAwarded int64  `json:"pointsAwarded" validate:"gte=0"`
}

// UpdateGiftRequest edits a catalog gift
type UpdateGiftRequest struct {
	Name          *string `json:"name" validate:"omitempty,min=1,max=64"`
	CoinCost      *int64  `json:"coinCost" validate:"omitempty,gt=0"`
	PointsAwarded *int64  `json:"pointsAwarded" validate:"omitempty,gte=0"`
	Active        *bool   `json:"active"`
}

// decodeRequest reads a JSON body into dst and validates it
func decodeRequest(r *http.Request, dst any) error {
	decoder := json.NewDecoder(io.LimitReader(r.Body, maxRequestBodyBytes))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return domain.NewValidationError("request body is required")
		}
		return domain.NewValidationError("malformed request body")
	}
	return validateRequest(dst)
}

// validateRequest reports the first failing field as a validation error
func validateRequest(dst any) error {
	if err := validate.Struct(dst); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) && len(validationErrs) > 0 {
			first := validationErrs[0]
			return domain.NewValidationError("field %s failed rule %s", jsonFieldName(first.Field()), first.Tag())
		}
		return domain.NewValidationError("invalid request")
	}
	return nil
}

func jsonFieldName(field string) string {
	if field == "" {
		return field
	}
	return strings.ToLower(field[:1]) + field[1:]
}

// pathID parses a positive integer URL parameter
func pathID(r *http.Request, name string) (int64, error) {
	raw := chi.URLParam(r, name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, domain.NewValidationError("%s must be a positive integer", name)
	}
	return id, nil
}

// queryLimit parses the optional limit query parameter
func queryLimit(r *http.Request) (int, error) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return 0, nil
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 0 {
		return 0, domain.NewValidationError("limit must be a non-negative integer")
	}
	return limit, nil
}

// queryBool parses an optional boolean query parameter
func queryBool(r *http.Request, name string) (bool, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return false, nil
	}
	value, err := strconv.ParseBool(raw)
	if err != nil {
		return false, domain.NewValidationError("%s must be true or false", name)
	}
	return value, nil
}
