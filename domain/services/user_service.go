package services

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"streameconomy/domain"
	"streameconomy/domain/entities"
	"streameconomy/domain/events"
	"streameconomy/domain/interfaces"

	log "github.com/sirupsen/logrus"
)

var usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_]{3,32}$`)

type userService struct {
	userRepo           interfaces.UserRepository
	balanceRepo        interfaces.BalanceRepository
	progressionService interfaces.ProgressionService
	eventPublisher     interfaces.EventPublisher
}

// NewUserService creates a new user service
func NewUserService(
	userRepo interfaces.UserRepository,
	balanceRepo interfaces.BalanceRepository,
	progressionService interfaces.ProgressionService,
	eventPublisher interfaces.EventPublisher,
) interfaces.UserService {
	return &userService{
		userRepo:           userRepo,
		balanceRepo:        balanceRepo,
		progressionService: progressionService,
		eventPublisher:     eventPublisher,
	}
}

// Register creates an account with an empty wallet. Streamers also get an
// airtime profile at the baseline streamer tier.
func (s *userService) Register(ctx context.Context, username string, role entities.UserRole) (*entities.User, error) {
	username = strings.TrimSpace(username)
	if !usernamePattern.MatchString(username) {
		return nil, domain.NewValidationError("username must be 3-32 letters, digits or underscores")
	}
	if role == "" {
		role = entities.UserRoleViewer
	}
	if !role.IsValid() {
		return nil, domain.NewValidationError("unknown role %q", role)
	}

	user, err := s.userRepo.Create(ctx, username, role)
	if err != nil {
		if errors.Is(err, interfaces.ErrDuplicateUsername) {
			return nil, domain.NewConflictError("username %s is already taken", username)
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	if _, err := s.balanceRepo.GetOrInitialize(ctx, user.ID); err != nil {
		return nil, fmt.Errorf("failed to initialize balance: %w", err)
	}

	if user.IsStreamer() {
		if _, err := s.progressionService.AddStreamerMinutes(ctx, user.ID, 0); err != nil {
			return nil, fmt.Errorf("failed to initialize streamer profile: %w", err)
		}
	}

	if err := s.eventPublisher.Publish(events.UserRegisteredEvent{UserID: user.ID, Username: user.Username, Role: user.Role}); err != nil {
		log.WithError(err).Error("Failed to publish user registered event")
	}

	log.WithFields(log.Fields{
		"userID":   user.ID,
		"username": user.Username,
		"role":     user.Role,
	}).Info("User registered")

	return user, nil
}

// BecomeStreamer promotes a viewer account to a streamer account
func (s *userService) BecomeStreamer(ctx context.Context, userID int64) (*entities.User, error) {
	user, err := requireActor(ctx, s.userRepo, userID)
	if err != nil {
		return nil, err
	}
	if user.IsStreamer() {
		return user, nil
	}

	if err := s.userRepo.UpdateRole(ctx, userID, entities.UserRoleStreamer); err != nil {
		return nil, fmt.Errorf("failed to update role: %w", err)
	}
	user.Role = entities.UserRoleStreamer

	if _, err := s.progressionService.AddStreamerMinutes(ctx, user.ID, 0); err != nil {
		return nil, fmt.Errorf("failed to initialize streamer profile: %w", err)
	}

	log.WithField("userID", userID).Info("User became a streamer")
	return user, nil
}

func (s *userService) GetUser(ctx context.Context, userID int64) (*entities.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return nil, domain.NewNotFoundError("user %d not found", userID)
	}
	return user, nil
}
