package application

import (
	"context"

	"streameconomy/domain/interfaces"
)

// UnitOfWork defines the interface for transactional repository operations
type UnitOfWork interface {
	// Begin starts a new transaction
	Begin(ctx context.Context) error

	// Commit commits the transaction and flushes buffered events
	Commit() error

	// Rollback rolls back the transaction and discards buffered events
	Rollback() error

	// Repository getters
	UserRepository() interfaces.UserRepository
	BalanceRepository() interfaces.BalanceRepository
	ProgressRepository() interfaces.ProgressRepository
	ViewerTierRepository() interfaces.ViewerTierRepository
	StreamerTierRepository() interfaces.StreamerTierRepository
	StreamerProfileRepository() interfaces.StreamerProfileRepository
	GiftRepository() interfaces.GiftRepository
	NotificationRepository() interfaces.NotificationRepository
	RechargeRepository() interfaces.RechargeRepository
	WagerRecordRepository() interfaces.WagerRecordRepository
	BalanceHistoryRepository() interfaces.BalanceHistoryRepository
	EventBus() interfaces.EventPublisher
}

// UnitOfWorkFactory defines the interface for creating UnitOfWork instances
type UnitOfWorkFactory interface {
	// Create returns a unit of work with its own transactional event buffer
	Create() UnitOfWork
}
