package repository

import (
	"context"
	"errors"
	"fmt"

	"streameconomy/application"
	"streameconomy/database"
	"streameconomy/domain/interfaces"

	"github.com/jackc/pgx/v5"
	log "github.com/sirupsen/logrus"
)

// unitOfWork implements the UnitOfWork interface
type unitOfWork struct {
	db                     *database.DB
	tx                     pgx.Tx
	ctx                    context.Context
	transactionalPublisher interfaces.TransactionalEventPublisher
	userRepo               interfaces.UserRepository
	balanceRepo            interfaces.BalanceRepository
	progressRepo           interfaces.ProgressRepository
	viewerTierRepo         interfaces.ViewerTierRepository
	streamerTierRepo       interfaces.StreamerTierRepository
	profileRepo            interfaces.StreamerProfileRepository
	giftRepo               interfaces.GiftRepository
	notificationRepo       interfaces.NotificationRepository
	rechargeRepo           interfaces.RechargeRepository
	wagerRepo              interfaces.WagerRecordRepository
	balanceHistoryRepo     interfaces.BalanceHistoryRepository
}

// NewUnitOfWorkFactory creates a new UnitOfWork factory
func NewUnitOfWorkFactory(db *database.DB) *unitOfWorkFactory {
	return &unitOfWorkFactory{
		db: db,
	}
}

type unitOfWorkFactory struct {
	db *database.DB
}

// CreateWithPublisher creates a new UnitOfWork that flushes transactionalPublisher after commit
func (f *unitOfWorkFactory) CreateWithPublisher(transactionalPublisher interfaces.TransactionalEventPublisher) application.UnitOfWork {
	return &unitOfWork{
		db:                     f.db,
		transactionalPublisher: transactionalPublisher,
	}
}

// Begin starts a new transaction
func (u *unitOfWork) Begin(ctx context.Context) error {
	if u.tx != nil {
		return fmt.Errorf("transaction already started")
	}

	tx, err := u.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	u.tx = tx
	u.ctx = ctx

	u.userRepo = newUserRepository(tx)
	u.balanceRepo = newBalanceRepository(tx)
	u.progressRepo = newProgressRepository(tx)
	u.viewerTierRepo = newViewerTierRepository(tx)
	u.streamerTierRepo = newStreamerTierRepository(tx)
	u.profileRepo = newStreamerProfileRepository(tx)
	u.giftRepo = newGiftRepository(tx)
	u.notificationRepo = newNotificationRepository(tx)
	u.rechargeRepo = newRechargeRepository(tx)
	u.wagerRepo = newWagerRecordRepository(tx)
	u.balanceHistoryRepo = newBalanceHistoryRepository(tx)

	return nil
}

// Commit commits the transaction, then flushes pending events. A flush
// failure is logged only since the data is already durable.
func (u *unitOfWork) Commit() error {
	if u.tx == nil {
		return fmt.Errorf("no transaction to commit")
	}

	err := u.tx.Commit(u.ctx)
	if err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	u.tx = nil

	if u.transactionalPublisher != nil {
		if err := u.transactionalPublisher.Flush(context.WithoutCancel(u.ctx)); err != nil {
			log.WithError(err).Error("Failed to flush events after commit")
		}
	}

	return nil
}

// Rollback rolls back the transaction
func (u *unitOfWork) Rollback() error {
	if u.tx == nil {
		return nil // Nothing to rollback
	}

	// The use case context may already be cancelled; the rollback must still reach the server
	err := u.tx.Rollback(context.WithoutCancel(u.ctx))
	if err != nil && !errors.Is(err, pgx.ErrTxClosed) {
		return fmt.Errorf("failed to rollback transaction: %w", err)
	}

	u.tx = nil

	if u.transactionalPublisher != nil {
		u.transactionalPublisher.Discard()
	}

	return nil
}

func (u *unitOfWork) UserRepository() interfaces.UserRepository {
	if u.userRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.userRepo
}

func (u *unitOfWork) BalanceRepository() interfaces.BalanceRepository {
	if u.balanceRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.balanceRepo
}

func (u *unitOfWork) ProgressRepository() interfaces.ProgressRepository {
	if u.progressRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.progressRepo
}

func (u *unitOfWork) ViewerTierRepository() interfaces.ViewerTierRepository {
	if u.viewerTierRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.viewerTierRepo
}

func (u *unitOfWork) StreamerTierRepository() interfaces.StreamerTierRepository {
	if u.streamerTierRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.streamerTierRepo
}

func (u *unitOfWork) StreamerProfileRepository() interfaces.StreamerProfileRepository {
	if u.profileRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.profileRepo
}

func (u *unitOfWork) GiftRepository() interfaces.GiftRepository {
	if u.giftRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.giftRepo
}

func (u *unitOfWork) NotificationRepository() interfaces.NotificationRepository {
	if u.notificationRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.notificationRepo
}

func (u *unitOfWork) RechargeRepository() interfaces.RechargeRepository {
	if u.rechargeRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.rechargeRepo
}

func (u *unitOfWork) WagerRecordRepository() interfaces.WagerRecordRepository {
	if u.wagerRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.wagerRepo
}

// BalanceHistoryRepository returns the balance history repository for this unit of work
func (u *unitOfWork) BalanceHistoryRepository() interfaces.BalanceHistoryRepository {
	if u.balanceHistoryRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.balanceHistoryRepo
}

// EventBus returns the transactional event publisher for this unit of work
func (u *unitOfWork) EventBus() interfaces.EventPublisher {
	if u.transactionalPublisher == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.transactionalPublisher
}
