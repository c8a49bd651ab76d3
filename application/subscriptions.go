package application

import (
	"context"

	"streameconomy/domain/events"
	"streameconomy/domain/interfaces"
)

// LocalHandlerRegistrar attaches in-process handlers to published events
type LocalHandlerRegistrar interface {
	RegisterLocalHandler(eventType events.EventType, handler func(context.Context, events.Event) error)
}

// RegisterApplicationSubscriptions registers all application-level event subscriptions.
// Handlers run when a unit of work flushes its events, after commit.
func RegisterApplicationSubscriptions(registrar LocalHandlerRegistrar, fanout interfaces.Fanout) {
	realtimeHandler := NewRealtimeEventHandler(fanout)

	registrar.RegisterLocalHandler(events.EventTypeGiftSent, func(ctx context.Context, event events.Event) error {
		return realtimeHandler.HandleGiftSent(ctx, event)
	})
	registrar.RegisterLocalHandler(events.EventTypeViewerLevelUp, func(ctx context.Context, event events.Event) error {
		return realtimeHandler.HandleViewerLevelUp(ctx, event)
	})
	registrar.RegisterLocalHandler(events.EventTypeStreamerLevelUp, func(ctx context.Context, event events.Event) error {
		return realtimeHandler.HandleStreamerLevelUp(ctx, event)
	})
	registrar.RegisterLocalHandler(events.EventTypeNotificationCreated, func(ctx context.Context, event events.Event) error {
		return realtimeHandler.HandleNotificationCreated(ctx, event)
	})
	registrar.RegisterLocalHandler(events.EventTypeBalanceChange, func(ctx context.Context, event events.Event) error {
		return realtimeHandler.HandleBalanceChange(ctx, event)
	})
}
