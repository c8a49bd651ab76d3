package infrastructure

import (
	"testing"

	"streameconomy/domain/events"

	"github.com/stretchr/testify/assert"
)

func TestEventSubjectMapper_RoundTrip(t *testing.T) {
	mapper := NewEventSubjectMapper()

	tests := []struct {
		event   events.Event
		subject string
	}{
		{events.GiftSentEvent{}, "economy.gifts.sent"},
		{events.ViewerLevelUpEvent{}, "economy.progression.viewer_level_up"},
		{events.CoinsRechargedEvent{}, "economy.recharges.completed"},
		{events.TierCatalogChangedEvent{}, "economy.tiers.catalog_changed"},
	}

	for _, tt := range tests {
		t.Run(string(tt.event.Type()), func(t *testing.T) {
			subject := mapper.MapEventToSubject(tt.event)
			assert.Equal(t, tt.subject, subject)
			assert.Equal(t, tt.event.Type(), mapper.MapSubjectToEventType(subject))
		})
	}
}

func TestEventSubjectMapper_EverySubjectInsideStream(t *testing.T) {
	for eventType, subject := range eventSubjects {
		assert.Regexp(t, `^economy\.`, subject, eventType)
	}
	assert.Equal(t, []string{"economy.>"}, NewEventSubjectMapper().GetAllSubjects())
}
