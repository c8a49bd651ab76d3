package infrastructure

import (
	"context"
	"testing"

	"streameconomy/application/dto"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockCollaboratorHandler struct {
	mock.Mock
}

func (m *mockCollaboratorHandler) HandleChatMessage(ctx context.Context, message dto.ChatMessageSentDTO) error {
	return m.Called(ctx, message).Error(0)
}

func (m *mockCollaboratorHandler) HandleSessionEnded(ctx context.Context, session dto.SessionEndedDTO) error {
	return m.Called(ctx, session).Error(0)
}

func TestCollaboratorEventListener_ChatMessage(t *testing.T) {
	handler := new(mockCollaboratorHandler)
	handler.On("HandleChatMessage", mock.Anything, mock.MatchedBy(func(m dto.ChatMessageSentDTO) bool {
		return m.ViewerID == 100 && m.StreamerID == 900 && m.Text == "hello"
	})).Return(nil).Once()

	listener := NewCollaboratorEventListener(handler)
	err := listener.HandleChatMessageSent(context.Background(), []byte(`{"viewerId":100,"streamerId":900,"text":"hello","sentAt":"2026-01-02T15:04:05Z"}`))
	require.NoError(t, err)
	handler.AssertExpectations(t)
}

func TestCollaboratorEventListener_SessionEnded(t *testing.T) {
	handler := new(mockCollaboratorHandler)
	handler.On("HandleSessionEnded", mock.Anything, mock.MatchedBy(func(s dto.SessionEndedDTO) bool {
		return s.StreamerID == 900 && s.ElapsedMinutes == 95
	})).Return(nil).Once()

	listener := NewCollaboratorEventListener(handler)
	err := listener.HandleSessionEnded(context.Background(), []byte(`{"streamerId":900,"elapsedMinutes":95}`))
	require.NoError(t, err)
	handler.AssertExpectations(t)
}

func TestCollaboratorEventListener_MalformedPayload(t *testing.T) {
	handler := new(mockCollaboratorHandler)
	listener := NewCollaboratorEventListener(handler)

	assert.Error(t, listener.HandleChatMessageSent(context.Background(), []byte("not json")))
	assert.Error(t, listener.HandleSessionEnded(context.Background(), []byte("{")))
	handler.AssertNotCalled(t, "HandleChatMessage", mock.Anything, mock.Anything)
}
