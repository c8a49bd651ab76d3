package dto

import "time"

// ChatMessageSentDTO is a chat message observed by the chat service
type ChatMessageSentDTO struct {
	ViewerID   int64
	StreamerID int64
	Text       string
	SentAt     time.Time
}

// SessionEndedDTO is a finished broadcast reported by the streaming service
type SessionEndedDTO struct {
	StreamerID     int64
	ElapsedMinutes int64
	EndedAt        time.Time
}
