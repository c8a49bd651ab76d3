package api

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"streameconomy/application/dto"
	"streameconomy/domain"
	"streameconomy/domain/interfaces"

	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"
)

const (
	wsWriteWait  = 10 * time.Second
	wsPongWait   = 60 * time.Second
	wsPingPeriod = (wsPongWait * 9) / 10
	wsMaxRooms   = 16
)

// RealtimeHandler upgrades callers to a websocket carrying their user channel
// and the rooms they ask for
type RealtimeHandler struct {
	fanout   interfaces.Fanout
	upgrader websocket.Upgrader
}

// NewRealtimeHandler creates a websocket handler reading from fanout
func NewRealtimeHandler(fanout interfaces.Fanout) *RealtimeHandler {
	return &RealtimeHandler{
		fanout: fanout,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

// ServeHTTP handles GET /ws?rooms=1,2
func (h *RealtimeHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	identity, err := identityFrom(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	channels, err := requestedChannels(identity.UserID, r.URL.Query().Get("rooms"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.WithError(err).WithField("userID", identity.UserID).Warn("Websocket upgrade failed")
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sub, err := h.fanout.JoinChannel(ctx, channels...)
	if err != nil {
		log.WithError(err).WithField("userID", identity.UserID).Error("Failed to join real-time channels")
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseTryAgainLater, "channels unavailable"),
			time.Now().Add(wsWriteWait))
		return
	}
	defer sub.Close()

	logger := log.WithFields(log.Fields{
		"userID":   identity.UserID,
		"channels": channels,
	})
	logger.Debug("Websocket connected")

	go readUntilClosed(conn, cancel)
	writeLoop(ctx, conn, sub)

	logger.Debug("Websocket disconnected")
}

// requestedChannels is the caller's own channel plus each requested room
func requestedChannels(userID int64, rooms string) ([]string, error) {
	channels := []string{dto.UserChannel(userID)}
	if strings.TrimSpace(rooms) == "" {
		return channels, nil
	}

	seen := make(map[int64]bool)
	for _, raw := range strings.Split(rooms, ",") {
		streamerID, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
		if err != nil || streamerID <= 0 {
			return nil, domain.NewValidationError("rooms must be a comma separated list of streamer ids")
		}
		if seen[streamerID] {
			continue
		}
		seen[streamerID] = true
		channels = append(channels, dto.RoomChannel(streamerID))
	}

	if len(seen) > wsMaxRooms {
		return nil, domain.NewValidationError("at most %d rooms can be joined at once", wsMaxRooms)
	}
	return channels, nil
}

// readUntilClosed drains client frames so pongs and close frames are seen
func readUntilClosed(conn *websocket.Conn, cancel context.CancelFunc) {
	defer cancel()

	conn.SetReadLimit(512)
	_ = conn.SetReadDeadline(time.Now().Add(wsPongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func writeLoop(ctx context.Context, conn *websocket.Conn, sub interfaces.Subscription) {
	ticker := time.NewTicker(wsPingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(wsWriteWait))
			return
		case msg, ok := <-sub.Messages():
			if !ok {
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := conn.WriteMessage(websocket.TextMessage, msg.Payload); err != nil {
				return
			}
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(wsWriteWait)); err != nil {
				return
			}
		}
	}
}
