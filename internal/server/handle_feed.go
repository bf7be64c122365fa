package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"nhooyr.io/websocket"
)

const (
	feedPingInterval = 30 * time.Second
	feedWriteTimeout = 5 * time.Second
)

// handleFeed streams a participant's score events over a WebSocket. Browsers
// cannot set headers on the upgrade request, so the token rides in the query.
func handleFeed(logger *slog.Logger, store Store, l Ledger, broker *Broker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := participantFromToken(r, store, r.URL.Query().Get("token"))
		if errors.Is(err, errNoSession) {
			writeError(w, http.StatusUnauthorized, "invalid or missing participant token")
			return
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		snapshot := ScoreEvent{Type: "snapshot", TotalScore: p.TotalScore}
		if s, err := l.Session(r.Context(), p.ID); err == nil {
			snapshot.TotalScore = s.Score
			snapshot.Answered = s.AnsweredCount()
		}

		conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			InsecureSkipVerify: true,
		})
		if err != nil {
			logger.Error("websocket accept failed", "error", err)
			return
		}
		defer conn.CloseNow()

		ch := broker.Subscribe(p.ID)
		defer broker.Unsubscribe(p.ID, ch)

		// The feed is one-way; CloseRead answers control frames and cancels
		// ctx when the client goes away.
		ctx := conn.CloseRead(r.Context())

		data, _ := json.Marshal(snapshot)
		if err := writeFrame(ctx, conn, data); err != nil {
			logger.Debug("websocket write failed", "error", err)
			return
		}

		ping := time.NewTicker(feedPingInterval)
		defer ping.Stop()

		for {
			select {
			case <-ctx.Done():
				conn.Close(websocket.StatusNormalClosure, "")
				return
			case data := <-ch:
				if err := writeFrame(ctx, conn, data); err != nil {
					logger.Debug("websocket write failed", "error", err)
					return
				}
			case <-ping.C:
				pctx, cancel := context.WithTimeout(ctx, feedWriteTimeout)
				err := conn.Ping(pctx)
				cancel()
				if err != nil {
					logger.Debug("websocket ping failed", "error", err)
					return
				}
			}
		}
	}
}

func writeFrame(ctx context.Context, conn *websocket.Conn, data []byte) error {
	ctx, cancel := context.WithTimeout(ctx, feedWriteTimeout)
	defer cancel()
	return conn.Write(ctx, websocket.MessageText, data)
}
