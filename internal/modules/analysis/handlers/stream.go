package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"
)

const progressInterval = 250 * time.Millisecond

// HandleProgressStream streams run Info messages over a websocket until the
// run finishes or the client goes away. The final message carries the
// terminal status.
func (h *Handler) HandleProgressStream(w http.ResponseWriter, r *http.Request) {
	session := chi.URLParam(r, "session")

	done, err := h.store.Done(session)
	if err != nil {
		h.writeRunError(w, err)
		return
	}

	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		h.log.Warn().Err(err).Str("session", session).Msg("Websocket upgrade failed")
		return
	}
	defer conn.Close(websocket.StatusInternalError, "stream aborted")

	// Reads are only needed to observe the client's close frame.
	ctx := conn.CloseRead(r.Context())

	ticker := time.NewTicker(progressInterval)
	defer ticker.Stop()

	for {
		if err := h.sendInfo(ctx, conn, session); err != nil {
			h.log.Debug().Err(err).Str("session", session).Msg("Progress stream closed")
			return
		}

		select {
		case <-done:
			if err := h.sendInfo(ctx, conn, session); err != nil {
				return
			}
			conn.Close(websocket.StatusNormalClosure, "run finished")
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (h *Handler) sendInfo(ctx context.Context, conn *websocket.Conn, session string) error {
	info, err := h.store.Info(session)
	if err != nil {
		return err
	}
	writeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return wsjson.Write(writeCtx, conn, info)
}
