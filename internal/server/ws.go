package server

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/matzehuels/layouttester/pkg/scheduler"
)

const (
	writeWait  = 5 * time.Second
	pingPeriod = 30 * time.Second
)

// runEvent is pushed to websocket clients when a run completes.
type runEvent struct {
	Type    string `json:"type"`
	ID      string `json:"id"`
	Fixture string `json:"fixture"`
	Failed  bool   `json:"failed"`
	Code    string `json:"code,omitempty"`
	Planned int    `json:"planned"`
}

func newRunEvent(run *scheduler.Run) runEvent {
	return runEvent{
		Type:    "run",
		ID:      run.ID.String(),
		Fixture: run.Request.Fixture(),
		Failed:  run.Result.Failed(),
		Code:    string(run.Result.Diagnostics.Code),
		Planned: run.Result.Stats.Planned,
	}
}

// handleWS streams a runEvent per completed run until the client leaves.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	runs, unsubscribe := s.cfg.Scheduler.Subscribe()
	defer unsubscribe()

	// Clients never send anything; reading detects the close.
	gone := make(chan struct{})
	go func() {
		defer close(gone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ping := time.NewTicker(pingPeriod)
	defer ping.Stop()

	for {
		select {
		case <-r.Context().Done():
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"), time.Now().Add(writeWait))
			return
		case <-gone:
			return
		case run, ok := <-runs:
			if !ok {
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(newRunEvent(run)); err != nil {
				s.logger.Debug("websocket write failed", "err", err)
				return
			}
		case <-ping.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		}
	}
}
