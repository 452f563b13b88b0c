package api

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/coursetutor/tutor-backend/internal/notify"
)

const (
	wsWriteWait  = 10 * time.Second
	wsPongWait   = 60 * time.Second
	wsPingPeriod = (wsPongWait * 9) / 10
)

// ActiveModuleSocketHandler pushes the active module on connect and after
// every change until the client goes away.
func (h *APIHandler) ActiveModuleSocketHandler(upgrader *websocket.Upgrader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			h.log.Warn("Websocket upgrade failed", "error", err)
			return
		}
		defer conn.Close()

		events, cancel := h.hub.Subscribe()
		defer cancel()

		module, err := h.settings.ActiveModule(r.Context())
		if err != nil {
			h.log.Error("Failed to load active module for websocket", "error", err)
			return
		}
		conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
		if err := conn.WriteJSON(ActiveModuleResponse{Module: module}); err != nil {
			return
		}

		closed := make(chan struct{})
		go func() {
			defer close(closed)
			conn.SetReadDeadline(time.Now().Add(wsPongWait))
			conn.SetPongHandler(func(string) error {
				return conn.SetReadDeadline(time.Now().Add(wsPongWait))
			})
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					return
				}
			}
		}()

		ticker := time.NewTicker(wsPingPeriod)
		defer ticker.Stop()

		for {
			select {
			case <-closed:
				return
			case ev, ok := <-events:
				if !ok {
					return
				}
				if err := h.pushEvent(conn, ev); err != nil {
					return
				}
			case <-ticker.C:
				conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
				if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
					return
				}
			}
		}
	}
}

type activeModuleEvent struct {
	Type  string       `json:"type"`
	Event notify.Event `json:"event"`
}

func (h *APIHandler) pushEvent(conn *websocket.Conn, ev notify.Event) error {
	msg := activeModuleEvent{Type: "active_module_changed", Event: ev}
	conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
	return conn.WriteJSON(msg)
}

func newUpgrader(allowedOrigins []string) *websocket.Upgrader {
	return &websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origin == "" {
				return true
			}
			for _, allowed := range allowedOrigins {
				if allowed == "*" || allowed == origin {
					return true
				}
			}
			return false
		},
	}
}
