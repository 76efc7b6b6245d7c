package controllers

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"Xiuchatbot/middleware"
	"Xiuchatbot/models"
	"Xiuchatbot/pkg/chat"
	svc "Xiuchatbot/pkg/services"
	"Xiuchatbot/pkg/typing"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// newUpgrader accepts browser origins from allowed; an empty list accepts any.
// Requests without an Origin header are not from a browser page and pass.
func newUpgrader(allowed []string) *websocket.Upgrader {
	return &websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origin == "" || len(allowed) == 0 {
				return true
			}
			for _, o := range allowed {
				if strings.EqualFold(strings.TrimRight(o, "/"), origin) {
					return true
				}
			}
			log.Printf("[ws] origin rejected: %s", origin)
			return false
		},
	}
}

// ChatWSConfig wires a chat socket.
type ChatWSConfig struct {
	// Limiter is shared with the relay; every send from the socket takes a slot
	// for the connecting address. Nil disables the check.
	Limiter        *middleware.Limiter
	AllowedOrigins []string
	ChatOptions    []chat.Option
}

const wsWriteTimeout = 10 * time.Second

type wsClientPayload struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// wsView forwards controller output to one socket. Writes are serialised.
type wsView struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (v *wsView) send(payload gin.H) {
	v.mu.Lock()
	defer v.mu.Unlock()
	_ = v.conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
	if err := v.conn.WriteJSON(payload); err != nil {
		log.Printf("[ws] write error: %v", err)
	}
}

func (v *wsView) AppendMessage(m models.Message) {
	v.send(gin.H{"type": "message", "message": m})
}

func (v *wsView) UpdateMessage(m models.Message) {
	v.send(gin.H{"type": "message", "message": m})
}

func (v *wsView) RenderFrame(id string, f typing.Frame) {
	v.send(gin.H{"type": "frame", "id": id, "text": f.Text, "cursor": f.Cursor})
}

func (v *wsView) SetInputEnabled(enabled bool) {
	v.send(gin.H{"type": "input", "enabled": enabled})
}

func (v *wsView) SetSkipEnabled(enabled bool) {
	v.send(gin.H{"type": "skip", "enabled": enabled})
}

func (v *wsView) ShowNote(n chat.Note) {
	v.send(gin.H{"type": "note", "text": n.Text, "warning": n.Warning})
}

// ChatWS runs a send controller per connection and streams its output.
// Client protocol (JSON messages):
//
//	-> {type: "send", message: string}
//	-> {type: "skip"}
//	<- {type: "message", message: {id, role, text, rendered, state, timestamp}}
//	<- {type: "frame", id: string, text: string, cursor: bool}
//	<- {type: "input", enabled: bool}
//	<- {type: "skip", enabled: bool}
//	<- {type: "note", text: string, warning: bool}
//	<- {type: "error", error: string}
func ChatWS(source svc.ResponseSource, cfg ChatWSConfig) gin.HandlerFunc {
	upgrader := newUpgrader(cfg.AllowedOrigins)
	return func(c *gin.Context) {
		if source == nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Server API key not configured"})
			return
		}

		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			log.Printf("[ws] upgrade error: %v", err)
			return
		}
		defer conn.Close()

		conn.SetReadLimit(1 << 20) // 1MB
		_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		})

		opts := append([]chat.Option(nil), cfg.ChatOptions...)
		if cfg.Limiter != nil {
			identity := middleware.ClientIP(c)
			opts = append(opts, chat.WithAdmission(func() (time.Duration, bool) {
				return cfg.Limiter.Reserve(identity)
			}))
		}

		view := &wsView{conn: conn}
		ctrl := chat.NewController(source, view, opts...)
		defer ctrl.Close()

		var wg sync.WaitGroup
		defer wg.Wait()
		ctx, cancel := context.WithCancel(c.Request.Context())
		defer cancel()

		view.ShowNote(chat.Note{Text: chat.DefaultHint})
		view.SetInputEnabled(true)

		for {
			_, msgBytes, err := conn.ReadMessage()
			if err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					log.Printf("[ws] read message error: %v", err)
				}
				return
			}
			_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))

			var in wsClientPayload
			if err := json.Unmarshal(msgBytes, &in); err != nil {
				view.send(gin.H{"type": "error", "error": "invalid payload"})
				continue
			}
			switch strings.ToLower(in.Type) {
			case "send":
				text := in.Message
				wg.Add(1)
				go func() {
					defer wg.Done()
					_ = ctrl.Submit(ctx, text)
				}()
			case "skip":
				ctrl.Skip()
			default:
				view.send(gin.H{"type": "error", "error": "unknown message type"})
			}
		}
	}
}
