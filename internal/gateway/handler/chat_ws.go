package handler

import (
	"context"
	"encoding/base64"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"fraudwatch/internal/gateway/entity"
	"fraudwatch/internal/gateway/service/conversation"
)

var errNotConnected = errors.New("chat not connected")

// EventHandler consumes inbound chat events.
type EventHandler interface {
	Handle(ctx context.Context, ev conversation.Event) error
}

// PhotoSaver keeps inbound photos and returns the handle drafts refer to.
type PhotoSaver interface {
	Save(data []byte, mimeType string) (string, error)
}

type chatInbound struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
	MIME string `json:"mime,omitempty"`
	Data string `json:"data,omitempty"`
}

type chatOutbound struct {
	Type    string   `json:"type"`
	Text    string   `json:"text,omitempty"`
	Options []string `json:"options,omitempty"`
	Photos  []string `json:"photos,omitempty"`
	Code    string   `json:"code,omitempty"`
}

// ChatHub is the chat transport. It accepts user connections, turns inbound
// frames into conversation events and delivers replies to every connection
// of the addressed chat.
type ChatHub struct {
	events EventHandler
	photos PhotoSaver
	log    *slog.Logger

	mu    sync.RWMutex
	chats map[string]map[*wsConn]struct{}
}

func NewChatHub(photos PhotoSaver, logger *slog.Logger) *ChatHub {
	if logger == nil {
		logger = slog.Default()
	}
	return &ChatHub{
		photos: photos,
		log:    logger.With("component", "chat_ws"),
		chats:  make(map[string]map[*wsConn]struct{}),
	}
}

// SetEventHandler wires the conversation engine. The hub and the engine
// reference each other, so this happens after construction.
func (h *ChatHub) SetEventHandler(events EventHandler) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.events = events
}

func (h *ChatHub) eventHandler() EventHandler {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.events
}

// Reply implements conversation.Replier.
func (h *ChatHub) Reply(_ context.Context, chatID string, r conversation.Reply) error {
	return h.deliver(chatID, chatOutbound{Type: "message", Text: r.Text, Options: r.Options, Photos: r.Photos})
}

// Notify implements submission.Notifier.
func (h *ChatHub) Notify(_ context.Context, chatID, text string) error {
	return h.deliver(chatID, chatOutbound{Type: "message", Text: text})
}

func (h *ChatHub) deliver(chatID string, out chatOutbound) error {
	h.mu.RLock()
	defer h.mu.RUnlock()
	conns := h.chats[strings.TrimSpace(chatID)]
	if len(conns) == 0 {
		return errNotConnected
	}
	for c := range conns {
		c.push(out)
	}
	return nil
}

func (h *ChatHub) register(chatID string, c *wsConn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set, ok := h.chats[chatID]
	if !ok {
		set = make(map[*wsConn]struct{})
		h.chats[chatID] = set
	}
	set[c] = struct{}{}
}

func (h *ChatHub) unregister(chatID string, c *wsConn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if set, ok := h.chats[chatID]; ok {
		delete(set, c)
		if len(set) == 0 {
			delete(h.chats, chatID)
		}
	}
}

// HandleChatWS serves GET /ws/chat?user_id=<id>.
func (h *ChatHub) HandleChatWS(w http.ResponseWriter, r *http.Request) {
	userID := entity.NormalizeUserID(r.URL.Query().Get("user_id"))
	if userID.IsZero() {
		http.Error(w, "user_id is required", http.StatusBadRequest)
		return
	}
	chatID := userID.String()

	conn, err := wsUpgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	c := newWSConn(conn)
	if err := c.startReading(); err != nil {
		h.log.Warn("chat ws set read deadline failed", "error", err)
		return
	}
	go c.writeLoop(ctx)
	h.register(chatID, c)
	defer h.unregister(chatID, c)

	// Events are processed off the read loop so long submissions do not
	// starve pong handling. One worker keeps per-connection ordering.
	events := make(chan conversation.Event, wsSendQueue)
	workerDone := make(chan struct{})
	go func() {
		defer close(workerDone)
		for ev := range events {
			handler := h.eventHandler()
			if handler == nil {
				c.push(chatOutbound{Type: "error", Code: "unavailable", Text: "chat is not ready"})
				continue
			}
			if err := handler.Handle(ctx, ev); err != nil {
				h.log.WarnContext(ctx, "chat event failed", "user_id", chatID, "error", err)
			}
		}
	}()
	defer func() {
		close(events)
		<-workerDone
		cancel()
		<-c.done
	}()

	h.log.Debug("chat connected", "user_id", chatID)
	for {
		var in chatInbound
		if err := conn.ReadJSON(&in); err != nil {
			return
		}
		ev, errOut := h.toEvent(userID, chatID, in)
		if errOut != nil {
			c.push(*errOut)
			continue
		}
		select {
		case events <- ev:
		default:
			c.push(chatOutbound{Type: "error", Code: "busy", Text: "Too many messages at once. Please wait for a reply."})
		}
	}
}

func (h *ChatHub) toEvent(userID entity.UserID, chatID string, in chatInbound) (conversation.Event, *chatOutbound) {
	ev := conversation.Event{UserID: userID, ChatID: chatID, Text: in.Text}
	switch strings.ToLower(strings.TrimSpace(in.Type)) {
	case "text", "":
		if strings.TrimSpace(in.Text) == "" {
			return ev, &chatOutbound{Type: "error", Code: "invalid_argument", Text: "text is required"}
		}
		return ev, nil
	case "photo":
		data, err := base64.StdEncoding.DecodeString(strings.TrimSpace(in.Data))
		if err != nil || len(data) == 0 {
			return ev, &chatOutbound{Type: "error", Code: "invalid_argument", Text: "photo data must be non-empty base64"}
		}
		mime := strings.TrimSpace(in.MIME)
		if mime == "" {
			mime = http.DetectContentType(data)
		}
		if !strings.HasPrefix(mime, "image/") {
			return ev, &chatOutbound{Type: "error", Code: "invalid_argument", Text: "only images are supported"}
		}
		handle, err := h.photos.Save(data, mime)
		if err != nil {
			h.log.Warn("photo not cached", "user_id", chatID, "error", err)
			return ev, &chatOutbound{Type: "error", Code: "resource_exhausted", Text: "photo could not be stored, try a smaller image"}
		}
		ev.Photo = handle
		return ev, nil
	default:
		return ev, &chatOutbound{Type: "error", Code: "invalid_argument", Text: "unsupported type: " + in.Type}
	}
}
