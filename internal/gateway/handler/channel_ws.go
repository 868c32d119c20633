package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"

	"fraudwatch/internal/gateway/service/broadcast"
)

const channelHistory = 50

// ChannelMessage is one frame sent to channel subscribers.
type ChannelMessage struct {
	Type     string `json:"type"`
	ReportID string `json:"report_id,omitempty"`
	Text     string `json:"text"`
	ImageURL string `json:"image_url,omitempty"`
}

// ChannelHub is the public announcement channel. Every subscriber receives
// each announcement; the most recent ones are kept for late joiners.
type ChannelHub struct {
	log *slog.Logger

	mu     sync.RWMutex
	subs   map[*wsConn]struct{}
	recent []ChannelMessage
}

func NewChannelHub(logger *slog.Logger) *ChannelHub {
	if logger == nil {
		logger = slog.Default()
	}
	return &ChannelHub{
		log:  logger.With("component", "channel_ws"),
		subs: make(map[*wsConn]struct{}),
	}
}

// Publish implements broadcast.Publisher. An announcement counts as published
// once it is recorded in the channel history, even with no live subscribers.
func (h *ChannelHub) Publish(ctx context.Context, a broadcast.Announcement) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	out := ChannelMessage{Type: "announcement", ReportID: a.ReportID, Text: a.Text, ImageURL: a.ImageURL}

	h.mu.Lock()
	defer h.mu.Unlock()
	h.recent = append(h.recent, out)
	if len(h.recent) > channelHistory {
		h.recent = append([]ChannelMessage(nil), h.recent[len(h.recent)-channelHistory:]...)
	}
	for c := range h.subs {
		c.push(out)
	}
	h.log.InfoContext(ctx, "announcement published", "report_id", a.ReportID, "subscribers", len(h.subs))
	return nil
}

// Recent returns the retained announcements, oldest first.
func (h *ChannelHub) Recent() []ChannelMessage {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return append([]ChannelMessage(nil), h.recent...)
}

// Subscribers returns the number of live channel connections.
func (h *ChannelHub) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

// HandleChannelWS serves GET /ws/channel. Subscribers only receive.
func (h *ChannelHub) HandleChannelWS(w http.ResponseWriter, r *http.Request) {
	conn, err := wsUpgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	c := newWSConn(conn)
	if err := c.startReading(); err != nil {
		return
	}
	go c.writeLoop(ctx)

	h.mu.Lock()
	h.subs[c] = struct{}{}
	h.mu.Unlock()
	defer func() {
		h.mu.Lock()
		delete(h.subs, c)
		h.mu.Unlock()
		cancel()
		<-c.done
	}()

	// Reads only drive pong handling and detect close.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

// HandleRecent serves GET /channel/recent.
func (h *ChannelHub) HandleRecent(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"announcements": h.Recent()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
