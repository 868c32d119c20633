package server

import (
	"context"
	"net"
	"net/http"
	"testing"
	"time"

	"fraudwatch/internal/cache/media"
	"fraudwatch/internal/gateway/handler"
	"fraudwatch/internal/gateway/service/broadcast"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServerRoutes(t *testing.T) {
	store := media.NewStore(media.Config{})
	channel := handler.NewChannelHub(nil)
	mux := NewMux(handler.NewChatHub(store, nil), channel, handler.NewMediaHandler(store, nil, nil))

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	srv := New(ln.Addr().String(), mux, nil)
	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(ln) }()

	base := "http://" + ln.Addr().String()
	client := &http.Client{Timeout: 5 * time.Second}

	resp, err := client.Get(base + "/healthz")
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	require.NoError(t, channel.Publish(context.Background(), broadcast.Announcement{ReportID: "r1", Text: "x"}))
	resp, err = client.Get(base + "/channel/recent")
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = client.Get(base + "/media/photo:missing")
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, srv.Shutdown(ctx))
	assert.NoError(t, <-errCh)
}
