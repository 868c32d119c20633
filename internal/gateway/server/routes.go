package server

import (
	"net/http"

	"fraudwatch/internal/gateway/handler"
	"fraudwatch/internal/gateway/middleware"
)

func NewMux(
	chat *handler.ChatHub,
	channel *handler.ChannelHub,
	mediaHandler *handler.MediaHandler,
) http.Handler {
	mux := http.NewServeMux()

	// Websocket transports
	mux.HandleFunc("/ws/chat", chat.HandleChatWS)
	mux.HandleFunc("/ws/channel", channel.HandleChannelWS)

	// HTTP reads
	mux.HandleFunc("/channel/recent", channel.HandleRecent)
	mux.HandleFunc("/media/", mediaHandler.HandleMedia)
	mux.HandleFunc("/evidence/", mediaHandler.HandleEvidence)
	mux.HandleFunc("/healthz", handler.HandleHealth)

	// Middleware
	return middleware.CORS(mux)
}
