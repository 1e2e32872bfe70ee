package http

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"article-quiz-client/internal/app"
	"github.com/gorilla/websocket"
)

// ScoreFeed streams the player's score over a websocket and accepts answer
// actions from the connected peer.
type ScoreFeed struct {
	player   *app.Player
	upgrader websocket.Upgrader
	logger   *slog.Logger
}

func NewScoreFeed(player *app.Player, logger *slog.Logger) *ScoreFeed {
	if logger == nil {
		logger = slog.Default()
	}
	return &ScoreFeed{
		player: player,
		logger: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type selectPayload struct {
	Index  int    `json:"index"`
	Option string `json:"option"`
}

type checkPayload struct {
	Index int `json:"index"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
}

// Routes mounts the feed and a health probe.
func (f *ScoreFeed) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})
	mux.HandleFunc("/ws", f.ServeWS)
	return mux
}

// ServeWS upgrades the request and relays player updates until the peer disconnects.
func (f *ScoreFeed) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := f.upgrader.Upgrade(w, r, nil)
	if err != nil {
		f.logger.Warn("ws upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	updates, cancel := f.player.Subscribe()
	defer cancel()

	send := make(chan outboundMessage[any], 16)
	closeSignals := make(chan struct{})
	writerDone := make(chan struct{})
	updatesDone := make(chan struct{})

	// single writer; gorilla connections do not support concurrent writes
	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				f.logger.Debug("ws write error", "error", err)
				return
			}
		}
	}()

	go func() {
		defer close(updatesDone)
		for {
			select {
			case update, ok := <-updates:
				if !ok {
					return
				}
				select {
				case send <- outboundMessage[any]{Type: "score", Payload: update}:
				case <-closeSignals:
					return
				}
			case <-closeSignals:
				return
			}
		}
	}()

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		if msg, ok := f.handle(r, inbound); ok {
			send <- msg
		}
	}

	close(closeSignals)
	<-updatesDone
	close(send)
	<-writerDone
}

// handle applies an inbound action. Successful actions reply through the
// subscription, so only errors produce a direct message.
func (f *ScoreFeed) handle(r *http.Request, inbound inboundMessage) (outboundMessage[any], bool) {
	switch inbound.Type {
	case "select":
		var payload selectPayload
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
			return errorMessage("invalid select payload"), true
		}
		if err := f.player.Select(r.Context(), payload.Index, payload.Option); err != nil {
			return errorMessage(err.Error()), true
		}
	case "check":
		var payload checkPayload
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
			return errorMessage("invalid check payload"), true
		}
		if _, err := f.player.Check(r.Context(), payload.Index); err != nil {
			return errorMessage(err.Error()), true
		}
	default:
		return errorMessage("unsupported message type"), true
	}
	return outboundMessage[any]{}, false
}

func errorMessage(message string) outboundMessage[any] {
	return outboundMessage[any]{Type: "error", Payload: errorPayload{Message: message}}
}
