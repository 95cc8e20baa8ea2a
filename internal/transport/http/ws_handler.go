package http

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/emilhornlund/quiz-game-service/internal/app"
	"github.com/emilhornlund/quiz-game-service/internal/domain"
)

// WSHandler serves the game event stream over a websocket and accepts
// inbound answer and pacing messages on the same connection.
type WSHandler struct {
	service  *app.GameService
	log      zerolog.Logger
	upgrader websocket.Upgrader
}

func NewWSHandler(service *app.GameService, log zerolog.Logger) *WSHandler {
	return &WSHandler{
		service: service,
		log:     log,
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

type answerPayload struct {
	Answer domain.AnswerValue `json:"answer"`
}

// outboundFrame is the delivered message contract: the serialized game
// event under a single data field.
type outboundFrame struct {
	Data json.RawMessage `json:"data"`
}

type errorFrame struct {
	Error string `json:"error"`
}

// ServeWS upgrades the request and wires the connection into the event
// stream: seed-then-live deliveries out, answer/advance/quit messages in.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	gameID := r.URL.Query().Get("gameId")
	participantID := r.URL.Query().Get("participantId")
	if gameID == "" || participantID == "" {
		http.Error(w, "missing gameId or participantId", http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn().Err(err).Msg("ws upgrade failed")
		return
	}
	defer conn.Close()

	deliveries, cancel, err := h.service.Subscribe(r.Context(), gameID, participantID)
	if err != nil {
		_ = conn.WriteJSON(errorFrame{Error: err.Error()})
		return
	}
	defer cancel()

	role, err := h.service.ParticipantRole(r.Context(), gameID, participantID)
	if err != nil {
		_ = conn.WriteJSON(errorFrame{Error: err.Error()})
		return
	}

	// The connection tolerates one writer at most, so every outbound frame
	// goes through the send channel and a single writer goroutine.
	send := make(chan any, 16)
	closeSignals := make(chan struct{})
	writerDone := make(chan struct{})
	forwardDone := make(chan struct{})

	go func() {
		defer close(writerDone)
		for frame := range send {
			if err := conn.WriteJSON(frame); err != nil {
				h.log.Debug().Err(err).Str("game", gameID).Msg("ws write failed")
				return
			}
		}
	}()

	go func() {
		defer close(forwardDone)
		for {
			select {
			case delivery, ok := <-deliveries:
				if !ok {
					return
				}
				select {
				case send <- outboundFrame{Data: delivery.Payload}:
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
		switch inbound.Type {
		case "answer":
			var payload answerPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				send <- errorFrame{Error: "invalid answer payload"}
				continue
			}
			if err := h.service.SubmitAnswer(r.Context(), gameID, participantID, payload.Answer); err != nil {
				send <- errorFrame{Error: err.Error()}
			}
		case "advance":
			if role != domain.RoleHost {
				send <- errorFrame{Error: "only the host may advance"}
				continue
			}
			if _, err := h.service.Advance(r.Context(), gameID); err != nil {
				send <- errorFrame{Error: err.Error()}
			}
		case "quit":
			if role != domain.RoleHost {
				send <- errorFrame{Error: "only the host may quit"}
				continue
			}
			if err := h.service.ForceQuit(r.Context(), gameID, domain.QuitReasonHostAbandoned); err != nil {
				send <- errorFrame{Error: err.Error()}
			}
		default:
			send <- errorFrame{Error: "unsupported message type"}
		}
	}

	cancel()
	close(closeSignals)
	<-forwardDone
	close(send)
	<-writerDone
}
