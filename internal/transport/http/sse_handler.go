package http

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/emilhornlund/quiz-game-service/internal/app"
	"github.com/emilhornlund/quiz-game-service/internal/domain"
)

// SSEHandler serves the game event stream as Server-Sent Events: one
// `data:` frame per delivery, the replay seed first.
type SSEHandler struct {
	service *app.GameService
	log     zerolog.Logger
}

func NewSSEHandler(service *app.GameService, log zerolog.Logger) *SSEHandler {
	return &SSEHandler{service: service, log: log}
}

func (h *SSEHandler) ServeEvents(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	gameID := r.PathValue("gameID")
	participantID := r.URL.Query().Get("participantId")
	if gameID == "" || participantID == "" {
		http.Error(w, "missing gameID or participantId", http.StatusBadRequest)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	deliveries, cancel, err := h.service.Subscribe(r.Context(), gameID, participantID)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, domain.ErrParticipantNotFound) || errors.Is(err, domain.ErrGameNotFound) {
			status = http.StatusNotFound
		}
		http.Error(w, err.Error(), status)
		return
	}
	defer cancel()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case delivery, open := <-deliveries:
			if !open {
				return
			}
			if _, err := fmt.Fprintf(w, "data: %s\n\n", delivery.Payload); err != nil {
				h.log.Debug().Err(err).Str("game", gameID).Msg("sse write failed")
				return
			}
			flusher.Flush()
		}
	}
}
