package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/emilhornlund/quiz-game-service/internal/app"
	"github.com/emilhornlund/quiz-game-service/internal/domain"
)

// APIHandler exposes the thin JSON endpoints needed to get into a game:
// create as host, join by PIN.
type APIHandler struct {
	service *app.GameService
	log     zerolog.Logger
}

func NewAPIHandler(service *app.GameService, log zerolog.Logger) *APIHandler {
	return &APIHandler{service: service, log: log}
}

type createGameRequest struct {
	QuizID   string `json:"quizId"`
	Nickname string `json:"nickname"`
}

type createGameResponse struct {
	GameID string `json:"gameId"`
	HostID string `json:"hostId"`
	PIN    string `json:"pin"`
}

func (h *APIHandler) CreateGame(w http.ResponseWriter, r *http.Request) {
	var req createGameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.QuizID == "" {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	game, hostID, err := h.service.CreateGame(r.Context(), req.QuizID, req.Nickname)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, createGameResponse{GameID: game.ID, HostID: hostID, PIN: game.PIN})
}

type joinGameRequest struct {
	PIN      string `json:"pin"`
	Nickname string `json:"nickname"`
}

type joinGameResponse struct {
	GameID   string `json:"gameId"`
	PlayerID string `json:"playerId"`
}

func (h *APIHandler) JoinGame(w http.ResponseWriter, r *http.Request) {
	var req joinGameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.PIN == "" || req.Nickname == "" {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	game, playerID, err := h.service.JoinGame(r.Context(), req.PIN, req.Nickname)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, joinGameResponse{GameID: game.ID, PlayerID: playerID})
}

func (h *APIHandler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrGameNotFound), errors.Is(err, domain.ErrQuizNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, domain.ErrGameNotJoinable):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, domain.ErrQuizEmpty):
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
	default:
		h.log.Error().Err(err).Msg("request failed")
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
