package http

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/emilhornlund/quiz-game-service/internal/app"
	"github.com/emilhornlund/quiz-game-service/internal/domain"
)

type wsFrame struct {
	Data  json.RawMessage `json:"data"`
	Error string          `json:"error"`
}

func wsServer(t *testing.T) (*app.GameService, *httptest.Server) {
	t.Helper()
	svc := newTestGameService(t)
	handler := NewWSHandler(svc, zerolog.Nop())

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", handler.ServeWS)
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return svc, server
}

func dialWS(t *testing.T, server *httptest.Server, gameID, participantID string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws?gameId=" + gameID + "&participantId=" + participantID
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readFrame(t *testing.T, conn *websocket.Conn) wsFrame {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var frame wsFrame
	if err := conn.ReadJSON(&frame); err != nil {
		t.Fatalf("read frame: %v", err)
	}
	return frame
}

func frameEventType(t *testing.T, frame wsFrame) domain.GameEventType {
	t.Helper()
	if frame.Error != "" {
		t.Fatalf("unexpected error frame: %s", frame.Error)
	}
	var event struct {
		Type domain.GameEventType `json:"type"`
	}
	if err := json.Unmarshal(frame.Data, &event); err != nil {
		t.Fatalf("decode event: %v", err)
	}
	return event.Type
}

func TestServeWSSeedAndHostAdvance(t *testing.T) {
	svc, server := wsServer(t)
	game, hostID, err := svc.CreateGame(context.Background(), "quiz-1", "Host")
	if err != nil {
		t.Fatalf("create game: %v", err)
	}

	conn := dialWS(t, server, game.ID, hostID)
	if got := frameEventType(t, readFrame(t, conn)); got != domain.EventTypeLoading {
		t.Fatalf("expected loading seed, got %s", got)
	}

	if err := conn.WriteJSON(inboundMessage{Type: "advance"}); err != nil {
		t.Fatalf("send advance: %v", err)
	}
	if got := frameEventType(t, readFrame(t, conn)); got != domain.EventTypeLobbyHost {
		t.Fatalf("expected lobby host view after advance, got %s", got)
	}
}

func TestServeWSPlayerSubmitsAnswer(t *testing.T) {
	svc, server := wsServer(t)
	game, _, err := svc.CreateGame(context.Background(), "quiz-1", "Host")
	if err != nil {
		t.Fatalf("create game: %v", err)
	}
	_, playerID, err := svc.JoinGame(context.Background(), game.PIN, "Alice")
	if err != nil {
		t.Fatalf("join: %v", err)
	}
	for i := 0; i < 4; i++ { // lobby through question active
		if _, err := svc.Advance(context.Background(), game.ID); err != nil {
			t.Fatalf("advance: %v", err)
		}
	}

	conn := dialWS(t, server, game.ID, playerID)
	if got := frameEventType(t, readFrame(t, conn)); got != domain.EventTypeQuestionPlayer {
		t.Fatalf("expected question seed, got %s", got)
	}

	payload, _ := json.Marshal(answerPayload{Answer: domain.AnswerValue{OptionIndex: ptr(0)}})
	if err := conn.WriteJSON(inboundMessage{Type: "answer", Payload: payload}); err != nil {
		t.Fatalf("send answer: %v", err)
	}
	if got := frameEventType(t, readFrame(t, conn)); got != domain.EventTypeAwaitingResultPlayer {
		t.Fatalf("expected awaiting-result view after answering, got %s", got)
	}
}

func TestServeWSPlayerCannotAdvance(t *testing.T) {
	svc, server := wsServer(t)
	game, _, err := svc.CreateGame(context.Background(), "quiz-1", "Host")
	if err != nil {
		t.Fatalf("create game: %v", err)
	}
	_, playerID, err := svc.JoinGame(context.Background(), game.PIN, "Alice")
	if err != nil {
		t.Fatalf("join: %v", err)
	}

	conn := dialWS(t, server, game.ID, playerID)
	readFrame(t, conn) // seed

	if err := conn.WriteJSON(inboundMessage{Type: "advance"}); err != nil {
		t.Fatalf("send advance: %v", err)
	}
	frame := readFrame(t, conn)
	if frame.Error == "" {
		t.Fatalf("expected an error frame for a player advance")
	}
}

func TestServeWSInterleavedErrorsAndDeliveries(t *testing.T) {
	svc, server := wsServer(t)
	game, hostID, err := svc.CreateGame(context.Background(), "quiz-1", "Host")
	if err != nil {
		t.Fatalf("create game: %v", err)
	}

	conn := dialWS(t, server, game.ID, hostID)
	readFrame(t, conn) // seed

	// Bogus inbound messages produce error frames on the read-loop path
	// while joins push deliveries through the forwarder; both must come
	// out of the single writer without stepping on each other.
	const rounds = 20
	for i := 0; i < rounds; i++ {
		if _, _, err := svc.JoinGame(context.Background(), game.PIN, fmt.Sprintf("Player%d", i)); err != nil {
			t.Fatalf("join: %v", err)
		}
		if err := conn.WriteJSON(inboundMessage{Type: "bogus"}); err != nil {
			t.Fatalf("send bogus message: %v", err)
		}
	}

	var errs, events int
	for errs < rounds {
		frame := readFrame(t, conn)
		if frame.Error != "" {
			errs++
		} else {
			events++
		}
	}
	if events == 0 {
		t.Fatalf("expected lobby deliveries interleaved with the error frames")
	}
}

func TestServeWSUnknownParticipant(t *testing.T) {
	svc, server := wsServer(t)
	game, _, err := svc.CreateGame(context.Background(), "quiz-1", "Host")
	if err != nil {
		t.Fatalf("create game: %v", err)
	}

	conn := dialWS(t, server, game.ID, "stranger")
	frame := readFrame(t, conn)
	if frame.Error == "" {
		t.Fatalf("expected an error frame for an unknown participant")
	}
}

func TestServeWSRejectsMissingQuery(t *testing.T) {
	_, server := wsServer(t)
	resp, err := http.Get(server.URL + "/ws")
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func ptr[T any](v T) *T { return &v }
