package cli

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/emilhornlund/quiz-game-service/internal/app"
	"github.com/emilhornlund/quiz-game-service/internal/config"
	"github.com/emilhornlund/quiz-game-service/internal/domain"
	"github.com/emilhornlund/quiz-game-service/internal/infra/memory"
	pgloader "github.com/emilhornlund/quiz-game-service/internal/infra/postgres"
	redisinfra "github.com/emilhornlund/quiz-game-service/internal/infra/redis"
	"github.com/emilhornlund/quiz-game-service/internal/logger"
	transport "github.com/emilhornlund/quiz-game-service/internal/transport/http"
)

const (
	defaultHeartbeat = 30 * time.Second
	defaultExpiry    = 6 * time.Hour
	defaultRedisTTL  = 12 * time.Hour
	defaultQuizTTL   = 10 * time.Minute
	sweepInterval    = 10 * time.Minute
)

// NewServeCmd builds the CLI subcommand to start the server.
func NewServeCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the quiz game server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	log := logger.New(cfg.Logging.Level)

	if cfg.Postgres.URL != "" {
		if err := runMigrationsWithConfig(ctx, cfg); err != nil {
			return err
		}
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
	}
	redisTTL := config.Duration(cfg.Redis.TTL, defaultRedisTTL)
	heartbeat := config.Duration(cfg.Game.Heartbeat, defaultHeartbeat)
	expiry := config.Duration(cfg.Game.Expiry, defaultExpiry)
	quizTTL := config.Duration(cfg.Quiz.TTL, defaultQuizTTL)

	var pool *pgxpool.Pool
	if cfg.Postgres.URL != "" {
		pool, err = pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
		defer pool.Close()
	}

	var loader memory.QuizLoader = memory.NewStaticQuizLoader(sampleQuizzes())
	if pool != nil {
		loader = pgloader.NewQuizLoader(pool)
	}

	var quizzes app.QuizRepository
	var games app.GameRepository
	var answers app.AnswerStore
	var bus app.EventBus
	var locker app.GameLocker
	if redisClient != nil {
		quizzes = redisinfra.NewQuizRepository(redisClient, loader, quizTTL)
		games = redisinfra.NewGameRepository(redisClient, redisTTL)
		answers = redisinfra.NewAnswerStore(redisClient, redisTTL)
		bus = redisinfra.NewEventBus(redisClient, heartbeat, log)
		locker = redisinfra.NewGameLocker(redisClient)
	} else {
		quizzes = memory.NewQuizRepository(loader, quizTTL)
		games = memory.NewGameRepository()
		answers = memory.NewAnswerStore()
		bus = memory.NewEventBus(heartbeat)
		locker = memory.NewGameLocker()
	}
	defer bus.Close()

	service := app.NewGameService(games, answers, quizzes, bus, locker, log)
	defer service.Shutdown()

	apiHandler := transport.NewAPIHandler(service, log)
	sseHandler := transport.NewSSEHandler(service, log)
	wsHandler := transport.NewWSHandler(service, log)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	mux.HandleFunc("POST /api/games", apiHandler.CreateGame)
	mux.HandleFunc("POST /api/games/join", apiHandler.JoinGame)
	mux.HandleFunc("GET /api/games/{gameID}/events", sseHandler.ServeEvents)
	mux.HandleFunc("/ws", wsHandler.ServeWS)

	server := &http.Server{
		Addr:        ":" + finalPort,
		Handler:     mux,
		ReadTimeout: 15 * time.Second,
		// No WriteTimeout: SSE connections are long-lived.
	}

	sweepDone := make(chan struct{})
	go func() {
		defer close(sweepDone)
		ticker := time.NewTicker(sweepInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				sweepCtx, cancel := context.WithTimeout(context.Background(), time.Minute)
				if n, err := service.ExpireStale(sweepCtx, expiry); err != nil {
					log.Error().Err(err).Msg("expiry sweep failed")
				} else if n > 0 {
					log.Info().Int("games", n).Msg("expired stale games")
				}
				cancel()
			}
		}
	}()

	go func() {
		log.Info().Str("port", finalPort).Msg("starting quiz game service")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("server failed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		log.Info().Msg("shutting down server")
	case <-ctx.Done():
		log.Info().Msg("context canceled, shutting down server")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// sampleQuizzes provides a minimal quiz so the service runs without
// Postgres; swap the loader in production.
func sampleQuizzes() map[string]domain.Quiz {
	return map[string]domain.Quiz{
		"quiz-1": {
			ID:   "quiz-1",
			Name: "Capitals",
			Mode: domain.GameModeClassic,
			Questions: []domain.Question{
				{
					Type:          domain.QuestionTypeMultiChoice,
					Text:          "What is the capital of Sweden?",
					Points:        1000,
					Duration:      30,
					Options:       []string{"Oslo", "Stockholm", "Helsinki", "Copenhagen"},
					CorrectOption: 1,
				},
				{
					Type:        domain.QuestionTypeTypeAnswer,
					Text:        "Which city hosts the Eiffel Tower?",
					Points:      1000,
					Duration:    30,
					CorrectText: "Paris",
				},
			},
		},
	}
}
