// cmd/server/main.go
package main

import (
	"net/http"
	"os"
	"strconv"
	"time"

	_ "github.com/joho/godotenv/autoload"
	"github.com/sirupsen/logrus"

	"github.com/webminigames/lobbyd/internal/auth"
	"github.com/webminigames/lobbyd/internal/games"
	"github.com/webminigames/lobbyd/internal/handlers"
	"github.com/webminigames/lobbyd/internal/journal"
	"github.com/webminigames/lobbyd/internal/matchmaker"
	"github.com/webminigames/lobbyd/internal/middleware"
)

func main() {
	auth.Init()

	logger := logrus.New()
	logger.SetLevel(logrus.DebugLevel)

	catalog := games.Default()
	if path := os.Getenv("GAME_CATALOG_FILE"); path != "" {
		loaded, err := games.LoadFile(path)
		if err != nil {
			logger.Fatalf("failed to load game catalog: %v", err)
		}
		catalog = loaded
	}

	// The journal is optional; without REDIS_ADDR the coordinator simply
	// skips publishing.
	var journalPub *journal.Publisher
	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		pub, err := journal.Connect(addr, getEnvInt("REDIS_DB", 0), os.Getenv("JOURNAL_QUEUE_NAME"))
		if err != nil {
			logger.Fatalf("failed to connect journal: %v", err)
		}
		journalPub = pub
		defer pub.Close()
	}

	countdown := time.Duration(getEnvInt("LOBBY_QUEUE_COUNTDOWN_SEC", 0)) * time.Second
	mm := matchmaker.New(countdown, logger)

	srv := handlers.NewServer(catalog, mm, journalPub, logger)

	mux := http.NewServeMux()
	mux.Handle("/ws", middleware.LogMiddleware(logger)(http.HandlerFunc(
		handlers.WSHandler(logger, srv),
	)))
	mux.Handle("/lobbies", middleware.LogMiddleware(logger)(http.HandlerFunc(
		handlers.ListLobbiesHandler(srv),
	)))
	mux.HandleFunc("/healthz", handlers.HealthzHandler())

	addr := ":8080"
	if port := os.Getenv("PORT"); port != "" {
		addr = ":" + port
	}
	logger.Infof("lobbyd running on %s", addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		logger.Fatalf("server exited: %v", err)
	}
}

// getEnvInt retrieves an integer environment variable or returns a default.
func getEnvInt(key string, defVal int) int {
	if val := os.Getenv(key); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			return n
		}
	}
	return defVal
}
