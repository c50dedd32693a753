// cmd/historian/main.go is an asynchronous historian service that pops lobby
// event records from the Redis journal queue and persists them to PostgreSQL.
// It is a pure analytics sink: the coordinator never reads anything back,
// so losing it costs history, not correctness.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"sync"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/joho/godotenv/autoload"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/webminigames/lobbyd/internal/journal"
)

// HistorianService encapsulates the Redis + DB logic for capturing lobby
// events in batched transactions.
type HistorianService struct {
	redisClient *redis.Client
	pool        *pgxpool.Pool
	queueName   string
	batchSize   int
	flushDelay  time.Duration
	logger      *logrus.Logger

	batchMu  sync.Mutex
	batch    []journal.Record
	ctx      context.Context
	cancelFn context.CancelFunc
}

// NewHistorianService constructs a HistorianService from environment
// variables or defaults.
func NewHistorianService(logger *logrus.Logger) *HistorianService {
	batchSize := getEnvInt("HISTORIAN_BATCH_SIZE", 20)
	flushMs := getEnvInt("HISTORIAN_FLUSH_MS", 500)

	redisAddr := getEnv("REDIS_ADDR", "localhost:6379")
	rdb := redis.NewClient(&redis.Options{
		Addr: redisAddr,
	})

	ctx, cancel := context.WithCancel(context.Background())
	return &HistorianService{
		redisClient: rdb,
		queueName:   getEnv("HISTORIAN_QUEUE_NAME", journal.DefaultQueueName),
		batchSize:   batchSize,
		flushDelay:  time.Duration(flushMs) * time.Millisecond,
		logger:      logger,
		batch:       make([]journal.Record, 0, batchSize),
		ctx:         ctx,
		cancelFn:    cancel,
	}
}

// Run connects to the database, starts the drain loop, and blocks until
// Stop is called.
func (hs *HistorianService) Run() error {
	pool, err := pgxpool.New(hs.ctx, os.Getenv("DATABASE_URL"))
	if err != nil {
		return fmt.Errorf("unable to create connection pool: %w", err)
	}
	hs.pool = pool
	defer pool.Close()

	go hs.readRedisLoop()

	hs.logger.Info("lobbyd-historian service started")
	<-hs.ctx.Done()
	hs.flushBatchToDB()
	hs.logger.Info("lobbyd-historian shutting down")
	return nil
}

// Stop gracefully stops the historian service.
func (hs *HistorianService) Stop() {
	hs.cancelFn()
}

// readRedisLoop continuously uses BLPop to retrieve records from the Redis
// queue, flushing the accumulated batch on a timer.
func (hs *HistorianService) readRedisLoop() {
	ticker := time.NewTicker(hs.flushDelay)
	defer ticker.Stop()

	for {
		select {
		case <-hs.ctx.Done():
			return

		case <-ticker.C:
			hs.flushBatchToDB()

		default:
			// BLPop with a short timeout so context cancellation is handled.
			res, err := hs.redisClient.BLPop(hs.ctx, 3*time.Second, hs.queueName).Result()
			if err != nil && !errors.Is(err, redis.Nil) {
				if hs.ctx.Err() != nil {
					return
				}
				hs.logger.Errorf("BLPop: %v", err)
				continue
			}
			if len(res) < 2 {
				continue
			}

			// res[0] is the queue name and res[1] the payload.
			var rec journal.Record
			if err := json.Unmarshal([]byte(res[1]), &rec); err != nil {
				hs.logger.Warnf("invalid journal record: %v", err)
				continue
			}
			hs.appendToBatch(rec)
		}
	}
}

// appendToBatch adds a record to the in-memory batch and flushes if the
// threshold is reached.
func (hs *HistorianService) appendToBatch(rec journal.Record) {
	hs.batchMu.Lock()
	hs.batch = append(hs.batch, rec)
	full := len(hs.batch) >= hs.batchSize
	hs.batchMu.Unlock()
	if full {
		hs.flushBatchToDB()
	}
}

// flushBatchToDB writes the current batch to the database in a single
// transaction.
func (hs *HistorianService) flushBatchToDB() {
	hs.batchMu.Lock()
	if len(hs.batch) == 0 {
		hs.batchMu.Unlock()
		return
	}
	batchCopy := make([]journal.Record, len(hs.batch))
	copy(batchCopy, hs.batch)
	hs.batch = hs.batch[:0]
	hs.batchMu.Unlock()

	ctx := context.Background()
	err := beginTxFunc(ctx, hs.pool, pgx.TxOptions{}, func(tx pgx.Tx) error {
		for _, rec := range batchCopy {
			if err := insertLobbyEventTx(ctx, tx, rec); err != nil {
				return fmt.Errorf("insertLobbyEventTx: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		hs.logger.Errorf("flushBatchToDB: %v", err)
	} else {
		hs.logger.Infof("Flushed %d lobby events to DB", len(batchCopy))
	}
}

// insertLobbyEventTx inserts a single event row and upserts the lobby row it
// refers to. Lobby deletion finalizes the lobby row.
func insertLobbyEventTx(ctx context.Context, tx pgx.Tx, rec journal.Record) error {
	upsertLobbyQ := `
		INSERT INTO lobbies (id, status, first_seen)
		VALUES ($1, 'live', NOW())
		ON CONFLICT (id) DO NOTHING
	`
	if _, err := tx.Exec(ctx, upsertLobbyQ, rec.LobbyID); err != nil {
		return err
	}

	payload, err := json.Marshal(rec.Payload)
	if err != nil {
		return err
	}
	eventInsertQ := `
		INSERT INTO lobby_events (lobby_id, actor_id, event_type, payload, ts)
		VALUES ($1, $2, $3, $4, to_timestamp($5 / 1000.0))
	`
	if _, err := tx.Exec(ctx, eventInsertQ,
		rec.LobbyID, rec.ActorID, rec.EventType, payload, rec.Timestamp,
	); err != nil {
		return err
	}

	if rec.EventType == "lobby_deleted" {
		finalizeQ := `
			UPDATE lobbies
			SET status = 'closed', closed_at = NOW()
			WHERE id = $1 AND status = 'live'
		`
		if _, err := tx.Exec(ctx, finalizeQ, rec.LobbyID); err != nil {
			return err
		}
	}
	return nil
}

// beginTxFunc starts a transaction on the pool, calls f with it, and commits
// or rolls back as needed.
func beginTxFunc(ctx context.Context, pool *pgxpool.Pool, txOptions pgx.TxOptions, f func(tx pgx.Tx) error) error {
	tx, err := pool.BeginTx(ctx, txOptions)
	if err != nil {
		return err
	}
	if err := f(tx); err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil {
			return fmt.Errorf("tx rollback error: %v; original error: %w", rbErr, err)
		}
		return err
	}
	return tx.Commit(ctx)
}

func main() {
	logger := logrus.New()

	hs := NewHistorianService(logger)
	go func() {
		if err := hs.Run(); err != nil {
			logger.Fatalf("historian exited: %v", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	hs.Stop()
	logger.Info("Historian shutdown complete")
}

// getEnv retrieves an environment variable's value or returns a default.
func getEnv(key, defVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defVal
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
