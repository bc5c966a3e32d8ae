package cron

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/hibiken/asynq"

	"counselhub/config"
	"counselhub/services/chat"
	"counselhub/services/tasks"
	"counselhub/utils"
)

// InitSessionExpiryWorker runs the async worker in background. It sweeps
// chat sessions whose 24-hour window has closed, as a durable backstop
// behind the in-process countdown tick.
func InitSessionExpiryWorker(mgr *chat.Manager) {
	redisOpts := asynq.RedisClientOpt{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisQueueDB,
	}

	srv := asynq.NewServer(
		redisOpts,
		asynq.Config{
			Concurrency: 10,
			Queues: map[string]int{
				"default": 1,
			},
		},
	)

	mux := asynq.NewServeMux()
	mux.HandleFunc(tasks.TypeSessionExpire, handleSessionExpiry(mgr))

	// Start Redis health monitor
	go monitorRedisConnection()

	// Start async worker with retry logic
	go func() {
		log.Println("[SessionExpiryWorker] Starting async worker...")
		const maxAttempts = 5

		for attempts := 1; attempts <= maxAttempts; attempts++ {
			if err := srv.Run(mux); err != nil {
				log.Printf("[SessionExpiryWorker] Attempt %d/%d failed to start worker: %v", attempts, maxAttempts, err)

				if attempts == maxAttempts {
					log.Fatal("[SessionExpiryWorker] Max retry attempts reached. Exiting.")
				}
				time.Sleep(time.Duration(attempts*2) * time.Second) // Exponential backoff
			} else {
				break
			}
		}
	}()
}

func handleSessionExpiry(mgr *chat.Manager) asynq.HandlerFunc {
	return func(ctx context.Context, task *asynq.Task) error {
		var p tasks.SessionExpiryPayload
		if err := json.Unmarshal(task.Payload(), &p); err != nil {
			log.Printf("[SessionExpiryHandler] Invalid payload: %v", err)
			return err
		}

		if mgr.ExpireIfCurrent(ctx, p.SessionID) {
			log.Printf("[SessionExpiryHandler] Cleared expired chat session %s", p.SessionID)
		} else {
			// The session was already replaced or cleared; nothing to do.
			log.Printf("[SessionExpiryHandler] Session %s no longer current, skipping", p.SessionID)
		}
		return nil
	}
}

// monitorRedisConnection pings Redis periodically to detect failures at runtime.
func monitorRedisConnection() {
	client := utils.GetCacheClient()
	ctx := context.Background()

	for {
		if err := client.Ping(ctx).Err(); err != nil {
			log.Printf("[SessionExpiryWorker] Redis connection lost: %v", err)
		}
		time.Sleep(10 * time.Second)
	}
}
