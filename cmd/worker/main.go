package main

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"os/signal"
	"strconv"
	"sync"
	"syscall"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/AdamsEmmanuel/Chatbot/internal/bot"
	"github.com/AdamsEmmanuel/Chatbot/internal/chat"
	"github.com/AdamsEmmanuel/Chatbot/internal/config"
	"github.com/AdamsEmmanuel/Chatbot/internal/db"
	"github.com/AdamsEmmanuel/Chatbot/internal/logger"
	"github.com/AdamsEmmanuel/Chatbot/internal/store/rabbitmq"
)

func workerConcurrency() int {
	v := os.Getenv("WORKER_CONCURRENCY")
	if v == "" {
		return 2
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return 2
	}
	if n > 50 {
		return 50
	}
	return n
}

// shouldRequeue reports whether a failed task deserves redelivery. Work cut
// short by shutdown is not the task's fault; attaching the reply twice is
// harmless because the attach is guarded on the response still being empty.
func shouldRequeue(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

func main() {
	cfg := config.Load()

	log := logger.New(cfg.LogFile, cfg.IsProd())
	defer func() { _ = log.Sync() }()

	gdb, err := db.Connect(cfg.DBDSN)
	if err != nil {
		log.Fatal("database connect failed", zap.Error(err))
	}

	svc := chat.NewService(chat.NewRepo(gdb), bot.New())

	conn, err := amqp.Dial(cfg.RabbitURL)
	if err != nil {
		log.Fatal("rabbit dial failed", zap.Error(err))
	}
	defer conn.Close()

	ch, err := conn.Channel()
	if err != nil {
		log.Fatal("rabbit channel failed", zap.Error(err))
	}
	defer ch.Close()

	if _, err := ch.QueueDeclare(cfg.RabbitQueue, true, false, false, false, nil); err != nil {
		log.Fatal("queue declare failed", zap.Error(err))
	}

	concurrency := workerConcurrency()
	if err := ch.Qos(concurrency, 0, false); err != nil {
		log.Fatal("qos failed", zap.Error(err))
	}

	deliveries, err := ch.Consume(cfg.RabbitQueue, "", false, false, false, false, nil)
	if err != nil {
		log.Fatal("consume failed", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info("worker started", zap.String("queue", cfg.RabbitQueue), zap.Int("concurrency", concurrency))

	tasks := make(chan amqp.Delivery, concurrency*2)

	var wg sync.WaitGroup
	wg.Add(concurrency)
	for i := 0; i < concurrency; i++ {
		go func(workerID int) {
			defer wg.Done()
			for d := range tasks {
				var task rabbitmq.ReplyTask
				if err := json.Unmarshal(d.Body, &task); err != nil || task.MessageID == 0 {
					log.Warn("bad task payload", zap.Int("worker", workerID), zap.Error(err))
					_ = d.Nack(false, false)
					continue
				}

				start := time.Now()
				if err := svc.GenerateDeferredReply(ctx, task.MessageID); err != nil {
					log.Error("reply generation failed",
						zap.Int("worker", workerID),
						zap.Uint64("message_id", task.MessageID),
						zap.Duration("cost", time.Since(start)),
						zap.Error(err),
					)
					_ = d.Nack(false, shouldRequeue(err))
					continue
				}

				if err := d.Ack(false); err != nil {
					log.Error("ack failed", zap.Int("worker", workerID), zap.Uint64("message_id", task.MessageID), zap.Error(err))
				}
			}
		}(i)
	}

	for {
		select {
		case <-ctx.Done():
			log.Info("worker shutting down")
			close(tasks)
			wg.Wait()
			return

		case d, ok := <-deliveries:
			if !ok {
				log.Warn("delivery channel closed")
				time.Sleep(1 * time.Second)
				continue
			}
			tasks <- d
		}
	}
}
