package asynq

import (
	"encoding/json"
	"os"
	"time"

	"likeness.io/infrastructure/logger"
	queue_tasks "likeness.io/infrastructure/message_queue/tasks"
	mq_types "likeness.io/infrastructure/message_queue/types"

	"github.com/hibiken/asynq"
)

type AsynqBroker struct {
	Client *asynq.Client
}

func redisOpt() asynq.RedisClientOpt {
	return asynq.RedisClientOpt{
		Addr:     os.Getenv("REDIS_ADDR"),
		Password: os.Getenv("REDIS_PASSWORD"),
	}
}

func (aq *AsynqBroker) Start() {
	aq.Client = asynq.NewClient(redisOpt())

	srv := asynq.NewServer(redisOpt(), asynq.Config{
		Concurrency: 20,
		Queues: map[string]int{
			string(mq_types.High):   7,
			string(mq_types.Medium): 2,
			string(mq_types.Low):    1,
		},
	})

	mux := asynq.NewServeMux()
	mux.HandleFunc(string(queue_tasks.HandleIndexReconciliationTaskName), queue_tasks.HandleIndexReconciliationTask)

	go aq.startScheduler()

	if err := srv.Run(mux); err != nil {
		logger.Error("asynq server stopped", logger.LoggerOptions{
			Key:  "error",
			Data: err,
		})
	}
}

// startScheduler runs a periodic safety-net sweep on top of the on-demand
// ones triggered by failed commits.
func (aq *AsynqBroker) startScheduler() {
	interval := os.Getenv("RECONCILE_INTERVAL")
	if interval == "" {
		interval = "@every 10m"
	}

	scheduler := asynq.NewScheduler(redisOpt(), nil)
	payload, _ := json.Marshal(queue_tasks.IndexReconciliationPayload{Reason: "scheduled sweep"})
	_, err := scheduler.Register(interval,
		asynq.NewTask(string(queue_tasks.HandleIndexReconciliationTaskName), payload),
		asynq.Queue(string(mq_types.Low)))
	if err != nil {
		logger.Error("failed registering scheduled reconciliation", logger.LoggerOptions{
			Key:  "error",
			Data: err,
		})
		return
	}
	if err := scheduler.Run(); err != nil {
		logger.Error("asynq scheduler stopped", logger.LoggerOptions{
			Key:  "error",
			Data: err,
		})
	}
}

func (aq *AsynqBroker) Enqueue(task mq_types.QueueTask) error {
	if aq.Client == nil {
		aq.Client = asynq.NewClient(redisOpt())
	}
	if task.TimeOut == 0 {
		task.TimeOut = 60
	}
	if task.MaxRetry == 0 {
		task.MaxRetry = 10
	}
	_, err := aq.Client.Enqueue(asynq.NewTask(string(task.Name), task.Payload),
		asynq.ProcessIn(task.ProcessIn*time.Second),
		asynq.MaxRetry(task.MaxRetry),
		asynq.Timeout(task.TimeOut*time.Second),
		asynq.Queue(string(task.Priority)))
	return err
}
