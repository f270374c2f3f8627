package messagequeue

import (
	"context"
	"encoding/json"

	asynq_broker "likeness.io/infrastructure/message_queue/asynq"
	queue_tasks "likeness.io/infrastructure/message_queue/tasks"
	mq_types "likeness.io/infrastructure/message_queue/types"
)

var TaskQueue mq_types.TaskQueueBroker = &asynq_broker.AsynqBroker{}

func StartQueue() {
	TaskQueue.Start()
}

// ReconcileScheduler lets the registration pipeline request a sweep without
// knowing the broker.
type ReconcileScheduler struct{}

func (ReconcileScheduler) ScheduleIndexReconciliation(ctx context.Context, reason string) error {
	payload, err := json.Marshal(queue_tasks.IndexReconciliationPayload{Reason: reason})
	if err != nil {
		return err
	}
	return TaskQueue.Enqueue(mq_types.QueueTask{
		Name:     queue_tasks.HandleIndexReconciliationTaskName,
		Payload:  payload,
		Priority: mq_types.High,
	})
}
