package audit

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

const TaskExport = "audit:export"

// Enqueuer is the slice of *asynq.Client the dispatch worker needs.
type Enqueuer interface {
	Enqueue(task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// ExportPayload asks the exporter to archive delivery logs written at or
// after Since.
type ExportPayload struct {
	Since time.Time `json:"since"`
}

func NewExportTask(p ExportPayload) *asynq.Task {
	payload, _ := json.Marshal(p)
	return asynq.NewTask(TaskExport, payload,
		asynq.MaxRetry(3),
		asynq.Timeout(60*time.Second),
		asynq.Queue("audit"))
}
