package tasks

import (
	"context"
	"log/slog"

	"github.com/geobrief/geobrief/app/database"
)

// SaveSnapshotTask persists one dated briefing snapshot. Persistence
// failures never touch the session tier, so the task just retries.
type SaveSnapshotTask struct {
	Task
	snapshot     database.BriefingSnapshot
	snapshotRepo database.SnapshotRepository
}

func NewSaveSnapshotTask(snapshot database.BriefingSnapshot, snapshotRepo database.SnapshotRepository) *SaveSnapshotTask {
	return &SaveSnapshotTask{
		Task:         NewTask(TaskTypeSaveSnapshot, DefaultMaxRetries),
		snapshot:     snapshot,
		snapshotRepo: snapshotRepo,
	}
}

func (t *SaveSnapshotTask) Execute(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	if err := t.snapshotRepo.SaveSnapshot(t.snapshot); err != nil {
		return err
	}

	slog.Info("Task completed",
		"type", "SaveSnapshot",
		"duration", t.GetDuration(),
		"date", t.snapshot.Date,
		"articles", t.snapshot.ArticleCount)

	return nil
}
