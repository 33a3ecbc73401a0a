package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/geobrief/geobrief/app/cache"
	"github.com/geobrief/geobrief/app/cfg"
	"github.com/geobrief/geobrief/app/database"
	"github.com/geobrief/geobrief/app/feed"
	"github.com/geobrief/geobrief/app/summarizer"
)

var _ TaskSchedulerInterface = (*Scheduler)(nil)

// Scheduler runs the background pipeline off the request path: a worker
// pool draining a task queue, fed by a ticker. Refresh and warm runs are
// single-flight; a trigger that arrives while one is in progress is
// dropped, not queued.
type Scheduler struct {
	pipeline     *feed.Pipeline
	session      *cache.SessionStore
	edge         cache.EdgeCache
	summarizer   *summarizer.Summarizer
	snapshotRepo database.SnapshotRepository

	tickInterval    time.Duration
	refreshInterval time.Duration
	warmInterval    time.Duration
	summaryTopN     int
	workerCount     int

	refreshInFlight atomic.Bool
	warmInFlight    atomic.Bool

	// Unix nanos of the last accepted trigger. Written from both the
	// ticker goroutine and API request goroutines.
	lastRefresh atomic.Int64
	lastWarm    atomic.Int64

	ctx       context.Context
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	taskQueue chan TaskInterface
}

func NewScheduler(pipeline *feed.Pipeline, session *cache.SessionStore,
	edge cache.EdgeCache, s *summarizer.Summarizer,
	snapshotRepo database.SnapshotRepository) TaskSchedulerInterface {
	ctx, cancel := context.WithCancel(context.Background())
	cfg := cfg.Get()

	return &Scheduler{
		pipeline:        pipeline,
		session:         session,
		edge:            edge,
		summarizer:      s,
		snapshotRepo:    snapshotRepo,
		tickInterval:    time.Duration(cfg.SchedulerInterval) * time.Second,
		refreshInterval: time.Duration(cfg.RefreshInterval) * time.Second,
		warmInterval:    time.Duration(cfg.EdgeWarmInterval) * time.Second,
		summaryTopN:     cfg.SummaryTopN,
		workerCount:     cfg.WorkerCount,
		ctx:             ctx,
		cancel:          cancel,
		taskQueue:       make(chan TaskInterface, 100),
	}
}

func (s *Scheduler) Start() {
	for i := 0; i < s.workerCount; i++ {
		s.wg.Add(1)
		go s.worker(i)
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		ticker := time.NewTicker(s.tickInterval)
		defer ticker.Stop()

		// Warm the session tier immediately on startup.
		s.TriggerRefresh()
		s.TriggerWarm()

		for {
			select {
			case <-s.ctx.Done():
				return
			case <-ticker.C:
				s.enqueueDueTasks()
			}
		}
	}()
}

func (s *Scheduler) Stop() {
	s.cancel()
	s.wg.Wait()
	close(s.taskQueue)
}

func (s *Scheduler) EnqueueTask(task TaskInterface) error {
	select {
	case s.taskQueue <- task:
		return nil
	case <-s.ctx.Done():
		return s.ctx.Err()
	default:
		return fmt.Errorf("task queue is full")
	}
}

// TriggerRefresh enqueues a briefing refresh unless one is already in
// flight. Returns whether the trigger was accepted.
func (s *Scheduler) TriggerRefresh() bool {
	if !s.refreshInFlight.CompareAndSwap(false, true) {
		slog.Debug("Refresh already in progress, trigger dropped")
		return false
	}

	task := NewRefreshBriefingTask(s.pipeline, s.session, &s.refreshInFlight, s.enqueueSnapshotSave)
	if err := s.EnqueueTask(task); err != nil {
		s.refreshInFlight.Store(false)
		slog.Warn("Failed to enqueue RefreshBriefingTask", "error", err)
		return false
	}

	s.lastRefresh.Store(time.Now().UnixNano())
	return true
}

// TriggerWarm enqueues an edge cache pre-generation run unless one is
// already in flight.
func (s *Scheduler) TriggerWarm() bool {
	if !s.warmInFlight.CompareAndSwap(false, true) {
		slog.Debug("Edge warm already in progress, trigger dropped")
		return false
	}

	task := NewWarmEdgeCacheTask(s.pipeline, s.edge, s.summarizer,
		s.summaryTopN, 2*s.warmInterval, &s.warmInFlight)
	if err := s.EnqueueTask(task); err != nil {
		s.warmInFlight.Store(false)
		slog.Warn("Failed to enqueue WarmEdgeCacheTask", "error", err)
		return false
	}

	s.lastWarm.Store(time.Now().UnixNano())
	return true
}

// enqueueDueTasks fires the refresh and warm cycles when their
// intervals have elapsed.
func (s *Scheduler) enqueueDueTasks() {
	now := time.Now().UnixNano()

	if now-s.lastRefresh.Load() >= int64(s.refreshInterval) {
		s.TriggerRefresh()
	}

	if now-s.lastWarm.Load() >= int64(s.warmInterval) {
		s.TriggerWarm()
	}
}

func (s *Scheduler) enqueueSnapshotSave(snapshot database.BriefingSnapshot) {
	task := NewSaveSnapshotTask(snapshot, s.snapshotRepo)
	if err := s.EnqueueTask(task); err != nil {
		slog.Warn("Failed to enqueue SaveSnapshotTask", "date", snapshot.Date, "error", err)
	}
}

func (s *Scheduler) worker(id int) {
	defer s.wg.Done()

	for {
		select {
		case task, ok := <-s.taskQueue:
			if !ok {
				return
			}
			s.executeTask(id, task)

		case <-s.ctx.Done():
			return
		}
	}
}

func (s *Scheduler) executeTask(workerID int, task TaskInterface) {
	task.Start()

	taskCtx, cancel := context.WithTimeout(s.ctx, 5*time.Minute)
	defer cancel()

	err := task.Execute(taskCtx)

	if err != nil {
		slog.Error("Worker task execution failed", "worker_id", workerID, "type", string(task.GetType()), "id", task.GetID(), "retry_count", task.GetRetryCount(), "error", err)

		if task.CanRetry() {
			task.IncrementRetryCount()
			retryDelay := time.Duration(1<<uint(task.GetRetryCount()-1)) * time.Second
			if retryDelay > 30*time.Second {
				retryDelay = 30 * time.Second
			}

			slog.Warn("Task retry scheduled", "type", string(task.GetType()), "id", task.GetID(), "retry_count", task.GetRetryCount(), "max_retries", task.GetMaxRetries(), "delay", retryDelay.String())

			go func() {
				time.Sleep(retryDelay)
				select {
				case <-s.ctx.Done():
					slog.Debug("Scheduler stopped, skipping task retry", "type", string(task.GetType()), "id", task.GetID())
					return
				default:
					if retryErr := s.EnqueueTask(task); retryErr != nil {
						slog.Error("Failed to re-enqueue task for retry", "type", string(task.GetType()), "id", task.GetID(), "retry_count", task.GetRetryCount(), "error", retryErr)
					}
				}
			}()
		} else if task.GetMaxRetries() > 0 {
			slog.Error("Task failed after maximum retries", "type", string(task.GetType()), "id", task.GetID(), "retry_count", task.GetRetryCount(), "max_retries", task.GetMaxRetries(), "last_error", err)
		}
	}
}
