package watch

import (
	"container/heap"
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/webwatch/webwatch/internal/config"
)

type schedulerEntry struct {
	target  *config.Target
	nextRun int64 // UnixNano for fast comparison
	index   int
}

type schedulerHeap []*schedulerEntry

func (h schedulerHeap) Len() int           { return len(h) }
func (h schedulerHeap) Less(i, j int) bool { return h[i].nextRun < h[j].nextRun }
func (h schedulerHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *schedulerHeap) Push(x any) {
	entry := x.(*schedulerEntry)
	entry.index = len(*h)
	*h = append(*h, entry)
}

func (h *schedulerHeap) Pop() any {
	old := *h
	n := len(old)
	entry := old[n-1]
	old[n-1] = nil
	entry.index = -1
	*h = old[:n-1]
	return entry
}

// Scheduler dispatches tick jobs using a min-heap ordered by next-run time.
// The target set is fixed at construction; config changes require a restart.
type Scheduler struct {
	jobs        chan<- Job
	logger      *slog.Logger
	mu          sync.Mutex
	heap        schedulerHeap
	droppedJobs atomic.Int64
}

func NewScheduler(targets []*config.Target, jobs chan<- Job, logger *slog.Logger) *Scheduler {
	s := &Scheduler{jobs: jobs, logger: logger}

	nowNano := time.Now().UnixNano()
	for _, t := range targets {
		heap.Push(&s.heap, &schedulerEntry{target: t, nextRun: nowNano})
	}
	return s
}

func (s *Scheduler) Run(ctx context.Context) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	s.dispatch(time.Now())

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			s.dispatch(now)
		}
	}
}

func (s *Scheduler) dispatch(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	nowNano := now.UnixNano()

	for s.heap.Len() > 0 && s.heap[0].nextRun <= nowNano {
		entry := heap.Pop(&s.heap).(*schedulerEntry)

		select {
		case s.jobs <- Job{Target: entry.target}:
		default:
			s.droppedJobs.Add(1)
			s.logger.Warn("scheduler: job channel full, skipping", "target", entry.target.Name)
		}

		// Skipped ticks still advance, so a slow tick delays rather
		// than queues subsequent runs of the same target.
		entry.nextRun = nowNano + int64(entry.target.Interval.Std())
		heap.Push(&s.heap, entry)
	}
}

// DroppedJobs reports how many ticks were skipped because the job channel
// was full.
func (s *Scheduler) DroppedJobs() int64 {
	return s.droppedJobs.Load()
}
