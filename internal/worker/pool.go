package worker

import (
	"context"
	"log"
	"sync"

	"github.com/yourusername/decisiond/internal/db"
	"github.com/yourusername/decisiond/internal/llm"
	"github.com/yourusername/decisiond/internal/notify"
	"github.com/yourusername/decisiond/internal/prompts"
	"github.com/yourusername/decisiond/internal/queue"
	"github.com/yourusername/decisiond/internal/tokenizer"
	"github.com/yourusername/decisiond/internal/ws"
)

// Pool manages a set of concurrent Worker goroutines and the cancel handles
// of running analyses.
type Pool struct {
	mu       sync.Mutex
	running  map[int]context.CancelFunc
	wg       sync.WaitGroup
	database *db.DB
	queue    *queue.Queue
	registry *llm.Registry
	library  *prompts.Library
	governor *tokenizer.Governor
	hub      *ws.Hub
	notify   *notify.Dispatcher
	alerter  LimitAlerter
}

// NewPool creates a Pool with all the shared dependencies.
func NewPool(
	database *db.DB,
	q *queue.Queue,
	registry *llm.Registry,
	library *prompts.Library,
	governor *tokenizer.Governor,
	hub *ws.Hub,
	notifier *notify.Dispatcher,
	alerter LimitAlerter,
) *Pool {
	return &Pool{
		running:  make(map[int]context.CancelFunc),
		database: database,
		queue:    q,
		registry: registry,
		library:  library,
		governor: governor,
		hub:      hub,
		notify:   notifier,
		alerter:  alerter,
	}
}

// Start launches size worker goroutines.
func (p *Pool) Start(ctx context.Context, size int) {
	if size < 1 {
		size = 1
	}
	for i := 0; i < size; i++ {
		slot := i
		w := New(slot, p.database, p.queue, p.registry, p.library, p.governor, p.hub, p.notify, p.alerter, p)
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			defer func() {
				if r := recover(); r != nil {
					log.Printf("worker[%d]: panic recovered: %v", slot, r)
				}
			}()
			w.Run(ctx)
		}()
	}
}

// Stop waits for all workers to finish. The caller cancels their context.
func (p *Pool) Stop() {
	p.wg.Wait()
}

// Cancel aborts a running analysis. Returns false if it is not running here.
func (p *Pool) Cancel(analysisID int) bool {
	p.mu.Lock()
	cancel, ok := p.running[analysisID]
	p.mu.Unlock()
	if ok {
		cancel()
	}
	return ok
}

// ActiveRuns returns the IDs of analyses currently executing.
func (p *Pool) ActiveRuns() []int {
	p.mu.Lock()
	defer p.mu.Unlock()
	ids := make([]int, 0, len(p.running))
	for id := range p.running {
		ids = append(ids, id)
	}
	return ids
}

func (p *Pool) trackRun(analysisID int, cancel context.CancelFunc) {
	p.mu.Lock()
	p.running[analysisID] = cancel
	p.mu.Unlock()
}

func (p *Pool) untrackRun(analysisID int) {
	p.mu.Lock()
	delete(p.running, analysisID)
	p.mu.Unlock()
}
