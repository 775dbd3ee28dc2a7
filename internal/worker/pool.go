package worker

import (
	"context"
	"errors"
	"sync"
	"time"

	"admix-studio/internal/apperrors"
	"admix-studio/internal/queue"
	"admix-studio/internal/workflow"

	"github.com/rs/zerolog"
)

const (
	LaneStandard = "standard"
	LaneLong     = "long"
)

// Registry résout la définition d'un événement
type Registry interface {
	Lookup(eventName string) (workflow.Definition, bool)
}

// WorkerPool consomme la queue et répartit les runs entre deux voies : les
// runs longs (génération vidéo) ne bloquent jamais les runs courts.
type WorkerPool struct {
	queue    queue.Queue
	runner   Runner
	registry Registry
	config   *PoolConfig

	standard *lane
	long     *lane

	cancel  context.CancelFunc
	wg      sync.WaitGroup
	running bool
	mu      sync.RWMutex

	republished int64
	retried     int64
	dropped     int64
	statsMu     sync.Mutex
}

// PoolConfig contient la configuration du pool de workers
type PoolConfig struct {
	WorkerCount     int           // runs courts simultanés
	LongWorkerCount int           // runs longs simultanés
	MaxAttempts     int           // livraisons d'un run avant abandon
	RetryDelay      time.Duration // délai multiplié par le numéro de tentative
	RunTimeout      time.Duration // durée maximale d'une tentative
	LaneWait        time.Duration // attente d'un worker libre avant report
	BusyDelay       time.Duration // report d'un événement quand sa voie est pleine
}

func DefaultPoolConfig() *PoolConfig {
	return &PoolConfig{
		WorkerCount:     4,
		LongWorkerCount: 4,
		MaxAttempts:     workflow.DefaultMaxAttempts,
		RetryDelay:      10 * time.Second,
		RunTimeout:      45 * time.Minute,
		LaneWait:        5 * time.Second,
		BusyDelay:       5 * time.Second,
	}
}

// lane jeu de workers libres d'une voie
type lane struct {
	name    string
	workers []*Worker
	idle    chan *Worker
}

func newLane(name string, count int, runner Runner) *lane {
	l := &lane{name: name, idle: make(chan *Worker, count)}
	for i := 0; i < count; i++ {
		w := NewWorker(i, name, runner)
		l.workers = append(l.workers, w)
		l.idle <- w
	}
	return l
}

func NewWorkerPool(q queue.Queue, runner Runner, registry Registry, config *PoolConfig) *WorkerPool {
	defaults := DefaultPoolConfig()
	if config == nil {
		config = defaults
	}
	if config.WorkerCount < 1 {
		config.WorkerCount = defaults.WorkerCount
	}
	if config.LongWorkerCount < 1 {
		config.LongWorkerCount = defaults.LongWorkerCount
	}
	if config.MaxAttempts < 1 {
		config.MaxAttempts = defaults.MaxAttempts
	}
	if config.LaneWait <= 0 {
		config.LaneWait = defaults.LaneWait
	}
	if config.BusyDelay <= 0 {
		config.BusyDelay = defaults.BusyDelay
	}

	return &WorkerPool{
		queue:    q,
		runner:   runner,
		registry: registry,
		config:   config,
		standard: newLane(LaneStandard, config.WorkerCount, runner),
		long:     newLane(LaneLong, config.LongWorkerCount, runner),
	}
}

// Start lance la consommation de la queue
func (p *WorkerPool) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.running {
		return nil
	}

	log := zerolog.Ctx(ctx)
	consumeCtx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	concurrency := p.config.WorkerCount + p.config.LongWorkerCount

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		if err := p.queue.Consume(consumeCtx, concurrency, p.handle); err != nil && !errors.Is(err, context.Canceled) {
			log.Error().Err(err).Msg("WorkerPool: queue consumer stopped")
		}
	}()

	p.running = true
	log.Info().
		Int("standard_workers", p.config.WorkerCount).
		Int("long_workers", p.config.LongWorkerCount).
		Msg("WorkerPool: started")
	return nil
}

// Stop interrompt la consommation et attend la fin des runs en cours. Les
// runs interrompus sont republiés pour reprendre à leur dernier checkpoint.
func (p *WorkerPool) Stop() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.running {
		return nil
	}

	p.cancel()
	p.wg.Wait()

	for _, l := range []*lane{p.standard, p.long} {
		for _, w := range l.workers {
			w.stop()
		}
	}
	p.running = false
	return nil
}

func (p *WorkerPool) laneFor(def workflow.Definition) *lane {
	if def.Long {
		return p.long
	}
	return p.standard
}

// handle traite un message de la queue. Le message est acquitté au retour :
// toute suite à donner (relance, report) est republiée avant.
func (p *WorkerPool) handle(ctx context.Context, event queue.Event) error {
	log := zerolog.Ctx(ctx).With().Str("run_id", event.ID).Str("event", event.Name).Logger()

	def, ok := p.registry.Lookup(event.Name)
	if !ok {
		p.count(&p.dropped)
		log.Error().Msg("WorkerPool: no workflow for event, dropping")
		return nil
	}

	// tentative différée : attente sans occuper de worker
	if wait := time.Until(event.NotBefore); wait > 0 {
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			p.republish(ctx, event, "shutdown while delayed")
			return nil
		case <-timer.C:
		}
	}

	l := p.laneFor(def)
	var w *Worker
	wait := time.NewTimer(p.config.LaneWait)
	select {
	case w = <-l.idle:
		wait.Stop()
	case <-wait.C:
		deferred := event
		deferred.NotBefore = time.Now().UTC().Add(p.config.BusyDelay)
		p.republish(ctx, deferred, "lane busy")
		return nil
	case <-ctx.Done():
		wait.Stop()
		p.republish(ctx, event, "shutdown before start")
		return nil
	}
	defer func() { l.idle <- w }()

	err := w.process(ctx, event, p.config.RunTimeout)
	if err == nil {
		return nil
	}

	switch {
	case ctx.Err() != nil:
		// arrêt du pool : même tentative, reprise au dernier checkpoint
		p.republish(ctx, event, "shutdown during run")
	case apperrors.Retryable(err) && event.Attempt < p.config.MaxAttempts:
		next := event.Retry(time.Duration(event.Attempt) * p.config.RetryDelay)
		p.count(&p.retried)
		p.republish(ctx, next, "retry")
	default:
		log.Error().Err(err).Int("attempt", event.Attempt).Msg("WorkerPool: run abandoned")
	}
	return err
}

func (p *WorkerPool) republish(ctx context.Context, event queue.Event, reason string) {
	log := zerolog.Ctx(ctx)
	if err := p.queue.Publish(context.WithoutCancel(ctx), event); err != nil {
		log.Error().Err(err).Str("run_id", event.ID).Str("reason", reason).Msg("WorkerPool: failed to republish event")
		return
	}
	p.count(&p.republished)
	log.Info().
		Str("run_id", event.ID).
		Str("reason", reason).
		Int("attempt", event.Attempt).
		Time("not_before", event.NotBefore).
		Msg("WorkerPool: event republished")
}

func (p *WorkerPool) count(counter *int64) {
	p.statsMu.Lock()
	*counter++
	p.statsMu.Unlock()
}

// GetStats retourne les statistiques du pool
func (p *WorkerPool) GetStats() PoolStats {
	p.mu.RLock()
	running := p.running
	p.mu.RUnlock()

	p.statsMu.Lock()
	stats := PoolStats{
		Running:     running,
		Republished: p.republished,
		Retried:     p.retried,
		Dropped:     p.dropped,
	}
	p.statsMu.Unlock()

	for _, l := range []*lane{p.standard, p.long} {
		stats.Lanes = append(stats.Lanes, LaneStats{
			Name:    l.name,
			Workers: len(l.workers),
			Idle:    len(l.idle),
		})
		for _, w := range l.workers {
			stats.Workers = append(stats.Workers, w.GetStats())
		}
	}
	return stats
}

func (p *WorkerPool) GetConfig() *PoolConfig {
	return p.config
}

// PoolStats contient les statistiques du pool
type PoolStats struct {
	Running     bool          `json:"running"`
	Republished int64         `json:"republished"`
	Retried     int64         `json:"retried"`
	Dropped     int64         `json:"dropped"`
	Lanes       []LaneStats   `json:"lanes"`
	Workers     []WorkerStats `json:"workers"`
}

type LaneStats struct {
	Name    string `json:"name"`
	Workers int    `json:"workers"`
	Idle    int    `json:"idle"`
}
