// Package agent hosts named contexts, each with its own backlog tracer, and
// keeps their registration and tracer state current in the cluster.
package agent

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/chtzvt/backlogtrace/internal/cluster"
	"github.com/chtzvt/backlogtrace/internal/tracer"
)

var ErrUnknownContext = errors.New("unknown context")

const (
	publishErrorThreshold = 3
	maxPublishBackoff     = 30 * time.Second
	defaultMaxEventBytes  = 4 << 20
)

// Agent supervises the contexts hosted by one process.
type Agent struct {
	ID              string
	Cluster         cluster.Cluster
	Host            string
	Version         string
	HeartbeatPeriod time.Duration
	PublishPeriod   time.Duration
	MaxEventBytes   int64 // ingest request body limit
	Logger          *log.Logger
	Metrics         *AgentMetrics

	mu       sync.RWMutex
	contexts map[string]*tracer.BacklogTracer

	stopCh  chan struct{}
	stopped chan struct{}
	wg      sync.WaitGroup

	publishErrorCount int
	publishBackoff    time.Duration
	skipUntil         time.Time
}

// NewAgent constructs an agent with reasonable defaults.
func NewAgent(cl cluster.Cluster, id string, logger *log.Logger) *Agent {
	host, _ := os.Hostname()
	if logger == nil {
		logger = log.New(os.Stderr, "[agent] ", log.LstdFlags)
	}
	return &Agent{
		ID:              id,
		Cluster:         cl,
		Host:            host,
		HeartbeatPeriod: 5 * time.Second,
		PublishPeriod:   2 * time.Second,
		MaxEventBytes:   defaultMaxEventBytes,
		Logger:          logger,
		Metrics:         &AgentMetrics{},
		contexts:        make(map[string]*tracer.BacklogTracer),
		stopCh:          make(chan struct{}),
		stopped:         make(chan struct{}),
	}
}

// AddContext hosts a new context. It must be called before Run.
func (a *Agent) AddContext(name string, cfg tracer.Config) (*tracer.BacklogTracer, error) {
	if err := cluster.ValidateName(name); err != nil {
		return nil, err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if _, ok := a.contexts[name]; ok {
		return nil, fmt.Errorf("context %s already hosted", name)
	}
	tr := tracer.New(name, cfg)
	a.contexts[name] = tr
	return tr, nil
}

func (a *Agent) Tracer(name string) (*tracer.BacklogTracer, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	tr, ok := a.contexts[name]
	return tr, ok
}

// Contexts returns the hosted context names, sorted.
func (a *Agent) Contexts() []string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	names := make([]string, 0, len(a.contexts))
	for name := range a.contexts {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Record offers ev to the tracer of the named context.
func (a *Agent) Record(name string, ev tracer.Event) (bool, error) {
	tr, ok := a.Tracer(name)
	if !ok {
		return false, fmt.Errorf("%w: %s", ErrUnknownContext, name)
	}
	return tr.Record(ev), nil
}

// Run registers every context and keeps it alive until ctx is cancelled or
// Stop is called. Registrations are revoked on the way out.
func (a *Agent) Run(ctx context.Context) error {
	defer close(a.stopped)

	// Watches are opened before registering so no control is missed.
	watchCtx, cancelWatch := context.WithCancel(ctx)
	defer cancelWatch()
	for _, name := range a.Contexts() {
		ch := a.Cluster.WatchTracerControl(watchCtx, name)
		a.wg.Add(1)
		go func(name string, ch <-chan tracer.Control) {
			defer a.wg.Done()
			a.watchControl(watchCtx, name, ch)
		}(name, ch)
	}

	for _, name := range a.Contexts() {
		if err := a.register(ctx, name); err != nil {
			cancelWatch()
			a.wg.Wait()
			return fmt.Errorf("register %s: %w", name, err)
		}
	}

	heartbeatTicker := time.NewTicker(a.HeartbeatPeriod)
	defer heartbeatTicker.Stop()
	publishTicker := time.NewTicker(a.PublishPeriod)
	defer publishTicker.Stop()

	shutdown := func() {
		cancelWatch()
		a.wg.Wait()
		a.deregisterAll()
	}

	for {
		select {
		case <-ctx.Done():
			a.Logger.Println("context cancelled")
			shutdown()
			return ctx.Err()
		case <-a.stopCh:
			a.Logger.Println("stop requested")
			shutdown()
			return nil
		case <-heartbeatTicker.C:
			a.heartbeat(ctx)
		case <-publishTicker.C:
			a.publishAll(ctx)
		}
	}
}

// Stop signals Run to exit and waits for it.
func (a *Agent) Stop() {
	select {
	case <-a.stopCh:
	default:
		close(a.stopCh)
	}
	<-a.stopped
}

func (a *Agent) register(ctx context.Context, name string) error {
	_, err := a.Cluster.RegisterContext(ctx, cluster.ContextInfo{
		Name:    name,
		ID:      a.ID + "/" + name,
		Host:    a.Host,
		Version: a.Version,
	})
	if err != nil {
		return err
	}
	return a.publish(ctx, name)
}

func (a *Agent) publish(ctx context.Context, name string) error {
	tr, ok := a.Tracer(name)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownContext, name)
	}
	if err := a.Cluster.PublishTracerStatus(ctx, name, tr.Status()); err != nil {
		return err
	}
	return a.Cluster.PublishBacklog(ctx, name, tr.Snapshot())
}

// publishAll pushes every tracer's state, backing off after repeated failures.
func (a *Agent) publishAll(ctx context.Context) {
	if time.Now().Before(a.skipUntil) {
		return
	}
	var lastErr error
	for _, name := range a.Contexts() {
		if err := a.publish(ctx, name); err != nil {
			a.Metrics.IncPublishFailed()
			a.Logger.Printf("publish %s failed: %v", name, err)
			lastErr = err
			continue
		}
		a.Metrics.IncPublished()
	}

	if lastErr == nil {
		a.publishErrorCount = 0
		a.publishBackoff = 0
		return
	}
	a.publishErrorCount++
	if a.publishErrorCount >= publishErrorThreshold {
		a.publishBackoff = nextBackoff(a.publishBackoff)
		a.Logger.Printf("backing off publication for %s due to repeated errors", a.publishBackoff)
		a.skipUntil = time.Now().Add(a.publishBackoff)
	}
}

// nextBackoff doubles cur starting at one second, capped at maxPublishBackoff.
func nextBackoff(cur time.Duration) time.Duration {
	if cur <= 0 {
		return 1 * time.Second
	}
	return min(2*cur, maxPublishBackoff)
}

// heartbeat keeps every registration lease alive, re-registering contexts
// whose lease already expired.
func (a *Agent) heartbeat(ctx context.Context) {
	for _, name := range a.Contexts() {
		err := a.Cluster.HeartbeatContext(ctx, name)
		if errors.Is(err, cluster.ErrContextNotFound) {
			a.Logger.Printf("registration for %s lost, re-registering", name)
			err = a.register(ctx, name)
		}
		if err != nil {
			a.Logger.Printf("heartbeat %s failed: %v", name, err)
		}
	}
}

func (a *Agent) watchControl(ctx context.Context, name string, ch <-chan tracer.Control) {
	for {
		for ctl := range ch {
			tr, ok := a.Tracer(name)
			if !ok {
				continue
			}
			a.Metrics.IncControlsApplied()
			tr.Apply(ctl)
			a.Logger.Printf("applied tracer control to %s (enabled=%t)", name, ctl.Enabled)
			if err := a.publish(ctx, name); err != nil {
				a.Logger.Printf("publish %s after control failed: %v", name, err)
			}
		}
		// Watch ended; reopen unless shutting down.
		select {
		case <-ctx.Done():
			return
		case <-time.After(time.Second):
		}
		ch = a.Cluster.WatchTracerControl(ctx, name)
	}
}

func (a *Agent) deregisterAll() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for _, name := range a.Contexts() {
		if err := a.Cluster.DeregisterContext(ctx, name); err != nil && !errors.Is(err, cluster.ErrContextNotFound) {
			a.Logger.Printf("deregister %s failed: %v", name, err)
		}
	}
}
