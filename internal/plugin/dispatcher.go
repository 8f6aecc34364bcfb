package plugin

import (
	"context"
	"sync"

	log "github.com/sirupsen/logrus"

	"github.com/ayusman/formcheck/internal/metrics"
)

// maxInFlight caps concurrent plugin processes across all events.
const maxInFlight = 4

// Dispatcher fans events out to subscribed plugins without blocking the
// caller. Events that arrive while maxInFlight runs are busy are dropped.
type Dispatcher struct {
	manager  *Manager
	executor *Executor
	metrics  *metrics.Manager

	ctx    context.Context
	cancel context.CancelFunc
	sem    chan struct{}
	wg     sync.WaitGroup
}

// NewDispatcher creates a Dispatcher. m may be nil.
func NewDispatcher(manager *Manager, executor *Executor, m *metrics.Manager) *Dispatcher {
	ctx, cancel := context.WithCancel(context.Background())
	return &Dispatcher{
		manager:  manager,
		executor: executor,
		metrics:  m,
		ctx:      ctx,
		cancel:   cancel,
		sem:      make(chan struct{}, maxInFlight),
	}
}

// Dispatch starts one run per plugin subscribed to req.Event and returns
// the number of runs started.
func (d *Dispatcher) Dispatch(req Request) int {
	if d.ctx.Err() != nil {
		return 0
	}

	started := 0
	for _, p := range d.manager.Subscribers(req.Event) {
		select {
		case d.sem <- struct{}{}:
		default:
			log.Warnf("plugin: %s busy, dropping %s", p.Manifest.Name, req.Event)
			d.record(p, "dropped")
			continue
		}

		d.wg.Add(1)
		started++
		go func(p *Plugin) {
			defer d.wg.Done()
			defer func() { <-d.sem }()
			d.run(p, req)
		}(p)
	}
	return started
}

func (d *Dispatcher) run(p *Plugin, req Request) {
	resp, err := d.executor.Execute(d.ctx, p, &req)
	switch {
	case err != nil:
		log.Warnf("plugin: %s on %s: %v", p.Manifest.Name, req.Event, err)
		d.record(p, "error")
	case !resp.Success:
		log.Warnf("plugin: %s on %s reported failure: %s", p.Manifest.Name, req.Event, resp.Error)
		d.record(p, "failed")
	default:
		log.Debugf("plugin: %s handled %s", p.Manifest.Name, req.Event)
		d.record(p, "ok")
	}
}

func (d *Dispatcher) record(p *Plugin, status string) {
	if d.metrics == nil {
		return
	}
	d.metrics.CounterPluginRuns.WithLabelValues(p.Manifest.Name, status).Inc()
}

// Wait blocks until every started run has finished.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

// Close cancels running plugins and waits for them to exit. Dispatch is a
// no-op afterwards.
func (d *Dispatcher) Close() {
	d.cancel()
	d.wg.Wait()
}
