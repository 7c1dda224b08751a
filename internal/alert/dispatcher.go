package alert

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// Dispatcher fans out alert events to matching webhook configurations.
// Configs can be swapped on policy reload; deliveries already started keep
// running and are still covered by Wait.
type Dispatcher struct {
	mu      sync.RWMutex
	configs []AlertConfig
	sender  *Sender
	wg      sync.WaitGroup
}

// deliveryTimeout bounds one event's delivery, retries included.
const deliveryTimeout = 15 * time.Second

// NewDispatcher creates a Dispatcher from webhook configurations.
// An empty list yields a dispatcher that sends nothing.
func NewDispatcher(configs []AlertConfig) *Dispatcher {
	return &Dispatcher{configs: configs, sender: DefaultSender}
}

// SetConfigs replaces the webhook list used by later Dispatch calls.
func (d *Dispatcher) SetConfigs(configs []AlertConfig) {
	d.mu.Lock()
	d.configs = configs
	d.mu.Unlock()
}

// Dispatch sends the event to all webhooks whose Events list contains event.Band.
// Fires goroutines and does not block the caller. Failures are logged.
func (d *Dispatcher) Dispatch(event AlertEvent) {
	d.mu.RLock()
	configs := d.configs
	d.mu.RUnlock()

	for _, cfg := range configs {
		if !matches(cfg.Events, event) {
			continue
		}
		d.wg.Add(1)
		go func(cfg AlertConfig) {
			defer d.wg.Done()
			ctx, cancel := context.WithTimeout(context.Background(), deliveryTimeout)
			defer cancel()
			if err := d.sender.Send(ctx, cfg, event); err != nil {
				log.Warn().Err(err).
					Str("url", cfg.URL).
					Str("request_id", event.RequestID).
					Msg("alert delivery failed")
			}
		}(cfg)
	}
}

// Wait blocks until all in-flight deliveries finish.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

func matches(events []string, event AlertEvent) bool {
	for _, e := range events {
		if e == event.Band {
			return true
		}
	}
	return false
}
