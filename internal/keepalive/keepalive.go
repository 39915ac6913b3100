package keepalive

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/RMahshie/graphcapture/internal/metrics"
)

// DefaultInterval matches the idle timeout of hosted databases that drop
// connections after five minutes.
const DefaultInterval = 4 * time.Minute

// Pinger is satisfied by *sql.DB
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Prober periodically pings the database so idle connections are not dropped
type Prober struct {
	pinger   Pinger
	interval time.Duration
	timeout  time.Duration
	metrics  *metrics.Collector
}

// NewProber creates a prober. A nil collector disables metrics.
func NewProber(pinger Pinger, interval, timeout time.Duration, collector *metrics.Collector) *Prober {
	if interval <= 0 {
		interval = DefaultInterval
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Prober{
		pinger:   pinger,
		interval: interval,
		timeout:  timeout,
		metrics:  collector,
	}
}

// Run pings on every tick until ctx is cancelled. Failures are logged and
// counted, never returned.
func (p *Prober) Run(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	log.Info().Dur("interval", p.interval).Msg("Database keep-alive started")

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("Database keep-alive stopped")
			return
		case <-ticker.C:
			p.ping(ctx)
		}
	}
}

func (p *Prober) ping(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	if p.metrics != nil {
		p.metrics.KeepAlivePings.Inc()
	}

	if err := p.pinger.PingContext(ctx); err != nil {
		if p.metrics != nil {
			p.metrics.KeepAliveFailures.Inc()
		}
		log.Warn().Err(err).Msg("Database keep-alive ping failed")
		return
	}

	log.Debug().Msg("Database keep-alive ping ok")
}
