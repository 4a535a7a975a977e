package report

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
)

// DefaultSubject is the subject prefix used when none is configured.
const DefaultSubject = "semtrim.stats"

// Publisher publishes stats to NATS: one message per file on
// <prefix>.file and one per run on <prefix>.run. A publisher built from
// an empty URL is disabled and publishes nothing, so call sites need no
// conditionals.
type Publisher struct {
	nc      *nats.Conn
	subject string
	logger  *slog.Logger
}

// NewPublisher connects to NATS at url. An empty url returns a disabled
// publisher; an empty subject prefix uses DefaultSubject.
func NewPublisher(url, subject string, logger *slog.Logger) (*Publisher, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if subject == "" {
		subject = DefaultSubject
	}
	p := &Publisher{subject: subject, logger: logger}
	if url == "" {
		return p, nil
	}

	nc, err := nats.Connect(url,
		nats.Name("semtrim"),
		nats.MaxReconnects(5),
		nats.ReconnectWait(time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("connecting to NATS: %w", err)
	}
	p.nc = nc
	p.logger.Debug("stats publishing enabled", "url", url, "subject", subject)
	return p, nil
}

// Enabled reports whether a connection is live.
func (p *Publisher) Enabled() bool {
	return p != nil && p.nc != nil
}

// PublishFile publishes one file summary.
func (p *Publisher) PublishFile(ctx context.Context, fr FileReport) error {
	return p.publish(ctx, ".file", fr)
}

// PublishRun publishes the run summary.
func (p *Publisher) PublishRun(ctx context.Context, r *Report) error {
	return p.publish(ctx, ".run", r)
}

// publish marshals and sends one message. NATS publishes are synchronous
// without context support, so the context is checked up front.
func (p *Publisher) publish(ctx context.Context, suffix string, v any) error {
	if !p.Enabled() {
		return nil
	}
	subject := p.subject + suffix
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context cancelled before publish: %w", err)
	}
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshaling stats: %w", err)
	}
	if err := p.nc.Publish(subject, data); err != nil {
		return fmt.Errorf("publishing to %s: %w", subject, err)
	}
	return nil
}

// Close flushes pending messages and closes the connection.
func (p *Publisher) Close() error {
	if !p.Enabled() {
		return nil
	}
	return p.nc.Drain()
}
