package kafka

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/couchcryptid/seismag-engine/internal/domain"
	kafkago "github.com/segmentio/kafka-go"
)

// EngineFeeder is the subset of Engine the ingress adapter drives. Messages
// from all three topics are funneled onto one channel and drained by a
// single goroutine so the engine, which is not safe for concurrent use
// (spec.md §5), only ever sees serialized calls.
type EngineFeeder interface {
	FeedPick(p *domain.Pick) bool
	FeedAmplitude(a *domain.Amplitude, update bool) bool
	FeedOrigin(o *domain.Origin) bool
}

// ReaderConfig names the three topics the ingress adapter subscribes to.
type ReaderConfig struct {
	Brokers         []string
	GroupID         string
	PicksTopic      string
	AmplitudesTopic string
	OriginsTopic    string
}

// Consumer implements the messaging ingress adapter (A3): three Kafka
// readers, one per object kind, each feeding a shared channel that a
// single goroutine drains into the engine.
type Consumer struct {
	readers []*kafkago.Reader
	engine  EngineFeeder
	logger  *slog.Logger

	messages chan rawMessage
}

type rawMessage struct {
	kind   string
	data   []byte
	update bool
}

// NewConsumer builds the three topic readers and the shared feed channel.
func NewConsumer(cfg ReaderConfig, engine EngineFeeder, logger *slog.Logger) *Consumer {
	newReader := func(topic string) *kafkago.Reader {
		return kafkago.NewReader(kafkago.ReaderConfig{
			Brokers: cfg.Brokers,
			GroupID: cfg.GroupID,
			Topic:   topic,
		})
	}
	return &Consumer{
		readers: []*kafkago.Reader{
			newReader(cfg.PicksTopic),
			newReader(cfg.AmplitudesTopic),
			newReader(cfg.OriginsTopic),
		},
		engine:   engine,
		logger:   logger,
		messages: make(chan rawMessage, 256),
	}
}

// Run starts a reader goroutine per topic and drains the shared channel on
// the calling goroutine, feeding the engine serially. Blocks until ctx is
// cancelled, then returns nil.
func (c *Consumer) Run(ctx context.Context) error {
	kinds := []string{"pick", "amplitude", "origin"}
	for i, r := range c.readers {
		go c.readLoop(ctx, r, kinds[i])
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case msg := <-c.messages:
			c.dispatch(msg)
		}
	}
}

func (c *Consumer) readLoop(ctx context.Context, r *kafkago.Reader, kind string) {
	backoff := 200 * time.Millisecond
	maxBackoff := 5 * time.Second

	for {
		m, err := r.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			c.logger.Warn("kafka fetch failed", "kind", kind, "error", err)
			if !sleepWithContext(ctx, backoff) {
				return
			}
			backoff = nextBackoff(backoff, maxBackoff)
			continue
		}
		backoff = 200 * time.Millisecond

		update := false
		for _, h := range m.Headers {
			if h.Key == "update" && string(h.Value) == "true" {
				update = true
			}
		}

		select {
		case c.messages <- rawMessage{kind: kind, data: m.Value, update: update}:
		case <-ctx.Done():
			return
		}

		if err := r.CommitMessages(ctx, m); err != nil {
			c.logger.Warn("kafka commit failed", "kind", kind, "error", err)
		}
	}
}

func (c *Consumer) dispatch(msg rawMessage) {
	switch msg.kind {
	case "pick":
		var p domain.Pick
		if err := json.Unmarshal(msg.data, &p); err != nil {
			c.logger.Warn("invalid pick message", "error", err)
			return
		}
		c.engine.FeedPick(&p)
	case "amplitude":
		var a domain.Amplitude
		if err := json.Unmarshal(msg.data, &a); err != nil {
			c.logger.Warn("invalid amplitude message", "error", err)
			return
		}
		c.engine.FeedAmplitude(&a, msg.update)
	case "origin":
		var o domain.Origin
		if err := json.Unmarshal(msg.data, &o); err != nil {
			c.logger.Warn("invalid origin message", "error", err)
			return
		}
		c.engine.FeedOrigin(&o)
	}
}

// Close closes every underlying reader.
func (c *Consumer) Close() error {
	var firstErr error
	for _, r := range c.readers {
		if err := r.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func nextBackoff(current, maxBackoff time.Duration) time.Duration {
	next := current * 2
	if next > maxBackoff {
		return maxBackoff
	}
	return next
}

func sleepWithContext(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
