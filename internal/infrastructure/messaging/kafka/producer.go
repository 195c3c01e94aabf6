package kafka

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/turtacn/KeyIP-Docket/internal/application/tasking"
	"github.com/turtacn/KeyIP-Docket/internal/config"
	"github.com/turtacn/KeyIP-Docket/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/KeyIP-Docket/pkg/errors"
)

var ErrProducerClosed = errors.New(errors.ErrCodeServiceUnavailable, "producer closed")

const maxMessageBytes = 1 << 20

// WriterInterface is the part of *kafka.Writer the producer uses.
type WriterInterface interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
	Stats() kafka.WriterStats
}

// ProducerMetrics counts what the producer wrote.
type ProducerMetrics struct {
	MessagesSent   atomic.Int64
	MessagesFailed atomic.Int64
	BytesSent      atomic.Int64
}

// Producer publishes event envelopes. It implements tasking.EventPublisher,
// routing each event type to its topic and keying by aggregate id.
type Producer struct {
	writer  WriterInterface
	logger  logging.Logger
	closed  atomic.Bool
	metrics ProducerMetrics
}

var _ tasking.EventPublisher = (*Producer)(nil)

// NewProducer builds a producer for the cluster in cfg. The writer is
// topic-less; every message names its own topic.
func NewProducer(cfg config.KafkaConfig, log logging.Logger) (*Producer, error) {
	if len(cfg.Brokers) == 0 {
		return nil, errors.New(errors.ErrCodeValidation, "kafka brokers required")
	}
	transport, err := newTransport(cfg)
	if err != nil {
		return nil, err
	}
	batchTimeout := cfg.BatchTimeout
	if batchTimeout <= 0 {
		batchTimeout = 50 * time.Millisecond
	}
	attempts := cfg.MaxAttempts
	if attempts <= 0 {
		attempts = 3
	}
	w := &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Balancer:               &kafka.Hash{},
		MaxAttempts:            attempts,
		BatchTimeout:           batchTimeout,
		WriteTimeout:           10 * time.Second,
		RequiredAcks:           kafka.RequireAll,
		Compression:            kafka.Snappy,
		AllowAutoTopicCreation: false,
		Transport:              transport,
	}
	return NewProducerWithWriter(w, log), nil
}

// NewProducerWithWriter wraps an existing writer.
func NewProducerWithWriter(w WriterInterface, log logging.Logger) *Producer {
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &Producer{writer: w, logger: log.Named("kafka_producer")}
}

// Publish wraps payload in an envelope and writes it to the event's topic.
func (p *Producer) Publish(ctx context.Context, eventType, key string, payload interface{}) error {
	env, err := NewEventEnvelope(eventType, payload)
	if err != nil {
		return err
	}
	msg, err := env.ToMessage(TopicFor(eventType), key)
	if err != nil {
		return err
	}
	return p.Write(ctx, msg)
}

// Write sends prepared messages.
func (p *Producer) Write(ctx context.Context, msgs ...kafka.Message) error {
	if p.closed.Load() {
		return ErrProducerClosed
	}
	var size int64
	for _, m := range msgs {
		if m.Topic == "" {
			return errors.New(errors.ErrCodeValidation, "message topic required")
		}
		if len(m.Value) > maxMessageBytes {
			return errors.Newf(errors.ErrCodeValidation, "message for %s exceeds %d bytes", m.Topic, maxMessageBytes)
		}
		size += int64(len(m.Value))
	}

	start := time.Now()
	if err := p.writer.WriteMessages(ctx, msgs...); err != nil {
		p.metrics.MessagesFailed.Add(int64(len(msgs)))
		p.logger.Error("kafka write failed",
			logging.Int("messages", len(msgs)),
			logging.Err(err))
		return errors.Wrap(err, errors.ErrCodeExternalService, "publish failed")
	}
	p.metrics.MessagesSent.Add(int64(len(msgs)))
	p.metrics.BytesSent.Add(size)
	p.logger.Debug("Messages published",
		logging.Int("messages", len(msgs)),
		logging.Duration("latency", time.Since(start)))
	return nil
}

// Sent returns the number of messages written so far.
func (p *Producer) Sent() int64 { return p.metrics.MessagesSent.Load() }

// Failed returns the number of messages whose write failed.
func (p *Producer) Failed() int64 { return p.metrics.MessagesFailed.Load() }

// Close flushes and closes the writer. Closing twice is a no-op.
func (p *Producer) Close() error {
	if !p.closed.CompareAndSwap(false, true) {
		return nil
	}
	err := p.writer.Close()
	p.logger.Info("Kafka producer closed", logging.Int64("sent", p.metrics.MessagesSent.Load()))
	return err
}

//Personal.AI order the ending
