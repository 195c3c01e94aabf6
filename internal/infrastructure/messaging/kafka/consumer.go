package kafka

import (
	"context"
	stderrors "errors"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/turtacn/KeyIP-Docket/internal/config"
	"github.com/turtacn/KeyIP-Docket/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/KeyIP-Docket/pkg/errors"
)

var ErrAlreadyRunning = errors.New(errors.ErrCodeConflict, "consumer already running")

// Handler processes one message. Returning an error retries the message;
// errors made with Permanent skip the retries.
type Handler func(ctx context.Context, msg kafka.Message) error

type permanentError struct{ err error }

func (e permanentError) Error() string { return e.err.Error() }
func (e permanentError) Unwrap() error { return e.err }

// Permanent marks err as not worth retrying.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return permanentError{err: err}
}

func isPermanent(err error) bool {
	var p permanentError
	return stderrors.As(err, &p)
}

// ReaderInterface is the part of *kafka.Reader the consumer uses.
type ReaderInterface interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// RetryConfig bounds handler retries. Messages that still fail are written
// to DeadLetterTopic when a dead letter writer is set.
type RetryConfig struct {
	MaxRetries      int
	Backoff         time.Duration
	MaxBackoff      time.Duration
	DeadLetterTopic string
}

// ConsumerMetrics counts consumed messages by outcome.
type ConsumerMetrics struct {
	Consumed     atomic.Int64
	Processed    atomic.Int64
	Failed       atomic.Int64
	Retried      atomic.Int64
	DeadLettered atomic.Int64
}

// Consumer reads a consumer group and dispatches messages by topic. Offsets
// are committed once a message is handled or dead-lettered.
type Consumer struct {
	reader     ReaderInterface
	deadLetter *Producer
	retry      RetryConfig
	logger     logging.Logger

	mu       sync.RWMutex
	handlers map[string]Handler

	running atomic.Bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	metrics ConsumerMetrics
}

// NewConsumer joins cfg.GroupID on topics.
func NewConsumer(cfg config.KafkaConfig, topics []string, retry RetryConfig, deadLetter *Producer, log logging.Logger) (*Consumer, error) {
	if len(cfg.Brokers) == 0 {
		return nil, errors.New(errors.ErrCodeValidation, "kafka brokers required")
	}
	if cfg.GroupID == "" {
		return nil, errors.New(errors.ErrCodeValidation, "kafka group id required")
	}
	if len(topics) == 0 {
		return nil, errors.New(errors.ErrCodeValidation, "at least one topic required")
	}
	dialer, err := newDialer(cfg)
	if err != nil {
		return nil, err
	}
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:           cfg.Brokers,
		GroupID:           cfg.GroupID,
		GroupTopics:       topics,
		MinBytes:          1,
		MaxBytes:          10 << 20,
		MaxWait:           time.Second,
		SessionTimeout:    30 * time.Second,
		HeartbeatInterval: 3 * time.Second,
		StartOffset:       kafka.FirstOffset,
		Dialer:            dialer,
	})
	return NewConsumerWithReader(reader, retry, deadLetter, log), nil
}

// NewConsumerWithReader wraps an existing reader.
func NewConsumerWithReader(r ReaderInterface, retry RetryConfig, deadLetter *Producer, log logging.Logger) *Consumer {
	if log == nil {
		log = logging.NewNopLogger()
	}
	if retry.MaxRetries < 0 {
		retry.MaxRetries = 0
	}
	if retry.Backoff <= 0 {
		retry.Backoff = time.Second
	}
	if retry.MaxBackoff <= 0 {
		retry.MaxBackoff = 30 * time.Second
	}
	if retry.DeadLetterTopic == "" {
		retry.DeadLetterTopic = TopicDeadLetter
	}
	return &Consumer{
		reader:     r,
		deadLetter: deadLetter,
		retry:      retry,
		logger:     log.Named("kafka_consumer"),
		handlers:   make(map[string]Handler),
	}
}

// Subscribe sets the handler of topic.
func (c *Consumer) Subscribe(topic string, h Handler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handlers[topic] = h
	c.logger.Info("Subscribed to topic", logging.String("topic", topic))
}

// Start runs the fetch loop until Close or ctx ends.
func (c *Consumer) Start(ctx context.Context) error {
	if c.running.Swap(true) {
		return ErrAlreadyRunning
	}
	ctx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	c.wg.Add(1)
	go c.loop(ctx)
	c.logger.Info("Kafka consumer started")
	return nil
}

func (c *Consumer) loop(ctx context.Context) {
	defer c.wg.Done()
	for {
		m, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			c.logger.Error("fetch failed", logging.Err(err))
			select {
			case <-ctx.Done():
				return
			case <-time.After(time.Second):
			}
			continue
		}
		c.metrics.Consumed.Add(1)
		c.handle(ctx, m)
		if ctx.Err() != nil {
			return
		}
		if err := c.reader.CommitMessages(ctx, m); err != nil && ctx.Err() == nil {
			c.logger.Error("commit failed",
				logging.String("topic", m.Topic),
				logging.Int64("offset", m.Offset),
				logging.Err(err))
		}
	}
}

func (c *Consumer) handle(ctx context.Context, m kafka.Message) {
	c.mu.RLock()
	h, ok := c.handlers[m.Topic]
	c.mu.RUnlock()
	if !ok {
		c.logger.Warn("no handler for topic", logging.String("topic", m.Topic))
		return
	}

	err := h(ctx, m)
	backoff := c.retry.Backoff
	for attempt := 0; err != nil && !isPermanent(err) && attempt < c.retry.MaxRetries; attempt++ {
		c.metrics.Retried.Add(1)
		select {
		case <-ctx.Done():
			return
		case <-time.After(backoff):
		}
		err = h(ctx, m)
		backoff *= 2
		if backoff > c.retry.MaxBackoff {
			backoff = c.retry.MaxBackoff
		}
	}
	if err == nil {
		c.metrics.Processed.Add(1)
		return
	}

	c.metrics.Failed.Add(1)
	c.logger.Error("message processing failed",
		logging.String("topic", m.Topic),
		logging.Int64("offset", m.Offset),
		logging.Err(err))
	c.sendDeadLetter(ctx, m, err)
}

func (c *Consumer) sendDeadLetter(ctx context.Context, m kafka.Message, cause error) {
	if c.deadLetter == nil {
		return
	}
	dl := kafka.Message{
		Topic: c.retry.DeadLetterTopic,
		Key:   m.Key,
		Value: m.Value,
		Headers: append(append([]kafka.Header(nil), m.Headers...),
			kafka.Header{Key: "original_topic", Value: []byte(m.Topic)},
			kafka.Header{Key: "original_offset", Value: []byte(strconv.FormatInt(m.Offset, 10))},
			kafka.Header{Key: "error_message", Value: []byte(cause.Error())},
		),
	}
	if err := c.deadLetter.Write(ctx, dl); err != nil {
		c.logger.Error("dead letter write failed", logging.Err(err))
		return
	}
	c.metrics.DeadLettered.Add(1)
}

// Metrics returns the live counters.
func (c *Consumer) Metrics() *ConsumerMetrics { return &c.metrics }

// Close stops the loop and closes the reader.
func (c *Consumer) Close() error {
	if !c.running.CompareAndSwap(true, false) {
		return nil
	}
	if c.cancel != nil {
		c.cancel()
	}
	c.wg.Wait()
	err := c.reader.Close()
	c.logger.Info("Kafka consumer closed", logging.Int64("consumed", c.metrics.Consumed.Load()))
	return err
}

//Personal.AI order the ending
