// Package kafka publishes docket events to Kafka and consumes the side
// effect failure topic in the worker.
package kafka

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"net"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"

	"github.com/turtacn/KeyIP-Docket/internal/config"
	"github.com/turtacn/KeyIP-Docket/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/KeyIP-Docket/pkg/errors"
)

const (
	TopicTaskCreated       = "docket.task.created"
	TopicAccrualCreated    = "docket.accrual.created"
	TopicAccrualDeferred   = "docket.accrual.deferred"
	TopicSideEffectsFailed = "docket.side_effects.failed"
	TopicDeadLetter        = "docket.dead_letter"
)

// eventTopics maps the event types of the services to their topics.
var eventTopics = map[string]string{
	"task.created":        TopicTaskCreated,
	"accrual.created":     TopicAccrualCreated,
	"accrual.deferred":    TopicAccrualDeferred,
	"side_effects.failed": TopicSideEffectsFailed,
}

// TopicFor returns the topic of an event type. Unknown types are published
// under "docket." + eventType.
func TopicFor(eventType string) string {
	if t, ok := eventTopics[eventType]; ok {
		return t
	}
	return "docket." + eventType
}

const (
	SourceService = "keyip-docket"
	SchemaVersion = "v1"
)

// EventEnvelope wraps every published payload.
type EventEnvelope struct {
	EventID       string            `json:"event_id"`
	EventType     string            `json:"event_type"`
	Source        string            `json:"source"`
	Timestamp     time.Time         `json:"timestamp"`
	SchemaVersion string            `json:"schema_version"`
	Payload       json.RawMessage   `json:"payload"`
	Metadata      map[string]string `json:"metadata,omitempty"`
}

// NewEventEnvelope marshals payload into a fresh envelope.
func NewEventEnvelope(eventType string, payload interface{}) (*EventEnvelope, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSerialization, "failed to marshal payload")
	}
	return &EventEnvelope{
		EventID:       uuid.NewString(),
		EventType:     eventType,
		Source:        SourceService,
		Timestamp:     time.Now().UTC(),
		SchemaVersion: SchemaVersion,
		Payload:       data,
	}, nil
}

// DecodePayload unmarshals the payload into target. An empty payload leaves
// target untouched.
func (e *EventEnvelope) DecodePayload(target interface{}) error {
	if len(e.Payload) == 0 || string(e.Payload) == "null" {
		return nil
	}
	if err := json.Unmarshal(e.Payload, target); err != nil {
		return errors.Wrap(err, errors.ErrCodeSerialization, "failed to decode event payload")
	}
	return nil
}

// ToMessage encodes the envelope as a message on topic.
func (e *EventEnvelope) ToMessage(topic, key string) (kafka.Message, error) {
	val, err := json.Marshal(e)
	if err != nil {
		return kafka.Message{}, errors.Wrap(err, errors.ErrCodeSerialization, "failed to marshal envelope")
	}
	return kafka.Message{
		Topic: topic,
		Key:   []byte(key),
		Value: val,
		Headers: []kafka.Header{
			{Key: "event_id", Value: []byte(e.EventID)},
			{Key: "event_type", Value: []byte(e.EventType)},
			{Key: "source_service", Value: []byte(e.Source)},
			{Key: "schema_version", Value: []byte(e.SchemaVersion)},
		},
		Time: e.Timestamp,
	}, nil
}

// DecodeEnvelope reads the envelope carried by msg.
func DecodeEnvelope(msg kafka.Message) (*EventEnvelope, error) {
	if len(msg.Value) == 0 {
		return nil, errors.New(errors.ErrCodeValidation, "empty message value")
	}
	var env EventEnvelope
	if err := json.Unmarshal(msg.Value, &env); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSerialization, "failed to unmarshal envelope")
	}
	return &env, nil
}

// Header returns the value of the named header, or "".
func Header(msg kafka.Message, key string) string {
	for _, h := range msg.Headers {
		if h.Key == key {
			return string(h.Value)
		}
	}
	return ""
}

// ─────────────────────────────────────────────────────────────────────────────
// Topic administration
// ─────────────────────────────────────────────────────────────────────────────

// TopicConfig describes a topic to create.
type TopicConfig struct {
	Name              string
	NumPartitions     int
	ReplicationFactor int
	RetentionMs       int64
}

const day = int64(24 * time.Hour / time.Millisecond)

// DefaultTopics lists the topics the docket services use.
func DefaultTopics(replication int) []TopicConfig {
	if replication < 1 {
		replication = 1
	}
	return []TopicConfig{
		{Name: TopicTaskCreated, NumPartitions: 6, ReplicationFactor: replication, RetentionMs: 7 * day},
		{Name: TopicAccrualCreated, NumPartitions: 6, ReplicationFactor: replication, RetentionMs: 30 * day},
		{Name: TopicAccrualDeferred, NumPartitions: 3, ReplicationFactor: replication, RetentionMs: 30 * day},
		{Name: TopicSideEffectsFailed, NumPartitions: 3, ReplicationFactor: replication, RetentionMs: 14 * day},
		{Name: TopicDeadLetter, NumPartitions: 1, ReplicationFactor: replication, RetentionMs: 90 * day},
	}
}

// ConnInterface is the part of *kafka.Conn the topic manager uses.
type ConnInterface interface {
	CreateTopics(topics ...kafka.TopicConfig) error
	ReadPartitions(topics ...string) ([]kafka.Partition, error)
	Close() error
}

// TopicManager creates topics on the cluster controller.
type TopicManager struct {
	conn   ConnInterface
	logger logging.Logger
}

// NewTopicManager connects to the controller of the cluster in cfg.
func NewTopicManager(cfg config.KafkaConfig, log logging.Logger) (*TopicManager, error) {
	if len(cfg.Brokers) == 0 {
		return nil, errors.New(errors.ErrCodeValidation, "brokers required")
	}
	dialer, err := newDialer(cfg)
	if err != nil {
		return nil, err
	}
	conn, err := dialer.Dial("tcp", cfg.Brokers[0])
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeExternalService, "failed to dial kafka")
	}
	controller, err := conn.Controller()
	_ = conn.Close()
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeExternalService, "failed to locate kafka controller")
	}
	cconn, err := dialer.Dial("tcp", net.JoinHostPort(controller.Host, strconv.Itoa(controller.Port)))
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeExternalService, "failed to dial kafka controller")
	}
	return NewTopicManagerWithConn(cconn, log), nil
}

// NewTopicManagerWithConn wraps an open connection.
func NewTopicManagerWithConn(conn ConnInterface, log logging.Logger) *TopicManager {
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &TopicManager{conn: conn, logger: log.Named("kafka_topics")}
}

// EnsureTopics creates the missing topics. Existing topics are left as is.
func (m *TopicManager) EnsureTopics(ctx context.Context, topics []TopicConfig) error {
	for _, t := range topics {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := m.createTopic(t); err != nil {
			return err
		}
	}
	return nil
}

func (m *TopicManager) createTopic(t TopicConfig) error {
	if t.Name == "" {
		return errors.New(errors.ErrCodeValidation, "topic name required")
	}
	if t.NumPartitions <= 0 || t.ReplicationFactor <= 0 {
		return errors.Newf(errors.ErrCodeValidation, "topic %s needs positive partitions and replication", t.Name)
	}
	kc := kafka.TopicConfig{
		Topic:             t.Name,
		NumPartitions:     t.NumPartitions,
		ReplicationFactor: t.ReplicationFactor,
	}
	if t.RetentionMs > 0 {
		kc.ConfigEntries = []kafka.ConfigEntry{{ConfigName: "retention.ms", ConfigValue: strconv.FormatInt(t.RetentionMs, 10)}}
	}
	err := m.conn.CreateTopics(kc)
	if err == nil {
		m.logger.Info("Topic created", logging.String("topic", t.Name))
		return nil
	}
	if stderrors.Is(err, kafka.TopicAlreadyExists) {
		return nil
	}
	if ok, _ := m.TopicExists(t.Name); ok {
		return nil
	}
	return errors.Wrapf(err, errors.ErrCodeExternalService, "failed to create topic %s", t.Name)
}

// TopicExists reports whether name has any partition.
func (m *TopicManager) TopicExists(name string) (bool, error) {
	parts, err := m.conn.ReadPartitions(name)
	if err != nil {
		return false, errors.Wrapf(err, errors.ErrCodeExternalService, "failed to read partitions of %s", name)
	}
	return len(parts) > 0, nil
}

func (m *TopicManager) Close() error {
	return m.conn.Close()
}

//Personal.AI order the ending
