package kafka

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/KeyIP-Docket/internal/config"
	"github.com/turtacn/KeyIP-Docket/pkg/errors"
)

type mockWriter struct {
	mock.Mock
}

func (m *mockWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	return m.Called(ctx, msgs).Error(0)
}

func (m *mockWriter) Close() error {
	return m.Called().Error(0)
}

func (m *mockWriter) Stats() kafka.WriterStats {
	return kafka.WriterStats{}
}

func TestTopicFor(t *testing.T) {
	assert.Equal(t, TopicTaskCreated, TopicFor("task.created"))
	assert.Equal(t, TopicAccrualCreated, TopicFor("accrual.created"))
	assert.Equal(t, TopicAccrualDeferred, TopicFor("accrual.deferred"))
	assert.Equal(t, TopicSideEffectsFailed, TopicFor("side_effects.failed"))
	assert.Equal(t, "docket.other.thing", TopicFor("other.thing"))
}

func TestNewProducer_RequiresBrokers(t *testing.T) {
	_, err := NewProducer(config.KafkaConfig{}, nil)
	assert.True(t, errors.IsValidation(err))
}

func TestNewProducer_RejectsUnknownSASL(t *testing.T) {
	_, err := NewProducer(config.KafkaConfig{
		Brokers:       []string{"localhost:9092"},
		SASLMechanism: "GSSAPI",
	}, nil)
	assert.True(t, errors.IsValidation(err))
}

func TestProducer_Publish(t *testing.T) {
	w := new(mockWriter)
	var sent []kafka.Message
	w.On("WriteMessages", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		sent = args.Get(1).([]kafka.Message)
	}).Return(nil)
	p := NewProducerWithWriter(w, nil)

	err := p.Publish(context.Background(), "task.created", "T-7", map[string]string{"task_id": "T-7"})
	require.NoError(t, err)
	require.Len(t, sent, 1)

	msg := sent[0]
	assert.Equal(t, TopicTaskCreated, msg.Topic)
	assert.Equal(t, "T-7", string(msg.Key))
	assert.Equal(t, "task.created", Header(msg, "event_type"))
	assert.Equal(t, SourceService, Header(msg, "source_service"))

	env, err := DecodeEnvelope(msg)
	require.NoError(t, err)
	assert.Equal(t, "task.created", env.EventType)
	assert.Equal(t, SchemaVersion, env.SchemaVersion)
	assert.Equal(t, env.EventID, Header(msg, "event_id"))
	var payload map[string]string
	require.NoError(t, env.DecodePayload(&payload))
	assert.Equal(t, "T-7", payload["task_id"])
	assert.Equal(t, int64(1), p.Sent())
}

func TestProducer_PublishUnencodable(t *testing.T) {
	p := NewProducerWithWriter(new(mockWriter), nil)

	err := p.Publish(context.Background(), "task.created", "T-1", make(chan int))
	assert.True(t, errors.IsCode(err, errors.ErrCodeSerialization))
}

func TestProducer_WriteFailure(t *testing.T) {
	w := new(mockWriter)
	w.On("WriteMessages", mock.Anything, mock.Anything).Return(stderrors.New("leader not available"))
	p := NewProducerWithWriter(w, nil)

	err := p.Publish(context.Background(), "accrual.created", "T-1", struct{}{})
	assert.True(t, errors.IsCode(err, errors.ErrCodeExternalService))
	assert.Equal(t, int64(1), p.Failed())
}

func TestProducer_WriteValidation(t *testing.T) {
	p := NewProducerWithWriter(new(mockWriter), nil)

	err := p.Write(context.Background(), kafka.Message{Value: []byte("x")})
	assert.True(t, errors.IsValidation(err))

	err = p.Write(context.Background(), kafka.Message{Topic: "t", Value: make([]byte, maxMessageBytes+1)})
	assert.True(t, errors.IsValidation(err))
}

func TestProducer_Close(t *testing.T) {
	w := new(mockWriter)
	w.On("Close").Return(nil).Once()
	p := NewProducerWithWriter(w, nil)

	require.NoError(t, p.Close())
	require.NoError(t, p.Close())
	err := p.Publish(context.Background(), "task.created", "T-1", nil)
	assert.ErrorIs(t, err, ErrProducerClosed)
	w.AssertExpectations(t)
}

func TestEnvelope_EmptyPayload(t *testing.T) {
	env := &EventEnvelope{Payload: json.RawMessage("null")}
	var target struct{ A int }
	require.NoError(t, env.DecodePayload(&target))
	assert.Zero(t, target.A)

	_, err := DecodeEnvelope(kafka.Message{})
	assert.True(t, errors.IsValidation(err))
}

//Personal.AI order the ending
