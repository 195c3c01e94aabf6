package kafka

import (
	"context"

	"github.com/segmentio/kafka-go"

	"github.com/turtacn/KeyIP-Docket/internal/application/tasking"
	"github.com/turtacn/KeyIP-Docket/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/KeyIP-Docket/pkg/errors"
)

// NewSideEffectReplayer returns the handler of TopicSideEffectsFailed. It
// decodes the failure and runs its effect again. Validation and not-found
// failures are permanent; anything else is retried by the consumer.
func NewSideEffectReplayer(exec tasking.Executor, log logging.Logger) Handler {
	if log == nil {
		log = logging.NewNopLogger()
	}
	log = log.Named("side_effect_replay")
	return func(ctx context.Context, msg kafka.Message) error {
		env, err := DecodeEnvelope(msg)
		if err != nil {
			return Permanent(err)
		}
		if env.EventType != tasking.EventSideEffectsFailed {
			log.Warn("unexpected event on failure topic", logging.String("event_type", env.EventType))
			return nil
		}
		var failure tasking.SideEffectFailure
		if err := env.DecodePayload(&failure); err != nil {
			return Permanent(err)
		}
		if failure.Effect.TaskID == "" {
			return Permanent(errors.InvalidParam("side effect failure without task id"))
		}

		res, err := exec.Execute(ctx, failure.Effect)
		if err != nil {
			if errors.IsValidation(err) || errors.IsNotFound(err) {
				return Permanent(err)
			}
			return err
		}
		log.Info("side effect replayed",
			logging.String("kind", string(failure.Effect.Kind)),
			logging.String("task_id", failure.Effect.TaskID),
			logging.Bool("skipped", res.Skipped))
		return nil
	}
}

//Personal.AI order the ending
