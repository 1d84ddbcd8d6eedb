package diag

import (
	"context"

	"go.uber.org/zap"

	"github.com/dshills/relay/event"
)

// Consumer logs every failure reported on a bus's error topic. It
// never fails itself, so attaching one cannot feed the bus's loop
// guard.
type Consumer struct {
	logger *zap.Logger
	off    func()
}

// Attach subscribes a failure consumer to the bus. Detach the returned
// consumer to stop logging.
func Attach(b *event.Bus, logger *zap.Logger) (*Consumer, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	c := &Consumer{logger: logger}
	off, err := event.OnFailure(b, func(ctx context.Context, f event.Failure) error {
		c.logger.Warn("handler failure",
			zap.String("origin", f.Origin.String()),
			zap.Uint64("registration", f.RegistrationID),
			zap.Time("time", f.Time),
			zap.Error(f.Err))
		return nil
	})
	if err != nil {
		return nil, err
	}

	c.off = off
	return c, nil
}

// Detach removes the consumer's subscription. Safe to call more than
// once.
func (c *Consumer) Detach() {
	if c.off != nil {
		c.off()
	}
}
