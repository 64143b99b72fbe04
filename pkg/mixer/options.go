package mixer

import "go.uber.org/zap"

type Option func(c *Compositor)

func WithLogger(logger *zap.Logger) Option {
	return func(c *Compositor) {
		c.log = logger.With(zap.String("via", "compositor"))
	}
}
