package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// minLevelCore filters entries below min before they reach the wrapped core.
// It replaces the wrapped core's own level check, so it can also open up
// levels the shared atomic level would drop.
type minLevelCore struct {
	zapcore.Core

	min zapcore.Level
}

// Enabled reports whether l passes the filter.
func (c *minLevelCore) Enabled(l zapcore.Level) bool {
	return c.min.Enabled(l)
}

// Check registers the filter as the writing core for enabled entries.
//
//nolint:gocritic // AddCore requires ent to be passed by value.
func (c *minLevelCore) Check(ent zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if !c.Enabled(ent.Level) {
		return ce
	}

	return ce.AddCore(ent, c)
}

// With keeps the filter on child cores.
//
//nolint:ireturn // zapcore.Core is the contract.
func (c *minLevelCore) With(fields []zapcore.Field) zapcore.Core {
	return &minLevelCore{Core: c.Core.With(fields), min: c.min}
}

// WithLevel derives a logger that only writes entries at lvl or above.
//
//nolint:ireturn // zap.Option is the contract.
func WithLevel(lvl zapcore.Level) zap.Option {
	return zap.WrapCore(func(core zapcore.Core) zapcore.Core {
		return &minLevelCore{Core: core, min: lvl}
	})
}
