package zarc

import (
	"github.com/klauspost/compress/zstd"
	"go.uber.org/zap"
)

// EOption configures an Encoder at construction time.
type EOption func(*encoderOptions) error

type encoderOptions struct {
	logger     *zap.Logger
	zstdEOpts  []zstd.EOption
	compress   bool
	digestType DigestType
}

func (o *encoderOptions) setDefault() {
	*o = encoderOptions{
		logger:     zap.NewNop(),
		compress:   true,
		digestType: DigestTypeBlake3,
	}
}

// WithELogger sets the logger the encoder reports diagnostics to.
func WithELogger(l *zap.Logger) EOption {
	return func(o *encoderOptions) error { o.logger = l; return nil }
}

// WithZSTDEOptions forwards options to the underlying zstd encoder; they
// take effect on the next content frame.
func WithZSTDEOptions(opts ...zstd.EOption) EOption {
	return func(o *encoderOptions) error { o.zstdEOpts = opts; return nil }
}

// WithCompression sets the initial compress flag (default true).
func WithCompression(enabled bool) EOption {
	return func(o *encoderOptions) error { o.compress = enabled; return nil }
}
