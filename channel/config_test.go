package channel

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arloliu/go-mbim/logger"
	"github.com/arloliu/go-mbim/trace"
)

func TestNewConfig_Defaults(t *testing.T) {
	cfg, err := NewConfig()
	require.NoError(t, err)

	assert.Equal(t, DefaultTimeout, cfg.Timeout())
	assert.Equal(t, uint32(DefaultMaxControlTransfer), cfg.MaxControlTransfer())
	assert.Equal(t, DefaultIndicationQueueSize, cfg.IndicationQueueSize())
	assert.NotNil(t, cfg.Logger())
	assert.NotNil(t, cfg.Clock())
	assert.Equal(t, trace.NopRecorder{}, cfg.recorder)
}

func TestNewConfig_WithOptions(t *testing.T) {
	fc := newFakeClock()
	rec := &trace.MemoryRecorder{}
	l := logger.NewMockLogger()

	cfg, err := NewConfig(
		WithTimeout(30*time.Second),
		WithMaxControlTransfer(512),
		WithIndicationQueueSize(4),
		WithLogger(l),
		WithClock(fc),
		WithRecorder(rec),
	)
	require.NoError(t, err)

	assert.Equal(t, 30*time.Second, cfg.Timeout())
	assert.Equal(t, uint32(512), cfg.MaxControlTransfer())
	assert.Equal(t, 4, cfg.IndicationQueueSize())
	assert.Same(t, l, cfg.Logger())
	assert.Same(t, fc, cfg.Clock())
	assert.Same(t, rec, cfg.recorder)
}

func TestNewConfig_Invalid(t *testing.T) {
	tests := []struct {
		description string
		opt         ConfigOption
	}{
		{"timeout below range", WithTimeout(500 * time.Millisecond)},
		{"timeout above range", WithTimeout(121 * time.Second)},
		{"max control transfer below range", WithMaxControlTransfer(63)},
		{"max control transfer above range", WithMaxControlTransfer(4097)},
		{"zero indication queue", WithIndicationQueueSize(0)},
		{"nil logger", WithLogger(nil)},
		{"nil clock", WithClock(nil)},
		{"nil recorder", WithRecorder(nil)},
	}

	for _, tt := range tests {
		t.Run(tt.description, func(t *testing.T) {
			cfg, err := NewConfig(tt.opt)
			require.ErrorIs(t, err, ErrInvalidConfig)
			require.Nil(t, cfg)
		})
	}
}

func TestNewConfig_Boundaries(t *testing.T) {
	cfg, err := NewConfig(WithTimeout(MinTimeout), WithMaxControlTransfer(MinMaxControlTransfer))
	require.NoError(t, err)
	assert.Equal(t, MinTimeout, cfg.Timeout())
	assert.Equal(t, uint32(MinMaxControlTransfer), cfg.MaxControlTransfer())

	cfg, err = NewConfig(WithTimeout(MaxTimeout), WithMaxControlTransfer(MaxMaxControlTransfer))
	require.NoError(t, err)
	assert.Equal(t, MaxTimeout, cfg.Timeout())
	assert.Equal(t, uint32(MaxMaxControlTransfer), cfg.MaxControlTransfer())
}
