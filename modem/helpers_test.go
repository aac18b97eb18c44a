package modem

import (
	"context"
	"errors"
	"os"
	"slices"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/arloliu/go-mbim/logger"
)

func TestMain(m *testing.M) {
	logLevel := os.Getenv("LOG_LEVEL")
	if logLevel == "" {
		logLevel = "info"
	}

	var level logger.LogLevel

	switch logLevel {
	case "debug":
		level = logger.DebugLevel
	case "info":
		level = logger.InfoLevel
	case "warn":
		level = logger.WarnLevel
	case "error":
		level = logger.ErrorLevel
	default:
		level = logger.InfoLevel
	}

	logger.SetLevel(level)

	os.Exit(m.Run())
}

var errInjected = errors.New("injected failure")

const waitTimeout = 2 * time.Second

// fakeBackend records calls. Calls named in block wait for ctx to be done.
type fakeBackend struct {
	mu    sync.Mutex
	calls []string
	errs  map[string]error
	block map[string]bool
	props []ConnectProperties
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{errs: map[string]error{}, block: map[string]bool{}}
}

func (b *fakeBackend) call(ctx context.Context, name string) error {
	b.mu.Lock()
	b.calls = append(b.calls, name)
	err := b.errs[name]
	block := b.block[name]
	b.mu.Unlock()

	if block {
		<-ctx.Done()
		return ctx.Err()
	}

	return err
}

func (b *fakeBackend) Calls() []string {
	b.mu.Lock()
	defer b.mu.Unlock()

	return slices.Clone(b.calls)
}

func (b *fakeBackend) called(name string) bool {
	return slices.Contains(b.Calls(), name)
}

func (b *fakeBackend) RadioPower(ctx context.Context, on bool) error {
	if on {
		return b.call(ctx, "RadioPower(on)")
	}

	return b.call(ctx, "RadioPower(off)")
}

func (b *fakeBackend) Register(ctx context.Context) error   { return b.call(ctx, "Register") }
func (b *fakeBackend) Unregister(ctx context.Context) error { return b.call(ctx, "Unregister") }
func (b *fakeBackend) Disconnect(ctx context.Context) error { return b.call(ctx, "Disconnect") }

func (b *fakeBackend) Connect(ctx context.Context, props ConnectProperties) error {
	b.mu.Lock()
	b.props = append(b.props, props)
	b.mu.Unlock()

	return b.call(ctx, "Connect")
}

// stubOperation is an operation that only records cancellation.
type stubOperation struct {
	kind      OpKind
	cancelled atomic.Bool
}

func (s *stubOperation) Kind() OpKind { return s.kind }
func (s *stubOperation) Cancel()      { s.cancelled.Store(true) }

func occupySlot(m *Modem, op Operation) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.slots[op.Kind()] = op
}

func subscriptionCount(m *Modem) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return len(m.subs)
}

// drainStates returns the new states of all queued changes.
func drainStates(sub *Subscription) []State {
	var states []State
	for {
		change, ok := sub.Poll()
		if !ok {
			return states
		}
		states = append(states, change.New)
	}
}

func waitResult(t *testing.T, res *Result) error {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), waitTimeout)
	defer cancel()

	err := res.Wait(ctx)
	require.NotErrorIs(t, err, context.DeadlineExceeded, "result not resolved")

	return err
}
