package orchestrator_test

import (
	"bytes"
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/thrive-wellness/devenv/internal/orchestrator"
	"github.com/thrive-wellness/devenv/internal/process"
)

type mockSpawner struct {
	mock.Mock
}

var _ orchestrator.Spawner = (*mockSpawner)(nil)

func (m *mockSpawner) Spawn(ctx context.Context, config process.StartConfig) (orchestrator.Handle, error) {
	args := m.Called(ctx, config)

	handle, _ := args.Get(0).(orchestrator.Handle)
	return handle, args.Error(1)
}

type mockHandle struct {
	mock.Mock

	pid  int
	done chan struct{}
	once sync.Once
}

var _ orchestrator.Handle = (*mockHandle)(nil)

func newMockHandle(pid int) *mockHandle {
	return &mockHandle{
		pid:  pid,
		done: make(chan struct{}),
	}
}

func (h *mockHandle) Name() string {
	return "proc-" + strconv.Itoa(h.pid)
}

func (h *mockHandle) Pid() int {
	return h.pid
}

func (h *mockHandle) Done() <-chan struct{} {
	return h.done
}

func (h *mockHandle) ExitEvent() process.ExitEvent {
	code := 0
	return process.ExitEvent{Code: &code}
}

func (h *mockHandle) Terminate(timeout time.Duration) error {
	args := h.Called(timeout)
	if args.Error(0) == nil {
		h.exit()
	}
	return args.Error(0)
}

func (h *mockHandle) Kill(timeout time.Duration) error {
	args := h.Called(timeout)
	h.exit()
	return args.Error(0)
}

// exit simulates the process exiting on its own.
func (h *mockHandle) exit() {
	h.once.Do(func() { close(h.done) })
}

// syncBuffer is a bytes.Buffer safe for concurrent use.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.buf.String()
}
