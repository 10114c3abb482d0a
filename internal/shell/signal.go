package shell

import (
	"context"
	"os"
)

type contextKey int

var signalKey = contextKey(0)

// ContextWithSignal returns a context carrying the OS signal
// that caused the application to stop.
func ContextWithSignal(ctx context.Context, sig os.Signal) context.Context {
	return context.WithValue(ctx, signalKey, sig)
}

// SignalFromContext returns the OS signal stored in ctx.
func SignalFromContext(ctx context.Context) (os.Signal, bool) {
	sig, ok := ctx.Value(signalKey).(os.Signal)
	return sig, ok && sig != nil
}
