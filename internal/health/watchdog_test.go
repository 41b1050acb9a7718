package health

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"
)

type stubProber struct {
	err error
}

func (s *stubProber) Ping(_ context.Context) error {
	return s.err
}

func TestCheck_healthyProvider(t *testing.T) {
	var lastStatus bool
	w := New(&stubProber{}, Config{FailThreshold: 3}, zap.NewNop())
	w.SetStatusFunc(func(up bool) { lastStatus = up })

	w.Check(context.Background())

	if !lastStatus {
		t.Error("expected status callback with up=true")
	}
	if w.Degraded() {
		t.Error("provider should not be degraded")
	}
}

func TestCheck_degradesAfterThreshold(t *testing.T) {
	p := &stubProber{err: errors.New("timeout")}
	w := New(p, Config{FailThreshold: 3}, zap.NewNop())

	w.Check(context.Background())
	w.Check(context.Background())
	if w.Degraded() {
		t.Fatal("should not be degraded before the threshold")
	}

	w.Check(context.Background())
	if !w.Degraded() {
		t.Fatal("expected degraded at the threshold")
	}
}

func TestCheck_recovers(t *testing.T) {
	p := &stubProber{err: errors.New("timeout")}
	w := New(p, Config{FailThreshold: 2}, zap.NewNop())

	w.Check(context.Background())
	w.Check(context.Background())
	if !w.Degraded() {
		t.Fatal("expected degraded")
	}

	p.err = nil
	w.Check(context.Background())
	if w.Degraded() {
		t.Error("expected recovery after a successful probe")
	}
}

func TestStart_stopsOnContextCancel(t *testing.T) {
	w := New(&stubProber{}, Config{CheckInterval: 5 * time.Millisecond}, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Start(ctx)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Start did not return after cancellation")
	}
}

func TestNew_defaults(t *testing.T) {
	w := New(&stubProber{}, Config{}, zap.NewNop())
	if w.cfg.CheckInterval != time.Minute {
		t.Errorf("unexpected default interval: %s", w.cfg.CheckInterval)
	}
	if w.cfg.FailThreshold != 3 {
		t.Errorf("unexpected default threshold: %d", w.cfg.FailThreshold)
	}
}
