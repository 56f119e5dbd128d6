package health

import (
	"context"
	"fmt"
	"testing"
	"time"

	"go.uber.org/zap"
)

func TestRun_allHealthy(t *testing.T) {
	checker := New(time.Second, zap.NewNop())
	checker.Register("postgres", func(_ context.Context) error { return nil })
	checker.Register("redis", func(_ context.Context) error { return nil })

	statuses, ok := checker.Run(context.Background())
	if !ok {
		t.Error("expected overall healthy verdict")
	}
	if len(statuses) != 2 {
		t.Fatalf("expected 2 statuses, got %d", len(statuses))
	}
	for name, st := range statuses {
		if !st.Healthy {
			t.Errorf("%s should be healthy: %s", name, st.Error)
		}
	}
}

func TestRun_oneFailing(t *testing.T) {
	checker := New(time.Second, zap.NewNop())
	checker.Register("postgres", func(_ context.Context) error { return nil })
	checker.Register("amqp", func(_ context.Context) error { return fmt.Errorf("connection refused") })

	statuses, ok := checker.Run(context.Background())
	if ok {
		t.Error("one failing probe must fail the overall verdict")
	}
	if statuses["postgres"].Healthy != true {
		t.Error("postgres should still report healthy")
	}
	if statuses["amqp"].Healthy {
		t.Error("amqp should report unhealthy")
	}
	if statuses["amqp"].Error == "" {
		t.Error("failing probe should carry its error text")
	}
}

func TestRun_probeTimeout(t *testing.T) {
	checker := New(10*time.Millisecond, zap.NewNop())
	checker.Register("stalled", func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})

	done := make(chan struct{})
	go func() {
		_, ok := checker.Run(context.Background())
		if ok {
			t.Error("stalled probe must fail the verdict")
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return; probe timeout not enforced")
	}
}

func TestRun_recordsMetrics(t *testing.T) {
	checker := New(time.Second, zap.NewNop())
	checker.Register("good", func(_ context.Context) error { return nil })
	checker.Register("bad", func(_ context.Context) error { return fmt.Errorf("down") })

	results := make(chan bool, 2)
	checker.SetMetricsRecord(func(success bool) { results <- success })

	checker.Run(context.Background())

	got := map[bool]int{}
	got[<-results]++
	got[<-results]++
	if got[true] != 1 || got[false] != 1 {
		t.Errorf("expected one success and one failure recorded, got %v", got)
	}
}

func TestRun_noChecks(t *testing.T) {
	checker := New(time.Second, zap.NewNop())

	statuses, ok := checker.Run(context.Background())
	if !ok {
		t.Error("no registered probes should report healthy")
	}
	if len(statuses) != 0 {
		t.Errorf("expected no statuses, got %d", len(statuses))
	}
}
