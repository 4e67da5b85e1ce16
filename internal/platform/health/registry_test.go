package health_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/Aidzix/Monday/internal/platform/health"
	"github.com/Aidzix/Monday/mocks"
)

func TestCheckAll_Empty(t *testing.T) {
	t.Parallel()

	r := health.New()
	results := r.CheckAll(context.Background())

	if results == nil {
		t.Fatal("expected non-nil map, got nil")
	}
	if len(results) != 0 {
		t.Errorf("expected empty map, got %d entries", len(results))
	}
}

func TestCheckAll_AllHealthy(t *testing.T) {
	t.Parallel()

	checkerA := mocks.NewMockHealthChecker(t)
	checkerA.EXPECT().Name().Return("board-store")
	checkerA.EXPECT().HealthCheck(mock.Anything).Return(nil)

	checkerB := mocks.NewMockHealthChecker(t)
	checkerB.EXPECT().Name().Return("change-relay")
	checkerB.EXPECT().HealthCheck(mock.Anything).Return(nil)

	r := health.New()
	r.Register(checkerA)
	r.Register(checkerB)

	results := r.CheckAll(context.Background())

	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results["board-store"] != nil {
		t.Errorf("board-store check = %v, want nil", results["board-store"])
	}
	if results["change-relay"] != nil {
		t.Errorf("change-relay check = %v, want nil", results["change-relay"])
	}
}

func TestCheckAll_MixedHealth(t *testing.T) {
	t.Parallel()

	healthy := mocks.NewMockHealthChecker(t)
	healthy.EXPECT().Name().Return("board-store")
	healthy.EXPECT().HealthCheck(mock.Anything).Return(nil)

	unhealthyErr := errors.New("connection refused")
	unhealthy := mocks.NewMockHealthChecker(t)
	unhealthy.EXPECT().Name().Return("identity-api")
	unhealthy.EXPECT().HealthCheck(mock.Anything).Return(unhealthyErr)

	r := health.New()
	r.Register(healthy)
	r.Register(unhealthy)

	results := r.CheckAll(context.Background())

	if results["board-store"] != nil {
		t.Errorf("board-store check = %v, want nil", results["board-store"])
	}
	if results["identity-api"] == nil {
		t.Fatal("identity-api check = nil, want error")
	}
	if results["identity-api"].Error() != "connection refused" {
		t.Errorf("identity-api check = %q, want %q", results["identity-api"].Error(), "connection refused")
	}
}

func TestCheckAll_ContextPropagated(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	checker := mocks.NewMockHealthChecker(t)
	checker.EXPECT().Name().Return("identity-api")
	checker.EXPECT().HealthCheck(mock.MatchedBy(func(ctx context.Context) bool {
		return ctx.Err() != nil
	})).Return(context.Canceled)

	r := health.New()
	r.Register(checker)

	results := r.CheckAll(ctx)

	if !errors.Is(results["identity-api"], context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", results["identity-api"])
	}
}

func TestCheckAll_DuplicateNames_LastWriteWins(t *testing.T) {
	t.Parallel()

	first := mocks.NewMockHealthChecker(t)
	first.EXPECT().Name().Return("board-store")
	first.EXPECT().HealthCheck(mock.Anything).Return(nil)

	secondErr := errors.New("second failure")
	second := mocks.NewMockHealthChecker(t)
	second.EXPECT().Name().Return("board-store")
	second.EXPECT().HealthCheck(mock.Anything).Return(secondErr)

	r := health.New()
	r.Register(first)
	r.Register(second)

	results := r.CheckAll(context.Background())

	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
	got, ok := results["board-store"]
	if !ok {
		t.Fatal(`expected result for key "board-store", but it was missing`)
	}
	if !errors.Is(got, secondErr) {
		t.Errorf("board-store check = %v, want %v (from last registered checker)", got, secondErr)
	}
}

func TestCheckAll_ConcurrentSafety(t *testing.T) {
	t.Parallel()

	r := health.New()

	var wg sync.WaitGroup
	const goroutines = 50

	// Half the goroutines register checkers, half call CheckAll.
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		if i%2 == 0 {
			go func() {
				defer wg.Done()
				c := mocks.NewMockHealthChecker(t)
				c.EXPECT().Name().Return("checker").Maybe()
				c.EXPECT().HealthCheck(mock.Anything).Return(nil).Maybe()
				r.Register(c)
			}()
		} else {
			go func() {
				defer wg.Done()
				r.CheckAll(context.Background())
			}()
		}
	}

	wg.Wait()
}

// slowChecker blocks until its context is done.
type slowChecker struct{}

func (slowChecker) Name() string { return "slow" }

func (slowChecker) HealthCheck(ctx context.Context) error {
	<-ctx.Done()
	return ctx.Err()
}

func TestCheckAll_TimeoutPerCheck(t *testing.T) {
	t.Parallel()

	fast := mocks.NewMockHealthChecker(t)
	fast.EXPECT().Name().Return("board-store")
	fast.EXPECT().HealthCheck(mock.Anything).Return(nil)

	r := health.New(health.WithCheckTimeout(20 * time.Millisecond))
	r.Register(slowChecker{})
	r.Register(fast)

	start := time.Now()
	results := r.CheckAll(context.Background())

	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("CheckAll() took %v, want it bounded by the check timeout", elapsed)
	}
	if !errors.Is(results["slow"], context.DeadlineExceeded) {
		t.Errorf("slow check = %v, want context.DeadlineExceeded", results["slow"])
	}
	if results["board-store"] != nil {
		t.Errorf("board-store check = %v, want nil", results["board-store"])
	}
}

func TestCheckAll_RunsConcurrently(t *testing.T) {
	t.Parallel()

	r := health.New(health.WithCheckTimeout(50 * time.Millisecond))
	for range 4 {
		r.Register(slowChecker{})
	}

	start := time.Now()
	r.CheckAll(context.Background())

	if elapsed := time.Since(start); elapsed >= 200*time.Millisecond {
		t.Errorf("CheckAll() took %v, want checks to overlap", elapsed)
	}
}
