package bridge

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestDoReturnsValueAndError(t *testing.T) {
	b := New()
	defer b.Stop()

	value, err := b.Do(func() (interface{}, error) {
		return 42, nil
	})
	if err != nil {
		t.Fatalf("Do failed: %v", err)
	}
	if value != 42 {
		t.Errorf("expected 42, got %v", value)
	}

	wantErr := errors.New("navigation failed")
	_, err = b.Do(func() (interface{}, error) {
		return nil, wantErr
	})
	if !errors.Is(err, wantErr) {
		t.Errorf("expected %v, got %v", wantErr, err)
	}
}

func TestSubmitTyped(t *testing.T) {
	b := New()
	defer b.Stop()

	got, err := Submit(b, func() (string, error) {
		return "note_abc", nil
	})
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	if got != "note_abc" {
		t.Errorf("expected note_abc, got %q", got)
	}
}

func TestJobsNeverOverlap(t *testing.T) {
	b := New()
	defer b.Stop()

	var active, maxActive int64
	var wg sync.WaitGroup

	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = b.Do(func() (interface{}, error) {
				n := atomic.AddInt64(&active, 1)
				if n > atomic.LoadInt64(&maxActive) {
					atomic.StoreInt64(&maxActive, n)
				}
				time.Sleep(time.Millisecond)
				atomic.AddInt64(&active, -1)
				return nil, nil
			})
		}()
	}
	wg.Wait()

	if got := atomic.LoadInt64(&maxActive); got != 1 {
		t.Errorf("expected at most 1 concurrent job, observed %d", got)
	}
}

func TestPanicBecomesError(t *testing.T) {
	b := New()
	defer b.Stop()

	_, err := b.Do(func() (interface{}, error) {
		panic("page handle gone")
	})
	if err == nil {
		t.Fatal("expected panic to surface as error")
	}

	// The worker must survive the panic.
	value, err := b.Do(func() (interface{}, error) {
		return "still alive", nil
	})
	if err != nil || value != "still alive" {
		t.Errorf("worker did not survive panic: value=%v err=%v", value, err)
	}
}

func TestRestartAfterStop(t *testing.T) {
	b := New()

	if _, err := b.Do(func() (interface{}, error) { return 1, nil }); err != nil {
		t.Fatalf("initial Do failed: %v", err)
	}
	b.Stop()

	if b.Running() {
		t.Fatal("expected worker to be stopped")
	}

	// Callers never see a dead-worker error; the next Do restarts it.
	value, err := b.Do(func() (interface{}, error) { return 2, nil })
	if err != nil {
		t.Fatalf("Do after Stop failed: %v", err)
	}
	if value != 2 {
		t.Errorf("expected 2, got %v", value)
	}
	if !b.Running() {
		t.Error("expected worker restarted")
	}
	b.Stop()
}

func TestStopIsIdempotent(t *testing.T) {
	b := New()
	_, _ = b.Do(func() (interface{}, error) { return nil, nil })

	b.Stop()
	b.Stop()
}

func TestSubmissionOrderPreserved(t *testing.T) {
	b := New()
	defer b.Stop()

	var order []int
	for i := 0; i < 5; i++ {
		i := i
		// Sequential submission from one goroutine must run in order.
		_, err := b.Do(func() (interface{}, error) {
			order = append(order, i)
			return nil, nil
		})
		if err != nil {
			t.Fatalf("Do %d failed: %v", i, err)
		}
	}

	for i, got := range order {
		if got != i {
			t.Fatalf("expected order %v to be sequential", order)
		}
	}
}
