package proxy

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

func TestCell_KeepsFirstSuccess(t *testing.T) {
	var c cell
	var loads int32
	load := func() (any, error) {
		return atomic.AddInt32(&loads, 1), nil
	}

	for i := 0; i < 3; i++ {
		v, err := c.get(context.Background(), load)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if v.(int32) != 1 {
			t.Errorf("expected first value 1, got %v", v)
		}
	}
	if !c.loaded() {
		t.Error("expected cell to be loaded")
	}
}

func TestCell_ErrorsLeaveCellEmpty(t *testing.T) {
	var c cell
	boom := errors.New("boom")
	if _, err := c.get(context.Background(), func() (any, error) { return nil, boom }); err != boom {
		t.Fatalf("expected boom, got %v", err)
	}
	if c.loaded() {
		t.Fatal("a failed load must not fill the cell")
	}
	v, err := c.get(context.Background(), func() (any, error) { return "ok", nil })
	if err != nil || v != "ok" {
		t.Errorf("expected ok, got %v, %v", v, err)
	}
}

func TestCell_WaiterHonoursContext(t *testing.T) {
	var c cell
	started := make(chan struct{})
	release := make(chan struct{})
	leader := make(chan error, 1)
	go func() {
		_, err := c.get(context.Background(), func() (any, error) {
			close(started)
			<-release
			return "value", nil
		})
		leader <- err
	}()
	<-started

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	begin := time.Now()
	if _, err := c.get(ctx, func() (any, error) {
		t.Error("waiter must not start its own load")
		return nil, nil
	}); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected deadline exceeded, got %v", err)
	}
	if elapsed := time.Since(begin); elapsed > time.Second {
		t.Errorf("waiter blocked on the in-flight load for %v", elapsed)
	}

	close(release)
	if err := <-leader; err != nil {
		t.Fatalf("unexpected leader error: %v", err)
	}
	v, err := c.get(context.Background(), nil)
	if err != nil || v != "value" {
		t.Errorf("expected cached value, got %v, %v", v, err)
	}
}

func TestCell_WaiterRetriesAfterFailedLoad(t *testing.T) {
	var c cell
	started := make(chan struct{})
	release := make(chan struct{})
	go func() {
		_, _ = c.get(context.Background(), func() (any, error) {
			close(started)
			<-release
			return nil, errors.New("boom")
		})
	}()
	<-started

	done := make(chan any, 1)
	go func() {
		v, _ := c.get(context.Background(), func() (any, error) { return "second", nil })
		done <- v
	}()
	close(release)

	if v := <-done; v != "second" {
		t.Errorf("expected the waiter to load after the failure, got %v", v)
	}
}
