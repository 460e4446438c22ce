package live

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

type fakeSub struct {
	name string
	fail bool
	// block makes Send wait for ctx to expire.
	block bool

	mu       sync.Mutex
	received [][]byte
	closed   atomic.Int32
}

func (f *fakeSub) Send(ctx context.Context, msg []byte) error {
	if f.block {
		<-ctx.Done()
		return ctx.Err()
	}
	if f.fail {
		return errors.New("broken pipe")
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.received = append(f.received, msg)
	return nil
}

func (f *fakeSub) Close() error {
	f.closed.Add(1)
	return nil
}

func (f *fakeSub) messages() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.received))
	for i, m := range f.received {
		out[i] = string(m)
	}
	return out
}

func TestBroadcast_FaultIsolation(t *testing.T) {
	hub := NewHub(time.Second)
	x, y, z := &fakeSub{name: "x"}, &fakeSub{name: "y", fail: true}, &fakeSub{name: "z"}
	for _, s := range []*fakeSub{x, y, z} {
		hub.Connect(s)
	}

	if got := hub.Broadcast(context.Background(), []byte("one")); got != 2 {
		t.Errorf("Expected 2 deliveries, got %d", got)
	}
	if hub.Count() != 2 {
		t.Errorf("Expected 2 registered subscribers, got %d", hub.Count())
	}
	if y.closed.Load() != 1 {
		t.Errorf("Expected failed subscriber to be closed once, got %d", y.closed.Load())
	}

	hub.Broadcast(context.Background(), []byte("two"))

	for _, s := range []*fakeSub{x, z} {
		got := s.messages()
		if len(got) != 2 || got[0] != "one" || got[1] != "two" {
			t.Errorf("%s: expected [one two], got %v", s.name, got)
		}
	}
	if got := y.messages(); len(got) != 0 {
		t.Errorf("y: expected no messages, got %v", got)
	}
}

func TestBroadcast_SendTimeout(t *testing.T) {
	hub := NewHub(20 * time.Millisecond)
	hung, ok := &fakeSub{name: "hung", block: true}, &fakeSub{name: "ok"}
	hub.Connect(hung)
	hub.Connect(ok)

	start := time.Now()
	delivered := hub.Broadcast(context.Background(), []byte("msg"))
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("Expected broadcast to be bounded by the send timeout, took %v", elapsed)
	}
	if delivered != 1 {
		t.Errorf("Expected 1 delivery, got %d", delivered)
	}
	if hub.Count() != 1 {
		t.Errorf("Expected hung subscriber to be evicted, %d remain", hub.Count())
	}
}

func TestDisconnect_Idempotent(t *testing.T) {
	hub := NewHub(time.Second)
	a, b := &fakeSub{}, &fakeSub{}
	hub.Connect(a)
	hub.Connect(a)
	if hub.Count() != 1 {
		t.Fatalf("Expected duplicate connect to be ignored, got %d", hub.Count())
	}

	hub.Disconnect(a)
	hub.Disconnect(a)
	hub.Disconnect(b)

	if hub.Count() != 0 {
		t.Errorf("Expected empty registry, got %d", hub.Count())
	}
	if a.closed.Load() != 0 {
		t.Error("Expected Disconnect to leave closing to the owner")
	}
}

func TestBroadcast_Serialized(t *testing.T) {
	hub := NewHub(time.Second)
	sub := &fakeSub{}
	hub.Connect(sub)

	const n = 50
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			hub.Broadcast(context.Background(), []byte("m"))
		}()
	}
	wg.Wait()

	if got := len(sub.messages()); got != n {
		t.Errorf("Expected %d messages, got %d", n, got)
	}
}

func TestConcurrentConnectDisconnectDuringBroadcast(t *testing.T) {
	hub := NewHub(time.Second)
	stop := make(chan struct{})
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-stop:
				return
			default:
				hub.Broadcast(context.Background(), []byte("tick"))
			}
		}
	}()

	subs := make([]*fakeSub, 20)
	for i := range subs {
		subs[i] = &fakeSub{}
		wg.Add(1)
		go func(s *fakeSub) {
			defer wg.Done()
			hub.Connect(s)
			hub.Disconnect(s)
		}(subs[i])
	}

	time.Sleep(20 * time.Millisecond)
	close(stop)
	wg.Wait()

	if hub.Count() != 0 {
		t.Errorf("Expected empty registry, got %d", hub.Count())
	}
}

func TestHubClose(t *testing.T) {
	hub := NewHub(time.Second)
	a := &fakeSub{}
	hub.Connect(a)

	hub.Close()
	if a.closed.Load() != 1 {
		t.Error("Expected subscriber to be closed")
	}
	if len(a.messages()) != 0 {
		t.Error("Expected no message on close")
	}

	late := &fakeSub{}
	if hub.Connect(late) {
		t.Error("Expected Connect after Close to be refused")
	}
	if late.closed.Load() != 1 {
		t.Error("Expected refused subscriber to be closed")
	}
}
