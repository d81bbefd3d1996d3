package worker

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestKeyedMutex_SerializesSameKey(t *testing.T) {
	km := NewKeyedMutex()

	var current int32
	var maxConcurrent int32

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := km.Lock("link:https://example.com/mod")
			defer unlock()

			curr := atomic.AddInt32(&current, 1)
			for {
				max := atomic.LoadInt32(&maxConcurrent)
				if curr <= max || atomic.CompareAndSwapInt32(&maxConcurrent, max, curr) {
					break
				}
			}
			time.Sleep(time.Millisecond)
			atomic.AddInt32(&current, -1)
		}()
	}
	wg.Wait()

	if max := atomic.LoadInt32(&maxConcurrent); max != 1 {
		t.Errorf("expected serialized access for one key, saw %d concurrent holders", max)
	}
}

func TestKeyedMutex_IndependentKeys(t *testing.T) {
	km := NewKeyedMutex()

	unlockA := km.Lock("link:https://example.com/a")

	// A held lock on one key must not block another key
	done := make(chan struct{})
	go func() {
		unlockB := km.Lock("link:https://example.com/b")
		unlockB()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("independent key blocked by unrelated lock")
	}

	unlockA()
}

func TestKeyedMutex_EntriesReleased(t *testing.T) {
	km := NewKeyedMutex()

	for i := 0; i < 100; i++ {
		unlock := km.Lock("page:abc")
		unlock()
	}

	km.mu.Lock()
	n := len(km.locks)
	km.mu.Unlock()

	if n != 0 {
		t.Errorf("expected lock map to be empty, has %d entries", n)
	}
}
