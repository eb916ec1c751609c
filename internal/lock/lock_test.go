package lock

import (
	"sync"
	"testing"
)

func TestSerializesPerKey(t *testing.T) {
	m := NewMutexMap()

	const n = 50
	counter := 0
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m.Lock("p1")
			counter++
			m.Unlock("p1")
		}()
	}
	wg.Wait()

	if counter != n {
		t.Errorf("counter = %d, want %d", counter, n)
	}
}

func TestIndependentKeys(t *testing.T) {
	m := NewMutexMap()

	m.Lock("p1")
	done := make(chan struct{})
	go func() {
		m.Lock("p2") // must not wait on p1's lock
		m.Unlock("p2")
		close(done)
	}()
	<-done
	m.Unlock("p1")
}
