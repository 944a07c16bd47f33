package marketplace

import (
	"sync"
	"testing"
)

func TestJobLocksSerializeSameID(t *testing.T) {
	locks := newJobLocks()
	var (
		wg      sync.WaitGroup
		counter int
	)
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := locks.lock(7)
			defer unlock()
			counter++
		}()
	}
	wg.Wait()

	if counter != 100 {
		t.Fatalf("lost updates: want=100 got=%d", counter)
	}
	if n := locks.size(); n != 0 {
		t.Fatalf("locks not released: %d entries left", n)
	}
}

func TestJobLocksIndependentIDs(t *testing.T) {
	locks := newJobLocks()
	unlockA := locks.lock(1)
	done := make(chan struct{})
	go func() {
		unlock := locks.lock(2)
		unlock()
		close(done)
	}()
	<-done
	if n := locks.size(); n != 1 {
		t.Fatalf("want only job 1 held, got %d entries", n)
	}
	unlockA()
	if n := locks.size(); n != 0 {
		t.Fatalf("want empty table, got %d entries", n)
	}
}
