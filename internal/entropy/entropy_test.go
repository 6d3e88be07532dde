package entropy

import (
	"sync"
	"testing"

	"github.com/oklog/ulid/v2"
)

func TestEntropy_MonotonicReader(t *testing.T) {
	var mtx sync.Mutex
	var err error

	entropy := New()
	wg := sync.WaitGroup{}
	concurrency := 50
	idc := make(chan string, concurrency)

	for i := 0; i < concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			id, e := ID(entropy)
			if e != nil {
				mtx.Lock()
				err = e
				mtx.Unlock()
				return
			}
			idc <- id
		}()
	}

	wg.Wait()
	close(idc)

	if err != nil {
		t.Fatal("failed to generate ULID:", err)
	}

	foundIds := map[string]bool{}
	for id := range idc {
		if foundIds[id] {
			t.Error("duplicate ULID found", id)
		} else {
			foundIds[id] = true
		}
	}
}

func TestEntropy_IDWithDefaultEntropy(t *testing.T) {
	id, err := ID(nil)
	if err != nil {
		t.Fatal("failed to generate ULID:", err)
	}

	if _, err = ulid.Parse(id); err != nil {
		t.Error("generated ID is not a valid ULID:", err)
	}
}
