package simulation

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/riskibarqy/fantasy-matchengine/internal/platform/logging"
)

func TestRegistry_AddGetRemove(t *testing.T) {
	reg := NewRegistry()
	e, err := NewEngine(testFixture("m-1", 1), Options{Logger: logging.NewNop()})
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}

	if err := reg.Add(e); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := reg.Add(e); !errors.Is(err, ErrMatchExists) {
		t.Fatalf("expected ErrMatchExists, got %v", err)
	}
	if got, ok := reg.Get("m-1"); !ok || got != e {
		t.Fatalf("expected registered engine")
	}
	if !reg.Remove("m-1") {
		t.Fatalf("expected remove to report true")
	}
	if reg.Remove("m-1") {
		t.Fatalf("expected second remove to report false")
	}
	if _, ok := reg.Get("m-1"); ok {
		t.Fatalf("expected engine gone")
	}
}

func TestRegistry_ConcurrentAccess(t *testing.T) {
	reg := NewRegistry()

	const n = 64
	engines := make([]*Engine, n)
	for i := range engines {
		e, err := NewEngine(testFixture(fmt.Sprintf("m-%03d", i), int64(i)), Options{Logger: logging.NewNop()})
		if err != nil {
			t.Fatalf("new engine: %v", err)
		}
		engines[i] = e
	}

	var wg sync.WaitGroup
	for _, e := range engines {
		wg.Add(2)
		go func(e *Engine) {
			defer wg.Done()
			if err := reg.Add(e); err != nil {
				t.Errorf("add %s: %v", e.ID(), err)
			}
		}(e)
		go func(id string) {
			defer wg.Done()
			reg.Get(id)
			reg.List()
		}(e.ID())
	}
	wg.Wait()

	if reg.Len() != n {
		t.Fatalf("expected %d engines, got %d", n, reg.Len())
	}
	list := reg.List()
	for i := 1; i < len(list); i++ {
		if list[i-1].ID() >= list[i].ID() {
			t.Fatalf("expected list ordered by id")
		}
	}

	for _, e := range engines {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			reg.Remove(id)
		}(e.ID())
	}
	wg.Wait()

	if reg.Len() != 0 {
		t.Fatalf("expected empty registry, got %d", reg.Len())
	}
}
