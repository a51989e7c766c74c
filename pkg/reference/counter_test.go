package reference_test

import (
	"github.com/brickingsoft/asyncio/pkg/reference"
	"sync"
	"testing"
)

func TestCounter(t *testing.T) {
	c := reference.Counter{}
	c.Init(1)
	if n := c.Grab(); n != 2 {
		t.Fatal("grab", n)
	}
	if c.Drop() {
		t.Fatal("not last")
	}
	if !c.Drop() {
		t.Fatal("should be last")
	}
	if c.Count() != 0 {
		t.Fatal("count", c.Count())
	}
}

func TestCounter_Concurrent(t *testing.T) {
	c := reference.Counter{}
	c.Init(1)
	wg := new(sync.WaitGroup)
	for i := 0; i < 64; i++ {
		c.Grab()
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.Drop()
		}()
	}
	wg.Wait()
	if n := c.Count(); n != 1 {
		t.Fatal("count", n)
	}
}

func TestCounter_Underflow(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Fatal("expected panic")
		}
	}()
	c := reference.Counter{}
	c.Drop()
}
