package syncclient_test

import (
	"testing"

	"github.com/evanlaw-dev/flowminder-app-sub000/pkg/syncclient"
)

func TestStackPushPopOrder(t *testing.T) {
	stack, err := syncclient.NewProcessingStack("m1", syncclient.NewMemoryStackStore())
	if err != nil {
		t.Fatalf("NewProcessingStack: %v", err)
	}

	stack.Push("a")
	stack.Push("b")
	stack.Push("c")

	for _, want := range []string{"c", "b", "a"} {
		id, ok := stack.Pop()
		if !ok || id != want {
			t.Fatalf("expected %s, got %s ok=%v", want, id, ok)
		}
	}
	if _, ok := stack.Pop(); ok {
		t.Fatalf("empty stack must report ok=false")
	}
}

func TestStackSurvivesRestart(t *testing.T) {
	store := syncclient.NewMemoryStackStore()

	first, err := syncclient.NewProcessingStack("m1", store)
	if err != nil {
		t.Fatalf("NewProcessingStack: %v", err)
	}
	first.Push("a")
	first.Push("b")

	// Simulates the client reloading mid-meeting.
	second, err := syncclient.NewProcessingStack("m1", store)
	if err != nil {
		t.Fatalf("NewProcessingStack: %v", err)
	}
	if second.Len() != 2 {
		t.Fatalf("expected restored stack of 2, got %d", second.Len())
	}
	if id, _ := second.Pop(); id != "b" {
		t.Fatalf("restored stack should pop b first, got %s", id)
	}
}

func TestStacksAreScopedPerMeeting(t *testing.T) {
	store := syncclient.NewMemoryStackStore()

	one, _ := syncclient.NewProcessingStack("m1", store)
	one.Push("a")

	other, err := syncclient.NewProcessingStack("m2", store)
	if err != nil {
		t.Fatalf("NewProcessingStack: %v", err)
	}
	if other.Len() != 0 {
		t.Fatalf("stacks must not leak across meetings")
	}
}

func TestFileStackStoreRoundTrip(t *testing.T) {
	store, err := syncclient.NewFileStackStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStackStore: %v", err)
	}

	stack, err := syncclient.NewProcessingStack("m1", store)
	if err != nil {
		t.Fatalf("NewProcessingStack: %v", err)
	}
	stack.Push("a")
	stack.Push("b")
	stack.Pop()

	reloaded, err := syncclient.NewProcessingStack("m1", store)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if reloaded.Len() != 1 {
		t.Fatalf("expected 1 id after push/push/pop, got %d", reloaded.Len())
	}
	if id, _ := reloaded.Pop(); id != "a" {
		t.Fatalf("expected a, got %s", id)
	}
}

func TestFileStackStoreMissingFileIsEmpty(t *testing.T) {
	store, err := syncclient.NewFileStackStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStackStore: %v", err)
	}
	ids, err := store.Load("never-seen")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(ids) != 0 {
		t.Fatalf("expected empty stack, got %v", ids)
	}
}
