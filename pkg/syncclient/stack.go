package syncclient

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
)

// StackStore persists the processing stack across client restarts, the
// way the browser client keeps it in per-meeting session storage.
type StackStore interface {
	Load(meetingID string) ([]string, error)
	Save(meetingID string, ids []string) error
}

// ProcessingStack records item ids in the order the local user advanced
// past them, so "previous" has a well-defined target even after a reload.
type ProcessingStack struct {
	mu        sync.Mutex
	meetingID string
	store     StackStore
	ids       []string
}

func NewProcessingStack(meetingID string, store StackStore) (*ProcessingStack, error) {
	ids, err := store.Load(meetingID)
	if err != nil {
		return nil, err
	}
	return &ProcessingStack{meetingID: meetingID, store: store, ids: ids}, nil
}

func (s *ProcessingStack) Push(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ids = append(s.ids, id)
	s.persist()
}

func (s *ProcessingStack) Pop() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.ids) == 0 {
		return "", false
	}
	id := s.ids[len(s.ids)-1]
	s.ids = s.ids[:len(s.ids)-1]
	s.persist()
	return id, true
}

func (s *ProcessingStack) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.ids)
}

// persist is best-effort; a failed write costs rewind-across-reload, not
// correctness.
func (s *ProcessingStack) persist() {
	if err := s.store.Save(s.meetingID, append([]string(nil), s.ids...)); err != nil {
		// Callers keep working from the in-memory stack.
		_ = err
	}
}

// MemoryStackStore keeps stacks in memory only.
type MemoryStackStore struct {
	mu     sync.Mutex
	stacks map[string][]string
}

func NewMemoryStackStore() *MemoryStackStore {
	return &MemoryStackStore{stacks: make(map[string][]string)}
}

func (m *MemoryStackStore) Load(meetingID string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.stacks[meetingID]...), nil
}

func (m *MemoryStackStore) Save(meetingID string, ids []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stacks[meetingID] = ids
	return nil
}

// FileStackStore writes one JSON file per meeting under dir.
type FileStackStore struct {
	dir string
}

func NewFileStackStore(dir string) (*FileStackStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &FileStackStore{dir: dir}, nil
}

func (f *FileStackStore) path(meetingID string) string {
	return filepath.Join(f.dir, "stack-"+meetingID+".json")
}

func (f *FileStackStore) Load(meetingID string) ([]string, error) {
	data, err := os.ReadFile(f.path(meetingID))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var ids []string
	if err := json.Unmarshal(data, &ids); err != nil {
		return nil, err
	}
	return ids, nil
}

func (f *FileStackStore) Save(meetingID string, ids []string) error {
	data, err := json.Marshal(ids)
	if err != nil {
		return err
	}
	return os.WriteFile(f.path(meetingID), data, 0o644)
}
