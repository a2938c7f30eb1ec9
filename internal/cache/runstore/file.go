package runstore

import (
	"encoding/json"
	"os"
	"path/filepath"
)

func (s *Store) ensureLoadedFile() {
	s.loadOnce.Do(func() {
		if s.path == "" {
			return
		}
		raw, err := os.ReadFile(s.path)
		if err != nil {
			return
		}
		var runs []Run
		if err := json.Unmarshal(raw, &runs); err != nil {
			return
		}
		s.mu.Lock()
		s.runs = runs
		s.mu.Unlock()
	})
}

func (s *Store) recordFile(run Run) error {
	s.ensureLoadedFile()
	s.mu.Lock()
	s.runs = append(s.runs, run)
	snapshot := make([]Run, len(s.runs))
	copy(snapshot, s.runs)
	s.mu.Unlock()

	if s.path == "" {
		return nil
	}
	raw, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return err
	}
	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, s.path)
}

func (s *Store) recentFile(limit int) []Run {
	s.ensureLoadedFile()
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Run, 0, limit)
	for i := len(s.runs) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, s.runs[i])
	}
	return out
}
