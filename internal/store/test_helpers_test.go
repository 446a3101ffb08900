package store

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
)

// createTestStore creates a new file-backed store for testing.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// createTestRun writes a run with n frames and returns it.
func createTestRun(t *testing.T, s *Store, id string, createdSeq int64, n int) Run {
	t.Helper()
	ctx := context.Background()
	run := Run{ID: id, Skeleton: "arm", DataHash: "data-" + id, CreatedSeq: createdSeq}
	if err := s.WriteRun(ctx, run); err != nil {
		t.Fatalf("WriteRun() failed: %v", err)
	}
	for seq := int64(1); seq <= int64(n); seq++ {
		if err := s.WriteFrame(ctx, testFrame(id, seq)); err != nil {
			t.Fatalf("WriteFrame() failed: %v", err)
		}
	}
	return run
}

func testFrame(runID string, seq int64) Frame {
	return Frame{
		RunID:    runID,
		Seq:      seq,
		Hash:     fmt.Sprintf("hash-%d", seq),
		Input:    []byte(fmt.Sprintf(`{"targets":{"goal":[%d,0]}}`, seq)),
		Snapshot: []byte(fmt.Sprintf(`{"frame":%d}`, seq)),
	}
}
