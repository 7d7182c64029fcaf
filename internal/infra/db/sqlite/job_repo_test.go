//go:build !integration

package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"

	"youtube-ai-summary/internal/domain"
	"youtube-ai-summary/internal/domain/model"
)

func newTestRepo(t *testing.T) *jobRepo {
	t.Helper()
	db, err := Open(context.Background(), filepath.Join(t.TempDir(), "jobs.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewJobRepo(db)
}

func TestJobRepo(t *testing.T) {
	ctx := context.Background()

	t.Run("should let exactly one concurrent caller create a job", func(t *testing.T) {
		repo := newTestRepo(t)
		var wins int32
		var wg sync.WaitGroup
		for i := 0; i < 16; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				ok, err := repo.CreateIfAbsent(ctx, "dQw4w9WgXcQ")
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				if ok {
					atomic.AddInt32(&wins, 1)
				}
			}()
		}
		wg.Wait()
		if wins != 1 {
			t.Errorf("expected one creator, got %d", wins)
		}
	})

	t.Run("should round-trip status and result", func(t *testing.T) {
		repo := newTestRepo(t)
		_, _ = repo.CreateIfAbsent(ctx, "a")
		if err := repo.Update(ctx, "a", model.JobStatusSummarizingFinal, "요약 중"); err != nil {
			t.Fatalf("update: %v", err)
		}
		j, err := repo.Get(ctx, "a")
		if err != nil {
			t.Fatalf("get: %v", err)
		}
		if j.Status != model.JobStatusSummarizingFinal || j.Result != "요약 중" {
			t.Errorf("unexpected job %+v", j)
		}
		if j.UpdatedAt.IsZero() {
			t.Error("expected updated_at to be set")
		}
	})

	t.Run("should return ErrNotFound for unknown ids", func(t *testing.T) {
		repo := newTestRepo(t)
		if _, err := repo.Get(ctx, "missing"); !errors.Is(err, domain.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
		if _, err := repo.Rearm(ctx, "missing"); !errors.Is(err, domain.ErrNotFound) {
			t.Errorf("expected ErrNotFound from Rearm, got %v", err)
		}
	})

	t.Run("should re-arm only failed jobs", func(t *testing.T) {
		repo := newTestRepo(t)
		_, _ = repo.CreateIfAbsent(ctx, "a")
		if ok, _ := repo.Rearm(ctx, "a"); ok {
			t.Fatal("expected pending job to stay")
		}
		_ = repo.Update(ctx, "a", model.JobStatusFailed, "boom")
		if ok, err := repo.Rearm(ctx, "a"); !ok || err != nil {
			t.Fatalf("expected re-arm, got %v, %v", ok, err)
		}
	})
}
