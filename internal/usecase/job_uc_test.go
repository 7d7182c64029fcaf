//go:build !integration

package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"

	"youtube-ai-summary/internal/domain"
	"youtube-ai-summary/internal/domain/model"
	"youtube-ai-summary/internal/infra/db/memory"
	"youtube-ai-summary/internal/infra/i18n"
)

type fakeOrchestrator struct {
	mu   sync.Mutex
	runs []string
	err  error
}

func (o *fakeOrchestrator) Run(ctx context.Context, jobID string, video model.Video) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.runs = append(o.runs, jobID)
	return o.err
}

func (o *fakeOrchestrator) count() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.runs)
}

const testURL = "https://www.youtube.com/watch?v=dQw4w9WgXcQ"

func TestJobUseCase_Submit(t *testing.T) {
	ctx := context.Background()

	newUC := func() (*jobUC, *fakeOrchestrator, *fakeNotifier) {
		repo := memory.NewJobRepo()
		orch := &fakeOrchestrator{}
		n := &fakeNotifier{}
		jm := NewJobManager(repo, n, newTestLogger())
		return NewJobUseCase(repo, orch, jm, keyMessages{}, newTestLogger()), orch, n
	}

	t.Run("should reject a malformed url before creating a job", func(t *testing.T) {
		uc, orch, _ := newUC()
		if _, err := uc.Submit(ctx, "https://example.com/nothing"); !errors.Is(err, domain.ErrInvalidVideoURL) {
			t.Errorf("expected ErrInvalidVideoURL, got %v", err)
		}
		if orch.count() != 0 {
			t.Error("expected no run")
		}
	})

	t.Run("should create a pending job and start one run", func(t *testing.T) {
		uc, orch, n := newUC()
		job, err := uc.Submit(ctx, testURL)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if job.ID != "dQw4w9WgXcQ" || job.Status != model.JobStatusPending || job.Result != i18n.MsgJobPending {
			t.Errorf("unexpected job %+v", job)
		}
		if orch.count() != 1 {
			t.Errorf("expected one run, got %d", orch.count())
		}
		if events, _, _ := n.snapshot(); len(events) != 1 || events[0] != model.EventPending {
			t.Errorf("expected a pending event, got %v", events)
		}
	})

	t.Run("should start exactly one run for concurrent submissions", func(t *testing.T) {
		uc, orch, _ := newUC()
		var wg sync.WaitGroup
		for i := 0; i < 32; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if _, err := uc.Submit(ctx, testURL); err != nil {
					t.Errorf("unexpected error: %v", err)
				}
			}()
		}
		wg.Wait()
		if orch.count() != 1 {
			t.Errorf("expected one run, got %d", orch.count())
		}
	})

	t.Run("should return a completed job without running again", func(t *testing.T) {
		uc, orch, _ := newUC()
		_, _ = uc.jobs.CreateIfAbsent(ctx, "dQw4w9WgXcQ")
		_ = uc.jobs.Update(ctx, "dQw4w9WgXcQ", model.JobStatusCompleted, "done")
		job, err := uc.Submit(ctx, testURL)
		if err != nil || job.Status != model.JobStatusCompleted || job.Result != "done" {
			t.Fatalf("expected completed job, got %+v err=%v", job, err)
		}
		if orch.count() != 0 {
			t.Error("expected no run")
		}
	})

	t.Run("should re-arm a failed job and run it again", func(t *testing.T) {
		uc, orch, _ := newUC()
		_, _ = uc.jobs.CreateIfAbsent(ctx, "dQw4w9WgXcQ")
		_ = uc.jobs.Update(ctx, "dQw4w9WgXcQ", model.JobStatusFailed, "boom")
		job, err := uc.Submit(ctx, testURL)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if job.Status != model.JobStatusPending {
			t.Errorf("expected PENDING after retry, got %s", job.Status)
		}
		if orch.count() != 1 {
			t.Errorf("expected one run, got %d", orch.count())
		}
	})

	t.Run("should report a rejected run through the job record", func(t *testing.T) {
		uc, orch, _ := newUC()
		orch.err = domain.ErrQueueFull
		if _, err := uc.Submit(ctx, testURL); err != nil {
			t.Errorf("expected no error for a busy pool, got %v", err)
		}
	})
}

func TestJobUseCase_Status(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewJobRepo()
	uc := NewJobUseCase(repo, &fakeOrchestrator{}, &recordingReporter{}, keyMessages{}, newTestLogger())

	t.Run("should return not found for unknown jobs", func(t *testing.T) {
		if _, err := uc.Status(ctx, "missing"); !errors.Is(err, domain.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("should return the stored snapshot", func(t *testing.T) {
		_ = repo.Update(ctx, "x", model.JobStatusExtracting, "working")
		job, err := uc.Status(ctx, "x")
		if err != nil || job.Status != model.JobStatusExtracting {
			t.Errorf("unexpected %+v %v", job, err)
		}
	})
}
