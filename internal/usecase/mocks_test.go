//go:build !integration

// File: internal/usecase/mocks_test.go
package usecase

import (
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"youtube-ai-summary/internal/domain"
	"youtube-ai-summary/internal/domain/model"
	"youtube-ai-summary/internal/domain/ports/adapter"
	"youtube-ai-summary/internal/domain/ports/repository"
	"youtube-ai-summary/internal/infra/i18n"
)

func newTestLogger() *zerolog.Logger {
	l := zerolog.New(io.Discard)
	return &l
}

// keyMessages returns catalog keys untranslated so tests can assert on them.
type keyMessages struct{}

func (keyMessages) T(key string, args ...interface{}) string { return key }

// fakeNotifier records what the hub would have been told.
type fakeNotifier struct {
	mu        sync.Mutex
	events    []string
	completed int
	failed    int
	lastErr   error
}

func (n *fakeNotifier) Publish(jobID, event string, payload any) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, event)
}

func (n *fakeNotifier) Complete(jobID string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.completed++
}

func (n *fakeNotifier) Fail(jobID string, err error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.failed++
	n.lastErr = err
}

func (n *fakeNotifier) snapshot() (events []string, completed, failed int) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.events...), n.completed, n.failed
}

// recordingReporter keeps the statuses reported by the engine.
type recordingReporter struct {
	mu       sync.Mutex
	statuses []model.JobStatus
}

func (r *recordingReporter) Progress(ctx context.Context, jobID string, status model.JobStatus, message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.statuses = append(r.statuses, status)
}

func (r *recordingReporter) seen() []model.JobStatus {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]model.JobStatus(nil), r.statuses...)
}

// goPool runs every task on its own goroutine; reject simulates a full queue.
type goPool struct {
	mu       sync.Mutex
	reject   bool
	accepted int
	// rejectAfter > 0 rejects once that many tasks were accepted
	rejectAfter int
}

func (p *goPool) Submit(task func(ctx context.Context) error) error {
	p.mu.Lock()
	if p.reject || (p.rejectAfter > 0 && p.accepted >= p.rejectAfter) {
		p.mu.Unlock()
		return domain.ErrQueueFull
	}
	p.accepted++
	p.mu.Unlock()
	go func() { _ = task(context.Background()) }()
	return nil
}

// fakeSummarizer counts calls; the Fn hooks decide the replies.
type fakeSummarizer struct {
	mu          sync.Mutex
	partials    int
	finals      int
	finalInputs []string
	sources     []SummarySource

	partialFn func(ctx context.Context, chunk string) (string, error)
	finalFn   func(ctx context.Context, content string) (string, error)
}

func (f *fakeSummarizer) Partial(ctx context.Context, chunk string) (string, error) {
	f.mu.Lock()
	f.partials++
	f.mu.Unlock()
	if f.partialFn != nil {
		return f.partialFn(ctx, chunk)
	}
	return "partial", nil
}

func (f *fakeSummarizer) Final(ctx context.Context, content string, source SummarySource) (string, error) {
	f.mu.Lock()
	f.finals++
	f.finalInputs = append(f.finalInputs, content)
	f.sources = append(f.sources, source)
	f.mu.Unlock()
	if f.finalFn != nil {
		return f.finalFn(ctx, content)
	}
	return "final summary", nil
}

func (f *fakeSummarizer) counts() (partials, finals int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.partials, f.finals
}

// fakeSubtitles mimics a provider that reports its own progress.
type fakeSubtitles struct {
	reporter interface {
		Progress(ctx context.Context, jobID string, status model.JobStatus, message string)
	}
	text  string
	err   error
	panic bool
	calls int
}

func (f *fakeSubtitles) FetchSubs(ctx context.Context, jobID string, video model.Video) (string, error) {
	f.calls++
	if f.panic {
		panic("provider exploded")
	}
	if f.reporter != nil {
		f.reporter.Progress(ctx, jobID, model.JobStatusExtracting, i18n.MsgJobExtracting)
	}
	if f.err != nil {
		return "", f.err
	}
	if f.reporter != nil {
		f.reporter.Progress(ctx, jobID, model.JobStatusExtractionCompleted, i18n.MsgJobExtractionCompleted)
	}
	return f.text, nil
}

// scriptedAI replies from a list of errors, then with reply.
type scriptedAI struct {
	mu       sync.Mutex
	errs     []error
	reply    string
	calls    int
	lastMsgs []adapter.Message
	block    bool
}

func (a *scriptedAI) ListModels(ctx context.Context) ([]string, error) { return []string{"test"}, nil }
func (a *scriptedAI) GetModelInfo(m string) (adapter.ModelInfo, error) {
	return adapter.ModelInfo{Name: m}, nil
}
func (a *scriptedAI) CountTokens(ctx context.Context, m string, msgs []adapter.Message) (int, error) {
	return 0, nil
}

func (a *scriptedAI) Chat(ctx context.Context, m string, msgs []adapter.Message) (string, error) {
	reply, _, err := a.ChatWithUsage(ctx, m, msgs)
	return reply, err
}

func (a *scriptedAI) ChatWithUsage(ctx context.Context, m string, msgs []adapter.Message) (string, adapter.Usage, error) {
	a.mu.Lock()
	i := a.calls
	a.calls++
	a.lastMsgs = msgs
	block := a.block && i == 0
	a.mu.Unlock()
	if block {
		<-ctx.Done()
		return "", adapter.Usage{}, ctx.Err()
	}
	if i < len(a.errs) {
		return "", adapter.Usage{}, a.errs[i]
	}
	return a.reply, adapter.Usage{}, nil
}

func waitTerminal(t *testing.T, repo repository.JobRepository, id string) *model.Job {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if j, err := repo.Get(context.Background(), id); err == nil && j.Status.IsTerminal() {
			return j
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("job %s did not reach a terminal state", id)
	return nil
}
