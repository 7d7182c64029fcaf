//go:build !integration

package subtitle

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"youtube-ai-summary/internal/domain"
	"youtube-ai-summary/internal/domain/model"
	"youtube-ai-summary/internal/infra/retry"
)

func newTestLogger() *zerolog.Logger {
	l := zerolog.New(io.Discard)
	return &l
}

type keyMessages struct{}

func (keyMessages) T(key string, args ...interface{}) string { return key }

type recordingReporter struct {
	mu       sync.Mutex
	statuses []model.JobStatus
}

func (r *recordingReporter) Progress(ctx context.Context, jobID string, status model.JobStatus, message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.statuses = append(r.statuses, status)
}

const rollingVTT = `WEBVTT
Kind: captions
Language: en

00:00:00.000 --> 00:00:02.000 align:start position:0%
hello<00:00:00.500><c> world</c>

00:00:02.000 --> 00:00:02.010 align:start position:0%
hello world

00:00:02.010 --> 00:00:04.000 align:start position:0%
hello world
this is [Music] a test

00:00:04.000 --> 00:00:06.000
this is a test
of captions.
`

func TestProcessor(t *testing.T) {
	p := NewProcessor()

	t.Run("should drop repeated rolling text and tags", func(t *testing.T) {
		got := p.Process(rollingVTT)
		want := "00:00:00.000:hello world this is a test of captions."
		if got != want {
			t.Errorf("expected %q, got %q", want, got)
		}
	})

	t.Run("should skip a cue identical to the previous one", func(t *testing.T) {
		raw := "00:00:01.000 --> 00:00:02.000\nsame line\n\n00:00:02.000 --> 00:00:03.000\nsame line\n"
		if got := p.Process(raw); got != "00:00:01.000:same line" {
			t.Errorf("unexpected %q", got)
		}
	})

	t.Run("should read srt blocks", func(t *testing.T) {
		raw := "1\r\n00:00:01,000 --> 00:00:02,000\r\nfirst\r\n\r\n2\r\n00:00:03,000 --> 00:00:04,000\r\nsecond\r\n"
		if got := p.Process(raw); got != "00:00:01,000:first second" {
			t.Errorf("unexpected %q", got)
		}
	})

	t.Run("should split long sentences at a period", func(t *testing.T) {
		first := strings.Repeat("a", 150) + "."
		rest := strings.Repeat("b", 100)
		raw := "00:00:01.000 --> 00:00:02.000\n" + first + "\n\n00:00:05.000 --> 00:00:06.000\n" + rest + "\n"
		got := p.Sentences(raw)
		if len(got) != 2 {
			t.Fatalf("expected 2 sentences, got %d: %+v", len(got), got)
		}
		if got[0].Text != first || got[0].Start != "00:00:01.000" {
			t.Errorf("unexpected first sentence %+v", got[0])
		}
		if got[1].Text != rest || got[1].Start != "00:00:05.000" {
			t.Errorf("unexpected second sentence %+v", got[1])
		}
	})

	t.Run("should hard cut a sentence with no separator", func(t *testing.T) {
		raw := "00:00:01.000 --> 00:00:02.000\n" + strings.Repeat("가", 450) + "\n"
		got := p.Sentences(raw)
		if len(got) != 3 {
			t.Fatalf("expected 3 pieces, got %d", len(got))
		}
		total := 0
		for _, s := range got {
			if n := len([]rune(s.Text)); n > maxSentenceRunes+1 {
				t.Errorf("piece too long: %d", n)
			}
			total += len([]rune(s.Text))
		}
		if total != 450 {
			t.Errorf("expected every rune kept, got %d", total)
		}
	})

	t.Run("should return nothing for a file without cues", func(t *testing.T) {
		if got := p.Process("WEBVTT\n\n"); got != "" {
			t.Errorf("expected empty, got %q", got)
		}
	})
}

func TestPickLanguage(t *testing.T) {
	cases := []struct {
		name string
		meta string
		want string
		err  error
	}{
		{"korean video", `{"language":"ko","automatic_captions":{"en":[],"ko":[]}}`, "ko", nil},
		{"english fallback", `{"language":"ja","automatic_captions":{"ja":[],"en":[]}}`, "en", nil},
		{"korean without ko track", `{"language":"ko","automatic_captions":{"en":[]}}`, "en", nil},
		{"first sorted", `{"automatic_captions":{"fr":[],"de":[]}}`, "de", nil},
		{"none", `{"automatic_captions":{}}`, "", domain.ErrNoSubtitles},
		{"missing", `{"title":"x"}`, "", domain.ErrNoSubtitles},
	}
	for _, tc := range cases {
		t.Run("should handle "+tc.name, func(t *testing.T) {
			got, err := pickLanguage(tc.meta)
			if tc.err != nil {
				if !errors.Is(err, tc.err) {
					t.Errorf("expected %v, got %v", tc.err, err)
				}
				return
			}
			if err != nil || got != tc.want {
				t.Errorf("expected %s, got %s (%v)", tc.want, got, err)
			}
		})
	}
}

// fakeYtDlp writes a caption file the way yt-dlp would.
type fakeYtDlp struct {
	meta        string
	metaErr     error
	content     string
	downloadErr error
	written     string
}

func (f *fakeYtDlp) DumpJSON(ctx context.Context, videoID string) (string, error) {
	return f.meta, f.metaErr
}

func (f *fakeYtDlp) Download(ctx context.Context, videoID, lang, tmpl string) error {
	path := strings.Replace(strings.Replace(tmpl, "%(id)s", videoID, 1), "%(ext)s", lang+".vtt", 1)
	f.written = path
	if f.content != "" {
		if err := os.WriteFile(path, []byte(f.content), 0o644); err != nil {
			return err
		}
	}
	return f.downloadErr
}

func newTestProvider(t *testing.T, y *fakeYtDlp) (*YtDlpProvider, *recordingReporter) {
	t.Helper()
	rep := &recordingReporter{}
	p := &YtDlpProvider{
		reporter: rep,
		exec:     y,
		files:    NewFileManager(t.TempDir(), newTestLogger()),
		proc:     NewProcessor(),
		msgs:     keyMessages{},
		log:      newTestLogger(),
	}
	return p, rep
}

var video = model.Video{ID: "abcdefghijk"}

func TestYtDlpProvider(t *testing.T) {
	ctx := context.Background()
	meta := `{"language":"en","automatic_captions":{"en":[]}}`

	t.Run("should extract, report progress and remove the temp file", func(t *testing.T) {
		y := &fakeYtDlp{meta: meta, content: "00:00:01.000 --> 00:00:02.000\nhello there\n"}
		p, rep := newTestProvider(t, y)
		text, err := p.FetchSubs(ctx, "job", video)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if text != "00:00:01.000:hello there" {
			t.Errorf("unexpected text %q", text)
		}
		if len(rep.statuses) != 2 || rep.statuses[0] != model.JobStatusExtracting || rep.statuses[1] != model.JobStatusExtractionCompleted {
			t.Errorf("unexpected progress %v", rep.statuses)
		}
		if _, err := os.Stat(y.written); !os.IsNotExist(err) {
			t.Errorf("expected temp file removed, stat err=%v", err)
		}
	})

	t.Run("should remove the temp file when the download fails", func(t *testing.T) {
		y := &fakeYtDlp{meta: meta, content: "partial", downloadErr: domain.Transient(errors.New("exit 1"))}
		p, _ := newTestProvider(t, y)
		_, err := p.FetchSubs(ctx, "job", video)
		if !domain.IsTransient(err) {
			t.Errorf("expected transient error, got %v", err)
		}
		if _, err := os.Stat(y.written); !os.IsNotExist(err) {
			t.Error("expected temp file removed")
		}
	})

	t.Run("should classify a video without captions", func(t *testing.T) {
		p, rep := newTestProvider(t, &fakeYtDlp{meta: `{"automatic_captions":{}}`})
		if _, err := p.FetchSubs(ctx, "job", video); !errors.Is(err, domain.ErrNoSubtitles) {
			t.Errorf("expected ErrNoSubtitles, got %v", err)
		}
		if len(rep.statuses) != 1 {
			t.Errorf("expected only EXTRACTING, got %v", rep.statuses)
		}
	})

	t.Run("should classify a missing caption file", func(t *testing.T) {
		p, _ := newTestProvider(t, &fakeYtDlp{meta: meta})
		if _, err := p.FetchSubs(ctx, "job", video); !errors.Is(err, domain.ErrNoSubtitles) {
			t.Errorf("expected ErrNoSubtitles, got %v", err)
		}
	})

	t.Run("should pass metadata failures through", func(t *testing.T) {
		p, _ := newTestProvider(t, &fakeYtDlp{metaErr: domain.Transient(errors.New("403"))})
		if _, err := p.FetchSubs(ctx, "job", video); !domain.IsTransient(err) {
			t.Errorf("expected transient, got %v", err)
		}
	})
}

type fakeRunner struct {
	args  []string
	res   commandResult
	err   error
	wait  bool
	calls int
	// failFirst makes that many leading calls exit with code 1
	failFirst int
}

func (r *fakeRunner) Run(ctx context.Context, name string, args ...string) (commandResult, error) {
	r.args = append([]string{name}, args...)
	r.calls++
	if r.calls <= r.failFirst {
		return commandResult{ExitCode: 1, Stderr: "HTTP Error 429"}, errors.New("exit status 1")
	}
	if r.wait {
		<-ctx.Done()
		return commandResult{ExitCode: -1}, ctx.Err()
	}
	return r.res, r.err
}

func TestExecutor(t *testing.T) {
	ctx := context.Background()

	t.Run("should add proxy and cookies and return the json line", func(t *testing.T) {
		r := &fakeRunner{res: commandResult{Stdout: "[info] noise\n{\"id\":\"x\"}\n"}}
		e := NewExecutor(ExecutorOptions{Proxy: "http://p:1", CookiesFile: "/c.txt"}, newTestLogger())
		e.runner = r
		out, err := e.DumpJSON(ctx, "-abc")
		if err != nil || out != `{"id":"x"}` {
			t.Fatalf("unexpected %q %v", out, err)
		}
		got := strings.Join(r.args, " ")
		want := "yt-dlp --dump-json --no-warnings --proxy http://p:1 --cookies /c.txt -- -abc"
		if got != want {
			t.Errorf("expected %q, got %q", want, got)
		}
	})

	t.Run("should mark a failed process as transient", func(t *testing.T) {
		e := NewExecutor(ExecutorOptions{}, newTestLogger())
		e.runner = &fakeRunner{res: commandResult{ExitCode: 1, Stderr: "HTTP Error 429"}, err: errors.New("exit status 1")}
		if err := e.Download(ctx, "id", "en", "/tmp/%(id)s.%(ext)s"); !domain.IsTransient(err) {
			t.Errorf("expected transient, got %v", err)
		}
	})

	t.Run("should mark a timeout as transient", func(t *testing.T) {
		e := NewExecutor(ExecutorOptions{Timeout: 10 * time.Millisecond}, newTestLogger())
		e.runner = &fakeRunner{wait: true}
		if _, err := e.DumpJSON(ctx, "id"); !domain.IsTransient(err) {
			t.Errorf("expected transient, got %v", err)
		}
	})

	t.Run("should retry a transient exit and then succeed", func(t *testing.T) {
		r := &fakeRunner{failFirst: 2, res: commandResult{Stdout: "{\"id\":\"x\"}\n"}}
		e := NewExecutor(ExecutorOptions{Retry: retry.Policy{Attempts: 3, InitialDelay: time.Millisecond, Multiplier: 1}}, newTestLogger())
		e.runner = r
		out, err := e.DumpJSON(ctx, "id")
		if err != nil || out != `{"id":"x"}` {
			t.Fatalf("unexpected %q %v", out, err)
		}
		if r.calls != 3 {
			t.Errorf("expected 3 runs, got %d", r.calls)
		}
	})

	t.Run("should give up after the configured attempts", func(t *testing.T) {
		r := &fakeRunner{failFirst: 10}
		e := NewExecutor(ExecutorOptions{Retry: retry.Policy{Attempts: 3, InitialDelay: time.Millisecond, Multiplier: 1}}, newTestLogger())
		e.runner = r
		err := e.Download(ctx, "id", "en", "/tmp/%(id)s.%(ext)s")
		if !domain.IsTransient(err) {
			t.Fatalf("expected transient, got %v", err)
		}
		if r.calls != 3 {
			t.Errorf("expected 3 runs, got %d", r.calls)
		}
	})

	t.Run("should not retry a missing metadata line", func(t *testing.T) {
		r := &fakeRunner{res: commandResult{Stdout: "[info] nothing\n"}}
		e := NewExecutor(ExecutorOptions{Retry: retry.Policy{Attempts: 3, InitialDelay: time.Millisecond, Multiplier: 1}}, newTestLogger())
		e.runner = r
		if _, err := e.DumpJSON(ctx, "id"); err == nil {
			t.Fatal("expected an error")
		}
		if r.calls != 1 {
			t.Errorf("expected a single run, got %d", r.calls)
		}
	})

	t.Run("should build the caption download command", func(t *testing.T) {
		r := &fakeRunner{}
		e := NewExecutor(ExecutorOptions{Binary: "/bin/yt"}, newTestLogger())
		e.runner = r
		_ = e.Download(ctx, "id", "ko", "/tmp/%(id)s.%(ext)s")
		want := "/bin/yt --write-auto-sub --sub-lang ko --sub-format vtt --convert-subs vtt --skip-download -o /tmp/%(id)s.%(ext)s -- id"
		if got := strings.Join(r.args, " "); got != want {
			t.Errorf("expected %q, got %q", want, got)
		}
	})
}

func TestFileProvider(t *testing.T) {
	ctx := context.Background()

	t.Run("should read a vtt file from the directory", func(t *testing.T) {
		dir := t.TempDir()
		_ = os.WriteFile(filepath.Join(dir, video.ID+".vtt"), []byte("00:00:01.000 --> 00:00:02.000\nhi\n"), 0o644)
		rep := &recordingReporter{}
		text, err := NewFileProvider(rep, dir, keyMessages{}, newTestLogger()).FetchSubs(ctx, "job", video)
		if err != nil || text != "00:00:01.000:hi" {
			t.Fatalf("unexpected %q %v", text, err)
		}
		if len(rep.statuses) != 2 {
			t.Errorf("expected two progress reports, got %v", rep.statuses)
		}
	})

	t.Run("should read plain text as is", func(t *testing.T) {
		dir := t.TempDir()
		_ = os.WriteFile(filepath.Join(dir, video.ID+".txt"), []byte("  plain transcript \n"), 0o644)
		text, err := NewFileProvider(&recordingReporter{}, dir, keyMessages{}, newTestLogger()).FetchSubs(ctx, "job", video)
		if err != nil || text != "plain transcript" {
			t.Fatalf("unexpected %q %v", text, err)
		}
	})

	t.Run("should report no subtitles when nothing exists", func(t *testing.T) {
		_, err := NewFileProvider(&recordingReporter{}, t.TempDir(), keyMessages{}, newTestLogger()).FetchSubs(ctx, "job", video)
		if !errors.Is(err, domain.ErrNoSubtitles) {
			t.Errorf("expected ErrNoSubtitles, got %v", err)
		}
	})
}
