package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"youtube-ai-summary/internal/domain"
	"youtube-ai-summary/internal/domain/model"
	"youtube-ai-summary/internal/infra/i18n"
	"youtube-ai-summary/internal/infra/logging"
	"youtube-ai-summary/internal/infra/notify"
	"youtube-ai-summary/internal/usecase"
)

// retryMillis is the reconnect hint sent with every stream event.
const retryMillis = 10000

// Streams is the part of the notification hub the stream endpoint needs.
type Streams interface {
	Subscribe(ctx context.Context, jobID string) *notify.Subscription
	Unsubscribe(sub *notify.Subscription)
}

type Options struct {
	Addr           string
	RequestTimeout time.Duration
	AllowedOrigins []string
	// Limiter guards job submission; nil disables rate limiting.
	Limiter ClientLimiter
}

// Server exposes job submission, status polling and the event stream.
type Server struct {
	jobs    usecase.JobUseCase
	streams Streams
	msgs    usecase.Messages
	opts    Options
	log     *zerolog.Logger

	handler http.Handler
	server  *http.Server
}

func NewServer(jobs usecase.JobUseCase, streams Streams, msgs usecase.Messages, opts Options, logger *zerolog.Logger) *Server {
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 15 * time.Second
	}
	l := logger.With().Str("component", "API").Logger()
	s := &Server{jobs: jobs, streams: streams, msgs: msgs, opts: opts, log: &l}
	s.handler = s.routes()
	// WriteTimeout stays unset so streams are not cut off.
	s.server = &http.Server{
		Addr:              opts.Addr,
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       2 * time.Minute,
	}
	return s
}

func (s *Server) Handler() http.Handler { return s.handler }

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.RealIP,
		TraceID(),
		RequestLog(s.log),
		Recover(s.log),
		CORS(s.opts.AllowedOrigins),
	)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		r.Use(Timeout(s.opts.RequestTimeout))
		submit := r
		if s.opts.Limiter != nil {
			submit = r.With(RateLimit(s.opts.Limiter, s.msgs.T(i18n.MsgErrRateLimited), s.log))
		}
		submit.Post("/api/jobs/subtitles", s.handleSubmit)
		r.Get("/api/jobs/subtitles/status/{jobId}", s.handleStatus)
	})
	// streams outlive the request timeout
	r.Get("/api/jobs/subtitles/stream/{jobId}", s.handleStream)
	return r
}

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	job, err := s.jobs.Submit(r.Context(), r.URL.Query().Get("url"))
	switch {
	case errors.Is(err, domain.ErrInvalidVideoURL):
		writeError(w, http.StatusBadRequest, s.msgs.T(i18n.MsgErrInvalidURL))
		return
	case err != nil:
		logging.With(r.Context(), s.log).Error().Err(err).Msg("submit failed")
		writeError(w, http.StatusInternalServerError, s.msgs.T(i18n.MsgErrInternal))
		return
	}

	code := http.StatusAccepted
	if job.Status == model.JobStatusCompleted {
		code = http.StatusOK
	}
	writeJSON(w, code, job)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	job, err := s.jobs.Status(r.Context(), chi.URLParam(r, "jobId"))
	if err != nil {
		s.writeLookupError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, job)
}

func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobId")
	if _, err := s.jobs.Status(r.Context(), jobID); err != nil {
		s.writeLookupError(w, r, err)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	ctx := logging.WithJobID(r.Context(), jobID)
	l := logging.With(ctx, s.log)
	sub := s.streams.Subscribe(ctx, jobID)
	defer s.streams.Unsubscribe(sub)

	for {
		select {
		case <-ctx.Done():
			l.Debug().Msg("stream client gone")
			return
		case ev, open := <-sub.Events():
			if !open {
				if err := sub.Err(); err != nil {
					l.Debug().Err(err).Msg("stream closed in error mode")
				}
				return
			}
			if err := writeEvent(w, ev); err != nil {
				l.Warn().Err(err).Str("event", ev.Name).Msg("stream write failed")
				return
			}
			flusher.Flush()
		}
	}
}

func (s *Server) writeLookupError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound), errors.Is(err, domain.ErrInvalidArgument):
		writeError(w, http.StatusNotFound, s.msgs.T(i18n.MsgErrJobNotFound))
	default:
		logging.With(r.Context(), s.log).Error().Err(err).Msg("job lookup failed")
		writeError(w, http.StatusInternalServerError, s.msgs.T(i18n.MsgErrInternal))
	}
}

func writeEvent(w io.Writer, ev notify.Event) error {
	data, err := json.Marshal(ev.Data)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}
	_, err = fmt.Fprintf(w, "id: %s\nevent: %s\nretry: %d\ndata: %s\n\n", ev.ID, ev.Name, retryMillis, data)
	return err
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}

// Start blocks serving until Shutdown.
func (s *Server) Start() error {
	s.log.Info().Str("addr", s.opts.Addr).Msg("http server listening")
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
