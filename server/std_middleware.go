package server

import (
	"fmt"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"
)

const requestIDHeader = "X-Request-ID"

func ChainMiddleware(routeFunction http.HandlerFunc, mw ...func(http.HandlerFunc) http.HandlerFunc) http.HandlerFunc {
	chainedHandler := routeFunction
	// Apply middleware in reverse order
	for i := len(mw) - 1; i >= 0; i-- {
		chainedHandler = mw[i](chainedHandler)
	}
	return chainedHandler
}

// StdMiddleware wraps the whole mux. CORS is outermost so that every
// response, a recovered panic included, carries the CORS headers.
func (s *Server) StdMiddleware(next http.Handler) http.Handler {
	return ChainMiddleware(next.ServeHTTP,
		s.CorsMiddleware,
		s.LoggerMiddleware,
		s.RequestIDMiddleware,
		s.AccessLogMiddleware,
		s.RecoverMiddleware,
	)
}

func (s *Server) CorsMiddleware(next http.HandlerFunc) http.HandlerFunc {
	cors := s.config.Cors
	return func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		origin := r.Header.Get("Origin")
		switch {
		case cors.AllowedOrigins.IsWildcard():
			h.Set("Access-Control-Allow-Origin", "*")
		case origin != "" && cors.AllowedOrigins.IsAllowedOrigin(origin):
			h.Set("Access-Control-Allow-Origin", origin)
			h.Add("Vary", "Origin")
		case len(cors.AllowedOrigins) > 0:
			// Browsers block foreign origins when the value does not match.
			h.Set("Access-Control-Allow-Origin", cors.AllowedOrigins[0])
			h.Add("Vary", "Origin")
		}
		h.Set("Access-Control-Allow-Methods", cors.AllowedMethods)
		h.Set("Access-Control-Allow-Headers", cors.AllowedHeaders)

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next(w, r)
	}
}

// startedWriter records whether the response status has been sent.
type startedWriter struct {
	http.ResponseWriter
	started bool
}

func (w *startedWriter) WriteHeader(code int) {
	w.started = true
	w.ResponseWriter.WriteHeader(code)
}

func (w *startedWriter) Write(b []byte) (int, error) {
	w.started = true
	return w.ResponseWriter.Write(b)
}

func (w *startedWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}

// RecoverMiddleware turns a handler panic into a 500 JSON body carrying the
// panic value and its type. Once the handler has started the response the
// panic is only logged.
func (s *Server) RecoverMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		w := &startedWriter{ResponseWriter: rw}
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler {
				panic(rec)
			}
			message := fmt.Sprint(rec)
			if err, ok := rec.(error); ok {
				message = err.Error()
			}
			kind := fmt.Sprintf("%T", rec)
			zerolog.Ctx(r.Context()).Error().
				Str("panic", message).
				Str("kind", kind).
				Bool("response_started", w.started).
				Bytes("stack", debug.Stack()).
				Msg("handler panic")
			if w.started {
				return
			}
			writeJSON(w, http.StatusInternalServerError, errorBody{Error: message, Kind: kind})
		}()
		next(w, r)
	}
}

// LoggerMiddleware attaches a per-request copy of the server logger to the
// request context.
func (s *Server) LoggerMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return hlog.NewHandler(s.logger)(next).ServeHTTP
}

// RequestIDMiddleware honours an incoming X-Request-ID or generates one, echoes
// it on the response and adds it to the request logger.
func (s *Server) RequestIDMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(requestIDHeader)
		if id == "" || len(id) > 128 {
			id = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, id)
		zerolog.Ctx(r.Context()).UpdateContext(func(c zerolog.Context) zerolog.Context {
			return c.Str("request_id", id)
		})
		next(w, r)
	}
}

func (s *Server) AccessLogMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return hlog.AccessHandler(func(r *http.Request, status, size int, duration time.Duration) {
		event := hlog.FromRequest(r).Info()
		if status >= http.StatusInternalServerError {
			event = hlog.FromRequest(r).Warn()
		}
		event.
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", status).
			Int("size", size).
			Dur("duration", duration).
			Msg("request")
	})(next).ServeHTTP
}
