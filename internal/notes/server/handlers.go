package server

import (
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/render"
	"github.com/sirupsen/logrus"

	"github.com/five82/folio/internal/notes"
)

// Options configure the router.
type Options struct {
	// AllowedOrigins lists extra CORS origins. Loopback origins are always
	// allowed.
	AllowedOrigins []string
}

type errorResponse struct {
	Error string `json:"error"`
}

// NewRouter builds the notes API.
func NewRouter(repo Repository, opts Options) *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   opts.AllowedOrigins,
		AllowOriginFunc:  allowLoopback,
		AllowedMethods:   []string{"GET", "PUT", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "Content-Length", "If-Match"},
		ExposedHeaders:   []string{"ETag"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		render.PlainText(w, r, "ok")
	})
	r.Route("/api/documents/{id}/pdf-notes", func(r chi.Router) {
		r.Get("/", handleGet(repo))
		r.Put("/", handlePut(repo))
	})
	return r
}

func allowLoopback(_ *http.Request, origin string) bool {
	parsed, err := url.Parse(origin)
	if err != nil {
		return false
	}
	switch parsed.Scheme {
	case "http", "https":
		switch parsed.Hostname() {
		case "localhost", "127.0.0.1", "::1":
			return true
		}
	}
	return false
}

func handleGet(repo Repository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		doc, err := repo.Get(r.Context(), id)
		if err != nil {
			logrus.WithError(err).WithField("document_id", id).Error("failed to load notes")
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, errorResponse{Error: "failed to load notes"})
			return
		}
		if doc.Revision != "" {
			w.Header().Set("ETag", `"`+doc.Revision+`"`)
		}
		render.JSON(w, r, doc)
	}
}

func handlePut(repo Repository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		var req notes.SaveRequest
		if err := render.DecodeJSON(r.Body, &req); err != nil {
			logrus.WithField("error", err).Warn("failed to decode notes request")
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, errorResponse{Error: "invalid request body"})
			return
		}

		ifRevision := strings.Trim(strings.TrimSpace(r.Header.Get("If-Match")), `"`)
		doc, err := repo.Put(r.Context(), id, ifRevision, req.PDFNotes)
		switch {
		case errors.Is(err, ErrRevisionMismatch):
			render.Status(r, http.StatusConflict)
			render.JSON(w, r, errorResponse{Error: err.Error()})
			return
		case err != nil:
			logrus.WithError(err).WithField("document_id", id).Error("failed to save notes")
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, errorResponse{Error: "failed to save notes"})
			return
		}
		w.Header().Set("ETag", `"`+doc.Revision+`"`)
		render.JSON(w, r, doc)
	}
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		logrus.WithFields(logrus.Fields{
			"method":     r.Method,
			"path":       r.URL.Path,
			"status":     ww.Status(),
			"bytes":      ww.BytesWritten(),
			"duration":   time.Since(start).String(),
			"request_id": middleware.GetReqID(r.Context()),
		}).Debug("request")
	})
}
