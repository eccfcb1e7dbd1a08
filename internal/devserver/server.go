// Package devserver is a self-hosted implementation of the platform REST
// surface the client uses: accounts and email sessions, documents with
// queries, file storage with previews, and initials avatars. It backs local
// development and the end-to-end tests.
package devserver

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"

	"aorify/internal/config"
	"aorify/internal/httputil"
	"aorify/internal/logging"
	"aorify/internal/model"
	"aorify/internal/remote"
)

var log = logging.For("devserver")

// Platform error types only the server produces.
const (
	typeProjectNotFound     = "project_not_found"
	typeDatabaseNotFound    = "database_not_found"
	typeBucketNotFound      = "storage_bucket_not_found"
	typeUserUnauthorized    = "user_unauthorized"
	typeQueryInvalid        = "general_query_invalid"
	typeInvalidStructure    = "document_invalid_structure"
	typeFileAlreadyExists   = "storage_file_already_exists"
	typeFileTypeUnsupported = "storage_file_type_unsupported"
)

const (
	defaultListLimit = 25
	maxListLimit     = 5000
	maxUploadBytes   = 50 << 20
)

// Options configures a Server.
type Options struct {
	ProjectID  string
	DatabaseID string
	BucketID   string

	JWTSecret     string
	SessionMaxAge time.Duration

	// SessionRateLimit caps account and session creations per client per
	// minute. Zero disables the limit.
	SessionRateLimit int

	// Relationships maps collection -> attribute -> related collection.
	// Related documents are expanded in responses.
	Relationships map[string]map[string]string
}

func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		ProjectID:        cfg.ProjectID,
		DatabaseID:       cfg.DatabaseID,
		BucketID:         cfg.StorageID,
		JWTSecret:        cfg.JWTSecret,
		SessionMaxAge:    time.Duration(cfg.SessionMaxAge) * time.Second,
		SessionRateLimit: cfg.SessionRateLimit,
		Relationships: map[string]map[string]string{
			cfg.VideoCollectionID: {model.AttrCreator: cfg.UserCollectionID},
		},
	}
}

type Server struct {
	store    *Store
	opts     Options
	limiter  *clientLimiter
	validate *validator.Validate
}

func New(db *sqlx.DB, opts Options) *Server {
	if opts.SessionMaxAge <= 0 {
		opts.SessionMaxAge = 365 * 24 * time.Hour
	}
	return &Server{
		store:    NewStore(db),
		opts:     opts,
		limiter:  newClientLimiter(opts.SessionRateLimit),
		validate: newValidator(),
	}
}

// Handler returns the router serving the API under /v1.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/v1", func(r chi.Router) {
		r.Use(s.requireProject)
		r.Use(s.authenticate)

		r.Route("/account", func(r chi.Router) {
			r.With(s.limiter.middleware).Post("/", s.createAccount)
			r.With(s.requireSession).Get("/", s.getAccount)
			r.With(s.limiter.middleware).Post("/sessions/email", s.createEmailSession)
			r.With(s.requireSession).Delete("/sessions/{sessionId}", s.deleteSession)
		})

		r.Route("/databases/{databaseId}/collections/{collectionId}/documents", func(r chi.Router) {
			r.Use(s.requireDatabase)
			r.Get("/", s.listDocuments)
			r.With(s.requireUser).Post("/", s.createDocument)
			r.Get("/{documentId}", s.getDocument)
			r.With(s.requireUser).Delete("/{documentId}", s.deleteDocument)
		})

		r.Route("/storage/buckets/{bucketId}/files", func(r chi.Router) {
			r.Use(s.requireBucket)
			r.With(s.requireUser).Post("/", s.createFile)
			r.With(s.requireUser).Delete("/{fileId}", s.deleteFile)
			r.Get("/{fileId}/view", s.viewFile)
			r.Get("/{fileId}/preview", s.previewFile)
		})

		r.Get("/avatars/initials", s.initialsAvatar)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		httputil.WriteNotFound(w, model.TypeRouteNotFound, "The requested route was not found. Please refer to the API docs and try again.")
	})

	return r
}

// requireProject accepts the project from the header or, for URLs opened
// directly, the project query parameter.
func (s *Server) requireProject(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		project := r.Header.Get(remote.HeaderProject)
		if project == "" {
			project = r.URL.Query().Get("project")
		}
		if project != s.opts.ProjectID {
			httputil.WriteNotFound(w, typeProjectNotFound, "Project with the requested ID could not be found. Please check the value of the X-Appwrite-Project header to ensure the correct project ID is being used.")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) requireDatabase(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if chi.URLParam(r, "databaseId") != s.opts.DatabaseID {
			httputil.WriteNotFound(w, typeDatabaseNotFound, "Database not found")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) requireBucket(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if chi.URLParam(r, "bucketId") != s.opts.BucketID {
			httputil.WriteNotFound(w, typeBucketNotFound, "Storage bucket with the requested ID could not be found.")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// requestLogger logs each request through logrus.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()

		next.ServeHTTP(ww, r)

		log.WithFields(logrus.Fields{
			"method":     r.Method,
			"path":       r.URL.Path,
			"status":     ww.Status(),
			"bytes":      ww.BytesWritten(),
			"duration":   time.Since(start),
			"request_id": middleware.GetReqID(r.Context()),
		}).Debug("request")
	})
}
