package devserver

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"aorify/internal/httputil"
	"aorify/internal/model"
	"aorify/internal/remote"
)

// contextKey is a custom type for context keys to avoid collisions
type contextKey string

const principalKey contextKey = "principal"

// principal is the authenticated caller of a request.
type principal struct {
	AccountID string
	SessionID string
}

func principalFrom(ctx context.Context) (principal, bool) {
	p, ok := ctx.Value(principalKey).(principal)
	return p, ok
}

// issueSecret signs the session secret handed to the client.
func (s *Server) issueSecret(session *sessionRow, expires time.Time) (string, error) {
	claims := jwt.RegisteredClaims{
		ID:        session.ID,
		Subject:   session.AccountID,
		IssuedAt:  jwt.NewNumericDate(time.Now()),
		ExpiresAt: jwt.NewNumericDate(expires),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.opts.JWTSecret))
}

// authenticate resolves the session header. Requests with a missing, invalid,
// expired or deleted session continue as guests.
func (s *Server) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		secret := r.Header.Get(remote.HeaderSession)
		if secret == "" {
			next.ServeHTTP(w, r)
			return
		}

		var claims jwt.RegisteredClaims
		_, err := jwt.ParseWithClaims(secret, &claims, func(token *jwt.Token) (interface{}, error) {
			return []byte(s.opts.JWTSecret), nil
		}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
		if err != nil {
			log.WithError(err).Debug("ignoring invalid session secret")
			next.ServeHTTP(w, r)
			return
		}

		session, err := s.store.SessionByID(r.Context(), claims.ID)
		if err != nil || session.AccountID != claims.Subject {
			next.ServeHTTP(w, r)
			return
		}

		ctx := context.WithValue(r.Context(), principalKey, principal{AccountID: session.AccountID, SessionID: session.ID})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// requireSession guards account routes.
func (s *Server) requireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := principalFrom(r.Context()); !ok {
			httputil.WriteUnauthorized(w, model.TypeUnauthorizedScope, "User (role: guests) missing scope (account)")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// requireUser guards writes to documents and files.
func (s *Server) requireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := principalFrom(r.Context()); !ok {
			httputil.WriteUnauthorized(w, typeUserUnauthorized, "The current user is not authorized to perform the requested action.")
			return
		}
		next.ServeHTTP(w, r)
	})
}

type createAccountRequest struct {
	UserID   string `json:"userId" validate:"required,max=36"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=265,notcommon"`
	Name     string `json:"name" validate:"max=128"`
}

type accountResponse struct {
	ID                string            `json:"$id"`
	CreatedAt         string            `json:"$createdAt"`
	UpdatedAt         string            `json:"$updatedAt"`
	Name              string            `json:"name"`
	Email             string            `json:"email"`
	Status            bool              `json:"status"`
	EmailVerification bool              `json:"emailVerification"`
	Prefs             map[string]string `json:"prefs"`
}

func newAccountResponse(a *accountRow) accountResponse {
	return accountResponse{
		ID:        a.ID,
		CreatedAt: a.CreatedAt,
		UpdatedAt: a.CreatedAt,
		Name:      a.Name,
		Email:     a.Email,
		Status:    true,
		Prefs:     map[string]string{},
	}
}

func (s *Server) createAccount(w http.ResponseWriter, r *http.Request) {
	var req createAccountRequest
	if !s.decodeBody(w, r, &req) {
		return
	}
	if req.UserID == "unique()" {
		req.UserID = uuid.NewString()
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))

	if err := s.validate.Struct(req); err != nil {
		httputil.WriteBadRequest(w, validationMessage(err))
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		log.WithError(err).Error("hash password")
		httputil.WriteInternalError(w)
		return
	}

	account, err := s.store.CreateAccount(r.Context(), req.UserID, req.Email, req.Name, string(hash))
	if errors.Is(err, errExists) {
		httputil.WriteConflict(w, model.TypeUserAlreadyExists, "A user with the same id, email, or phone already exists in this project.")
		return
	}
	if err != nil {
		log.WithError(err).Error("create account")
		httputil.WriteInternalError(w)
		return
	}

	log.WithField("account", account.ID).Info("account created")
	httputil.WriteJSON(w, http.StatusCreated, newAccountResponse(account))
}

func (s *Server) getAccount(w http.ResponseWriter, r *http.Request) {
	p, _ := principalFrom(r.Context())
	account, err := s.store.AccountByID(r.Context(), p.AccountID)
	if errors.Is(err, errNotFound) {
		httputil.WriteNotFound(w, model.TypeUserNotFound, "User with the requested ID could not be found.")
		return
	}
	if err != nil {
		log.WithError(err).Error("get account")
		httputil.WriteInternalError(w)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, newAccountResponse(account))
}

type createSessionRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,max=265"`
}

type sessionResponse struct {
	ID        string `json:"$id"`
	CreatedAt string `json:"$createdAt"`
	UserID    string `json:"userId"`
	Expire    string `json:"expire"`
	Provider  string `json:"provider"`
	Current   bool   `json:"current"`
	Secret    string `json:"secret"`
}

func (s *Server) createEmailSession(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if !s.decodeBody(w, r, &req) {
		return
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))

	if err := s.validate.Struct(req); err != nil {
		httputil.WriteBadRequest(w, validationMessage(err))
		return
	}

	account, err := s.store.AccountByEmail(r.Context(), req.Email)
	if err != nil && !errors.Is(err, errNotFound) {
		log.WithError(err).Error("look up account")
		httputil.WriteInternalError(w)
		return
	}
	if account == nil || bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(req.Password)) != nil {
		httputil.WriteUnauthorized(w, model.TypeInvalidCredentials, model.MsgInvalidCredentials)
		return
	}

	expires := time.Now().Add(s.opts.SessionMaxAge)
	session, err := s.store.CreateSession(r.Context(), uuid.NewString(), account.ID, expires)
	if err != nil {
		log.WithError(err).Error("create session")
		httputil.WriteInternalError(w)
		return
	}

	secret, err := s.issueSecret(session, expires)
	if err != nil {
		log.WithError(err).Error("sign session secret")
		httputil.WriteInternalError(w)
		return
	}

	log.WithField("account", account.ID).WithField("session", session.ID).Info("session created")
	httputil.WriteJSON(w, http.StatusCreated, sessionResponse{
		ID:        session.ID,
		CreatedAt: session.CreatedAt,
		UserID:    account.ID,
		Expire:    session.ExpiresAt,
		Provider:  "email",
		Current:   true,
		Secret:    secret,
	})
}

func (s *Server) deleteSession(w http.ResponseWriter, r *http.Request) {
	p, _ := principalFrom(r.Context())

	sessionID := chi.URLParam(r, "sessionId")
	if sessionID == model.CurrentSessionID {
		sessionID = p.SessionID
	}

	err := s.store.DeleteSession(r.Context(), sessionID, p.AccountID)
	if errors.Is(err, errNotFound) {
		httputil.WriteNotFound(w, model.TypeSessionNotFound, "The current user session could not be found.")
		return
	}
	if err != nil {
		log.WithError(err).Error("delete session")
		httputil.WriteInternalError(w)
		return
	}
	httputil.WriteNoContent(w)
}

// decodeBody reads a JSON request body, writing a 400 on failure.
func (s *Server) decodeBody(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(v); err != nil {
		httputil.WriteBadRequest(w, "Invalid request body: "+err.Error())
		return false
	}
	return true
}
