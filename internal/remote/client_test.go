package remote

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"aorify/internal/model"
	"aorify/internal/sessionstore"
)

func newTestClient(t *testing.T, handler http.Handler) (*Client, *sessionstore.MemoryStore) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	store := sessionstore.NewMemoryStore()
	c := NewClient(Options{
		Endpoint:   srv.URL + "/v1/",
		ProjectID:  "proj",
		Platform:   "com.example.app",
		DatabaseID: "db",
		Timeout:    5 * time.Second,
	}, store)
	return c, store
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func TestSession_SecretIsStoredAndSent(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/account/sessions/email", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "proj", r.Header.Get(HeaderProject))
		assert.Equal(t, "appwrite-android://com.example.app", r.Header.Get("Origin"))
		assert.Empty(t, r.Header.Get(HeaderSession))

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "a@b.com", body["email"])

		writeJSON(w, http.StatusCreated, map[string]interface{}{
			"$id":    "sess-1",
			"userId": "acc-1",
			"secret": "top-secret",
			"expire": time.Now().Add(time.Hour).Format(time.RFC3339),
		})
	})
	mux.HandleFunc("GET /v1/account", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get(HeaderSession) != "top-secret" {
			writeJSON(w, http.StatusUnauthorized, apiError{Message: "missing scope", Code: 401, Type: model.TypeUnauthorizedScope})
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{"$id": "acc-1", "email": "a@b.com", "name": "alice"})
	})
	mux.HandleFunc("DELETE /v1/account/sessions/current", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "top-secret", r.Header.Get(HeaderSession))
		w.WriteHeader(http.StatusNoContent)
	})

	c, store := newTestClient(t, mux)
	ctx := context.Background()

	session, err := c.CreateEmailPasswordSession(ctx, "a@b.com", "password123")
	require.NoError(t, err)
	assert.Equal(t, "sess-1", session.ID)

	cred, err := store.Load(ctx)
	require.NoError(t, err)
	require.NotNil(t, cred)
	assert.Equal(t, "top-secret", cred.Secret)

	account, err := c.GetAccount(ctx)
	require.NoError(t, err)
	assert.Equal(t, "acc-1", account.ID)

	require.NoError(t, c.DeleteSession(ctx, model.CurrentSessionID))
	cred, err = store.Load(ctx)
	require.NoError(t, err)
	assert.Nil(t, cred, "sign out should drop the stored credential")

	_, err = c.GetAccount(ctx)
	assert.True(t, errors.Is(err, model.ErrAuth))
}

func TestErrorClassification(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     interface{}
		wantKind error
		wantMsg  string
	}{
		{"rate limit", 429, apiError{Message: model.MsgRateLimit, Type: model.TypeRateLimitExceeded}, model.ErrRateLimit, model.MsgRateLimit},
		{"bad credentials", 401, apiError{Message: model.MsgInvalidCredentials, Type: model.TypeInvalidCredentials}, model.ErrAuth, model.MsgInvalidCredentials},
		{"invalid email", 400, apiError{Message: model.MsgInvalidEmail, Type: model.TypeArgumentInvalid}, model.ErrValidation, model.MsgInvalidEmail},
		{"missing document", 404, apiError{Message: "Document with the requested ID could not be found.", Type: model.TypeDocumentNotFound}, model.ErrNotFound, "Document with the requested ID could not be found."},
		{"conflict", 409, apiError{Message: "exists", Type: model.TypeUserAlreadyExists}, model.ErrRemoteService, "exists"},
		{"plain text body", 502, "bad gateway", model.ErrRemoteService, "bad gateway"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if s, ok := tt.body.(string); ok {
					w.WriteHeader(tt.status)
					_, _ = io.WriteString(w, s)
					return
				}
				writeJSON(w, tt.status, tt.body)
			}))

			_, err := c.GetAccount(context.Background())
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.wantKind), "error %v should be %v", err, tt.wantKind)
			assert.True(t, errors.Is(err, model.ErrRemoteService))
			assert.Equal(t, tt.wantMsg, model.ProviderMessage(err))

			var remoteErr *model.RemoteError
			require.True(t, errors.As(err, &remoteErr))
			assert.Equal(t, tt.status, remoteErr.Code)
		})
	}
}

func TestTransportFailure(t *testing.T) {
	c := NewClient(Options{Endpoint: "http://127.0.0.1:1/v1", ProjectID: "p", DatabaseID: "db", Timeout: time.Second}, nil)

	_, err := c.GetAccount(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, model.ErrRemoteService))
	assert.False(t, errors.Is(err, model.ErrAuth))
}

func TestListDocuments_SendsQueries(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/databases/db/collections/videos/documents", r.URL.Path)
		queries := r.URL.Query()["queries[]"]
		require.Len(t, queries, 2)

		q, err := ParseQuery(queries[0])
		require.NoError(t, err)
		assert.Equal(t, MethodEqual, q.Method)
		assert.Equal(t, "creator", q.Attribute)

		writeJSON(w, http.StatusOK, map[string]interface{}{
			"total": 1,
			"documents": []map[string]interface{}{
				{"$id": "p1", "title": "first", "creator": map[string]interface{}{"$id": "u1", "username": "alice"}},
			},
		})
	}))

	list, err := c.ListDocuments(context.Background(), "videos", []string{Equal("creator", "u1"), OrderDesc("$createdAt")})
	require.NoError(t, err)

	posts, err := DecodeList[model.Post](list)
	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.Equal(t, "p1", posts[0].ID)
	assert.Equal(t, "u1", posts[0].Creator.ID)
	require.NotNil(t, posts[0].Creator.User)
	assert.Equal(t, "alice", posts[0].Creator.User.Username)
}

func TestCreateAndDeleteDocument(t *testing.T) {
	var deleted string
	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/databases/db/collections/saved/documents", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			DocumentID string                 `json:"documentId"`
			Data       map[string]interface{} `json:"data"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "doc-1", body.DocumentID)
		assert.Equal(t, "p1", body.Data["postId"])
		writeJSON(w, http.StatusCreated, map[string]interface{}{"$id": body.DocumentID, "postId": "p1", "userId": "u1"})
	})
	mux.HandleFunc("DELETE /v1/databases/db/collections/saved/documents/{id}", func(w http.ResponseWriter, r *http.Request) {
		deleted = r.PathValue("id")
		w.WriteHeader(http.StatusNoContent)
	})

	c, _ := newTestClient(t, mux)
	ctx := context.Background()

	raw, err := c.CreateDocument(ctx, "saved", "doc-1", model.SavedPostFields{PostID: "p1", UserID: "u1"})
	require.NoError(t, err)
	saved, err := Decode[model.SavedPost](raw)
	require.NoError(t, err)
	assert.Equal(t, "doc-1", saved.ID)

	require.NoError(t, c.DeleteDocument(ctx, "saved", "doc-1"))
	assert.Equal(t, "doc-1", deleted)
}

func TestCreateFile_Multipart(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/storage/buckets/bucket/files", r.URL.Path)
		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "file-1", r.FormValue("fileId"))

		f, header, err := r.FormFile("file")
		require.NoError(t, err)
		defer f.Close()
		data, _ := io.ReadAll(f)
		assert.Equal(t, "clip.mp4", header.Filename)
		assert.Equal(t, "video/mp4", header.Header.Get("Content-Type"))
		assert.Equal(t, "frames", string(data))

		writeJSON(w, http.StatusCreated, map[string]interface{}{"$id": "file-1", "bucketId": "bucket", "name": header.Filename, "mimeType": "video/mp4", "sizeOriginal": len(data)})
	}))

	file, err := c.CreateFile(context.Background(), "bucket", "file-1", &model.Upload{
		Name:     "clip.mp4",
		MimeType: "video/mp4",
		Body:     strings.NewReader("frames"),
	})
	require.NoError(t, err)
	assert.Equal(t, "file-1", file.ID)
	assert.Equal(t, int64(6), file.SizeOriginal)
}

func TestURLBuilders(t *testing.T) {
	c := NewClient(Options{Endpoint: "https://cloud.example.io/v1", ProjectID: "proj"}, nil)

	view := c.FileViewURL("bucket", "file-1")
	assert.Equal(t, "https://cloud.example.io/v1/storage/buckets/bucket/files/file-1/view?project=proj", view)

	preview, err := url.Parse(c.FilePreviewURL("bucket", "file-1", model.ThumbnailPreview()))
	require.NoError(t, err)
	assert.Equal(t, "/v1/storage/buckets/bucket/files/file-1/preview", preview.Path)
	assert.Equal(t, "2000", preview.Query().Get("width"))
	assert.Equal(t, "2000", preview.Query().Get("height"))
	assert.Equal(t, "top", preview.Query().Get("gravity"))
	assert.Equal(t, "100", preview.Query().Get("quality"))

	avatar, err := url.Parse(c.InitialsURL("alice smith"))
	require.NoError(t, err)
	assert.Equal(t, "/v1/avatars/initials", avatar.Path)
	assert.Equal(t, "alice smith", avatar.Query().Get("name"))
	assert.Equal(t, "proj", avatar.Query().Get("project"))
}

func TestUniqueID(t *testing.T) {
	a, b := UniqueID(), UniqueID()
	assert.NotEqual(t, a, b)
	assert.LessOrEqual(t, len(a), 36)
}
