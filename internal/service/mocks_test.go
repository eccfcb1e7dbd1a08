package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"aorify/internal/model"
	"aorify/internal/remote"
)

type mockAccount struct {
	createAccountFn func(ctx context.Context, userID, email, password, name string) (*model.Account, error)
	createSessionFn func(ctx context.Context, email, password string) (*model.Session, error)
	getAccountFn    func(ctx context.Context) (*model.Account, error)
	deleteSessionFn func(ctx context.Context, sessionID string) error

	calls []string
}

func (m *mockAccount) CreateAccount(ctx context.Context, userID, email, password, name string) (*model.Account, error) {
	m.calls = append(m.calls, "CreateAccount")
	if m.createAccountFn != nil {
		return m.createAccountFn(ctx, userID, email, password, name)
	}
	return &model.Account{ID: userID, Email: email, Name: name}, nil
}

func (m *mockAccount) CreateEmailPasswordSession(ctx context.Context, email, password string) (*model.Session, error) {
	m.calls = append(m.calls, "CreateEmailPasswordSession")
	if m.createSessionFn != nil {
		return m.createSessionFn(ctx, email, password)
	}
	return &model.Session{ID: "sess", Current: true}, nil
}

func (m *mockAccount) GetAccount(ctx context.Context) (*model.Account, error) {
	m.calls = append(m.calls, "GetAccount")
	if m.getAccountFn != nil {
		return m.getAccountFn(ctx)
	}
	return nil, &model.RemoteError{Code: 401, Type: model.TypeUnauthorizedScope}
}

func (m *mockAccount) DeleteSession(ctx context.Context, sessionID string) error {
	m.calls = append(m.calls, "DeleteSession:"+sessionID)
	if m.deleteSessionFn != nil {
		return m.deleteSessionFn(ctx, sessionID)
	}
	return nil
}

type createDocCall struct {
	Collection string
	DocumentID string
	Data       interface{}
}

type mockDatabase struct {
	mu sync.Mutex

	listFn   func(ctx context.Context, collectionID string, queries []string) (*remote.DocumentList, error)
	getFn    func(ctx context.Context, collectionID, documentID string) (json.RawMessage, error)
	createFn func(ctx context.Context, collectionID, documentID string, data interface{}) (json.RawMessage, error)
	deleteFn func(ctx context.Context, collectionID, documentID string) error

	listCalls   [][]string
	createCalls []createDocCall
	deleteCalls []string
	ops         []string
}

func (m *mockDatabase) record(op string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ops = append(m.ops, op)
}

func (m *mockDatabase) ListDocuments(ctx context.Context, collectionID string, queries []string) (*remote.DocumentList, error) {
	m.record("list:" + collectionID)
	m.mu.Lock()
	m.listCalls = append(m.listCalls, queries)
	m.mu.Unlock()
	if m.listFn != nil {
		return m.listFn(ctx, collectionID, queries)
	}
	return &remote.DocumentList{}, nil
}

func (m *mockDatabase) GetDocument(ctx context.Context, collectionID, documentID string) (json.RawMessage, error) {
	m.record("get:" + documentID)
	if m.getFn != nil {
		return m.getFn(ctx, collectionID, documentID)
	}
	return nil, &model.RemoteError{Code: 404, Type: model.TypeDocumentNotFound}
}

// CreateDocument echoes the data back as the stored document by default.
func (m *mockDatabase) CreateDocument(ctx context.Context, collectionID, documentID string, data interface{}) (json.RawMessage, error) {
	m.record("create:" + collectionID)
	m.mu.Lock()
	m.createCalls = append(m.createCalls, createDocCall{Collection: collectionID, DocumentID: documentID, Data: data})
	m.mu.Unlock()
	if m.createFn != nil {
		return m.createFn(ctx, collectionID, documentID, data)
	}
	return withID(documentID, data), nil
}

func (m *mockDatabase) DeleteDocument(ctx context.Context, collectionID, documentID string) error {
	m.record("delete:" + documentID)
	m.mu.Lock()
	m.deleteCalls = append(m.deleteCalls, documentID)
	m.mu.Unlock()
	if m.deleteFn != nil {
		return m.deleteFn(ctx, collectionID, documentID)
	}
	return nil
}

type mockStorage struct {
	mu sync.Mutex

	createFn func(ctx context.Context, bucketID, fileID string, upload *model.Upload) (*model.File, error)
	deleteFn func(ctx context.Context, bucketID, fileID string) error

	created []string
	deleted []string
}

func (m *mockStorage) CreateFile(ctx context.Context, bucketID, fileID string, upload *model.Upload) (*model.File, error) {
	file := &model.File{ID: fileID, BucketID: bucketID, Name: upload.Name}
	if m.createFn != nil {
		var err error
		if file, err = m.createFn(ctx, bucketID, fileID, upload); err != nil {
			return nil, err
		}
	}
	m.mu.Lock()
	m.created = append(m.created, file.ID)
	m.mu.Unlock()
	return file, nil
}

func (m *mockStorage) DeleteFile(ctx context.Context, bucketID, fileID string) error {
	m.mu.Lock()
	m.deleted = append(m.deleted, fileID)
	m.mu.Unlock()
	if m.deleteFn != nil {
		return m.deleteFn(ctx, bucketID, fileID)
	}
	return nil
}

func (m *mockStorage) FileViewURL(bucketID, fileID string) string {
	return fmt.Sprintf("https://cloud.test/v1/storage/buckets/%s/files/%s/view?project=p", bucketID, fileID)
}

func (m *mockStorage) FilePreviewURL(bucketID, fileID string, opts model.PreviewOptions) string {
	return fmt.Sprintf("https://cloud.test/v1/storage/buckets/%s/files/%s/preview?width=%d&height=%d&gravity=%s&quality=%d&project=p",
		bucketID, fileID, opts.Width, opts.Height, opts.Gravity, opts.Quality)
}

type mockAvatars struct{}

func (mockAvatars) InitialsURL(name string) string {
	return "https://cloud.test/v1/avatars/initials?name=" + name
}

func withID(id string, data interface{}) json.RawMessage {
	fields := map[string]interface{}{}
	b, _ := json.Marshal(data)
	_ = json.Unmarshal(b, &fields)
	fields["$id"] = id
	out, _ := json.Marshal(fields)
	return out
}

func docs(items ...interface{}) *remote.DocumentList {
	list := &remote.DocumentList{Total: len(items)}
	for _, it := range items {
		b, _ := json.Marshal(it)
		list.Documents = append(list.Documents, b)
	}
	return list
}

// sequentialIDs returns ids id-1, id-2, ... safe for concurrent use.
func sequentialIDs() IDGenerator {
	var mu sync.Mutex
	n := 0
	return func() string {
		mu.Lock()
		defer mu.Unlock()
		n++
		return fmt.Sprintf("id-%d", n)
	}
}

var testCollections = Collections{Users: "users", Videos: "videos", SavedPosts: "saved", Bucket: "bucket"}
