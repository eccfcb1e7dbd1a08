package remote

import (
	"context"
	"encoding/json"

	"aorify/internal/model"
)

type AccountAPI interface {
	CreateAccount(ctx context.Context, userID, email, password, name string) (*model.Account, error)
	CreateEmailPasswordSession(ctx context.Context, email, password string) (*model.Session, error)
	GetAccount(ctx context.Context) (*model.Account, error)
	DeleteSession(ctx context.Context, sessionID string) error
}

type DatabaseAPI interface {
	ListDocuments(ctx context.Context, collectionID string, queries []string) (*DocumentList, error)
	GetDocument(ctx context.Context, collectionID, documentID string) (json.RawMessage, error)
	CreateDocument(ctx context.Context, collectionID, documentID string, data interface{}) (json.RawMessage, error)
	DeleteDocument(ctx context.Context, collectionID, documentID string) error
}

// StorageAPI is implemented by the platform client and by alternative
// object-store drivers. URL builders never perform I/O.
type StorageAPI interface {
	CreateFile(ctx context.Context, bucketID, fileID string, upload *model.Upload) (*model.File, error)
	DeleteFile(ctx context.Context, bucketID, fileID string) error
	FileViewURL(bucketID, fileID string) string
	FilePreviewURL(bucketID, fileID string, opts model.PreviewOptions) string
}

type AvatarAPI interface {
	InitialsURL(name string) string
}

// DocumentList is one page of a document listing.
type DocumentList struct {
	Total     int               `json:"total"`
	Documents []json.RawMessage `json:"documents"`
}

var (
	_ AccountAPI  = (*Client)(nil)
	_ DatabaseAPI = (*Client)(nil)
	_ StorageAPI  = (*Client)(nil)
	_ AvatarAPI   = (*Client)(nil)
)
