package devserver

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"
)

// timeLayout is fixed width so stored timestamps sort chronologically as text.
const timeLayout = "2006-01-02T15:04:05.000000Z07:00"

var (
	errNotFound = errors.New("record not found")
	errExists   = errors.New("record already exists")
)

type accountRow struct {
	ID           string `db:"id"`
	Email        string `db:"email"`
	Name         string `db:"name"`
	PasswordHash string `db:"password_hash"`
	CreatedAt    string `db:"created_at"`
}

type sessionRow struct {
	ID        string `db:"id"`
	AccountID string `db:"account_id"`
	ExpiresAt string `db:"expires_at"`
	CreatedAt string `db:"created_at"`
}

type documentRow struct {
	CollectionID string `db:"collection_id"`
	ID           string `db:"id"`
	Data         string `db:"data"`
	CreatedAt    string `db:"created_at"`
	UpdatedAt    string `db:"updated_at"`
}

type fileRow struct {
	BucketID  string `db:"bucket_id"`
	ID        string `db:"id"`
	Name      string `db:"name"`
	MimeType  string `db:"mime_type"`
	Size      int64  `db:"size"`
	Content   []byte `db:"content"`
	CreatedAt string `db:"created_at"`
}

// Store persists accounts, sessions, documents and files. Inserts are
// serialized so existence checks and creation timestamps stay consistent.
type Store struct {
	db *sqlx.DB

	mu   sync.Mutex
	last time.Time
}

func NewStore(db *sqlx.DB) *Store {
	return &Store{db: db}
}

// stamp returns a creation time strictly after the previous one. Callers hold s.mu.
func (s *Store) stamp() string {
	now := time.Now().UTC().Truncate(time.Microsecond)
	if !now.After(s.last) {
		now = s.last.Add(time.Microsecond)
	}
	s.last = now
	return now.Format(timeLayout)
}

func (s *Store) exists(ctx context.Context, query string, args ...interface{}) (bool, error) {
	var n int
	if err := s.db.GetContext(ctx, &n, s.db.Rebind(query), args...); err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *Store) CreateAccount(ctx context.Context, id, email, name, passwordHash string) (*accountRow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	taken, err := s.exists(ctx, `SELECT COUNT(*) FROM accounts WHERE id = ? OR email = ?`, id, email)
	if err != nil {
		return nil, fmt.Errorf("check account: %w", err)
	}
	if taken {
		return nil, errExists
	}

	row := &accountRow{ID: id, Email: email, Name: name, PasswordHash: passwordHash, CreatedAt: s.stamp()}
	_, err = s.db.NamedExecContext(ctx,
		`INSERT INTO accounts (id, email, name, password_hash, created_at)
		 VALUES (:id, :email, :name, :password_hash, :created_at)`, row)
	if err != nil {
		return nil, fmt.Errorf("failed to create account: %w", err)
	}
	return row, nil
}

func (s *Store) AccountByEmail(ctx context.Context, email string) (*accountRow, error) {
	return s.getAccount(ctx, `SELECT * FROM accounts WHERE email = ?`, email)
}

func (s *Store) AccountByID(ctx context.Context, id string) (*accountRow, error) {
	return s.getAccount(ctx, `SELECT * FROM accounts WHERE id = ?`, id)
}

func (s *Store) getAccount(ctx context.Context, query string, arg string) (*accountRow, error) {
	var row accountRow
	if err := s.db.GetContext(ctx, &row, s.db.Rebind(query), arg); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errNotFound
		}
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	return &row, nil
}

func (s *Store) CreateSession(ctx context.Context, id, accountID string, expires time.Time) (*sessionRow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	row := &sessionRow{ID: id, AccountID: accountID, ExpiresAt: expires.UTC().Format(timeLayout), CreatedAt: s.stamp()}
	_, err := s.db.NamedExecContext(ctx,
		`INSERT INTO sessions (id, account_id, expires_at, created_at)
		 VALUES (:id, :account_id, :expires_at, :created_at)`, row)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	return row, nil
}

func (s *Store) SessionByID(ctx context.Context, id string) (*sessionRow, error) {
	var row sessionRow
	if err := s.db.GetContext(ctx, &row, s.db.Rebind(`SELECT * FROM sessions WHERE id = ?`), id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errNotFound
		}
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	return &row, nil
}

func (s *Store) DeleteSession(ctx context.Context, id, accountID string) error {
	return s.deleteOne(ctx, `DELETE FROM sessions WHERE id = ? AND account_id = ?`, id, accountID)
}

func (s *Store) CreateDocument(ctx context.Context, collectionID, id string, data []byte) (*documentRow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	taken, err := s.exists(ctx, `SELECT COUNT(*) FROM documents WHERE collection_id = ? AND id = ?`, collectionID, id)
	if err != nil {
		return nil, fmt.Errorf("check document: %w", err)
	}
	if taken {
		return nil, errExists
	}

	now := s.stamp()
	row := &documentRow{CollectionID: collectionID, ID: id, Data: string(data), CreatedAt: now, UpdatedAt: now}
	_, err = s.db.NamedExecContext(ctx,
		`INSERT INTO documents (collection_id, id, data, created_at, updated_at)
		 VALUES (:collection_id, :id, :data, :created_at, :updated_at)`, row)
	if err != nil {
		return nil, fmt.Errorf("failed to create document: %w", err)
	}
	return row, nil
}

func (s *Store) GetDocument(ctx context.Context, collectionID, id string) (*documentRow, error) {
	var row documentRow
	err := s.db.GetContext(ctx, &row,
		s.db.Rebind(`SELECT * FROM documents WHERE collection_id = ? AND id = ?`), collectionID, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errNotFound
		}
		return nil, fmt.Errorf("failed to get document: %w", err)
	}
	return &row, nil
}

// ListDocuments returns every document of a collection in creation order.
func (s *Store) ListDocuments(ctx context.Context, collectionID string) ([]documentRow, error) {
	var rows []documentRow
	err := s.db.SelectContext(ctx, &rows,
		s.db.Rebind(`SELECT * FROM documents WHERE collection_id = ? ORDER BY created_at ASC, id ASC`), collectionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	return rows, nil
}

func (s *Store) DeleteDocument(ctx context.Context, collectionID, id string) error {
	return s.deleteOne(ctx, `DELETE FROM documents WHERE collection_id = ? AND id = ?`, collectionID, id)
}

func (s *Store) CreateFile(ctx context.Context, row *fileRow) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	taken, err := s.exists(ctx, `SELECT COUNT(*) FROM files WHERE bucket_id = ? AND id = ?`, row.BucketID, row.ID)
	if err != nil {
		return fmt.Errorf("check file: %w", err)
	}
	if taken {
		return errExists
	}

	row.CreatedAt = s.stamp()
	_, err = s.db.NamedExecContext(ctx,
		`INSERT INTO files (bucket_id, id, name, mime_type, size, content, created_at)
		 VALUES (:bucket_id, :id, :name, :mime_type, :size, :content, :created_at)`, row)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	return nil
}

func (s *Store) GetFile(ctx context.Context, bucketID, id string) (*fileRow, error) {
	var row fileRow
	err := s.db.GetContext(ctx, &row,
		s.db.Rebind(`SELECT * FROM files WHERE bucket_id = ? AND id = ?`), bucketID, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errNotFound
		}
		return nil, fmt.Errorf("failed to get file: %w", err)
	}
	return &row, nil
}

func (s *Store) DeleteFile(ctx context.Context, bucketID, id string) error {
	return s.deleteOne(ctx, `DELETE FROM files WHERE bucket_id = ? AND id = ?`, bucketID, id)
}

func (s *Store) deleteOne(ctx context.Context, query string, args ...interface{}) error {
	res, err := s.db.ExecContext(ctx, s.db.Rebind(query), args...)
	if err != nil {
		return fmt.Errorf("failed to delete: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete: %w", err)
	}
	if n == 0 {
		return errNotFound
	}
	return nil
}

// DeleteExpiredSessions removes sessions that expired before now and returns
// how many were removed.
func (s *Store) DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, s.db.Rebind(`DELETE FROM sessions WHERE expires_at < ?`), now.UTC().Format(timeLayout))
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired sessions: %w", err)
	}
	return res.RowsAffected()
}
