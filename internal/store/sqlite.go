package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/ashureev/notifyhub/internal/domain"
	"github.com/ashureev/notifyhub/internal/shared"
	_ "modernc.org/sqlite"
)

const (
	writeRetries   = 3
	writeBaseDelay = 50 * time.Millisecond
)

// SQLiteStore implements Repository using SQLite.
type SQLiteStore struct {
	db      *sql.DB
	stateMu sync.Mutex // serializes consume-once reads of oauth_states
}

func openSQLite(dbPath string) (*sql.DB, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	dsn := dbPath + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return db, nil
}

// NewSQLite creates a new SQLite-backed repository.
func NewSQLite(dbPath string) (*SQLiteStore, error) {
	db, err := openSQLite(dbPath)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	s := &SQLiteStore{db: db}
	if err := s.initSchema(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	return s, nil
}

func (s *SQLiteStore) initSchema() error {
	query := `
	CREATE TABLE IF NOT EXISTS accounts (
		account_id TEXT PRIMARY KEY,
		username TEXT NOT NULL UNIQUE,
		email TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		created_at INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS api_sessions (
		token TEXT PRIMARY KEY,
		account_id TEXT NOT NULL,
		created_at INTEGER NOT NULL,
		expires_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_api_sessions_expires ON api_sessions(expires_at);

	CREATE TABLE IF NOT EXISTS oauth_states (
		state TEXT PRIMARY KEY,
		account_id TEXT NOT NULL,
		created_at INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS mailbox_links (
		account_id TEXT PRIMARY KEY,
		access_token TEXT NOT NULL,
		refresh_token TEXT NOT NULL DEFAULT '',
		token_type TEXT NOT NULL DEFAULT '',
		expiry INTEGER NOT NULL DEFAULT 0,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	);
	`
	if _, err := s.db.Exec(query); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func (s *SQLiteStore) exec(ctx context.Context, op, query string, args ...interface{}) (sql.Result, error) {
	var result sql.Result
	err := shared.RetryOnConflict(ctx, writeRetries, writeBaseDelay, op, func() error {
		var execErr error
		result, execErr = s.db.ExecContext(ctx, query, args...)
		return execErr
	})
	return result, err
}

// Ping verifies database connectivity.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("close database: %w", err)
	}
	return nil
}

// CreateAccount inserts a new account.
func (s *SQLiteStore) CreateAccount(ctx context.Context, account *domain.Account) error {
	query := `
	INSERT INTO accounts (account_id, username, email, password_hash, created_at)
	VALUES (?, ?, ?, ?, ?)`

	_, err := s.exec(ctx, "create account", query,
		account.ID, account.Username, domain.NormalizeEmail(account.Email),
		account.PasswordHash, account.CreatedAt.Unix(),
	)
	if isUniqueViolation(err) {
		return ErrDuplicate
	}
	if err != nil {
		return fmt.Errorf("insert account: %w", err)
	}
	return nil
}

func (s *SQLiteStore) getAccount(ctx context.Context, where string, arg string) (*domain.Account, error) {
	query := `
		SELECT account_id, username, email, password_hash, created_at
		FROM accounts WHERE ` + where + ` = ?`

	var account domain.Account
	var createdAt int64
	err := s.db.QueryRowContext(ctx, query, arg).Scan(
		&account.ID, &account.Username, &account.Email, &account.PasswordHash, &createdAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan account row: %w", err)
	}
	account.CreatedAt = time.Unix(createdAt, 0)
	return &account, nil
}

// GetAccount retrieves an account by ID.
func (s *SQLiteStore) GetAccount(ctx context.Context, id string) (*domain.Account, error) {
	return s.getAccount(ctx, "account_id", id)
}

// GetAccountByEmail retrieves an account by email.
func (s *SQLiteStore) GetAccountByEmail(ctx context.Context, email string) (*domain.Account, error) {
	return s.getAccount(ctx, "email", domain.NormalizeEmail(email))
}

// CreateAPISession stores a newly issued bearer token.
func (s *SQLiteStore) CreateAPISession(ctx context.Context, session *domain.APISession) error {
	query := `INSERT INTO api_sessions (token, account_id, created_at, expires_at) VALUES (?, ?, ?, ?)`
	if _, err := s.exec(ctx, "create api session", query,
		session.Token, session.AccountID, session.CreatedAt.Unix(), session.ExpiresAt.Unix(),
	); err != nil {
		return fmt.Errorf("insert api session: %w", err)
	}
	return nil
}

// GetAPISession looks up a bearer token.
func (s *SQLiteStore) GetAPISession(ctx context.Context, token string) (*domain.APISession, error) {
	query := `SELECT token, account_id, created_at, expires_at FROM api_sessions WHERE token = ?`

	var session domain.APISession
	var createdAt, expiresAt int64
	err := s.db.QueryRowContext(ctx, query, token).Scan(&session.Token, &session.AccountID, &createdAt, &expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan api session: %w", err)
	}
	session.CreatedAt = time.Unix(createdAt, 0)
	session.ExpiresAt = time.Unix(expiresAt, 0)
	return &session, nil
}

// DeleteAPISession revokes a bearer token.
func (s *SQLiteStore) DeleteAPISession(ctx context.Context, token string) error {
	if _, err := s.exec(ctx, "delete api session", `DELETE FROM api_sessions WHERE token = ?`, token); err != nil {
		return fmt.Errorf("delete api session: %w", err)
	}
	return nil
}

// CleanupExpiredSessions removes tokens that expired before now.
func (s *SQLiteStore) CleanupExpiredSessions(ctx context.Context, now time.Time) (int64, error) {
	result, err := s.exec(ctx, "cleanup api sessions", `DELETE FROM api_sessions WHERE expires_at < ?`, now.Unix())
	if err != nil {
		return 0, fmt.Errorf("cleanup expired sessions: %w", err)
	}
	return result.RowsAffected()
}

// SaveOAuthState records a pending authorization request.
func (s *SQLiteStore) SaveOAuthState(ctx context.Context, state *domain.OAuthState) error {
	query := `INSERT INTO oauth_states (state, account_id, created_at) VALUES (?, ?, ?)`
	if _, err := s.exec(ctx, "save oauth state", query, state.State, state.AccountID, state.CreatedAt.Unix()); err != nil {
		return fmt.Errorf("insert oauth state: %w", err)
	}
	return nil
}

// CleanupOAuthStates removes pending authorization requests created before cutoff.
func (s *SQLiteStore) CleanupOAuthStates(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := s.exec(ctx, "cleanup oauth states", `DELETE FROM oauth_states WHERE created_at < ?`, cutoff.Unix())
	if err != nil {
		return 0, fmt.Errorf("cleanup oauth states: %w", err)
	}
	return result.RowsAffected()
}

// ConsumeOAuthState returns and deletes a pending authorization request.
func (s *SQLiteStore) ConsumeOAuthState(ctx context.Context, state string) (*domain.OAuthState, error) {
	s.stateMu.Lock()
	defer s.stateMu.Unlock()

	var st domain.OAuthState
	var createdAt int64
	err := s.db.QueryRowContext(ctx,
		`SELECT state, account_id, created_at FROM oauth_states WHERE state = ?`, state,
	).Scan(&st.State, &st.AccountID, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan oauth state: %w", err)
	}
	st.CreatedAt = time.Unix(createdAt, 0)

	if _, err := s.exec(ctx, "consume oauth state", `DELETE FROM oauth_states WHERE state = ?`, state); err != nil {
		return nil, fmt.Errorf("delete oauth state: %w", err)
	}
	return &st, nil
}

// UpsertMailboxLink creates or replaces the mail link of an account.
func (s *SQLiteStore) UpsertMailboxLink(ctx context.Context, link *domain.MailboxLink) error {
	query := `
	INSERT INTO mailbox_links (account_id, access_token, refresh_token, token_type, expiry, created_at, updated_at)
	VALUES (?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(account_id) DO UPDATE SET
		access_token = excluded.access_token,
		refresh_token = CASE WHEN excluded.refresh_token = '' THEN mailbox_links.refresh_token ELSE excluded.refresh_token END,
		token_type = excluded.token_type,
		expiry = excluded.expiry,
		updated_at = excluded.updated_at`

	var expiry int64
	if !link.Expiry.IsZero() {
		expiry = link.Expiry.Unix()
	}
	now := time.Now()
	createdAt := link.CreatedAt
	if createdAt.IsZero() {
		createdAt = now
	}

	if _, err := s.exec(ctx, "upsert mailbox link", query,
		link.AccountID, link.AccessToken, link.RefreshToken, link.TokenType,
		expiry, createdAt.Unix(), now.Unix(),
	); err != nil {
		return fmt.Errorf("upsert mailbox link: %w", err)
	}
	return nil
}

// GetMailboxLink retrieves the mail link of an account.
func (s *SQLiteStore) GetMailboxLink(ctx context.Context, accountID string) (*domain.MailboxLink, error) {
	query := `
		SELECT account_id, access_token, refresh_token, token_type, expiry, created_at, updated_at
		FROM mailbox_links WHERE account_id = ?`

	var link domain.MailboxLink
	var expiry, createdAt, updatedAt int64
	err := s.db.QueryRowContext(ctx, query, accountID).Scan(
		&link.AccountID, &link.AccessToken, &link.RefreshToken, &link.TokenType,
		&expiry, &createdAt, &updatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan mailbox link: %w", err)
	}
	if expiry > 0 {
		link.Expiry = time.Unix(expiry, 0)
	}
	link.CreatedAt = time.Unix(createdAt, 0)
	link.UpdatedAt = time.Unix(updatedAt, 0)
	return &link, nil
}

// DeleteMailboxLink removes the mail link of an account.
func (s *SQLiteStore) DeleteMailboxLink(ctx context.Context, accountID string) error {
	result, err := s.exec(ctx, "delete mailbox link", `DELETE FROM mailbox_links WHERE account_id = ?`, accountID)
	if err != nil {
		return fmt.Errorf("delete mailbox link: %w", err)
	}
	if rows, err := result.RowsAffected(); err == nil && rows == 0 {
		slog.Debug("DeleteMailboxLink affected 0 rows", "account_id", accountID)
	}
	return nil
}
