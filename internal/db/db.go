// Package db manages the two database tiers: a shared unencrypted
// sessions database and per-user SQLCipher-encrypted databases that hold
// all module data.
package db

import (
	"database/sql"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	_ "github.com/mutecomm/go-sqlcipher/v4"
)

const (
	// DefaultDataDirectory is the default root directory for all database files
	DefaultDataDirectory = "./data"

	// SessionsDBName is the filename for the shared sessions database
	SessionsDBName = "sessions.db"

	// SQLiteDriverName is the driver registered by go-sqlcipher.
	SQLiteDriverName = "sqlite3"

	// MaxOpenConns is the maximum number of open connections for the sessions database.
	// SQLite is single-writer, so high connection counts are counterproductive.
	MaxOpenConns = 10

	// MaxIdleConns is the maximum number of idle connections for the sessions database
	MaxIdleConns = 2

	// UserDBMaxOpenConns is the maximum open connections per user database.
	// Each user gets their own SQLite file, so keep this low to avoid
	// connection goroutine exhaustion when many users are created in tests.
	UserDBMaxOpenConns = 2

	// UserDBMaxIdleConns is the maximum idle connections per user database
	UserDBMaxIdleConns = 1
)

var (
	// DataDirectory is the actual data directory being used (can be overridden for tests)
	DataDirectory = DefaultDataDirectory
)

var (
	// sessionsDB is the singleton shared sessions database connection
	sessionsDB     *sql.DB
	sessionsDBOnce sync.Once
	sessionsDBErr  error

	// userDBs caches per-user database connections
	userDBs   = make(map[string]*sql.DB)
	userDBsMu sync.RWMutex
)

// SessionsDB wraps the shared sessions database connection.
type SessionsDB struct {
	db *sql.DB
}

// UserDB wraps a per-user encrypted database connection.
type UserDB struct {
	db     *sql.DB
	userID string
}

// NewSessionsDBFromSQL wraps an existing sql.DB as SessionsDB.
func NewSessionsDBFromSQL(sqlDB *sql.DB) *SessionsDB {
	return &SessionsDB{db: sqlDB}
}

// NewUserDBFromSQL wraps an existing sql.DB as UserDB.
func NewUserDBFromSQL(userID string, sqlDB *sql.DB) *UserDB {
	return &UserDB{db: sqlDB, userID: userID}
}

// DB returns the underlying sql.DB for direct access when needed
func (s *SessionsDB) DB() *sql.DB {
	return s.db
}

// DB returns the underlying sql.DB for direct access when needed
func (u *UserDB) DB() *sql.DB {
	return u.db
}

// UserID returns the user ID for this database
func (u *UserDB) UserID() string {
	return u.userID
}

// MigrateUserDB applies idempotent schema migrations to an existing user database.
// This handles adding new columns to databases created before a schema change.
// SQLite ADD COLUMN errors if the column exists, so we catch and ignore that specific error.
func (u *UserDB) MigrateUserDB() error {
	statements := strings.Split(UserDBMigrations, ";")
	for _, stmt := range statements {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		_, err := u.db.Exec(stmt)
		if err != nil {
			if strings.Contains(err.Error(), "duplicate column name") {
				continue
			}
			return fmt.Errorf("migration failed: %w", err)
		}
	}
	return nil
}

// OpenSessionsDB opens the shared sessions database (unencrypted).
// This database contains bootstrap data: bearer tokens, reset tokens, and
// encrypted user DEKs. The connection is cached as a singleton.
func OpenSessionsDB() (*SessionsDB, error) {
	sessionsDBOnce.Do(func() {
		if err := os.MkdirAll(DataDirectory, 0750); err != nil {
			sessionsDBErr = fmt.Errorf("failed to create data directory: %w", err)
			return
		}

		dbPath := filepath.Join(DataDirectory, SessionsDBName)
		dsn := appendSQLiteParams(dbPath, sqliteCommonParams())

		db, err := sql.Open(SQLiteDriverName, dsn)
		if err != nil {
			sessionsDBErr = fmt.Errorf("failed to open sessions database: %w", err)
			return
		}

		db.SetMaxOpenConns(MaxOpenConns)
		db.SetMaxIdleConns(MaxIdleConns)

		if err := db.Ping(); err != nil {
			db.Close()
			sessionsDBErr = fmt.Errorf("failed to ping sessions database: %w", err)
			return
		}

		if _, err := db.Exec(SessionsDBSchema); err != nil {
			db.Close()
			sessionsDBErr = fmt.Errorf("failed to initialize sessions schema: %w", err)
			return
		}

		sessionsDB = db
	})

	if sessionsDBErr != nil {
		return nil, sessionsDBErr
	}

	return NewSessionsDBFromSQL(sessionsDB), nil
}

// OpenUserDBWithDEK opens a per-user encrypted database with a provided DEK.
// The DEK comes from the KeyManager; a wrong key fails the verification query.
func OpenUserDBWithDEK(userID string, dek []byte) (*UserDB, error) {
	if userID == "" {
		return nil, fmt.Errorf("userID cannot be empty")
	}

	if len(dek) != 32 {
		return nil, fmt.Errorf("DEK must be exactly 32 bytes, got %d", len(dek))
	}

	// Check if database is already cached
	userDBsMu.RLock()
	if db, exists := userDBs[userID]; exists {
		userDBsMu.RUnlock()
		return NewUserDBFromSQL(userID, db), nil
	}
	userDBsMu.RUnlock()

	userDBsMu.Lock()
	defer userDBsMu.Unlock()

	// Double-check after acquiring write lock
	if db, exists := userDBs[userID]; exists {
		return NewUserDBFromSQL(userID, db), nil
	}

	if err := os.MkdirAll(DataDirectory, 0750); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	dbPath := filepath.Join(DataDirectory, fmt.Sprintf("%s.db", userID))

	// DSN with SQLCipher encryption parameters:
	// file.db?_pragma_key=x'HEX_KEY'&_pragma_cipher_page_size=4096
	dekHex := hex.EncodeToString(dek)
	dsn := fmt.Sprintf("%s?_pragma_key=x'%s'&_pragma_cipher_page_size=4096", dbPath, dekHex)
	dsn = appendSQLiteParams(dsn, sqliteCommonParams())

	db, err := sql.Open(SQLiteDriverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open user database for %s: %w", userID, err)
	}

	// Keep the pool small for per-user SQLite files
	db.SetMaxOpenConns(UserDBMaxOpenConns)
	db.SetMaxIdleConns(UserDBMaxIdleConns)

	// Verify connection and encryption by executing a simple query.
	// If the encryption key is wrong, this will fail.
	var sqliteVersion string
	if err := db.QueryRow("SELECT sqlite_version()").Scan(&sqliteVersion); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to verify user database connection for %s: %w", userID, err)
	}

	if _, err := db.Exec(UserDBSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize user schema for %s: %w", userID, err)
	}

	udb := NewUserDBFromSQL(userID, db)
	if err := udb.MigrateUserDB(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate user schema for %s: %w", userID, err)
	}

	userDBs[userID] = db

	return NewUserDBFromSQL(userID, db), nil
}

// CloseAll closes all open database connections.
// This should be called during graceful shutdown.
func CloseAll() error {
	var firstErr error

	if sessionsDB != nil {
		if err := sessionsDB.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("failed to close sessions database: %w", err)
		}
		sessionsDB = nil
	}

	userDBsMu.Lock()
	defer userDBsMu.Unlock()

	for userID, db := range userDBs {
		if err := db.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("failed to close user database for %s: %w", userID, err)
		}
	}

	userDBs = make(map[string]*sql.DB)

	return firstErr
}

// ResetForTesting resets all internal state for clean test isolation.
// It closes all connections and resets the singleton state.
func ResetForTesting() {
	CloseAll()

	sessionsDBOnce = sync.Once{}
	sessionsDB = nil
	sessionsDBErr = nil
}

func sqliteCommonParams() string {
	// Production-safe defaults: WAL + NORMAL provides good throughput while preserving safety.
	return "_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000&_foreign_keys=on"
}

func appendSQLiteParams(dsn, params string) string {
	if strings.Contains(dsn, "?") {
		return dsn + "&" + params
	}
	return dsn + "?" + params
}

// Close closes the SessionsDB connection.
func (s *SessionsDB) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Close closes the UserDB connection. Only needed for in-memory databases
// that are not cached by the package.
func (u *UserDB) Close() error {
	if u.db != nil {
		return u.db.Close()
	}
	return nil
}
