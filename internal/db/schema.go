package db

// SQL schema definitions for the database layer. Two kinds of databases:
// 1. sessions.db - shared, unencrypted bootstrap data (tokens, user keys)
// 2. {user_id}.db - per-user, encrypted with SQLCipher, holding all module data

// SessionsDBSchema contains all the SQL statements for the shared sessions database.
const SessionsDBSchema = `
-- Sessions table: active bearer tokens
CREATE TABLE IF NOT EXISTS sessions (
    token_hash TEXT PRIMARY KEY,
    user_id TEXT NOT NULL,
    expires_at INTEGER NOT NULL,
    created_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_sessions_user_id ON sessions(user_id);
CREATE INDEX IF NOT EXISTS idx_sessions_expires_at ON sessions(expires_at);

-- Reset tokens table: single-use password reset tokens
CREATE TABLE IF NOT EXISTS reset_tokens (
    token_hash TEXT PRIMARY KEY,
    email TEXT NOT NULL,
    user_id TEXT,
    expires_at INTEGER NOT NULL,
    created_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_reset_tokens_email ON reset_tokens(email);

-- User keys table: encrypted DEKs for per-user databases
CREATE TABLE IF NOT EXISTS user_keys (
    user_id TEXT PRIMARY KEY,
    kek_version INTEGER NOT NULL DEFAULT 1,
    encrypted_dek BLOB NOT NULL,
    created_at INTEGER NOT NULL,
    rotated_at INTEGER
);
`

// UserDBSchema contains all the SQL statements for per-user encrypted databases.
// All personal data (notes, health, finance) lives here, one file per user.
const UserDBSchema = `
-- Account table: user account information
CREATE TABLE IF NOT EXISTS account (
    user_id TEXT PRIMARY KEY,
    email TEXT UNIQUE NOT NULL,
    password_hash TEXT,
    display_name TEXT,
    created_at INTEGER NOT NULL,
    last_login INTEGER
);

-- Notes: markdown content, soft delete = folder 'trash'
CREATE TABLE IF NOT EXISTS notes (
    id TEXT PRIMARY KEY,
    title TEXT NOT NULL,
    content TEXT NOT NULL CHECK(length(content) <= 1048576),
    folder TEXT NOT NULL DEFAULT 'all',
    tags TEXT NOT NULL DEFAULT '[]',
    is_pinned INTEGER NOT NULL DEFAULT 0,
    is_favorite INTEGER NOT NULL DEFAULT 0,
    color TEXT NOT NULL DEFAULT '',
    created_at INTEGER NOT NULL,
    updated_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_notes_folder ON notes(folder);
CREATE INDEX IF NOT EXISTS idx_notes_updated_at ON notes(updated_at DESC);

-- Reminders: hard-deleted on confirm
CREATE TABLE IF NOT EXISTS reminders (
    id TEXT PRIMARY KEY,
    title TEXT NOT NULL,
    due_date INTEGER NOT NULL,
    priority TEXT NOT NULL DEFAULT 'medium',
    category TEXT NOT NULL DEFAULT '',
    completed INTEGER NOT NULL DEFAULT 0,
    flagged INTEGER NOT NULL DEFAULT 0,
    notes TEXT NOT NULL DEFAULT '',
    recurrence TEXT NOT NULL DEFAULT 'none',
    created_at INTEGER NOT NULL,
    updated_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_reminders_due_date ON reminders(due_date);

-- Habits and their daily logs. One log row per (habit, date); a 'none'
-- status is represented by the absence of a row.
CREATE TABLE IF NOT EXISTS habits (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    category TEXT NOT NULL DEFAULT '',
    frequency TEXT NOT NULL DEFAULT 'daily',
    color TEXT NOT NULL DEFAULT '',
    icon TEXT NOT NULL DEFAULT '',
    streak INTEGER NOT NULL DEFAULT 0,
    status TEXT NOT NULL DEFAULT 'active',
    created_at INTEGER NOT NULL,
    updated_at INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS habit_logs (
    habit_id TEXT NOT NULL REFERENCES habits(id) ON DELETE CASCADE,
    log_date TEXT NOT NULL,
    status TEXT NOT NULL,
    PRIMARY KEY (habit_id, log_date)
);

-- Health logs: append-only per metric
CREATE TABLE IF NOT EXISTS health_logs (
    id TEXT PRIMARY KEY,
    metric TEXT NOT NULL,
    value REAL NOT NULL,
    log_date TEXT NOT NULL,
    note TEXT NOT NULL DEFAULT '',
    created_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_health_logs_metric_date ON health_logs(metric, log_date);

-- Calendar events: start/end are HH:MM wall-clock strings
CREATE TABLE IF NOT EXISTS calendar_events (
    id TEXT PRIMARY KEY,
    title TEXT NOT NULL,
    event_date TEXT NOT NULL,
    start_time TEXT NOT NULL DEFAULT '',
    end_time TEXT NOT NULL DEFAULT '',
    category TEXT NOT NULL DEFAULT '',
    location TEXT NOT NULL DEFAULT '',
    description TEXT NOT NULL DEFAULT '',
    color TEXT NOT NULL DEFAULT '',
    created_at INTEGER NOT NULL,
    updated_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_calendar_events_date ON calendar_events(event_date);

-- Finance. Amounts are decimal strings to avoid float drift.
CREATE TABLE IF NOT EXISTS fin_accounts (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    account_type TEXT NOT NULL DEFAULT 'checking',
    balance TEXT NOT NULL DEFAULT '0',
    currency TEXT NOT NULL DEFAULT 'USD',
    created_at INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS fin_transactions (
    id TEXT PRIMARY KEY,
    account_id TEXT NOT NULL DEFAULT '',
    tx_type TEXT NOT NULL,
    amount TEXT NOT NULL,
    category TEXT NOT NULL DEFAULT '',
    description TEXT NOT NULL DEFAULT '',
    tx_date TEXT NOT NULL,
    created_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_fin_transactions_date ON fin_transactions(tx_date);
CREATE INDEX IF NOT EXISTS idx_fin_transactions_category ON fin_transactions(category);
CREATE TABLE IF NOT EXISTS fin_budgets (
    id TEXT PRIMARY KEY,
    category TEXT NOT NULL,
    amount TEXT NOT NULL,
    period TEXT NOT NULL DEFAULT 'monthly',
    created_at INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS fin_goals (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    target_amount TEXT NOT NULL,
    saved_amount TEXT NOT NULL DEFAULT '0',
    due_date TEXT NOT NULL DEFAULT '',
    created_at INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS fin_bills (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    amount TEXT NOT NULL,
    due_day INTEGER NOT NULL DEFAULT 1,
    category TEXT NOT NULL DEFAULT '',
    autopay INTEGER NOT NULL DEFAULT 0,
    paid INTEGER NOT NULL DEFAULT 0,
    created_at INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS fin_investments (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    symbol TEXT NOT NULL DEFAULT '',
    units TEXT NOT NULL DEFAULT '0',
    cost_basis TEXT NOT NULL DEFAULT '0',
    current_value TEXT NOT NULL DEFAULT '0',
    created_at INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS fin_loans (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    principal TEXT NOT NULL,
    remaining TEXT NOT NULL,
    rate TEXT NOT NULL DEFAULT '0',
    monthly_payment TEXT NOT NULL DEFAULT '0',
    created_at INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS fin_ledger (
    id TEXT PRIMARY KEY,
    entry_date TEXT NOT NULL,
    account TEXT NOT NULL DEFAULT '',
    description TEXT NOT NULL DEFAULT '',
    debit TEXT NOT NULL DEFAULT '0',
    credit TEXT NOT NULL DEFAULT '0',
    created_at INTEGER NOT NULL
);

-- Islamic practice. Prayer times are per-user configuration; logs mirror
-- habit_logs (one row per prayer per date, absence = not logged).
CREATE TABLE IF NOT EXISTS prayer_times (
    name TEXT PRIMARY KEY,
    prayer_time TEXT NOT NULL,
    sort_order INTEGER NOT NULL DEFAULT 0
);
CREATE TABLE IF NOT EXISTS islamic_logs (
    log_date TEXT NOT NULL,
    prayer TEXT NOT NULL,
    status TEXT NOT NULL,
    PRIMARY KEY (log_date, prayer)
);

-- Settings: persisted per-user configuration documents keyed by section
-- (note folders, reminder lists, health metrics, finance categories).
CREATE TABLE IF NOT EXISTS settings (
    section TEXT PRIMARY KEY,
    value TEXT NOT NULL,
    updated_at INTEGER NOT NULL
);
`

// UserDBMigrations contains idempotent ALTER TABLE statements for schema
// evolution. SQLite ADD COLUMN errors on duplicates; those are caught and
// ignored by MigrateUserDB.
const UserDBMigrations = `
ALTER TABLE reminders ADD COLUMN flagged INTEGER NOT NULL DEFAULT 0;
ALTER TABLE fin_accounts ADD COLUMN currency TEXT NOT NULL DEFAULT 'USD';
`
