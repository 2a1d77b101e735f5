package sqlite

import "database/sql"

// scopeColumns are shared by every context-scoped table.
const scopeColumns = `
    id TEXT PRIMARY KEY,
    owner_user_id TEXT REFERENCES users(id) ON DELETE CASCADE,
    group_id TEXT REFERENCES groups(id) ON DELETE CASCADE,
    created_by TEXT NOT NULL,
    created_at INTEGER NOT NULL,
    updated_at INTEGER NOT NULL,`

// scopeCheck keeps exactly one of owner_user_id and group_id set. SQLite
// requires table constraints after all column definitions.
const scopeCheck = `,
    CHECK ((owner_user_id IS NULL) <> (group_id IS NULL))`

// schema contains the SQL statements to set up the database schema.
// These run on startup to ensure tables exist.
// users and groups must be created before anything referencing them.
const schema = `
CREATE TABLE IF NOT EXISTS users (
    id TEXT PRIMARY KEY,
    email TEXT NOT NULL UNIQUE,
    display_name TEXT NOT NULL,
    password_hash TEXT NOT NULL,
    created_at INTEGER NOT NULL,
    updated_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS groups (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    created_by TEXT NOT NULL REFERENCES users(id),
    created_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS memberships (
    group_id TEXT NOT NULL REFERENCES groups(id) ON DELETE CASCADE,
    user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
    role TEXT NOT NULL CHECK (role IN ('owner', 'admin', 'member')),
    is_active INTEGER NOT NULL DEFAULT 1,
    joined_at INTEGER NOT NULL,
    PRIMARY KEY (group_id, user_id)
);

CREATE TABLE IF NOT EXISTS profiles (
    user_id TEXT PRIMARY KEY REFERENCES users(id) ON DELETE CASCADE,
    active_context_id TEXT REFERENCES groups(id) ON DELETE SET NULL,
    updated_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS expenses (` + scopeColumns + `
    amount TEXT NOT NULL,
    category TEXT NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    spent_at INTEGER NOT NULL` + scopeCheck + `
);

CREATE TABLE IF NOT EXISTS budgets (` + scopeColumns + `
    category TEXT NOT NULL,
    limit_amount TEXT NOT NULL,
    month TEXT NOT NULL` + scopeCheck + `
);

CREATE TABLE IF NOT EXISTS income (` + scopeColumns + `
    month TEXT NOT NULL,
    amount TEXT NOT NULL,
    source TEXT NOT NULL DEFAULT ''` + scopeCheck + `
);

CREATE TABLE IF NOT EXISTS goals (` + scopeColumns + `
    title TEXT NOT NULL,
    target_amount TEXT NOT NULL,
    saved_amount TEXT NOT NULL,
    deadline INTEGER NOT NULL DEFAULT 0` + scopeCheck + `
);

CREATE TABLE IF NOT EXISTS loans (` + scopeColumns + `
    counterparty TEXT NOT NULL,
    direction TEXT NOT NULL CHECK (direction IN ('lent', 'borrowed')),
    amount TEXT NOT NULL,
    repaid TEXT NOT NULL,
    due_at INTEGER NOT NULL DEFAULT 0` + scopeCheck + `
);

CREATE TABLE IF NOT EXISTS wallet_entries (` + scopeColumns + `
    type TEXT NOT NULL CHECK (type IN ('deposit', 'withdrawal')),
    amount TEXT NOT NULL,
    note TEXT NOT NULL DEFAULT '',
    occurred_at INTEGER NOT NULL` + scopeCheck + `
);

CREATE INDEX IF NOT EXISTS idx_memberships_user_id ON memberships(user_id, is_active);
CREATE INDEX IF NOT EXISTS idx_expenses_owner ON expenses(owner_user_id);
CREATE INDEX IF NOT EXISTS idx_expenses_group ON expenses(group_id);
CREATE INDEX IF NOT EXISTS idx_budgets_owner ON budgets(owner_user_id);
CREATE INDEX IF NOT EXISTS idx_budgets_group ON budgets(group_id);
CREATE INDEX IF NOT EXISTS idx_income_owner ON income(owner_user_id);
CREATE INDEX IF NOT EXISTS idx_income_group ON income(group_id);
CREATE INDEX IF NOT EXISTS idx_goals_owner ON goals(owner_user_id);
CREATE INDEX IF NOT EXISTS idx_goals_group ON goals(group_id);
CREATE INDEX IF NOT EXISTS idx_loans_owner ON loans(owner_user_id);
CREATE INDEX IF NOT EXISTS idx_loans_group ON loans(group_id);
CREATE INDEX IF NOT EXISTS idx_wallet_entries_owner ON wallet_entries(owner_user_id);
CREATE INDEX IF NOT EXISTS idx_wallet_entries_group ON wallet_entries(group_id);
`

// runMigrations executes the schema setup.
func runMigrations(db *sql.DB) error {
	_, err := db.Exec(schema)
	return err
}
