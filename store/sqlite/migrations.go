package sqlite

// migration is one schema step. Applied versions are recorded in
// taxledger_migrations and never run twice.
type migration struct {
	Name    string
	Version string
	Up      string
}

// Migrations is the ordered schema history of the SQLite store.
var Migrations = []migration{
	{
		Name:    "create_taxledger_ledgers",
		Version: "20240101000001",
		Up: `
CREATE TABLE IF NOT EXISTS taxledger_ledgers (
    owner      TEXT PRIMARY KEY,
    id         TEXT NOT NULL,
    state      TEXT NOT NULL,
    created_at TEXT NOT NULL,
    updated_at TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_taxledger_ledgers_updated_at ON taxledger_ledgers (updated_at);
`,
	},
	{
		Name:    "create_taxledger_rollups",
		Version: "20240101000002",
		Up: `
CREATE TABLE IF NOT EXISTS taxledger_rollups (
    account    TEXT PRIMARY KEY,
    id         TEXT NOT NULL,
    state      TEXT NOT NULL,
    created_at TEXT NOT NULL,
    updated_at TEXT NOT NULL
);
`,
	},
}
