package storage

const schemaVersion = 1

const schema = `
CREATE TABLE IF NOT EXISTS schema_version (
	version INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS observations (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	target     TEXT    NOT NULL,
	value      TEXT    NOT NULL,
	changed    INTEGER NOT NULL DEFAULT 0,
	created_at TEXT    NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ','now'))
);

CREATE INDEX IF NOT EXISTS idx_observations_target ON observations(target, created_at DESC);

CREATE TABLE IF NOT EXISTS changes (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	target     TEXT    NOT NULL,
	old_value  TEXT,
	new_value  TEXT    NOT NULL,
	diff       TEXT    NOT NULL DEFAULT '',
	created_at TEXT    NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ','now'))
);

CREATE INDEX IF NOT EXISTS idx_changes_target ON changes(target, created_at DESC);
`

// migrations holds incremental schema changes beyond the base schema,
// applied in order by version.
var migrations = []struct {
	version int
	sql     string
}{}
