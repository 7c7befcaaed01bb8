package store

// migration represents a single schema migration.
type migration struct {
	Version int
	Name    string
	SQL     string
}

// migrations is the ordered list of all schema migrations.
var migrations = []migration{
	{
		Version: 1,
		Name:    "create inbound message ledger and sessions",
		SQL: `
			CREATE TABLE inbound_messages (
				provider_id TEXT PRIMARY KEY,
				sender      TEXT NOT NULL,
				kind        TEXT NOT NULL,
				content     TEXT NOT NULL,
				outcome     TEXT NOT NULL DEFAULT 'pending',
				error       TEXT NOT NULL DEFAULT '',
				received_at TEXT NOT NULL DEFAULT (datetime('now'))
			);

			CREATE INDEX idx_inbound_sender ON inbound_messages (sender);
			CREATE INDEX idx_inbound_outcome ON inbound_messages (outcome);

			CREATE TABLE sessions (
				sender      TEXT PRIMARY KEY,
				state       TEXT NOT NULL,
				description TEXT NOT NULL DEFAULT '',
				location    TEXT NOT NULL DEFAULT '',
				category    TEXT NOT NULL DEFAULT '',
				updated_at  TEXT NOT NULL
			);
		`,
	},
	{
		Version: 2,
		Name:    "create issue pipeline tables",
		SQL: `
			CREATE TABLE issues (
				id             TEXT PRIMARY KEY,
				reference      TEXT NOT NULL,
				title          TEXT NOT NULL,
				description    TEXT NOT NULL,
				location       TEXT NOT NULL,
				category_slug  TEXT NOT NULL DEFAULT '',
				agency_slug    TEXT NOT NULL DEFAULT '',
				status         TEXT NOT NULL,
				source         TEXT NOT NULL,
				reporter_phone TEXT NOT NULL,
				provider_id    TEXT NOT NULL DEFAULT '',
				created_at     TEXT NOT NULL
			);

			CREATE INDEX idx_issues_reporter ON issues (reporter_phone);
			CREATE INDEX idx_issues_category ON issues (category_slug);

			CREATE TABLE agencies (
				slug       TEXT PRIMARY KEY,
				name       TEXT NOT NULL,
				categories TEXT NOT NULL,
				active     INTEGER NOT NULL DEFAULT 1
			);

			CREATE TABLE reporters (
				phone           TEXT PRIMARY KEY,
				issues_reported INTEGER NOT NULL DEFAULT 0,
				last_seen_at    TEXT NOT NULL
			);

			CREATE TABLE trending_topics (
				tag          TEXT NOT NULL,
				location     TEXT NOT NULL,
				count        INTEGER NOT NULL DEFAULT 0,
				last_updated TEXT NOT NULL,
				PRIMARY KEY (tag, location)
			);

			CREATE TABLE notifications (
				id          INTEGER PRIMARY KEY AUTOINCREMENT,
				agency_slug TEXT NOT NULL,
				issue_id    TEXT NOT NULL,
				title       TEXT NOT NULL,
				message     TEXT NOT NULL,
				is_read     INTEGER NOT NULL DEFAULT 0,
				created_at  TEXT NOT NULL
			);

			CREATE INDEX idx_notifications_agency ON notifications (agency_slug, is_read);
		`,
	},
	{
		Version: 3,
		Name:    "seed default agencies",
		SQL: `
			INSERT INTO agencies (slug, name, categories, active) VALUES
				('fct-water-board',   'FCT Water Board',                     'water', 1),
				('aedc',              'Abuja Electricity Distribution Co.',  'electricity', 1),
				('fcda-roads',        'FCDA Department of Roads',            'roads', 1),
				('fct-police',        'FCT Police Command',                  'security', 1),
				('fct-health',        'FCT Health Services',                 'healthcare', 1),
				('aepb',              'Abuja Environmental Protection Board','environment', 1);
		`,
	},
}
