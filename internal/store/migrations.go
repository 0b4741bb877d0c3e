package store

// migration holds a single schema migration with its target version and SQL.
type migration struct {
	version int
	sql     string
}

// migrations is the ordered list of schema migrations.
// Each migration's version must be sequential starting from 1.
var migrations = []migration{
	{
		version: 1,
		sql: `
CREATE TABLE IF NOT EXISTS schema_version (
	version INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS operators (
	email         TEXT PRIMARY KEY,
	password_hash TEXT NOT NULL,
	created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS enquiries (
	id           TEXT PRIMARY KEY,
	name         TEXT NOT NULL,
	email        TEXT NOT NULL,
	organisation TEXT NOT NULL DEFAULT '',
	subject      TEXT NOT NULL,
	message      TEXT NOT NULL DEFAULT '',
	status       TEXT NOT NULL DEFAULT 'open',
	created_at   DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS contact_messages (
	id         TEXT PRIMARY KEY,
	name       TEXT NOT NULL,
	email      TEXT NOT NULL,
	message    TEXT NOT NULL,
	reply      TEXT NOT NULL DEFAULT '',
	status     TEXT NOT NULL DEFAULT 'pending',
	created_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS reported_products (
	id             TEXT PRIMARY KEY,
	product_id     TEXT NOT NULL,
	product_name   TEXT NOT NULL,
	reason         TEXT NOT NULL,
	reporter_email TEXT NOT NULL DEFAULT '',
	status         TEXT NOT NULL DEFAULT 'pending',
	created_at     DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS user_faqs (
	id           TEXT PRIMARY KEY,
	question     TEXT NOT NULL,
	answer       TEXT NOT NULL DEFAULT '',
	submitted_by TEXT NOT NULL DEFAULT '',
	status       TEXT NOT NULL DEFAULT 'pending',
	created_at   DATETIME NOT NULL
);

INSERT INTO schema_version (version) VALUES (1);
`,
	},
	{
		version: 2,
		sql: `
CREATE INDEX IF NOT EXISTS idx_enquiries_status ON enquiries(status, created_at);
CREATE INDEX IF NOT EXISTS idx_contact_messages_status ON contact_messages(status, created_at);
CREATE INDEX IF NOT EXISTS idx_reported_products_status ON reported_products(status, created_at);
CREATE INDEX IF NOT EXISTS idx_user_faqs_status ON user_faqs(status, created_at);

INSERT INTO schema_version (version) VALUES (2);
`,
	},
}
