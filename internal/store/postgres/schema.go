package postgres

// schemaSQL creates the tables owned by the ingestion core. The rendering
// layer reads these tables but never writes them.
const schemaSQL = `
CREATE TABLE IF NOT EXISTS jobs (
	id                BIGSERIAL PRIMARY KEY,
	guid              TEXT NOT NULL UNIQUE,
	source            TEXT NOT NULL DEFAULT '',
	title             TEXT NOT NULL DEFAULT '',
	company           TEXT NOT NULL DEFAULT '',
	description_html  TEXT NOT NULL DEFAULT '',
	description_short TEXT NOT NULL DEFAULT '',
	url               TEXT NOT NULL DEFAULT '',
	published_at      BIGINT NOT NULL DEFAULT 0,
	slug              TEXT NOT NULL UNIQUE,
	tags_csv          TEXT NOT NULL DEFAULT '',
	metadata          JSONB,
	created_at        TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS jobs_published_at_idx ON jobs (published_at DESC, id DESC);

CREATE TABLE IF NOT EXISTS tags (
	id   BIGSERIAL PRIMARY KEY,
	name TEXT NOT NULL UNIQUE,
	slug TEXT NOT NULL UNIQUE
);

CREATE TABLE IF NOT EXISTS job_tags (
	job_id BIGINT NOT NULL REFERENCES jobs (id) ON DELETE CASCADE,
	tag_id BIGINT NOT NULL REFERENCES tags (id) ON DELETE CASCADE,
	PRIMARY KEY (job_id, tag_id)
);
`
