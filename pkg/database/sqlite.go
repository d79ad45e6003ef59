package database

import (
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite" // Pure-Go SQLite driver.

	"github.com/curriculum-tools/dataeditor/pkg/config"
)

// schema contains the DDL for a curriculum store. Using IF NOT EXISTS makes
// it safe to run against existing files, so a freshly created empty file
// becomes editable immediately.
const schema = `
CREATE TABLE IF NOT EXISTS courses (
    id            INTEGER PRIMARY KEY AUTOINCREMENT,
    course_key    TEXT NOT NULL UNIQUE,
    short_name    TEXT NOT NULL DEFAULT '',
    long_name     TEXT NOT NULL DEFAULT '',
    degree        TEXT NOT NULL DEFAULT '',
    po            INTEGER NOT NULL DEFAULT 0,
    credit_points INTEGER NOT NULL DEFAULT 0,
    kzfa          TEXT NOT NULL DEFAULT 'H'
);

CREATE TABLE IF NOT EXISTS course_majors (
    course_id INTEGER NOT NULL REFERENCES courses(id),
    major_id  INTEGER NOT NULL REFERENCES courses(id),
    PRIMARY KEY (course_id, major_id)
);

CREATE TABLE IF NOT EXISTS course_minors (
    course_id INTEGER NOT NULL REFERENCES courses(id),
    minor_id  INTEGER NOT NULL REFERENCES courses(id),
    PRIMARY KEY (course_id, minor_id)
);

CREATE TABLE IF NOT EXISTS levels (
    id                INTEGER PRIMARY KEY AUTOINCREMENT,
    art               TEXT NOT NULL DEFAULT '',
    name              TEXT NOT NULL DEFAULT '',
    tm                TEXT NOT NULL DEFAULT '',
    min               INTEGER,
    max               INTEGER,
    min_credit_points INTEGER,
    max_credit_points INTEGER,
    parent_id         INTEGER REFERENCES levels(id)
);

CREATE TABLE IF NOT EXISTS course_levels (
    level_id  INTEGER NOT NULL REFERENCES levels(id),
    course_id INTEGER NOT NULL REFERENCES courses(id),
    PRIMARY KEY (level_id, course_id)
);

CREATE TABLE IF NOT EXISTS modules (
    id             INTEGER PRIMARY KEY AUTOINCREMENT,
    module_key     TEXT NOT NULL UNIQUE,
    title          TEXT NOT NULL DEFAULT '',
    pordnr         INTEGER NOT NULL DEFAULT 0,
    bundled        INTEGER NOT NULL DEFAULT 0,
    elective_units INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS course_modules (
    course_id INTEGER NOT NULL REFERENCES courses(id),
    module_id INTEGER NOT NULL REFERENCES modules(id),
    PRIMARY KEY (course_id, module_id)
);

CREATE TABLE IF NOT EXISTS module_levels (
    id        INTEGER PRIMARY KEY AUTOINCREMENT,
    course_id INTEGER REFERENCES courses(id),
    module_id INTEGER REFERENCES modules(id),
    level_id  INTEGER REFERENCES levels(id)
);

CREATE TABLE IF NOT EXISTS abstract_units (
    id       INTEGER PRIMARY KEY AUTOINCREMENT,
    unit_key TEXT NOT NULL UNIQUE,
    title    TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS module_abstract_units (
    module_id        INTEGER NOT NULL REFERENCES modules(id),
    abstract_unit_id INTEGER NOT NULL REFERENCES abstract_units(id),
    PRIMARY KEY (module_id, abstract_unit_id)
);

CREATE TABLE IF NOT EXISTS units (
    id       INTEGER PRIMARY KEY AUTOINCREMENT,
    unit_key TEXT NOT NULL UNIQUE,
    title    TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS unit_abstract_units (
    unit_id          INTEGER NOT NULL REFERENCES units(id),
    abstract_unit_id INTEGER NOT NULL REFERENCES abstract_units(id),
    PRIMARY KEY (unit_id, abstract_unit_id)
);

CREATE TABLE IF NOT EXISTS groups (
    id            INTEGER PRIMARY KEY AUTOINCREMENT,
    unit_id       INTEGER REFERENCES units(id),
    half_semester INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS sessions (
    id        INTEGER PRIMARY KEY AUTOINCREMENT,
    group_id  INTEGER REFERENCES groups(id),
    day       TEXT NOT NULL DEFAULT '',
    time      INTEGER NOT NULL DEFAULT 0,
    rhythm    INTEGER NOT NULL DEFAULT 0,
    duration  INTEGER NOT NULL DEFAULT 0,
    tentative INTEGER NOT NULL DEFAULT 0
);
`

// OpenSQLite opens (or creates) the SQLite database at path. SQLite supports
// a single writer, so the pool is limited to one connection; every pooled
// connection would otherwise need its own PRAGMA setup and could run into
// SQLITE_BUSY against the others.
func OpenSQLite(path string, cfg config.DatabaseConfig) (*sqlx.DB, error) {
	db, err := sqlx.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database %s: %w", path, err)
	}

	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}

	busy := cfg.BusyTimeout
	if busy <= 0 {
		busy = 5 * time.Second
	}
	if _, err := db.Exec(fmt.Sprintf("PRAGMA busy_timeout=%d", busy.Milliseconds())); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set busy timeout: %w", err)
	}

	if cfg.Bootstrap {
		if _, err := db.Exec(schema); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("bootstrap schema: %w", err)
		}
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}

	return db, nil
}
