package sqlite

// Schema DDL. Tables are created if missing so an existing database file is
// reused across runs.
const (
	createScreens = `CREATE TABLE IF NOT EXISTS screens (
    screen_id TEXT PRIMARY KEY,
    entity_type TEXT NOT NULL,
    name TEXT NOT NULL UNIQUE,
    title TEXT NOT NULL DEFAULT '',
    active INTEGER NOT NULL DEFAULT 1,
    created_at TEXT NOT NULL
);`

	createScreenLines = `CREATE TABLE IF NOT EXISTS screen_lines (
    line_id TEXT PRIMARY KEY,
    screen_id TEXT NOT NULL,
    line_order INTEGER NOT NULL,
    target TEXT NOT NULL,
    relation_field TEXT NOT NULL DEFAULT '',
    property TEXT NOT NULL DEFAULT '',
    section_name TEXT NOT NULL DEFAULT '',
    caption TEXT NOT NULL DEFAULT '',
    description TEXT NOT NULL DEFAULT '',
    required INTEGER NOT NULL DEFAULT 0,
    readonly INTEGER NOT NULL DEFAULT 0,
    hidden INTEGER NOT NULL DEFAULT 0,
    caption_visible INTEGER NOT NULL DEFAULT 1,
    default_value TEXT NOT NULL DEFAULT '',
    max_length INTEGER NOT NULL DEFAULT 0,
    data_provider TEXT NOT NULL DEFAULT '',
    component TEXT NOT NULL DEFAULT '',
    UNIQUE (screen_id, line_order),
    FOREIGN KEY (screen_id) REFERENCES screens(screen_id) ON DELETE CASCADE
);`

	createEntities = `CREATE TABLE IF NOT EXISTS entities (
    entity_type TEXT NOT NULL,
    entity_id TEXT NOT NULL,
    version INTEGER NOT NULL,
    body TEXT NOT NULL,
    created_at TEXT NOT NULL,
    updated_at TEXT NOT NULL,
    PRIMARY KEY (entity_type, entity_id)
);`
)

// Index DDL for common queries.
const (
	idxScreensEntityType = `CREATE INDEX IF NOT EXISTS idx_screens_entity_type ON screens(entity_type);`
	idxScreenLinesScreen = `CREATE INDEX IF NOT EXISTS idx_screen_lines_screen ON screen_lines(screen_id, line_order);`
	idxEntitiesCreated   = `CREATE INDEX IF NOT EXISTS idx_entities_created ON entities(entity_type, created_at);`
)

// schemaDDL lists all CREATE TABLE statements in dependency order.
var schemaDDL = []string{
	createScreens,
	createScreenLines,
	createEntities,
}

// indexDDL lists all CREATE INDEX statements.
var indexDDL = []string{
	idxScreensEntityType,
	idxScreenLinesScreen,
	idxEntitiesCreated,
}

// pragmas run on every new connection.
var pragmas = []string{
	"PRAGMA foreign_keys = ON",
	"PRAGMA busy_timeout = 5000",
}
