package storage

// schemaV1 lays out the normalized tables §4.1 requires: nodes, interned
// labels, the node-labels join, relationships with directional indexes,
// property-index/constraint metadata, vector-index metadata and entries,
// and the FTS configuration table. The FTS virtual table itself is
// created by internal/textindex.Open with a fixed column list
// (entity_kind, entity_id, content), whether or not any config exists.
const schemaV1 = `
CREATE TABLE IF NOT EXISTS schema_version (
	version INTEGER PRIMARY KEY,
	applied_at REAL DEFAULT (julianday('now'))
);

CREATE TABLE IF NOT EXISTS labels (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	name TEXT NOT NULL UNIQUE COLLATE NOCASE
);

CREATE TABLE IF NOT EXISTS nodes (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	uri TEXT,
	created_at REAL NOT NULL DEFAULT (julianday('now')),
	properties TEXT NOT NULL DEFAULT '{}'
);

CREATE INDEX IF NOT EXISTS idx_nodes_uri ON nodes(uri);

CREATE TABLE IF NOT EXISTS node_labels (
	node_id INTEGER NOT NULL REFERENCES nodes(id) ON DELETE CASCADE,
	label_id INTEGER NOT NULL REFERENCES labels(id) ON DELETE CASCADE,
	PRIMARY KEY (node_id, label_id)
);

CREATE INDEX IF NOT EXISTS idx_node_labels_label ON node_labels(label_id);

CREATE TABLE IF NOT EXISTS rel_types (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	name TEXT NOT NULL UNIQUE
);

CREATE TABLE IF NOT EXISTS relationships (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	source_id INTEGER NOT NULL REFERENCES nodes(id) ON DELETE CASCADE,
	target_id INTEGER NOT NULL REFERENCES nodes(id) ON DELETE CASCADE,
	type_id INTEGER NOT NULL REFERENCES rel_types(id),
	uri TEXT,
	created_at REAL NOT NULL DEFAULT (julianday('now')),
	properties TEXT NOT NULL DEFAULT '{}'
);

CREATE INDEX IF NOT EXISTS idx_rel_source_type ON relationships(source_id, type_id);
CREATE INDEX IF NOT EXISTS idx_rel_target_type ON relationships(target_id, type_id);

CREATE TABLE IF NOT EXISTS property_indexes (
	name TEXT PRIMARY KEY,
	entity_kind TEXT NOT NULL CHECK (entity_kind IN ('node','relationship')),
	label_or_type TEXT NOT NULL,
	property TEXT NOT NULL,
	is_unique INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS property_constraints (
	name TEXT PRIMARY KEY,
	kind TEXT NOT NULL CHECK (kind IN ('uniqueness','existence','type')),
	entity_kind TEXT NOT NULL CHECK (entity_kind IN ('node','relationship')),
	label_or_type TEXT NOT NULL,
	property TEXT NOT NULL,
	scalar_type TEXT
);

CREATE TABLE IF NOT EXISTS vector_indexes (
	name TEXT PRIMARY KEY,
	dimension INTEGER NOT NULL,
	backend TEXT NOT NULL,
	method TEXT NOT NULL,
	metric TEXT NOT NULL DEFAULT 'cosine',
	store_embeddings INTEGER NOT NULL DEFAULT 0,
	default_k INTEGER NOT NULL DEFAULT 10,
	candidate_multiplier INTEGER NOT NULL DEFAULT 3,
	embedding_function TEXT,
	persist_path TEXT,
	options TEXT NOT NULL DEFAULT '{}'
);

CREATE TABLE IF NOT EXISTS vector_entries (
	index_name TEXT NOT NULL REFERENCES vector_indexes(name) ON DELETE CASCADE,
	node_id INTEGER NOT NULL REFERENCES nodes(id) ON DELETE CASCADE,
	vector BLOB NOT NULL,
	PRIMARY KEY (index_name, node_id)
);

CREATE TABLE IF NOT EXISTS text_index_config (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	entity_kind TEXT NOT NULL CHECK (entity_kind IN ('node','relationship')),
	label_or_type TEXT,
	property TEXT NOT NULL,
	weight REAL NOT NULL DEFAULT 1.0,
	UNIQUE(entity_kind, label_or_type, property)
);

INSERT OR IGNORE INTO schema_version (version) VALUES (1);
`
