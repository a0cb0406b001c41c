package db

const schema = `
-- Performance and reliability settings
PRAGMA journal_mode = WAL;
PRAGMA synchronous = NORMAL;
PRAGMA foreign_keys = ON;
PRAGMA temp_store = MEMORY;

-- Runs: one row per reconciliation run
CREATE TABLE IF NOT EXISTS runs (
    run_id INTEGER PRIMARY KEY AUTOINCREMENT,
    started_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    finished_at TIMESTAMP,
    status TEXT NOT NULL DEFAULT 'running',    -- running, success, error
    error_message TEXT,
    exact_count INTEGER DEFAULT 0,
    similar_count INTEGER DEFAULT 0,
    outdated_count INTEGER DEFAULT 0,
    missing_count INTEGER DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at DESC);

-- Run matches: every match a run produced, tagged with the pair kind
CREATE TABLE IF NOT EXISTS run_matches (
    match_id INTEGER PRIMARY KEY AUTOINCREMENT,
    run_id INTEGER NOT NULL,
    kind TEXT NOT NULL,
    name_ref TEXT NOT NULL,
    name_cand TEXT,
    version_ref TEXT,
    version_cand TEXT,
    url_ref TEXT,
    url_cand TEXT,
    similarity REAL,
    classification TEXT NOT NULL,
    freshness TEXT NOT NULL,
    FOREIGN KEY (run_id) REFERENCES runs(run_id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_run_matches_run ON run_matches(run_id);
CREATE INDEX IF NOT EXISTS idx_run_matches_classification ON run_matches(classification);
`
