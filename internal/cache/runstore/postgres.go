package runstore

func (s *Store) ensureSchema() error {
	s.schemaOnce.Do(func() {
		_, s.schemaErr = s.db.Exec(`
CREATE TABLE IF NOT EXISTS analysis_runs (
    id           TEXT PRIMARY KEY,
    project_name TEXT NOT NULL,
    root         TEXT NOT NULL,
    started_at   TIMESTAMPTZ NOT NULL,
    duration_ms  BIGINT NOT NULL,
    total_files  INTEGER NOT NULL,
    successful   INTEGER NOT NULL,
    failed       INTEGER NOT NULL
)`)
	})
	return s.schemaErr
}

func (s *Store) recordDB(run Run) error {
	if err := s.ensureSchema(); err != nil {
		return err
	}
	_, err := s.db.Exec(`
INSERT INTO analysis_runs (id, project_name, root, started_at, duration_ms, total_files, successful, failed)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
ON CONFLICT (id) DO UPDATE SET
    project_name = EXCLUDED.project_name,
    root         = EXCLUDED.root,
    started_at   = EXCLUDED.started_at,
    duration_ms  = EXCLUDED.duration_ms,
    total_files  = EXCLUDED.total_files,
    successful   = EXCLUDED.successful,
    failed       = EXCLUDED.failed`,
		run.ID, run.ProjectName, run.Root, run.StartedAt, run.DurationMS,
		run.TotalFiles, run.Successful, run.Failed)
	return err
}

func (s *Store) recentDB(limit int) ([]Run, error) {
	if err := s.ensureSchema(); err != nil {
		return nil, err
	}
	rows, err := s.db.Query(`
SELECT id, project_name, root, started_at, duration_ms, total_files, successful, failed
FROM analysis_runs
ORDER BY started_at DESC
LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Run
	for rows.Next() {
		var r Run
		if err := rows.Scan(&r.ID, &r.ProjectName, &r.Root, &r.StartedAt, &r.DurationMS,
			&r.TotalFiles, &r.Successful, &r.Failed); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
