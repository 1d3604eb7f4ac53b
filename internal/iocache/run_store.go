package iocache

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/huangsam/attrplot/internal/contract"
	"github.com/huangsam/attrplot/schema"
)

// Table names for run tracking.
const (
	runsTable      = "attrplot_runs"
	artifactsTable = "attrplot_artifacts"
)

// RunStoreImpl implements the RunStore interface.
type RunStoreImpl struct {
	db         *sql.DB
	backend    schema.DatabaseBackend
	driverName string
}

var _ contract.RunStore = &RunStoreImpl{} // Compile-time check

// NewRunStore creates a new RunStore with the specified backend.
func NewRunStore(backend schema.DatabaseBackend, connStr string) (contract.RunStore, error) {
	switch backend {
	case schema.NoneBackend:
		return &RunStoreImpl{backend: backend}, nil
	case schema.SQLiteBackend, schema.MySQLBackend, schema.PostgreSQLBackend:
	default:
		return nil, fmt.Errorf("unsupported run backend: %s", backend)
	}

	db, driverName, err := openSQL(backend, connStr, GetRunDBFilePath())
	if err != nil {
		return nil, err
	}
	if err := createRunTables(db, backend); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create run tables: %w", err)
	}

	return &RunStoreImpl{
		db:         db,
		backend:    backend,
		driverName: driverName,
	}, nil
}

// createRunTables creates the run tracking tables.
func createRunTables(db *sql.DB, backend schema.DatabaseBackend) error {
	tables := []struct {
		name  string
		query string
	}{
		{runsTable, getCreateRunsQuery(backend)},
		{artifactsTable, getCreateArtifactsQuery(backend)},
	}
	for _, table := range tables {
		if _, err := db.Exec(table.query); err != nil {
			return fmt.Errorf("failed to create table %s: %w", table.name, err)
		}
	}
	return nil
}

// getCreateRunsQuery returns the CREATE TABLE query for attrplot_runs.
func getCreateRunsQuery(backend schema.DatabaseBackend) string {
	quoted := quoteTableName(runsTable, backend)
	switch backend {
	case schema.MySQLBackend:
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				run_id BIGINT AUTO_INCREMENT PRIMARY KEY,
				run_uuid CHAR(36) NOT NULL,
				pipeline VARCHAR(32) NOT NULL,
				start_time DATETIME(6) NOT NULL,
				end_time DATETIME(6),
				run_duration_ms INT,
				total_artifacts INT NOT NULL DEFAULT 0,
				config_params TEXT
			);
		`, quoted)

	case schema.PostgreSQLBackend:
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				run_id BIGSERIAL PRIMARY KEY,
				run_uuid TEXT NOT NULL,
				pipeline TEXT NOT NULL,
				start_time TIMESTAMPTZ NOT NULL,
				end_time TIMESTAMPTZ,
				run_duration_ms INT,
				total_artifacts INT NOT NULL DEFAULT 0,
				config_params TEXT
			);
		`, quoted)

	default: // SQLite
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				run_id INTEGER PRIMARY KEY AUTOINCREMENT,
				run_uuid TEXT NOT NULL,
				pipeline TEXT NOT NULL,
				start_time TEXT NOT NULL,
				end_time TEXT,
				run_duration_ms INTEGER,
				total_artifacts INTEGER NOT NULL DEFAULT 0,
				config_params TEXT
			);
		`, quoted)
	}
}

// getCreateArtifactsQuery returns the CREATE TABLE query for attrplot_artifacts.
func getCreateArtifactsQuery(backend schema.DatabaseBackend) string {
	quoted := quoteTableName(artifactsTable, backend)
	switch backend {
	case schema.MySQLBackend:
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				run_id BIGINT NOT NULL,
				path VARCHAR(512) NOT NULL,
				kind VARCHAR(32) NOT NULL,
				model VARCHAR(255) NOT NULL DEFAULT '',
				dataset VARCHAR(255) NOT NULL DEFAULT '',
				feature VARCHAR(255) NOT NULL DEFAULT '',
				row_id VARCHAR(255) NOT NULL DEFAULT '',
				class_index INT NOT NULL,
				created_at DATETIME(6) NOT NULL,
				PRIMARY KEY (run_id, path)
			);
		`, quoted)

	case schema.PostgreSQLBackend:
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				run_id BIGINT NOT NULL,
				path TEXT NOT NULL,
				kind TEXT NOT NULL,
				model TEXT NOT NULL DEFAULT '',
				dataset TEXT NOT NULL DEFAULT '',
				feature TEXT NOT NULL DEFAULT '',
				row_id TEXT NOT NULL DEFAULT '',
				class_index INT NOT NULL,
				created_at TIMESTAMPTZ NOT NULL,
				PRIMARY KEY (run_id, path)
			);
		`, quoted)

	default: // SQLite
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				run_id INTEGER NOT NULL,
				path TEXT NOT NULL,
				kind TEXT NOT NULL,
				model TEXT NOT NULL DEFAULT '',
				dataset TEXT NOT NULL DEFAULT '',
				feature TEXT NOT NULL DEFAULT '',
				row_id TEXT NOT NULL DEFAULT '',
				class_index INTEGER NOT NULL,
				created_at TEXT NOT NULL,
				PRIMARY KEY (run_id, path)
			);
		`, quoted)
	}
}

// BeginRun creates a new run and returns its unique ID.
func (rs *RunStoreImpl) BeginRun(runUUID string, pipeline schema.Pipeline, startTime time.Time, configParams map[string]any) (int64, error) {
	if rs.backend == schema.NoneBackend || rs.db == nil {
		return 0, nil
	}

	configJSON, err := json.Marshal(configParams)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal config params: %w", err)
	}

	quoted := quoteTableName(runsTable, rs.backend)
	var runID int64
	switch rs.backend {
	case schema.PostgreSQLBackend:
		query := fmt.Sprintf(`INSERT INTO %s (run_uuid, pipeline, start_time, config_params) VALUES ($1, $2, $3, $4) RETURNING run_id`, quoted)
		err = rs.db.QueryRow(query, runUUID, string(pipeline), startTime, string(configJSON)).Scan(&runID)
	default: // SQLite and MySQL
		query := fmt.Sprintf(`INSERT INTO %s (run_uuid, pipeline, start_time, config_params) VALUES (?, ?, ?, ?)`, quoted)
		var result sql.Result
		result, err = rs.db.Exec(query, runUUID, string(pipeline), formatTime(startTime, rs.backend), string(configJSON))
		if err != nil {
			return 0, fmt.Errorf("failed to insert run: %w", err)
		}
		runID, err = result.LastInsertId()
	}
	if err != nil {
		return 0, fmt.Errorf("failed to insert run: %w", err)
	}
	return runID, nil
}

// EndRun updates the run with completion data.
func (rs *RunStoreImpl) EndRun(runID int64, endTime time.Time, totalArtifacts int) error {
	if rs.backend == schema.NoneBackend || rs.db == nil {
		return nil
	}

	quoted := quoteTableName(runsTable, rs.backend)
	query := fmt.Sprintf(`SELECT start_time FROM %s WHERE run_id = %s`, quoted, placeholder(rs.backend, 1))
	startTime, err := scanTime(rs.db.QueryRow(query, runID), rs.backend)
	if err != nil {
		return fmt.Errorf("failed to get start_time for run %d: %w", runID, err)
	}
	durationMs := endTime.Sub(startTime).Milliseconds()

	update := fmt.Sprintf(`UPDATE %s SET end_time = %s, run_duration_ms = %s, total_artifacts = %s WHERE run_id = %s`,
		quoted,
		placeholder(rs.backend, 1), placeholder(rs.backend, 2),
		placeholder(rs.backend, 3), placeholder(rs.backend, 4))
	if _, err := rs.db.Exec(update, formatTime(endTime, rs.backend), durationMs, totalArtifacts, runID); err != nil {
		return fmt.Errorf("failed to update run: %w", err)
	}
	return nil
}

// RecordArtifact stores one written file for a run.
func (rs *RunStoreImpl) RecordArtifact(runID int64, artifact schema.Artifact, createdAt time.Time) error {
	if rs.backend == schema.NoneBackend || rs.db == nil {
		return nil
	}

	query := fmt.Sprintf(`INSERT INTO %s (run_id, path, kind, model, dataset, feature, row_id, class_index, created_at)
		VALUES (%s, %s, %s, %s, %s, %s, %s, %s, %s)`,
		quoteTableName(artifactsTable, rs.backend),
		placeholder(rs.backend, 1), placeholder(rs.backend, 2), placeholder(rs.backend, 3),
		placeholder(rs.backend, 4), placeholder(rs.backend, 5), placeholder(rs.backend, 6),
		placeholder(rs.backend, 7), placeholder(rs.backend, 8), placeholder(rs.backend, 9))
	_, err := rs.db.Exec(query,
		runID, artifact.Path, string(artifact.Kind), artifact.Model, artifact.Dataset,
		artifact.Feature, artifact.RowID, artifact.ClassIndex, formatTime(createdAt, rs.backend))
	if err != nil {
		return fmt.Errorf("failed to insert artifact %s: %w", artifact.Path, err)
	}
	return nil
}

// Close closes the underlying connection.
func (rs *RunStoreImpl) Close() error {
	if rs.db != nil {
		return rs.db.Close()
	}
	return nil
}

// GetStatus returns status information about the run store.
func (rs *RunStoreImpl) GetStatus() (schema.RunStatus, error) {
	status := schema.RunStatus{
		Backend:    string(rs.backend),
		Connected:  rs.db != nil,
		TableSizes: make(map[string]int64),
	}
	if rs.backend == schema.NoneBackend || rs.db == nil {
		return status, nil
	}

	for _, table := range []string{runsTable, artifactsTable} {
		var count int64
		if err := rs.db.QueryRow(fmt.Sprintf("SELECT COUNT(*) FROM %s", quoteTableName(table, rs.backend))).Scan(&count); err != nil {
			return status, fmt.Errorf("failed to get count for table %s: %w", table, err)
		}
		status.TableSizes[table] = count
	}
	status.TotalRuns = int(status.TableSizes[runsTable])
	status.TotalArtifacts = int(status.TableSizes[artifactsTable])
	if status.TotalRuns == 0 {
		return status, nil
	}

	quoted := quoteTableName(runsTable, rs.backend)
	var lastRunID int64
	lastRow := rs.db.QueryRow(fmt.Sprintf("SELECT run_id FROM %s ORDER BY run_id DESC LIMIT 1", quoted))
	if err := lastRow.Scan(&lastRunID); err != nil {
		return status, fmt.Errorf("failed to get last run id: %w", err)
	}
	status.LastRunID = lastRunID

	lastTime, err := scanTime(rs.db.QueryRow(fmt.Sprintf("SELECT start_time FROM %s ORDER BY run_id DESC LIMIT 1", quoted)), rs.backend)
	if err != nil {
		return status, fmt.Errorf("failed to get last run time: %w", err)
	}
	status.LastRunTime = lastTime

	oldestTime, err := scanTime(rs.db.QueryRow(fmt.Sprintf("SELECT start_time FROM %s ORDER BY run_id ASC LIMIT 1", quoted)), rs.backend)
	if err != nil {
		return status, fmt.Errorf("failed to get oldest run time: %w", err)
	}
	status.OldestRunTime = oldestTime

	return status, nil
}

// GetAllRuns returns every recorded run ordered by ID.
func (rs *RunStoreImpl) GetAllRuns() ([]schema.RunRecord, error) {
	if rs.backend == schema.NoneBackend || rs.db == nil {
		return nil, nil
	}

	query := fmt.Sprintf(`SELECT run_id, run_uuid, pipeline, start_time, end_time, run_duration_ms, total_artifacts, config_params
		FROM %s ORDER BY run_id`, quoteTableName(runsTable, rs.backend))
	rows, err := rs.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []schema.RunRecord
	for rows.Next() {
		var record schema.RunRecord

		switch rs.backend {
		case schema.SQLiteBackend:
			var startStr string
			var endStr *string
			if err := rows.Scan(&record.RunID, &record.RunUUID, &record.Pipeline, &startStr, &endStr,
				&record.RunDurationMs, &record.TotalArtifacts, &record.ConfigParams); err != nil {
				return nil, fmt.Errorf("failed to scan run: %w", err)
			}
			if record.StartTime, err = time.Parse(time.RFC3339Nano, startStr); err != nil {
				return nil, fmt.Errorf("failed to parse start_time: %w", err)
			}
			if endStr != nil {
				end, err := time.Parse(time.RFC3339Nano, *endStr)
				if err != nil {
					return nil, fmt.Errorf("failed to parse end_time: %w", err)
				}
				record.EndTime = &end
			}
		default: // MySQL and PostgreSQL
			if err := rows.Scan(&record.RunID, &record.RunUUID, &record.Pipeline, &record.StartTime, &record.EndTime,
				&record.RunDurationMs, &record.TotalArtifacts, &record.ConfigParams); err != nil {
				return nil, fmt.Errorf("failed to scan run: %w", err)
			}
		}
		results = append(results, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating runs: %w", err)
	}
	return results, nil
}

// GetAllArtifacts returns every recorded artifact ordered by run and path.
func (rs *RunStoreImpl) GetAllArtifacts() ([]schema.ArtifactRecord, error) {
	if rs.backend == schema.NoneBackend || rs.db == nil {
		return nil, nil
	}

	query := fmt.Sprintf(`SELECT run_id, path, kind, model, dataset, feature, row_id, class_index, created_at
		FROM %s ORDER BY run_id, path`, quoteTableName(artifactsTable, rs.backend))
	rows, err := rs.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query artifacts: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []schema.ArtifactRecord
	for rows.Next() {
		var record schema.ArtifactRecord
		dest := []any{&record.RunID, &record.Path, &record.Kind, &record.Model, &record.Dataset,
			&record.Feature, &record.RowID, &record.ClassIndex}

		if rs.backend == schema.SQLiteBackend {
			var createdStr string
			if err := rows.Scan(append(dest, &createdStr)...); err != nil {
				return nil, fmt.Errorf("failed to scan artifact: %w", err)
			}
			if record.CreatedAt, err = time.Parse(time.RFC3339Nano, createdStr); err != nil {
				return nil, fmt.Errorf("failed to parse created_at: %w", err)
			}
		} else if err := rows.Scan(append(dest, &record.CreatedAt)...); err != nil {
			return nil, fmt.Errorf("failed to scan artifact: %w", err)
		}
		results = append(results, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating artifacts: %w", err)
	}
	return results, nil
}

// formatTime converts a time.Time to the storage format of the backend.
// SQLite has no native timestamp type, so times are stored as RFC 3339 text.
func formatTime(t time.Time, backend schema.DatabaseBackend) any {
	if backend == schema.SQLiteBackend {
		return t.Format(time.RFC3339Nano)
	}
	return t
}

// scanTime reads a single timestamp column written by formatTime.
func scanTime(row *sql.Row, backend schema.DatabaseBackend) (time.Time, error) {
	if backend != schema.SQLiteBackend {
		var t time.Time
		err := row.Scan(&t)
		return t, err
	}
	var s string
	if err := row.Scan(&s); err != nil {
		return time.Time{}, err
	}
	return time.Parse(time.RFC3339Nano, s)
}
