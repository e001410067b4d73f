package guard

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

// SQLStore is the SQLite-backed BackupStore. Records share the database
// with the snapshot cache; the table is append-only.
type SQLStore struct {
	db *sql.DB
}

// NewSQLStore creates a SQLStore. The schema is expected to exist (see
// shared.RunMigrations).
func NewSQLStore(db *sql.DB) *SQLStore {
	return &SQLStore{db: db}
}

// Append writes one backup record.
func (s *SQLStore) Append(record Record) error {
	ids, err := json.Marshal(record.TrackIDs)
	if err != nil {
		return fmt.Errorf("failed to encode track ids: %w", err)
	}

	_, err = s.db.Exec(
		"INSERT INTO backups (id, playlist_id, playlist_name, track_ids, reason, created_at) VALUES (?, ?, ?, ?, ?, ?)",
		record.ID, record.PlaylistID, record.PlaylistName, string(ids), record.Reason, record.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert backup record: %w", err)
	}
	return nil
}

// List returns the most recent backup records, newest first.
func (s *SQLStore) List(limit int) ([]Record, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.Query(
		"SELECT id, playlist_id, playlist_name, track_ids, reason, created_at FROM backups ORDER BY created_at DESC LIMIT ?",
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query backups: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, *record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read backups: %w", err)
	}
	return records, nil
}

// Get returns a single backup record by id.
func (s *SQLStore) Get(id string) (*Record, error) {
	rows, err := s.db.Query(
		"SELECT id, playlist_id, playlist_name, track_ids, reason, created_at FROM backups WHERE id = ?",
		id,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query backup: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, fmt.Errorf("backup record %s not found", id)
	}
	return scanRecord(rows)
}

func scanRecord(rows *sql.Rows) (*Record, error) {
	var record Record
	var ids string
	var createdAt time.Time
	if err := rows.Scan(&record.ID, &record.PlaylistID, &record.PlaylistName, &ids, &record.Reason, &createdAt); err != nil {
		return nil, fmt.Errorf("failed to scan backup record: %w", err)
	}
	record.CreatedAt = createdAt.UTC()
	if err := json.Unmarshal([]byte(ids), &record.TrackIDs); err != nil {
		return nil, fmt.Errorf("failed to decode track ids: %w", err)
	}
	return &record, nil
}
