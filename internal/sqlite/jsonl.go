package sqlite

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jmoiron/sqlx"
)

// Backup file names. Files are written and loaded in this order so lines
// always follow their screens.
const (
	ScreensFile     = "screens.jsonl"
	ScreenLinesFile = "screen_lines.jsonl"
	EntitiesFile    = "entities.jsonl"
)

// backupTables maps backup files to tables, the columns carried in each
// record, and the order rows are exported in.
var backupTables = []struct {
	file    string
	table   string
	columns []string
	orderBy string
}{
	{ScreensFile, "screens", strings.Split(screenColumns, ", "), "name"},
	{ScreenLinesFile, "screen_lines", strings.Split(lineColumns, ", "), "screen_id, line_order"},
	{EntitiesFile, "entities", []string{"entity_type", "entity_id", "version", "body", "created_at", "updated_at"}, "entity_type, created_at, entity_id"},
}

// BackupCounts reports how many records each backup file held.
type BackupCounts map[string]int

// Export writes every table to a JSONL file in dir, one JSON object per row.
// Each file is replaced atomically.
func (b *Backend) Export(ctx context.Context, dir string) (BackupCounts, error) {
	db, err := b.handle()
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating export dir: %w", err)
	}

	counts := BackupCounts{}
	for _, t := range backupTables {
		records, err := dumpTable(ctx, db, t.table, t.columns, t.orderBy)
		if err != nil {
			return nil, err
		}
		if err := writeJSONL(filepath.Join(dir, t.file), records); err != nil {
			return nil, err
		}
		counts[t.file] = len(records)
	}
	return counts, nil
}

func dumpTable(ctx context.Context, db *sqlx.DB, table string, columns []string, orderBy string) ([]json.RawMessage, error) {
	rows, err := db.QueryxContext(ctx, fmt.Sprintf("SELECT %s FROM %s ORDER BY %s", strings.Join(columns, ", "), table, orderBy))
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", table, err)
	}
	defer rows.Close()

	var records []json.RawMessage
	for rows.Next() {
		row := map[string]any{}
		if err := rows.MapScan(row); err != nil {
			return nil, fmt.Errorf("scanning %s: %w", table, err)
		}
		for k, v := range row {
			if raw, ok := v.([]byte); ok {
				row[k] = string(raw)
			}
		}
		rec, err := json.Marshal(row)
		if err != nil {
			return nil, fmt.Errorf("encoding %s row: %w", table, err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// Import loads the JSONL files in dir, replacing rows with the same keys.
// Missing files are treated as empty. Malformed lines and records that
// violate constraints are skipped; unknown fields are ignored. Loading is
// transactional: either every file is applied or none is.
func (b *Backend) Import(ctx context.Context, dir string) (BackupCounts, error) {
	db, err := b.handle()
	if err != nil {
		return nil, err
	}

	// foreign_keys cannot change inside a transaction.
	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys = OFF"); err != nil {
		return nil, fmt.Errorf("disabling foreign keys for load: %w", err)
	}
	defer db.ExecContext(context.Background(), "PRAGMA foreign_keys = ON")

	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning load transaction: %w", err)
	}
	defer tx.Rollback()

	counts := BackupCounts{}
	for _, t := range backupTables {
		records, err := readJSONL(filepath.Join(dir, t.file))
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, err
		}
		n, err := insertRecords(ctx, tx, t.table, t.columns, records)
		if err != nil {
			return nil, fmt.Errorf("loading %s into %s: %w", t.file, t.table, err)
		}
		counts[t.file] = n
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM screen_lines WHERE screen_id NOT IN (SELECT screen_id FROM screens)"); err != nil {
		return nil, fmt.Errorf("removing orphaned lines: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing load transaction: %w", err)
	}
	return counts, nil
}

// insertRecords inserts or replaces records in table and returns how many
// were applied. Only the listed columns are read from each record.
func insertRecords(ctx context.Context, tx *sqlx.Tx, table string, columns []string, records []json.RawMessage) (int, error) {
	if len(records) == 0 {
		return 0, nil
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(columns)), ", ")
	stmt, err := tx.PreparexContext(ctx, fmt.Sprintf("INSERT OR REPLACE INTO %s (%s) VALUES (%s)",
		table, strings.Join(columns, ", "), placeholders))
	if err != nil {
		return 0, fmt.Errorf("preparing insert for %s: %w", table, err)
	}
	defer stmt.Close()

	applied := 0
	for _, rec := range records {
		var obj map[string]any
		if err := json.Unmarshal(rec, &obj); err != nil {
			continue
		}
		args := make([]any, len(columns))
		for i, col := range columns {
			switch v := obj[col].(type) {
			case map[string]any, []any:
				raw, err := json.Marshal(v)
				if err != nil {
					continue
				}
				args[i] = string(raw)
			case bool:
				args[i] = boolInt(v)
			default:
				args[i] = v
			}
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			continue
		}
		applied++
	}
	return applied, nil
}

func boolInt(v bool) int {
	if v {
		return 1
	}
	return 0
}

// readJSONL reads a JSONL file and returns each non-empty, parseable line as
// a json.RawMessage. Malformed lines are skipped.
func readJSONL(path string) ([]json.RawMessage, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var records []json.RawMessage
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 || !json.Valid(line) {
			continue
		}
		cp := make([]byte, len(line))
		copy(cp, line)
		records = append(records, json.RawMessage(cp))
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scanning %s: %w", path, err)
	}
	return records, nil
}

// writeJSONL atomically writes records to a JSONL file using the temp-file,
// fsync, rename pattern.
func writeJSONL(path string, records []json.RawMessage) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".jsonl-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()
	fail := func(what string, err error) error {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("%s: %w", what, err)
	}

	w := bufio.NewWriter(tmp)
	for _, rec := range records {
		if _, err := w.Write(rec); err != nil {
			return fail("writing record", err)
		}
		if err := w.WriteByte('\n'); err != nil {
			return fail("writing newline", err)
		}
	}
	if err := w.Flush(); err != nil {
		return fail("flushing buffer", err)
	}
	if err := tmp.Sync(); err != nil {
		return fail("syncing temp file", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}
