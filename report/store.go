package report

import (
	"database/sql"
	"fmt"
	"github.com/devplayg/dupfinder/dff"
	_ "github.com/mattn/go-sqlite3"
	"strings"
	"time"
)

// Run is one finished scan as recorded in the database.
type Run struct {
	ID            int64
	Date          time.Time
	Dirs          []string
	FileCount     int
	HashedCount   int
	GroupCount    int
	ErrorCount    int
	WastedSize    int64
	ExecutionTime float64
}

// Store keeps a log of scans in a SQLite database.
type Store struct {
	dbFile string
	db     *sql.DB
}

func Open(dbFile string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbFile)
	if err != nil {
		return nil, err
	}
	s := Store{
		dbFile: dbFile,
		db:     db,
	}
	if err := s.initDB(); err != nil {
		db.Close()
		return nil, err
	}
	return &s, nil
}

func (s *Store) initDB() error {
	query := `
		CREATE TABLE IF NOT EXISTS dff_run (
			id integer not null primary key autoincrement,
			date text not null,
			dirs text not null default '',
			file_count integer not null default 0,
			hashed_count integer not null default 0,
			group_count integer not null default 0,
			error_count integer not null default 0,
			wasted_size integer not null default 0,
			execution_time real not null default 0.0
		);
		CREATE INDEX IF NOT EXISTS ix_dff_run ON dff_run(date);
		CREATE TABLE IF NOT EXISTS dff_group (
			run_id integer not null,
			group_no integer not null,
			digest text not null,
			size integer not null,
			count integer not null
		);
		CREATE INDEX IF NOT EXISTS ix_dff_group_run_id ON dff_group(run_id);
		CREATE TABLE IF NOT EXISTS dff_file (
			run_id integer not null,
			group_no integer not null,
			path text not null
		);
		CREATE INDEX IF NOT EXISTS ix_dff_file_run_id ON dff_file(run_id, group_no);
		CREATE TABLE IF NOT EXISTS dff_error (
			run_id integer not null,
			path text not null,
			message text not null
		);
	`
	if _, err := s.db.Exec(query); err != nil {
		return fmt.Errorf("failed to initialize %s: %w", s.dbFile, err)
	}
	return nil
}

// Save records result and returns the new run ID.
func (s *Store) Save(result *dff.Result, dirs []string) (int64, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return 0, err
	}
	id, err := s.insertRun(tx, result, dirs)
	if err != nil {
		tx.Rollback()
		return 0, err
	}
	if err := s.insertGroups(tx, id, result.Groups); err != nil {
		tx.Rollback()
		return 0, err
	}
	if err := s.insertErrors(tx, id, result.Errors); err != nil {
		tx.Rollback()
		return 0, err
	}
	return id, tx.Commit()
}

func (s *Store) insertRun(tx *sql.Tx, result *dff.Result, dirs []string) (int64, error) {
	res, err := tx.Exec(`
		insert into dff_run(date, dirs, file_count, hashed_count, group_count, error_count, wasted_size, execution_time)
		values(?, ?, ?, ?, ?, ?, ?, ?)`,
		time.Now().Format(time.RFC3339),
		strings.Join(dirs, "\n"),
		result.FileCount,
		result.HashedCount,
		len(result.Groups),
		len(result.Errors),
		result.WastedSize(),
		result.Duration.Seconds(),
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (s *Store) insertGroups(tx *sql.Tx, id int64, groups []dff.DuplicateGroup) error {
	groupStmt, err := tx.Prepare("insert into dff_group(run_id, group_no, digest, size, count) values(?, ?, ?, ?, ?)")
	if err != nil {
		return err
	}
	defer groupStmt.Close()
	fileStmt, err := tx.Prepare("insert into dff_file(run_id, group_no, path) values(?, ?, ?)")
	if err != nil {
		return err
	}
	defer fileStmt.Close()

	for i, g := range groups {
		if _, err := groupStmt.Exec(id, i+1, g.Digest.String(), g.Size, g.Count()); err != nil {
			return err
		}
		for _, path := range g.Paths {
			if _, err := fileStmt.Exec(id, i+1, path); err != nil {
				return err
			}
		}
	}
	return nil
}

func (s *Store) insertErrors(tx *sql.Tx, id int64, hashErrors []dff.HashError) error {
	if len(hashErrors) < 1 {
		return nil
	}
	stmt, err := tx.Prepare("insert into dff_error(run_id, path, message) values(?, ?, ?)")
	if err != nil {
		return err
	}
	defer stmt.Close()
	for _, e := range hashErrors {
		if _, err := stmt.Exec(id, e.Path, e.Err.Error()); err != nil {
			return err
		}
	}
	return nil
}

// Runs returns every recorded run, newest first.
func (s *Store) Runs() ([]Run, error) {
	rows, err := s.db.Query(`
		select id, date, dirs, file_count, hashed_count, group_count, error_count, wasted_size, execution_time
		from dff_run
		order by id desc
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	runs := make([]Run, 0)
	for rows.Next() {
		var r Run
		var date, dirs string
		if err := rows.Scan(&r.ID, &date, &dirs, &r.FileCount, &r.HashedCount, &r.GroupCount, &r.ErrorCount, &r.WastedSize, &r.ExecutionTime); err != nil {
			return nil, err
		}
		r.Date, _ = time.Parse(time.RFC3339, date)
		r.Dirs = strings.Split(dirs, "\n")
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// Files returns the paths of every group of a run, in group order.
func (s *Store) Files(runID int64) ([][]string, error) {
	rows, err := s.db.Query(`
		select group_no, path
		from dff_file
		where run_id = ?
		order by group_no, rowid
	`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	groups := make([][]string, 0)
	for rows.Next() {
		var groupNo int
		var path string
		if err := rows.Scan(&groupNo, &path); err != nil {
			return nil, err
		}
		for len(groups) < groupNo {
			groups = append(groups, make([]string, 0))
		}
		groups[groupNo-1] = append(groups[groupNo-1], path)
	}
	return groups, rows.Err()
}

func (s *Store) Close() error {
	return s.db.Close()
}
