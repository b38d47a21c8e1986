package tracing

import (
	"database/sql"
	"fmt"
	"os"
	"strings"

	// Need to use SQLite connections.
	_ "github.com/mattn/go-sqlite3"

	"github.com/tebeka/atexit"

	"github.com/sarchlab/devs/idgen"
)

// SQLiteTraceWriter is a writer that writes trace data to a SQLite database.
type SQLiteTraceWriter struct {
	*sql.DB

	statement *sql.Stmt
	dbName    string
	records   []Record
	batchSize int
}

// NewSQLiteTraceWriter creates a new SQLiteTraceWriter. The ".sqlite3"
// extension is added to path. An empty path picks a unique file name.
func NewSQLiteTraceWriter(path string) *SQLiteTraceWriter {
	w := &SQLiteTraceWriter{
		dbName:    path,
		batchSize: 100000,
	}

	atexit.Register(func() { w.Flush() })

	return w
}

// Filename returns the name of the database file.
func (t *SQLiteTraceWriter) Filename() string {
	return t.dbName + ".sqlite3"
}

// Init creates the database and the trace table.
func (t *SQLiteTraceWriter) Init() {
	t.createDatabase()
	t.createTable()
	t.prepareStatement()
}

// Write buffers a record. A full buffer is flushed.
func (t *SQLiteTraceWriter) Write(r Record) {
	t.records = append(t.records, r)
	if len(t.records) >= t.batchSize {
		t.Flush()
	}
}

// Flush writes all the buffered records to the database in one transaction.
func (t *SQLiteTraceWriter) Flush() {
	if len(t.records) == 0 {
		return
	}

	tx, err := t.Begin()
	if err != nil {
		panic(err)
	}

	stmt := tx.Stmt(t.statement)
	for _, r := range t.records {
		_, err := stmt.Exec(
			r.ID,
			r.Step,
			r.Time,
			r.Index,
			r.Model,
			r.Kind,
			r.Payload,
		)
		if err != nil {
			_ = tx.Rollback()
			panic(fmt.Errorf("inserting record %s: %w", r.ID, err))
		}
	}

	if err := tx.Commit(); err != nil {
		panic(err)
	}

	t.records = nil
}

func (t *SQLiteTraceWriter) createDatabase() {
	if t.dbName == "" {
		t.dbName = "devs_trace_" + idgen.NewRunID()
	}

	t.dbName = strings.TrimSuffix(t.dbName, ".sqlite3")

	filename := t.Filename()
	_, err := os.Stat(filename)
	if err == nil {
		panic(fmt.Errorf("file %s already exists", filename))
	}

	db, err := sql.Open("sqlite3", filename)
	if err != nil {
		panic(err)
	}

	t.DB = db
}

func (t *SQLiteTraceWriter) createTable() {
	t.mustExecute(`
		create table trace
		(
			record_id varchar(200) not null,
			step      integer      not null,
			time      float        not null,
			idx       integer      not null default 0,
			model     varchar(200) not null,
			kind      varchar(20)  not null,
			payload   text         default ''
		);
	`)

	t.mustExecute(`
		create index trace_model_index
			on trace (model);
	`)

	t.mustExecute(`
		create index trace_kind_index
			on trace (kind);
	`)

	t.mustExecute(`
		create index trace_time_index
			on trace (time);
	`)
}

func (t *SQLiteTraceWriter) prepareStatement() {
	stmt, err := t.Prepare(`INSERT INTO trace VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		panic(err)
	}

	t.statement = stmt
}

func (t *SQLiteTraceWriter) mustExecute(query string) sql.Result {
	res, err := t.Exec(query)
	if err != nil {
		panic(fmt.Errorf("failed to execute %q: %w", query, err))
	}

	return res
}

// RecordQuery selects records. Empty fields are not used as criteria.
type RecordQuery struct {
	// Use Model to select the records of one model.
	Model string

	// Use Kind to select the records of one kind.
	Kind string

	// Enable time range selection.
	EnableTimeRange bool

	// StartTime and EndTime bound the record times, both ends included.
	StartTime, EndTime float64
}

// TraceReader can query a stored trace.
type TraceReader interface {
	// ListModels returns all the models that appear in the trace.
	ListModels() []string

	// ListRecords queries records in the order they were written.
	ListRecords(query RecordQuery) []Record
}

// SQLiteTraceReader is a reader that reads trace data from a SQLite database.
type SQLiteTraceReader struct {
	*sql.DB

	filename string
}

// NewSQLiteTraceReader creates a new SQLiteTraceReader.
func NewSQLiteTraceReader(filename string) *SQLiteTraceReader {
	return &SQLiteTraceReader{
		filename: filename,
	}
}

// Init establishes a connection to the database.
func (r *SQLiteTraceReader) Init() {
	db, err := sql.Open("sqlite3", r.filename)
	if err != nil {
		panic(err)
	}

	r.DB = db
}

// ListModels returns the models in the trace, sorted by name.
func (r *SQLiteTraceReader) ListModels() []string {
	rows, err := r.Query("SELECT DISTINCT model FROM trace ORDER BY model")
	if err != nil {
		panic(err)
	}
	defer closeRows(rows)

	var models []string
	for rows.Next() {
		var model string
		if err := rows.Scan(&model); err != nil {
			panic(err)
		}

		models = append(models, model)
	}

	return models
}

// ListRecords returns the records matching query.
func (r *SQLiteTraceReader) ListRecords(query RecordQuery) []Record {
	sqlStr, args := prepareRecordQuery(query)

	rows, err := r.Query(sqlStr, args...)
	if err != nil {
		panic(err)
	}
	defer closeRows(rows)

	records := []Record{}
	for rows.Next() {
		rec := Record{}

		err := rows.Scan(
			&rec.ID,
			&rec.Step,
			&rec.Time,
			&rec.Index,
			&rec.Model,
			&rec.Kind,
			&rec.Payload,
		)
		if err != nil {
			panic(err)
		}

		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		panic(err)
	}

	return records
}

func prepareRecordQuery(query RecordQuery) (string, []any) {
	sqlStr := `
		SELECT record_id, step, time, idx, model, kind, payload
		FROM trace
		WHERE 1=1
	`

	var args []any

	if query.Model != "" {
		sqlStr += " AND model = ?"
		args = append(args, query.Model)
	}

	if query.Kind != "" {
		sqlStr += " AND kind = ?"
		args = append(args, query.Kind)
	}

	if query.EnableTimeRange {
		sqlStr += " AND time >= ? AND time <= ?"
		args = append(args, query.StartTime, query.EndTime)
	}

	sqlStr += " ORDER BY rowid"

	return sqlStr, args
}

func closeRows(rows *sql.Rows) {
	err := rows.Close()
	if err != nil {
		panic(err)
	}
}
