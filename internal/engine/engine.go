package engine

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/mattn/go-sqlite3"

	"github.com/nerrad567/sqlgate/internal/infrastructure/database"
	"github.com/nerrad567/sqlgate/internal/sqlfunc"
)

// enableForeignKeys runs on every fresh connection before dispatch.
const enableForeignKeys = "PRAGMA foreign_keys = ON"

// Request is one unit of work.
type Request struct {
	// Query is the SQL text. It is passed to SQLite unchanged.
	Query string

	// Single runs Query as exactly one statement and captures its result
	// set. Otherwise Query is run as a script and yields no rows.
	Single bool
}

// Result is the outcome of a successful execution.
type Result struct {
	Columns []string
	Rows    [][]any

	// HasResultSet is true when the statement produced columns, even if
	// no rows matched.
	HasResultSet bool

	// Elapsed covers dispatch through the final commit.
	Elapsed time.Duration
}

// Options tunes an Engine.
type Options struct {
	// QueryTimeout bounds dispatch. Zero means no limit beyond the
	// caller's context.
	QueryTimeout time.Duration
}

// Engine executes requests against the database. It is safe for
// concurrent use: all per-request state lives on the acquired connection.
type Engine struct {
	db       *database.DB
	registry *sqlfunc.Registry
	opts     Options
}

// New creates an Engine. db and registry must not be nil.
func New(db *database.DB, registry *sqlfunc.Registry, opts Options) *Engine {
	return &Engine{db: db, registry: registry, opts: opts}
}

// Execute runs req and returns its result.
// Errors are always *ExecError.
func (e *Engine) Execute(ctx context.Context, req Request) (*Result, error) {
	return e.run(ctx, req, e.opts.QueryTimeout)
}

// RunStartupScript executes the script at path once, with the same
// preparation as a request but without the query time limit.
// A missing file yields ErrNoStartupScript.
func (e *Engine) RunStartupScript(ctx context.Context, path string) error {
	script, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrNoStartupScript, path)
		}
		return fmt.Errorf("reading startup script: %w", err)
	}

	if _, err := e.run(ctx, Request{Query: string(script)}, 0); err != nil {
		return fmt.Errorf("running startup script %s: %w", path, err)
	}
	return nil
}

func (e *Engine) run(ctx context.Context, req Request, timeout time.Duration) (*Result, error) {
	sess, err := e.db.Session(ctx)
	if err != nil {
		return nil, acquireError(err)
	}
	defer sess.Close() //nolint:errcheck // release is best effort; the connection is discarded either way

	if err := e.prepare(ctx, sess); err != nil {
		return nil, classify(err)
	}

	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	start := time.Now()
	res, err := dispatch(ctx, sess, req)
	if err != nil {
		return nil, classify(err)
	}
	res.Elapsed = time.Since(start)

	return res, nil
}

// prepare installs the function registry and enables foreign keys.
// The pragma runs in autocommit mode, so it is in force before dispatch.
func (e *Engine) prepare(ctx context.Context, sess *database.Session) error {
	if err := sess.WithDriverConn(e.registry.Install); err != nil {
		return fmt.Errorf("installing functions: %w", err)
	}
	if _, err := sess.ExecContext(ctx, enableForeignKeys); err != nil {
		return fmt.Errorf("enabling foreign keys: %w", err)
	}
	return nil
}

// dispatch runs req in autocommit mode, so statements such as VACUUM and
// scripts with their own BEGIN ... COMMIT behave as they do in sqlite3.
// A transaction the statements leave open is committed on success and
// rolled back on any failure.
func dispatch(ctx context.Context, sess *database.Session, req Request) (res *Result, err error) {
	defer func() {
		if err != nil {
			rollbackOpen(ctx, sess)
		}
	}()

	if req.Single {
		res, err = runSingle(ctx, sess, req.Query)
	} else {
		res, err = runScript(ctx, sess, req.Query)
	}
	if err != nil {
		return nil, err
	}

	if err := commitOpen(ctx, sess); err != nil {
		return nil, err
	}
	return res, nil
}

// runSingle executes exactly one statement. Text after it other than
// comments and semicolons is rejected before anything runs.
func runSingle(ctx context.Context, sess *database.Session, query string) (*Result, error) {
	stmt, more := splitFirst(query)
	if more {
		return nil, &ExecError{Kind: ErrDatabase, Message: msgMultipleStatements, Err: ErrMultipleStatements}
	}
	if stmt == "" {
		return &Result{}, nil
	}
	return querySingle(ctx, sess, stmt)
}

// runScript executes every statement of script in order.
func runScript(ctx context.Context, sess *database.Session, script string) (*Result, error) {
	if strings.TrimSpace(script) == "" {
		return &Result{}, nil
	}
	if _, err := sess.ExecContext(ctx, script); err != nil {
		return nil, err
	}
	return &Result{}, nil
}

// querySingle prepares one statement, steps it to completion and
// captures its result set, if any.
func querySingle(ctx context.Context, sess *database.Session, query string) (*Result, error) {
	stmt, err := sess.PreparexContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer stmt.Close() //nolint:errcheck // finalised with the session

	rows, err := stmt.QueryxContext(ctx)
	if err != nil {
		return nil, err
	}
	defer rows.Close() //nolint:errcheck // closed after full iteration

	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	res := &Result{}
	if len(cols) == 0 {
		// No result set: step once to run the statement. An empty
		// statement never reports done, so it must not be looped over.
		rows.Next()
		return res, rows.Err()
	}

	res.HasResultSet = true
	res.Columns = cols
	res.Rows = [][]any{}
	for rows.Next() {
		raw, err := rows.SliceScan()
		if err != nil {
			return nil, err
		}
		res.Rows = append(res.Rows, normalizeRow(raw))
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return res, nil
}

// inTransaction reports whether the session has an open transaction.
func inTransaction(sess *database.Session) (bool, error) {
	var open bool
	err := sess.WithDriverConn(func(conn *sqlite3.SQLiteConn) error {
		open = !conn.AutoCommit()
		return nil
	})
	return open, err
}

func commitOpen(ctx context.Context, sess *database.Session) error {
	open, err := inTransaction(sess)
	if err != nil || !open {
		return err
	}
	if _, err := sess.ExecContext(ctx, "COMMIT"); err != nil {
		return fmt.Errorf("committing: %w", err)
	}
	return nil
}

// rollbackOpen rolls back a transaction left open by a failed dispatch.
// It runs even when ctx is already cancelled.
func rollbackOpen(ctx context.Context, sess *database.Session) {
	if open, err := inTransaction(sess); err != nil || !open {
		return
	}
	_, _ = sess.ExecContext(context.WithoutCancel(ctx), "ROLLBACK") //nolint:errcheck // already failing; the session is discarded next
}

// normalizeRow makes driver values JSON friendly.
func normalizeRow(raw []any) []any {
	row := make([]any, len(raw))
	for i, v := range raw {
		switch v := v.(type) {
		case []byte:
			row[i] = base64.StdEncoding.EncodeToString(v)
		case time.Time:
			row[i] = v.Format(time.RFC3339Nano)
		default:
			row[i] = v
		}
	}
	return row
}

// FormatElapsed renders d in seconds with seven decimal places.
func FormatElapsed(d time.Duration) string {
	return fmt.Sprintf("%.7f", d.Seconds())
}
