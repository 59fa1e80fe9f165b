package sink

import (
	"context"
	"database/sql"
	_ "embed"

	"ibge-panorama/internal/extract"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	_ "modernc.org/sqlite"
)

var tracer = otel.Tracer("ibge-panorama/sink")

//go:embed schema.sql
var Schema string

// SQLite mirrors the records into a table keyed by (unit_index, line_index).
type SQLite struct {
	db *sql.DB
}

// OpenSQLite opens (or creates) the database at path and applies the schema.
func OpenSQLite(path string) (SQLite, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return SQLite{}, err
	}
	// one writer at a time, and a single connection keeps ":memory:"
	// databases in one piece
	db.SetMaxOpenConns(1)
	if path != ":memory:" {
		_, err = db.Exec("PRAGMA journal_mode=WAL")
		if err != nil {
			db.Close()
			return SQLite{}, err
		}
	}

	_, err = db.Exec(Schema)
	if err != nil {
		db.Close()
		return SQLite{}, err
	}
	return SQLite{db: db}, nil
}

func (s SQLite) Reset(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, "delete from record")
	return err
}

func (s SQLite) Write(ctx context.Context, records []extract.Record) error {
	ctx, span := tracer.Start(ctx, "SQLite.Write")
	defer span.End()
	span.SetAttributes(attribute.Int("records", len(records)))

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, "insert into record(unit_index, line_index, key, value) values (?, ?, ?, ?)")
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	defer stmt.Close()

	for _, r := range records {
		_, err = stmt.ExecContext(ctx, r.UnitIndex, r.LineIndex, r.Key, r.Value)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return err
		}
	}

	err = tx.Commit()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	return nil
}

// Records reads the table back in output order.
func (s SQLite) Records(ctx context.Context) ([]extract.Record, error) {
	rows, err := s.db.QueryContext(ctx, "select unit_index, line_index, key, value from record order by unit_index, line_index")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []extract.Record
	for rows.Next() {
		var r extract.Record
		err = rows.Scan(&r.UnitIndex, &r.LineIndex, &r.Key, &r.Value)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s SQLite) Close() error {
	return s.db.Close()
}
