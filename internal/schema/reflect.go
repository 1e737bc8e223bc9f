package schema

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/askdb/askdb/internal/logging"
)

var log = logging.New("schema")

// ErrReflect indicates the connection could not enumerate tables or columns.
// Sample-row and row-count probes failing is not a reflection error.
var ErrReflect = errors.New("schema reflection failed")

// Reflector produces a fresh Description from some source of truth.
type Reflector interface {
	Reflect(ctx context.Context) (*Description, error)
}

// DBReflector reflects through a live GORM connection. Tables and columns
// come from the dialect-agnostic migrator; foreign keys, sample rows and
// row counts use per-dialect SQL.
type DBReflector struct {
	DB           *gorm.DB
	SampleLimit  int           // rows of sample data per table
	ValueLimit   int           // max characters kept per sample value
	ProbeTimeout time.Duration // per-table budget for sample and count probes
}

const (
	defaultSampleLimit  = 3
	defaultValueLimit   = 80
	defaultProbeTimeout = 5 * time.Second
)

func (r *DBReflector) sampleLimit() int {
	if r.SampleLimit > 0 {
		return r.SampleLimit
	}
	return defaultSampleLimit
}

func (r *DBReflector) valueLimit() int {
	if r.ValueLimit > 0 {
		return r.ValueLimit
	}
	return defaultValueLimit
}

func (r *DBReflector) probeTimeout() time.Duration {
	if r.ProbeTimeout > 0 {
		return r.ProbeTimeout
	}
	return defaultProbeTimeout
}

// Reflect enumerates all tables and builds a complete snapshot. Failure to
// list tables or columns aborts the pass; failed sample or count probes
// only degrade that table's context.
func (r *DBReflector) Reflect(ctx context.Context) (*Description, error) {
	dialect := r.DB.Dialector.Name()

	names, err := r.DB.WithContext(ctx).Migrator().GetTables()
	if err != nil {
		return nil, fmt.Errorf("%w: list tables: %v", ErrReflect, err)
	}

	tables := make([]*Table, len(names))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for i, name := range names {
		g.Go(func() error {
			t, err := r.reflectTable(gctx, dialect, name)
			if err != nil {
				return err
			}
			tables[i] = t
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	desc := &Description{
		Dialect:     dialect,
		Tables:      make(map[string]*Table, len(names)),
		RefreshedAt: time.Now(),
	}
	for i, name := range names {
		desc.Tables[name] = tables[i]
	}
	return desc, nil
}

func (r *DBReflector) reflectTable(ctx context.Context, dialect, name string) (*Table, error) {
	db := r.DB.WithContext(ctx)

	columnTypes, err := db.Migrator().ColumnTypes(name)
	if err != nil {
		return nil, fmt.Errorf("%w: columns of %s: %v", ErrReflect, name, err)
	}

	t := &Table{Columns: make([]Column, 0, len(columnTypes))}
	for _, ct := range columnTypes {
		nullable, _ := ct.Nullable()
		pk, _ := ct.PrimaryKey()
		t.Columns = append(t.Columns, Column{
			Name:         ct.Name(),
			DeclaredType: ct.DatabaseTypeName(),
			PrimaryKey:   pk,
			Nullable:     nullable,
		})
	}

	if fkSQL, ok := foreignKeyQueries[dialect]; ok {
		if err := db.Raw(fkSQL, name).Scan(&t.ForeignKeys).Error; err != nil {
			return nil, fmt.Errorf("%w: foreign keys of %s: %v", ErrReflect, name, err)
		}
	}

	probeCtx, cancel := context.WithTimeout(ctx, r.probeTimeout())
	defer cancel()
	t.SampleRows = r.sampleTable(probeCtx, dialect, name)
	t.ApproxRows = r.countTable(probeCtx, dialect, name)

	return t, nil
}

// sampleTable fetches up to SampleLimit representative rows. Any failure
// (permission, empty table, unscannable type) leaves the samples empty.
func (r *DBReflector) sampleTable(ctx context.Context, dialect, name string) []map[string]string {
	rows, err := r.DB.WithContext(ctx).Raw(sampleQuery(dialect, name, r.sampleLimit())).Rows()
	if err != nil {
		log.Printf("sample fetch skipped for %s: %v", name, err)
		return nil
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil
	}

	var samples []map[string]string
	for rows.Next() && len(samples) < r.sampleLimit() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			log.Printf("sample scan skipped for %s: %v", name, err)
			return nil
		}
		row := make(map[string]string, len(cols))
		for i, col := range cols {
			row[col] = stringifyValue(values[i], r.valueLimit())
		}
		samples = append(samples, row)
	}
	return samples
}

// countTable runs a best-effort COUNT(*). A failed or timed-out probe is
// reported as RowCountUnknown, never as zero.
func (r *DBReflector) countTable(ctx context.Context, dialect, name string) int64 {
	var count int64
	q := "SELECT COUNT(*) FROM " + quoteIdent(dialect, name)
	if err := r.DB.WithContext(ctx).Raw(q).Scan(&count).Error; err != nil {
		log.Printf("row count unknown for %s: %v", name, err)
		return RowCountUnknown
	}
	return count
}

// stringifyValue renders a scanned value as canonical UTF-8 text, bounded
// to limit runes.
func stringifyValue(v any, limit int) string {
	var s string
	switch value := v.(type) {
	case nil:
		return "NULL"
	case []byte:
		if utf8.Valid(value) {
			s = string(value)
		} else {
			s = fmt.Sprintf("%q", value)
		}
	case time.Time:
		s = value.Format(time.RFC3339)
	case string:
		s = value
	default:
		s = fmt.Sprintf("%v", value)
	}
	if utf8.RuneCountInString(s) > limit {
		runes := []rune(s)
		s = string(runes[:limit]) + "..."
	}
	return s
}

// foreignKeyQueries return (local_column, referenced_table, referenced_column)
// rows for a single table, keyed by GORM dialect name.
var foreignKeyQueries = map[string]string{
	"postgres": `
		SELECT kcu.column_name  AS local_column,
		       ccu.table_name   AS referenced_table,
		       ccu.column_name  AS referenced_column
		FROM information_schema.table_constraints tc
		JOIN information_schema.key_column_usage kcu
		  ON tc.constraint_name = kcu.constraint_name AND tc.table_schema = kcu.table_schema
		JOIN information_schema.constraint_column_usage ccu
		  ON ccu.constraint_name = tc.constraint_name AND ccu.table_schema = tc.table_schema
		WHERE tc.constraint_type = 'FOREIGN KEY' AND tc.table_name = ?`,
	"mysql": `
		SELECT column_name            AS local_column,
		       referenced_table_name  AS referenced_table,
		       referenced_column_name AS referenced_column
		FROM information_schema.key_column_usage
		WHERE table_schema = DATABASE() AND table_name = ? AND referenced_table_name IS NOT NULL`,
	"sqlite": `
		SELECT "from" AS local_column,
		       "table" AS referenced_table,
		       "to"   AS referenced_column
		FROM pragma_foreign_key_list(?)`,
	"sqlserver": `
		SELECT cp.name AS local_column,
		       tr.name AS referenced_table,
		       cr.name AS referenced_column
		FROM sys.foreign_key_columns fkc
		JOIN sys.tables tp ON fkc.parent_object_id = tp.object_id
		JOIN sys.columns cp ON fkc.parent_object_id = cp.object_id AND fkc.parent_column_id = cp.column_id
		JOIN sys.tables tr ON fkc.referenced_object_id = tr.object_id
		JOIN sys.columns cr ON fkc.referenced_object_id = cr.object_id AND fkc.referenced_column_id = cr.column_id
		WHERE tp.name = ?`,
}

func quoteIdent(dialect, name string) string {
	switch dialect {
	case "mysql":
		return "`" + strings.ReplaceAll(name, "`", "``") + "`"
	case "sqlserver":
		return "[" + strings.ReplaceAll(name, "]", "]]") + "]"
	default:
		return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
	}
}

func sampleQuery(dialect, name string, limit int) string {
	if dialect == "sqlserver" {
		return fmt.Sprintf("SELECT TOP %d * FROM %s", limit, quoteIdent(dialect, name))
	}
	return fmt.Sprintf("SELECT * FROM %s LIMIT %d", quoteIdent(dialect, name), limit)
}
