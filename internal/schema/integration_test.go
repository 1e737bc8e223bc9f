//go:build integration

package schema

import (
	"os"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/driver/sqlserver"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/askdb/askdb/internal/sqltest"
)

func openSeeded(t *testing.T, dialector gorm.Dialector) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(dialector, &gorm.Config{Logger: gormlogger.Discard})
	require.NoError(t, err)
	sqltest.Seed(t, db)
	return db
}

// assertStoreSchema checks the reflected snapshot of the seeded store
// schema, independent of dialect.
func assertStoreSchema(t *testing.T, desc *Description) {
	t.Helper()
	require.Contains(t, desc.Tables, "customers")
	require.Contains(t, desc.Tables, "orders")

	customers := desc.Tables["customers"]
	require.True(t, customers.HasColumn("id"))
	require.True(t, customers.HasColumn("email"))
	require.True(t, customers.HasColumn("country"))
	require.EqualValues(t, 3, customers.ApproxRows)
	require.NotEmpty(t, customers.SampleRows)

	var pkSeen bool
	for _, c := range customers.Columns {
		require.NotEmpty(t, c.DeclaredType, "column %s has no declared type", c.Name)
		if c.Name == "id" && c.PrimaryKey {
			pkSeen = true
		}
	}
	require.True(t, pkSeen, "primary key not detected on customers.id")

	orders := desc.Tables["orders"]
	require.EqualValues(t, 4, orders.ApproxRows)
	require.Equal(t, []ForeignKey{
		{LocalColumn: "customer_id", ReferencedTable: "customers", ReferencedColumn: "id"},
	}, orders.ForeignKeys)
}

func sqliteFile(t *testing.T) string {
	t.Helper()
	f, err := os.CreateTemp(t.TempDir(), "*.db")
	require.NoError(t, err)
	defer f.Close()
	return f.Name()
}

func TestReflectSqlite(t *testing.T) {
	t.Parallel()
	db := openSeeded(t, sqlite.Open(sqliteFile(t)))

	desc, err := (&DBReflector{DB: db}).Reflect(t.Context())
	require.NoError(t, err)
	require.Equal(t, "sqlite", desc.Dialect)
	assertStoreSchema(t, desc)
}

func TestReflectPostgres(t *testing.T) {
	t.Parallel()
	db := openSeeded(t, postgres.Open(sqltest.PostgresDSN(t)))

	desc, err := (&DBReflector{DB: db}).Reflect(t.Context())
	require.NoError(t, err)
	require.Equal(t, "postgres", desc.Dialect)
	assertStoreSchema(t, desc)
}

func TestReflectMySQL(t *testing.T) {
	t.Parallel()
	db := openSeeded(t, mysql.Open(sqltest.MySQLDSN(t)))

	desc, err := (&DBReflector{DB: db}).Reflect(t.Context())
	require.NoError(t, err)
	require.Equal(t, "mysql", desc.Dialect)
	assertStoreSchema(t, desc)
}

func TestReflectSQLServer(t *testing.T) {
	t.Parallel()
	db := openSeeded(t, sqlserver.Open(sqltest.SQLServerDSN(t)))

	desc, err := (&DBReflector{DB: db}).Reflect(t.Context())
	require.NoError(t, err)
	require.Equal(t, "sqlserver", desc.Dialect)
	assertStoreSchema(t, desc)
}

func TestCacheRefreshSqlite(t *testing.T) {
	t.Parallel()
	db := openSeeded(t, sqlite.Open(sqliteFile(t)))
	cache := NewCache(&DBReflector{DB: db}, 0)

	first, err := cache.Snapshot(t.Context())
	require.NoError(t, err)
	require.Len(t, first.Tables, 2)

	// New table only shows up after an explicit refresh.
	require.NoError(t, db.Exec("CREATE TABLE notes (id INTEGER PRIMARY KEY, body TEXT)").Error)

	same, err := cache.Snapshot(t.Context())
	require.NoError(t, err)
	require.Len(t, same.Tables, 2)

	fresh, err := cache.Refresh(t.Context())
	require.NoError(t, err)
	require.Len(t, fresh.Tables, 3)
	require.Contains(t, fresh.Tables, "notes")
}
