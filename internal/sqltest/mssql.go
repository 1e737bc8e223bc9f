package sqltest

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/mssql"
	"github.com/testcontainers/testcontainers-go/wait"
)

// SQLServerDSN starts a throwaway sqlserver container and returns its
// connection string. SQL Server takes noticeably longer to come up than
// the other engines.
func SQLServerDSN(t *testing.T) string {
	t.Helper()
	container, err := mssql.Run(t.Context(),
		"mcr.microsoft.com/mssql/server:2019-latest",
		mssql.WithAcceptEULA(),
		mssql.WithPassword("MyStr0ng(!)Password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("SQL Server is now ready for client connections").WithStartupTimeout(60*time.Second),
			wait.ForLog("Common language runtime").WithStartupTimeout(60*time.Second),
		),
	)
	testcontainers.CleanupContainer(t, container)
	require.NoError(t, err)
	dsn, err := container.ConnectionString(t.Context())
	require.NoError(t, err)
	return dsn + "encrypt=false&trustservercertificate=true"
}
