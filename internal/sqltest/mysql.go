package sqltest

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/mysql"
)

// MySQLDSN starts a throwaway mysql container and returns a root DSN
// with parseTime enabled.
func MySQLDSN(t *testing.T) string {
	t.Helper()
	container, err := mysql.Run(context.Background(),
		"mysql:9.5",
		testcontainers.WithEnv(map[string]string{"MYSQL_ROOT_PASSWORD": "test"}),
	)
	testcontainers.CleanupContainer(t, container)
	require.NoError(t, err)
	dsn, err := container.ConnectionString(t.Context())
	require.NoError(t, err)
	// Connect as root; the module's ConnectionString uses the test user.
	dsn = strings.Replace(dsn, "test", "root", 1)
	return dsn + "?parseTime=true"
}
