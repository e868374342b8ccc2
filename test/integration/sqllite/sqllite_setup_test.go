package sqllite

import (
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/leadflowhq/leadflow/internal/config"
)

var portBase int32 = 9018 // starting port number (can be anything safe)

func nextPort() int {
	return int(atomic.AddInt32(&portBase, 1))
}

func SetupSqlLiteTestInstance(t *testing.T) {
	t.Helper()
	filename := filepath.Join(t.TempDir(), "leadflow-test.db")
	os.Setenv(config.DATABASE_TYPE, config.DATABASE_TYPE_SQLLITE)
	os.Setenv(config.DATABASE_SQLLITE_FILE_NAME, filename)
}
