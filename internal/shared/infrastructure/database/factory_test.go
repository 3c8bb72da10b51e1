package database

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConnection_UsesRegisteredOpener(t *testing.T) {
	var got Config
	Register("memtest", func(ctx context.Context, cfg Config) (Connection, error) {
		got = cfg
		return nil, nil
	})
	t.Cleanup(func() {
		openersMu.Lock()
		delete(openers, "memtest")
		openersMu.Unlock()
	})

	_, err := NewConnection(context.Background(), Config{Driver: "MemTest", MaxConns: 4})

	require.NoError(t, err)
	assert.Equal(t, Driver("memtest"), got.Driver)
	assert.Equal(t, 4, got.MaxConns)
}

func TestNewConnection_UnregisteredDriver(t *testing.T) {
	_, err := NewConnection(context.Background(), Config{Driver: "mysql"})

	require.Error(t, err)
	assert.Contains(t, err.Error(), `"mysql" is not registered`)
}

func TestDefaultSQLitePath(t *testing.T) {
	assert.True(t, strings.HasSuffix(DefaultSQLitePath(), ".trimly/trimly.db"))
}
