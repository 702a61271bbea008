package postgres

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/ldmgen/pkg/adapter"
)

func TestBuildPostgresDSN(t *testing.T) {
	tests := []struct {
		name     string
		config   adapter.Config
		expected string
	}{
		{
			name: "basic connection",
			config: adapter.Config{
				Host:     "localhost",
				Port:     5432,
				Database: "testdb",
				Username: "user",
				Password: "pass",
			},
			expected: "host=localhost port=5432 dbname=testdb sslmode=disable user=user password=pass",
		},
		{
			name: "with custom sslmode",
			config: adapter.Config{
				Host:     "prod.example.com",
				Port:     5432,
				Database: "proddb",
				Username: "admin",
				Options:  map[string]string{"sslmode": "require"},
			},
			expected: "host=prod.example.com port=5432 dbname=proddb sslmode=require user=admin",
		},
		{
			name: "defaults",
			config: adapter.Config{
				Database: "mydb",
			},
			expected: "host=localhost port=5432 dbname=mydb sslmode=disable",
		},
		{
			name: "schema sets search path",
			config: adapter.Config{
				Host:     "db.example.com",
				Port:     5433,
				Database: "analytics",
				Schema:   "wh",
			},
			expected: "host=db.example.com port=5433 dbname=analytics sslmode=disable search_path=wh",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, buildPostgresDSN(tt.config))
		})
	}
}

func TestAdapter_DialectName(t *testing.T) {
	assert.Equal(t, "postgres", New(nil).DialectName())
}

func TestAdapter_ExecAndTables(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	adp := New(nil)
	adp.DB = db

	mock.ExpectExec("CREATE SCHEMA IF NOT EXISTS wh").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT table_name FROM information_schema.tables").
		WithArgs("wh").
		WillReturnRows(sqlmock.NewRows([]string{"table_name"}).AddRow("customer"))
	mock.ExpectClose()

	ctx := context.Background()
	require.NoError(t, adp.Exec(ctx, "CREATE SCHEMA IF NOT EXISTS wh;"))

	tables, err := adp.Tables(ctx, "wh")
	require.NoError(t, err)
	assert.Equal(t, []string{"customer"}, tables)

	require.NoError(t, adp.Close())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAdapter_ConnectUnreachable(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	adp := New(nil)
	err := adp.Connect(ctx, adapter.Config{Host: "127.0.0.1", Port: 1, Database: "none"})
	require.Error(t, err)
	assert.False(t, adp.IsConnected())
}
