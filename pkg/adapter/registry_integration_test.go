package adapter_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/ldmgen/pkg/adapter"

	_ "github.com/leapstack-labs/ldmgen/pkg/adapters/duckdb"
	_ "github.com/leapstack-labs/ldmgen/pkg/adapters/postgres"
)

func TestSelfRegistration(t *testing.T) {
	tests := []struct {
		name     string
		expected bool
	}{
		{"duckdb", true},
		{"postgres", true},
		{"unknown_db", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, adapter.IsRegistered(tt.name))
		})
	}
}

func TestNewAdapter_Registered(t *testing.T) {
	for _, name := range []string{"duckdb", "postgres"} {
		t.Run(name, func(t *testing.T) {
			adp, err := adapter.NewAdapter(adapter.Config{Type: name}, nil)
			require.NoError(t, err)
			assert.Equal(t, name, adp.DialectName())
		})
	}
}
