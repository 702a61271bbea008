package testutil

import (
	_ "embed"
	"os"
	"path/filepath"
	"testing"
)

//go:embed testdata/warehouse.ldm
var sampleModel []byte

// SampleModelName is the file name WriteSampleModel writes.
const SampleModelName = "warehouse.ldm"

// SampleModel returns the sample document: the Warehouse model with the
// entities Customer and Order, one relationship and the external model
// "Sales Source" contributing the shortcut entity Region.
func SampleModel() []byte {
	return append([]byte(nil), sampleModel...)
}

// WriteSampleModel writes the sample document into dir and returns its path.
func WriteSampleModel(t testing.TB, dir string) string {
	t.Helper()
	path := filepath.Join(dir, SampleModelName)
	if err := os.WriteFile(path, sampleModel, 0o600); err != nil {
		t.Fatalf("failed to write sample model: %v", err)
	}
	return path
}
