package postgres

import (
	"os"
	"testing"

	"clubhub/internal/adapters/config"
)

var cfg *config.Config

// TestMain runs before all tests in this package
func TestMain(m *testing.M) {
	cfg, _ = config.Load()

	code := m.Run()

	os.Exit(code)
}
