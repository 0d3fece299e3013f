package migrate

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestCreateAtRefusesExistingVersion(t *testing.T) {
	dir := t.TempDir()
	at := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	path, err := createAt(dir, "seed stores", at)
	require.NoError(t, err)
	require.Contains(t, path, "20260301090000_seed_stores.sql")

	_, err = createAt(dir, "seed stores", at)
	require.Error(t, err)

	_, err = createAt(dir, "!!!", at)
	require.Error(t, err)
}
