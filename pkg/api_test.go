package pkg

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ecerrors "github.com/provide-io/ec3000/go/ec3000/pkg/errors"
	"github.com/provide-io/ec3000/go/ec3000/pkg/whitelist"
)

func TestLoadWhitelistDefault(t *testing.T) {
	t.Setenv(EnvWhitelist, "")

	wl, err := LoadWhitelist("", true, nil)
	require.NoError(t, err)
	assert.Equal(t, whitelist.Default().Fingerprint(), wl.Fingerprint())
}

func TestLoadWhitelistSources(t *testing.T) {
	dir := t.TempDir()
	envPath := filepath.Join(dir, "env.txt")
	flagPath := filepath.Join(dir, "flag.json")
	require.NoError(t, os.WriteFile(envPath, []byte("DEAD\nBEEF\n"), 0o600))
	require.NoError(t, os.WriteFile(flagPath, []byte(`["7821"]`), 0o600))

	t.Setenv(EnvWhitelist, envPath)

	wl, err := LoadWhitelist("", true, nil)
	require.NoError(t, err)
	assert.True(t, wl.Contains("DEAD"))
	assert.Equal(t, 2, wl.Size())

	wl, err = LoadWhitelist(flagPath, true, nil)
	require.NoError(t, err)
	assert.True(t, wl.Contains("7821"))
	assert.False(t, wl.Contains("DEAD"))
}

func TestLoadWhitelistStrictFailure(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.txt")
	require.NoError(t, os.WriteFile(path, []byte("dead\n"), 0o600))

	_, err := LoadWhitelist(path, true, nil)
	assert.True(t, errors.Is(err, ecerrors.ErrInvalidIdentifier))

	wl, err := LoadWhitelist(path, false, nil)
	require.NoError(t, err)
	assert.True(t, wl.Contains("dead"))
}

func TestCheckIdentifiers(t *testing.T) {
	results := CheckIdentifiers(whitelist.Default(), []string{"7821", "7821 ", "531c"})

	assert.Equal(t, []CheckResult{
		{ID: "7821", Allowed: true, Label: "3D printer"},
		{ID: "7821 ", Allowed: false},
		{ID: "531c", Allowed: false},
	}, results)
}
