package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/provide-io/ec3000/go/ec3000/pkg"
	ecerrors "github.com/provide-io/ec3000/go/ec3000/pkg/errors"
)

func run(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	t.Setenv(pkg.EnvWhitelist, "")

	var stdout, stderr bytes.Buffer
	cmd := newRootCmd(strings.NewReader(stdin), &stdout, &stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func TestCheckCommand(t *testing.T) {
	out, _, err := run(t, "", "check", "7821", "51D2")
	require.NoError(t, err)
	assert.Equal(t, "7821\tallowed\t3D printer\n51D2\tallowed\ttotal\n", out)

	out, _, err = run(t, "", "check", "7821", "531c")
	assert.True(t, errors.Is(err, errDenied))
	assert.Equal(t, "7821\tallowed\t3D printer\n531c\tdenied\n", out)

	_, _, err = run(t, "", "check")
	assert.Error(t, err)
}

func TestFilterCommand(t *testing.T) {
	out, _, err := run(t, "7821 10\nBEEF 20\n7E65 30\n", "filter")
	require.NoError(t, err)
	assert.Equal(t, "7821 10\n7E65 30\n", out)
}

func TestFilterCommandFilesAndField(t *testing.T) {
	dir := t.TempDir()
	wlPath := filepath.Join(dir, "whitelist.txt")
	inPath := filepath.Join(dir, "readings.txt")
	outPath := filepath.Join(dir, "admitted.txt")
	require.NoError(t, os.WriteFile(wlPath, []byte("DEAD\nBEEF\n"), 0o600))
	require.NoError(t, os.WriteFile(inPath, []byte("t1 DEAD 1\nt2 7821 2\nt3 BEEF 3\n"), 0o600))

	out, _, err := run(t, "", "filter", "--whitelist", wlPath, "--field", "1", "--output", outPath, inPath)
	require.NoError(t, err)
	assert.Empty(t, out)

	data, err := os.ReadFile(outPath)
	require.NoError(t, err)
	assert.Equal(t, "t1 DEAD 1\nt3 BEEF 3\n", string(data))
}

func TestListCommand(t *testing.T) {
	out, _, err := run(t, "", "list")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 7)
	assert.Equal(t, "7821\t3D printer", lines[0])
	assert.True(t, strings.HasPrefix(lines[6], "Entries: 6 | Fingerprint: "))
}

func TestStrictWhitelistRejected(t *testing.T) {
	wlPath := filepath.Join(t.TempDir(), "whitelist.txt")
	require.NoError(t, os.WriteFile(wlPath, []byte("7821\n531c\n"), 0o600))

	_, stderr, err := run(t, "", "list", "--strict", "--whitelist", wlPath, "--log-level", "error")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ecerrors.ErrInvalidIdentifier))
	assert.Contains(t, err.Error(), "line 2")
	assert.NotContains(t, stderr, "531c", "load errors are reported once, by main")
}

func TestFilterCommandRejectsNegativeField(t *testing.T) {
	out, _, err := run(t, "7821 1\n", "filter", "--field", "-1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--field")
	assert.Empty(t, out)
}

func TestVersionFlag(t *testing.T) {
	out, _, err := run(t, "", "--version")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "ec3000-filter "+version+"\n"))
}
