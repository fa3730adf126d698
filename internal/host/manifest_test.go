package host

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadManifest(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "hello.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
command: [python3]
executable: bin/hello.py
timeoutSeconds: 10
database: /data/kudubot.db
`), 0o644))

	m, err := LoadManifest(path)
	require.NoError(t, err)
	assert.Equal(t, "hello", m.Name)
	assert.Equal(t, []string{"python3"}, m.Command)
	assert.Equal(t, filepath.Join(dir, "bin/hello.py"), m.Executable)
	assert.Equal(t, 10, m.TimeoutSeconds)

	argv := m.Argv("handle_message", "m.json", "m-response.json")
	assert.Equal(t, []string{"python3", filepath.Join(dir, "bin/hello.py"), "handle_message", "m.json", "m-response.json", "/data/kudubot.db"}, argv)
}

func TestLoadManifest_ExecutableOnPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "svc.yaml")
	require.NoError(t, os.WriteFile(path, []byte("name: svc\nexecutable: kudubot-responder\n"), 0o644))

	m, err := LoadManifest(path)
	require.NoError(t, err)
	assert.Equal(t, "kudubot-responder", m.Executable)
	assert.Equal(t, []string{"kudubot-responder", "is_applicable_to", "a", "b"}, m.Argv("is_applicable_to", "a", "b"))
}

func TestLoadManifest_Invalid(t *testing.T) {
	dir := t.TempDir()

	missing := filepath.Join(dir, "missing.yaml")
	require.NoError(t, os.WriteFile(missing, []byte("name: x\n"), 0o644))
	_, err := LoadManifest(missing)
	assert.ErrorContains(t, err, "executable is required")

	badName := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(badName, []byte("name: ../up\nexecutable: x\ntimeoutSeconds: -1\n"), 0o644))
	_, err = LoadManifest(badName)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "plain directory name")
	assert.Contains(t, err.Error(), "timeoutSeconds")

	_, err = LoadManifest(filepath.Join(dir, "absent.yaml"))
	assert.Error(t, err)
}

func TestLoadManifest_RelativeManifestPath(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "services"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "services", "svc.sh"),
		[]byte("#!/bin/sh\necho '{\"is_applicable\":true}' > \"$3\"\n"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "services", "svc.yaml"),
		[]byte("executable: ./svc.sh\n"), 0o644))
	t.Chdir(dir)

	m, err := LoadManifest(filepath.Join("services", "svc.yaml"))
	require.NoError(t, err)
	assert.True(t, filepath.IsAbs(m.Executable))
	assert.Equal(t, filepath.Join(dir, "services", "svc.sh"), m.Executable)

	inv := NewInvoker(*m, InvokerConfig{WorkDir: t.TempDir()}, testLogger())
	ok, err := inv.IsApplicable(context.Background(), inbound("x"))
	require.NoError(t, err)
	assert.True(t, ok)
}
