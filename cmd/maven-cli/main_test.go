package main

import (
	"bytes"
	"context"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/foundry/mavenrepo/internal/adapters/auth"
	"github.com/foundry/mavenrepo/internal/adapters/objectstore"
	"github.com/foundry/mavenrepo/internal/api/handlers"
	"github.com/foundry/mavenrepo/internal/core/repository"
	"github.com/foundry/mavenrepo/internal/maven"
)

func startServer(t *testing.T) string {
	t.Helper()
	store, err := objectstore.NewBoltStore(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	catalogs := repository.Catalogs{}
	for _, repo := range maven.Repositories {
		catalogs[repo] = repository.NewCatalog(objectstore.Scoped(store, repo.Prefix()))
	}
	logger := zerolog.Nop()
	h := handlers.New(catalogs,
		repository.NewPublisher(store, logger),
		repository.NewPurger(store, logger, nil),
		auth.NewBasicAuth("u", "p"), logger, handlers.Options{})

	srv := httptest.NewServer(h.Router())
	t.Cleanup(srv.Close)
	return srv.URL
}

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := newRootCmd(&stdout, &stderr)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), err
}

func TestCLIRoundTrip(t *testing.T) {
	server := startServer(t)
	dir := t.TempDir()
	jar := filepath.Join(dir, "lib-1.0.jar")
	require.NoError(t, os.WriteFile(jar, []byte("jar bytes"), 0o644))

	out, err := runCLI(t, "--server", server, "--user", "u", "--password", "p",
		"push", "releases/com/example/lib/1.0/lib-1.0.jar", jar)
	require.NoError(t, err)
	require.Contains(t, out, "Pushed releases/com/example/lib/1.0/lib-1.0.jar")

	_, err = runCLI(t, "--server", server, "--user", "u", "--password", "p",
		"push", "releases/com/example/lib/1.0/lib-1.0.jar", jar)
	require.ErrorContains(t, err, "409")

	out, err = runCLI(t, "--server", server, "--user", "u", "--password", "p",
		"publish-release", "com.example", "lib", "1.1", jar)
	require.NoError(t, err)
	require.Contains(t, out, `"fileName": "lib-1.1.jar"`)

	out, err = runCLI(t, "--server", server, "groups")
	require.NoError(t, err)
	require.Contains(t, out, `"com"`)

	out, err = runCLI(t, "--server", server, "latest", "com.example", "lib")
	require.NoError(t, err)
	require.Equal(t, "1.1\n", out)

	out, err = runCLI(t, "--server", server, "files", "com.example", "lib", "1.0")
	require.NoError(t, err)
	require.Contains(t, out, "lib-1.0.jar")

	pulled := filepath.Join(dir, "out", "pulled.jar")
	_, err = runCLI(t, "--server", server, "pull", "releases/com/example/lib/1.1/lib-1.1.jar", "-o", pulled)
	require.NoError(t, err)
	data, err := os.ReadFile(pulled)
	require.NoError(t, err)
	require.Equal(t, "jar bytes", string(data))

	out, err = runCLI(t, "--server", server, "--user", "u", "--password", "p",
		"publish-snapshot", "com.example", "lib", "2.0-SNAPSHOT", jar)
	require.NoError(t, err)
	require.Contains(t, out, `"buildNumber": 1`)

	out, err = runCLI(t, "--server", server, "--repo", "snapshots", "versions", "com.example", "lib")
	require.NoError(t, err)
	require.Contains(t, out, "2.0-SNAPSHOT")

	out, err = runCLI(t, "--server", server, "--user", "u", "--password", "p", "purge", "com.example.lib")
	require.NoError(t, err)
	require.Contains(t, out, "releases/com/example/lib/1.0/lib-1.0.jar")

	_, err = runCLI(t, "--server", server, "versions", "com.example", "lib")
	require.ErrorContains(t, err, "404")
}

func TestCLIErrors(t *testing.T) {
	server := startServer(t)

	_, err := runCLI(t, "--server", server, "artifacts")
	require.Error(t, err)

	_, err = runCLI(t, "--server", server, "--user", "u", "--password", "wrong", "purge", "com.example")
	require.ErrorContains(t, err, "401")

	_, err = runCLI(t, "--server", server, "push", "releases/g/a/1.0/a-1.0.jar", "missing.jar")
	require.ErrorContains(t, err, "--user")
}

func TestFormatBytes(t *testing.T) {
	require.Equal(t, "512 B", formatBytes(512))
	require.Equal(t, "1.5 KiB", formatBytes(1536))
	require.True(t, strings.HasSuffix(formatBytes(5<<20), "MiB"))
}
