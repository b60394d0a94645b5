package testutils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/aretw0/loam"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/formwork/internal/dto"
)

// SetupDefinitionRepo writes files into a temporary directory and initializes a Loam
// repository of template definitions in it. It returns the absolute path to the temp
// dir and the typed repository. It fails the test immediately on error.
func SetupDefinitionRepo(t *testing.T, files map[string]string, opts ...loam.Option) (string, *loam.TypedRepository[dto.TemplateDefinition]) {
	t.Helper()

	absPath, err := filepath.Abs(t.TempDir())
	require.NoError(t, err, "Failed to get absolute path for temp dir")

	repo, err := loam.Init(absPath, append([]loam.Option{loam.WithVersioning(false)}, opts...)...)
	require.NoError(t, err, "Failed to init loam repo")

	for filename, content := range files {
		path := filepath.Join(absPath, filename)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	return absPath, loam.NewTypedRepository[dto.TemplateDefinition](repo)
}
