package harness

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestScenarios(t *testing.T) {
	files, err := filepath.Glob("testdata/*.yaml")
	require.NoError(t, err)
	require.NotEmpty(t, files, "no scenario files found")

	for _, file := range files {
		sc, err := LoadScenario(file)
		require.NoError(t, err, "loading %s", file)
		t.Run(sc.Name, func(t *testing.T) {
			Run(t, sc)
		})
	}
}

func TestLoadScenario_Validation(t *testing.T) {
	_, err := LoadScenario("testdata/no-such-scenario.yaml")
	require.Error(t, err)
}
