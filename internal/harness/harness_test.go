package harness

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScenarioGoldenTraces(t *testing.T) {
	paths, err := filepath.Glob(filepath.Join("testdata", "scenarios", "*.yaml"))
	require.NoError(t, err)
	require.NotEmpty(t, paths)

	for _, path := range paths {
		name := strings.TrimSuffix(filepath.Base(path), ".yaml")
		t.Run(name, func(t *testing.T) {
			sc, err := Load(path)
			require.NoError(t, err)

			res, err := Run(sc)
			require.NoError(t, err)
			require.NotEmpty(t, res.FinalHash)

			g := goldie.New(t)
			g.Assert(t, name, []byte(res.Trace))
		})
	}
}

func TestRunIsDeterministic(t *testing.T) {
	sc, err := Load(filepath.Join("testdata", "scenarios", "garden.yaml"))
	require.NoError(t, err)

	res1, err := Run(sc)
	require.NoError(t, err)
	res2, err := Run(sc)
	require.NoError(t, err)
	assert.Equal(t, res1.Trace, res2.Trace)
	assert.Equal(t, res1.FinalHash, res2.FinalHash)
}

func TestRunRejectsUnexpectedSuccess(t *testing.T) {
	sc, err := Load(filepath.Join("testdata", "scenarios", "cellar.yaml"))
	require.NoError(t, err)

	// Claiming the unlock fails turns the scenario into a lie.
	sc.Steps[1].Fail = "CONDITIONS_UNMET"
	_, err = Run(sc)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expected failure")
}

func TestRunRejectsWrongExpectation(t *testing.T) {
	sc, err := Load(filepath.Join("testdata", "scenarios", "cellar.yaml"))
	require.NoError(t, err)

	sc.Expect.Location = "stairs"
	_, err = Run(sc)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expected location")
}

func TestLoadRejectsMissingWorld(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("name: bad\nsteps: []\n"), 0o644))

	_, err := Load(path)
	require.Error(t, err)
}
