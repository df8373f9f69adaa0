package embedding

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/promptlabs/promptscope/internal/models"
)

func TestMatrixRoundTrip(t *testing.T) {
	dir := t.TempDir()
	m := [][]float64{
		{1.5, -2.25, 0},
		{0.125, 3, -4.5},
	}

	for _, name := range []string{"plain.psw", "packed.psw.gz"} {
		path := filepath.Join(dir, name)
		require.NoError(t, WriteMatrix(path, m))

		got, err := ReadMatrix(path)
		require.NoError(t, err, name)
		require.Equal(t, m, got, name)
	}
}

func TestReadMatrix_RejectsGarbage(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.psw")
	require.NoError(t, os.WriteFile(path, []byte("definitely not a matrix"), 0o644))

	_, err := ReadMatrix(path)
	require.Error(t, err)
}

func TestReadMatrix_RejectsTruncated(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "trunc.psw")
	require.NoError(t, WriteMatrix(path, [][]float64{{1, 2}, {3, 4}}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data[:len(data)-4], 0o644))

	_, err = ReadMatrix(path)
	require.Error(t, err)
}

func TestWriteMatrix_RejectsRagged(t *testing.T) {
	dir := t.TempDir()
	err := WriteMatrix(filepath.Join(dir, "ragged.psw"), [][]float64{{1, 2}, {3}})
	require.Error(t, err)
}

func TestCheckFinite(t *testing.T) {
	require.NoError(t, CheckFinite([][]float64{{1, 2}}))
	require.Error(t, CheckFinite([][]float64{{1, math.NaN()}}))
	require.Error(t, CheckFinite([][]float64{{math.Inf(1)}}))
}

func TestDirProvider_ConcatenatesInPoolOrder(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, WriteMatrix(filepath.Join(dir, "model_3.psw"), [][]float64{{1, 1}, {2, 2}}))
	require.NoError(t, WriteMatrix(filepath.Join(dir, "model_0.psw.gz"), [][]float64{{3, 3}}))

	space, err := NewDirProvider(dir).SpaceFor(models.Pool{3, 0})
	require.NoError(t, err)

	require.Equal(t, [][]float64{{1, 1}, {2, 2}, {3, 3}}, space.Vectors)
	require.Equal(t, []models.ModelID{3, 3, 0}, space.Labels)
}

func TestDirProvider_MissingModel(t *testing.T) {
	_, err := NewDirProvider(t.TempDir()).SpaceFor(models.Pool{5})
	require.Error(t, err)
}

func TestDirProvider_DimensionMismatch(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, WriteMatrix(filepath.Join(dir, "model_0.psw"), [][]float64{{1, 2}}))
	require.NoError(t, WriteMatrix(filepath.Join(dir, "model_1.psw"), [][]float64{{1, 2, 3}}))

	_, err := NewDirProvider(dir).SpaceFor(models.Pool{0, 1})
	require.Error(t, err)
}

func TestDirLoader(t *testing.T) {
	dir := t.TempDir()
	weights := [][]float64{{0.5, 0.5}, {1, 0}}
	require.NoError(t, WriteMatrix(filepath.Join(dir, "sp-demo.psw"), weights))

	got, err := NewDirLoader(dir).LoadWeights("sp-demo")
	require.NoError(t, err)
	require.Equal(t, weights, got)

	_, err = NewDirLoader(dir).LoadWeights("missing")
	require.Error(t, err)
}
