package embedding

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/promptlabs/promptscope/internal/models"
)

// Space is the concatenation of each pool model's embedding matrix. Labels
// runs parallel to Vectors and names the model that contributed each row.
// Built once per run and read-only afterwards.
type Space struct {
	Vectors [][]float64
	Labels  []models.ModelID
}

// Provider supplies the pooled embedding space for a set of models.
type Provider interface {
	SpaceFor(pool models.Pool) (*Space, error)
}

// Loader loads the trained soft-prompt weight matrix by name.
type Loader interface {
	LoadWeights(softPromptName string) ([][]float64, error)
}

// DirProvider reads per-model embedding matrices from a directory, one PSW
// file per model named model_<id>.psw or model_<id>.psw.gz.
type DirProvider struct {
	dir string
}

func NewDirProvider(dir string) *DirProvider {
	return &DirProvider{dir: dir}
}

// SpaceFor concatenates the pool models' matrices in pool order.
func (p *DirProvider) SpaceFor(pool models.Pool) (*Space, error) {
	if len(pool) == 0 {
		return nil, fmt.Errorf("embedding: empty model pool")
	}

	space := &Space{}
	dim := -1
	for _, m := range pool {
		path, err := resolve(p.dir, fmt.Sprintf("model_%s.psw", m))
		if err != nil {
			return nil, fmt.Errorf("embedding: model %s: %w", m, err)
		}
		matrix, err := ReadMatrix(path)
		if err != nil {
			return nil, err
		}
		if err := CheckFinite(matrix); err != nil {
			return nil, fmt.Errorf("embedding: model %s: %w", m, err)
		}
		if dim == -1 {
			dim = len(matrix[0])
		} else if len(matrix[0]) != dim {
			return nil, fmt.Errorf("embedding: model %s has dimension %d, pool uses %d", m, len(matrix[0]), dim)
		}
		for range matrix {
			space.Labels = append(space.Labels, m)
		}
		space.Vectors = append(space.Vectors, matrix...)
	}
	return space, nil
}

// DirLoader reads soft-prompt weights from a directory, <name>.psw or
// <name>.psw.gz.
type DirLoader struct {
	dir string
}

func NewDirLoader(dir string) *DirLoader {
	return &DirLoader{dir: dir}
}

func (l *DirLoader) LoadWeights(softPromptName string) ([][]float64, error) {
	path, err := resolve(l.dir, softPromptName+".psw")
	if err != nil {
		return nil, fmt.Errorf("embedding: soft prompt %q: %w", softPromptName, err)
	}
	matrix, err := ReadMatrix(path)
	if err != nil {
		return nil, err
	}
	if err := CheckFinite(matrix); err != nil {
		return nil, fmt.Errorf("embedding: soft prompt %q: %w", softPromptName, err)
	}
	return matrix, nil
}

// resolve picks the uncompressed file when present, otherwise the .gz
// variant.
func resolve(dir, base string) (string, error) {
	plain := filepath.Join(dir, base)
	if _, err := os.Stat(plain); err == nil {
		return plain, nil
	}
	compressed := plain + gzipSuffix
	if _, err := os.Stat(compressed); err == nil {
		return compressed, nil
	}
	return "", fmt.Errorf("no %s or %s", plain, compressed)
}
