package store

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"strings"

	"github.com/promptlabs/promptscope/internal/models"
)

// Key derives the storage key for one evaluation setup. The readable part
// names the sorted pool, the neighbor count and the data split; the hash
// suffix covers everything else that changes the result (soft prompt name,
// prompt length, embedding size), so two setups never share a key.
//
// The key is independent of pool ordering: the same pool given in a different
// order must hit the same report.
func Key(setup models.Setup, pool models.Pool) (string, error) {
	sorted := pool.Sorted()

	parts := make([]string, len(sorted))
	for i, m := range sorted {
		parts[i] = m.String()
	}

	name := fmt.Sprintf("%s_evaluation_with_k_%d", strings.Join(parts, "_"), setup.K)
	if setup.UseTestSet {
		name += "_test"
	}

	h := sha256.New()
	for _, s := range []string{setup.SoftPromptName, name} {
		if err := writeDelimited(h, s); err != nil {
			return "", err
		}
	}
	for _, n := range []int{setup.PromptLength, setup.EmbeddingSize} {
		if err := writeDelimited(h, fmt.Sprintf("%d", n)); err != nil {
			return "", err
		}
	}

	return fmt.Sprintf("%s_%s", name, hex.EncodeToString(h.Sum(nil))[:12]), nil
}

func writeDelimited(w io.Writer, s string) error {
	// Null byte delimiter prevents hash collisions between adjacent fields.
	_, err := w.Write([]byte(s + "\x00"))
	return err
}
