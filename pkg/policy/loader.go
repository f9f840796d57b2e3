package policy

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Loader reads operator-supplied .rego admission policies from disk.
type Loader struct {
	logger zerolog.Logger
}

// NewLoader creates a new policy loader.
func NewLoader(logger zerolog.Logger) *Loader {
	return &Loader{
		logger: logger.With().Str("component", "policy-loader").Logger(),
	}
}

// LoadFromDir loads every .rego file under dir, recursively. The file stem
// becomes the policy name; loaded policies are enabled with error severity
// unless the Rego itself reports a different per-violation severity.
func (l *Loader) LoadFromDir(_ context.Context, dir string) ([]Policy, error) {
	var policies []Policy

	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(path, ".rego") {
			return nil
		}

		code, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read policy %s: %w", path, err)
		}

		name := strings.TrimSuffix(filepath.Base(path), ".rego")
		policies = append(policies, Policy{
			Name:        name,
			Description: fmt.Sprintf("Operator policy loaded from %s", path),
			Rego:        string(code),
			Severity:    SeverityError,
			Enabled:     true,
			Tags:        []string{"operator"},
			CreatedAt:   time.Now(),
			UpdatedAt:   time.Now(),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	l.logger.Info().
		Int("count", len(policies)).
		Str("dir", dir).
		Msg("Operator policies loaded")

	return policies, nil
}
