package manifest

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	slogcontext "github.com/veqryn/slog-context"

	"github.com/nathantilsley/state-dispatcher/internal/dispatch/domain"
)

// Filesystem implements ports.ManifestPort over a local checkout. The ref
// is ignored: whatever is checked out under root is read.
type Filesystem struct {
	root string
}

// NewFilesystem creates a manifest adapter rooted at root.
func NewFilesystem(root string) *Filesystem {
	return &Filesystem{root: root}
}

// GetDeployments reads and decodes root/path.
func (f *Filesystem) GetDeployments(ctx context.Context, path, ref string) ([]domain.Deployment, error) {
	full := filepath.Join(f.root, path)
	slogcontext.FromCtx(ctx).Debug("reading local manifest", "path", full, "ref", ref)

	data, err := os.ReadFile(full)
	if err != nil {
		return nil, fmt.Errorf("%s from ref %s: %w", fetchErrPrefix, ref, err)
	}

	deployments, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", full, err)
	}
	return deployments, nil
}
