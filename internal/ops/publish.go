package ops

import (
	"os"
	"path/filepath"

	"github.com/lattice-kb/lattice/internal/errors"
	"github.com/lattice-kb/lattice/internal/publish"
)

// PublishSiteInput contains parameters for the PublishSite operation.
type PublishSiteInput struct {
	// Dir overrides the configured output directory when set.
	Dir string `json:"dir,omitempty"`
}

// PublishSiteOutput contains the result of the PublishSite operation.
type PublishSiteOutput struct {
	Dir   string   `json:"dir"`
	Files []string `json:"files"`
	Total int      `json:"total"`
}

// PublishSite renders every public node into a static site and writes the
// artifacts to disk. Nodes left private never reach the output, not even as
// link targets.
func PublishSite(env *Env, input PublishSiteInput) (*PublishSiteOutput, error) {
	dir := input.Dir
	if dir == "" {
		dir = env.Cfg.PublishDir
	}

	listed, err := ListNodes(env, ListNodesInput{PublicOnly: true})
	if err != nil {
		return nil, err
	}

	// Re-fetch with relations so pages can link their public neighbors.
	nodes := listed.Items
	for i, n := range nodes {
		expanded, err := env.Store.FindByID(n.ID, true)
		if err != nil {
			return nil, err
		}
		nodes[i] = expanded
	}

	artifacts, err := publish.Build(nodes)
	if err != nil {
		return nil, err
	}

	files := make([]string, 0, len(artifacts))
	for _, a := range artifacts {
		path := filepath.Join(dir, filepath.FromSlash(a.Path))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, errors.NewInternal(err)
		}
		if err := os.WriteFile(path, []byte(a.Content), 0o644); err != nil {
			return nil, errors.NewInternal(err)
		}
		files = append(files, path)
	}

	return &PublishSiteOutput{Dir: dir, Files: files, Total: len(files)}, nil
}
