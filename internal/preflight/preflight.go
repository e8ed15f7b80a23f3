package preflight

import (
	"context"

	"mediatree/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name     string `json:"name"`
	Passed   bool   `json:"passed"`
	Optional bool   `json:"optional,omitempty"`
	Detail   string `json:"detail"`
}

// RunAll executes every applicable check for cfg.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	var results []Result
	for _, dir := range cfg.Paths.SharedFolders {
		results = append(results, CheckDirectoryAccess("Shared folder", dir, false))
	}
	results = append(results,
		CheckDirectoryAccess("Cache directory", cfg.Paths.CacheDir, true),
		CheckDirectoryAccess("Lists directory", cfg.Paths.ListsDir, true),
	)
	if cfg.Optical.MountPoint != "" {
		r := CheckDirectoryAccess("Optical mount", cfg.Optical.MountPoint, false)
		r.Optional = true
		results = append(results, r)
	}
	for _, status := range CheckSystemDeps(ctx, cfg) {
		r := Result{Name: status.Name, Passed: status.Available, Optional: status.Optional, Detail: status.Detail}
		if r.Passed {
			r.Detail = status.Path
		}
		results = append(results, r)
	}
	return results
}

// Failed returns the required checks that did not pass.
func Failed(results []Result) []Result {
	var out []Result
	for _, r := range results {
		if !r.Passed && !r.Optional {
			out = append(out, r)
		}
	}
	return out
}
