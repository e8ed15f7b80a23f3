package preflight

import (
	"context"
	"fmt"
	"os"

	"golang.org/x/sys/unix"

	"mediatree/internal/config"
	"mediatree/internal/deps"
)

// CheckDirectoryAccess verifies that the directory exists and is readable,
// and writable when writable is set.
func CheckDirectoryAccess(name, path string, writable bool) Result {
	if path == "" {
		return Result{Name: name, Detail: "not configured"}
	}
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	mode := uint32(unix.R_OK | unix.X_OK)
	label := "read ok"
	if writable {
		mode |= unix.W_OK
		label = "read/write ok"
	}
	if err := unix.Access(path, mode); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (%s)", path, label)}
}

// CheckSystemDeps evaluates the external binaries for cfg. Both the daemon
// and the CLI check command use this list.
func CheckSystemDeps(_ context.Context, cfg *config.Config) []deps.Status {
	requirements := []deps.Requirement{
		{
			Name:        "FFprobe",
			Command:     cfg.FFprobeBinary(),
			Description: "Required for media inspection",
		},
		{
			Name:        "FFmpeg",
			Command:     "ffmpeg",
			Description: "Used by the transcode engines",
			Optional:    true,
		},
	}
	if cfg.Optical.Device != "" {
		requirements = append(requirements, deps.Requirement{
			Name:        "lsblk",
			Command:     "lsblk",
			Description: "Reports the label of the mounted disc",
			Optional:    true,
		})
	}
	return deps.CheckBinaries(requirements)
}
