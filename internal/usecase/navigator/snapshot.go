package navigator

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"browser-guide/internal/application/port/output"
)

// snapshot stores what the user saw at a step, when SnapshotDir is set and the
// page can take screenshots. Failures are logged only.
func (c *Controller) snapshot(ctx context.Context, taskID string, step int) {
	if c.cfg.SnapshotDir == "" {
		return
	}
	shooter, ok := c.deps.Page.(output.SnapshotPort)
	if !ok {
		return
	}

	shot, err := shooter.Screenshot(ctx)
	if err != nil {
		c.deps.Logger.Warn("Screenshot failed", "step", step, "error", err)
		return
	}

	dir := filepath.Join(c.cfg.SnapshotDir, taskID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		c.deps.Logger.Warn("Cannot create snapshot directory", "dir", dir, "error", err)
		return
	}
	ext := shot.Format
	if ext == "" {
		ext = "png"
	}
	path := filepath.Join(dir, fmt.Sprintf("step-%03d.%s", step, ext))
	if err := os.WriteFile(path, shot.Data, 0o644); err != nil {
		c.deps.Logger.Warn("Cannot write snapshot", "path", path, "error", err)
		return
	}
	c.deps.Logger.Debug("Snapshot saved", "path", path, "width", shot.Width, "height", shot.Height)
}
