package renderer

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
	"time"

	"ElectionWatcher/internal/ports"
)

// CommandRenderer delegates image composition to an external program.
// The program receives the artifact path and the district label as its last
// two arguments and prints the produced image path on the last stdout line.
type CommandRenderer struct {
	command string
	args    []string
	timeout time.Duration
	logger  *slog.Logger
}

var _ ports.Renderer = (*CommandRenderer)(nil)

// NewCommandRenderer resolves the program on PATH so misconfiguration fails at startup.
func NewCommandRenderer(command string, args []string, timeout time.Duration, logger *slog.Logger) (*CommandRenderer, error) {
	path, err := exec.LookPath(command)
	if err != nil {
		return nil, fmt.Errorf("renderer command %s: %w", command, err)
	}
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	return &CommandRenderer{command: path, args: args, timeout: timeout, logger: logger}, nil
}

// Render runs the program and returns the image path it reports.
func (c *CommandRenderer) Render(ctx context.Context, req ports.RenderRequest) (string, error) {
	if req.ArtifactPath == "" {
		return "", fmt.Errorf("render %s: artifact path is empty", req.District)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	args := append(append([]string{}, c.args...), req.ArtifactPath, req.District)
	cmd := exec.CommandContext(ctx, c.command, args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if c.logger != nil {
		c.logger.Debug("render image", "district", req.District, "artifact", req.ArtifactPath)
	}

	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("render %s: %w: %s", req.District, err, strings.TrimSpace(stderr.String()))
	}

	image := lastLine(stdout.String())
	if image == "" {
		return "", fmt.Errorf("render %s: renderer printed no image path", req.District)
	}
	return image, nil
}

func lastLine(out string) string {
	lines := strings.Split(strings.TrimSpace(out), "\n")
	return strings.TrimSpace(lines[len(lines)-1])
}
