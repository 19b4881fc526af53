package exchange

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// ScriptSource runs an external command that writes a JSON dataset.
// The output path is appended as the command's last argument.
type ScriptSource struct {
	command    string
	args       []string
	env        []string
	dir        string
	outputPath string
	logger     *slog.Logger
}

// NewScriptSource creates a ScriptSource. env entries use KEY=VALUE form.
func NewScriptSource(command string, args []string, outputPath string, env []string, logger *slog.Logger) *ScriptSource {
	if logger == nil {
		logger = slog.Default()
	}
	return &ScriptSource{
		command:    command,
		args:       args,
		env:        env,
		outputPath: outputPath,
		logger:     logger,
	}
}

// InDir sets the working directory of the command.
func (s *ScriptSource) InDir(dir string) *ScriptSource {
	s.dir = dir
	return s
}

// Name implements Source.
func (s *ScriptSource) Name() string { return "script" }

// Fetch implements Source.
func (s *ScriptSource) Fetch(ctx context.Context) (*Dataset, error) {
	if s.command == "" {
		return nil, fmt.Errorf("%w: no script configured", ErrUnavailable)
	}
	if _, err := exec.LookPath(s.command); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	args := append(append([]string{}, s.args...), s.outputPath)
	cmd := exec.CommandContext(ctx, s.command, args...)
	cmd.Env = append(os.Environ(), s.env...)
	cmd.Dir = s.dir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	s.logger.Info("running exchange script", "command", s.command, "args", args)
	runErr := cmd.Run()

	sc := bufio.NewScanner(&stdout)
	for sc.Scan() {
		s.logger.Info("script output", "line", sc.Text())
	}

	if runErr != nil {
		return nil, fmt.Errorf("run %s: %w: %s", s.command, runErr, strings.TrimSpace(stderr.String()))
	}

	ds, err := LoadDataset(s.outputPath)
	if err != nil {
		return nil, err
	}
	if ds.Source == "" {
		ds.Source = "cotahist-" + filepath.Base(s.command)
	}
	return ds, nil
}
