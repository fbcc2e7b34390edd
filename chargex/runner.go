package chargex

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

// GLOBAL only accepts file names of up to five characters, so the run files
// are always called tmp.*.
const (
	inputName  = "tmp.ginput"
	outputName = "tmp.globout"
)

// answers are fed to GLOBAL's interactive prompts: load ./tmp, keep the
// parameters, write ./tmp, no new input file, do not repeat.
var answers = strings.Join([]string{"./tmp", "0", "./tmp", "n", "n", ""}, "\n")

// Runner invokes the GLOBAL executable.
type Runner struct {
	Executable string        // name or path; looked up in PATH
	WorkDir    string        // where input and output copies are kept
	Timeout    time.Duration // per run; 0 disables
	Logger     *slog.Logger
}

func (r *Runner) logger() *slog.Logger {
	if r.Logger != nil {
		return r.Logger
	}
	return slog.Default()
}

// Run writes the input record, runs GLOBAL in its own directory (it loads
// data files relative to it), collects the output and parses it.
func (r *Runner) Run(ctx context.Context, in Input) (Result, error) {
	exe := r.Executable
	if exe == "" {
		exe = "global"
	}
	path, err := exec.LookPath(exe)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrExecutableNotFound, err)
	}
	exeDir := filepath.Dir(path)

	workDir := r.WorkDir
	if workDir == "" {
		workDir = "tmp"
	}
	if err := os.MkdirAll(workDir, 0755); err != nil {
		return Result{}, fmt.Errorf("creating work directory: %w", err)
	}

	record := []byte(FormatInput(in))
	if err := os.WriteFile(filepath.Join(workDir, inputName), record, 0644); err != nil {
		return Result{}, fmt.Errorf("writing GLOBAL input: %w", err)
	}
	exeInput := filepath.Join(exeDir, inputName)
	if err := os.WriteFile(exeInput, record, 0644); err != nil {
		return Result{}, fmt.Errorf("staging GLOBAL input: %w", err)
	}
	defer os.Remove(exeInput)

	if r.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}

	start := time.Now()
	cmd := exec.CommandContext(ctx, path)
	cmd.Dir = exeDir
	cmd.Stdin = strings.NewReader(answers)
	cmd.Stdout = io.Discard
	if err := cmd.Run(); err != nil {
		return Result{}, fmt.Errorf("running GLOBAL: %w", err)
	}

	outPath := filepath.Join(workDir, outputName)
	if err := move(filepath.Join(exeDir, outputName), outPath); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Result{}, fmt.Errorf("%w: %v", ErrOutputMissing, err)
		}
		return Result{}, fmt.Errorf("collecting GLOBAL output: %w", err)
	}

	f, err := os.Open(outPath)
	if err != nil {
		return Result{}, fmt.Errorf("opening GLOBAL output: %w", err)
	}
	defer f.Close()

	res, err := ParseOutput(f, in)
	if err != nil {
		r.logger().Warn("GLOBAL output rejected", "error", err, "projectile_z", in.ProjectileZ, "target_z", in.TargetZ)
		return Result{}, err
	}
	r.logger().Debug("GLOBAL run",
		"projectile_z", in.ProjectileZ,
		"charge", in.ProjectileQ,
		"energy_in", in.EnergyPerNucleon,
		"energy_out", res.EnergyOut,
		"elapsed", time.Since(start),
	)
	return res, nil
}

// move renames src to dst, copying when the two are on different devices.
func move(src, dst string) error {
	if err := os.Rename(src, dst); err == nil {
		return nil
	} else if errors.Is(err, fs.ErrNotExist) {
		return err
	}
	data, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	if err := os.WriteFile(dst, data, 0644); err != nil {
		return err
	}
	return os.Remove(src)
}
