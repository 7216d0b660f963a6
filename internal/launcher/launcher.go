// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package launcher implements Streamlit detection and app execution.
// Implements: prd007-launcher (R1-R2);
//
//	docs/ARCHITECTURE § Launcher.
package launcher

import (
	"fmt"
	"io"
	"os/exec"
	"strconv"
	"strings"

	"github.com/BexTuychiev/strimlitbook/pkg/types"
)

const (
	binStreamlit = "streamlit"
	binPython3   = "python3"
	binPython    = "python"
)

// Runner starts a Streamlit process for a generated app.
type Runner interface {
	// Name returns the invocation used ("streamlit" or "python3 -m streamlit").
	Name() string

	// Launch runs `streamlit run app` until the process exits, wiring its
	// output through stdout and stderr. Port and headless mode come from cfg.
	Launch(app string, cfg types.LauncherConfig, stdout, stderr io.Writer) error
}

// executor abstracts command execution for testing.
type executor interface {
	LookPath(file string) (string, error)
	RunSilent(name string, args ...string) error
	RunStreamed(name string, args []string, stdout, stderr io.Writer) error
}

// osExecutor is the production executor backed by os/exec.
type osExecutor struct{}

func (o *osExecutor) LookPath(file string) (string, error) {
	return exec.LookPath(file)
}

func (o *osExecutor) RunSilent(name string, args ...string) error {
	return exec.Command(name, args...).Run()
}

func (o *osExecutor) RunStreamed(name string, args []string, stdout, stderr io.Writer) error {
	cmd := exec.Command(name, args...)
	cmd.Stdout = stdout
	cmd.Stderr = stderr
	return cmd.Run()
}

// runner implements Runner for a specific invocation. The bare binary and
// the module fallbacks share the same logic; they differ only in the
// leading argv.
type runner struct {
	argv []string // ["streamlit"] or ["python3", "-m", "streamlit"]
	exec executor
}

func (r *runner) Name() string { return strings.Join(r.argv, " ") }

// available reports whether the invocation exists on PATH and answers a
// version command.
func (r *runner) available() bool {
	if _, err := r.exec.LookPath(r.argv[0]); err != nil {
		return false
	}
	args := make([]string, 0, len(r.argv))
	args = append(args, r.argv[1:]...)
	args = append(args, "version")
	return r.exec.RunSilent(r.argv[0], args...) == nil
}

func (r *runner) Launch(app string, cfg types.LauncherConfig, stdout, stderr io.Writer) error {
	args := make([]string, 0, len(r.argv)+5)
	args = append(args, r.argv[1:]...)
	args = append(args, "run", app)
	if cfg.Port > 0 {
		args = append(args, "--server.port", strconv.Itoa(cfg.Port))
	}
	if cfg.Headless {
		args = append(args, "--server.headless", "true")
	}

	if err := r.exec.RunStreamed(r.argv[0], args, stdout, stderr); err != nil {
		return fmt.Errorf("running streamlit for %s: %w", app, err)
	}
	return nil
}

var defaultExec = &osExecutor{}

// Detect finds a working Streamlit invocation: the bare binary first, then
// python3 -m streamlit, then python -m streamlit. Returns an error when
// none responds.
func Detect() (Runner, error) {
	return detect(defaultExec)
}

func detect(exec executor) (Runner, error) {
	candidates := [][]string{
		{binStreamlit},
		{binPython3, "-m", binStreamlit},
		{binPython, "-m", binStreamlit},
	}

	for _, argv := range candidates {
		r := &runner{argv: argv, exec: exec}
		if r.available() {
			return r, nil
		}
	}

	return nil, fmt.Errorf(
		"streamlit not found: install it with `pip install streamlit` and make sure %s or %s is on PATH",
		binStreamlit, binPython3,
	)
}
