//go:build mage

package main

import (
	"os"
	"os/exec"
	"path/filepath"

	"github.com/magefile/mage/mg"
)

// runCLI builds the binary if needed and runs one CLI stage against the
// project directories.
func runCLI(args ...string) error {
	mg.Deps(Build)

	cmd := exec.Command(filepath.Join(binDir, binName), args...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}

// Convert generates Streamlit apps for every notebook under notebooks/.
func Convert() error {
	return runCLI("convert")
}

// Validate checks every notebook under notebooks/ against the nbformat schema.
func Validate() error {
	return runCLI("validate")
}

// Index rebuilds the gallery index from the notebooks directory.
func Index() error {
	return runCLI("gallery", "index")
}
