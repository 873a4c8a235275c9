//go:build mage

// Package main contains Mage build targets for cutflow developer tooling.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

// Default is the target mage runs when invoked without arguments.
var Default = Build

const (
	binDir      = "bin"
	binName     = "cutflow"
	cmdPkg      = "./cmd/cutflow"
	scenarioDir = "internal/harness/testdata/scenarios"
)

// Build compiles the CLI binary into bin/.
func Build() error {
	if err := os.MkdirAll(binDir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", binDir, err)
	}
	out := filepath.Join(binDir, binName)
	if err := sh.RunV("go", "build", "-o", out, cmdPkg); err != nil {
		return fmt.Errorf("go build: %w", err)
	}
	fmt.Printf("Built %s\n", out)
	return nil
}

// Test runs the unit test suite for the whole module.
func Test() error {
	return sh.RunV("go", "test", "./...")
}

// Vet runs go vet across the module.
func Vet() error {
	return sh.RunV("go", "vet", "./...")
}

// Scenarios builds the CLI and runs the checked-in scenario corpus
// through it. The corpus is shared with the harness golden tests.
func Scenarios() error {
	mg.Deps(Build)
	return sh.RunV(filepath.Join(binDir, binName), "test", scenarioDir)
}

// Clean removes build artifacts and the default local database.
func Clean() error {
	if err := os.RemoveAll(binDir); err != nil {
		return err
	}
	if err := os.Remove("cutflow.db"); err != nil && !os.IsNotExist(err) {
		return err
	}
	fmt.Println("Cleaned.")
	return nil
}
