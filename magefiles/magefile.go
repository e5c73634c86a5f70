//go:build mage

package main

import (
	"fmt"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

const binary = "hptrace"

var Default = Build.Binary

type Build mg.Namespace

// Builds the hptrace binary.
func (Build) Binary() error {
	mg.Deps(Check.Vet)
	fmt.Println("Building", binary)
	return sh.RunV("go", "build", "-o", binary, ".")
}

// Removes build artifacts.
func (Build) Clean() error {
	return sh.Rm(binary)
}

type Check mg.Namespace

// Runs go vet on all packages.
func (Check) Vet() error {
	return sh.RunV("go", "vet", "./...")
}

// Runs the test suite with the race detector enabled.
func (Check) Test() error {
	args := []string{"test", "-race", "./..."}
	if mg.Verbose() {
		args = append(args, "-v")
	}
	return sh.RunV("go", args...)
}

// Runs the scene compile and probe commands against a scene with index
// verification enabled.
func (Check) Scene(sceneFile string) error {
	mg.Deps(Build.Binary)
	if err := sh.RunV("./"+binary, "compile", "--verify", sceneFile); err != nil {
		return err
	}
	return sh.RunV("./"+binary, "probe", "--verify", sceneFile)
}
