//go:build mage

// Package main holds the mage targets for prefstore.
//
//	mage build        compile bin/prefstore
//	mage install      copy the binary to GOPATH/bin
//	mage test:all     run every test
//	mage test:race    run every test with the race detector
//	mage test:cover   write coverage.out and print the total
//	mage lint         run golangci-lint
//	mage stats        print Go line counts per package as JSON
//	mage clean        remove build artifacts
package main

import (
	"os"
	"path/filepath"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

const (
	binGo      = "go"
	binaryName = "prefstore"
	binaryDir  = "bin"
	cmdDir     = "./cmd/prefstore"
	modulePath = "github.com/mesh-intelligence/prefstore"
)

// ldflags stamps the version from PREFSTORE_VERSION when it is set.
func ldflags() string {
	v := os.Getenv("PREFSTORE_VERSION")
	if v == "" {
		return ""
	}
	return "-X " + modulePath + "/internal/cli.Version=" + v
}

// Build compiles the prefstore binary to bin/.
func Build() error {
	if err := os.MkdirAll(binaryDir, 0o755); err != nil {
		return err
	}
	return sh.RunV(binGo, "build", "-v", "-ldflags", ldflags(),
		"-o", filepath.Join(binaryDir, binaryName), cmdDir)
}

// Install builds and copies the binary to GOPATH/bin.
func Install() error {
	mg.Deps(Build)
	gopath, err := sh.Output(binGo, "env", "GOPATH")
	if err != nil {
		return err
	}
	return sh.Copy(filepath.Join(gopath, "bin", binaryName), filepath.Join(binaryDir, binaryName))
}

// Clean removes build artifacts.
func Clean() error {
	for _, p := range []string{binaryDir, "coverage.out"} {
		if err := os.RemoveAll(p); err != nil {
			return err
		}
	}
	return sh.RunV(binGo, "clean")
}
