//go:build mage

// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

// Package main provides build targets for the timeline project using Mage.
//
// Usage:
//
//	mage build       Compile the timeline binary to bin/
//	mage test:all    Run all tests
//	mage test:unit   Run tests with the race detector, short mode
//	mage test:cover  Write a coverage profile to bin/
//	mage lint        Run golangci-lint
//	mage clean       Remove build artifacts
//	mage install     Install timeline to GOPATH/bin
//	mage stats       Print Go LOC and documentation word counts
package main

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

const (
	binGo      = "go"
	binaryName = "timeline"
	binaryDir  = "bin"
	cmdDir     = "./cmd/timeline"
	versionVar = "github.com/mesh-intelligence/timeline/internal/cli.Version"
)

// ldflags stamps the version from TIMELINE_VERSION, or the latest git tag
// when it is unset.
func ldflags() string {
	version := os.Getenv("TIMELINE_VERSION")
	if version == "" {
		if tag, err := sh.Output("git", "describe", "--tags", "--abbrev=0"); err == nil {
			version = strings.TrimPrefix(tag, "v")
		}
	}
	if version == "" {
		return ""
	}
	return "-X " + versionVar + "=" + version
}

// Build compiles the timeline binary to bin/.
func Build() error {
	if err := os.MkdirAll(binaryDir, 0o755); err != nil {
		return err
	}
	args := []string{"build", "-v", "-o", filepath.Join(binaryDir, binaryName)}
	if flags := ldflags(); flags != "" {
		args = append(args, "-ldflags", flags)
	}
	return sh.RunV(binGo, append(args, cmdDir)...)
}

// Clean removes build artifacts.
func Clean() error {
	if err := os.RemoveAll(binaryDir); err != nil {
		return err
	}
	return sh.RunV(binGo, "clean")
}

// Install builds and copies the binary to GOPATH/bin.
func Install() error {
	mg.Deps(Build)
	gopath, err := sh.Output(binGo, "env", "GOPATH")
	if err != nil {
		return err
	}
	src := filepath.Join(binaryDir, binaryName)
	dst := filepath.Join(gopath, "bin", binaryName)
	return sh.Copy(dst, src)
}
