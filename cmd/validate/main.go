// SPDX-License-Identifier: MIT

// validate checks a project's manifest and component definitions and
// prints every finding instead of stopping at the first.
//
// Usage:
//
//	validate -manifest project.toml -components components.yaml
//
// Exit codes:
//   - 0: both files are valid
//   - 1: findings were reported
//   - 2: usage error
package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/greysonlalonde/js-utilities/internal/component"
	"github.com/greysonlalonde/js-utilities/internal/config"
	"github.com/greysonlalonde/js-utilities/internal/manifest"
)

var version = "0.1.0"

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("validate", flag.ContinueOnError)
	fs.SetOutput(stderr)
	manifestPath := fs.String("manifest", config.DefaultManifest, "path to the project manifest")
	defsPath := fs.String("components", config.DefaultDefinitions, "path to the component definitions")
	showVersion := fs.Bool("version", false, "print version and exit")

	if err := fs.Parse(args); err != nil {
		return 2
	}
	if *showVersion {
		fmt.Fprintln(stdout, version)
		return 0
	}

	total := validateManifest(*manifestPath, stdout, stderr)
	total += validateDefinitions(*defsPath, stdout, stderr)

	if total > 0 {
		fmt.Fprintf(stderr, "%d finding(s)\n", total)
		return 1
	}
	return 0
}

func validateManifest(path string, stdout, stderr io.Writer) int {
	data, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(stderr, "%s: %v\n", path, err)
		return 1
	}
	m, err := manifest.Parse(data)
	if err != nil {
		fmt.Fprintf(stderr, "%s: %v\n", path, err)
		return 1
	}

	findings := m.Findings()
	for _, f := range findings {
		fmt.Fprintf(stderr, "%s: %s\n", path, f)
	}
	if len(findings) == 0 {
		fmt.Fprintf(stdout, "✓ %s is valid\n", path)
	}
	return len(findings)
}

func validateDefinitions(path string, stdout, stderr io.Writer) int {
	data, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(stderr, "%s: %v\n", path, err)
		return 1
	}
	var defs component.Definitions
	if err := yaml.Unmarshal(data, &defs); err != nil {
		fmt.Fprintf(stderr, "%s: parse: %v\n", path, err)
		return 1
	}

	findings := defs.Findings()
	for _, f := range findings {
		fmt.Fprintf(stderr, "%s: %s\n", path, f)
	}
	if len(findings) == 0 {
		fmt.Fprintf(stdout, "✓ %s is valid\n", path)
	}
	return len(findings)
}
