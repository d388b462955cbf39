// SPDX-License-Identifier: MIT

package manifest

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validManifest() *Manifest {
	return &Manifest{
		Package: Package{
			Name:      "js-utilities",
			Version:   "0.1.0",
			Authors:   []string{"Greyson LaLonde"},
			License:   "MIT",
			Requires:  ">=3.9",
			Platforms: []string{"windows", "linux", "macos"},
			Status:    StatusPreAlpha,
		},
		Build: Build{
			Backend:  "setuptools.build_meta",
			Requires: []string{"setuptools>=61.0"},
		},
		Extras: map[string][]string{
			"dev": {"black==24.8.0", "mypy==1.11.2"},
			"doc": {"sphinx==7.4.7"},
		},
		Tool: Tool{
			Format:     ToolFormat{LineLength: 79, Target: "py310"},
			Imports:    ToolImports{Profile: "black", LineLength: 79},
			Stylecheck: ToolStylecheck{MaxLineLength: 79, Ignore: []string{"E203"}},
			Typecheck:  ToolTypecheck{Target: "3.11", Strict: true},
		},
	}
}

func TestLoadFixture(t *testing.T) {
	m, err := Load(filepath.Join("testdata", "project.toml"))
	require.NoError(t, err)

	assert.Equal(t, "js-utilities", m.Package.Name)
	assert.Equal(t, "0.1.0", m.Package.Version)
	assert.Equal(t, StatusPreAlpha, m.Package.Status)
	assert.Equal(t, []string{"windows", "linux", "macos"}, m.Package.Platforms)
	assert.Equal(t, "setuptools.build_meta", m.Build.Backend)
	assert.Equal(t, 79, m.Tool.Format.LineLength)
	assert.True(t, m.Tool.Typecheck.Strict)

	dev, err := m.ExtrasGroup("dev")
	require.NoError(t, err)
	require.NotEmpty(t, dev)
	assert.Equal(t, []Requirement{
		{Name: "autoflake", Version: "2.3.1"},
		{Name: "isort", Version: "5.13.2"},
		{Name: "black", Version: "24.8.0"},
		{Name: "flake8", Version: "7.1.1"},
		{Name: "mypy", Version: "1.11.2"},
	}, dev)

	doc, err := m.ExtrasGroup("doc")
	require.NoError(t, err)
	require.NotEmpty(t, doc)
	assert.Equal(t, "sphinx", doc[0].Name)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join("testdata", "missing.toml"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoadInvalidTOML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "project.toml")
	require.NoError(t, os.WriteFile(path, []byte("[package\nname ="), 0o644))

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(m *Manifest)
		wantErr string
	}{
		{
			name:   "valid",
			mutate: func(m *Manifest) {},
		},
		{
			name:    "missing name",
			mutate:  func(m *Manifest) { m.Package.Name = "" },
			wantErr: "package.name",
		},
		{
			name:    "missing version",
			mutate:  func(m *Manifest) { m.Package.Version = "" },
			wantErr: "package.version",
		},
		{
			name:    "malformed version",
			mutate:  func(m *Manifest) { m.Package.Version = "release-one" },
			wantErr: "package.version",
		},
		{
			name:    "no authors",
			mutate:  func(m *Manifest) { m.Package.Authors = nil },
			wantErr: "package.authors",
		},
		{
			name:    "missing license",
			mutate:  func(m *Manifest) { m.Package.License = "" },
			wantErr: "package.license",
		},
		{
			name:    "unknown status",
			mutate:  func(m *Manifest) { m.Package.Status = "experimental" },
			wantErr: "package.status",
		},
		{
			name:    "unknown platform",
			mutate:  func(m *Manifest) { m.Package.Platforms = []string{"plan9"} },
			wantErr: "package.platforms",
		},
		{
			name:    "no platforms",
			mutate:  func(m *Manifest) { m.Package.Platforms = nil },
			wantErr: "package.platforms",
		},
		{
			name:    "floor below supported",
			mutate:  func(m *Manifest) { m.Package.Requires = ">=3.8" },
			wantErr: "below the supported floor",
		},
		{
			name:    "requires without bound",
			mutate:  func(m *Manifest) { m.Package.Requires = "3.9" },
			wantErr: "must be a >= bound",
		},
		{
			name:    "missing build backend",
			mutate:  func(m *Manifest) { m.Build.Backend = "" },
			wantErr: "build.backend",
		},
		{
			name:    "empty build requires",
			mutate:  func(m *Manifest) { m.Build.Requires = nil },
			wantErr: "build.requires",
		},
		{
			name:    "missing dev group",
			mutate:  func(m *Manifest) { delete(m.Extras, "dev") },
			wantErr: `missing mandatory group "dev"`,
		},
		{
			name:    "missing doc group",
			mutate:  func(m *Manifest) { delete(m.Extras, "doc") },
			wantErr: `missing mandatory group "doc"`,
		},
		{
			name:    "empty extras group",
			mutate:  func(m *Manifest) { m.Extras["doc"] = nil },
			wantErr: "must not be empty",
		},
		{
			name:    "range pin in extras",
			mutate:  func(m *Manifest) { m.Extras["dev"] = []string{"black>=24.0.0"} },
			wantErr: "exact pin",
		},
		{
			name:    "bare name in extras",
			mutate:  func(m *Manifest) { m.Extras["dev"] = []string{"black"} },
			wantErr: "exact pin",
		},
		{
			name:    "duplicate pin in extras",
			mutate:  func(m *Manifest) { m.Extras["dev"] = []string{"black==24.8.0", "black==24.4.2"} },
			wantErr: "duplicate requirement",
		},
		{
			name:    "format target below floor",
			mutate:  func(m *Manifest) { m.Tool.Format.Target = "py38" },
			wantErr: "tool.format.target",
		},
		{
			name:    "typecheck target below floor",
			mutate:  func(m *Manifest) { m.Tool.Typecheck.Target = "3.8" },
			wantErr: "tool.typecheck.target",
		},
		{
			name:    "malformed typecheck target",
			mutate:  func(m *Manifest) { m.Tool.Typecheck.Target = "pyXY" },
			wantErr: "tool.typecheck.target",
		},
		{
			name:    "stylecheck line length disagrees",
			mutate:  func(m *Manifest) { m.Tool.Stylecheck.MaxLineLength = 88 },
			wantErr: "disagrees",
		},
		{
			name:    "imports line length disagrees",
			mutate:  func(m *Manifest) { m.Tool.Imports.LineLength = 120 },
			wantErr: "disagrees",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := validManifest()
			tt.mutate(m)
			err := m.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestFindingsCollectsAllSections(t *testing.T) {
	m := validManifest()
	assert.Empty(t, m.Findings())

	m.Package.License = ""
	m.Build.Backend = ""
	delete(m.Extras, "doc")

	findings := m.Findings()
	require.Len(t, findings, 3)
	assert.Contains(t, findings[0], "package.license")
	assert.Contains(t, findings[1], "build.backend")
	assert.Contains(t, findings[2], `missing mandatory group "doc"`)
}

func TestExtrasGroupUnknown(t *testing.T) {
	m := validManifest()
	_, err := m.ExtrasGroup("test")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown group "test"`)
}

func TestExtrasGroupPreservesOrder(t *testing.T) {
	m := validManifest()
	m.Extras["dev"] = []string{"mypy==1.11.2", "black==24.8.0", "isort==5.13.2"}

	reqs, err := m.ExtrasGroup("dev")
	require.NoError(t, err)

	names := make([]string, 0, len(reqs))
	for _, r := range reqs {
		names = append(names, r.Name)
	}
	assert.Equal(t, []string{"mypy", "black", "isort"}, names)
}
