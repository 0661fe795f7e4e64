package config

import (
	"testing"

	"github.com/ZacxDev/eagerstart/fs/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFiles(files map[string]string) *mock.MockFileSystem {
	fs := mock.NewMockFileSystem()
	for name, content := range files {
		fs.WriteFile(name, []byte(content), 0644)
	}
	return fs
}

func TestParseDescriptor(t *testing.T) {
	fs := writeFiles(map[string]string{
		"deploy/orders.star": `
singletons = {
    "Ledger": {"depends_on": ["Clock", "Audit"], "start": "echo ledger up", "stop": "echo ledger down"},
    "Clock": {},
    "Audit": {"depends_on": ("Clock",), "eager": False},
}
`,
	})

	singletons, err := ParseDescriptor(fs, "deploy/orders.star")
	require.NoError(t, err)
	require.Len(t, singletons, 3)

	assert.Equal(t, "Ledger", singletons[0].Name)
	assert.Equal(t, "orders", singletons[0].Module)
	assert.Equal(t, "deploy/orders.star", singletons[0].Source)
	assert.Equal(t, []string{"Clock", "Audit"}, singletons[0].DependsOn)
	assert.Equal(t, "echo ledger up", singletons[0].Start)
	assert.Equal(t, "echo ledger down", singletons[0].Stop)
	assert.True(t, singletons[0].Eager)
	assert.Equal(t, "orders#Ledger", singletons[0].QualifiedName())

	assert.Equal(t, "Clock", singletons[1].Name)
	assert.Empty(t, singletons[1].DependsOn)

	assert.Equal(t, "Audit", singletons[2].Name)
	assert.Equal(t, []string{"Clock"}, singletons[2].DependsOn)
	assert.False(t, singletons[2].Eager)
}

func TestParseDescriptor_Load(t *testing.T) {
	fs := writeFiles(map[string]string{
		"deploy/helpers.star": `
def singleton(deps = [], start = ""):
    return {"depends_on": deps, "start": start}
`,
		"deploy/app.star": `
load("helpers.star", "singleton")

singletons = {
    "Web": singleton(["Db"], "run web"),
    "Db": singleton(),
}
`,
	})

	singletons, err := ParseDescriptor(fs, "deploy/app.star")
	require.NoError(t, err)
	require.Len(t, singletons, 2)
	assert.Equal(t, []string{"Db"}, singletons[0].DependsOn)
	assert.Equal(t, "run web", singletons[0].Start)
	assert.Equal(t, "Db", singletons[1].Name)
}

func TestParseDescriptor_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{
			name:    "missing global",
			content: `other = {}`,
			wantErr: "global 'singletons' object not found",
		},
		{
			name:    "global is not a dict",
			content: `singletons = ["A"]`,
			wantErr: "is not a dictionary",
		},
		{
			name:    "entry is not a dict",
			content: `singletons = {"A": "B"}`,
			wantErr: `singleton "A": expected dict, got string`,
		},
		{
			name:    "depends_on is a string",
			content: `singletons = {"A": {"depends_on": "B"}}`,
			wantErr: "expected list for key depends_on, got string",
		},
		{
			name:    "depends_on holds non strings",
			content: `singletons = {"A": {"depends_on": [1]}}`,
			wantErr: "expected string in list for key depends_on, got int",
		},
		{
			name:    "eager is not a bool",
			content: `singletons = {"A": {"eager": "yes"}}`,
			wantErr: "expected bool for key eager, got string",
		},
		{
			name:    "qualified component name",
			content: `singletons = {"mod#A": {}}`,
			wantErr: `must not contain "#"`,
		},
		{
			name:    "syntax error",
			content: `singletons = {`,
			wantErr: "failed to execute Starlark descriptor",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs := writeFiles(map[string]string{"app.star": tt.content})

			_, err := ParseDescriptor(fs, "app.star")
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestParseDescriptor_MissingFile(t *testing.T) {
	_, err := ParseDescriptor(mock.NewMockFileSystem(), "nope.star")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read descriptor nope.star")
}

func TestLoadDescriptors(t *testing.T) {
	fs := writeFiles(map[string]string{
		"modules/web.star": `
singletons = {
    "Frontend": {"depends_on": ["core#Cache", "Session"]},
    "Session": {"depends_on": ["Cache"]},
}
`,
		"modules/core.star": `
singletons = {
    "Cache": {},
}
`,
	})

	singletons, err := LoadDescriptors(fs, []string{"modules/**/*.star", "modules/core.star"})
	require.NoError(t, err)
	require.Len(t, singletons, 3)

	assert.Equal(t, "Cache", singletons[0].Name)
	assert.Equal(t, "core", singletons[0].Module)
	assert.Equal(t, "Frontend", singletons[1].Name)
	assert.Equal(t, []string{"Cache", "Session"}, singletons[1].DependsOn)
	assert.Equal(t, "Session", singletons[2].Name)
}

func TestLoadDescriptors_Errors(t *testing.T) {
	tests := []struct {
		name     string
		files    map[string]string
		patterns []string
		wantErr  string
	}{
		{
			name:     "no match",
			files:    map[string]string{"a.star": `singletons = {}`},
			patterns: []string{"missing/*.star"},
			wantErr:  "descriptor missing/*.star: no descriptors matched",
		},
		{
			name: "duplicate component",
			files: map[string]string{
				"a.star": `singletons = {"X": {}}`,
				"b.star": `singletons = {"X": {}}`,
			},
			patterns: []string{"*.star"},
			wantErr:  `singleton "X": already declared in a.star`,
		},
		{
			name: "duplicate module",
			files: map[string]string{
				"one/a.star": `singletons = {"X": {}}`,
				"two/a.star": `singletons = {"Y": {}}`,
			},
			patterns: []string{"**/*.star"},
			wantErr:  `module "a" is declared by more than one descriptor`,
		},
		{
			name: "unknown module",
			files: map[string]string{
				"a.star": `singletons = {"X": {"depends_on": ["nope#Y"]}}`,
			},
			patterns: []string{"a.star"},
			wantErr:  `invalid depends_on "nope#Y": unknown module "nope"`,
		},
		{
			name: "module does not declare component",
			files: map[string]string{
				"a.star": `singletons = {"X": {"depends_on": ["b#Z"]}}`,
				"b.star": `singletons = {"Y": {}}`,
			},
			patterns: []string{"*.star"},
			wantErr:  `module "b" does not declare "Z"`,
		},
		{
			name: "self dependency",
			files: map[string]string{
				"a.star": `singletons = {"X": {"depends_on": ["a#X"]}}`,
			},
			patterns: []string{"a.star"},
			wantErr:  "component depends on itself",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs := writeFiles(tt.files)

			_, err := LoadDescriptors(fs, tt.patterns)
			require.Error(t, err)

			var descErr *DescriptorError
			require.ErrorAs(t, err, &descErr)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadDescriptors_UnqualifiedUnknownIsKept(t *testing.T) {
	fs := writeFiles(map[string]string{
		"a.star": `singletons = {"X": {"depends_on": ["Elsewhere"]}}`,
	})

	singletons, err := LoadDescriptors(fs, []string{"a.star"})
	require.NoError(t, err)
	assert.Equal(t, []string{"Elsewhere"}, singletons[0].DependsOn)
}

func TestModuleName(t *testing.T) {
	assert.Equal(t, "orders", ModuleName("deploy/orders.star"))
	assert.Equal(t, "core", ModuleName("core"))
	assert.Equal(t, "a.b", ModuleName("/x/a.b.star"))
}
