// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package bootstrap

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/school-mcp/school-mcp-setup/pkg/client"
	"github.com/school-mcp/school-mcp-setup/pkg/config"
	"github.com/school-mcp/school-mcp-setup/pkg/dotenv"
	setuperrors "github.com/school-mcp/school-mcp-setup/pkg/errors"
	"github.com/school-mcp/school-mcp-setup/pkg/resolve"
)

const fullCredentials = `# Canvas API credentials
CANVAS_ACCESS_TOKEN=abc123
CANVAS_DOMAIN=canvas.example.edu

# Gradescope credentials
GRADESCOPE_EMAIL=student@example.edu
GRADESCOPE_PASSWORD=hunter2
`

var moduleEnv = resolve.Environment{
	RuntimePath: "/usr/bin/python3",
	PackagePath: "/usr/lib/python3/site-packages/school_mcp",
}

type fixture struct {
	settings   config.Settings
	configPath string
	out        bytes.Buffer
}

// newFixture creates a host config holding content (none when content is
// empty) and an empty work dir.
func newFixture(t *testing.T, content string) *fixture {
	t.Helper()
	f := &fixture{configPath: filepath.Join(t.TempDir(), client.HostConfigFileName)}
	if content != "" {
		require.NoError(t, os.WriteFile(f.configPath, []byte(content), 0o600))
	}
	f.settings = config.Default()
	f.settings.WorkDir = t.TempDir()
	return f
}

func (f *fixture) writeWorkFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(f.settings.WorkDir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func (f *fixture) run(resolver EnvironmentResolver, prompter Prompter, opts ...Option) (Result, error) {
	all := append([]Option{
		WithLocator(&fakeLocator{path: f.configPath, found: true}),
		WithResolver(resolver),
		WithPrompter(prompter),
		WithOutput(&f.out),
	}, opts...)
	return New(f.settings, all...).Run(context.Background())
}

func (f *fixture) readConfig(t *testing.T) string {
	t.Helper()
	content, err := os.ReadFile(f.configPath)
	require.NoError(t, err)
	return string(content)
}

func TestRun_EndToEnd(t *testing.T) {
	t.Parallel()

	f := newFixture(t, `{"theme": "dark", "mcpServers": {"filesystem": {"command": "npx"}}}`)
	envPath := f.writeWorkFile(t, ".env", fullCredentials)

	result, err := f.run(&fakeResolver{env: moduleEnv}, &fakePrompter{})
	require.NoError(t, err)
	assert.Equal(t, 0, ExitCode(err))
	assert.True(t, result.Written)
	assert.Equal(t, envPath, result.CredentialsFile)

	content := f.readConfig(t)
	var doc struct {
		MCPServers map[string]client.ServerEntry `json:"mcpServers"`
	}
	require.NoError(t, json.Unmarshal([]byte(content), &doc))

	parsed, err := dotenv.Load(envPath)
	require.NoError(t, err)

	want := client.ServerEntry{
		Command: "/usr/bin/python3",
		Args:    []string{"-m", "school_mcp"},
		Env:     parsed,
	}
	if diff := cmp.Diff(want, doc.MCPServers["school-tools"]); diff != "" {
		t.Errorf("entry mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, "npx", doc.MCPServers["filesystem"].Command)
	assert.Equal(t, "dark", gjson.Get(content, "theme").String())

	out := f.out.String()
	assert.Contains(t, out, "Found Claude Desktop configuration at: "+f.configPath)
	assert.Contains(t, out, "Using Python module approach with package at: "+moduleEnv.PackagePath)
	assert.Contains(t, out, "Successfully updated Claude Desktop configuration!")
	assert.Contains(t, out, "School-MCP has been configured as 'school-tools' in Claude Desktop.")
}

func TestRun_ScriptForm(t *testing.T) {
	t.Parallel()

	f := newFixture(t, `{}`)
	f.writeWorkFile(t, ".env", fullCredentials)

	env := moduleEnv
	env.ScriptPath = "/usr/local/bin/school-mcp"

	result, err := f.run(&fakeResolver{env: env}, &fakePrompter{})
	require.NoError(t, err)
	assert.Equal(t, "/usr/local/bin/school-mcp", result.Entry.Command)
	assert.Empty(t, result.Entry.Args)

	content := f.readConfig(t)
	assert.Equal(t, "/usr/local/bin/school-mcp", gjson.Get(content, "mcpServers.school-tools.command").String())
	assert.False(t, gjson.Get(content, "mcpServers.school-tools.args").Exists())
	assert.Contains(t, f.out.String(), "Found school-mcp script: /usr/local/bin/school-mcp")
}

func TestRun_IdempotentAcrossRuns(t *testing.T) {
	t.Parallel()

	f := newFixture(t, `{"a": 1}`)
	f.writeWorkFile(t, ".env", fullCredentials)

	_, err := f.run(&fakeResolver{env: moduleEnv}, &fakePrompter{})
	require.NoError(t, err)
	first := f.readConfig(t)

	_, err = f.run(&fakeResolver{env: moduleEnv}, &fakePrompter{})
	require.NoError(t, err)
	assert.Equal(t, first, f.readConfig(t))
}

func TestRun_HostConfigNotFound(t *testing.T) {
	t.Parallel()

	f := newFixture(t, "")
	resolver := &fakeResolver{env: moduleEnv}

	var out bytes.Buffer
	_, err := New(f.settings,
		WithLocator(&fakeLocator{}),
		WithResolver(resolver),
		WithPrompter(&fakePrompter{}),
		WithOutput(&out),
	).Run(context.Background())

	require.Error(t, err)
	assert.True(t, setuperrors.IsDiscovery(err))
	assert.Equal(t, 1, ExitCode(err))

	text := out.String()
	assert.Contains(t, text, "Could not find Claude Desktop configuration file.")
	assert.Contains(t, text, "Manual Configuration Instructions:")
	assert.Contains(t, text, `"command": "/usr/bin/python3"`)
	assert.Contains(t, text, `"CANVAS_ACCESS_TOKEN": "your_canvas_token_here"`)

	_, statErr := os.Stat(f.configPath)
	assert.True(t, os.IsNotExist(statErr), "host config must not be created")
}

func TestRun_PackageAbsent(t *testing.T) {
	t.Parallel()

	original := `{"mcpServers": {}}`
	f := newFixture(t, original)
	f.writeWorkFile(t, ".env", fullCredentials)

	updater := &fakeUpdater{upsertFunc: func(string, client.ServerEntry) error {
		t.Fatal("host config must not be written")
		return nil
	}}

	_, err := f.run(&fakeResolver{env: resolve.Environment{RuntimePath: "/usr/bin/python3"}}, &fakePrompter{},
		WithUpdaterFactory(func(string) client.ConfigUpdater { return updater }))
	require.Error(t, err)
	assert.True(t, setuperrors.IsDiscovery(err))
	assert.Equal(t, 1, ExitCode(err))
	assert.Contains(t, f.out.String(), "Error: Could not find the school_mcp package.")
	assert.Contains(t, f.out.String(), "pip install -e .")

	assert.Equal(t, original, f.readConfig(t))
	entries, err := os.ReadDir(filepath.Dir(f.configPath))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no lock or temp files may be left behind")
}

func TestRun_Credentials(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		// setup prepares the work dir.
		setup      func(t *testing.T, f *fixture)
		answers    []bool
		wantAsked  []string
		wantErr    func(error) bool
		wantWrite  bool
		wantEnv    map[string]string
		wantEnvDoc string
	}{
		{
			name: "template accepted creates file and stops",
			setup: func(t *testing.T, f *fixture) {
				t.Helper()
				f.writeWorkFile(t, ".env.template", "CANVAS_DOMAIN=from-template\n")
			},
			answers:    []bool{true},
			wantAsked:  []string{".env file not found. Create from template?"},
			wantErr:    IsIncomplete,
			wantEnvDoc: "CANVAS_DOMAIN=from-template\n",
		},
		{
			name: "template declined then skeleton accepted",
			setup: func(t *testing.T, f *fixture) {
				t.Helper()
				f.writeWorkFile(t, ".env.template", "CANVAS_DOMAIN=from-template\n")
			},
			answers:    []bool{false, true},
			wantAsked:  []string{".env file not found. Create from template?", "Create .env file now?"},
			wantErr:    IsIncomplete,
			wantEnvDoc: dotenv.Skeleton,
		},
		{
			name:       "no template, skeleton accepted",
			setup:      func(*testing.T, *fixture) {},
			answers:    []bool{true},
			wantAsked:  []string{"Create .env file now?"},
			wantErr:    IsIncomplete,
			wantEnvDoc: dotenv.Skeleton,
		},
		{
			name:      "no template, skeleton declined continues without env",
			setup:     func(*testing.T, *fixture) {},
			answers:   []bool{false},
			wantAsked: []string{"Create .env file now?"},
			wantWrite: true,
		},
		{
			name: "missing keys, operator continues",
			setup: func(t *testing.T, f *fixture) {
				t.Helper()
				f.writeWorkFile(t, ".env", "CANVAS_ACCESS_TOKEN=abc\nCANVAS_DOMAIN=canvas.example.edu\n")
			},
			answers:   []bool{true},
			wantAsked: []string{"Continue with setup anyway?"},
			wantWrite: true,
			wantEnv:   map[string]string{"CANVAS_ACCESS_TOKEN": "abc", "CANVAS_DOMAIN": "canvas.example.edu"},
		},
		{
			name: "missing keys, operator declines",
			setup: func(t *testing.T, f *fixture) {
				t.Helper()
				f.writeWorkFile(t, ".env", "CANVAS_ACCESS_TOKEN=abc\n")
			},
			answers:   []bool{false},
			wantAsked: []string{"Continue with setup anyway?"},
			wantErr:   setuperrors.IsAborted,
		},
		{
			name: "malformed credentials file",
			setup: func(t *testing.T, f *fixture) {
				t.Helper()
				f.writeWorkFile(t, ".env", "CANVAS_ACCESS_TOKEN\n")
			},
			wantErr: setuperrors.IsCredentials,
		},
		{
			name: "complete credentials ask nothing",
			setup: func(t *testing.T, f *fixture) {
				t.Helper()
				f.writeWorkFile(t, ".env", fullCredentials)
			},
			wantWrite: true,
			wantEnv: map[string]string{
				"CANVAS_ACCESS_TOKEN": "abc123",
				"CANVAS_DOMAIN":       "canvas.example.edu",
				"GRADESCOPE_EMAIL":    "student@example.edu",
				"GRADESCOPE_PASSWORD": "hunter2",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			original := `{"keep": true}`
			f := newFixture(t, original)
			tt.setup(t, f)
			prompter := &fakePrompter{answers: tt.answers}

			result, err := f.run(&fakeResolver{env: moduleEnv}, prompter)
			assert.Equal(t, tt.wantAsked, prompter.asked)

			if tt.wantErr != nil {
				require.Error(t, err)
				assert.True(t, tt.wantErr(err), "unexpected error: %v", err)
				assert.Equal(t, 1, ExitCode(err))
			} else {
				require.NoError(t, err)
			}

			content := f.readConfig(t)
			if !tt.wantWrite {
				assert.Equal(t, original, content)
			} else {
				assert.True(t, result.Written)
				assert.True(t, gjson.Get(content, "keep").Bool())
				if tt.wantEnv == nil {
					assert.False(t, gjson.Get(content, "mcpServers.school-tools.env").Exists())
				} else {
					assert.Equal(t, tt.wantEnv, result.Entry.Env)
				}
			}

			if tt.wantEnvDoc != "" {
				created, err := os.ReadFile(f.settings.EnvFilePath())
				require.NoError(t, err)
				assert.Equal(t, tt.wantEnvDoc, string(created))
			}
		})
	}
}

func TestRun_UpdateFailurePrintsManualInstructions(t *testing.T) {
	t.Parallel()

	f := newFixture(t, `{}`)
	f.writeWorkFile(t, ".env", fullCredentials)

	updater := &fakeUpdater{upsertFunc: func(string, client.ServerEntry) error {
		return setuperrors.NewPersistenceError("failed to write file", errors.New("read-only file system"))
	}}

	result, err := f.run(&fakeResolver{env: moduleEnv}, &fakePrompter{},
		WithUpdaterFactory(func(string) client.ConfigUpdater { return updater }))
	require.Error(t, err)
	assert.True(t, setuperrors.IsPersistence(err))
	assert.False(t, result.Written)

	out := f.out.String()
	assert.Contains(t, out, "Error updating configuration file:")
	assert.Contains(t, out, "read-only file system")
	assert.Contains(t, out, "Manual Configuration Instructions:")
	// Real credentials never appear in the instructions.
	assert.NotContains(t, out, "hunter2")
}

func TestRun_DryRun(t *testing.T) {
	t.Parallel()

	original := `{"theme": "dark"}`
	f := newFixture(t, original)
	f.settings.DryRun = true
	f.writeWorkFile(t, ".env", fullCredentials)

	result, err := f.run(&fakeResolver{env: moduleEnv}, &fakePrompter{})
	require.NoError(t, err)
	assert.False(t, result.Written)
	assert.Equal(t, original, f.readConfig(t))

	assert.Equal(t, "dark", gjson.GetBytes(result.Document, "theme").String())
	assert.Equal(t, "/usr/bin/python3", gjson.GetBytes(result.Document, "mcpServers.school-tools.command").String())
	assert.Contains(t, f.out.String(), string(result.Document))
}

func TestRun_DryRunDoesNotCreateCredentials(t *testing.T) {
	t.Parallel()

	f := newFixture(t, `{}`)
	f.settings.DryRun = true

	_, err := f.run(&fakeResolver{env: moduleEnv}, &fakePrompter{answers: []bool{true}})
	require.Error(t, err)
	assert.True(t, IsIncomplete(err))
	assert.False(t, dotenv.Exists(f.settings.EnvFilePath()))
	assert.Contains(t, f.out.String(), "Dry run: would create")
}

func TestRun_AssumeYes(t *testing.T) {
	t.Parallel()

	f := newFixture(t, `{}`)
	f.settings.AssumeYes = true
	f.writeWorkFile(t, ".env", "CANVAS_ACCESS_TOKEN=abc\n")

	var out bytes.Buffer
	result, err := New(f.settings,
		WithLocator(&fakeLocator{path: f.configPath, found: true}),
		WithResolver(&fakeResolver{env: moduleEnv}),
		WithOutput(&out),
	).Run(context.Background())
	require.NoError(t, err)
	assert.True(t, result.Written)
	assert.Contains(t, out.String(), "Continue with setup anyway? [y/N]: y (assumed)")
}

func TestRun_Interrupted(t *testing.T) {
	t.Parallel()

	f := newFixture(t, `{}`)
	ctx, cancel := context.WithCancel(context.Background())
	resolver := &fakeResolver{resolveFunc: func(context.Context) resolve.Environment {
		cancel()
		return resolve.Environment{RuntimePath: "python3"}
	}}

	_, err := New(f.settings,
		WithLocator(&fakeLocator{path: f.configPath, found: true}),
		WithResolver(resolver),
		WithPrompter(&fakePrompter{}),
		WithOutput(&f.out),
	).Run(ctx)
	require.Error(t, err)
	assert.True(t, setuperrors.IsAborted(err))
	assert.Equal(t, `{}`, f.readConfig(t))
}

func TestRun_RecoversFromPanic(t *testing.T) {
	t.Parallel()

	f := newFixture(t, `{}`)
	resolver := &fakeResolver{resolveFunc: func(context.Context) resolve.Environment {
		panic("boom")
	}}

	_, err := f.run(resolver, &fakePrompter{})
	require.Error(t, err)
	assert.True(t, setuperrors.IsInternal(err))
	assert.Contains(t, err.Error(), "boom")
}

func TestNew_Defaults(t *testing.T) {
	t.Parallel()

	s := config.Default()
	s.HostConfigPath = filepath.Join(t.TempDir(), "custom.json")
	s.AssumeYes = true

	b := New(s)
	override, ok := b.locator.(*client.OverrideLocator)
	require.True(t, ok)
	assert.Equal(t, s.HostConfigPath, override.Path)
	assert.IsType(t, &AutoPrompter{}, b.prompter)
	assert.IsType(t, &resolve.Resolver{}, b.resolver)

	s.HostConfigPath = ""
	s.AssumeYes = false
	b = New(s)
	assert.IsType(t, &client.PathLocator{}, b.locator)
	assert.IsType(t, &LinePrompter{}, b.prompter)
}

func TestExitCode(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 0, ExitCode(nil))
	assert.Equal(t, 1, ExitCode(ErrSetupIncomplete))
	assert.Equal(t, 1, ExitCode(setuperrors.NewDiscoveryError("x", nil)))
}
