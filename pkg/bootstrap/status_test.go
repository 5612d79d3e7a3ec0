// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package bootstrap

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/school-mcp/school-mcp-setup/pkg/client"
	"github.com/school-mcp/school-mcp-setup/pkg/dotenv"
	setuperrors "github.com/school-mcp/school-mcp-setup/pkg/errors"
)

func TestStatus_Registered(t *testing.T) {
	t.Parallel()

	f := newFixture(t, `{"mcpServers": {"school-tools": {"command": "/usr/bin/python3", "args": ["-m", "school_mcp"], "env": {"CANVAS_ACCESS_TOKEN": "secret"}}}}`)
	f.writeWorkFile(t, ".env", "CANVAS_ACCESS_TOKEN=secret\nCANVAS_DOMAIN=canvas.example.edu\n")

	b := New(f.settings,
		WithLocator(&fakeLocator{path: f.configPath, found: true}),
		WithResolver(&fakeResolver{env: moduleEnv}),
		WithPrompter(&fakePrompter{}),
		WithOutput(&f.out),
	)
	status, err := b.Status(context.Background())
	require.NoError(t, err)

	assert.True(t, status.HostConfigFound)
	assert.True(t, status.Registered)
	require.NotNil(t, status.Entry)
	assert.Equal(t, "/usr/bin/python3", status.Entry.Command)
	assert.Equal(t, map[string]string{"CANVAS_ACCESS_TOKEN": redacted}, status.Entry.Env)
	assert.Equal(t, moduleEnv, status.Environment)
	assert.True(t, status.CredentialsOK)
	assert.Equal(t, []string{"GRADESCOPE_EMAIL", "GRADESCOPE_PASSWORD"}, status.MissingCredentials)
	assert.Equal(t, "'school-tools' is registered in "+f.configPath, status.String())
	assert.Empty(t, f.out.String(), "status must not print progress lines")
}

func TestStatus_NothingSetUp(t *testing.T) {
	t.Parallel()

	f := newFixture(t, "")
	b := New(f.settings,
		WithLocator(&fakeLocator{}),
		WithResolver(&fakeResolver{env: moduleEnv}),
		WithPrompter(&fakePrompter{}),
		WithOutput(&f.out),
	)
	status, err := b.Status(context.Background())
	require.NoError(t, err)

	assert.False(t, status.HostConfigFound)
	assert.False(t, status.Registered)
	assert.Nil(t, status.Entry)
	assert.False(t, status.CredentialsOK)
	assert.Equal(t, dotenv.RequiredKeys, status.MissingCredentials)
	assert.Equal(t, "host config not found", status.String())
}

func TestStatus_MalformedCredentials(t *testing.T) {
	t.Parallel()

	f := newFixture(t, `{}`)
	f.writeWorkFile(t, ".env", "not a pair\n")

	b := New(f.settings,
		WithLocator(&fakeLocator{path: f.configPath, found: true}),
		WithResolver(&fakeResolver{env: moduleEnv}),
		WithPrompter(&fakePrompter{}),
	)
	_, err := b.Status(context.Background())
	require.Error(t, err)
	assert.True(t, setuperrors.IsCredentials(err))
}

func TestRemove(t *testing.T) {
	t.Parallel()

	f := newFixture(t, `{"mcpServers": {"school-tools": {"command": "x"}, "other": {"command": "y"}}}`)
	var out bytes.Buffer
	b := New(f.settings,
		WithLocator(&fakeLocator{path: f.configPath, found: true}),
		WithResolver(&fakeResolver{}),
		WithPrompter(&fakePrompter{}),
		WithOutput(&out),
	)

	path, err := b.Remove()
	require.NoError(t, err)
	assert.Equal(t, f.configPath, path)

	content := f.readConfig(t)
	assert.False(t, gjson.Get(content, "mcpServers.school-tools").Exists())
	assert.True(t, gjson.Get(content, "mcpServers.other").Exists())
	assert.Contains(t, out.String(), "Removed 'school-tools' from "+f.configPath)

	// A second removal is a no-op.
	_, err = b.Remove()
	require.NoError(t, err)
}

func TestRemove_HostConfigNotFound(t *testing.T) {
	t.Parallel()

	f := newFixture(t, "")
	b := New(f.settings,
		WithLocator(&fakeLocator{}),
		WithResolver(&fakeResolver{}),
		WithPrompter(&fakePrompter{}),
		WithUpdaterFactory(func(string) client.ConfigUpdater {
			t.Fatal("updater must not be created")
			return nil
		}),
	)
	_, err := b.Remove()
	require.Error(t, err)
	assert.True(t, setuperrors.IsDiscovery(err))
}
