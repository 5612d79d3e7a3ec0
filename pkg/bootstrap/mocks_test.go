// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package bootstrap

import (
	"context"
	"fmt"

	"github.com/school-mcp/school-mcp-setup/pkg/client"
	"github.com/school-mcp/school-mcp-setup/pkg/resolve"
)

// fakeLocator provides a minimal test double for ConfigLocator.
type fakeLocator struct {
	path  string
	found bool
}

func (f *fakeLocator) Locate() (string, bool) {
	return f.path, f.found
}

// fakeResolver provides a minimal test double for EnvironmentResolver.
type fakeResolver struct {
	env         resolve.Environment
	resolveFunc func(ctx context.Context) resolve.Environment
	calls       int
}

func (f *fakeResolver) Resolve(ctx context.Context) resolve.Environment {
	f.calls++
	if f.resolveFunc != nil {
		return f.resolveFunc(ctx)
	}
	return f.env
}

// fakePrompter answers prompts from a queue and records what was asked.
type fakePrompter struct {
	answers []bool
	asked   []string
}

func (f *fakePrompter) Confirm(prompt string, _ bool) (bool, error) {
	f.asked = append(f.asked, prompt)
	if len(f.answers) == 0 {
		return false, fmt.Errorf("unexpected prompt %q", prompt)
	}
	answer := f.answers[0]
	f.answers = f.answers[1:]
	return answer, nil
}

// fakeUpdater provides a minimal test double for client.ConfigUpdater.
type fakeUpdater struct {
	upsertFunc func(serverName string, entry client.ServerEntry) error
}

func (f *fakeUpdater) Upsert(serverName string, entry client.ServerEntry) error {
	if f.upsertFunc != nil {
		return f.upsertFunc(serverName, entry)
	}
	return nil
}

func (*fakeUpdater) Remove(string) error {
	return nil
}

func (*fakeUpdater) Get(string) (client.ServerEntry, bool, error) {
	return client.ServerEntry{}, false, nil
}
