// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package bootstrap

import (
	"maps"

	"github.com/school-mcp/school-mcp-setup/pkg/client"
	"github.com/school-mcp/school-mcp-setup/pkg/config"
	"github.com/school-mcp/school-mcp-setup/pkg/dotenv"
	"github.com/school-mcp/school-mcp-setup/pkg/resolve"
)

// BuildEntry returns the launch entry for env. A console script is launched
// directly; otherwise the runtime runs the package as a module. The env map
// is copied from vars and omitted when vars is empty.
func BuildEntry(s config.Settings, env resolve.Environment, vars dotenv.Vars) client.ServerEntry {
	var entry client.ServerEntry
	if env.HasScript() {
		entry.Command = env.ScriptPath
	} else {
		entry.Command = env.RuntimePath
		entry.Args = s.ModuleArgs()
	}
	if len(vars) > 0 {
		entry.Env = maps.Clone(map[string]string(vars))
	}
	return entry
}
