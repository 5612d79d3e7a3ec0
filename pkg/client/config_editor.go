// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

// config_editor.go provides the ConfigUpdater that merges the tool server's
// launch entry into the host's JSON configuration.
//
// # Merge semantics
//
// Documents are edited with RFC 6902 patches applied through hujson, so every
// key the updater does not own keeps its value and its position. A missing,
// empty, unparsable or non-object document is treated as "{}". A missing or
// non-object container (mcpServers) is replaced by an empty object. The entry
// under the given name is replaced wholesale; its sub-fields are never merged.
//
// # Error Handling
//
// Read and write failures are returned as persistence errors. Write failures
// are logged at WARN level because the caller decides whether they are fatal.
//
// # File Locking
//
// Upsert and Remove hold a ".lock" file next to the config for the duration
// of the read-modify-write.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/gofrs/flock"
	"github.com/tailscale/hujson"
	"github.com/tidwall/gjson"

	setuperrors "github.com/school-mcp/school-mcp-setup/pkg/errors"
	"github.com/school-mcp/school-mcp-setup/pkg/fileutils"
	"github.com/school-mcp/school-mcp-setup/pkg/logger"
)

var errIsDirectory = errors.New("is a directory")

// newConfigFileMode is used when the host config does not exist yet.
const newConfigFileMode = 0o600

// ConfigUpdater defines the interface for types which can edit MCP client config files.
type ConfigUpdater interface {
	// Upsert inserts or replaces the server entry stored under serverName.
	Upsert(serverName string, entry ServerEntry) error

	// Remove removes the server entry stored under serverName.
	// Returns nil if the entry doesn't exist.
	Remove(serverName string) error

	// Get returns the server entry stored under serverName, if any.
	Get(serverName string) (ServerEntry, bool, error)
}

// ServerEntry describes how the host launches an MCP server over stdio.
type ServerEntry struct {
	Command string            `json:"command" yaml:"command"`
	Args    []string          `json:"args,omitempty" yaml:"args,omitempty"`
	Env     map[string]string `json:"env,omitempty" yaml:"env,omitempty"`
}

// withFileLock executes the given function while holding a file lock for the specified path.
func withFileLock(path string, fn func() error) error {
	lockPath := path + ".lock"
	fileLock := flock.New(lockPath)

	ctx, cancel := context.WithTimeout(context.Background(), lockTimeout)
	defer cancel()

	locked, err := fileLock.TryLockContext(ctx, 100*time.Millisecond)
	if err != nil {
		return fmt.Errorf("failed to acquire lock: %w", err)
	}
	if !locked {
		return fmt.Errorf("failed to acquire lock: timeout after %v", lockTimeout)
	}
	defer func() {
		if err := fileLock.Unlock(); err != nil {
			logger.Warnw("failed to release lock", "path", lockPath, "error", err)
		}
		_ = os.Remove(lockPath)
	}()

	return fn()
}

// JSONConfigUpdater is a ConfigUpdater that is responsible for updating
// JSON config files.
type JSONConfigUpdater struct {
	Path                 string
	MCPServersPathPrefix string
}

// NewJSONConfigUpdater returns an updater for the mcpServers container of
// the JSON file at path.
func NewJSONConfigUpdater(path string) *JSONConfigUpdater {
	return &JSONConfigUpdater{Path: path, MCPServersPathPrefix: MCPServersPathPrefix}
}

// Upsert inserts or replaces an MCP server in the MCP client config file
func (jcu *JSONConfigUpdater) Upsert(serverName string, entry ServerEntry) error {
	err := withFileLock(jcu.Path, func() error {
		content, err := jcu.read()
		if err != nil {
			return err
		}

		merged, err := MergeDocument(content, jcu.MCPServersPathPrefix, serverName, entry)
		if err != nil {
			return setuperrors.NewPersistenceError("failed to merge server entry", err)
		}

		perm := fileutils.FileMode(jcu.Path, newConfigFileMode)
		if err := fileutils.AtomicWriteFile(jcu.Path, merged, perm); err != nil {
			logger.Warnw("failed to write JSON config file", "path", jcu.Path, "error", err)
			return setuperrors.NewPersistenceError("failed to write file", err)
		}

		logger.Debugw("successfully updated client config file", "server", serverName, "path", jcu.Path)
		return nil
	})
	return asPersistenceError(err)
}

// Remove removes an MCP server from the MCP client config file
func (jcu *JSONConfigUpdater) Remove(serverName string) error {
	err := withFileLock(jcu.Path, func() error {
		content, err := jcu.read()
		if err != nil {
			return err
		}
		if content == nil {
			// File doesn't exist, nothing to remove
			return nil
		}

		doc := normalizeDocument(content)
		if !gjson.GetBytes(doc, entryRetrievalPath(jcu.MCPServersPathPrefix, serverName)).Exists() {
			logger.Debugw("server not found in client config file, nothing to remove", "server", serverName)
			return nil
		}

		v, err := hujson.Parse(doc)
		if err != nil {
			return setuperrors.NewPersistenceError("failed to parse JSON", err)
		}
		patch, err := buildPatch("remove", entryPointer(jcu.MCPServersPathPrefix, serverName), nil)
		if err != nil {
			return err
		}
		if err := v.Patch(patch); err != nil {
			return setuperrors.NewPersistenceError("failed to patch JSON", err)
		}

		formatted, err := indentDocument(v.Pack())
		if err != nil {
			return setuperrors.NewPersistenceError("failed to format JSON", err)
		}

		perm := fileutils.FileMode(jcu.Path, newConfigFileMode)
		if err := fileutils.AtomicWriteFile(jcu.Path, formatted, perm); err != nil {
			logger.Warnw("failed to write JSON config file", "path", jcu.Path, "error", err)
			return setuperrors.NewPersistenceError("failed to write file", err)
		}

		logger.Debugw("successfully removed server from client config file", "server", serverName)
		return nil
	})
	return asPersistenceError(err)
}

// Get returns the entry stored under serverName. A missing or corrupt file
// reports no entry.
func (jcu *JSONConfigUpdater) Get(serverName string) (ServerEntry, bool, error) {
	content, err := jcu.read()
	if err != nil {
		return ServerEntry{}, false, err
	}
	if content == nil {
		return ServerEntry{}, false, nil
	}

	result := gjson.GetBytes(normalizeDocument(content), entryRetrievalPath(jcu.MCPServersPathPrefix, serverName))
	if !result.Exists() {
		return ServerEntry{}, false, nil
	}

	var entry ServerEntry
	if err := json.Unmarshal([]byte(result.Raw), &entry); err != nil {
		return ServerEntry{}, false, setuperrors.NewPersistenceError(
			fmt.Sprintf("entry %q is not a server entry", serverName), err)
	}
	return entry, true, nil
}

// read returns the file content, or nil if the file does not exist.
func (jcu *JSONConfigUpdater) read() ([]byte, error) {
	// #nosec G304 -- path is the discovered host config file
	content, err := os.ReadFile(jcu.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, setuperrors.NewPersistenceError("failed to read file", err)
	}
	return content, nil
}

// MergeDocument returns content with entry stored under serverName inside
// the object at prefix. It is a pure function of its arguments, and applying
// it twice with the same entry yields the same bytes as applying it once.
func MergeDocument(content []byte, prefix, serverName string, entry ServerEntry) ([]byte, error) {
	doc, err := ensurePathExists(normalizeDocument(content), prefix)
	if err != nil {
		return nil, err
	}

	entryJSON, err := marshalEntry(entry)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal server entry to JSON: %w", err)
	}

	v, err := hujson.Parse(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to parse JSON: %w", err)
	}

	if err := setMember(&v, strings.TrimSuffix(prefix, "/"), serverName, entryJSON); err != nil {
		return nil, err
	}

	formatted, err := indentDocument(v.Pack())
	if err != nil {
		return nil, fmt.Errorf("failed to format JSON: %w", err)
	}
	return formatted, nil
}

// setMember stores raw under name in the object at pointer, replacing an
// existing member in place. Unlike a JSON patch, the value's bytes are kept
// as given instead of being re-encoded with HTML escaping.
func setMember(root *hujson.Value, pointer, name string, raw []byte) error {
	container := root.Find(pointer)
	if container == nil {
		return fmt.Errorf("failed to find %q in JSON", pointer)
	}
	obj, ok := container.Value.(*hujson.Object)
	if !ok {
		return fmt.Errorf("%q is not a JSON object", pointer)
	}

	value, err := hujson.Parse(raw)
	if err != nil {
		return fmt.Errorf("failed to parse server entry: %w", err)
	}

	for i := range obj.Members {
		if key, ok := obj.Members[i].Name.Value.(hujson.Literal); ok && key.String() == name {
			obj.Members[i].Value.Value = value.Value
			return nil
		}
	}
	obj.Members = append(obj.Members, hujson.ObjectMember{
		Name:  hujson.Value{Value: hujson.String(name)},
		Value: hujson.Value{Value: value.Value},
	})
	return nil
}

// normalizeDocument returns content as a standard JSON object, or "{}" when
// content is empty, unparsable or not an object.
func normalizeDocument(content []byte) []byte {
	empty := []byte("{}")
	if len(bytes.TrimSpace(content)) == 0 {
		return empty
	}

	v, err := hujson.Parse(content)
	if err != nil {
		logger.Debugw("host config is not valid JSON, starting from an empty document", "error", err)
		return empty
	}
	v.Standardize()
	packed := v.Pack()

	if !gjson.ParseBytes(packed).IsObject() {
		logger.Debug("host config is not a JSON object, starting from an empty document")
		return empty
	}
	return packed
}

// ensurePathExists ensures that every segment of the JSON pointer path is an
// object in content and returns the updated content. Segments that are
// missing are added; segments holding a non-object value are replaced.
// For example, with path "/mcp/servers" and content `{"mcp": 1}` the result
// is `{"mcp": {"servers": {}}}`.
func ensurePathExists(content []byte, path string) ([]byte, error) {
	if path == "" || path == "/" {
		return content, nil
	}

	var pointerSoFar string
	var retrievalSoFar string
	for _, segment := range strings.Split(strings.TrimPrefix(path, "/"), "/") {
		// gjson treats '.', '*', '?' and friends as path syntax while hujson
		// addresses keys by JSON pointer, so the two paths are built apart.
		pointerSoFar = pointerSoFar + "/" + escapePointer(segment)
		if retrievalSoFar == "" {
			retrievalSoFar = escapeRetrieval(segment)
		} else {
			retrievalSoFar = retrievalSoFar + "." + escapeRetrieval(segment)
		}

		existing := gjson.GetBytes(content, retrievalSoFar)
		if existing.IsObject() {
			continue
		}

		op := "add"
		if existing.Exists() {
			logger.Debugw("replacing non-object value in host config", "path", pointerSoFar)
			op = "replace"
		}

		patch, err := buildPatch(op, pointerSoFar, []byte("{}"))
		if err != nil {
			return nil, err
		}
		v, err := hujson.Parse(content)
		if err != nil {
			return nil, fmt.Errorf("failed to parse JSON: %w", err)
		}
		if err := v.Patch(patch); err != nil {
			return nil, fmt.Errorf("failed to create %s: %w", pointerSoFar, err)
		}
		content = v.Pack()
	}
	return content, nil
}

// buildPatch returns a single-operation JSON patch document.
func buildPatch(op, pointer string, value json.RawMessage) ([]byte, error) {
	operation := struct {
		Op    string          `json:"op"`
		Path  string          `json:"path"`
		Value json.RawMessage `json:"value,omitempty"`
	}{Op: op, Path: pointer, Value: value}

	patch, err := json.Marshal([]any{operation})
	if err != nil {
		return nil, fmt.Errorf("failed to build JSON patch: %w", err)
	}
	return patch, nil
}

// marshalEntry encodes entry without HTML escaping so credentials containing
// '&', '<' or '>' are written as typed.
func marshalEntry(entry ServerEntry) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(entry); err != nil {
		return nil, err
	}
	return bytes.TrimSpace(buf.Bytes()), nil
}

// indentDocument formats a standard JSON document with two-space indentation
// and a trailing newline. Key order is preserved.
func indentDocument(doc []byte) ([]byte, error) {
	return indentDocumentWith(doc, "  ")
}

func indentDocumentWith(doc []byte, indent string) ([]byte, error) {
	var compact bytes.Buffer
	if err := json.Compact(&compact, doc); err != nil {
		return nil, err
	}
	var out bytes.Buffer
	if err := json.Indent(&out, compact.Bytes(), "", indent); err != nil {
		return nil, err
	}
	out.WriteByte('\n')
	return out.Bytes(), nil
}

func entryPointer(prefix, serverName string) string {
	return strings.TrimSuffix(prefix, "/") + "/" + escapePointer(serverName)
}

func entryRetrievalPath(prefix, serverName string) string {
	var parts []string
	for _, segment := range strings.Split(strings.Trim(prefix, "/"), "/") {
		if segment != "" {
			parts = append(parts, escapeRetrieval(segment))
		}
	}
	parts = append(parts, escapeRetrieval(serverName))
	return strings.Join(parts, ".")
}

var pointerEscaper = strings.NewReplacer("~", "~0", "/", "~1")

// gjsonSpecial are the characters gjson interprets inside a path component.
const gjsonSpecial = `\.*?|#@!=<>%`

// escapeRetrieval escapes a key for use as a gjson path component.
func escapeRetrieval(key string) string {
	var b strings.Builder
	for _, r := range key {
		if strings.ContainsRune(gjsonSpecial, r) {
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}

// escapePointer escapes a key for use as a JSON pointer reference token.
func escapePointer(key string) string {
	return pointerEscaper.Replace(key)
}

// asPersistenceError classifies lock failures, which are not typed at the
// source, as persistence errors.
func asPersistenceError(err error) error {
	if err == nil || setuperrors.IsPersistence(err) {
		return err
	}
	return setuperrors.NewPersistenceError("failed to update host config", err)
}
