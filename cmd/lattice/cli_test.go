package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/lattice-kb/lattice/internal/config"
	"github.com/lattice-kb/lattice/internal/db"
	"github.com/lattice-kb/lattice/internal/ops"
)

// setupTestEnv creates a temporary database and environment for testing.
func setupTestEnv(t *testing.T) *ops.Env {
	t.Helper()
	database, err := db.Init(t.TempDir())
	if err != nil {
		t.Fatalf("failed to init test db: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	env, err := ops.NewEnv(database, config.DefaultConfig())
	if err != nil {
		t.Fatalf("failed to build env: %v", err)
	}
	return env
}

// runApp runs the CLI with captured stdout and returns the output.
func runApp(t *testing.T, env *ops.Env, args ...string) (string, error) {
	t.Helper()
	app := newCLIApp(env)

	oldStdout := os.Stdout
	r, w, _ := os.Pipe()
	os.Stdout = w

	err := app.Run(append([]string{"lattice"}, args...))

	w.Close()
	var buf bytes.Buffer
	_, _ = buf.ReadFrom(r)
	os.Stdout = oldStdout

	return buf.String(), err
}

// parseJSON unmarshals CLI output into a generic map. Node payloads carry an
// interface-typed detail, so typed unmarshalling is not an option here.
func parseJSON(t *testing.T, output string) map[string]any {
	t.Helper()
	var parsed map[string]any
	if err := json.Unmarshal([]byte(output), &parsed); err != nil {
		t.Fatalf("failed to parse output: %v\nOutput: %s", err, output)
	}
	return parsed
}

// TestCLINote tests the note command.
func TestCLINote(t *testing.T) {
	env := setupTestEnv(t)

	output, err := runApp(t, env, "note", "--title=cli test note", "--content=hello from the cli")
	if err != nil {
		t.Fatalf("note command failed: %v", err)
	}

	parsed := parseJSON(t, output)
	if parsed["id"] == "" {
		t.Error("expected non-empty id")
	}
	if parsed["kind"] != "note" {
		t.Errorf("expected kind=note, got %v", parsed["kind"])
	}
	if parsed["title"] != "cli test note" {
		t.Errorf("expected title=cli test note, got %v", parsed["title"])
	}
}

// TestCLINote_StdinContent tests reading the note body from piped stdin.
func TestCLINote_StdinContent(t *testing.T) {
	env := setupTestEnv(t)

	oldStdin := os.Stdin
	stdinR, stdinW, _ := os.Pipe()
	os.Stdin = stdinR
	go func() {
		_, _ = stdinW.WriteString("piped body\n")
		stdinW.Close()
	}()

	output, err := runApp(t, env, "note", "--title=piped note")
	os.Stdin = oldStdin

	if err != nil {
		t.Fatalf("note command failed: %v", err)
	}

	parsed := parseJSON(t, output)
	detail := parsed["detail"].(map[string]any)
	if detail["content"] != "piped body" {
		t.Errorf("expected content=piped body, got %v", detail["content"])
	}
}

// TestCLIBookmark tests the bookmark command.
func TestCLIBookmark(t *testing.T) {
	env := setupTestEnv(t)

	output, err := runApp(t, env, "bookmark", "https://go.dev", "--title=Go")
	if err != nil {
		t.Fatalf("bookmark command failed: %v", err)
	}

	parsed := parseJSON(t, output)
	if parsed["kind"] != "link" {
		t.Errorf("expected kind=link, got %v", parsed["kind"])
	}
	detail := parsed["detail"].(map[string]any)
	if detail["url"] != "https://go.dev" {
		t.Errorf("expected url=https://go.dev, got %v", detail["url"])
	}
}

// TestCLIGet tests the get command.
func TestCLIGet(t *testing.T) {
	env := setupTestEnv(t)

	created, err := ops.CreateNote(env, ops.CreateNoteInput{Title: "get-test", Content: "body"})
	if err != nil {
		t.Fatalf("failed to create test note: %v", err)
	}

	output, err := runApp(t, env, "get", created.ID)
	if err != nil {
		t.Fatalf("get command failed: %v", err)
	}

	parsed := parseJSON(t, output)
	if parsed["id"] != created.ID {
		t.Errorf("expected id=%s, got %v", created.ID, parsed["id"])
	}
}

// TestCLIList tests the list command.
func TestCLIList(t *testing.T) {
	env := setupTestEnv(t)

	for _, title := range []string{"list-a", "list-b", "list-c"} {
		if _, err := ops.CreateNote(env, ops.CreateNoteInput{Title: title}); err != nil {
			t.Fatalf("failed to create test note: %v", err)
		}
	}
	if _, err := ops.CreateTag(env, ops.CreateTagInput{Name: "list-tag"}); err != nil {
		t.Fatalf("failed to create test tag: %v", err)
	}

	t.Run("all nodes", func(t *testing.T) {
		output, err := runApp(t, env, "list")
		if err != nil {
			t.Fatalf("list command failed: %v", err)
		}

		parsed := parseJSON(t, output)
		if int(parsed["total"].(float64)) != 4 {
			t.Errorf("expected total=4, got %v", parsed["total"])
		}
	})

	t.Run("filter by kind", func(t *testing.T) {
		output, err := runApp(t, env, "list", "--kind=tag")
		if err != nil {
			t.Fatalf("list command failed: %v", err)
		}

		parsed := parseJSON(t, output)
		if int(parsed["total"].(float64)) != 1 {
			t.Errorf("expected total=1, got %v", parsed["total"])
		}
	})
}

// TestCLIUpdate tests the update command.
func TestCLIUpdate(t *testing.T) {
	env := setupTestEnv(t)

	created, err := ops.CreateNote(env, ops.CreateNoteInput{Title: "update-test", Content: "old"})
	if err != nil {
		t.Fatalf("failed to create test note: %v", err)
	}

	output, err := runApp(t, env, "update", created.ID, "--content=new", "--public=true")
	if err != nil {
		t.Fatalf("update command failed: %v", err)
	}

	parsed := parseJSON(t, output)
	if int(parsed["version"].(float64)) != 2 {
		t.Errorf("expected version=2, got %v", parsed["version"])
	}
	if parsed["is_public"] != true {
		t.Errorf("expected is_public=true, got %v", parsed["is_public"])
	}

	// Verify the update
	fetched, err := ops.GetNode(env, ops.GetNodeInput{ID: created.ID})
	if err != nil {
		t.Fatalf("failed to fetch updated node: %v", err)
	}
	if fetched.Detail.SearchText() != "new" {
		t.Errorf("expected content=new, got %q", fetched.Detail.SearchText())
	}
}

// TestCLIDelete tests the delete command.
func TestCLIDelete(t *testing.T) {
	env := setupTestEnv(t)

	created, err := ops.CreateNote(env, ops.CreateNoteInput{Title: "delete-test"})
	if err != nil {
		t.Fatalf("failed to create test note: %v", err)
	}

	output, err := runApp(t, env, "delete", created.ID)
	if err != nil {
		t.Fatalf("delete command failed: %v", err)
	}

	var parsed ops.DeleteNodeOutput
	if err := json.Unmarshal([]byte(output), &parsed); err != nil {
		t.Fatalf("failed to parse output: %v", err)
	}
	if parsed.ID != created.ID {
		t.Errorf("expected id=%s, got %s", created.ID, parsed.ID)
	}
}

// TestCLIConnect tests the connect command.
func TestCLIConnect(t *testing.T) {
	env := setupTestEnv(t)

	a, err := ops.CreateNote(env, ops.CreateNoteInput{Title: "connect-a"})
	if err != nil {
		t.Fatalf("failed to create test note: %v", err)
	}
	b, err := ops.CreateNote(env, ops.CreateNoteInput{Title: "connect-b"})
	if err != nil {
		t.Fatalf("failed to create test note: %v", err)
	}

	output, err := runApp(t, env, "connect", a.ID, b.ID, "--type=contains", "--bidirectional=false")
	if err != nil {
		t.Fatalf("connect command failed: %v", err)
	}

	parsed := parseJSON(t, output)
	if parsed["type"] != "contains" {
		t.Errorf("expected type=contains, got %v", parsed["type"])
	}
	if parsed["is_bidirectional"] != false {
		t.Errorf("expected is_bidirectional=false, got %v", parsed["is_bidirectional"])
	}
}

// TestCLISearch tests the search command.
func TestCLISearch(t *testing.T) {
	env := setupTestEnv(t)

	if _, err := ops.CreateNote(env, ops.CreateNoteInput{Title: "search target", Content: "about lighthouses"}); err != nil {
		t.Fatalf("failed to create test note: %v", err)
	}

	output, err := runApp(t, env, "search", "lighthouses")
	if err != nil {
		t.Fatalf("search command failed: %v", err)
	}

	parsed := parseJSON(t, output)
	if int(parsed["total"].(float64)) != 1 {
		t.Errorf("expected total=1, got %v", parsed["total"])
	}
}

// TestCLIReview tests the due and review commands together.
func TestCLIReview(t *testing.T) {
	env := setupTestEnv(t)

	card, err := ops.CreateCard(env, ops.CreateCardInput{Front: "q", Back: "a"})
	if err != nil {
		t.Fatalf("failed to create test card: %v", err)
	}

	output, err := runApp(t, env, "due")
	if err != nil {
		t.Fatalf("due command failed: %v", err)
	}
	parsed := parseJSON(t, output)
	if int(parsed["total"].(float64)) != 1 {
		t.Fatalf("expected 1 due card, got %v", parsed["total"])
	}

	output, err = runApp(t, env, "review", card.ID, "--quality=4")
	if err != nil {
		t.Fatalf("review command failed: %v", err)
	}
	parsed = parseJSON(t, output)
	detail := parsed["detail"].(map[string]any)
	schedule := detail["schedule"].(map[string]any)
	if int(schedule["repetitions"].(float64)) != 1 {
		t.Errorf("expected repetitions=1, got %v", schedule["repetitions"])
	}

	output, err = runApp(t, env, "due")
	if err != nil {
		t.Fatalf("due command failed: %v", err)
	}
	parsed = parseJSON(t, output)
	if int(parsed["total"].(float64)) != 0 {
		t.Errorf("expected 0 due cards after review, got %v", parsed["total"])
	}
}

// TestCLIPublish tests the publish command.
func TestCLIPublish(t *testing.T) {
	env := setupTestEnv(t)

	if _, err := ops.CreateNote(env, ops.CreateNoteInput{Title: "public note", IsPublic: true}); err != nil {
		t.Fatalf("failed to create test note: %v", err)
	}

	dir := filepath.Join(t.TempDir(), "site")
	output, err := runApp(t, env, "publish", "--dir="+dir)
	if err != nil {
		t.Fatalf("publish command failed: %v", err)
	}

	parsed := parseJSON(t, output)
	if int(parsed["total"].(float64)) != 2 {
		t.Errorf("expected total=2, got %v", parsed["total"])
	}
	if _, err := os.Stat(filepath.Join(dir, "index.html")); err != nil {
		t.Errorf("index.html not written: %v", err)
	}
}

// TestCLIErrorHandling tests error handling in CLI commands.
func TestCLIErrorHandling(t *testing.T) {
	env := setupTestEnv(t)

	t.Run("get not found returns error", func(t *testing.T) {
		_, err := runApp(t, env, "get", "nonexistent")
		if err == nil {
			t.Error("expected error, got nil")
		}
	})

	t.Run("delete not found returns error", func(t *testing.T) {
		_, err := runApp(t, env, "delete", "nonexistent")
		if err == nil {
			t.Error("expected error, got nil")
		}
	})

	t.Run("invalid as-of format returns error", func(t *testing.T) {
		_, err := runApp(t, env, "due", "--as-of=yesterday")
		if err == nil {
			t.Error("expected error, got nil")
		}
	})

	t.Run("connect with one id returns error", func(t *testing.T) {
		_, err := runApp(t, env, "connect", "only-one")
		if err == nil {
			t.Error("expected error, got nil")
		}
	})
}

// TestIsCLIMode tests the isCLIMode function.
func TestIsCLIMode(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		expected bool
	}{
		{
			name:     "no args",
			args:     []string{"lattice"},
			expected: false,
		},
		{
			name:     "note command",
			args:     []string{"lattice", "note"},
			expected: true,
		},
		{
			name:     "search command",
			args:     []string{"lattice", "search"},
			expected: true,
		},
		{
			name:     "help flag",
			args:     []string{"lattice", "--help"},
			expected: true,
		},
		{
			name:     "version flag",
			args:     []string{"lattice", "--version"},
			expected: true,
		},
		{
			name:     "short help flag",
			args:     []string{"lattice", "-h"},
			expected: true,
		},
		{
			name:     "short version flag",
			args:     []string{"lattice", "-v"},
			expected: true,
		},
		{
			name:     "unknown arg defaults to MCP",
			args:     []string{"lattice", "--unknown"},
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Save and restore os.Args
			oldArgs := os.Args
			defer func() { os.Args = oldArgs }()

			os.Args = tt.args
			result := isCLIMode()

			if result != tt.expected {
				t.Errorf("expected %v, got %v", tt.expected, result)
			}
		})
	}
}

// TestIsHelpOrVersion tests the isHelpOrVersion function.
func TestIsHelpOrVersion(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		expected bool
	}{
		{
			name:     "no args",
			args:     []string{"lattice"},
			expected: false,
		},
		{
			name:     "help flag",
			args:     []string{"lattice", "--help"},
			expected: true,
		},
		{
			name:     "short help flag",
			args:     []string{"lattice", "-h"},
			expected: true,
		},
		{
			name:     "version flag",
			args:     []string{"lattice", "--version"},
			expected: true,
		},
		{
			name:     "short version flag",
			args:     []string{"lattice", "-v"},
			expected: true,
		},
		{
			name:     "help subcommand",
			args:     []string{"lattice", "help"},
			expected: true,
		},
		{
			name:     "note command is not help",
			args:     []string{"lattice", "note"},
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			oldArgs := os.Args
			defer func() { os.Args = oldArgs }()

			os.Args = tt.args
			result := isHelpOrVersion()

			if result != tt.expected {
				t.Errorf("expected %v, got %v", tt.expected, result)
			}
		})
	}
}

// TestReadStdin tests the readStdin helper.
func TestReadStdin(t *testing.T) {
	content := "  stdin content\n"
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("failed to create pipe: %v", err)
	}

	go func() {
		_, _ = w.WriteString(content)
		w.Close()
	}()

	oldStdin := os.Stdin
	os.Stdin = r
	defer func() { os.Stdin = oldStdin }()

	result, err := readStdin()
	if err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if result != "stdin content" {
		t.Errorf("expected trimmed content, got %q", result)
	}
}
