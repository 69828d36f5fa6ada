package main

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"browser-guide/internal/domain/entity"
	"browser-guide/internal/infrastructure/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetArgs(args)
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(strings.NewReader(""))
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestCommandFlags(t *testing.T) {
	root := newRootCmd()

	for _, name := range []string{"state", "provider", "log-level"} {
		assert.NotNil(t, root.PersistentFlags().Lookup(name), "missing flag: --%s", name)
	}

	expected := map[string][]string{
		"run":   {"url", "goal", "headless", "control"},
		"proxy": {"addr", "model"},
		"plan":  {"html", "url", "goal", "timeout"},
	}
	for use, flags := range expected {
		cmd, _, err := root.Find([]string{use})
		require.NoError(t, err)
		for _, name := range flags {
			assert.NotNil(t, cmd.Flags().Lookup(name), "%s: missing flag --%s", use, name)
		}
	}
}

func TestStateShowAndClear(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.db")
	st, err := store.NewSQLiteStore(path)
	require.NoError(t, err)
	require.NoError(t, st.Save(context.Background(), entity.PersistedState{
		TaskID:      "task-1",
		IsActive:    true,
		Goal:        "Find pricing",
		CurrentStep: 2,
	}))
	require.NoError(t, st.Close())

	out, err := execute(t, "state", "show", "--state", path)
	require.NoError(t, err)
	assert.Contains(t, out, `"goal": "Find pricing"`)
	assert.Contains(t, out, `"isActive": true`)

	out, err = execute(t, "state", "clear", "--state", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Saved navigation cleared")

	out, err = execute(t, "state", "show", "--state", path)
	require.NoError(t, err)
	assert.Contains(t, out, "No saved navigation")
}

func newRelay(t *testing.T, reply string) {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/chat" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"id":"1","object":"chat.completion","choices":[{"index":0,"message":{"role":"assistant","content":%q}}]}`, reply)
	}))
	t.Cleanup(srv.Close)

	t.Setenv("GUIDE_PROVIDER", "relay")
	t.Setenv("GUIDE_SERVER_URL", srv.URL)
	t.Setenv("GUIDE_LOG_LEVEL", "error")
}

func writePage(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "page.html")
	require.NoError(t, os.WriteFile(path, []byte(`<html><body>
		<button>Menu</button>
		<a href="/docs">Docs</a>
	</body></html>`), 0o644))
	return path
}

func TestPlan_PrintsNextStep(t *testing.T) {
	newRelay(t, "ELEMENT_ID: elem_1\nACTION: click\nINSTRUCTION: Open the docs\nREASONING: docs hold the answer")

	out, err := execute(t, "plan", "--html", writePage(t), "--url", "https://site.test/", "--goal", "Read the docs")
	require.NoError(t, err)
	assert.Contains(t, out, `elem_1: [a] "Docs" href="/docs"`)
	assert.Contains(t, out, "CLICK: Open the docs")
}

func TestPlan_GoalAlreadyReached(t *testing.T) {
	newRelay(t, "ELEMENT_ID: NONE")

	out, err := execute(t, "plan", "--html", writePage(t), "--url", "https://site.test/", "--goal", "Be on the site")
	require.NoError(t, err)
	assert.Contains(t, out, "Goal already reached on this page")
}

func TestPlan_RequiresURL(t *testing.T) {
	_, err := execute(t, "plan", "--goal", "anything")
	assert.ErrorContains(t, err, "--url is required")
}
