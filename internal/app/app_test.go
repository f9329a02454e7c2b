package app

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Spotas/Ai-rewrite/internal/config"
	"github.com/Spotas/Ai-rewrite/internal/rewrite"
)

type captureInjector struct {
	text string
}

func (c *captureInjector) Inject(_ context.Context, _ rewrite.Location, text string) error {
	c.text = text
	return nil
}

func writeConfig(t *testing.T, baseURL string) *config.Config {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "airewrite.toml")
	body := fmt.Sprintf(`
[gemini]
api_key = "test-key"
base_url = %q

[retry]
attempts = 1

[storage]
path = %q
`, baseURL, filepath.Join(dir, "data", "airewrite.db"))
	require.NoError(t, os.WriteFile(path, []byte(body), 0600))

	cfg, err := config.LoadConfig(path)
	require.NoError(t, err)
	return cfg
}

func TestNew_EndToEnd(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-key", r.URL.Query().Get("key"))
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"candidates":[{"content":{"parts":[{"text":"Hello there, friend."}]}}]}`)
	}))
	defer srv.Close()

	cfg := writeConfig(t, srv.URL)
	inj := &captureInjector{}

	a, err := New(context.Background(), cfg, Surface{Injector: inj})
	require.NoError(t, err)

	out := a.Orchestrator.HandleTrigger(context.Background(), rewrite.Trigger{
		ModeID:   "casual",
		Text:     "Greetings, esteemed colleague.",
		Location: rewrite.Location{TabID: "cli"},
	})
	require.Equal(t, rewrite.StatusSuccess, out.Status, out.Message)
	assert.Equal(t, "Hello there, friend.", inj.text)

	require.NoError(t, a.Close())

	st, err := OpenStore(cfg)
	require.NoError(t, err)
	defer st.Close()
	stats, err := st.Summary(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, stats.TotalRewrites)
	assert.Equal(t, 1, stats.ModeUsage["casual"])
}

func TestNew_UnknownProvider(t *testing.T) {
	cfg := writeConfig(t, "http://127.0.0.1:1")
	cfg.Backend.Provider = "nope"

	_, err := New(context.Background(), cfg, Surface{Injector: &captureInjector{}})
	assert.Error(t, err)
}
