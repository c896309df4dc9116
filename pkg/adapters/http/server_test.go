package http_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/softgrove/vellum/pkg/adapters/file"
	httpadapter "github.com/softgrove/vellum/pkg/adapters/http"
	"github.com/softgrove/vellum/pkg/domain"
)

func newTestServer(t *testing.T) (*httptest.Server, *file.StateStore, *file.ChapterLog, *file.LinkIndex) {
	t.Helper()
	dir := t.TempDir()
	states := file.NewStateStore(dir)
	chapters := file.NewChapterLog(dir)
	links := file.NewLinkIndex(dir)
	handler := httpadapter.NewHandler(states, chapters, httpadapter.WithLinkStore(links))
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv, states, chapters, links
}

func get(t *testing.T, url string, out any) int {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	if out != nil && resp.StatusCode == http.StatusOK {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func TestServerHealth(t *testing.T) {
	srv, _, _, _ := newTestServer(t)
	var body map[string]string
	require.Equal(t, http.StatusOK, get(t, srv.URL+"/health", &body))
	assert.Equal(t, "ok", body["status"])
}

func TestServerListSessions(t *testing.T) {
	srv, states, _, _ := newTestServer(t)
	ctx := context.Background()

	state, err := states.Initialize(ctx, "alpha")
	require.NoError(t, err)
	state = state.ApplyChoice("go north")
	require.NoError(t, states.Save(ctx, "alpha", state))

	var sessions []struct {
		ID       string `json:"id"`
		Chapters int    `json:"chapters"`
	}
	require.Equal(t, http.StatusOK, get(t, srv.URL+"/sessions", &sessions))
	require.Len(t, sessions, 1)
	assert.Equal(t, "alpha", sessions[0].ID)
	assert.Equal(t, 1, sessions[0].Chapters)
}

func TestServerListSkipsCorruptSession(t *testing.T) {
	srv, states, _, _ := newTestServer(t)
	ctx := context.Background()

	_, err := states.Initialize(ctx, "good")
	require.NoError(t, err)
	_, err = states.Initialize(ctx, "bad")
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(states.BasePath, "bad", "world.yaml"), []byte("\t{broken"), 0o644))

	var sessions []struct {
		ID string `json:"id"`
	}
	require.Equal(t, http.StatusOK, get(t, srv.URL+"/sessions", &sessions))
	require.Len(t, sessions, 1)
	assert.Equal(t, "good", sessions[0].ID)
}

func TestServerGetSession(t *testing.T) {
	srv, states, _, _ := newTestServer(t)
	ctx := context.Background()

	state, err := states.Initialize(ctx, "alpha")
	require.NoError(t, err)
	state.Player["name"] = "Wren"
	require.NoError(t, states.Save(ctx, "alpha", state))

	var body struct {
		ID     string         `json:"id"`
		Player map[string]any `json:"player"`
		Meta   struct {
			Version string `json:"version"`
		} `json:"meta"`
	}
	require.Equal(t, http.StatusOK, get(t, srv.URL+"/sessions/alpha", &body))
	assert.Equal(t, "alpha", body.ID)
	assert.Equal(t, "Wren", body.Player["name"])
	assert.Equal(t, domain.SchemaVersion, body.Meta.Version)
}

func TestServerGetSessionNotFound(t *testing.T) {
	srv, _, _, _ := newTestServer(t)
	assert.Equal(t, http.StatusNotFound, get(t, srv.URL+"/sessions/ghost", nil))
}

func TestServerChapters(t *testing.T) {
	srv, _, chapters, _ := newTestServer(t)
	ctx := context.Background()

	_, err := chapters.Append(ctx, "alpha", "First chapter")
	require.NoError(t, err)
	_, err = chapters.Append(ctx, "alpha", "Second chapter")
	require.NoError(t, err)

	var latest struct {
		Seq  int    `json:"seq"`
		Text string `json:"text"`
	}
	require.Equal(t, http.StatusOK, get(t, srv.URL+"/sessions/alpha/chapters/latest", &latest))
	assert.Equal(t, 2, latest.Seq)
	assert.Equal(t, "Second chapter", latest.Text)

	var first struct {
		Text string `json:"text"`
	}
	require.Equal(t, http.StatusOK, get(t, srv.URL+"/sessions/alpha/chapters/1", &first))
	assert.Equal(t, "First chapter", first.Text)

	assert.Equal(t, http.StatusNotFound, get(t, srv.URL+"/sessions/alpha/chapters/9", nil))
	assert.Equal(t, http.StatusBadRequest, get(t, srv.URL+"/sessions/alpha/chapters/zero", nil))
	assert.Equal(t, http.StatusNotFound, get(t, srv.URL+"/sessions/ghost/chapters/latest", nil))
}

func TestServerLinks(t *testing.T) {
	srv, _, _, links := newTestServer(t)
	ctx := context.Background()

	ref := domain.ChapterRef{Namespace: "alpha", Seq: 2}
	require.NoError(t, links.Put(ctx, "alpha", ref, []string{"the keeper"}))

	var index map[string][]string
	require.Equal(t, http.StatusOK, get(t, srv.URL+"/sessions/alpha/links", &index))
	assert.Equal(t, []string{"the keeper"}, index["2"])
}

func TestServerMetrics(t *testing.T) {
	srv, _, _, _ := newTestServer(t)
	resp, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
