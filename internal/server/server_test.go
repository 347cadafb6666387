package server

import (
	"bytes"
	"context"
	"image"
	"image/png"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"tornado/internal/assets"
	"tornado/internal/canvas"
	"tornado/internal/docstore"
)

func newTestServer(t *testing.T) (*httptest.Server, *docstore.SQLiteStore) {
	t.Helper()
	dir := t.TempDir()
	store, err := docstore.OpenSQLite(filepath.Join(dir, "boards.db"), zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	srv := httptest.NewServer(New(store, filepath.Join(dir, "assets"), zap.NewNop(), Options{}))
	t.Cleanup(srv.Close)
	return srv, store
}

func board() []canvas.Node {
	return []canvas.Node{
		{ID: "a", Type: canvas.TypeText, X: 1, Y: 2, Width: 220, Height: 150, ZIndex: 1, Color: "pink", Content: "plan", FontScale: 1, TextAlign: "left"},
		{ID: "b", Type: canvas.TypeEmoji, X: 50, Y: 60, Width: 120, Height: 120, ZIndex: 2, Content: "🔥", FontScale: 4},
	}
}

func TestRemoteStoreAgainstServer(t *testing.T) {
	ctx := context.Background()
	srv, _ := newTestServer(t)
	remote := docstore.NewRemoteStore(srv.URL, srv.Client(), zap.NewNop())

	_, err := remote.Load(ctx, "nope")
	assert.ErrorIs(t, err, docstore.ErrNotFound)

	p, err := remote.Create(ctx, "Roadmap")
	require.NoError(t, err)
	assert.Equal(t, "Roadmap", p.Name)
	assert.NotEmpty(t, p.ID)

	nodes, err := remote.Load(ctx, p.ID)
	require.NoError(t, err)
	assert.Empty(t, nodes)

	require.NoError(t, remote.Save(ctx, p.ID, board()))
	nodes, err = remote.Load(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, board(), nodes)

	require.NoError(t, remote.Rename(ctx, p.ID, "Roadmap 2"))
	list, err := remote.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Roadmap 2", list[0].Name)

	require.NoError(t, remote.Delete(ctx, p.ID))
	assert.ErrorIs(t, remote.Delete(ctx, p.ID), docstore.ErrNotFound)
	assert.ErrorIs(t, remote.Rename(ctx, p.ID, "x"), docstore.ErrNotFound)
}

func TestSaveCreatesProjectAndDropsInvalid(t *testing.T) {
	ctx := context.Background()
	srv, store := newTestServer(t)

	body := `[{"id":"ok","type":"text","x":0,"y":0,"width":220,"height":150,"zIndex":1,"content":"hi"},
		{"id":"bad","type":"sticker","width":10,"height":10}]`
	req, err := http.NewRequest(http.MethodPut, srv.URL+"/projects/fresh/nodes", strings.NewReader(body))
	require.NoError(t, err)
	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	nodes, err := store.Load(ctx, "fresh")
	require.NoError(t, err)
	require.Len(t, nodes, 1)
	assert.Equal(t, "ok", nodes[0].ID)

	list, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, docstore.DefaultProjectName, list[0].Name)
}

func TestBadRequests(t *testing.T) {
	srv, _ := newTestServer(t)

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		want   int
	}{
		{"malformed nodes", http.MethodPut, "/projects/p/nodes", "{", http.StatusBadRequest},
		{"empty name", http.MethodPost, "/projects", `{"name":"  "}`, http.StatusBadRequest},
		{"not json", http.MethodPost, "/projects", "name=x", http.StatusBadRequest},
		{"missing file", http.MethodPost, "/assets", "", http.StatusBadRequest},
		{"unknown asset", http.MethodGet, "/assets/missing.jpg", "", http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := http.NewRequest(tt.method, srv.URL+tt.path, strings.NewReader(tt.body))
			require.NoError(t, err)
			resp, err := srv.Client().Do(req)
			require.NoError(t, err)
			resp.Body.Close()
			assert.Equal(t, tt.want, resp.StatusCode)
		})
	}
}

func TestAssetUploadAndServe(t *testing.T) {
	srv, _ := newTestServer(t)

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewGray(image.Rect(0, 0, 4, 4))))
	up := assets.NewRemoteUploader(srv.URL, srv.Client())

	link, err := up.Upload(context.Background(), "dot.png", buf.Bytes())
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(link, srv.URL+"/assets/"), link)

	resp, err := srv.Client().Get(link)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	got, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, buf.Bytes(), got)

	_, err = up.Upload(context.Background(), "notes.txt", []byte("plain text"))
	assert.ErrorContains(t, err, "415")
}

func TestAssetLinksUsePublicURL(t *testing.T) {
	dir := t.TempDir()
	store, err := docstore.OpenSQLite(filepath.Join(dir, "boards.db"), nil)
	require.NoError(t, err)
	defer store.Close()
	srv := httptest.NewServer(New(store, dir, nil, Options{PublicURL: "https://boards.example.com/"}))
	defer srv.Close()

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewGray(image.Rect(0, 0, 2, 2))))
	link, err := assets.NewRemoteUploader(srv.URL, srv.Client()).Upload(context.Background(), "a.png", buf.Bytes())
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(link, "https://boards.example.com/assets/"), link)
}

func TestHealthAndMetrics(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, err := srv.Client().Get(srv.URL + "/healthz")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = srv.Client().Get(srv.URL + "/projects")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.JSONEq(t, "[]", string(body))

	resp, err = srv.Client().Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	metrics, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(metrics), `tornado_http_requests_total{method="GET",route="/healthz",status="200"} 1`)
	assert.Contains(t, string(metrics), "tornado_http_request_duration_seconds")
}
