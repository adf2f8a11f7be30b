package storage

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/target/trendscout/internal/core"
)

// fakeStorage keeps objects in memory and mimics the storage API responses.
type fakeStorage struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func (f *fakeStorage) handler(t *testing.T) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /object/videos/{name}", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer key", r.Header.Get("Authorization"))
		assert.Equal(t, "true", r.Header.Get("x-upsert"))
		data, _ := io.ReadAll(r.Body)
		f.mu.Lock()
		f.objects[r.PathValue("name")] = data
		f.mu.Unlock()
		_, _ = w.Write([]byte(`{"Key":"videos/` + r.PathValue("name") + `"}`))
	})
	mux.HandleFunc("DELETE /object/videos", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Prefixes []string `json:"prefixes"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		f.mu.Lock()
		defer f.mu.Unlock()
		removed := []map[string]string{}
		for _, p := range body.Prefixes {
			if _, ok := f.objects[p]; ok {
				delete(f.objects, p)
				removed = append(removed, map[string]string{"name": p})
			}
		}
		_ = json.NewEncoder(w).Encode(removed)
	})
	return mux
}

func newTestBucket(t *testing.T) (*Bucket, *fakeStorage) {
	t.Helper()
	fs := &fakeStorage{objects: map[string][]byte{}}
	srv := httptest.NewServer(fs.handler(t))
	t.Cleanup(srv.Close)
	b, err := NewBucket(Config{BaseURL: srv.URL + "/", APIKey: "key", Bucket: "videos"})
	require.NoError(t, err)
	return b, fs
}

func TestBucket_UploadReturnsPublicURL(t *testing.T) {
	b, fs := newTestBucket(t)

	url, err := b.Upload(context.Background(), core.UploadParams{
		Name:  "tq_7301_1700000000.mp4",
		Media: &core.Media{Data: []byte("mp4"), ContentType: "video/mp4"},
	})
	require.NoError(t, err)
	assert.Equal(t, b.baseURL+"/object/public/videos/tq_7301_1700000000.mp4", url)
	assert.Equal(t, []byte("mp4"), fs.objects["tq_7301_1700000000.mp4"])
}

func TestBucket_DeleteIsIdempotent(t *testing.T) {
	b, _ := newTestBucket(t)
	ctx := context.Background()
	for _, n := range []string{"a.mp4", "b.mp4"} {
		_, err := b.Upload(ctx, core.UploadParams{Name: n, Media: &core.Media{Data: []byte("x"), ContentType: "video/mp4"}})
		require.NoError(t, err)
	}

	n, err := b.Delete(ctx, []string{"a.mp4", "b.mp4", "missing.mp4"})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	n, err = b.Delete(ctx, []string{"a.mp4", "b.mp4"})
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	n, err = b.Delete(ctx, []string{" "})
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestBucket_UploadValidation(t *testing.T) {
	b, _ := newTestBucket(t)
	_, err := b.Upload(context.Background(), core.UploadParams{Name: "x.mp4"})
	require.Error(t, err)

	_, err = NewBucket(Config{BaseURL: "http://x"})
	require.Error(t, err)
}

func TestBucket_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, `{"error":"Unauthorized"}`, http.StatusUnauthorized)
	}))
	defer srv.Close()

	b, err := NewBucket(Config{BaseURL: srv.URL, Bucket: "videos"})
	require.NoError(t, err)
	_, err = b.Delete(context.Background(), []string{"a.mp4"})
	require.ErrorContains(t, err, "status 401")
}
