//go:build !integration

package supabase

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"lovelace-tutor/internal/config"
	"lovelace-tutor/internal/domain"
	"lovelace-tutor/internal/domain/model"
)

// fakeSupabase serves the subset of the storage and PostgREST APIs the
// package talks to.
type fakeSupabase struct {
	mu       sync.Mutex
	objects  map[string][]byte
	inserted []map[string]any
	rpcBody  map[string]any
	rpcReply string
}

func (f *fakeSupabase) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	const objPrefix = "/storage/v1/object/"
	switch {
	case strings.HasPrefix(r.URL.Path, objPrefix) && r.Method == http.MethodPost:
		body, _ := io.ReadAll(r.Body)
		f.objects[strings.TrimPrefix(r.URL.Path, objPrefix)] = body
		_, _ = w.Write([]byte(`{"Key":"ok"}`))
	case strings.HasPrefix(r.URL.Path, objPrefix) && r.Method == http.MethodGet:
		data, ok := f.objects[strings.TrimPrefix(r.URL.Path, objPrefix)]
		if !ok {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"statusCode":"404","error":"not_found","message":"Object not found"}`))
			return
		}
		_, _ = w.Write(data)
	case r.URL.Path == "/rest/v1/rag_chunks" && r.Method == http.MethodPost:
		var rows []map[string]any
		_ = json.NewDecoder(r.Body).Decode(&rows)
		f.inserted = append(f.inserted, rows...)
		w.WriteHeader(http.StatusCreated)
	case r.URL.Path == "/rest/v1/rpc/match_rag_chunks":
		_ = json.NewDecoder(r.Body).Decode(&f.rpcBody)
		_, _ = w.Write([]byte(f.rpcReply))
	default:
		http.NotFound(w, r)
	}
}

func newFake(t *testing.T) (*fakeSupabase, *Client, string) {
	t.Helper()
	f := &fakeSupabase{objects: map[string][]byte{}}
	srv := httptest.NewServer(f)
	t.Cleanup(srv.Close)
	c, err := NewClient(config.SupabaseConfig{URL: srv.URL, ServiceRoleKey: "service-key", Bucket: "lovelace"})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return f, c, srv.URL
}

func TestJobStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	f, c, _ := newFake(t)
	store := NewJobStore(c)

	if _, err := store.Get(ctx, "missing"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	job := model.NewAnimationJob("j1", "area under a curve", "class A(Scene): pass", time.Now())
	if err := store.Save(ctx, job); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if _, ok := f.objects["lovelace/manim-jobs/j1.json"]; !ok {
		t.Fatalf("expected object at manim-jobs/j1.json, have %v", f.objects)
	}

	got, err := store.Get(ctx, "j1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.ID != "j1" || got.GeneratedCode != job.GeneratedCode || got.Status != model.AnimationJobQueued {
		t.Fatalf("unexpected job %+v", got)
	}
}

func TestJobStore_RejectsPathLikeIDs(t *testing.T) {
	ctx := context.Background()
	f, c, _ := newFake(t)
	f.objects["lovelace/secrets.json"] = []byte(`{"id":"x","status":"completed"}`)
	store := NewJobStore(c)

	for _, id := range []string{"../secrets", "a/../../secrets", `..\secrets`, ""} {
		if _, err := store.Get(ctx, id); !errors.Is(err, domain.ErrNotFound) {
			t.Fatalf("Get(%q): expected ErrNotFound, got %v", id, err)
		}
	}
	job := model.NewAnimationJob("../evil", "q", "code", time.Now())
	if err := store.Save(ctx, job); !errors.Is(err, domain.ErrInvalidArgument) {
		t.Fatalf("Save: expected ErrInvalidArgument, got %v", err)
	}
	if len(f.objects) != 1 {
		t.Fatalf("no object should be written, have %v", f.objects)
	}
}

func TestVideoStore_PutReturnsPublicURL(t *testing.T) {
	f, c, base := newFake(t)
	vs := NewVideoStore(c)

	url, err := vs.PutVideo(context.Background(), "manim-renders/j1.mp4", []byte("mp4"))
	if err != nil {
		t.Fatalf("PutVideo: %v", err)
	}
	if want := base + "/storage/v1/object/public/lovelace/manim-renders/j1.mp4"; url != want {
		t.Fatalf("url = %s, want %s", url, want)
	}
	if string(f.objects["lovelace/manim-renders/j1.mp4"]) != "mp4" {
		t.Fatalf("video bytes not stored")
	}
}

func TestRAGChunkRepo_InsertAndMatch(t *testing.T) {
	ctx := context.Background()
	f, c, _ := newFake(t)
	repo := NewRAGChunkRepo(c)

	err := repo.Insert(ctx, []*model.RAGChunk{
		{LessonID: "l1", SourceType: model.SourceNotesOrTextbook, SourceName: "n.md", Content: "x", ContentHash: "h", Embedding: []float32{0.1}},
	})
	if err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if len(f.inserted) != 1 || f.inserted[0]["lesson_id"] != "l1" || f.inserted[0]["id"] == "" {
		t.Fatalf("unexpected inserted rows %v", f.inserted)
	}

	f.rpcReply = `[{"source_name":"n.md","source_type":"notes_or_textbook","content":"x","chunk_index":0,"page":null,"similarity":0.9}]`
	got, err := repo.Match(ctx, "l1", []float32{0.1}, 6)
	if err != nil {
		t.Fatalf("Match: %v", err)
	}
	if len(got) != 1 || got[0].Score != 0.9 || got[0].ChunkIndex == nil || got[0].Page != nil {
		t.Fatalf("unexpected match %+v", got)
	}
	if f.rpcBody["lesson_id"] != "l1" || f.rpcBody["match_count"] != float64(6) {
		t.Fatalf("unexpected rpc body %v", f.rpcBody)
	}

	f.rpcReply = `{"code":"42883","message":"function does not exist"}`
	if _, err := repo.Match(ctx, "l1", []float32{0.1}, 6); err == nil || !strings.Contains(err.Error(), "function does not exist") {
		t.Fatalf("expected rpc error, got %v", err)
	}
}
