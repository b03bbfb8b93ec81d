package service

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"docbin/internal/metrics"
	"docbin/internal/model"
	"docbin/internal/notify"
	repoMocks "docbin/internal/repository/mocks"
	storeMocks "docbin/internal/storage/mocks"
)

const testRoot = "/srv/docbin"

var t0 = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

type recordingNotifier struct {
	mu     sync.Mutex
	events []notify.Event
	err    error
}

func (n *recordingNotifier) Notify(_ context.Context, e notify.Event) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, e)
	return n.err
}

type fixture struct {
	repo    *repoMocks.TreeStore
	mirror  *storeMocks.MemoryMirror
	notes   *recordingNotifier
	metrics *metrics.Metrics
	logs    *bytes.Buffer
	now     time.Time
	svc     LifecycleService
}

// newFixture builds a service over an empty tree and a mirror holding the given objects,
// relative to the storage root.
func newFixture(t *testing.T, objects ...string) *fixture {
	t.Helper()
	abs := make([]string, 0, len(objects))
	for _, o := range objects {
		abs = append(abs, filepath.Join(testRoot, o))
	}
	fx := &fixture{
		repo:    repoMocks.NewTreeStore(),
		mirror:  storeMocks.NewMemoryMirror(abs...),
		notes:   &recordingNotifier{},
		metrics: metrics.New(prometheus.NewRegistry()),
		logs:    &bytes.Buffer{},
		now:     t0,
	}
	fx.svc = NewLifecycleService(fx.repo, fx.mirror, Options{
		StorageRoot: testRoot,
		Clock:       func() time.Time { return fx.now },
		Logger:      zerolog.New(fx.logs),
		Metrics:     fx.metrics,
		Notifier:    fx.notes,
	})
	return fx
}

// newABF builds /A containing subfolder /A/B and file /A/f.txt.
func newABF(t *testing.T) *fixture {
	fx := newFixture(t, "A/f.txt", "A/B/.keep")
	fx.folder("A", nil, "A")
	fx.folder("B", strPtr("A"), "A/B")
	fx.file("f", strPtr("A"), "A/f.txt")
	return fx
}

func strPtr(s string) *string { return &s }

func (fx *fixture) folder(id string, parent *string, path string) {
	fx.repo.PutFolder(model.Folder{ID: id, Name: filepath.Base(path), Path: path, ParentID: parent, OwnerID: "owner-1", CreatedAt: t0})
}

func (fx *fixture) file(id string, folder *string, path string) {
	fx.repo.PutFile(model.File{ID: id, Name: filepath.Base(path), Path: path, FolderID: folder, OwnerID: "owner-1", Type: "text/plain", Size: 4, CreatedAt: t0})
}

func (fx *fixture) mustFolder(t *testing.T, id string) model.Folder {
	t.Helper()
	f, err := fx.repo.FindFolder(context.Background(), id)
	if err != nil {
		t.Fatalf("folder %s: %v", id, err)
	}
	return *f
}

func (fx *fixture) mustFile(t *testing.T, id string) model.File {
	t.Helper()
	f, err := fx.repo.FindFile(context.Background(), id)
	if err != nil {
		t.Fatalf("file %s: %v", id, err)
	}
	return *f
}

var errBoom = errors.New("boom")

var alice = Actor{ID: "user-alice", Role: "admin"}

func fileRef(id string) model.EntityRef {
	return model.EntityRef{Kind: model.KindFile, ID: id}
}
