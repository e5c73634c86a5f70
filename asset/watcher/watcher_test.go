package watcher

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/achilleasa/hptrace/asset/compiler/index"
	"github.com/fsnotify/fsnotify"
)

const (
	oneTriangle = `
v 0 0 0
v 1 0 0
v 0 1 0
f 1 2 3
`
	twoTriangles = oneTriangle + `
v 0 0 1
f 1 2 4
`
	brokenFace = oneTriangle + `
f 1 2 99
`
)

func writeScene(t *testing.T, path, payload string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(payload), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestWatcherReload(t *testing.T) {
	sceneFile := filepath.Join(t.TempDir(), "scene.obj")
	writeScene(t, sceneFile, oneTriangle)

	w, err := New(sceneFile, index.DefaultOptions(), 10*time.Millisecond)
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()

	first := w.Current()
	if got := len(first.Compiled.Scene.Geometries); got != 1 {
		t.Fatalf("expected 1 geometry; got %d", got)
	}

	writeScene(t, sceneFile, twoTriangles)
	second, err := w.Reload()
	if err != nil {
		t.Fatal(err)
	}
	if second.ID == first.ID {
		t.Fatal("expected reload to publish a snapshot with a new ID")
	}
	if w.Current() != second {
		t.Fatal("expected reloaded snapshot to become current")
	}
	if got := len(second.Compiled.Scene.Geometries); got != 2 {
		t.Fatalf("expected 2 geometries; got %d", got)
	}

	// Snapshots handed out earlier are not modified
	if got := len(first.Compiled.Scene.Geometries); got != 1 {
		t.Fatalf("expected old snapshot to keep 1 geometry; got %d", got)
	}

	// A failed rebuild keeps the previous snapshot
	writeScene(t, sceneFile, brokenFace)
	if _, err = w.Reload(); err == nil {
		t.Fatal("expected reload to fail")
	}
	if w.Current() != second {
		t.Fatal("expected failed reload to keep the previous snapshot")
	}
}

func TestWatcherMissingScene(t *testing.T) {
	if _, err := New(filepath.Join(t.TempDir(), "missing.obj"), index.DefaultOptions(), 0); err == nil {
		t.Fatal("expected an error for a missing scene")
	}
}

func TestWatcherPicksUpChanges(t *testing.T) {
	sceneFile := filepath.Join(t.TempDir(), "scene.obj")
	writeScene(t, sceneFile, oneTriangle)

	w, err := New(sceneFile, index.DefaultOptions(), 50*time.Millisecond)
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()

	if err = w.Start(); err != nil {
		t.Fatal(err)
	}
	first := w.Current()

	writeScene(t, sceneFile, twoTriangles)
	select {
	case snapshot := <-w.Updates():
		if snapshot.ID == first.ID {
			t.Fatal("expected a new snapshot")
		}
		if got := len(snapshot.Compiled.Scene.Geometries); got != 2 {
			t.Fatalf("expected 2 geometries; got %d", got)
		}
	case err := <-w.Errors():
		t.Fatal(err)
	case <-time.After(10 * time.Second):
		t.Fatal("timed out waiting for rebuild")
	}

	updated := w.Current()
	writeScene(t, sceneFile, brokenFace)
	select {
	case <-w.Errors():
	case snapshot := <-w.Updates():
		t.Fatalf("expected rebuild to fail; got snapshot %s", snapshot.ID)
	case <-time.After(10 * time.Second):
		t.Fatal("timed out waiting for rebuild error")
	}
	if w.Current() != updated {
		t.Fatal("expected failed rebuild to keep the previous snapshot")
	}

	w.Close()
	if err = w.Start(); err != ErrClosed {
		t.Fatalf("expected error %v; got %v", ErrClosed, err)
	}
}

func TestIsSceneAsset(t *testing.T) {
	type spec struct {
		ev  fsnotify.Event
		exp bool
	}

	specs := []spec{
		{fsnotify.Event{Name: "scene.obj", Op: fsnotify.Write}, true},
		{fsnotify.Event{Name: "lib/Materials.MTL", Op: fsnotify.Create}, true},
		{fsnotify.Event{Name: "scene.obj", Op: fsnotify.Rename}, true},
		{fsnotify.Event{Name: "scene.obj", Op: fsnotify.Chmod}, false},
		{fsnotify.Event{Name: "scene.obj", Op: fsnotify.Remove}, false},
		{fsnotify.Event{Name: "scene.obj.swp", Op: fsnotify.Write}, false},
	}

	for specIndex, s := range specs {
		if got := isSceneAsset(s.ev); got != s.exp {
			t.Errorf("[spec %d] expected %t; got %t", specIndex, s.exp, got)
		}
	}
}

func TestPublishKeepsLatest(t *testing.T) {
	ch := make(chan int, 1)
	publish(ch, 1)
	publish(ch, 2)
	if got := <-ch; got != 2 {
		t.Fatalf("expected latest value 2; got %d", got)
	}
}
