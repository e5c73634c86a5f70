package asset

import (
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLocalRelativeResource(t *testing.T) {
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, "models"), 0o755); err != nil {
		t.Fatal(err)
	}
	sceneFile := filepath.Join(dir, "scene.obj")
	if err := os.WriteFile(sceneFile, []byte("mtllib models/box.mtl\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "models", "box.mtl"), []byte("newmtl box\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	res, err := NewResource(sceneFile, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer res.Close()

	if res.IsRemote() {
		t.Fatal("expected local resource not to be flagged as remote")
	}
	if res.LocalPath() != sceneFile {
		t.Fatalf("expected local path to be %s; got %s", sceneFile, res.LocalPath())
	}

	inc, err := NewResource(`models\box.mtl`, res)
	if err != nil {
		t.Fatal(err)
	}
	defer inc.Close()

	data, err := io.ReadAll(inc)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "newmtl box\n" {
		t.Fatalf("expected to read included resource contents; got %q", string(data))
	}
}

func TestHttpResource(t *testing.T) {
	serverHits := 0
	serverFn := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		serverHits++
		switch r.URL.Path {
		case "/scenes/scene.obj", "/scenes/scene.mtl":
			w.Write([]byte("OK"))
		default:
			http.NotFound(w, r)
		}
	})
	server := httptest.NewServer(serverFn)
	defer server.Close()

	res, err := NewResource(server.URL+"/scenes/scene.obj", nil)
	if err != nil {
		t.Fatal(err)
	}
	defer res.Close()

	if !res.IsRemote() || res.LocalPath() != "" {
		t.Fatal("expected http resource to be flagged as remote")
	}

	inc, err := NewResource("scene.mtl", res)
	if err != nil {
		t.Fatal(err)
	}
	defer inc.Close()

	if serverHits != 2 {
		t.Fatalf("expected server to receive 2 requests; got %d", serverHits)
	}

	fetchURL := server.URL + "/file-not-found.obj"
	expError := fmt.Sprintf("resource: could not fetch '%s': status %d", fetchURL, 404)
	_, err = NewResource(fetchURL, nil)
	if err == nil || err.Error() != expError {
		t.Fatalf("expected to get: %s; got %v", expError, err)
	}
}

func TestUnsupportedResourceScheme(t *testing.T) {
	expError := "resource: unsupported scheme 'gopher'"
	_, err := NewResource("gopher://digging.obj", nil)
	if err == nil || err.Error() != expError {
		t.Fatalf("expected to get: %s; got %v", expError, err)
	}
}

func TestStreamResource(t *testing.T) {
	res := NewResourceFromStream("embedded.obj", strings.NewReader("v 0 0 0"))
	defer res.Close()

	if res.Path() != "embedded.obj" {
		t.Fatalf("expected path to be embedded.obj; got %s", res.Path())
	}
	data, _ := io.ReadAll(res)
	if string(data) != "v 0 0 0" {
		t.Fatalf("expected stream contents to be preserved; got %q", string(data))
	}
}
