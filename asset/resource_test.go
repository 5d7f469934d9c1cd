package asset

import (
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
)

func TestLocalResource(t *testing.T) {
	_, thisFile, _, _ := runtime.Caller(0)
	res, err := NewResource(thisFile, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer res.Close()
}

func TestHttpResource(t *testing.T) {
	_, thisFile, _, _ := runtime.Caller(0)
	thisDir := filepath.Dir(thisFile)

	server := httptest.NewServer(http.FileServer(http.Dir(thisDir)))
	defer server.Close()

	fetchUrl := server.URL + "/" + filepath.Base(thisFile)
	res, err := NewResource(fetchUrl, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer res.Close()

	fetchUrl = server.URL + "/file-not-found.foo"
	expError := fmt.Sprintf("resource: could not fetch '%s': status %d", fetchUrl, 404)
	_, err = NewResource(fetchUrl, nil)
	if err == nil || err.Error() != expError {
		t.Fatalf("expected to get: %s; got %v", expError, err)
	}
}

func TestRelativeResources(t *testing.T) {
	serverHits := 0
	serverFn := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		serverHits++
		if r.URL.Path == "/foo/file1.go" {
			w.Write([]byte("OK"))
		} else if r.URL.Path == "/foo/file2.go" {
			w.Write([]byte("OK"))
		} else {
			http.NotFound(w, r)
		}
	})
	server := httptest.NewServer(serverFn)
	defer server.Close()

	res1, err := NewResource(server.URL+"/foo/file1.go", nil)
	if err != nil {
		t.Fatal(err)
	}
	defer res1.Close()
	res2, err := NewResource("file2.go", res1)
	if err != nil {
		t.Fatal(err)
	}
	defer res2.Close()

	if serverHits != 2 {
		t.Fatalf("expected server to receive 2 requests; got %d", serverHits)
	}
}

func TestUnsupportedResourceScheme(t *testing.T) {
	expError := "resource: unsupported scheme 'gopher'"
	_, err := NewResource("gopher://digging.go", nil)
	if err == nil || err.Error() != expError {
		t.Fatalf("expected to get: %s; got %v", expError, err)
	}
}

func TestResourceConnectionRefusedError(t *testing.T) {
	_, err := NewResource("http://localhost:12345/foo.go", nil)
	if err == nil || !strings.Contains(err.Error(), "connection refused") {
		t.Fatalf("expected to get 'connection refused error'; got %v", err)
	}
}

func TestResourceExt(t *testing.T) {
	type spec struct {
		path   string
		expExt string
	}
	specs := []spec{
		{"textures/checker.PNG", ".png"},
		{"http://example.com/maps/sky.bmp?v=2", ".bmp"},
		{"scene", ""},
	}

	for index, s := range specs {
		res := NewResourceFromStream(s.path, strings.NewReader(""))
		if res.Ext() != s.expExt {
			t.Fatalf("[spec %d] expected ext %q; got %q", index, s.expExt, res.Ext())
		}
	}
}

func TestResolvePath(t *testing.T) {
	parent := mockResource("http://example.com/scenes/room.yaml", "")
	resURL, err := ResolvePath("textures/wood.png", parent)
	if err != nil {
		t.Fatal(err)
	}
	expURL := "http://example.com/scenes/textures/wood.png"
	if resURL.String() != expURL {
		t.Fatalf("expected resolved url to be %s; got %s", expURL, resURL.String())
	}

	local := mockResource("/data/scenes/room.yaml", "")
	resURL, err = ResolvePath("../meshes/bunny.obj", local)
	if err != nil {
		t.Fatal(err)
	}
	expPath := filepath.Clean("/data/meshes/bunny.obj")
	if resURL.Path != expPath {
		t.Fatalf("expected resolved path to be %s; got %s", expPath, resURL.Path)
	}
}

func TestStreamResource(t *testing.T) {
	res := mockResource("embedded.yaml", "payload")
	data, err := io.ReadAll(res)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "payload" {
		t.Fatalf("expected to read 'payload'; got %q", string(data))
	}
	if res.IsRemote() {
		t.Fatal("expected stream resource not to be remote")
	}
}

func mockResource(name, payload string) *Resource {
	resURL, _ := url.Parse(name)
	return &Resource{
		ReadCloser: io.NopCloser(strings.NewReader(payload)),
		url:        resURL,
	}
}
