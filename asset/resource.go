package asset

import (
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// A Resource wraps a streamable scene or texture file that is either stored
// locally or fetched over http/https.
type Resource struct {
	io.ReadCloser
	url *url.URL
}

// Returns the path to this resource.
func (r *Resource) Path() string {
	return r.url.String()
}

// Return the remote path to this resource. If this is a remote resource then
// this method returns the base path (without leading /) of the remote URL.
// Otherwise, this method returns the same value as Path().
func (r *Resource) RemotePath() string {
	if r.IsRemote() {
		return path.Base(r.url.Path)
	}
	return r.Path()
}

// Returns the lower-cased file extension (including the leading dot) of the
// resource path.
func (r *Resource) Ext() string {
	return strings.ToLower(path.Ext(r.url.Path))
}

// Returns true if the Resource is streamed over http/https.
func (r *Resource) IsRemote() bool {
	return r.url.Scheme != ""
}

// Create a new Resource data stream. If relTo is specified and pathToResource
// does not define a scheme, then the path to the new Resource will be generated
// by concatenating the base path of relTo and pathToResource.
//
// The caller must make sure to close the returned Resource to prevent leaks.
func NewResource(pathToResource string, relTo *Resource) (*Resource, error) {
	resURL, err := ResolvePath(pathToResource, relTo)
	if err != nil {
		return nil, err
	}

	var reader io.ReadCloser
	switch resURL.Scheme {
	case "":
		reader, err = os.Open(filepath.Clean(resURL.Path))
		if err != nil {
			return nil, err
		}
	case "http", "https":
		resp, err := http.Get(resURL.String())
		if err != nil {
			return nil, fmt.Errorf("resource: could not fetch '%s': %w", resURL.String(), err)
		}
		if resp.StatusCode >= 400 {
			resp.Body.Close()
			return nil, fmt.Errorf("resource: could not fetch '%s': status %d", resURL.String(), resp.StatusCode)
		}
		reader = resp.Body
	default:
		return nil, fmt.Errorf("resource: unsupported scheme '%s'", resURL.Scheme)
	}

	return &Resource{
		ReadCloser: reader,
		url:        resURL,
	}, nil
}

// Resolve the location of pathToResource without opening it. Relative local
// paths are resolved against the directory of relTo; absolute local paths and
// URLs with a scheme are returned as-is.
func ResolvePath(pathToResource string, relTo *Resource) (*url.URL, error) {
	// Replace backslashes with forward slashes and try parsing as a URL
	resURL, err := url.Parse(strings.Replace(pathToResource, `\`, `/`, -1))
	if err != nil {
		return nil, err
	}

	if resURL.Scheme != "" || relTo == nil || filepath.IsAbs(resURL.Path) {
		return resURL, nil
	}

	// Relative url; clone parent url and adjust its path
	relPath := resURL.Path
	resURL, _ = url.Parse(relTo.url.String())
	if resURL.Scheme == "" {
		prefix, err := filepath.Abs(relTo.url.String())
		if err != nil {
			return nil, fmt.Errorf("resource: could not detect abs path for %s: %w", relTo.url.String(), err)
		}
		resURL.Path = filepath.Join(filepath.Dir(prefix), relPath)
	} else {
		resURL.Path = path.Join(path.Dir(resURL.Path), relPath)
	}
	return resURL, nil
}

// Create a resource from a reader.
func NewResourceFromStream(name string, source io.Reader) *Resource {
	resURL, _ := url.Parse(name)
	return &Resource{
		ReadCloser: io.NopCloser(source),
		url:        resURL,
	}
}
