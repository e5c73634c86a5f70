package reader

import (
	"fmt"
	"strings"

	"github.com/achilleasa/hptrace/asset"
	"github.com/achilleasa/hptrace/asset/input"
)

// The Reader interface is implemented by all scene readers.
type Reader interface {
	// Read scene definition from a resource.
	Read(*asset.Resource) (*input.Scene, error)
}

// Read scene from a file or http(s) url.
func ReadScene(filename string) (*input.Scene, error) {
	// Select reader based on file extension
	var reader Reader
	if strings.HasSuffix(strings.ToLower(filename), ".obj") {
		reader = newWavefrontReader()
	} else {
		return nil, fmt.Errorf("readScene: unsupported file format for %q", filename)
	}

	res, err := asset.NewResource(filename, nil)
	if err != nil {
		return nil, err
	}
	defer res.Close()

	return reader.Read(res)
}
