// Package formats decodes 3D interchange files into scene graph assets.
package formats

import (
	"errors"

	"github.com/Faultbox/modelview/pkg/scenegraph"
)

// ErrNoGeometry is returned when a file decodes but holds nothing to draw.
var ErrNoGeometry = errors.New("formats: no renderable geometry")

// Parser turns raw file bytes into an asset. name is used in error messages.
type Parser interface {
	Parse(data []byte, name string) (*scenegraph.Asset, error)
}
