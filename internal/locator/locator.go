// Package locator defines the face locating/encoding capability the
// engine depends on. The recognition model itself is an external
// service; this package only describes its boundary.
package locator

import (
	"context"
	"image"

	"github.com/saturnino-fabrica-de-software/presenca/internal/domain"
)

// Locator finds faces in a single frame and returns one detection per
// face, each with a bounding box and an embedding.
type Locator interface {
	Locate(ctx context.Context, frame image.Image) ([]Detection, error)
}

// Detection is one face found in a frame.
type Detection struct {
	Box       Box
	Embedding domain.Embedding
}

// Box is a face bounding box in pixel coordinates.
type Box struct {
	Top    int `json:"top"`
	Right  int `json:"right"`
	Bottom int `json:"bottom"`
	Left   int `json:"left"`
}

// Area returns the box area in pixels. Larger area is used as a proxy
// for a closer, better lit face.
func (b Box) Area() int {
	return (b.Bottom - b.Top) * (b.Right - b.Left)
}
