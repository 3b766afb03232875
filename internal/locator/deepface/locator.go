package deepface

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"image"
	"image/jpeg"

	"github.com/saturnino-fabrica-de-software/presenca/internal/domain"
	"github.com/saturnino-fabrica-de-software/presenca/internal/locator"
)

// jpegQuality for frames sent to the recognition service. Frames come
// straight from the decoder, so there is no generation loss to worry
// about beyond this single encode.
const jpegQuality = 90

// Locator adapts the DeepFace /represent endpoint to the capability
// interface the engine consumes.
type Locator struct {
	client *Client
}

// New creates a DeepFace-backed locator.
func New(client *Client) *Locator {
	return &Locator{client: client}
}

// Locate encodes the frame as JPEG and asks DeepFace for every face it
// can find, embedding included.
func (l *Locator) Locate(ctx context.Context, frame image.Image) ([]locator.Detection, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, frame, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return nil, fmt.Errorf("encode frame: %w", err)
	}

	img := "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(buf.Bytes())

	resp, err := l.client.Represent(ctx, img)
	if err != nil {
		return nil, fmt.Errorf("represent: %w", err)
	}

	detections := make([]locator.Detection, 0, len(resp.Results))
	for _, r := range resp.Results {
		if len(r.Embedding) == 0 {
			continue
		}
		detections = append(detections, locator.Detection{
			Box: locator.Box{
				Top:    r.FacialArea.Y,
				Right:  r.FacialArea.X + r.FacialArea.W,
				Bottom: r.FacialArea.Y + r.FacialArea.H,
				Left:   r.FacialArea.X,
			},
			Embedding: domain.Embedding(r.Embedding),
		})
	}

	return detections, nil
}

var _ locator.Locator = (*Locator)(nil)
