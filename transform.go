package biplanar

import (
	"context"
	"image"

	"github.com/pion/biplanar/pkg/frame"
	"github.com/pion/biplanar/pkg/io/video"
)

// Transform returns a video transform that sends every frame through the
// session, yielding the reconstructed RGB image.
func (s *Session) Transform(ctx context.Context) video.TransformFunc {
	return video.Apply(func(img image.Image) (image.Image, error) {
		view, err := s.Run(ctx, frame.FromImage(img))
		if err != nil {
			return nil, err
		}
		return view.Image(), nil
	})
}
