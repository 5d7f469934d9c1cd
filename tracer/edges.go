package tracer

import (
	"github.com/anthonynsimon/bild/effect"
)

// Laplacian kernel radius used for edge detection.
const edgeRadius = 1.0

// Apply a Laplacian edge filter to f and return a mask flagging the pixels
// whose filter response exceeds threshold (in [0, 1]) along with their
// immediate neighbors. The mask is indexed as j*width + i.
func DetectEdges(f *Frame, threshold float64) []bool {
	edges := effect.EdgeDetection(f.Image(), edgeRadius)

	w, h := f.width, f.height
	limit := threshold * 255
	raw := make([]bool, w*h)
	for y := 0; y < h; y++ {
		// Image rows are flipped with respect to frame rows
		j := h - 1 - y
		for i := 0; i < w; i++ {
			offset := edges.PixOffset(i, y)
			px := edges.Pix[offset : offset+3]
			if float64(px[0]) > limit || float64(px[1]) > limit || float64(px[2]) > limit {
				raw[j*w+i] = true
			}
		}
	}

	// Grow the edge regions by one pixel
	mask := make([]bool, w*h)
	for j := 0; j < h; j++ {
		for i := 0; i < w; i++ {
			if !raw[j*w+i] {
				continue
			}
			for dj := -1; dj <= 1; dj++ {
				for di := -1; di <= 1; di++ {
					ni, nj := i+di, j+dj
					if ni >= 0 && ni < w && nj >= 0 && nj < h {
						mask[nj*w+ni] = true
					}
				}
			}
		}
	}
	return mask
}
