package uhdravif

import (
	"image"

	"github.com/nfnt/resize"
)

// scaleImages resizes the decoded primary to the requested output size and
// the gain map proportionally, keeping the authored primary/gain-map size
// ratio. A zero width or height is derived from the other to preserve the
// aspect ratio; both zero leaves the images untouched.
func scaleImages(primary, gainmap image.Image, width, height int) (image.Image, image.Image) {
	pb := primary.Bounds()
	pw, ph := pb.Dx(), pb.Dy()

	if width <= 0 && height <= 0 {
		return primary, gainmap
	}
	if width <= 0 {
		width = pw * height / ph
	}
	if height <= 0 {
		height = ph * width / pw
	}
	if width == pw && height == ph {
		return primary, gainmap
	}

	gb := gainmap.Bounds()
	gw := gb.Dx() * width / pw
	gh := gb.Dy() * height / ph
	if gw < 1 {
		gw = 1
	}
	if gh < 1 {
		gh = 1
	}

	primary = resize.Resize(uint(width), uint(height), primary, resize.Lanczos3)
	gainmap = resize.Resize(uint(gw), uint(gh), gainmap, resize.Bilinear)
	return primary, gainmap
}
