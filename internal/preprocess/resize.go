// internal/preprocess/resize.go
package preprocess

// Resize returns a nearest-neighbor resampled copy of img.
//
// Destination pixel (x, y) is taken from source (x*srcW/dstW, y*srcH/dstH)
// using truncating integer division, so no pixel value is ever blended.
// img must already be valid.
func Resize(img Image, dstH, dstW int) Image {
	c := img.Channels
	out := make([]byte, dstH*dstW*c)
	for y := 0; y < dstH; y++ {
		sy := y * img.Height / dstH
		for x := 0; x < dstW; x++ {
			sx := x * img.Width / dstW
			src := (sy*img.Width + sx) * c
			dst := (y*dstW + x) * c
			copy(out[dst:dst+c], img.Pix[src:src+c])
		}
	}
	return Image{
		Width:    dstW,
		Height:   dstH,
		Channels: c,
		Pix:      out,
	}
}
