package decode

import (
	"github.com/cocosip/go-jpeg-fuzz/codec"
	"github.com/cocosip/go-jpeg-fuzz/jpeg/common"
)

// reconstruct turns the decoded coefficient planes into interleaved
// pixels: dequantize, inverse transform, upsample, color convert.
func (d *decoder) reconstruct() (*codec.DecodeResult, error) {
	if !d.frameSeen || !d.scanSeen {
		return nil, common.ErrInvalidData
	}
	ncomp := len(d.comps)
	if ncomp != 1 && ncomp != 3 {
		return nil, common.ErrUnsupportedFormat
	}

	planes := make([][]byte, ncomp)
	strides := make([]int, ncomp)
	for i := range d.comps {
		c := &d.comps[i]
		if !d.hasQT[c.tq] {
			return nil, common.ErrInvalidDQT
		}
		stride := c.padW * 8
		plane := make([]byte, stride*c.padH*8)
		var coef [64]int32
		for by := 0; by < c.padH; by++ {
			for bx := 0; bx < c.padW; bx++ {
				blk := &c.blocks[by*c.padW+bx]
				for k := 0; k < 64; k++ {
					coef[k] = blk[k] * d.quant[c.tq][k]
				}
				common.IDCT(coef[:], plane[(by*8)*stride+bx*8:], stride)
			}
		}
		planes[i] = plane
		strides[i] = stride
	}

	w, h := d.width, d.height
	res := &codec.DecodeResult{
		Width:      w,
		Height:     h,
		Components: ncomp,
	}

	if ncomp == 1 {
		res.PixelData = make([]byte, w*h)
		for y := 0; y < h; y++ {
			copy(res.PixelData[y*w:(y+1)*w], planes[0][y*strides[0]:y*strides[0]+w])
		}
		return res, nil
	}

	// Per-component source dimensions for nearest-sample upsampling.
	var compW, compH [3]int
	for i := range d.comps {
		c := &d.comps[i]
		compW[i] = common.DivCeil(w*c.h, d.hMax)
		compH[i] = common.DivCeil(h*c.v, d.vMax)
	}

	res.PixelData = make([]byte, w*h*3)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			var s [3]int32
			for i := 0; i < 3; i++ {
				sx := x * compW[i] / w
				sy := y * compH[i] / h
				s[i] = int32(planes[i][sy*strides[i]+sx])
			}
			yy := s[0]
			cb := s[1] - 128
			cr := s[2] - 128

			r := yy + (91881*cr+32768)>>16
			g := yy - (22554*cb+46802*cr+32768)>>16
			b := yy + (116130*cb+32768)>>16

			o := (y*w + x) * 3
			res.PixelData[o] = clampByte(r)
			res.PixelData[o+1] = clampByte(g)
			res.PixelData[o+2] = clampByte(b)
		}
	}
	return res, nil
}

func clampByte(v int32) byte {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return byte(v)
}
