// Package av1decoder decodes AV1 temporal units with libaom.
package av1decoder

/*
#cgo pkg-config: aom
#include <aom/aom_decoder.h>
#include <aom/aomdx.h>
#include <stdlib.h>
#include <string.h>

static aom_codec_iface_t* get_av1_decoder_interface() {
    return aom_codec_av1_dx();
}

// Wrapper for aom_codec_dec_init
static aom_codec_err_t init_decoder(aom_codec_ctx_t *ctx, aom_codec_iface_t *iface) {
    return aom_codec_dec_init(ctx, iface, NULL, 0);
}

// Get image plane data
static unsigned char* get_plane(aom_image_t *img, int plane) {
    return img->planes[plane];
}

static int get_stride(aom_image_t *img, int plane) {
    return img->stride[plane];
}

static unsigned int get_width(aom_image_t *img) {
    return img->d_w;
}

static unsigned int get_height(aom_image_t *img) {
    return img->d_h;
}
*/
import "C"

import (
	"errors"
	"fmt"
	"image"
	"unsafe"

	"github.com/user/playdecoder/pkg/ports"
)

var (
	// ErrNotInitialized is returned when decoding before Init.
	ErrNotInitialized = errors.New("av1decoder: decoder not initialized")

	// ErrEmptyFrame is returned for a sample without data.
	ErrEmptyFrame = errors.New("av1decoder: empty frame data")

	// ErrDecodeFailed wraps libaom error codes.
	ErrDecodeFailed = errors.New("av1decoder: decode failed")
)

// Decoder implements ports.FrameDecoder on top of libaom.
type Decoder struct {
	codec *C.aom_codec_ctx_t
}

// New creates a new AV1 decoder.
func New() *Decoder {
	return &Decoder{}
}

// Init initializes the decoder. Calling it again restarts decoding, which
// is how a seek begins at a keyframe.
func (d *Decoder) Init() error {
	d.Close()

	d.codec = (*C.aom_codec_ctx_t)(C.malloc(C.sizeof_aom_codec_ctx_t))
	if d.codec == nil {
		return fmt.Errorf("failed to allocate decoder context")
	}
	C.memset(unsafe.Pointer(d.codec), 0, C.sizeof_aom_codec_ctx_t)

	iface := C.get_av1_decoder_interface()
	if res := C.init_decoder(d.codec, iface); res != C.AOM_CODEC_OK {
		C.free(unsafe.Pointer(d.codec))
		d.codec = nil
		return fmt.Errorf("%w: init returned %d", ErrDecodeFailed, res)
	}

	return nil
}

// DecodeFrame decodes one temporal unit. It returns a nil image when libaom
// produced no displayable frame.
func (d *Decoder) DecodeFrame(data []byte) (image.Image, error) {
	if d.codec == nil {
		return nil, ErrNotInitialized
	}
	if len(data) == 0 {
		return nil, ErrEmptyFrame
	}

	res := C.aom_codec_decode(
		d.codec,
		(*C.uint8_t)(unsafe.Pointer(&data[0])),
		C.size_t(len(data)),
		nil,
	)
	if res != C.AOM_CODEC_OK {
		return nil, fmt.Errorf("%w: %d", ErrDecodeFailed, res)
	}

	// Drain the iterator and keep the last shown frame.
	var (
		iter C.aom_codec_iter_t
		last *C.aom_image_t
	)
	for {
		img := C.aom_codec_get_frame(d.codec, &iter)
		if img == nil {
			break
		}
		last = img
	}
	if last == nil {
		return nil, nil
	}
	return yuvToRGBA(last), nil
}

// Close releases decoder resources.
func (d *Decoder) Close() {
	if d.codec != nil {
		C.aom_codec_destroy(d.codec)
		C.free(unsafe.Pointer(d.codec))
		d.codec = nil
	}
}

// yuvToRGBA converts a 4:2:0 image with BT.601 limited range to RGBA.
func yuvToRGBA(img *C.aom_image_t) *image.RGBA {
	w := int(C.get_width(img))
	h := int(C.get_height(img))
	rgba := image.NewRGBA(image.Rect(0, 0, w, h))

	yp, ys := plane(img, 0, h)
	up, us := plane(img, 1, (h+1)/2)
	vp, vs := plane(img, 2, (h+1)/2)

	for row := 0; row < h; row++ {
		lumas := yp[row*ys:]
		cbs := up[(row/2)*us:]
		crs := vp[(row/2)*vs:]
		out := rgba.Pix[row*rgba.Stride:]
		for col := 0; col < w; col++ {
			c := int(lumas[col]) - 16
			d := int(cbs[col/2]) - 128
			e := int(crs[col/2]) - 128

			px := out[col*4 : col*4+4]
			px[0] = clamp((298*c + 409*e + 128) >> 8)
			px[1] = clamp((298*c - 100*d - 208*e + 128) >> 8)
			px[2] = clamp((298*c + 516*d + 128) >> 8)
			px[3] = 255
		}
	}

	return rgba
}

// plane exposes rows of one image plane as a Go slice.
func plane(img *C.aom_image_t, idx, rows int) ([]byte, int) {
	stride := int(C.get_stride(img, C.int(idx)))
	ptr := unsafe.Pointer(C.get_plane(img, C.int(idx)))
	return unsafe.Slice((*byte)(ptr), stride*rows), stride
}

func clamp(v int) uint8 {
	switch {
	case v < 0:
		return 0
	case v > 255:
		return 255
	}
	return uint8(v)
}

var _ ports.FrameDecoder = (*Decoder)(nil)
