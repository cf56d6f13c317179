package fbuf

import (
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
)

func yuvDescs(width, height int) []PlaneDesc {
	cw, ch := (width+1)/2, (height+1)/2
	return []PlaneDesc{
		{RowStride: width, PixelStride: 1, Memory: make([]byte, width*height)},
		{RowStride: cw, PixelStride: 1, Memory: make([]byte, cw*ch)},
		{RowStride: cw, PixelStride: 1, Memory: make([]byte, cw*ch)},
	}
}

func raw16Descs(width, height int) []PlaneDesc {
	return []PlaneDesc{
		{RowStride: width * 2, PixelStride: 2, Memory: make([]byte, width*height*2)},
	}
}

func jpegDescs(capacity int) []PlaneDesc {
	return []PlaneDesc{
		{RowStride: 1, PixelStride: 1, Memory: make([]byte, capacity)},
	}
}

func TestNewImage(t *testing.T) {
	img, ctl, err := NewImage(YUV420, 640, 480, 1000, yuvDescs(640, 480))
	assert.NoError(t, err)
	assert.NotNil(t, img)
	assert.NotNil(t, ctl)

	format, err := img.Format()
	assert.NoError(t, err)
	assert.Equal(t, YUV420, format)

	width, err := img.Width()
	assert.NoError(t, err)
	assert.Equal(t, 640, width)

	height, err := img.Height()
	assert.NoError(t, err)
	assert.Equal(t, 480, height)

	ts, err := img.Timestamp()
	assert.NoError(t, err)
	assert.Equal(t, int64(1000), ts)

	planes, err := img.Planes()
	assert.NoError(t, err)
	assert.Equal(t, 3, len(planes))
	assert.False(t, img.IsOpaque())
}

func TestNewImageArguments(t *testing.T) {
	_, _, err := NewImage(YUV420, 640, 480, 0, yuvDescs(640, 480)[:2])
	assert.ErrorIs(t, err, ErrInvalidArgument)

	_, _, err = NewImage(YUV420, 0, 480, 0, yuvDescs(640, 480))
	assert.ErrorIs(t, err, ErrInvalidArgument)

	_, _, err = NewImage(Format(99), 640, 480, 0, nil)
	assert.ErrorIs(t, err, ErrInvalidArgument)

	// zero strides
	descs := yuvDescs(640, 480)
	descs[1].PixelStride = 0
	_, _, err = NewImage(YUV420, 640, 480, 0, descs)
	assert.ErrorIs(t, err, ErrInvalidArgument)

	// window too short to reach the last sample
	descs = yuvDescs(640, 480)
	descs[0].Memory = descs[0].Memory[:640*479]
	_, _, err = NewImage(YUV420, 640, 480, 0, descs)
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestPlaneWindowExcludesTrailingPadding(t *testing.T) {
	// last row needs only up to its final sample, not a full stride
	width, height := 8, 4
	need := width*(height-1) + (width - 1) + 1
	descs := []PlaneDesc{
		{RowStride: width, PixelStride: 1, Memory: make([]byte, need)},
		{RowStride: 4, PixelStride: 1, Memory: make([]byte, 4*2)},
		{RowStride: 4, PixelStride: 1, Memory: make([]byte, 4*2)},
	}
	_, _, err := NewImage(YUV420, width, height, 0, descs)
	assert.NoError(t, err)

	descs[0].Memory = descs[0].Memory[:need-1]
	_, _, err = NewImage(YUV420, width, height, 0, descs)
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestPlanesMatchFormatClass(t *testing.T) {
	cases := []struct {
		format Format
		descs  []PlaneDesc
	}{
		{JPEG, jpegDescs(4096)},
		{YUV420, yuvDescs(64, 48)},
		{RAW16, raw16Descs(64, 48)},
		{Private, nil},
	}
	for _, tc := range cases {
		img, _, err := NewImage(tc.format, 64, 48, 0, tc.descs)
		assert.NoError(t, err, tc.format.String())

		planes, err := img.Planes()
		assert.NoError(t, err)
		assert.Equal(t, tc.format.PlaneCount(), len(planes), tc.format.String())
		assert.Equal(t, img.IsOpaque(), len(planes) == 0, tc.format.String())
	}
}

func TestOpaqueImage(t *testing.T) {
	img, _, err := NewImage(Private, 1920, 1080, 0, nil)
	assert.NoError(t, err)
	assert.True(t, img.IsOpaque())

	planes, err := img.Planes()
	assert.NoError(t, err)
	assert.Empty(t, planes)
}

func TestCropClipping(t *testing.T) {
	img, _, err := NewImage(YUV420, 640, 480, 0, yuvDescs(640, 480))
	assert.NoError(t, err)

	crop, err := img.CropRect()
	assert.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 640, 480), crop)

	in := image.Rect(100, 100, 1000, 1000)
	assert.NoError(t, img.SetCropRect(&in))
	crop, err = img.CropRect()
	assert.NoError(t, err)
	assert.Equal(t, image.Rect(100, 100, 640, 480), crop)

	// mutating the caller's rectangle after the set must not leak in
	in.Min.X = 0
	crop, err = img.CropRect()
	assert.NoError(t, err)
	assert.Equal(t, image.Rect(100, 100, 640, 480), crop)

	// fully outside clips to empty, which is legal
	in = image.Rect(700, 500, 800, 600)
	assert.NoError(t, img.SetCropRect(&in))
	crop, err = img.CropRect()
	assert.NoError(t, err)
	assert.True(t, crop.Empty())

	// nil resets to the full bounds
	assert.NoError(t, img.SetCropRect(nil))
	crop, err = img.CropRect()
	assert.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 640, 480), crop)
}

func TestTimestamp(t *testing.T) {
	img, _, err := NewImage(RAW16, 64, 48, 17, raw16Descs(64, 48))
	assert.NoError(t, err)

	assert.NoError(t, img.SetTimestamp(99))
	ts, err := img.Timestamp()
	assert.NoError(t, err)
	assert.Equal(t, int64(99), ts)
}

func TestCloseInvalidatesEverything(t *testing.T) {
	img, _, err := NewImage(YUV420, 640, 480, 0, yuvDescs(640, 480))
	assert.NoError(t, err)

	planes, err := img.Planes()
	assert.NoError(t, err)

	assert.NoError(t, img.Close())

	_, err = img.Format()
	assert.ErrorIs(t, err, ErrInvalidState)
	_, err = img.Width()
	assert.ErrorIs(t, err, ErrInvalidState)
	_, err = img.Height()
	assert.ErrorIs(t, err, ErrInvalidState)
	_, err = img.Timestamp()
	assert.ErrorIs(t, err, ErrInvalidState)
	assert.ErrorIs(t, img.SetTimestamp(1), ErrInvalidState)
	_, err = img.CropRect()
	assert.ErrorIs(t, err, ErrInvalidState)
	assert.ErrorIs(t, img.SetCropRect(nil), ErrInvalidState)
	_, err = img.Planes()
	assert.ErrorIs(t, err, ErrInvalidState)

	// plane views die with the parent
	_, err = planes[0].Memory()
	assert.ErrorIs(t, err, ErrInvalidState)
	_, err = planes[0].RowStride()
	assert.ErrorIs(t, err, ErrInvalidState)
	_, err = planes[0].PixelStride()
	assert.ErrorIs(t, err, ErrInvalidState)

	// double close is a hard error, not a no-op
	assert.ErrorIs(t, img.Close(), ErrInvalidState)
}

func TestSpecimenLifecycle(t *testing.T) {
	descs := []PlaneDesc{
		{RowStride: 640, PixelStride: 1, Memory: make([]byte, 640*480)},
		{RowStride: 320, PixelStride: 1, Memory: make([]byte, 320*240)},
		{RowStride: 320, PixelStride: 1, Memory: make([]byte, 320*240)},
	}
	img, _, err := NewImage(YUV420, 640, 480, 0, descs)
	assert.NoError(t, err)

	crop, err := img.CropRect()
	assert.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 640, 480), crop)

	in := image.Rect(100, 100, 1000, 1000)
	assert.NoError(t, img.SetCropRect(&in))
	crop, err = img.CropRect()
	assert.NoError(t, err)
	assert.Equal(t, image.Rect(100, 100, 640, 480), crop)

	assert.NoError(t, img.Close())
	_, err = img.Planes()
	assert.ErrorIs(t, err, ErrInvalidState)
}
