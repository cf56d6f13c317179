package fbuf

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProfileLoad(t *testing.T) {
	pf := NewBaselineProfile()
	d := make(map[string]interface{})
	d["profile_version"] = 1
	d["format"] = "RAW16"
	d["width"] = 1280
	d["max_images"] = 8
	assert.Equal(t, "YUV420", pf.Format)
	assert.Equal(t, 640, pf.Width)
	assert.Equal(t, 4, pf.MaxImages)
	err := pf.Load(d)
	assert.NoError(t, err)
	assert.Equal(t, "RAW16", pf.Format)
	assert.Equal(t, 1280, pf.Width)
	assert.Equal(t, 480, pf.Height)
	assert.Equal(t, 8, pf.MaxImages)
	fmt.Println(pf.Dump())
}

func TestProfileLoadVersion(t *testing.T) {
	pf := NewBaselineProfile()
	assert.Error(t, pf.Load(map[string]interface{}{}))
	assert.Error(t, pf.Load(map[string]interface{}{"profile_version": 2}))
	assert.Error(t, pf.Load(map[string]interface{}{"profile_version": "1"}))
}

func TestProfileLoadValidation(t *testing.T) {
	pf := NewBaselineProfile()
	err := pf.Load(map[string]interface{}{"profile_version": 1, "format": "YUYV"})
	assert.ErrorIs(t, err, ErrInvalidArgument)

	pf = NewBaselineProfile()
	err = pf.Load(map[string]interface{}{"profile_version": 1, "width": 0})
	assert.ErrorIs(t, err, ErrInvalidArgument)

	pf = NewBaselineProfile()
	err = pf.Load(map[string]interface{}{"profile_version": 1, "max_images": -1})
	assert.ErrorIs(t, err, ErrInvalidArgument)

	// below the btree's minimum order
	pf = NewBaselineProfile()
	err = pf.Load(map[string]interface{}{"profile_version": 1, "pending_tree_order": 2})
	assert.ErrorIs(t, err, ErrInvalidArgument)
}
