package fbuf

import (
	"github.com/openvisor/fbuf/cf"
	"github.com/pkg/errors"
)

const profileVersion = 1

// Profile fixes the geometry and slot budget shared by every image a pool
// hands out.
//
type Profile struct {
	Format           string `cf:"format"`
	Width            int    `cf:"width"`
	Height           int    `cf:"height"`
	MaxImages        int    `cf:"max_images"`
	JpegCapacity     int    `cf:"jpeg_capacity"`
	PendingTreeOrder int    `cf:"pending_tree_order"`
}

func NewBaselineProfile() *Profile {
	return &Profile{
		Format:           YUV420.String(),
		Width:            640,
		Height:           480,
		MaxImages:        4,
		JpegCapacity:     512 * 1024,
		PendingTreeOrder: 16,
	}
}

func (self *Profile) Load(data map[string]interface{}) error {
	if v, found := data["profile_version"]; found {
		if i, ok := v.(int); ok {
			if i != profileVersion {
				return errors.Errorf("invalid profile version [%d != %d]", i, profileVersion)
			}
		} else {
			return errors.New("invalid 'profile_version' value")
		}
	} else {
		return errors.New("missing 'profile_version'")
	}
	if err := cf.Load(data, self); err != nil {
		return errors.Wrap(err, "profile load")
	}
	if _, err := ParseFormat(self.Format); err != nil {
		return err
	}
	if self.Width < 1 || self.Height < 1 {
		return errors.WithMessagef(ErrInvalidArgument, "dimensions [%dx%d] must be positive", self.Width, self.Height)
	}
	if self.MaxImages < 1 {
		return errors.WithMessagef(ErrInvalidArgument, "max images [%d] must be positive", self.MaxImages)
	}
	if self.PendingTreeOrder < 3 {
		return errors.WithMessagef(ErrInvalidArgument, "pending tree order [%d] must be at least 3", self.PendingTreeOrder)
	}
	return nil
}

func (self *Profile) Dump() string {
	return cf.Dump("profile", self)
}
