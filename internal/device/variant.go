// Package device defines the device targets a banner is exported for and
// the aspect ratio and output resolution of each.
package device

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownKey is returned when a device name does not match any Key.
var ErrUnknownKey = errors.New("unknown device")

// Key identifies a device target.
type Key int

const (
	Desktop Key = iota
	Tablet
	Mobile
	Product // Square product image, not a banner slot
)

// Keys returns every device target in display order.
func Keys() []Key {
	return []Key{Desktop, Tablet, Mobile, Product}
}

// BannerKeys returns the device targets that have a homepage banner slot.
func BannerKeys() []Key {
	return []Key{Desktop, Tablet, Mobile}
}

func (k Key) String() string {
	switch k {
	case Desktop:
		return "desktop"
	case Tablet:
		return "tablet"
	case Mobile:
		return "mobile"
	case Product:
		return "product"
	default:
		return fmt.Sprintf("device(%d)", int(k))
	}
}

// Label returns a human readable name including the aspect ratio.
func (k Key) Label() string {
	switch k {
	case Desktop:
		return "Desktop (16:9)"
	case Tablet:
		return "Tablet (4:3)"
	case Mobile:
		return "Mobile (9:16)"
	case Product:
		return "Product (1:1)"
	default:
		return k.String()
	}
}

// SettingKey returns the settings record key under which the banner URL for
// this device is stored, or "" for targets without a banner slot.
func (k Key) SettingKey() string {
	switch k {
	case Desktop, Tablet, Mobile:
		return "homepage_banner_url_" + k.String()
	default:
		return ""
	}
}

// FileName returns the name the exported asset is uploaded under.
func (k Key) FileName(ext string) string {
	if k == Product {
		return "product." + ext
	}
	return "banner_" + k.String() + "." + ext
}

// MarshalText implements encoding.TextMarshaler.
func (k Key) MarshalText() ([]byte, error) {
	if !k.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownKey, int(k))
	}
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *Key) UnmarshalText(text []byte) error {
	parsed, err := ParseKey(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// Valid reports whether k is one of the known device keys.
func (k Key) Valid() bool {
	return k >= Desktop && k <= Product
}

// ParseKey converts a device name such as "mobile" to a Key.
func ParseKey(s string) (Key, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for _, k := range Keys() {
		if k.String() == name {
			return k, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownKey, s)
}

// Ratio is an aspect ratio expressed as width:height.
type Ratio struct {
	W, H int
}

// Float returns the ratio as width/height.
func (r Ratio) Float() float64 {
	return float64(r.W) / float64(r.H)
}

func (r Ratio) String() string {
	return fmt.Sprintf("%d:%d", r.W, r.H)
}

// Variant is the output profile for one device target.
type Variant struct {
	Key          Key
	Ratio        Ratio
	OutputWidth  int
	OutputHeight int
}

// AspectRatio returns OutputWidth/OutputHeight as declared by the ratio.
func (v Variant) AspectRatio() float64 {
	return v.Ratio.Float()
}

func (v Variant) String() string {
	return fmt.Sprintf("%s %s %dx%d", v.Key, v.Ratio, v.OutputWidth, v.OutputHeight)
}

// NewVariant builds a variant for the given width, deriving the height from
// the ratio. The width must produce a whole-pixel height.
func NewVariant(key Key, ratio Ratio, outputWidth int) (Variant, error) {
	if ratio.W <= 0 || ratio.H <= 0 {
		return Variant{}, fmt.Errorf("invalid ratio %s for %s", ratio, key)
	}
	if outputWidth <= 0 {
		return Variant{}, fmt.Errorf("invalid output width %d for %s", outputWidth, key)
	}
	if (outputWidth*ratio.H)%ratio.W != 0 {
		return Variant{}, fmt.Errorf("output width %d does not give a whole-pixel height at %s for %s",
			outputWidth, ratio, key)
	}
	return Variant{
		Key:          key,
		Ratio:        ratio,
		OutputWidth:  outputWidth,
		OutputHeight: outputWidth * ratio.H / ratio.W,
	}, nil
}

// defaultVariant returns the built-in profile for k.
func defaultVariant(k Key) Variant {
	switch k {
	case Desktop:
		return Variant{Key: Desktop, Ratio: Ratio{16, 9}, OutputWidth: 1920, OutputHeight: 1080}
	case Tablet:
		return Variant{Key: Tablet, Ratio: Ratio{4, 3}, OutputWidth: 1440, OutputHeight: 1080}
	case Mobile:
		return Variant{Key: Mobile, Ratio: Ratio{9, 16}, OutputWidth: 1080, OutputHeight: 1920}
	case Product:
		return Variant{Key: Product, Ratio: Ratio{1, 1}, OutputWidth: 1920, OutputHeight: 1920}
	default:
		panic(fmt.Sprintf("device: no default variant for %v", k))
	}
}
