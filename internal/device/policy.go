package device

import "fmt"

// Override replaces the output width of one device target.
type Override struct {
	Key         Key `toml:"key"`
	OutputWidth int `toml:"output_width"`
}

// Policy maps each device target to its output profile.
type Policy struct {
	variants map[Key]Variant
}

// DefaultPolicy returns the built-in profiles.
func DefaultPolicy() Policy {
	p := Policy{variants: make(map[Key]Variant, len(Keys()))}
	for _, k := range Keys() {
		p.variants[k] = defaultVariant(k)
	}
	return p
}

// NewPolicy returns the built-in profiles with the given output widths
// applied. Aspect ratios are fixed per device and cannot be overridden.
func NewPolicy(overrides []Override) (Policy, error) {
	p := DefaultPolicy()
	for _, o := range overrides {
		if !o.Key.Valid() {
			return Policy{}, fmt.Errorf("%w: %d", ErrUnknownKey, int(o.Key))
		}
		v, err := NewVariant(o.Key, p.variants[o.Key].Ratio, o.OutputWidth)
		if err != nil {
			return Policy{}, err
		}
		p.variants[o.Key] = v
	}
	return p, nil
}

// Variant returns the profile for k. Asking for a key outside the closed
// set is a programming error and panics.
func (p Policy) Variant(k Key) Variant {
	v, ok := p.variants[k]
	if !ok {
		panic(fmt.Sprintf("device: unknown key %v", k))
	}
	return v
}

// Variants returns all profiles in Keys order.
func (p Policy) Variants() []Variant {
	out := make([]Variant, 0, len(p.variants))
	for _, k := range Keys() {
		out = append(out, p.Variant(k))
	}
	return out
}
