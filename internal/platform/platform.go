package platform

import "fmt"

// Platform identifies one of the fixed set of publishing targets. The set and
// its capabilities are configuration, not user data.
type Platform string

const (
	YouTube   Platform = "youtube"
	LinkedIn  Platform = "linkedin"
	Facebook  Platform = "facebook"
	Instagram Platform = "instagram"
)

// Capabilities describes what a platform integration can do.
type Capabilities struct {
	SupportsScheduling bool `json:"supports_scheduling"`
}

var capabilities = map[Platform]Capabilities{
	YouTube:   {SupportsScheduling: true},
	Facebook:  {SupportsScheduling: true},
	LinkedIn:  {SupportsScheduling: false},
	Instagram: {SupportsScheduling: false},
}

// All returns every known platform in a fixed, stable order.
func All() []Platform {
	return []Platform{YouTube, LinkedIn, Facebook, Instagram}
}

// Parse validates a raw platform key from the API layer.
func Parse(s string) (Platform, error) {
	p := Platform(s)
	if _, ok := capabilities[p]; !ok {
		return "", fmt.Errorf("%w: %q", ErrInvalidPlatform, s)
	}
	return p, nil
}

// CapabilitiesOf is a pure lookup. An unknown platform is a caller bug, not a
// runtime condition.
func CapabilitiesOf(p Platform) (Capabilities, error) {
	c, ok := capabilities[p]
	if !ok {
		return Capabilities{}, fmt.Errorf("%w: %q", ErrInvalidPlatform, p)
	}
	return c, nil
}

// Partition splits the requested platforms into those that accept a future
// timestamp and those that can only publish immediately. Order within each
// subset follows the input order.
func Partition(platforms []Platform) (schedulable, immediateOnly []Platform, err error) {
	for _, p := range platforms {
		c, err := CapabilitiesOf(p)
		if err != nil {
			return nil, nil, err
		}
		if c.SupportsScheduling {
			schedulable = append(schedulable, p)
		} else {
			immediateOnly = append(immediateOnly, p)
		}
	}
	return schedulable, immediateOnly, nil
}
