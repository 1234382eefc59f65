package firmware

import "fmt"

// Version is a firmware version as reported by the radio: an ordered
// 4-tuple of non-negative integers. Ordering is lexicographic over
// (Major, Minor, Patch, Build).
type Version struct {
	Major uint32
	Minor uint32
	Patch uint32
	Build uint32
}

// MinimumFirmware is the oldest radio firmware this daemon will work with.
// Older firmware drops bytes under CTS/RTS flow control in passthrough mode.
var MinimumFirmware = Version{Major: 1, Minor: 8, Patch: 88, Build: 0}

// Compare returns -1, 0, or 1 if v orders before, equal to, or after o.
func (v Version) Compare(o Version) int {
	for _, p := range [4][2]uint32{
		{v.Major, o.Major},
		{v.Minor, o.Minor},
		{v.Patch, o.Patch},
		{v.Build, o.Build},
	} {
		switch {
		case p[0] < p[1]:
			return -1
		case p[0] > p[1]:
			return 1
		}
	}
	return 0
}

// Less reports whether v orders strictly before o.
func (v Version) Less(o Version) bool {
	return v.Compare(o) < 0
}

func (v Version) String() string {
	return fmt.Sprintf("%d.%d.%d.%d", v.Major, v.Minor, v.Patch, v.Build)
}

// MarshalText renders the dotted form, so JSON status output carries
// "1.8.88.0" rather than a struct.
func (v Version) MarshalText() ([]byte, error) {
	return []byte(v.String()), nil
}
