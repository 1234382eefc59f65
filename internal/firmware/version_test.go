package firmware_test

import (
	"testing"

	"github.com/srg/btlink/internal/firmware"
	"github.com/stretchr/testify/require"
)

func TestVersionCompare(t *testing.T) {
	tests := []struct {
		name string
		a, b firmware.Version
		want int
	}{
		{
			name: "equal tuples",
			a:    firmware.Version{1, 8, 88, 0},
			b:    firmware.Version{1, 8, 88, 0},
			want: 0,
		},
		{
			name: "build breaks the tie last",
			a:    firmware.Version{1, 8, 88, 0},
			b:    firmware.Version{1, 8, 88, 1},
			want: -1,
		},
		{
			name: "minor outweighs larger patch and build",
			a:    firmware.Version{1, 9, 0, 0},
			b:    firmware.Version{1, 8, 88, 99},
			want: 1,
		},
		{
			name: "major outweighs everything",
			a:    firmware.Version{2, 0, 0, 0},
			b:    firmware.Version{1, 99, 99, 99},
			want: 1,
		},
		{
			name: "patch ordered before build",
			a:    firmware.Version{1, 8, 87, 99},
			b:    firmware.Version{1, 8, 88, 0},
			want: -1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, tt.a.Compare(tt.b))
			require.Equal(t, -tt.want, tt.b.Compare(tt.a), "comparison must be antisymmetric")
			require.Equal(t, tt.want < 0, tt.a.Less(tt.b))
		})
	}
}

func TestVersionString(t *testing.T) {
	require.Equal(t, "1.8.88.0", firmware.Version{1, 8, 88, 0}.String())
}
