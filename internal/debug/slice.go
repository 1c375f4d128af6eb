package debug

import (
	"fmt"
	"strings"

	"github.com/Faultbox/marchwater/internal/march"
)

// Axis selects the slicing plane.
type Axis int

const (
	AxisX Axis = iota
	AxisY
	AxisZ
)

// ramp maps density 0..1 to characters, lightest first.
const ramp = " .:-=+*#%@"

// Slice renders the plane at index along axis as ASCII art, one row per
// line. For AxisY rows run along z and columns along x; for the other axes
// rows run top (high y) to bottom so the picture is upright.
func Slice(f march.Sampler, axis Axis, index int) (string, error) {
	n := f.Size()
	if index < 0 || index >= n {
		return "", fmt.Errorf("slice index %d outside [0,%d)", index, n)
	}

	var b strings.Builder
	for row := 0; row < n; row++ {
		for col := 0; col < n; col++ {
			var x, y, z int
			switch axis {
			case AxisX:
				x, y, z = index, n-1-row, col
			case AxisY:
				x, y, z = col, index, row
			case AxisZ:
				x, y, z = col, n-1-row, index
			default:
				return "", fmt.Errorf("unknown axis %d", axis)
			}
			b.WriteByte(shadeChar(f.Get(x, y, z)))
		}
		b.WriteByte('\n')
	}
	return b.String(), nil
}

func shadeChar(v float32) byte {
	i := int(v * float32(len(ramp)-1))
	if i < 0 {
		i = 0
	}
	if i >= len(ramp) {
		i = len(ramp) - 1
	}
	return ramp[i]
}
