package browse

import "fmt"

var sizeUnits = [...]string{"B", "KB", "MB", "GB", "TB", "PB"}

// FormatSize renders a byte count in binary units with two decimals,
// e.g. 1536 -> "1.50 KB". Values beyond the PB range stay in PB.
func FormatSize(bytes uint64) string {
	size := float64(bytes)
	unit := 0
	for size >= 1024 && unit < len(sizeUnits)-1 {
		size /= 1024
		unit++
	}
	return fmt.Sprintf("%.2f %s", size, sizeUnits[unit])
}
