package shared

import (
	"github.com/ricochet2200/go-disk-usage/du"
)

func AvailableSpace(path string) uint64 {
	usage := du.NewDiskUsage(path)
	return usage.Available()
}

// EnsureSpace returns an InsufficientSpaceError if dir cannot hold required
// more bytes.
func EnsureSpace(dir string, required uint64) error {
	available := AvailableSpace(dir)
	if required > available {
		return InsufficientSpaceError{
			Dir:       dir,
			Required:  required,
			Available: available,
		}
	}
	return nil
}
