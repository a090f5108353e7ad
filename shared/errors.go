package shared

import (
	"fmt"

	"code.cloudfoundry.org/bytefmt"
)

type InsufficientSpaceError struct {
	Dir       string
	Required  uint64
	Available uint64
}

func (err InsufficientSpaceError) Error() string {
	return fmt.Sprintf("not enough disk space in %v. required: %v, available: %v",
		err.Dir, bytefmt.ByteSize(err.Required), bytefmt.ByteSize(err.Available))
}
