package shared

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAvailableSpace(t *testing.T) {
	r := require.New(t)

	// Sanity test.
	space := AvailableSpace(t.TempDir())
	r.True(space > 0)
}

func TestEnsureSpace(t *testing.T) {
	r := require.New(t)
	dir := t.TempDir()

	r.NoError(EnsureSpace(dir, 1))

	err := EnsureSpace(dir, math.MaxUint64)
	var spaceErr InsufficientSpaceError
	r.True(errors.As(err, &spaceErr))
	r.Equal(dir, spaceErr.Dir)
	r.Equal(uint64(math.MaxUint64), spaceErr.Required)
	r.ErrorContains(err, "not enough disk space")
}
