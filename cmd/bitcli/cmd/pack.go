package cmd

import (
	"bytes"
	"fmt"
	"strconv"

	"code.cloudfoundry.org/bytefmt"
	"github.com/natefinch/atomic"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spacemeshos/bitstreams/bitstream"
	"github.com/spacemeshos/bitstreams/shared"
	"github.com/spacemeshos/bitstreams/storage"
)

var (
	packWidth uint
	packOut   string
)

// packCmd represents the pack command.
var packCmd = &cobra.Command{
	Use:   "pack [values...]",
	Short: "Pack unsigned integers into a bit stream file",
	Long: `Pack writes every value as a --width bit field, MSB first, and replaces
--out atomically. The last byte is zero padded.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		values, err := parseValues(args)
		if err != nil {
			return err
		}
		data, err := packValues(values, packWidth, cfg.Options(), logger)
		if err != nil {
			return err
		}
		if err := atomic.WriteFile(packOut, bytes.NewReader(data)); err != nil {
			return fmt.Errorf("failed to write %v: %w", packOut, err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "packed %d value(s) into %v (%v)\n",
			len(values), packOut, bytefmt.ByteSize(uint64(len(data))))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(packCmd)

	packCmd.Flags().UintVar(&packWidth, "width", 8, "bit width of every value (1-64)")
	packCmd.Flags().StringVar(&packOut, "out", "", "output file (required)")
	_ = packCmd.MarkFlagRequired("out")
}

func parseValues(args []string) ([]uint64, error) {
	values := make([]uint64, 0, len(args))
	for _, arg := range args {
		v, err := strconv.ParseUint(arg, 0, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid value %q: %w", arg, err)
		}
		values = append(values, v)
	}
	return values, nil
}

func validateWidth(width uint) error {
	if width < 1 || width > bitstream.MaxBits {
		return fmt.Errorf("invalid `width`; expected: 1-%d, given: %d", bitstream.MaxBits, width)
	}
	return nil
}

// packValues packs values into an in-memory stream and returns its bytes.
func packValues(values []uint64, width uint, opts []bitstream.OptionFunc, logger *zap.Logger) ([]byte, error) {
	if err := validateWidth(width); err != nil {
		return nil, err
	}

	w, err := bitstream.NewWriter(append(opts, bitstream.WithLogger(logger))...)
	if err != nil {
		return nil, err
	}
	mem := storage.NewMemory(nil)
	if err := w.Open(mem); err != nil {
		return nil, err
	}

	for _, v := range values {
		if shared.NumBits(v) > width {
			_ = w.Close()
			return nil, fmt.Errorf("value %d does not fit in %d bits", v, width)
		}
		if err := w.Write(v, width); err != nil {
			_ = w.Close()
			return nil, err
		}
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return mem.Bytes(), nil
}
