package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spacemeshos/bitstreams/bitstream"
)

var (
	unpackWidth uint
	unpackCount uint64
)

// unpackCmd represents the unpack command.
var unpackCmd = &cobra.Command{
	Use:   "unpack [file]",
	Short: "Print the fields of a bit stream file",
	Long: `Unpack reads --width bit fields from the file and prints one per line.
Without --count it stops when fewer than --width bits remain.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		values, err := unpackFile(args[0], unpackWidth, unpackCount, cfg.Options(), logger)
		if err != nil {
			return err
		}
		for _, v := range values {
			fmt.Fprintln(cmd.OutOrStdout(), v)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(unpackCmd)

	unpackCmd.Flags().UintVar(&unpackWidth, "width", 8, "bit width of every value (1-64)")
	unpackCmd.Flags().Uint64Var(&unpackCount, "count", 0, "number of values to read (0 reads to the end)")
}

func unpackFile(name string, width uint, count uint64, opts []bitstream.OptionFunc, logger *zap.Logger) ([]uint64, error) {
	if err := validateWidth(width); err != nil {
		return nil, err
	}

	r, err := bitstream.NewReader(append(opts, bitstream.WithLogger(logger))...)
	if err != nil {
		return nil, err
	}
	if err := r.OpenFile(name); err != nil {
		return nil, err
	}
	defer r.Close()

	var values []uint64
	for count == 0 || uint64(len(values)) < count {
		if count == 0 && r.BitsRemaining() < uint64(width) {
			break
		}
		v, err := r.Read(width)
		if err != nil {
			return values, fmt.Errorf("failed to read value %d: %w", len(values), err)
		}
		values = append(values, v)
	}
	return values, nil
}
