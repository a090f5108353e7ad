package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spacemeshos/bitstreams/bitstream"
)

var dumpWidth uint

// dumpCmd represents the dump command.
var dumpCmd = &cobra.Command{
	Use:   "dump [file]",
	Short: "Print the bits of a file as a table",
	Long: `Dump prints one row per --width bits of the file, with the bit offset,
the field in hexadecimal and the field as a bit string.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return dumpFile(cmd.OutOrStdout(), args[0], dumpWidth, cfg.Options(), logger)
	},
}

func init() {
	rootCmd.AddCommand(dumpCmd)

	dumpCmd.Flags().UintVar(&dumpWidth, "width", 8, "bits per row (1-64)")
}

func dumpFile(out io.Writer, name string, width uint, opts []bitstream.OptionFunc, logger *zap.Logger) error {
	if err := validateWidth(width); err != nil {
		return err
	}

	r, err := bitstream.NewReader(append(opts, bitstream.WithLogger(logger))...)
	if err != nil {
		return err
	}
	if err := r.OpenFile(name); err != nil {
		return err
	}
	defer r.Close()

	table := tablewriter.NewWriter(out)
	table.SetHeader([]string{"Offset", "Hex", "Bits"})

	var offset uint64
	for r.BitsRemaining() > 0 {
		n := width
		if remaining := r.BitsRemaining(); remaining < uint64(n) {
			n = uint(remaining)
		}
		v, err := r.Read(n)
		if err != nil {
			return err
		}
		table.Append([]string{
			fmt.Sprintf("%d", offset),
			fmt.Sprintf("%0*x", int((n+3)/4), v),
			formatBits(v, n),
		})
		offset += uint64(n)
	}

	table.Render()
	return nil
}

// formatBits renders the low n bits of v, most significant first.
func formatBits(v uint64, n uint) string {
	var sb strings.Builder
	for i := n; i > 0; i-- {
		if v>>(i-1)&1 == 1 {
			sb.WriteByte('1')
		} else {
			sb.WriteByte('0')
		}
	}
	return sb.String()
}
