package cmd

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"code.cloudfoundry.org/bytefmt"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/spacemeshos/bitstreams/bitstream"
	"github.com/spacemeshos/bitstreams/shared"
)

// Field widths written per iteration: 1, 9, ..., 57.
var demoWidths = func() []uint {
	var widths []uint
	for x := uint(1); x <= 64; x += 8 {
		widths = append(widths, x)
	}
	return widths
}()

type demoParams struct {
	iterations uint64
	blockSize  uint64
	streams    int
	keep       bool
}

var demo demoParams

// demoCmd represents the demo command.
var demoCmd = &cobra.Command{
	Use:   "demo",
	Short: "Write and verify a sample bit stream",
	Long: `Writes fields of widths 1, 9, ..., 57 for every iteration, followed by a
block of bytes written in bulk. The file is then read back and verified.
With --streams > 1 independent files are processed in parallel.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := os.MkdirAll(cfg.DataDir, 0o700); err != nil {
			return fmt.Errorf("mkdir error: %w", err)
		}

		start := time.Now()
		if err := runDemo(cmd.Context(), cfg.DataDir, demo, cfg.Options(), logger); err != nil {
			return err
		}

		size := demoFileSize(demo.iterations, demo.blockSize)
		fmt.Fprintf(cmd.OutOrStdout(), "verified %d stream(s) of %v in %v\n",
			demo.streams, bytefmt.ByteSize(size), time.Since(start))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(demoCmd)

	demoCmd.Flags().Uint64Var(&demo.iterations, "iterations", 256*1024, "number of iterations of built-in type fields")
	demoCmd.Flags().Uint64Var(&demo.blockSize, "block", 256*1024, "size in bytes of the bulk block")
	demoCmd.Flags().IntVar(&demo.streams, "streams", 1, "number of independent files to process in parallel")
	demoCmd.Flags().BoolVar(&demo.keep, "keep", false, "keep the demo files after verification")
}

func demoFileSize(iterations, blockSize uint64) uint64 {
	var bitsPerIteration uint64
	for _, x := range demoWidths {
		bitsPerIteration += uint64(x)
	}
	return shared.BytesForBits(iterations*bitsPerIteration) + blockSize
}

func runDemo(ctx context.Context, dir string, p demoParams, opts []bitstream.OptionFunc, logger *zap.Logger) error {
	if p.streams < 1 {
		return fmt.Errorf("invalid `streams`; expected: >= 1, given: %d", p.streams)
	}

	required := uint64(p.streams) * demoFileSize(p.iterations, p.blockSize)
	if err := shared.EnsureSpace(dir, required); err != nil {
		return err
	}

	opts = append(opts, bitstream.WithLogger(logger))
	g, ctx := errgroup.WithContext(ctx)
	for i := 0; i < p.streams; i++ {
		name := filepath.Join(dir, fmt.Sprintf("demo-%d.bin", i))
		g.Go(func() error {
			if !p.keep {
				defer os.Remove(name)
			}
			return demoRoundTrip(ctx, name, p, opts, logger.With(zap.String("file", name)))
		})
	}
	return g.Wait()
}

func demoBlock(size uint64) []byte {
	block := make([]byte, size)
	for i := range block {
		block[i] = byte(i)
	}
	return block
}

func demoRoundTrip(ctx context.Context, name string, p demoParams, opts []bitstream.OptionFunc, logger *zap.Logger) error {
	w, err := bitstream.NewWriter(opts...)
	if err != nil {
		return err
	}
	if err := w.OpenFile(name); err != nil {
		return err
	}

	logger.Info("writing built-in types", zap.Uint64("iterations", p.iterations))
	for i := uint64(0); i < p.iterations; i++ {
		if i%4096 == 0 && ctx.Err() != nil {
			_ = w.Close()
			return ctx.Err()
		}
		for _, x := range demoWidths {
			if err := w.Write(i&shared.Mask(x), x); err != nil {
				_ = w.Close()
				return fmt.Errorf("write error at iteration %d: %w", i, err)
			}
		}
	}

	logger.Info("writing block", zap.String("size", bytefmt.ByteSize(p.blockSize)))
	block := demoBlock(p.blockSize)
	if err := w.WriteBlock(block, p.blockSize*8); err != nil {
		_ = w.Close()
		return fmt.Errorf("block write error: %w", err)
	}
	if err := w.Close(); err != nil {
		return err
	}

	r, err := bitstream.NewReader(opts...)
	if err != nil {
		return err
	}
	if err := r.OpenFile(name); err != nil {
		return err
	}
	defer r.Close()

	logger.Info("reading built-in types")
	for i := uint64(0); i < p.iterations; i++ {
		if i%4096 == 0 && ctx.Err() != nil {
			return ctx.Err()
		}
		for _, x := range demoWidths {
			v, err := r.Read(x)
			if err != nil {
				return fmt.Errorf("read error at iteration %d: %w", i, err)
			}
			if expected := i & shared.Mask(x); v != expected {
				return fmt.Errorf("read mismatch at iteration %d, width %d: expected %d, got %d", i, x, expected, v)
			}
		}
	}

	logger.Info("reading block")
	actual := make([]byte, p.blockSize)
	if err := r.ReadBlock(actual, p.blockSize*8); err != nil {
		return fmt.Errorf("block read error: %w", err)
	}
	if !bytes.Equal(block, actual) {
		return fmt.Errorf("block mismatch in %v", name)
	}

	logger.Info("stream verified")
	return r.Close()
}
