package cmd

import (
	"bytes"
	"context"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"github.com/spacemeshos/bitstreams/bitstream"
	"github.com/spacemeshos/bitstreams/shared"
)

func TestPackAndUnpack(t *testing.T) {
	req := require.New(t)
	logger := zaptest.NewLogger(t, zaptest.Level(zap.DebugLevel))
	name := filepath.Join(t.TempDir(), "values.bin")

	values := []uint64{5, 0, 7, 1, 6}
	data, err := packValues(values, 3, nil, logger)
	req.NoError(err)
	req.Equal([]byte{0xA3, 0x9C}, data) // 101 000 111 001 110 + padding
	req.NoError(os.WriteFile(name, data, 0o600))

	actual, err := unpackFile(name, 3, 0, nil, logger)
	req.NoError(err)
	req.Equal(values, actual)

	actual, err = unpackFile(name, 3, 2, nil, logger)
	req.NoError(err)
	req.Equal(values[:2], actual)

	// Past the end: silent by default, an error in strict mode.
	actual, err = unpackFile(name, 3, 9, nil, logger)
	req.NoError(err)
	req.Len(actual, 9)
	_, err = unpackFile(name, 3, 9, []bitstream.OptionFunc{bitstream.WithStrict()}, logger)
	req.ErrorIs(err, bitstream.ErrShortRead)
}

func TestPack_Invalid(t *testing.T) {
	req := require.New(t)
	logger := zaptest.NewLogger(t)

	_, err := packValues([]uint64{8}, 3, nil, logger)
	req.EqualError(err, "value 8 does not fit in 3 bits")

	_, err = packValues([]uint64{math.MaxUint64}, 63, nil, logger)
	req.ErrorContains(err, "does not fit in 63 bits")

	data, err := packValues([]uint64{7, math.MaxUint64 >> 1}, 63, nil, logger)
	req.NoError(err)
	req.Len(data, 16)

	_, err = packValues([]uint64{1}, 0, nil, logger)
	req.ErrorContains(err, "invalid `width`")

	_, err = packValues([]uint64{1}, 65, nil, logger)
	req.ErrorContains(err, "invalid `width`")

	_, err = parseValues([]string{"12", "x"})
	req.ErrorContains(err, `invalid value "x"`)

	values, err := parseValues([]string{"12", "0x10", "0b11"})
	req.NoError(err)
	req.Equal([]uint64{12, 16, 3}, values)
}

func TestDump(t *testing.T) {
	req := require.New(t)
	name := filepath.Join(t.TempDir(), "dump.bin")
	req.NoError(os.WriteFile(name, []byte{0xAB, 0xCD}, 0o600))

	buf := bytes.NewBuffer(nil)
	req.NoError(dumpFile(buf, name, 12, nil, zaptest.NewLogger(t)))
	out := buf.String()
	req.Contains(out, "OFFSET")
	req.Contains(out, "abc")
	req.Contains(out, "101010111100")
	req.Contains(out, "1101")
}

func TestChangedFlags(t *testing.T) {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.Bool("strict", false, "")
	fs.Uint32("buffer-size", 1, "")
	fs.String("log-level", "info", "")

	require.Empty(t, changedFlags(fs))
	require.NoError(t, fs.Parse([]string{"--strict", "--log-level=debug"}))
	require.Equal(t, []string{"log-level", "strict"}, changedFlags(fs))
}

func TestFormatBits(t *testing.T) {
	req := require.New(t)

	req.Equal("", formatBits(0xFF, 0))
	req.Equal("101", formatBits(5, 3))
	req.Equal("00000101", formatBits(5, 8))
}

func TestRunDemo(t *testing.T) {
	req := require.New(t)
	dir := t.TempDir()
	logger := zaptest.NewLogger(t)

	p := demoParams{
		iterations: 1000,
		blockSize:  777,
		streams:    3,
	}
	opts := []bitstream.OptionFunc{bitstream.WithBufferSize(64)}
	req.NoError(runDemo(context.Background(), dir, p, opts, logger))

	entries, err := os.ReadDir(dir)
	req.NoError(err)
	req.Empty(entries)

	p.keep = true
	p.streams = 1
	req.NoError(runDemo(context.Background(), dir, p, opts, logger))
	info, err := os.Stat(filepath.Join(dir, "demo-0.bin"))
	req.NoError(err)
	req.Equal(int64(demoFileSize(p.iterations, p.blockSize)), info.Size())

	p.streams = 0
	req.Error(runDemo(context.Background(), dir, p, opts, logger))
}

func TestRunDemo_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := demoParams{iterations: 10, blockSize: 1, streams: 1}
	err := runDemo(ctx, t.TempDir(), p, nil, zaptest.NewLogger(t))
	require.ErrorIs(t, err, context.Canceled)
}

func TestRunDemo_NotEnoughSpace(t *testing.T) {
	p := demoParams{iterations: 1, blockSize: 1 << 62, streams: 2}
	err := runDemo(context.Background(), t.TempDir(), p, nil, zaptest.NewLogger(t))

	var spaceErr shared.InsufficientSpaceError
	require.ErrorAs(t, err, &spaceErr)
}

func TestCommands(t *testing.T) {
	req := require.New(t)
	dir := t.TempDir()
	out := bytes.NewBuffer(nil)
	rootCmd.SetOut(out)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetArgs(nil)
		configFile = ""
	})

	cfgFile := filepath.Join(dir, "bitcli.yaml")
	req.NoError(os.WriteFile(cfgFile, []byte("buffer-size: 16\nstrict: true\n"), 0o600))

	rootCmd.SetArgs([]string{"config", "--config", cfgFile, "--datadir", dir})
	req.NoError(rootCmd.ExecuteContext(context.Background()))
	req.Contains(out.String(), "BufferSize: (uint32) 16")
	req.Contains(out.String(), "Strict: (bool) true")

	// Flags take priority over the config file.
	out.Reset()
	rootCmd.SetArgs([]string{"config", "--config", cfgFile, "--buffer-size", "8"})
	req.NoError(rootCmd.ExecuteContext(context.Background()))
	req.Contains(out.String(), "BufferSize: (uint32) 8")

	packed := filepath.Join(dir, "packed.bin")
	out.Reset()
	rootCmd.SetArgs([]string{"pack", "--width", "5", "--out", packed, "1", "2", "31"})
	req.NoError(rootCmd.ExecuteContext(context.Background()))
	req.Contains(out.String(), "packed 3 value(s)")

	out.Reset()
	rootCmd.SetArgs([]string{"unpack", "--width", "5", packed})
	req.NoError(rootCmd.ExecuteContext(context.Background()))
	req.Equal("1\n2\n31\n", out.String())

	rootCmd.SetArgs([]string{"config", "--buffer-size", "0"})
	req.Error(rootCmd.ExecuteContext(context.Background()))
}
