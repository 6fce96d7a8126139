// Command joinbench builds a synthetic right-hand table, probes it with a
// synthetic left-hand block, and reports throughput. It exists to exercise
// the join engine end-to-end from the command line rather than only from
// unit tests.
package main

import (
	"fmt"
	"math/rand"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/sqlkit/joinengine/pkg/block"
	"github.com/sqlkit/joinengine/pkg/join"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var (
		rightRows  int
		leftRows   int
		verbose    bool
		kind       = kindValue{Kind: join.Inner}
		strictness = strictnessValue{Strictness: join.All}
	)

	cmd := &cobra.Command{
		Use:   "joinbench",
		Short: "Build and probe a synthetic hash join, reporting throughput",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := zap.NewNop()
			if verbose {
				l, err := zap.NewDevelopment()
				if err != nil {
					return err
				}
				logger = l
			}
			return runBench(logger, rightRows, leftRows, kind.Kind, strictness.Strictness)
		},
	}

	cmd.Flags().IntVar(&rightRows, "right-rows", 1_000_000, "number of synthetic right-side rows to build")
	cmd.Flags().IntVar(&leftRows, "left-rows", 1_000_000, "number of synthetic left-side rows to probe")
	cmd.Flags().Var(&kind, "kind", "join kind: inner, left, right, full, cross")
	cmd.Flags().Var(&strictness, "strictness", "strictness: all, any, semi, anti")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "use a development logger for the join engine's warnings")

	return cmd
}

// kindValue adapts join.Kind to pflag.Value so cobra can parse and
// validate --kind directly, instead of a raw string flag re-parsed later.
type kindValue struct{ Kind join.Kind }

func (v *kindValue) String() string { return v.Kind.String() }
func (v *kindValue) Type() string   { return "kind" }
func (v *kindValue) Set(s string) error {
	switch s {
	case "inner":
		v.Kind = join.Inner
	case "left":
		v.Kind = join.Left
	case "right":
		v.Kind = join.Right
	case "full":
		v.Kind = join.Full
	case "cross":
		v.Kind = join.Cross
	default:
		return fmt.Errorf("unknown kind %q", s)
	}
	return nil
}

// strictnessValue is kindValue's counterpart for --strictness.
type strictnessValue struct{ Strictness join.Strictness }

func (v *strictnessValue) String() string { return v.Strictness.String() }
func (v *strictnessValue) Type() string   { return "strictness" }
func (v *strictnessValue) Set(s string) error {
	switch s {
	case "all":
		v.Strictness = join.All
	case "any":
		v.Strictness = join.Any
	case "semi":
		v.Strictness = join.Semi
	case "anti":
		v.Strictness = join.Anti
	default:
		return fmt.Errorf("unknown strictness %q", s)
	}
	return nil
}

var _ pflag.Value = (*kindValue)(nil)
var _ pflag.Value = (*strictnessValue)(nil)

func runBench(logger *zap.Logger, rightRows, leftRows int, kind join.Kind, strictness join.Strictness) error {
	sampleRight := syntheticBlock(0, 1)
	desc := join.Descriptor{
		Kind:       kind,
		Strictness: strictness,
		LeftKeys:   []string{"key"},
		RightKeys:  []string{"key"},
	}
	if kind == join.Cross {
		desc.LeftKeys = nil
		desc.RightKeys = nil
	}

	hj, err := join.New(desc, sampleRight, logger)
	if err != nil {
		return fmt.Errorf("construct join: %w", err)
	}

	const chunk = 65536
	buildStart := time.Now()
	for built := 0; built < rightRows; built += chunk {
		n := min(chunk, rightRows-built)
		ok, err := hj.AddBlock(syntheticBlock(built, n))
		if err != nil {
			return fmt.Errorf("add block: %w", err)
		}
		if !ok {
			break
		}
	}
	buildElapsed := time.Since(buildStart)

	hj.Freeze()

	probeStart := time.Now()
	var totalOut int
	for probed := 0; probed < leftRows; probed += chunk {
		n := min(chunk, leftRows-probed)
		left := syntheticBlock(probed, n)

		if kind == join.Cross {
			streamer, err := hj.NewCrossJoinStreamer(left)
			if err != nil {
				return fmt.Errorf("start cross streamer: %w", err)
			}
			for {
				out, ok, err := streamer.Next()
				if err != nil {
					return fmt.Errorf("stream cross block: %w", err)
				}
				if !ok {
					break
				}
				totalOut += out.NumRows()
			}
			continue
		}

		out, err := hj.JoinBlock(left)
		if err != nil {
			return fmt.Errorf("probe block: %w", err)
		}
		totalOut += out.NumRows()
	}
	probeElapsed := time.Since(probeStart)

	stats := hj.Stats()
	fmt.Printf("method=%s build_rows=%d build_bytes=%d build_time=%s probe_time=%s output_rows=%d\n",
		stats.Method, stats.Rows, stats.Bytes, buildElapsed, probeElapsed, totalOut)
	return nil
}

// syntheticBlock produces n rows with an int64 "key" column and a float64
// "value" column, offset by start so successive calls don't collide.
func syntheticBlock(start, n int) block.Block {
	rng := rand.New(rand.NewSource(int64(start)))
	keys := make([]int64, n)
	values := make([]float64, n)
	for i := 0; i < n; i++ {
		keys[i] = int64(start + i)
		values[i] = rng.Float64()
	}
	return block.NewChunk(
		[]string{"key", "value"},
		[]block.Column{block.NewFixedColumn(keys), block.NewFixedColumn(values)},
	)
}
