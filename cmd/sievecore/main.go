// Command sievecore is the thin example entry point that exercises the
// core interpreter end-to-end in manual testing (spec.md's Non-goals:
// "no CLI/printer/visualization beyond the thin example cmd/sievecore
// entry point"). It does not parse relation files — that is an external
// parser's job — it builds one small demonstration circuit in Go and
// drives it through internal/pipeline, the same way a real caller would
// drive a decoded one.
package main

import (
	"fmt"
	"math/big"
	"os"

	"github.com/mattn/go-isatty"

	"github.com/wtk-go/sievecore/internal/circuit"
	"github.com/wtk-go/sievecore/internal/config"
	"github.com/wtk-go/sievecore/internal/interp"
	"github.com/wtk-go/sievecore/internal/pipeline"
	"github.com/wtk-go/sievecore/internal/wiretypes"
)

func handleHelp() bool {
	if len(os.Args) < 2 {
		return false
	}
	switch os.Args[1] {
	case "-help", "--help", "help":
	default:
		return false
	}
	fmt.Println("sievecore: a thin demonstration of the SIEVE IR circuit pipeline")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  sievecore demo <a> <b> <modulus> [-config path.yaml]")
	fmt.Println()
	fmt.Println("Builds a one-gate GF(modulus) circuit asserting a+b == 0 (mod modulus)")
	fmt.Println("and reports whether it verifies.")
	return true
}

func handleDemo() bool {
	if len(os.Args) < 2 || os.Args[1] != "demo" {
		return false
	}
	if len(os.Args) < 5 {
		fmt.Fprintf(os.Stderr, "Usage: %s demo <a> <b> <modulus> [-config path.yaml]\n", os.Args[0])
		os.Exit(1)
	}

	a, okA := new(big.Int).SetString(os.Args[2], 10)
	b, okB := new(big.Int).SetString(os.Args[3], 10)
	modulus, okM := new(big.Int).SetString(os.Args[4], 10)
	if !okA || !okB || !okM {
		fmt.Fprintln(os.Stderr, "demo: a, b and modulus must be decimal integers")
		os.Exit(1)
	}

	cfg, err := loadConfig(os.Args[5:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "sievecore: %v\n", err)
		os.Exit(1)
	}

	ctx := runDemo(cfg, a, b, modulus)
	printSummary(ctx)
	if ctx.Err != nil || !ctx.Passed {
		os.Exit(1)
	}
	return true
}

func loadConfig(args []string) (*config.RunnerConfig, error) {
	for i, arg := range args {
		if arg == "-config" || arg == "--config" {
			if i+1 >= len(args) {
				return nil, fmt.Errorf("-config requires a path")
			}
			return config.LoadRunnerConfig(args[i+1])
		}
	}
	return config.ParseRunnerConfig(nil)
}

// runDemo builds a single-type, single-gate circuit asserting a+b == 0
// over GF(modulus), the same shape as S1 (spec.md §8), and pushes it
// through Configure/Drive/Check.
func runDemo(cfg *config.RunnerConfig, a, b, modulus *big.Int) *pipeline.PipelineContext {
	field := wiretypes.Field(0, modulus)

	drive := func(ad *circuit.Adapter) error {
		if err := ad.DeclareType(field); err != nil {
			return err
		}
		if err := ad.PublicIn(0, 0, 1); err != nil {
			return err
		}
		if err := ad.PublicIn(1, 0, 2); err != nil {
			return err
		}
		if err := ad.AddGate(2, 0, 1, 0, 3); err != nil {
			return err
		}
		return ad.AssertZero(2, 0, 4)
	}

	runCtx := pipeline.NewPipelineContext(cfg, drive)
	p := pipeline.New(
		pipeline.ConfigureProcessor{
			DeclaredTypes: []wiretypes.Type{field},
			Streams:       demoStreams(a, b),
		},
		pipeline.DriveProcessor{},
		pipeline.CheckProcessor{},
	)
	return p.Run(runCtx)
}

// demoStreams feeds a and b in as public_in values for type 0, in the
// order runDemo's Driver consumes them; no type ever issues private_in,
// so the private stream stays nil.
func demoStreams(a, b *big.Int) pipeline.StreamProvider {
	return func(t wiretypes.Type) (pub, priv interp.Stream) {
		if t.Index != 0 {
			return nil, nil
		}
		return interp.NewSliceStream([]*big.Int{a, b}), nil
	}
}

func printSummary(ctx *pipeline.PipelineContext) {
	if ctx.Err != nil {
		fmt.Println(colorize("FAIL", 31) + ": " + ctx.Err.Error())
		return
	}
	if ctx.Passed {
		fmt.Println(colorize("PASS", 32))
	} else {
		fmt.Println(colorize("FAIL", 31) + ": circuit did not verify")
	}
	for _, c := range ctx.Observer.Snapshot() {
		fmt.Printf("  type %d: %d gates, %d assert_zero, max live wire %d\n",
			c.TypeIndex, c.GateCount, c.AssertZeros, c.MaxLiveWire)
	}
}

func colorize(s string, code int) string {
	if !colorEnabled() {
		return s
	}
	return fmt.Sprintf("\033[%dm%s\033[0m", code, s)
}

func colorEnabled() bool {
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		return false
	}
	return isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd())
}

func main() {
	if handleHelp() {
		return
	}
	if handleDemo() {
		return
	}
	fmt.Fprintf(os.Stderr, "Usage: %s demo <a> <b> <modulus> [-config path.yaml]\n", os.Args[0])
	fmt.Fprintf(os.Stderr, "       %s -help\n", os.Args[0])
	os.Exit(1)
}
