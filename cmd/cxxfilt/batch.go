package main

import (
	"bufio"
	"fmt"
	"os"
	"runtime"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/skdltmxn/cxxfilt-go/demangle"
)

var (
	batchSerial bool
	batchStrict bool
)

var batchCmd = &cobra.Command{
	Use:   "batch <file>",
	Short: "Demangle a symbol list file",
	Long: `Demangle every line of a file of mangled names, one symbol per
line, preserving input order. Symbol dumps from nm or objdump tend to be
large, so lines are demangled across all CPUs.`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

func init() {
	batchCmd.Flags().BoolVar(&batchStrict, "strict", false, "fail on the first name that does not demangle")
	batchCmd.Flags().BoolVar(&batchSerial, "serial", false, "demangle on a single goroutine")
}

func runBatch(cmd *cobra.Command, args []string) error {
	f, err := os.Open(args[0])
	if err != nil {
		return fmt.Errorf("failed to open symbol list: %w", err)
	}
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("failed to read symbol list: %w", err)
	}

	opts := demangleOptions()
	results := make([]string, len(lines))
	failed := make([]bool, len(lines))

	g := new(errgroup.Group)
	if batchSerial {
		g.SetLimit(1)
	} else {
		g.SetLimit(runtime.NumCPU())
	}
	for i, name := range lines {
		i, name := i, name
		g.Go(func() error {
			out, err := demangle.Demangle(name, opts...)
			if err != nil {
				if batchStrict {
					return fmt.Errorf("line %d: %q: %w", i+1, name, err)
				}
				results[i] = name
				failed[i] = true
				return nil
			}
			results[i] = out
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	for i, out := range results {
		if failed[i] {
			fmt.Fprintln(output, color.YellowString("%s", out))
			continue
		}
		fmt.Fprintln(output, out)
	}
	return nil
}
