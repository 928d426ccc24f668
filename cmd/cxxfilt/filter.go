package main

import (
	"bufio"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/skdltmxn/cxxfilt-go/demangle"
)

var filterColor bool

var filterCmd = &cobra.Command{
	Use:   "filter [symbols...]",
	Short: "Demangle symbols from arguments or stdin",
	Long: `Demangle each symbol given as an argument, or read symbols line
by line from stdin when no arguments are given.

Lines that are not valid mangled names pass through unchanged, matching
c++filt behavior.`,
	RunE: runFilter,
}

func init() {
	filterCmd.Flags().BoolVar(&filterColor, "color", false, "highlight names that fail to demangle")
}

func runFilter(cmd *cobra.Command, args []string) error {
	opts := demangleOptions()

	if len(args) > 0 {
		for _, name := range args {
			printDemangled(name, opts)
		}
		return nil
	}

	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		printDemangled(scanner.Text(), opts)
	}
	return scanner.Err()
}

func printDemangled(name string, opts []demangle.Option) {
	out, err := demangle.Demangle(name, opts...)
	if err != nil {
		// Pass through unchanged, like c++filt does for non-symbols.
		if filterColor {
			fmt.Fprintln(output, color.RedString("%s", name))
		} else {
			fmt.Fprintln(output, name)
		}
		return
	}
	fmt.Fprintln(output, out)
}
