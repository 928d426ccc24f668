package main

import (
	"fmt"
	"io"
	"os"

	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"

	"github.com/skdltmxn/cxxfilt-go/demangle"
)

var (
	outputFile string
	output     io.Writer

	configFile      string
	stripUnderscore bool
	cloneSuffixes   bool
	maxDepth        int
)

// fileConfig mirrors the command line flags; flags set explicitly on the
// command line win over the config file.
type fileConfig struct {
	StripUnderscore bool `toml:"strip_underscore"`
	CloneSuffixes   bool `toml:"clone_suffixes"`
	MaxDepth        int  `toml:"max_depth"`
}

var rootCmd = &cobra.Command{
	Use:   "cxxfilt",
	Short: "Itanium C++ symbol demangler",
	Long: `cxxfilt is a command-line tool for demangling Itanium C++ ABI
symbol names, as produced by GCC and Clang.

It turns names like _ZN5space3fooEii back into readable declarations
such as space::foo(int, int).`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if configFile != "" {
			var fc fileConfig
			if _, err := toml.DecodeFile(configFile, &fc); err != nil {
				return fmt.Errorf("failed to read config: %w", err)
			}
			if !cmd.Flags().Changed("strip-underscore") {
				stripUnderscore = fc.StripUnderscore
			}
			if !cmd.Flags().Changed("clones") {
				cloneSuffixes = fc.CloneSuffixes
			}
			if !cmd.Flags().Changed("max-depth") && fc.MaxDepth > 0 {
				maxDepth = fc.MaxDepth
			}
		}
		if outputFile != "" {
			f, err := os.Create(outputFile)
			if err != nil {
				return fmt.Errorf("failed to create output file: %w", err)
			}
			output = f
		} else {
			output = os.Stdout
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if f, ok := output.(*os.File); ok && f != os.Stdout {
			f.Close()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&outputFile, "output", "o", "", "write output to file instead of stdout")
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "read options from a TOML config file")
	rootCmd.PersistentFlags().BoolVarP(&stripUnderscore, "strip-underscore", "_", false, "strip one leading underscore (Mach-O symbols)")
	rootCmd.PersistentFlags().BoolVar(&cloneSuffixes, "clones", false, "accept and annotate GCC clone suffixes")
	rootCmd.PersistentFlags().IntVar(&maxDepth, "max-depth", 0, "override the parser recursion limit")

	rootCmd.AddCommand(filterCmd)
	rootCmd.AddCommand(batchCmd)
}

func demangleOptions() []demangle.Option {
	var opts []demangle.Option
	if stripUnderscore {
		opts = append(opts, demangle.WithStripLeadingUnderscore())
	}
	if cloneSuffixes {
		opts = append(opts, demangle.WithCloneSuffixes())
	}
	if maxDepth > 0 {
		opts = append(opts, demangle.WithMaxDepth(maxDepth))
	}
	return opts
}
