// FILE: lixenwraith/nestconf/cmd/nestconf/main.go
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/lixenwraith/nestconf"
)

var (
	files     []string
	separator string
	output    string
)

var rootCmd = &cobra.Command{
	Use:   "nestconf",
	Short: "Inspect and merge layered configuration files",
	Long: `nestconf loads one or more configuration files in ascending precedence
order, deep-merges them, and lets you read, modify or re-emit the result.`,
	SilenceUsage: true,
}

var getCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Print the value of a dotted key from the merged configuration",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadMerged()
		if err != nil {
			return err
		}
		v, err := cfg.Get(args[0])
		if err != nil {
			return err
		}
		fmt.Println(v)
		return nil
	},
}

var setCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a dotted key in a configuration file",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(files) != 1 {
			return fmt.Errorf("set requires exactly one --file")
		}
		fc, err := nestconf.NewFileConfig(nil, nestconf.WithSeparator(separator))
		if err != nil {
			return err
		}
		if err := fc.Load(files[0]); err != nil && fatal(err) {
			return err
		}
		fc.Config().Set(args[0], args[1])
		return fc.Save(files[0])
	},
}

var mergeCmd = &cobra.Command{
	Use:   "merge",
	Short: "Merge the given files and write the result",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadMerged()
		if err != nil {
			return err
		}
		loader := nestconf.NewLoader()
		if output == "" || output == "-" {
			return loader.Codec.Encode(os.Stdout, cfg.Store())
		}
		return loader.SaveFile(output, cfg.Store())
	},
}

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Parse the given files and report every problem",
	RunE: func(cmd *cobra.Command, args []string) error {
		loader := nestconf.NewLoader()
		_, err := loader.LoadFiles(files...)
		if err != nil {
			return err
		}
		fmt.Println("ok")
		return nil
	},
}

// loadMerged layers every --file in order and wraps the result in a dotted
// view. Non-fatal problems (missing candidates, bad side documents) are
// reported to stderr without failing the command.
func loadMerged() (*nestconf.Config, error) {
	if len(files) == 0 {
		return nil, fmt.Errorf("at least one --file is required")
	}
	loader := nestconf.NewLoader()
	store, err := loader.LoadFiles(files...)
	if store == nil {
		return nil, err
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "warning:", err)
	}
	return nestconf.MakeDotted(store, nestconf.WithSeparator(separator))
}

// fatal reports whether a load error is more than a missing or empty file.
func fatal(err error) bool {
	return err != nil &&
		!errors.Is(err, nestconf.ErrConfigNotFound) &&
		!errors.Is(err, nestconf.ErrEmptyDocumentStream)
}

func main() {
	rootCmd.PersistentFlags().StringArrayVarP(&files, "file", "f", nil, "configuration file (repeatable, ascending precedence)")
	rootCmd.PersistentFlags().StringVar(&separator, "separator", ".", "path separator for dotted keys")
	mergeCmd.Flags().StringVarP(&output, "output", "o", "-", "output file (YAML, TOML or JSON by extension; - for stdout)")

	rootCmd.AddCommand(getCmd, setCmd, mergeCmd, checkCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "nestconf:", err)
		os.Exit(1)
	}
}
