// Package validate checks an input file before it is imported.
package validate

import (
	"fmt"

	"fjacquet/txn-import/cmd/common"
	"fjacquet/txn-import/internal/parser"
	"fjacquet/txn-import/internal/parsererror"

	"github.com/spf13/cobra"
)

var input string

// Cmd represents the validate command
var Cmd = &cobra.Command{
	Use:   "validate",
	Short: "Check statement lines without importing them",
	Long: `Validate parses every non-blank line of the input and reports how many lines
were attempted, how many are valid, and why each invalid line was rejected.
It exits with an error when any line is invalid.`,
	RunE: run,
}

func init() {
	Cmd.Flags().StringVarP(&input, "input", "i", "", "Input file, or - for stdin")
}

func run(cmd *cobra.Command, args []string) error {
	cfg, err := common.Config()
	if err != nil {
		return err
	}
	text, err := common.ReadInput(input, cmd.InOrStdin())
	if err != nil {
		return err
	}
	p, err := common.NewLineParser(cfg)
	if err != nil {
		return err
	}

	v := p.Validate(text)
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%d of %d lines valid\n", v.Succeeded, v.Attempted)
	common.PrintLineErrors(out, v.Errors)

	if !v.Valid() {
		msg := fmt.Sprintf("%d invalid lines", len(v.Errors))
		if v.Attempted == 0 {
			msg = "no transaction lines found"
		}
		return &parsererror.InvalidFormatError{FilePath: input, ExpectedFormat: parser.ExpectedFormat, Msg: msg}
	}
	return nil
}
