package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "fillblank",
		Short: "Check fill-in-the-blank questions offline",
		Long: `Parse, sync, validate and grade fill-in-the-blank questions stored as JSON
documents, without a running service.

Every command reads one question document from a file argument, or from
stdin when the argument is "-" or missing, and prints JSON.`,
		SilenceUsage: true,
	}
	root.PersistentFlags().Bool("compact", false, "Print JSON on a single line")

	root.AddCommand(newParseCmd())
	root.AddCommand(newSyncCmd())
	root.AddCommand(newValidateCmd())
	root.AddCommand(newGradeCmd())
	return root
}

func Execute() error {
	return newRootCmd().Execute()
}

// openInput returns the document source named by args
func openInput(cmd *cobra.Command, args []string) (io.ReadCloser, error) {
	if len(args) == 0 || args[0] == "-" {
		return io.NopCloser(cmd.InOrStdin()), nil
	}
	f, err := os.Open(args[0])
	if err != nil {
		return nil, fmt.Errorf("open question document: %w", err)
	}
	return f, nil
}

func loadDocument(cmd *cobra.Command, args []string) (*questionDocument, error) {
	in, err := openInput(cmd, args)
	if err != nil {
		return nil, err
	}
	defer in.Close()
	return readDocument(in)
}

func printJSON(cmd *cobra.Command, v interface{}) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	if compact, _ := cmd.Flags().GetBool("compact"); !compact {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(v)
}
