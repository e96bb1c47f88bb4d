package main

import (
	"encoding/json"
	"io"

	"github.com/spf13/cobra"
)

var (
	scaffoldCategories []string

	scoreCmd = &cobra.Command{
		Use:   "score",
		Short: "Print the interpretability breakdown of the current store",
		Args:  cobra.NoArgs,
		RunE:  runScore,
	}

	compressCmd = &cobra.Command{
		Use:   "compress",
		Short: "Run one compression pass over low-usage concepts",
		Args:  cobra.NoArgs,
		RunE:  runCompress,
	}

	scaffoldCmd = &cobra.Command{
		Use:   "scaffold",
		Short: "Build generation scaffolding from the current store",
		Args:  cobra.NoArgs,
		RunE:  runScaffold,
	}
)

func init() {
	scaffoldCmd.Flags().StringSliceVar(&scaffoldCategories, "categories", nil,
		"target categories; all categories when empty")
}

func runScore(cmd *cobra.Command, _ []string) error {
	p, err := loadProfile()
	if err != nil {
		return err
	}
	eng, closeEngine, err := openEngine(cmd.Context(), p)
	if err != nil {
		return err
	}
	defer closeEngine()

	breakdown, err := eng.Breakdown()
	if err != nil {
		return err
	}
	return printJSON(cmd.OutOrStdout(), breakdown)
}

func runCompress(cmd *cobra.Command, _ []string) error {
	p, err := loadProfile()
	if err != nil {
		return err
	}
	eng, closeEngine, err := openEngine(cmd.Context(), p)
	if err != nil {
		return err
	}
	defer closeEngine()

	res, err := eng.Compress(cmd.Context())
	if err != nil {
		return err
	}
	return printJSON(cmd.OutOrStdout(), res)
}

func runScaffold(cmd *cobra.Command, _ []string) error {
	p, err := loadProfile()
	if err != nil {
		return err
	}
	eng, closeEngine, err := openEngine(cmd.Context(), p)
	if err != nil {
		return err
	}
	defer closeEngine()

	sc, err := eng.Scaffold(scaffoldCategories)
	if err != nil {
		return err
	}
	return printJSON(cmd.OutOrStdout(), sc)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
