package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/cognilex/asi/renderer"
	"github.com/cognilex/asi/scaffold"
)

var (
	validateScaffoldingPath string
	renderCategories        []string

	validateCmd = &cobra.Command{
		Use:   "validate [textfile]",
		Short: "Validate rendered text against scaffolding",
		Long: `Validate checks that a text covers the scaffolding's primary concepts
and required elements and contains none of its prohibited elements.
The scaffolding is read from --scaffolding, or rebuilt from the
current store when the flag is omitted.`,
		Args: cobra.ExactArgs(1),
		RunE: runValidate,
	}

	renderCmd = &cobra.Command{
		Use:   "render",
		Short: "Render scaffolding into text via the configured generator and validate the result",
		Args:  cobra.NoArgs,
		RunE:  runRender,
	}
)

func init() {
	validateCmd.Flags().StringVar(&validateScaffoldingPath, "scaffolding", "",
		"path to a scaffolding JSON file produced by the scaffold command")
	renderCmd.Flags().StringSliceVar(&renderCategories, "categories", nil,
		"target categories; all categories when empty")
}

func runValidate(cmd *cobra.Command, args []string) error {
	p, err := loadProfile()
	if err != nil {
		return err
	}
	eng, closeEngine, err := openEngine(cmd.Context(), p)
	if err != nil {
		return err
	}
	defer closeEngine()

	var sc *scaffold.Scaffolding
	if validateScaffoldingPath != "" {
		raw, err := os.ReadFile(validateScaffoldingPath)
		if err != nil {
			return err
		}
		sc = &scaffold.Scaffolding{}
		if err := json.Unmarshal(raw, sc); err != nil {
			return err
		}
	} else {
		sc, err = eng.Scaffold(nil)
		if err != nil {
			return err
		}
	}

	text, err := os.ReadFile(args[0])
	if err != nil {
		return err
	}

	res := eng.Validate(string(text), sc)
	if err := printJSON(cmd.OutOrStdout(), res); err != nil {
		return err
	}
	if !res.IsValid {
		return fmt.Errorf("text failed validation with score %.2f", res.InterpretabilityScore)
	}
	return nil
}

func runRender(cmd *cobra.Command, _ []string) error {
	p, err := loadProfile()
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	eng, closeEngine, err := openEngine(ctx, p)
	if err != nil {
		return err
	}
	defer closeEngine()

	sc, err := eng.Scaffold(renderCategories)
	if err != nil {
		return err
	}

	r, err := renderer.NewOpenAIRenderer(p)
	if err != nil {
		return err
	}
	text, err := r.Render(ctx, sc)
	if err != nil {
		return err
	}

	res := eng.Validate(text, sc)
	fmt.Fprintln(cmd.OutOrStdout(), text)
	return printJSON(cmd.OutOrStdout(), res)
}
