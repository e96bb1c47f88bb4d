package main

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cognilex/asi/extract"
)

var (
	analyzeDocType  string
	analyzeCompress bool

	analyzeCmd = &cobra.Command{
		Use:   "analyze [file...]",
		Short: "Extract concepts from documents and integrate them into the store",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runAnalyze,
	}
)

func init() {
	analyzeCmd.Flags().StringVar(&analyzeDocType, "type", "",
		"document type for all inputs (plain, markdown, statute, ruling, contract); inferred from extension when empty")
	analyzeCmd.Flags().BoolVar(&analyzeCompress, "auto-compress", true,
		"run a compression pass when the interpretability score drops below the threshold")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
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

	docs := make([]extract.Document, 0, len(args))
	for _, path := range args {
		text, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		docType, err := documentTypeFor(path)
		if err != nil {
			return err
		}
		docs = append(docs, extract.Document{
			Text:     string(text),
			Type:     docType,
			Metadata: map[string]string{"filename": filepath.Base(path)},
		})
	}

	results, err := eng.AnalyzeBatch(ctx, docs)
	if err != nil {
		return err
	}

	needsCompression := false
	for i, res := range results {
		if res == nil {
			slog.Warn("document skipped", "file", args[i])
			continue
		}
		needsCompression = needsCompression || res.NeedsCompression
	}

	if needsCompression && analyzeCompress {
		cres, err := eng.Compress(ctx)
		if err != nil {
			return err
		}
		slog.Info("compression pass complete",
			"merged", cres.Merged, "clusters", cres.Clusters, "score", cres.NewScore)
	}

	return printJSON(cmd.OutOrStdout(), results)
}

func documentTypeFor(path string) (extract.DocumentType, error) {
	if analyzeDocType != "" {
		return extract.ParseDocumentType(analyzeDocType)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".md", ".markdown":
		return extract.TypeMarkdown, nil
	default:
		return extract.TypePlain, nil
	}
}
