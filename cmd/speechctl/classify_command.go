package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/johnquangdev/speech-insights/internal/app"
	"github.com/johnquangdev/speech-insights/internal/domain/entities"
	"github.com/johnquangdev/speech-insights/internal/infrastructure/cache"
)

func newClassifyCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "classify <documents.json|->",
		Short: "Assign a topic to every document in a JSON file",
		Long: "Reads either {\"textDocuments\": [...]} or a bare array of " +
			"{\"fileName\", \"transcription\"} objects and prints one topic per document.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.config()
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			docs, err := readDocumentsFile(cmd, args[0])
			if err != nil {
				return err
			}

			logger := ctx.log()
			store, err := cache.New(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			if store != nil {
				defer store.Close()
			}

			session, err := app.NewSession(cmd.Context(), &cfg.Classifier, logger)
			if err != nil {
				return err
			}
			results, err := app.NewTopicService(cfg, session, store, logger).Classify(cmd.Context(), docs)
			if err != nil {
				return err
			}

			if asJSON {
				return writeJSON(cmd, map[string]any{"results": results})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTopicResults(results))
			if missing := len(docs) - len(results); missing > 0 {
				fmt.Fprintf(cmd.ErrOrStderr(), "%d document(s) were not classified\n", missing)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print results as JSON")
	return cmd
}

func readDocumentsFile(cmd *cobra.Command, path string) ([]entities.Document, error) {
	var r io.Reader
	if path == "-" {
		r = cmd.InOrStdin()
	} else {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		r = f
	}
	return readDocuments(r)
}

// readDocuments accepts the API request body or a bare document array
func readDocuments(r io.Reader) ([]entities.Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	data = bytes.TrimSpace(data)

	var docs []entities.Document
	if len(data) > 0 && data[0] == '[' {
		if err := json.Unmarshal(data, &docs); err != nil {
			return nil, fmt.Errorf("invalid document array: %w", err)
		}
	} else {
		var body struct {
			TextDocuments []entities.Document `json:"textDocuments"`
		}
		if err := json.Unmarshal(data, &body); err != nil {
			return nil, fmt.Errorf("invalid documents file: %w", err)
		}
		docs = body.TextDocuments
	}

	if len(docs) == 0 {
		return nil, entities.ErrNoDocuments
	}
	return docs, nil
}

func renderTopicResults(results []entities.TopicResult) string {
	rows := make([][]string, len(results))
	for i, r := range results {
		rows[i] = []string{r.FileName, r.Topic, r.Description}
	}
	return renderTable([]string{"File", "Topic", "Description"}, rows, nil, 60)
}
