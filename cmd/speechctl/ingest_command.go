package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/johnquangdev/speech-insights/internal/adapter/repository"
	"github.com/johnquangdev/speech-insights/internal/domain/entities"
	"github.com/johnquangdev/speech-insights/internal/usecase/analysis"
)

func newIngestCommand(ctx *commandContext) *cobra.Command {
	var filename string

	cmd := &cobra.Command{
		Use:   "ingest <analysis.json>...",
		Short: "Store analysis results, one record per audio file name",
		Long: "Each file holds one analysis result. The record is keyed by --filename, " +
			"or by the file name with its .json suffix removed.",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if filename != "" && len(args) > 1 {
				return fmt.Errorf("--filename can only be used with a single file")
			}

			db, closeDB, err := openDB(ctx)
			if err != nil {
				return err
			}
			defer closeDB()

			cfg, _ := ctx.config()
			svc, err := analysis.NewService(repository.NewSpeechAnalysisRepository(db), nil, nil, 0, cfg.Ingest.Workers, ctx.log())
			if err != nil {
				return err
			}
			defer svc.Close()

			rows := make([][]string, 0, len(args))
			for _, path := range args {
				result, err := readAnalysisFile(path)
				if err != nil {
					return err
				}
				name := filename
				if name == "" {
					name = recordName(path)
				}

				outcome, err := svc.Ingest(cmd.Context(), name, result)
				if err != nil {
					return err
				}
				rows = append(rows, []string{name, string(outcome)})
			}

			fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"Filename", "Outcome"}, rows, nil, 0))
			return nil
		},
	}

	cmd.Flags().StringVar(&filename, "filename", "", "Audio file name to store the result under")
	return cmd
}

func readAnalysisFile(path string) (*entities.AnalysisResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var result entities.AnalysisResult
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("%s: invalid analysis result: %w", path, err)
	}
	return &result, nil
}

// recordName maps "dir/call.wav.json" to "call.wav"
func recordName(path string) string {
	return strings.TrimSuffix(filepath.Base(path), ".json")
}
