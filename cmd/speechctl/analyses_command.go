package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/johnquangdev/speech-insights/internal/adapter/repository"
	"github.com/johnquangdev/speech-insights/internal/domain/entities"
)

func newAnalysesCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyses",
		Short: "Inspect stored analysis records",
	}
	cmd.AddCommand(newAnalysesListCommand(ctx))
	cmd.AddCommand(newAnalysesShowCommand(ctx))
	return cmd
}

func newAnalysesListCommand(ctx *commandContext) *cobra.Command {
	var (
		limit  int
		offset int
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List records, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, closeDB, err := openDB(ctx)
			if err != nil {
				return err
			}
			defer closeDB()

			records, total, err := repository.NewSpeechAnalysisRepository(db).List(cmd.Context(), limit, offset)
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd, map[string]any{"total": total, "data": records})
			}

			fmt.Fprintln(cmd.OutOrStdout(), renderAnalyses(records))
			fmt.Fprintf(cmd.OutOrStdout(), "%d of %d record(s)\n", len(records), total)
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum records to show")
	cmd.Flags().IntVar(&offset, "offset", 0, "Records to skip")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print records as JSON")
	return cmd
}

func newAnalysesShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show <filename>",
		Short: "Print one record as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, closeDB, err := openDB(ctx)
			if err != nil {
				return err
			}
			defer closeDB()

			record, err := repository.NewSpeechAnalysisRepository(db).FindByFilename(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return writeJSON(cmd, record)
		},
	}
}

func renderAnalyses(records []*entities.SpeechAnalysis) string {
	rows := make([][]string, len(records))
	for i, r := range records {
		rows[i] = []string{
			r.Filename,
			r.Sentiment,
			strconv.FormatFloat(r.SentimentScore, 'f', 4, 64),
			r.TopicLabel,
			r.UpdatedAt.Format("2006-01-02 15:04:05"),
		}
	}
	return renderTable(
		[]string{"Filename", "Sentiment", "Score", "Topics", "Updated"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignRight, alignLeft, alignLeft},
		48,
	)
}
