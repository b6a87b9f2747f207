package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/threadtally/threadtally/internal/config"
	"github.com/threadtally/threadtally/internal/core"
	"github.com/threadtally/threadtally/internal/core/common"
	"github.com/threadtally/threadtally/internal/core/rank"
	"github.com/threadtally/threadtally/internal/store"
)

var (
	cfgPath string
	dbPath  string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "tally",
		Short: "Thread mention leaderboard",
		Long: `ThreadTally ingests discussion thread JSON, extracts product-model
mentions, canonicalizes spelling variants, and ranks models by mention
count and community votes.`,
	}
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "", "Path to TOML config file")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "Path to sqlite database (overrides config)")

	rootCmd.AddCommand(importCmd())
	rootCmd.AddCommand(runCmd())
	rootCmd.AddCommand(topCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func loadConfig() *config.Config {
	if cfgPath == "" {
		cfg := config.Default()
		applyOverrides(cfg)
		return cfg
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "could not load %s: %v; using defaults\n", cfgPath, err)
		cfg = config.Default()
	}
	applyOverrides(cfg)
	return cfg
}

func applyOverrides(cfg *config.Config) {
	if dbPath != "" {
		cfg.Storage.Path = dbPath
	}
}

func importCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import <file.json> [more files...]",
		Short: "Import thread JSON files into the document store",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := loadConfig()
			st, err := store.Open(cfg.Storage.Path)
			if err != nil {
				return err
			}
			defer st.Close()

			totalAdded, totalDups, totalSkipped := 0, 0, 0
			for _, path := range args {
				data, err := os.ReadFile(path)
				if err != nil {
					return fmt.Errorf("read %s: %w", path, err)
				}
				docs, malformed, err := common.DecodeDocuments(string(data))
				if err != nil {
					return fmt.Errorf("parse %s: %w", path, err)
				}
				added, dups, skipped, err := st.ImportDocuments(docs)
				if err != nil {
					return fmt.Errorf("import %s: %w", path, err)
				}
				totalAdded += added
				totalDups += dups
				totalSkipped += skipped + malformed
			}
			fmt.Printf("Imported %d documents (%d duplicates ignored, %d skipped)\n",
				totalAdded, totalDups, totalSkipped)
			return nil
		},
	}
}

func runCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run the extraction pipeline over all stored documents",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := loadConfig()
			st, err := store.Open(cfg.Storage.Path)
			if err != nil {
				return err
			}
			defer st.Close()

			docs, err := st.Documents()
			if err != nil {
				return err
			}

			t := core.NewTally(cfg)
			res, err := t.Run(context.Background(), docs)
			if err != nil {
				return err
			}
			if err := st.PublishRun(res); err != nil {
				return err
			}

			fmt.Printf("Run %s: %d docs (%d skipped), %d records, %d mentions, %d entities\n",
				res.RunID, res.DocsProcessed, res.DocsSkipped, res.Records, res.Mentions, len(res.Stats))
			return nil
		},
	}
}

func topCmd() *cobra.Command {
	var topN int
	var variant string

	cmd := &cobra.Command{
		Use:   "top",
		Short: "Print the latest leaderboard",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := loadConfig()
			st, err := store.Open(cfg.Storage.Path)
			if err != nil {
				return err
			}
			defer st.Close()

			stats, runID, err := st.Leaderboard()
			if err != nil {
				return err
			}
			if len(stats) == 0 {
				fmt.Println("No published run yet. Import threads and run the pipeline first.")
				return nil
			}

			rows := rank.Build(stats, rank.ParseVariant(variant), topN)

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "RANK\tMODEL\tMENTIONS\tTHREADS\tVOTES\tSCORE_V2\tAVG_DOC_SCORE")
			for _, r := range rows {
				fmt.Fprintf(w, "%d\t%s\t%d\t%d\t%d\t%.3f\t%.2f\n",
					r.Rank, r.Name, r.Mentions, r.UniqueThreads, r.VoteScore, r.ScoreV2, r.AvgDocScore)
			}
			if err := w.Flush(); err != nil {
				return err
			}
			fmt.Printf("(run %s)\n", runID)
			return nil
		},
	}
	cmd.Flags().IntVar(&topN, "n", 15, "How many rows to show (clamped to 1-200)")
	cmd.Flags().StringVar(&variant, "variant", "v2", "Score variant: v1 (mention count) or v2 (vote-weighted)")
	return cmd
}
