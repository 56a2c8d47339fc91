package main

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	expcsv "modmanager/internal/adapters/exporter/csv"
	"modmanager/internal/domain"
)

func (c *cli) newSyncCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Fetch installed items from the catalog and translate them",
		Args:  cobra.NoArgs,
		RunE: c.withApp(func(cmd *cobra.Command, args []string) error {
			res, err := c.app.API.Sync()
			if c.jsonOut {
				if perr := c.printJSON(res); perr != nil {
					return perr
				}
				return err
			}
			c.printf("run %s: scanned %d, synced %d, translated %d, %d errors\n",
				res.RunID, res.ScannedCount, len(res.SyncedItems), res.TranslatedCount, len(res.Errors))
			if res.Canceled {
				c.printf("canceled before completion\n")
			}
			for _, e := range res.Errors {
				c.printf("  - %s\n", e)
			}
			return err
		}),
	}
}

func (c *cli) newRefreshCmd() *cobra.Command {
	var language string
	cmd := &cobra.Command{
		Use:   "refresh",
		Short: "Retranslate stored items that are not in the default language",
		Args:  cobra.NoArgs,
		RunE: c.withApp(func(cmd *cobra.Command, args []string) error {
			res, err := c.app.API.RefreshTranslations(language)
			if err != nil {
				return err
			}
			if c.jsonOut {
				return c.printJSON(res)
			}
			c.printf("run %s: %d refreshed, %d failed\n", res.RunID, res.SuccessCount, res.ErrorCount)
			for _, e := range res.Errors {
				c.printf("  - %s\n", e)
			}
			return nil
		}),
	}
	cmd.Flags().StringVarP(&language, "language", "l", "", "Only items detected as this language")
	return cmd
}

func (c *cli) newGetCmd() *cobra.Command {
	var original bool
	cmd := &cobra.Command{
		Use:   "get <id>",
		Short: "Show one catalog item",
		Args:  cobra.ExactArgs(1),
		RunE: c.withApp(func(cmd *cobra.Command, args []string) error {
			it, err := c.app.API.GetItem(args[0], !original)
			if err != nil {
				return err
			}
			if c.jsonOut {
				return c.printJSON(it)
			}
			c.printf("%s  %s\n", it.ID, it.Title)
			c.printf("language: %s  subscriptions: %d  rating: %.1f\n", orDash(it.Language), it.Subscriptions, it.Rating)
			if it.Translation != nil {
				c.printf("original: %s\n", it.Translation.OriginalTitle)
				c.printf("translated: %s\n", it.Translation.LastTranslatedAt.Local().Format(time.DateTime))
			}
			if it.Description != "" {
				c.printf("\n%s\n", it.Description)
			}
			return nil
		}),
	}
	cmd.Flags().BoolVar(&original, "original", false, "Show the remote text instead of the translation")
	return cmd
}

func (c *cli) newSearchCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "search [term]",
		Short: "Search titles, descriptions and translations",
		Args:  cobra.MaximumNArgs(1),
		RunE: c.withApp(func(cmd *cobra.Command, args []string) error {
			items, err := c.app.API.Search(strings.Join(args, " "), limit)
			if err != nil {
				return err
			}
			if c.jsonOut {
				return c.printJSON(items)
			}
			tw := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tLANG\tSUBS\tTITLE")
			for _, it := range items {
				fmt.Fprintf(tw, "%s\t%s\t%d\t%s\n", it.ID, orDash(it.Language), it.Subscriptions, it.Title)
			}
			return tw.Flush()
		}),
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 50, "Maximum number of results")
	return cmd
}

func (c *cli) newStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show catalog statistics",
		Args:  cobra.NoArgs,
		RunE: c.withApp(func(cmd *cobra.Command, args []string) error {
			st, err := c.app.API.GetStatistics()
			if err != nil {
				return err
			}
			if c.jsonOut {
				return c.printJSON(st)
			}
			c.printf("items: %d  translated: %d  updated recently: %d\n", st.TotalItems, st.TranslatedItems, st.RecentUpdateCount)
			for _, lang := range sortedKeys(st.LanguageBreakdown) {
				c.printf("  %-8s %d\n", lang, st.LanguageBreakdown[lang])
			}
			return nil
		}),
	}
}

func (c *cli) newCacheCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect or empty the translation cache",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "stats",
			Short: "Show cache sizes and the rate budget",
			Args:  cobra.NoArgs,
			RunE: c.withApp(func(cmd *cobra.Command, args []string) error {
				st := c.app.API.GetCacheStats()
				if c.jsonOut {
					return c.printJSON(st)
				}
				c.printf("memory: %d entries (~%d bytes)\n", st.MemoryEntryCount, st.ApproximateMemorySize)
				c.printf("persistent: %d entries", st.PersistentEntryCount)
				if st.StoreDegraded {
					c.printf(" (store unavailable)")
				}
				c.printf("\ntranslation enabled: %t\n", st.TranslationEnabled)
				return nil
			}),
		},
		&cobra.Command{
			Use:   "clear",
			Short: "Delete every cached translation",
			Args:  cobra.NoArgs,
			RunE: c.withApp(func(cmd *cobra.Command, args []string) error {
				if err := c.app.API.ClearTranslationCache(); err != nil {
					return err
				}
				c.printf("translation cache cleared\n")
				return nil
			}),
		},
		&cobra.Command{
			Use:   "purge",
			Short: "Delete expired cached translations",
			Args:  cobra.NoArgs,
			RunE: c.withApp(func(cmd *cobra.Command, args []string) error {
				n, err := c.app.API.PurgeExpiredTranslations()
				if err != nil {
					return err
				}
				c.printf("%d expired entries removed\n", n)
				return nil
			}),
		},
	)
	return cmd
}

func (c *cli) newExportCmd() *cobra.Command {
	var format, separator, output string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the catalog as CSV or JSON",
		Args:  cobra.NoArgs,
		RunE: c.withApp(func(cmd *cobra.Command, args []string) error {
			if separator != "" {
				c.app.Catalog.Exporters.Register(expcsv.WithSeparator(separator))
			}
			res, err := c.app.API.Export(format)
			if err != nil {
				return err
			}
			if output == "" || output == "-" {
				_, err = fmt.Fprint(c.out, res.Content)
				return err
			}
			if err := os.WriteFile(output, []byte(res.Content), 0o644); err != nil {
				return err
			}
			c.printf("wrote %s\n", output)
			return nil
		}),
	}
	cmd.Flags().StringVarP(&format, "format", "f", "csv", "Output format: csv or json")
	cmd.Flags().StringVar(&separator, "separator", "", "CSV separator: comma, semicolon or tab")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Write to this file instead of stdout")
	return cmd
}

func (c *cli) newRunsCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List recent sync and refresh runs",
		Args:  cobra.NoArgs,
		RunE: c.withApp(func(cmd *cobra.Command, args []string) error {
			runs, err := c.app.API.ListSyncRuns(limit)
			if err != nil {
				return err
			}
			if c.jsonOut {
				return c.printJSON(runs)
			}
			tw := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tKIND\tSTATUS\tSTARTED\tSYNCED\tTRANSLATED\tERRORS")
			for _, r := range runs {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%d\t%d\n",
					r.ID, r.Kind, r.Status, r.StartedAt.Local().Format(time.DateTime), r.Synced, r.Translated, len(r.Errors))
			}
			return tw.Flush()
		}),
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Number of runs to show")
	cmd.AddCommand(&cobra.Command{
		Use:   "show <id>",
		Short: "Show one run with its errors",
		Args:  cobra.ExactArgs(1),
		RunE: c.withApp(func(cmd *cobra.Command, args []string) error {
			run, err := c.app.API.GetSyncRun(args[0])
			if err != nil {
				return err
			}
			if c.jsonOut {
				return c.printJSON(run)
			}
			printRun(c, run)
			return nil
		}),
	})
	return cmd
}

func printRun(c *cli, r *domain.SyncRun) {
	c.printf("%s %s (%s)\n", r.Kind, r.ID, r.Status)
	c.printf("started %s", r.StartedAt.Local().Format(time.DateTime))
	if !r.FinishedAt.IsZero() {
		c.printf(", took %s", r.FinishedAt.Sub(r.StartedAt).Round(time.Millisecond))
	}
	c.printf("\nscanned %d, synced %d, translated %d\n", r.Scanned, r.Synced, r.Translated)
	for _, e := range r.Errors {
		c.printf("  - %s\n", e)
	}
}
