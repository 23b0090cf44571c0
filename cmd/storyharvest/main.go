package main

import (
	"fmt"
	"os"
	"sort"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"storyharvest/internal/app"
	"storyharvest/internal/build"
	"storyharvest/internal/config"
	"storyharvest/internal/domain"
	"storyharvest/internal/logging"
	"storyharvest/internal/usecase"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "storyharvest",
		Short:         "Scrape category articles, rewrite them with an LLM, and publish content files",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newScrapeCmd(), newBuildCmd())
	return root
}

func newScrapeCmd() *cobra.Command {
	var (
		configPath  string
		listingURL  string
		category    string
		numArticles int
		verbose     bool
	)

	cmd := &cobra.Command{
		Use:   "scrape",
		Short: "Scrape configured categories (or one URL), process articles, and emit content documents",
		RunE: func(cmd *cobra.Command, _ []string) error {
			_ = godotenv.Load()

			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			if verbose {
				cfg.Logging.Level = "debug"
			}
			logger := logging.New(cfg.Logging.Level)

			application, err := app.New(cfg, logger)
			if err != nil {
				return err
			}

			var summary domain.Summary
			if listingURL != "" {
				logger.Info("scraping single url", "url", listingURL, "category", category)
				summary, err = application.ScrapeURL(cmd.Context(), listingURL, category, numArticles)
			} else {
				logger.Info("scraping configured categories", "count", len(cfg.Website.Categories))
				summary, err = application.ScrapeAll(cmd.Context(), numArticles)
			}
			if err != nil {
				return err
			}

			printSummary(summary)
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "path to the YAML configuration file")
	_ = cmd.MarkFlagRequired("config")
	cmd.Flags().StringVarP(&listingURL, "url", "u", "", "scrape a single listing URL instead of the configured categories")
	cmd.Flags().IntVarP(&numArticles, "num-articles", "n", 10, "maximum articles per category")
	cmd.Flags().StringVar(&category, "category", usecase.DefaultCategory, "category label used with --url")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	return cmd
}

func newBuildCmd() *cobra.Command {
	var (
		contentDir string
		publicDir  string
		srcDir     string
		verbose    bool
	)

	cmd := &cobra.Command{
		Use:   "build",
		Short: "Render content documents into static site data files",
		RunE: func(_ *cobra.Command, _ []string) error {
			level := "info"
			if verbose {
				level = "debug"
			}
			logger := logging.New(level)
			return build.New(contentDir, publicDir, srcDir, logger.With("component", "build")).Run()
		},
	}

	cmd.Flags().StringVar(&contentDir, "content", "content", "directory holding content documents")
	cmd.Flags().StringVar(&publicDir, "public", "public", "output directory for site data")
	cmd.Flags().StringVar(&srcDir, "src", "src", "directory holding static assets to copy")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	return cmd
}

func printSummary(summary domain.Summary) {
	fmt.Println()
	fmt.Println("==============================")
	fmt.Println("采集完成！统计信息：")
	fmt.Println("==============================")
	fmt.Printf("总文章数: %d\n", summary.Total)
	fmt.Printf("已保存文件: %d\n", summary.SavedFiles)

	if len(summary.Categories) > 0 {
		fmt.Println("\n分类统计:")
		for _, category := range sortedKeys(summary.Categories) {
			fmt.Printf("  - %s: %d 篇\n", category, summary.Categories[category])
		}
	}

	if len(summary.Tags) > 0 {
		fmt.Println("\n标签统计:")
		for i, tag := range keysByCount(summary.Tags) {
			if i == 10 {
				break
			}
			fmt.Printf("  - %s: %d 篇\n", tag, summary.Tags[tag])
		}
	}
	fmt.Println("==============================")
}

func sortedKeys(counts map[string]int) []string {
	keys := make([]string, 0, len(counts))
	for key := range counts {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

func keysByCount(counts map[string]int) []string {
	keys := sortedKeys(counts)
	sort.SliceStable(keys, func(i, j int) bool {
		return counts[keys[i]] > counts[keys[j]]
	})
	return keys
}
