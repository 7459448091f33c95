package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/justchokingaround/archivist/internal/catalog"
)

// searchCmd searches the catalog
var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search the archive for movies or audio",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		query := strings.Join(args, " ")
		mediaType, _ := cmd.Flags().GetString("type")
		limit, _ := cmd.Flags().GetInt("limit")
		page, _ := cmd.Flags().GetInt("page")

		kind, ok := catalog.ParseMediaType(mediaType)
		if !ok {
			return fmt.Errorf("unknown media type %q (want movies or audio)", mediaType)
		}

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		client := catalog.NewClientWithConfig(cfg, logger)
		logger.Info("searching", "query", query, "type", kind)

		results, err := client.Search(ctx, catalog.Query{Text: query, MediaType: kind, Page: page, Rows: limit})
		if err != nil {
			return fmt.Errorf("search failed: %w", err)
		}

		// Display results
		fmt.Printf("Found %s results (page %d):\n\n", humanize.Comma(int64(results.Total)), results.Page)
		rows := limit
		if rows <= 0 {
			rows = cfg.Catalog.Rows
		}
		offset := (results.Page - 1) * rows
		for i, r := range results.Results {
			title := r.Title.String()
			if r.Year != "" {
				title += " (" + r.Year.String() + ")"
			}
			fmt.Printf("%d. %s\n", offset+i+1, title)
			fmt.Printf("   ID: %s\n", r.Identifier)
			if r.Creator != "" {
				fmt.Printf("   Creator: %s\n", r.Creator)
			}
			fmt.Printf("   Downloads: %s\n", humanize.Comma(int64(r.Downloads)))
			fmt.Println()
		}

		if len(results.Results) > 0 {
			fmt.Printf("Play one with: archivist play %s\n", results.Results[0].Identifier)
		}
		return nil
	},
}

func init() {
	searchCmd.Flags().StringP("type", "t", "movies", "media type: movies or audio")
	searchCmd.Flags().IntP("limit", "n", 0, "results per page (default: catalog.rows)")
	searchCmd.Flags().IntP("page", "p", 1, "result page")
}
