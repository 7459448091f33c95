package main

import (
	"context"
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/justchokingaround/archivist/internal/catalog"
	"github.com/justchokingaround/archivist/internal/database"
	"github.com/justchokingaround/archivist/internal/favorites"
	"github.com/justchokingaround/archivist/internal/history"
)

// identity returns the configured user
func identity() (favorites.Identity, error) {
	id := favorites.Identity{UserID: cfg.User.ID}
	if cfg.User.ID == "" {
		return id, fmt.Errorf("%w: set user.id in the config file (archivist config path)", favorites.ErrNoIdentity)
	}
	return id, nil
}

// favoritesCmd manages the user's favorites
var favoritesCmd = &cobra.Command{
	Use:     "favorites",
	Aliases: []string{"fav"},
	Short:   "Manage favorite items",
}

var favoritesAddCmd = &cobra.Command{
	Use:   "add <identifier>",
	Short: "Add an item to favorites",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := identity()
		if err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		item, err := catalog.NewClientWithConfig(cfg, logger).Item(ctx, args[0])
		if err != nil {
			return fmt.Errorf("failed to look up %s: %w", args[0], err)
		}

		fav, err := favorites.NewService(database.GetDB()).Add(ctx, id, favorites.Favorite{
			ItemID:    item.Identifier,
			Title:     item.Metadata.Title.String(),
			MediaType: item.Metadata.MediaType.String(),
		})
		if err != nil {
			return fmt.Errorf("failed to add favorite: %w", err)
		}

		fmt.Printf("★ %s (%s)\n", fav.Title, fav.ItemID)
		return nil
	},
}

var favoritesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List favorites, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := identity()
		if err != nil {
			return err
		}

		favs, err := favorites.NewService(database.GetDB()).List(context.Background(), id)
		if err != nil {
			return fmt.Errorf("failed to list favorites: %w", err)
		}
		if len(favs) == 0 {
			fmt.Println("No favorites yet. Add one with: archivist favorites add <identifier>")
			return nil
		}

		for i, f := range favs {
			fmt.Printf("%d. %s\n", i+1, f.Title)
			fmt.Printf("   ID: %s\n", f.ItemID)
			if f.MediaType != "" {
				fmt.Printf("   Type: %s\n", f.MediaType)
			}
			fmt.Printf("   Added: %s\n", humanize.Time(f.CreatedAt))
			fmt.Println()
		}
		return nil
	},
}

var favoritesRemoveCmd = &cobra.Command{
	Use:     "remove <identifier>",
	Aliases: []string{"rm"},
	Short:   "Remove an item from favorites",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := identity()
		if err != nil {
			return err
		}
		if err := favorites.NewService(database.GetDB()).Remove(context.Background(), id, args[0]); err != nil {
			return fmt.Errorf("failed to remove favorite: %w", err)
		}
		fmt.Printf("Removed %s\n", args[0])
		return nil
	},
}

// historyCmd shows recently played items
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recently played items",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		forget, _ := cmd.Flags().GetString("forget")
		cleanup, _ := cmd.Flags().GetDuration("cleanup")

		svc := history.NewService(database.GetDB())
		ctx := context.Background()

		if forget != "" {
			if err := svc.DeleteByItem(ctx, forget); err != nil {
				return fmt.Errorf("failed to delete history: %w", err)
			}
			fmt.Printf("Forgot %s\n", forget)
			return nil
		}
		if cleanup > 0 {
			if err := svc.Cleanup(ctx, cleanup); err != nil {
				return fmt.Errorf("failed to clean up history: %w", err)
			}
		}

		entries, err := svc.Recent(ctx, limit)
		if err != nil {
			return fmt.Errorf("failed to load history: %w", err)
		}
		if len(entries) == 0 {
			fmt.Println("Nothing played yet.")
			return nil
		}

		for i, e := range entries {
			title := e.ItemTitle
			if title == "" {
				title = e.ItemID
			}
			fmt.Printf("%d. %s\n", i+1, title)
			fmt.Printf("   ID: %s\n", e.ItemID)
			fmt.Printf("   Track %d: %s", e.TrackIndex+1, e.TrackTitle)
			if e.Completed {
				fmt.Printf(" (finished)\n")
			} else {
				fmt.Printf(" (%.0f%%)\n", e.Progress())
			}
			fmt.Printf("   Played: %s\n", humanize.Time(e.WatchedAt))
			fmt.Println()
		}
		return nil
	},
}

func init() {
	favoritesCmd.AddCommand(favoritesAddCmd)
	favoritesCmd.AddCommand(favoritesListCmd)
	favoritesCmd.AddCommand(favoritesRemoveCmd)

	historyCmd.Flags().IntP("limit", "n", 20, "number of items to show")
	historyCmd.Flags().String("forget", "", "delete the history of an item")
	historyCmd.Flags().Duration("cleanup", 0, "delete finished entries older than this (e.g. 720h)")
}
