package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/sahilm/fuzzy"
	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"github.com/justchokingaround/archivist/internal/catalog"
	"github.com/justchokingaround/archivist/internal/clipboard"
	"github.com/justchokingaround/archivist/internal/database"
	"github.com/justchokingaround/archivist/internal/history"
	"github.com/justchokingaround/archivist/internal/player"
	"github.com/justchokingaround/archivist/internal/player/mpv"
	"github.com/justchokingaround/archivist/internal/tui"
)

// playCmd plays an item in the now-playing view
var playCmd = &cobra.Command{
	Use:   "play <identifier>",
	Short: "Play an item",
	Long: `Play every playable file of an item as a playlist.

The position is saved while playing; --resume continues where the item
was left. Volume, speed, shuffle and repeat are remembered per item.`,
	Args: cobra.ExactArgs(1),
	RunE: runPlay,
}

func init() {
	playCmd.Flags().String("track", "", "start at the track whose title best matches")
	playCmd.Flags().Int("start", 1, "start at this track number")
	playCmd.Flags().Bool("resume", false, "continue from the saved position")
	playCmd.Flags().Bool("shuffle", false, "shuffle the playlist")
	playCmd.Flags().String("repeat", "none", "repeat mode: none, all or one")
}

func runPlay(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fetchCtx, cancel := context.WithTimeout(ctx, cfg.Catalog.Timeout+5*time.Second)
	item, tracks, err := catalog.NewClientWithConfig(cfg, logger).Tracks(fetchCtx, args[0], catalog.TrackOptions{
		VideoExtensions: cfg.Player.Extensions,
		AudioExtensions: cfg.Player.AudioExtensions,
	})
	cancel()
	if err != nil {
		return fmt.Errorf("failed to load %s: %w", args[0], err)
	}
	if len(tracks) == 0 {
		return fmt.Errorf("%s has no playable files", args[0])
	}
	title := lo.CoalesceOrEmpty(item.Metadata.Title.String(), item.Identifier)

	start, resumeAt, err := startPosition(ctx, cmd, item.Identifier, tracks)
	if err != nil {
		return err
	}

	pref, hasPref, err := database.GetPlayerPreference(database.GetDB(), item.Identifier)
	if err != nil {
		logger.Warn("failed to load player preference", "item", item.Identifier, "error", err)
	}
	shuffle, repeat, err := playlistModes(cmd, pref, hasPref)
	if err != nil {
		return err
	}

	element, err := mpv.NewElementWithConfig(cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to create player: %w", err)
	}

	engine, err := player.NewEngine(element, tracks,
		player.WithStartIndex(start),
		player.WithLogger(logger),
		player.WithResolver(resolverFor(item)),
		player.WithAutoplay(cfg.Player.Autoplay),
		player.WithTiming(player.Timing{
			DoubleTapWindow:   cfg.Player.DoubleTapWindow,
			ControlsHideDelay: cfg.Player.ControlsHideDelay,
			SkipInterval:      cfg.Player.SkipInterval,
			RestartThreshold:  cfg.Player.RestartThreshold,
		}),
		player.WithShuffle(shuffle),
		player.WithRepeat(repeat),
	)
	if err != nil {
		_ = element.Close()
		return fmt.Errorf("failed to create engine: %w", err)
	}
	defer func() {
		if err := engine.Close(); err != nil {
			logger.Warn("failed to close player", "error", err)
		}
	}()

	recorder := history.NewRecorder(history.NewService(database.GetDB()), item.Identifier, title, logger)
	unsubscribe := engine.Subscribe(recorder.Listen)
	defer unsubscribe()

	if resumeAt > 0 {
		seekOnLoad(ctx, engine, start, resumeAt)
	}

	if err := engine.Start(ctx); err != nil {
		return fmt.Errorf("failed to start playback: %w", err)
	}

	volume := cfg.Player.Volume
	if hasPref {
		volume = pref.Volume
	}
	if err := engine.SetVolume(ctx, volume); err != nil {
		logger.Warn("failed to set volume", "volume", volume, "error", err)
	}
	if hasPref && pref.Rate > 0 && pref.Rate != 1 {
		if err := engine.SetPlaybackRate(ctx, pref.Rate); err != nil {
			logger.Warn("failed to restore playback rate", "rate", pref.Rate, "error", err)
		}
	}

	runErr := tui.Run(ctx, engine, tui.Options{
		Title:     title,
		Clipboard: clipboard.NewService(logger, cfg.Advanced.Clipboard.Command),
		Logger:    logger,
	})

	snap := engine.Snapshot()
	recorder.Record(snap)
	if err := database.SavePlayerPreference(database.GetDB(), database.PlayerPreference{
		ItemID:  item.Identifier,
		Volume:  snap.State.Volume,
		Rate:    lo.Ternary(snap.State.Rate > 0, snap.State.Rate, 1.0),
		Shuffle: snap.Shuffled,
		Repeat:  snap.Repeat.String(),
	}); err != nil {
		logger.Warn("failed to save player preference", "item", item.Identifier, "error", err)
	}

	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		return fmt.Errorf("player view failed: %w", runErr)
	}
	return nil
}

// startPosition picks the first track and, for --resume, the position
// to seek to once it has loaded
func startPosition(ctx context.Context, cmd *cobra.Command, itemID string, tracks []player.Track) (int, float64, error) {
	if query, _ := cmd.Flags().GetString("track"); query != "" {
		titles := lo.Map(tracks, func(t player.Track, _ int) string { return t.Title })
		matches := fuzzy.Find(query, titles)
		if len(matches) == 0 {
			return 0, 0, fmt.Errorf("no track matches %q", query)
		}
		return matches[0].Index, 0, nil
	}

	if resume, _ := cmd.Flags().GetBool("resume"); resume {
		entry, err := history.NewService(database.GetDB()).Last(ctx, itemID)
		if err != nil && !errors.Is(err, history.ErrNotFound) {
			return 0, 0, fmt.Errorf("failed to load history: %w", err)
		}
		if index, position, ok := history.ResumeIndex(entry, tracks); ok {
			logger.Info("resuming", "item", itemID, "track", index, "position", position)
			return index, position, nil
		}
		logger.Info("nothing to resume, starting from the beginning", "item", itemID)
		return 0, 0, nil
	}

	n, _ := cmd.Flags().GetInt("start")
	if n < 1 || n > len(tracks) {
		return 0, 0, fmt.Errorf("--start must be between 1 and %d", len(tracks))
	}
	return n - 1, 0, nil
}

// playlistModes resolves shuffle and repeat. Explicit flags win over the
// stored preference.
func playlistModes(cmd *cobra.Command, pref database.PlayerPreference, hasPref bool) (bool, player.RepeatMode, error) {
	shuffle, _ := cmd.Flags().GetBool("shuffle")
	if hasPref && !cmd.Flags().Changed("shuffle") {
		shuffle = pref.Shuffle
	}

	name, _ := cmd.Flags().GetString("repeat")
	if hasPref && !cmd.Flags().Changed("repeat") {
		name = pref.Repeat
	}
	repeat, err := player.ParseRepeatMode(name)
	if err != nil {
		return false, player.RepeatNone, err
	}
	return shuffle, repeat, nil
}

// resolverFor builds the fallback resolver for the item's media type.
// Audio has no derivative copies.
func resolverFor(item *catalog.Item) *player.Resolver {
	if kind, _ := catalog.ParseMediaType(item.Metadata.MediaType.String()); kind == catalog.MediaAudio {
		return player.NewResolver(cfg.Player.AudioExtensions, "")
	}
	return player.NewResolver(cfg.Player.Extensions, cfg.Player.DerivativeMarker)
}

// seekOnLoad seeks track index to position the first time its metadata
// becomes ready. It must be called before the engine starts.
func seekOnLoad(ctx context.Context, engine *player.Engine, index int, position float64) {
	var once sync.Once
	var unsubscribe func()
	unsubscribe = engine.Subscribe(func(s player.Signal) {
		if s.Kind != player.SignalMetadataReady || s.Index != index {
			return
		}
		once.Do(func() {
			if err := engine.SeekTo(ctx, position); err != nil {
				logger.Warn("failed to seek to saved position", "position", position, "error", err)
			}
			unsubscribe()
		})
	})
}
