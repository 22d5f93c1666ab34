// Command forgepack packs a set of loose resources into a single Hailstorm
// binary archive, resolving inputs through the same Provider/Tracker
// machinery the runtime uses to load resources.
package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/pflag"

	"github.com/forgelight/forgekit"
	"github.com/forgelight/forgekit/internal/aio"
	"github.com/forgelight/forgekit/internal/config"
	"github.com/forgelight/forgekit/internal/hailstorm"
	"github.com/forgelight/forgekit/internal/logging"
	"github.com/forgelight/forgekit/internal/resource"
	"github.com/forgelight/forgekit/internal/resource/providers/files"
	"github.com/forgelight/forgekit/internal/resource/providers/fs"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	flags := pflag.NewFlagSet("forgepack", pflag.ContinueOnError)
	include := flags.StringArrayP("include", "i", nil, "root directory to include (repeatable)")
	configs := flags.StringArrayP("config", "c", nil, "config file to merge, JSON or binary metadata (repeatable)")
	output := flags.StringP("output", "o", "", "output archive path (required)")
	verbose := flags.BoolP("verbose", "v", false, "enable debug logging")

	if err := flags.Parse(args); err != nil {
		if err == pflag.ErrHelp {
			return 0
		}
		fmt.Fprintln(os.Stderr, "[ERROR]", err)
		return 1
	}

	level := logging.LevelInfo
	if *verbose {
		level = logging.LevelDebug
	}
	logger := logging.NewLogger(&logging.Config{Level: level, Output: os.Stderr})

	if *output == "" {
		logger.Errorf("--output is required")
		return 1
	}

	cfg := config.New()
	for _, path := range *configs {
		if err := mergeConfigFile(cfg, path); err != nil {
			logger.Errorf("loading config %s: %v", path, err)
			return 1
		}
	}

	metrics := forgekit.NewMetrics()
	defer metrics.Stop()

	ctx := context.Background()
	tracker := resource.NewTracker(64, logger)
	tracker.SetMetrics(metrics)
	for _, root := range *include {
		tracker.AttachProvider(fs.New(root))
	}
	if inputs := flags.Args(); len(inputs) > 0 {
		tracker.AttachProvider(files.New(inputs))
	}

	if err := tracker.Sync(ctx); err != nil {
		logger.Errorf("syncing providers: %v", err)
		return 1
	}

	entries, err := loadEntries(ctx, tracker)
	if err != nil {
		logger.Errorf("loading resources: %v", err)
		return 1
	}
	if len(entries) == 0 {
		logger.Errorf("no resources found under the given --include roots")
		return 1
	}

	if err := os.MkdirAll(filepath.Dir(*output), 0o755); err != nil {
		logger.Errorf("creating output directory: %v", err)
		return 1
	}
	f, err := os.Create(*output)
	if err != nil {
		logger.Errorf("creating output archive: %v", err)
		return 1
	}
	defer f.Close()

	port, err := aio.NewPort(aio.DefaultConfig(), logger)
	if err != nil {
		logger.Errorf("creating aio port: %v", err)
		return 1
	}
	defer port.Close()

	w := hailstorm.NewWriter(port, logger, metrics)
	stats, err := w.Pack(f, entries)
	if err != nil {
		logger.Errorf("packing archive: %v", err)
		return 1
	}

	logger.Info("packed archive", "path", *output, "resources", stats.ResourceCount, "bytes", stats.TotalBytes)
	return 0
}

func mergeConfigFile(cfg *config.Config, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	loaded, err := config.Load(f)
	if err != nil {
		return err
	}
	cfg.Merge(loaded)
	return nil
}

func loadEntries(ctx context.Context, tracker *resource.Tracker) ([]hailstorm.Entry, error) {
	var entries []hailstorm.Entry
	for _, res := range tracker.AllResources() {
		handle, err := tracker.LoadResource(ctx, res.URI)
		if err != nil {
			return nil, err
		}
		data, err := handle.Data(ctx)
		if err != nil {
			handle.Release(ctx)
			return nil, err
		}
		entries = append(entries, hailstorm.Entry{Name: res.Name, Data: data, Metadata: res.Metadata})
		handle.Release(ctx)
	}
	return entries, nil
}
