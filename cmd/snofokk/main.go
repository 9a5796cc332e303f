package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/toro68/snofokk-analyse-sub002/internal/log"
	"github.com/toro68/snofokk-analyse-sub002/internal/pipeline"
	"github.com/toro68/snofokk-analyse-sub002/internal/store"
	"github.com/toro68/snofokk-analyse-sub002/internal/types"
	"github.com/toro68/snofokk-analyse-sub002/pkg/config"
)

const version = "1.0-" + runtime.GOOS + "/" + runtime.GOARCH

func main() {
	cfgFile := flag.String("config", "", "Path to a YAML threshold configuration file (overrides -preset)")
	preset := flag.String("preset", "default", "Named threshold preset: default, exposed-ridge, sheltered")
	dbFile := flag.String("db", "station.db", "Path to the station SQLite database")
	station := flag.String("station", "", "Station name to analyze")
	fromStr := flag.String("from", "", "Start of the analysis range (RFC 3339), default 7 days ago")
	toStr := flag.String("to", "", "End of the analysis range (RFC 3339), default now")
	debug := flag.Bool("debug", false, "Turn on debugging output")
	showVersion := flag.Bool("version", false, "Show version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("snofokk %s\n", version)
		os.Exit(0)
	}

	// Set up logging
	if err := log.Init(*debug); err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	if *station == "" {
		log.Errorf("A station name is required. Run with -h for help")
		os.Exit(1)
	}

	cfg, err := loadConfig(*cfgFile, *preset)
	if err != nil {
		log.Errorf("Failed to load configuration: %v", err)
		os.Exit(1)
	}

	from, to, err := parseRange(*fromStr, *toStr)
	if err != nil {
		log.Errorf("Invalid time range: %v", err)
		os.Exit(1)
	}

	if err := run(cfg, *dbFile, *station, from, to); err != nil {
		log.Errorf("Analysis error: %v", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, dbFile, station string, from, to time.Time) error {
	ctx := context.Background()

	dbPath, _ := filepath.Abs(dbFile)
	st, err := store.Open(dbPath, log.GetSugaredLogger())
	if err != nil {
		return err
	}
	defer st.Close()

	series, err := st.LoadObservations(ctx, station, from, to)
	if err != nil {
		return err
	}
	log.Infof("Loaded %d observations for %s (%s to %s)",
		len(series), station, from.Format(time.RFC3339), to.Format(time.RFC3339))

	analyzer, err := pipeline.New(cfg, log.GetSugaredLogger())
	if err != nil {
		return err
	}

	result, err := analyzer.Run(series)
	if err != nil {
		return err
	}

	for _, domain := range []types.Domain{types.DomainSnowdrift, types.DomainSlippery} {
		episodes := result.Episodes[domain]
		if err := st.RefreshEpisodes(ctx, station, domain, episodes); err != nil {
			return err
		}
		for _, ep := range episodes {
			log.Infof("%s: %s episode %s to %s (%d steps)",
				domain, ep.Level,
				ep.Start.Format("2006-01-02 15:04"), ep.End.Format("2006-01-02 15:04"),
				ep.Steps)
		}
		log.Infof("%s: %d episodes cached", domain, len(episodes))
	}

	return nil
}

func loadConfig(cfgFile, preset string) (config.Config, error) {
	if cfgFile != "" {
		filename, _ := filepath.Abs(cfgFile)
		return config.LoadFile(filename)
	}
	return config.Preset(preset)
}

func parseRange(fromStr, toStr string) (time.Time, time.Time, error) {
	to := time.Now()
	from := to.Add(-7 * 24 * time.Hour)

	var err error
	if toStr != "" {
		if to, err = time.Parse(time.RFC3339, toStr); err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("bad -to value: %w", err)
		}
	}
	if fromStr != "" {
		if from, err = time.Parse(time.RFC3339, fromStr); err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("bad -from value: %w", err)
		}
	}
	if !from.Before(to) {
		return time.Time{}, time.Time{}, fmt.Errorf("-from must be before -to")
	}
	return from, to, nil
}
