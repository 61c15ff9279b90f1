package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"tictactoe/communication/server"
	"tictactoe/experiments"
	"tictactoe/gamemaster"
	"tictactoe/meta"
	"tictactoe/player"
	"tictactoe/ranking"
	"tictactoe/searcher"
	"time"

	"github.com/muesli/termenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const usage = `usage: tictactoe <command> [flags]

commands:
  serve       serve the HTTP API
  selfplay    train the value table by self-play
  play        play against the AI in the terminal
  throughput  measure self-play throughput per worker count`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, usage)
		os.Exit(2)
	}

	cfg, err := meta.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(2)
	}

	command, args := os.Args[1], os.Args[2:]
	switch command {
	case "serve":
		err = runServe(cfg, args)
	case "selfplay":
		err = runSelfPlay(cfg, args)
	case "play":
		err = runPlay(cfg, args)
	case "throughput":
		err = runThroughput(cfg, args)
	default:
		fmt.Fprintln(os.Stderr, usage)
		os.Exit(2)
	}
	if err != nil {
		log.Fatal().Err(err).Msgf("%s failed", command)
	}
}

// commonFlags registers the settings every command shares.
func commonFlags(fs *flag.FlagSet, cfg *meta.Config) {
	fs.StringVar(&cfg.TablePath, "table", cfg.TablePath, "Value table document to load on start and save on exit")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Log level (debug, info, warn, error)")
	fs.Float64Var(&cfg.Epsilon, "epsilon", cfg.Epsilon, "Exploration rate")
	fs.BoolVar(&cfg.CompatProbe, "compat-probe", cfg.CompatProbe, "Migrate non-canonical entries on read miss")
	fs.IntVar(&cfg.Workers, "workers", cfg.Workers, "Parallel self-play games")
}

func parse(fs *flag.FlagSet, cfg *meta.Config, args []string) error {
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	setupLogger(cfg.LogLevel)
	return nil
}

func setupLogger(level string) {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	parsed, err := zerolog.ParseLevel(level)
	if err != nil {
		log.Warn().Msgf("unknown log level %q, using info", level)
		parsed = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(parsed)
}

func openStore(cfg meta.Config) (*ranking.Memory, error) {
	options := []ranking.Option{}
	if cfg.CompatProbe {
		options = append(options, ranking.WithCompatProbe())
	}
	store := ranking.NewMemory(options...)
	if cfg.TablePath == "" {
		return store, nil
	}

	loaded, err := ranking.LoadFile(store, cfg.TablePath)
	if err != nil {
		return nil, err
	}
	log.Info().Msgf("loaded %d entries from %s", loaded, cfg.TablePath)
	return store, nil
}

func saveStore(cfg meta.Config, store ranking.Store) {
	if cfg.TablePath == "" {
		return
	}
	saved, err := ranking.SaveFile(store, cfg.TablePath)
	if err != nil {
		log.Error().Err(err).Msgf("failed to save value table to %s", cfg.TablePath)
		return
	}
	log.Info().Msgf("saved %d entries to %s", saved, cfg.TablePath)
}

func runServe(cfg meta.Config, args []string) error {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	commonFlags(fs, &cfg)
	fs.StringVar(&cfg.Addr, "addr", cfg.Addr, "Listen address")
	if err := parse(fs, &cfg, args); err != nil {
		return err
	}

	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer saveStore(cfg, store)

	gm := gamemaster.NewGameMaster(store, searcher.NewPolicy(searcher.WithEpsilon(cfg.Epsilon)))
	jobs := gamemaster.NewJobQueue(store, cfg.Workers)
	defer jobs.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	s := server.NewServer(gm, jobs, store, server.WithAdmin(cfg.AdminUser, cfg.AdminPassword), server.WithWorkers(cfg.Workers))
	return s.ListenAndServe(ctx, cfg.Addr)
}

func runSelfPlay(cfg meta.Config, args []string) error {
	fs := flag.NewFlagSet("selfplay", flag.ExitOnError)
	commonFlags(fs, &cfg)
	n := fs.Int("n", 1000, "Number of games")
	seed := fs.Uint64("seed", 0, "Master seed (0 draws one from the clock)")
	records := fs.String("records", "", "Directory for CSV game records")
	if err := parse(fs, &cfg, args); err != nil {
		return err
	}

	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer saveStore(cfg, store)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	options := []experiments.Option{
		experiments.WithWorkers(cfg.Workers),
		experiments.WithEpsilon(cfg.Epsilon),
	}
	if *seed != 0 {
		options = append(options, experiments.WithSeed(*seed))
	}
	if *records != "" {
		options = append(options, experiments.WithRecords(*records))
	}

	summary, err := experiments.RunSelfPlay(ctx, store, *n, options...)
	fmt.Printf("requested=%d played=%d winsX=%d winsO=%d draws=%d avgMoves=%.2f elapsedMs=%d entries=%d\n",
		summary.Requested, summary.Played, summary.WinsX, summary.WinsO, summary.Draws, summary.AvgMoves, summary.ElapsedMs, store.Len())
	if err != nil && ctx.Err() == nil {
		return err
	}
	return nil // Interrupted runs still save what they learned
}

func runPlay(cfg meta.Config, args []string) error {
	fs := flag.NewFlagSet("play", flag.ExitOnError)
	commonFlags(fs, &cfg)
	starter := fs.String("starter", "Human", "Who moves first (Human or AI)")
	symbol := fs.String("symbol", "X", "Your mark (X or O)")
	if err := parse(fs, &cfg, args); err != nil {
		return err
	}

	options, err := gamemaster.ParseSessionOptions(*starter, *symbol)
	if err != nil {
		return err
	}
	store, err := openStore(cfg)
	if err != nil {
		return err
	}

	gm := gamemaster.NewGameMaster(store, searcher.NewPolicy(searcher.WithEpsilon(cfg.Epsilon)))
	controller := player.NewConsoleController(gm, options, os.Stdin, os.Stdout, termenv.EnvColorProfile())
	return controller.Run()
}

func runThroughput(cfg meta.Config, args []string) error {
	fs := flag.NewFlagSet("throughput", flag.ExitOnError)
	commonFlags(fs, &cfg)
	n := fs.Int("n", 1000, "Games per worker count")
	counts := fs.String("counts", "1,2,4,8", "Comma-separated worker counts")
	seed := fs.Uint64("seed", 1, "Master seed")
	dir := fs.String("dir", "experiments/throughput", "Directory for CSV results")
	if err := parse(fs, &cfg, args); err != nil {
		return err
	}

	workerCounts := []int{}
	for _, field := range strings.Split(*counts, ",") {
		workers, err := strconv.Atoi(strings.TrimSpace(field))
		if err != nil || workers < 1 {
			return fmt.Errorf("invalid worker count %q", field)
		}
		workerCounts = append(workerCounts, workers)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	records, err := experiments.RunThroughputExperiment(ctx, workerCounts, *n, *seed, *dir)
	for _, record := range records {
		fmt.Printf("workers=%d games=%d duration=%s gamesPerSecond=%.1f\n", record.Workers, record.Games, record.Duration, record.GamesPerSecond())
	}
	return err
}
