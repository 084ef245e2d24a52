package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime/pprof"
	"strings"
	"syscall"
	"time"

	"github.com/aybabtme/uniplot/histogram"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gonum.org/v1/gonum/stat"
	"gopkg.in/yaml.v3"

	"github.com/domino14/yomi/board"
	"github.com/domino14/yomi/config"
	"github.com/domino14/yomi/evaluator"
	"github.com/domino14/yomi/movegen"
	"github.com/domino14/yomi/parallel"
	"github.com/domino14/yomi/search"
)

var (
	GitVersion string
)

func setupLogging(debug bool) {
	output := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	output.FormatLevel = func(i interface{}) string {
		return strings.ToUpper(fmt.Sprintf("| %-6s|", i))
	}
	output.FormatMessage = func(i interface{}) string {
		return fmt.Sprintf("%s", i)
	}
	output.FormatFieldName = func(i interface{}) string {
		return fmt.Sprintf("%s:", i)
	}

	level := zerolog.InfoLevel
	if debug {
		level = zerolog.DebugLevel
	}
	zerolog.SetGlobalLevel(level)
	logger := zerolog.New(output).Level(level).With().Timestamp().Logger()
	zerolog.DefaultContextLogger = &logger
	log.Logger = logger
	logger.Debug().Msg("Debug logging is on")
}

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		log.Fatal().Err(err).Msg("yomi-failed")
	}
}

func run(args []string, out io.Writer) error {
	cfg := &config.Config{}
	if err := cfg.Load(args); err != nil {
		return err
	}
	setupLogging(cfg.GetBool(config.ConfigDebug))
	log.Info().Str("version", GitVersion).Msg("yomi")

	if f := cfg.GetString(config.ConfigCPUProfile); f != "" {
		pf, err := os.Create(f)
		if err != nil {
			return fmt.Errorf("could not create CPU profile: %w", err)
		}
		defer pf.Close()
		if err := pprof.StartCPUProfile(pf); err != nil {
			return fmt.Errorf("could not start CPU profile: %w", err)
		}
		defer pprof.StopCPUProfile()
	}

	sc, err := cfg.SearchConfig()
	if err != nil {
		return err
	}
	if zerolog.GlobalLevel() <= zerolog.DebugLevel {
		dump, err := yaml.Marshal(sc)
		if err != nil {
			return err
		}
		log.Debug().Msgf("search config:\n%s", dump)
	}

	pos, err := board.FromSFEN(cfg.GetString(config.ConfigSFEN))
	if err != nil {
		return err
	}

	eng := parallel.New(sc, nil, movegen.NewGenerator(), evaluator.New())
	if f := cfg.GetString(config.ConfigTraceFile); f != "" {
		tf, err := os.Create(f)
		if err != nil {
			return fmt.Errorf("could not create trace file: %w", err)
		}
		defer tf.Close()
		eng.Main().SetLogStream(tf)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	depth := cfg.GetInt(config.ConfigDepth)
	limit := time.Duration(cfg.GetInt(config.ConfigTimeMillis)) * time.Millisecond
	tstart := time.Now()
	m, score, ok := eng.SearchAtDepth(ctx, pos, depth, limit, -search.Infinity, search.Infinity)
	elapsed := time.Since(tstart)
	if !ok {
		fmt.Fprintln(out, "no legal moves")
		return nil
	}

	fmt.Fprintf(out, "%s\n", pos)
	fmt.Fprintf(out, "bestmove %s score %d\n", m, score)
	report(out, eng, elapsed)
	return nil
}

func report(out io.Writer, eng *parallel.Engine, elapsed time.Duration) {
	st := eng.Stats()
	var nodes uint64
	for i, th := range st.Threads {
		nodes += th.Nodes
		fmt.Fprintf(out, "thread %2d: units %4d  nodes %10d  pops %4d  steals %4d/%d\n",
			i, th.Units, th.Nodes, th.Pops, th.Steals, th.StealAttempts)
	}
	fmt.Fprintf(out, "nodes %d  nps %.0f  splits %d  timeouts %d  aborts %d\n",
		nodes, float64(nodes)/max(elapsed.Seconds(), 1e-9), st.Splits, st.Timeouts, st.Aborts)

	ms := eng.Main().Stats()
	fmt.Fprintf(out, "tt hit rate %.3f  first-move cutoffs %.3f  lmr efficiency %.3f  aspiration success %.3f\n",
		eng.TTStats().HitRate(), ms.FirstMoveCutoffRate(), ms.LMREfficiency(), ms.AspirationSuccessRate())

	var perMove []float64
	for _, n := range eng.RootMoveNodes() {
		if n > 0 {
			perMove = append(perMove, float64(n))
		}
	}
	if len(perMove) < 2 {
		return
	}
	mean, std := stat.MeanStdDev(perMove, nil)
	fmt.Fprintf(out, "nodes per root move: mean %.0f  stddev %.0f\n", mean, std)
	hist := histogram.Hist(10, perMove)
	if err := histogram.Fprint(out, hist, histogram.Linear(40)); err != nil {
		log.Err(err).Msg("histogram-failed")
	}
}
