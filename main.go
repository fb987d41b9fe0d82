package main

import (
	"context"
	"errors"
	"os"
	"time"

	"sailplan/config"
	"sailplan/experiments/metrics"
	"sailplan/isochrone"
	"sailplan/planner"
	"sailplan/searcher"
	"sailplan/vpp"
	"sailplan/wind"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	_ = godotenv.Load() // .env is optional

	env, err := config.LoadEnv()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to read environment")
	}
	setupLogging(env)

	cfg := config.Default()
	if env.ConfigPath != "" {
		cfg, err = config.Load(env.ConfigPath)
		if err != nil {
			log.Fatal().Err(err).Str("path", env.ConfigPath).Msg("failed to load run config")
		}
	}
	if env.Seed != 0 {
		cfg.Seed = env.Seed
	}

	if err := run(cfg, env); err != nil {
		log.Fatal().Err(err).Msg("run failed")
	}
}

func setupLogging(env config.Env) {
	level, err := zerolog.ParseLevel(env.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	if env.Pretty {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	}
}

func run(cfg config.RunConfig, env config.Env) error {
	sampler, err := cfg.Sampler()
	if err != nil {
		return err
	}
	ensemble, err := cfg.Ensemble()
	if err != nil {
		return err
	}
	truth, err := cfg.TruthField()
	if err != nil {
		return err
	}
	agg, err := planner.ParseAggregation(cfg.Aggregation)
	if err != nil {
		return err
	}

	p, err := planner.New(ensemble, sampler, cfg.Course(), cfg.GoalPosition(),
		planner.WithBudget(searcher.Budget{Iterations: cfg.Budget.Iterations, Duration: cfg.Budget.Duration}),
		planner.WithAggregation(agg),
		planner.WithSeed(cfg.Seed),
		planner.WithGoalRadius(cfg.GoalRadius),
		planner.WithHorizon(cfg.HorizonHours),
	)
	if err != nil {
		return err
	}

	voyage, err := planner.NewVoyage(p, truth,
		planner.WithStrategy(planner.ReuseSubtree{}),
		planner.WithMaxSteps(cfg.MaxSteps),
		planner.WithCollector(metrics.NewCollector()),
	)
	if err != nil {
		return err
	}

	log.Info().
		Str("session", p.Session().String()).
		Int("scenarios", len(ensemble.Scenarios)).
		Uint64("seed", cfg.Seed).
		Msg("starting voyage")

	result, err := voyage.Run(context.Background(), cfg.StartState())
	if err != nil {
		return err
	}

	log.Info().
		Bool("reached_goal", result.ReachedGoal).
		Int("steps", result.Steps).
		Float64("simulated_hours", result.Final.Time).
		Float64("distance_nm", result.Final.Distance).
		Msg("voyage finished")

	runBaseline(cfg, sampler, truth, result)

	return persist(env, result)
}

// runBaseline cross-validates the planner's passage time against the
// isochrone router on the true weather.
func runBaseline(cfg config.RunConfig, sampler *vpp.Sampler, truth wind.Field, result planner.Result) {
	baseline, err := isochrone.Route(isochrone.Config{
		Field:      truth,
		Sampler:    sampler,
		Course:     cfg.Course(),
		Start:      cfg.StartState(),
		Goal:       cfg.GoalPosition(),
		GoalRadius: cfg.GoalRadius,
		Horizon:    cfg.HorizonHours,
	})
	if errors.Is(err, isochrone.ErrUnreachable) {
		log.Warn().Msg("isochrone baseline did not reach the goal")
		return
	}
	if err != nil {
		log.Warn().Err(err).Msg("isochrone baseline failed")
		return
	}
	log.Info().
		Float64("baseline_hours", baseline.Time).
		Float64("planner_hours", result.Final.Time).
		Msg("baseline comparison")
}

func persist(env config.Env, result planner.Result) error {
	writer, err := metrics.NewWriter(env.ResultsDir)
	if err != nil {
		return err
	}
	if err := writer.WriteVoyage(result.Voyage); err != nil {
		return err
	}
	if err := writer.WriteSteps(result.Records); err != nil {
		return err
	}
	log.Info().Str("dir", writer.Dir()).Msg("wrote CSV records")

	if env.DBPath == "" {
		return nil
	}
	store, err := metrics.Open(env.DBPath)
	if err != nil {
		return err
	}
	defer store.Close()
	voyageID, err := store.SaveVoyage(result.Voyage)
	if err != nil {
		return err
	}
	if err := store.SaveSteps(voyageID, result.Records); err != nil {
		return err
	}
	log.Info().Int64("voyage_id", voyageID).Str("db", env.DBPath).Msg("stored run in results db")
	return nil
}
