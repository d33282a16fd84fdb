// Package main searches species and flora parameters with CMA-ES for
// configurations where rabbits and foxes coexist for as long as possible.
//
// Usage: go run ./cmd/optimize -output out/ [-config path] [-max-evals N]
package main

import (
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/gocarina/gocsv"
	"gonum.org/v1/gonum/optimize"

	"github.com/patrikandersson91/ecosystem-sub000/config"
)

// formatDuration formats a duration as 1h02m03s or 2m03s.
func formatDuration(d time.Duration) string {
	d = d.Round(time.Second)
	h := d / time.Hour
	d -= h * time.Hour
	m := d / time.Minute
	d -= m * time.Minute
	s := d / time.Second

	if h > 0 {
		return fmt.Sprintf("%dh%02dm%02ds", h, m, s)
	}
	return fmt.Sprintf("%dm%02ds", m, s)
}

func main() {
	configPath := flag.String("config", "", "Base config YAML file (empty = use defaults)")
	maxSimTime := flag.Float64("max-sim-time", 1800, "Maximum simulated seconds per run (cap)")
	dt := flag.Float64("dt", 0.05, "Frame delta per step in seconds")
	seeds := flag.Int("seeds", 3, "Number of seeds per evaluation")
	maxEvals := flag.Int("max-evals", 200, "Maximum number of evaluations")
	population := flag.Int("population", 0, "CMA-ES population size (0 = auto)")
	outputDir := flag.String("output", "", "Output directory for results")
	flag.Parse()

	// Each run logs its setup at info level; keep the console for progress.
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn})))

	if *outputDir == "" {
		log.Fatal("--output is required")
	}
	if err := os.MkdirAll(*outputDir, 0755); err != nil {
		log.Fatalf("failed to create output directory: %v", err)
	}
	if err := config.Init(*configPath); err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	baseCfg := config.Cfg()

	params := NewParamVector()
	evalSeeds := make([]int64, *seeds)
	for i := range evalSeeds {
		evalSeeds[i] = int64(i*1000 + 42)
	}
	evaluator := NewFitnessEvaluator(params, *maxSimTime, *dt, evalSeeds, baseCfg)

	logFile, err := os.Create(filepath.Join(*outputDir, "optimize_log.csv"))
	if err != nil {
		log.Fatalf("failed to create log file: %v", err)
	}
	defer logFile.Close()

	tr := &tracker{
		params:    params,
		evaluator: evaluator,
		log:       newEvalLog(logFile, params),
		maxEvals:  *maxEvals,
		best:      1e9,
		start:     time.Now(),
	}

	// CMA-ES works on the unit cube; the search starts from the base config.
	dim := params.Dim()
	popSize := *population
	if popSize == 0 {
		popSize = 4 + int(3.0*float64(dim)/2.0)
	}
	problem := optimize.Problem{Func: tr.evaluate}
	settings := &optimize.Settings{FuncEvaluations: *maxEvals}
	method := &optimize.CmaEsChol{InitStepSize: 0.3, Population: popSize}
	initX := params.Normalize(params.Clamp(params.ExtractFromConfig(baseCfg)))

	fmt.Printf("Starting CMA-ES optimization with %d parameters, population=%d, max_evals=%d\n",
		dim, popSize, *maxEvals)
	fmt.Printf("Seeds per evaluation: %d, sim-seconds per run: %.0f\n", *seeds, *maxSimTime)

	result, err := optimize.Minimize(problem, initX, settings, method)
	if err != nil {
		log.Printf("optimization ended: %v", err)
	}

	bestParams := tr.bestParams
	if bestParams == nil {
		if result == nil {
			log.Fatal("no evaluations completed")
		}
		bestParams = params.Clamp(params.Denormalize(result.X))
	}

	fmt.Printf("\nOptimization complete after %d evaluations in %s\n", tr.count, formatDuration(time.Since(tr.start)))
	fmt.Printf("Best fitness: %.0f\n", tr.best)
	fmt.Println("\nBest parameters:")
	for i, spec := range params.Specs {
		fmt.Printf("  %-24s %-36s %.6f\n", spec.Name, spec.Path, bestParams[i])
	}

	if err := saveBest(*configPath, filepath.Join(*outputDir, "best_config.yaml"), params, bestParams); err != nil {
		log.Printf("failed to write best config: %v", err)
	}
}

// saveBest writes the base config with the best parameters applied.
func saveBest(basePath, outPath string, params *ParamVector, values []float64) error {
	cfg, err := config.Load(basePath)
	if err != nil {
		return err
	}
	params.ApplyToConfig(cfg, values)
	if err := cfg.WriteYAML(outPath); err != nil {
		return err
	}
	fmt.Printf("\nBest config saved to: %s\n", outPath)
	return nil
}

// tracker wraps the evaluator for the optimizer: it logs every evaluation,
// keeps the best parameters seen and prints progress.
type tracker struct {
	params    *ParamVector
	evaluator *FitnessEvaluator
	log       *evalLog
	maxEvals  int

	count      int
	best       float64
	bestParams []float64
	start      time.Time
}

func (tr *tracker) evaluate(x []float64) float64 {
	// Values actually used are the clamped ones.
	values := tr.params.Clamp(tr.params.Denormalize(x))
	fitness := tr.evaluator.Evaluate(values)
	quality := tr.evaluator.LastQuality()
	tr.count++

	if fitness < tr.best {
		tr.best = fitness
		tr.bestParams = values
	}
	if err := tr.log.Write(tr.count, fitness, quality, values); err != nil {
		log.Printf("failed to log evaluation: %v", err)
	}

	elapsed := time.Since(tr.start)
	remaining := time.Duration(tr.maxEvals-tr.count) * (elapsed / time.Duration(tr.count))
	survivalSec := -fitness / (1.0 + 0.2*quality)
	fmt.Printf("Eval %d/%d: survived=%.0fs quality=%.2f (best=%.0f) | elapsed: %s, ETA: %s\n",
		tr.count, tr.maxEvals, survivalSec, quality, tr.best,
		formatDuration(elapsed), formatDuration(remaining))

	return fitness
}

// evalRow is one line of optimize_log.csv.
type evalRow struct {
	Eval    int     `csv:"eval"`
	Fitness float64 `csv:"fitness"`
	Quality float64 `csv:"quality"`
	Params  string  `csv:"params"`
}

// evalLog appends evaluation rows, writing the header once.
type evalLog struct {
	f             *os.File
	params        *ParamVector
	headerWritten bool
}

func newEvalLog(f *os.File, params *ParamVector) *evalLog {
	return &evalLog{f: f, params: params}
}

// Write appends one evaluation. Parameter values are packed into a single
// name=value column so the header stays stable when the vector changes.
func (l *evalLog) Write(eval int, fitness, quality float64, values []float64) error {
	packed := ""
	for i, spec := range l.params.Specs {
		if i > 0 {
			packed += " "
		}
		packed += fmt.Sprintf("%s=%.6f", spec.Name, values[i])
	}
	rows := []evalRow{{Eval: eval, Fitness: fitness, Quality: quality, Params: packed}}

	if !l.headerWritten {
		l.headerWritten = true
		return gocsv.Marshal(rows, l.f)
	}
	return gocsv.MarshalWithoutHeaders(rows, l.f)
}
