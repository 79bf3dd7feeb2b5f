// Command tune searches the evolution scheduler and arena economy parameter
// space with CMA-ES, scoring each candidate by headless simulation runs.
package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gonum.org/v1/gonum/optimize"

	"vivarium/config"
)

// searchLog appends one CSV row per fitness evaluation, flushed immediately
// so a killed run keeps its trail.
type searchLog struct {
	file   *os.File
	writer *csv.Writer
}

func openSearchLog(path string, params *ParamVector) (*searchLog, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	w := csv.NewWriter(f)

	header := append([]string{"eval", "fitness"}, paramNames(params)...)
	w.Write(header)
	w.Flush()

	return &searchLog{file: f, writer: w}, nil
}

func (sl *searchLog) record(eval int, fitness float64, values []float64) {
	row := make([]string, 0, len(values)+2)
	row = append(row, strconv.Itoa(eval), strconv.FormatFloat(fitness, 'f', 6, 64))
	for _, v := range values {
		row = append(row, strconv.FormatFloat(v, 'f', 6, 64))
	}
	sl.writer.Write(row)
	sl.writer.Flush()
}

func (sl *searchLog) close() {
	sl.writer.Flush()
	sl.file.Close()
}

func paramNames(params *ParamVector) []string {
	names := make([]string, len(params.Specs))
	for i, spec := range params.Specs {
		names[i] = spec.Name
	}
	return names
}

// bestTracker remembers the lowest fitness seen and the clamped parameter
// values that produced it.
type bestTracker struct {
	fitness float64
	values  []float64
}

func (bt *bestTracker) consider(fitness float64, clamped []float64) {
	if bt.values != nil && fitness >= bt.fitness {
		return
	}
	bt.fitness = fitness
	bt.values = append([]float64(nil), clamped...)
}

func eta(start time.Time, done, total int) time.Duration {
	elapsed := time.Since(start)
	perEval := elapsed / time.Duration(done)
	return time.Duration(total-done) * perEval
}

func fmtDur(d time.Duration) string {
	return d.Round(time.Second).String()
}

func main() {
	configPath := flag.String("config", "", "Base config to tune from (empty = embedded defaults)")
	maxTicks := flag.Int("max-ticks", 60000, "Ticks per simulation run")
	seeds := flag.Int("seeds", 3, "Seeds run (and averaged) per candidate")
	maxEvals := flag.Int("max-evals", 150, "Evaluation budget for the search")
	population := flag.Int("population", 0, "CMA-ES generation size (0 = derive from dimension)")
	outputDir := flag.String("output", "", "Directory for the search log and tuned config")
	flag.Parse()

	if *outputDir == "" {
		log.Fatal("--output is required")
	}
	if err := os.MkdirAll(*outputDir, 0755); err != nil {
		log.Fatalf("creating output directory: %v", err)
	}

	if err := config.Init(*configPath); err != nil {
		log.Fatalf("loading config: %v", err)
	}
	baseCfg := config.Cfg()

	params := NewParamVector()
	dim := params.Dim()

	evalSeeds := make([]int64, *seeds)
	for i := range evalSeeds {
		evalSeeds[i] = int64(i + 1)
	}
	evaluator := NewFitnessEvaluator(params, int32(*maxTicks), evalSeeds, baseCfg)

	sl, err := openSearchLog(filepath.Join(*outputDir, "tune_log.csv"), params)
	if err != nil {
		log.Fatalf("creating search log: %v", err)
	}
	defer sl.close()

	genSize := *population
	if genSize == 0 {
		genSize = 4 + 3*dim/2
	}

	start := time.Now()
	evals := 0
	best := &bestTracker{}

	problem := optimize.Problem{
		Func: func(x []float64) float64 {
			fitness := evaluator.Evaluate(params.Denormalize(x))
			evals++

			clamped := params.Clamp(params.Denormalize(x))
			best.consider(fitness, clamped)
			sl.record(evals, fitness, clamped)

			fmt.Printf("[%d/%d] fitness %.3f (species quality %.2f, best so far %.3f) elapsed %s eta %s\n",
				evals, *maxEvals, fitness, evaluator.LastQuality(), best.fitness,
				fmtDur(time.Since(start)), fmtDur(eta(start, evals, *maxEvals)))

			return fitness
		},
	}

	settings := &optimize.Settings{FuncEvaluations: *maxEvals}
	method := &optimize.CmaEsChol{
		InitStepSize: 0.3,
		Population:   genSize,
	}

	fmt.Printf("tuning %d parameters, generation size %d, budget %d evaluations, %d seeds x %d ticks each\n",
		dim, genSize, *maxEvals, *seeds, *maxTicks)

	result, err := optimize.Minimize(problem, params.Normalize(params.DefaultVector()), settings, method)
	if err != nil {
		log.Printf("search stopped: %v", err)
	}
	if best.values == nil {
		best.values = params.Clamp(params.Denormalize(result.X))
	}

	fmt.Printf("\ndone: %d evaluations in %s, best fitness %.3f\n", evals, fmtDur(time.Since(start)), best.fitness)
	for i, spec := range params.Specs {
		fmt.Printf("  %-28s %.6f\n", spec.Name, best.values[i])
	}

	tunedCfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("reloading base config: %v", err)
	}
	params.ApplyToConfig(tunedCfg, best.values)

	tunedPath := filepath.Join(*outputDir, "best_config.yaml")
	if err := tunedCfg.WriteYAML(tunedPath); err != nil {
		log.Fatalf("writing tuned config: %v", err)
	}
	fmt.Printf("tuned config written to %s\n", tunedPath)
}
