package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"chaingraph/config"
	"chaingraph/internal/chain"
	inputincident "chaingraph/internal/input/incident"
	inputjsonl "chaingraph/internal/input/jsonl"
	inputredis "chaingraph/internal/input/redis"
	"chaingraph/internal/logger"
	"chaingraph/internal/metrics"
	"chaingraph/internal/output/reportfile"
	"chaingraph/internal/output/reporthttp"
	"chaingraph/internal/pipeline"
	"chaingraph/internal/render"
	"chaingraph/internal/rules"
	"chaingraph/pkg/models"
)

func findConfigFile(configArg string) string {
	if configArg != "" {
		path := configArg
		if _, err := os.Stat(path); err == nil {
			return path
		}
		log.Printf("Warning: config file not found at %s, trying default locations", path)
	}

	if _, err := os.Stat("chaingraph.yml"); err == nil {
		return "chaingraph.yml"
	}

	exePath, err := os.Executable()
	if err == nil {
		exeDir := filepath.Dir(exePath)
		path := filepath.Join(exeDir, "chaingraph.yml")
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return "chaingraph.yml"
}

func applyDefaults(cfg *config.Config) {
	if cfg.ChainGraph.Input.Mode == "" {
		cfg.ChainGraph.Input.Mode = "snapshot"
	}
	if cfg.ChainGraph.Input.Redis.Addr == "" {
		cfg.ChainGraph.Input.Redis.Addr = "127.0.0.1:6379"
	}
	if cfg.ChainGraph.Input.Redis.Key == "" {
		cfg.ChainGraph.Input.Redis.Key = "incident_snapshots"
	}

	if cfg.ChainGraph.Chain.MaxDepth <= 0 {
		cfg.ChainGraph.Chain.MaxDepth = chain.DefaultMaxDepth
	}

	if cfg.ChainGraph.Output.Mode == "" {
		cfg.ChainGraph.Output.Mode = "stdout"
	}
	if cfg.ChainGraph.Output.File.Dir == "" {
		cfg.ChainGraph.Output.File.Dir = "output/reports"
	}

	if cfg.ChainGraph.Logging.Level == "" {
		cfg.ChainGraph.Logging.Level = "info"
	}
}

// reportWriter abstracts the report sinks.
type reportWriter interface {
	WriteReport(traceID, report string) error
}

type stdoutWriter struct{}

func (stdoutWriter) WriteReport(_, report string) error {
	_, err := os.Stdout.WriteString(report)
	return err
}

type fileWriter struct {
	w *reportfile.Writer
}

func (f fileWriter) WriteReport(traceID, report string) error {
	path, err := f.w.WriteReport(traceID, report)
	if err != nil {
		return err
	}
	logger.Infof("Report written: %s", path)
	return nil
}

func newReportWriter(cfg *config.Config) (reportWriter, error) {
	switch cfg.ChainGraph.Output.Mode {
	case "stdout":
		return stdoutWriter{}, nil
	case "file":
		w, err := reportfile.NewWriter(cfg.ChainGraph.Output.File.Dir)
		if err != nil {
			return nil, err
		}
		return fileWriter{w: w}, nil
	case "http":
		return reporthttp.NewWriter(reporthttp.Config{
			URL:     cfg.ChainGraph.Output.HTTP.URL,
			Timeout: cfg.ChainGraph.Output.HTTP.Timeout,
			Headers: cfg.ChainGraph.Output.HTTP.Headers,
		})
	default:
		return nil, fmt.Errorf("unknown output mode: %s", cfg.ChainGraph.Output.Mode)
	}
}

func newRulesEngine(cfg *config.Config) rules.Engine {
	if !cfg.ChainGraph.Rules.Enabled {
		return nil
	}
	if strings.TrimSpace(cfg.ChainGraph.Rules.Path) == "" {
		logger.Warnf("Rules enabled but rules.path is empty; alarm tagging disabled")
		return nil
	}
	engine, stats, err := rules.NewSigmaEngine(cfg.ChainGraph.Rules.Path)
	if err != nil {
		logger.Errorf("Failed to load Sigma rules from %s: %v", cfg.ChainGraph.Rules.Path, err)
		log.Fatalf("Failed to load Sigma rules: %v", err)
	}
	logger.Infof("Sigma rules loaded: loaded=%d skipped_complex=%d skipped_datasource=%d skipped_invalid=%d files=%d",
		stats.Loaded,
		stats.SkippedComplex,
		stats.SkippedDatasource,
		stats.SkippedInvalid,
		stats.TotalFiles,
	)
	if stats.Loaded == 0 {
		logger.Warnf("No compatible Sigma rules loaded; alarm tagging is effectively disabled")
	}
	return engine
}

func newPipeline(cfg *config.Config) *pipeline.Pipeline {
	style := render.DefaultStyle()
	if cfg.ChainGraph.Render.BoxWidth > 0 {
		style.BoxWidth = cfg.ChainGraph.Render.BoxWidth
	}
	if cfg.ChainGraph.Render.Indent != "" {
		style.Indent = cfg.ChainGraph.Render.Indent
	}
	return pipeline.New(pipeline.Config{
		MaxDepth:    cfg.ChainGraph.Chain.MaxDepth,
		SingleChain: cfg.ChainGraph.Chain.SingleChain,
		Style:       style,
		Rules:       newRulesEngine(cfg),
		Metrics:     metrics.New(),
	})
}

func firstTraceID(inc *models.Incident) string {
	if len(inc.TraceIDs) > 0 {
		return inc.TraceIDs[0]
	}
	return ""
}

// runRender reconstructs one incident from a local file.
func runRender(args []string) int {
	fs := flag.NewFlagSet("render", flag.ContinueOnError)
	configArg := fs.String("config", "", "Config file path")
	input := fs.String("input", "", "Input file (overrides config input.path)")
	traceID := fs.String("trace-id", "", "Trace id anchoring root detection (records mode)")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	cfg, err := config.LoadConfig(findConfigFile(*configArg))
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	applyDefaults(cfg)
	if *input != "" {
		cfg.ChainGraph.Input.Path = *input
	}
	if *traceID != "" {
		cfg.ChainGraph.Input.TraceID = *traceID
	}

	if err := logger.Init(cfg.ChainGraph.Logging.Enabled, cfg.ChainGraph.Logging.Level, cfg.ChainGraph.Logging.File, cfg.ChainGraph.Logging.Console); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	if cfg.ChainGraph.Input.Path == "" {
		fmt.Fprintln(os.Stderr, "no input file: set input.path or pass -input")
		return 2
	}

	pipe := newPipeline(cfg)
	writer, err := newReportWriter(cfg)
	if err != nil {
		log.Fatalf("Failed to create report writer: %v", err)
	}

	var res *pipeline.Result
	switch cfg.ChainGraph.Input.Mode {
	case "snapshot":
		inc, err := inputincident.Load(cfg.ChainGraph.Input.Path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to load snapshot: %v\n", err)
			return 1
		}
		res, err = pipe.RunIncident(inc)
		if err != nil {
			fmt.Fprintf(os.Stderr, "reconstruction failed: %v\n", err)
			return 1
		}
	case "records":
		batch, err := inputjsonl.Load(cfg.ChainGraph.Input.Path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to load records: %v\n", err)
			return 1
		}
		id := cfg.ChainGraph.Input.TraceID
		if id == "" && len(batch.TraceIDs) > 0 {
			id = batch.TraceIDs[0]
		}
		res, err = pipe.RunRecords(id, batch.Records, batch.HostAddresses)
		if err != nil {
			fmt.Fprintf(os.Stderr, "reconstruction failed: %v\n", err)
			return 1
		}
	default:
		fmt.Fprintf(os.Stderr, "unknown input mode: %s\n", cfg.ChainGraph.Input.Mode)
		return 2
	}

	if err := writer.WriteReport(firstTraceID(res.Incident), res.Report); err != nil {
		fmt.Fprintf(os.Stderr, "failed to write report: %v\n", err)
		return 1
	}
	return 0
}

// runDrain pops queued snapshots off Redis and renders each one.
func runDrain(args []string) int {
	fs := flag.NewFlagSet("drain", flag.ContinueOnError)
	configArg := fs.String("config", "", "Config file path")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	cfg, err := config.LoadConfig(findConfigFile(*configArg))
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	applyDefaults(cfg)

	if err := logger.Init(cfg.ChainGraph.Logging.Enabled, cfg.ChainGraph.Logging.Level, cfg.ChainGraph.Logging.File, cfg.ChainGraph.Logging.Console); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	source, err := inputredis.NewSource(inputredis.Config{
		Addr:         cfg.ChainGraph.Input.Redis.Addr,
		Password:     cfg.ChainGraph.Input.Redis.Password,
		DB:           cfg.ChainGraph.Input.Redis.DB,
		Key:          cfg.ChainGraph.Input.Redis.Key,
		MaxDocuments: cfg.ChainGraph.Input.Redis.MaxDocuments,
	})
	if err != nil {
		log.Fatalf("Failed to create Redis source: %v", err)
	}
	defer source.Close()

	pipe := newPipeline(cfg)
	writer, err := newReportWriter(cfg)
	if err != nil {
		log.Fatalf("Failed to create report writer: %v", err)
	}

	docs, err := source.Drain(context.Background())
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to drain snapshots: %v\n", err)
		return 1
	}
	logger.Infof("Drained %d snapshot(s) from %s", len(docs), cfg.ChainGraph.Input.Redis.Key)

	failed := 0
	for i, raw := range docs {
		inc, err := inputincident.Parse(raw)
		if err != nil {
			logger.Errorf("Snapshot %d unparseable: %v", i, err)
			failed++
			continue
		}
		res, err := pipe.RunIncident(inc)
		if err != nil {
			logger.Errorf("Snapshot %d reconstruction failed: %v", i, err)
			failed++
			continue
		}
		if err := writer.WriteReport(firstTraceID(inc), res.Report); err != nil {
			logger.Errorf("Snapshot %d report write failed: %v", i, err)
			failed++
		}
	}
	if failed > 0 {
		return 1
	}
	return 0
}

func main() {
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "render":
			os.Exit(runRender(os.Args[2:]))
		case "drain":
			os.Exit(runDrain(os.Args[2:]))
		default:
			os.Exit(runRender(os.Args[1:]))
		}
	}
	os.Exit(runRender(nil))
}
