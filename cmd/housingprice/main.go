package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"housingprice/internal/config"
	"housingprice/internal/logging"
	"housingprice/internal/pipeline"
	"housingprice/internal/search"
	"housingprice/internal/storage"
	"housingprice/internal/watcher"
)

func main() {
	cfg, err := config.Load()
	must(err)
	logging.Setup(cfg.LogLevel, cfg.LogFormat)

	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	cmd := os.Args[1]
	if cmd == "parse" {
		runParse(os.Args[2:])
		return
	}

	store, err := storage.OpenStore(cfg)
	must(err)
	defer store.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	switch cmd {
	case "pipeline:run":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		export := fs.Bool("export", false, "export site artifacts after the run")
		_ = fs.Parse(os.Args[2:])

		result, err := newProcessor(store, cfg).Run(ctx)
		must(err)
		fmt.Printf("run done candidates=%d processed=%d skipped=%d failures=%d\n",
			result.Candidates, len(result.Processed), result.Skipped, len(result.Failures))
		if *export {
			exported, err := pipeline.ExportSite(store, cfg.OutputDir)
			must(err)
			fmt.Printf("exported rows=%d to %s\n", exported.Rows, cfg.OutputDir)
		}
	case "site:export":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		out := fs.String("out", cfg.OutputDir, "output directory")
		_ = fs.Parse(os.Args[2:])
		if strings.TrimSpace(*out) == "" {
			must(fmt.Errorf("--out is required"))
		}
		result, err := pipeline.ExportSite(store, *out)
		must(err)
		fmt.Printf("exported rows=%d chart=%d index=%d files=%d to %s\n",
			result.Rows, result.ChartPoints, result.IndexPoints, len(result.Files), *out)
	case "index:status":
		must(pipeline.RenderStatus(os.Stdout, store))
	case "watch":
		svc := watcher.NewService(store, newProcessor(store, cfg), cfg)
		must(svc.Run(ctx))
	default:
		usage()
		os.Exit(1)
	}
}

func newProcessor(store storage.Store, cfg config.Config) *pipeline.ProcessingService {
	client := search.NewClient(cfg)
	return pipeline.NewProcessingService(store, storage.NewRawStore(cfg.RawDir()), client, client, cfg)
}

func runParse(args []string) {
	fs := flag.NewFlagSet("parse", flag.ExitOnError)
	input := fs.String("input", "", "saved bulletin html file")
	month := fs.String("month", "", "bulletin month YYYY-MM (default: from file name)")
	_ = fs.Parse(args)
	if strings.TrimSpace(*input) == "" {
		must(fmt.Errorf("--input is required"))
	}

	tables, resolved, err := pipeline.ParseLocalFile(*input, *month)
	must(err)
	total := 0
	for _, t := range tables {
		fmt.Printf("table=%d topic=%s layout=%s rows=%d\n", t.Index, t.Topic, t.Layout.Kind, len(t.Rows))
		total += len(t.Rows)
	}
	fmt.Printf("parse done month=%s tables=%d rows=%d\n", resolved, len(tables), total)
}

func usage() {
	fmt.Println("usage: housingprice <command>")
	fmt.Println("commands:")
	fmt.Println("  pipeline:run [--export]")
	fmt.Println("  site:export [--out=./docs]")
	fmt.Println("  index:status")
	fmt.Println("  parse --input=./data/raw/2024-03.html [--month=2024-03]")
	fmt.Println("  watch")
}

func must(err error) {
	if err == nil {
		return
	}
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}
