package main

import (
	"context"
	"errors"
	"fmt"
	"github.com/devplayg/dupfinder/dff"
	"github.com/devplayg/dupfinder/report"
	"github.com/dustin/go-humanize"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/pflag"
	"os"
	"os/signal"
	"runtime"
	"strings"
)

const (
	appName    = "dff"
	appVersion = "2.0.0"
)

const (
	exitOK = iota
	exitFailure
	exitUsage
)

const progressEvery = 1000

var fs *pflag.FlagSet

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	fs = pflag.NewFlagSet(appName, pflag.ContinueOnError)

	defaults := dff.DefaultConfig()
	dirs := fs.StringArrayP("dir", "d", []string{}, "target directories to search duplicate files")
	maxDepth := fs.Int("max-depth", defaults.Crawl.MaxDepth, "maximum directory depth, negative for unlimited")
	followSymlinks := fs.BoolP("follow-symlinks", "L", defaults.Crawl.FollowSymlinks, "follow symbolic links")
	bufSize := fs.Int("buf-size", defaults.Hash.ReadBufSize, "read buffer size in bytes")
	sampleThreshold := fs.Int64("sample-threshold", defaults.Hash.SampleThreshold, "files larger than this are sampled instead of fully read")
	sampleRate := fs.Int64("sample-rate", defaults.Hash.SampleRate, "number of samples taken across a sampled file")
	batchSize := fs.Int("batch-size", defaults.Hash.BatchSize, "files hashed concurrently")
	algorithm := fs.String("algorithm", string(defaults.Hash.Algorithm), "digest algorithm: md5, highway")
	sortBy := fs.String("sort", defaults.SortBy.String(), "group order: size, name, total, natural")
	minFileSize := fs.Int64P("min-size", "s", defaults.MinSize, "minimum file size to compare")
	dbFile := fs.String("db", "", "record the run in this SQLite database")
	htmlFile := fs.String("html", "", "write an HTML report to this file")
	cpu := fs.Int("cpu", 0, "CPU count to use")
	verbose := fs.BoolP("verbose", "v", false, "verbose")
	version := fs.Bool("version", false, "print version")

	fs.Usage = printHelp
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return exitOK
		}
		log.Error(err)
		return exitUsage
	}

	if *version {
		fmt.Printf("%s %s\n", appName, appVersion)
		return exitOK
	}
	if *verbose {
		log.SetLevel(log.DebugLevel)
	}
	if *cpu > 0 {
		runtime.GOMAXPROCS(*cpu)
	}

	// Positional arguments are directories too.
	*dirs = append(*dirs, fs.Args()...)
	if len(*dirs) < 1 {
		printHelp()
		return exitUsage
	}

	cfg := dff.DefaultConfig(*dirs...)
	cfg.Crawl.MaxDepth = *maxDepth
	cfg.Crawl.FollowSymlinks = *followSymlinks
	cfg.Hash.ReadBufSize = *bufSize
	cfg.Hash.SampleThreshold = *sampleThreshold
	cfg.Hash.SampleRate = *sampleRate
	cfg.Hash.BatchSize = *batchSize
	cfg.MinSize = *minFileSize
	cfg.Progress = logProgress

	var err error
	if cfg.Hash.Algorithm, err = dff.ParseAlgorithm(*algorithm); err != nil {
		log.Error(err)
		return exitUsage
	}
	if cfg.SortBy, err = dff.ParseSortOrder(*sortBy); err != nil {
		log.Error(err)
		return exitUsage
	}

	duplicateFileFinder, err := dff.NewDuplicateFileFinder(cfg)
	if err != nil {
		log.Error(err)
		return exitUsage
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	result, err := duplicateFileFinder.Start(ctx)
	if err != nil {
		log.Error(err)
		return exitFailure
	}

	if err := report.Text(os.Stdout, result); err != nil {
		log.Error(err)
		return exitFailure
	}
	if *htmlFile != "" {
		if err := writeHTML(*htmlFile, result, *dirs); err != nil {
			log.Error(err)
			return exitFailure
		}
		log.Infof("report written to [%s]", *htmlFile)
	}
	if *dbFile != "" {
		if err := saveRun(*dbFile, result, *dirs); err != nil {
			log.Error(err)
			return exitFailure
		}
	}
	return exitOK
}

func logProgress(stage dff.Stage, done, total int) {
	if done%progressEvery != 0 && done != total {
		return
	}
	if total > 0 {
		log.Debugf("[%s] %s/%s files", stage, humanize.Comma(int64(done)), humanize.Comma(int64(total)))
		return
	}
	log.Debugf("[%s] %s files", stage, humanize.Comma(int64(done)))
}

func writeHTML(path string, result *dff.Result, dirs []string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := report.HTML(f, result, "Duplicate files in "+strings.Join(dirs, ", ")); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func saveRun(dbFile string, result *dff.Result, dirs []string) error {
	store, err := report.Open(dbFile)
	if err != nil {
		return err
	}
	defer store.Close()

	id, err := store.Save(result, dirs)
	if err != nil {
		return err
	}
	log.WithFields(log.Fields{
		"id": id,
		"db": dbFile,
	}).Info("run recorded")
	return nil
}

func init() {
	log.SetFormatter(&log.TextFormatter{
		DisableColors: true,
		FullTimestamp: true,
	})
	log.SetOutput(os.Stderr)
}

func printHelp() {
	fmt.Fprintf(os.Stderr, "%s v%s - Duplicate file finder\n", appName, appVersion)
	fmt.Fprintf(os.Stderr, "%s [options] [dir...]\n", appName)
	fmt.Fprintln(os.Stderr, "ex) dff -d /home/data --sort total")
	fs.PrintDefaults()
}
