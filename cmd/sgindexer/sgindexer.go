// sgindexer computes partial-path indexes for stack graph files.
//
// The positional arguments (or the -graphs glob) name graph JSON files, each
// describing the nodes and edges of one source file.  For each one the tool
// computes the file's partial paths and local nodes, then writes a
// <name>.index.json document next to it (or under -output_dir), keyed by the
// sha256 of the input.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/pcj/mobyprogress"
	"github.com/rs/zerolog"

	"github.com/stackb/stackgraph/pkg/cancellation"
	"github.com/stackb/stackgraph/pkg/collections"
	"github.com/stackb/stackgraph/pkg/graph"
	"github.com/stackb/stackgraph/pkg/index"
	"github.com/stackb/stackgraph/pkg/partial"
	"github.com/stackb/stackgraph/pkg/progress"
	"github.com/stackb/stackgraph/pkg/stitching"
)

var (
	graphsGlob  string
	outputDir   string
	timeoutSecs int
	wantDebug   bool
)

func main() {
	log.SetPrefix("sgindexer: ")
	log.SetFlags(0) // don't print timestamps

	fs := flag.NewFlagSet("sgindexer", flag.ContinueOnError)
	fs.StringVar(&graphsGlob, "graphs", "", "optional glob of graph .json files to index")
	fs.StringVar(&outputDir, "output_dir", "", "optional directory to write .index.json files into")
	fs.IntVar(&timeoutSecs, "timeout", 0, "optional per-file timeout in seconds")
	fs.BoolVar(&wantDebug, "debug", false, "enable debug logging")

	if err := fs.Parse(os.Args[1:]); err != nil {
		log.Fatal(err)
	}
	filenames := fs.Args()
	if graphsGlob != "" {
		matches, err := doublestar.FilepathGlob(graphsGlob)
		if err != nil {
			log.Fatalf("bad -graphs glob: %v", err)
		}
		filenames = append(filenames, matches...)
	}
	if len(filenames) == 0 {
		log.Fatal("positional args (or -graphs) should be a non-empty list of graph .json files to index")
	}

	if err := run(filenames); err != nil {
		log.Fatal(err)
	}
}

func run(filenames []string) error {
	level := zerolog.InfoLevel
	if wantDebug {
		level = zerolog.DebugLevel
	}
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).Level(level).With().Timestamp().Logger()
	output := mobyprogress.NewProgressOutput(os.Stderr)

	for i, filename := range filenames {
		progress.WriteIndexProgress(output, i, len(filenames), false)
		if err := indexOne(logger, filename); err != nil {
			return fmt.Errorf("indexing %s: %w", filename, err)
		}
	}
	progress.WriteIndexProgress(output, len(filenames), len(filenames), true)
	return nil
}

func indexOne(logger zerolog.Logger, filename string) error {
	spec, err := index.ReadFileIndex(filename)
	if err != nil {
		return err
	}

	g := graph.NewStackGraph()
	file, err := index.LoadGraph(g, spec)
	if err != nil {
		return err
	}

	cancel := cancellation.None
	if timeoutSecs > 0 {
		cancel = cancellation.AfterDuration(time.Duration(timeoutSecs)*time.Second, nil)
	}

	var pathList []partial.PartialPath
	stats, err := stitching.ComputePartialPathsForFile(g, file, cancel, func(p *partial.PartialPath) {
		pathList = append(pathList, *p)
	})
	if err != nil {
		return err
	}
	logger.Debug().
		Str("file", spec.Filename).
		Int("paths", len(pathList)).
		Int("phases", stats.Phases).
		Int("processed", stats.ProcessedPaths).
		Msg("computed partial paths")

	db := stitching.NewDatabase(logger)
	for i := range pathList {
		db.Add(g, pathList[i])
	}
	db.FindLocalNodes()

	sha256, err := collections.FileSha256(filename)
	if err != nil {
		return err
	}
	out, err := index.FromFile(g, file, pathList, db.LocalNodes(), sha256)
	if err != nil {
		return err
	}

	outName := indexFilename(filename)
	if err := index.WriteFileIndex(outName, out); err != nil {
		return err
	}
	logger.Info().Str("wrote", outName).Int("paths", len(out.PartialPaths)).Msg("indexed")
	return nil
}

func indexFilename(filename string) string {
	base := filepath.Base(filename)
	if ext := filepath.Ext(base); ext == ".json" {
		base = base[:len(base)-len(ext)]
	}
	dir := filepath.Dir(filename)
	if outputDir != "" {
		dir = outputDir
	}
	return filepath.Join(dir, base+".index.json")
}
