// sgresolver resolves references using stored partial-path indexes.
//
// The positional arguments name .index.json files written by sgindexer.  The
// tool loads them all into one graph and database, then resolves the
// reference named by -reference (file:local_id), printing each resolution as
// JSON.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/stackb/stackgraph/pkg/cancellation"
	"github.com/stackb/stackgraph/pkg/graph"
	"github.com/stackb/stackgraph/pkg/index"
	"github.com/stackb/stackgraph/pkg/partial"
	"github.com/stackb/stackgraph/pkg/stitching"
	"github.com/stackb/stackgraph/pkg/viz"
)

var (
	reference   string
	timeoutSecs int
	wantDebug   bool
)

func main() {
	log.SetPrefix("sgresolver: ")
	log.SetFlags(0) // don't print timestamps

	fs := flag.NewFlagSet("sgresolver", flag.ContinueOnError)
	fs.StringVar(&reference, "reference", "", "the reference to resolve, as file:local_id")
	fs.IntVar(&timeoutSecs, "timeout", 0, "optional timeout in seconds")
	fs.BoolVar(&wantDebug, "debug", false, "enable debug logging")

	if err := fs.Parse(os.Args[1:]); err != nil {
		log.Fatal(err)
	}
	if reference == "" {
		log.Fatal("-reference is required")
	}
	if len(fs.Args()) == 0 {
		log.Fatal("positional args should be a non-empty list of .index.json files")
	}

	if err := run(fs.Args()); err != nil {
		log.Fatal(err)
	}
}

func run(filenames []string) error {
	level := zerolog.InfoLevel
	if wantDebug {
		level = zerolog.DebugLevel
	}
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).Level(level).With().Timestamp().Logger()

	g := graph.NewStackGraph()
	db := stitching.NewDatabase(logger)

	specs := make([]*index.FileIndex, 0, len(filenames))
	for _, filename := range filenames {
		spec, err := index.ReadFileIndex(filename)
		if err != nil {
			return fmt.Errorf("reading %s: %w", filename, err)
		}
		if _, err := index.LoadGraph(g, spec); err != nil {
			return fmt.Errorf("loading %s: %w", filename, err)
		}
		specs = append(specs, spec)
	}
	for _, spec := range specs {
		if err := index.LoadPartialPaths(g, db, spec); err != nil {
			return fmt.Errorf("loading paths for %s: %w", spec.Filename, err)
		}
	}

	refNode, err := parseReference(g, reference)
	if err != nil {
		return err
	}

	cancel := cancellation.None
	if timeoutSecs > 0 {
		cancel = cancellation.AfterDuration(time.Duration(timeoutSecs)*time.Second, nil)
	}

	candidates := stitching.NewDatabaseCandidates(g, db)
	var resolutions []*partial.PartialPath
	stats, err := stitching.FindAllCompletePartialPaths(candidates, []graph.NodeHandle{refNode}, cancel, func(p *partial.PartialPath) {
		resolutions = append(resolutions, p)
	})
	if err != nil {
		return err
	}
	logger.Debug().
		Int("phases", stats.Phases).
		Int("processed", stats.ProcessedPaths).
		Int("resolutions", len(resolutions)).
		Msg("query finished")

	for _, resolution := range resolutions {
		def := g.MustNode(resolution.EndNode)
		rendered := struct {
			Reference  viz.NodeID `json:"reference"`
			Definition viz.NodeID `json:"definition"`
			EdgeCount  int        `json:"edge_count"`
		}{
			Reference:  renderID(g, g.MustNode(resolution.StartNode).ID),
			Definition: renderID(g, def.ID),
			EdgeCount:  len(resolution.Edges),
		}
		data, err := json.Marshal(rendered)
		if err != nil {
			return err
		}
		fmt.Println(string(data))
	}
	if len(resolutions) == 0 {
		logger.Info().Str("reference", reference).Msg("no resolutions found")
	}
	return nil
}

func renderID(g *graph.StackGraph, id graph.NodeID) viz.NodeID {
	out := viz.NodeID{LocalID: id.LocalID}
	if id.File != graph.NoFile {
		out.File = g.FileName(id.File)
	}
	return out
}

func parseReference(g *graph.StackGraph, ref string) (graph.NodeHandle, error) {
	i := strings.LastIndex(ref, ":")
	if i < 0 {
		return 0, fmt.Errorf("bad -reference %q: want file:local_id", ref)
	}
	filename, idText := ref[:i], ref[i+1:]
	localID, err := strconv.ParseUint(idText, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("bad -reference %q: %v", ref, err)
	}
	file, ok := g.GetFile(filename)
	if !ok {
		return 0, fmt.Errorf("unknown file: %q", filename)
	}
	handle, ok := g.NodeForID(graph.NodeID{File: file, LocalID: uint32(localID)})
	if !ok {
		return 0, fmt.Errorf("unknown node: %s", ref)
	}
	return handle, nil
}
