package io

import (
	"bufio"
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	errs "github.com/matzehuels/isomatch/pkg/errors"
	"github.com/matzehuels/isomatch/pkg/graph"
)

// endOfDatabase is the graph id that terminates a text database.
const endOfDatabase = "-1"

// ReadGraphDB decodes a text graph database from r. Graph names are prefix
// followed by the id given in the "t" record.
//
// Loading stops at "t # -1" or EOF; the graph being built at EOF is kept.
// ReadGraphDB does not close r.
func ReadGraphDB(r io.Reader, prefix string) ([]*graph.Graph, error) {
	var (
		graphs []*graph.Graph
		cur    *graph.Graph
		lineNo int
	)

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		fields := strings.Fields(line)
		switch fields[0] {
		case "t":
			if len(fields) != 3 || fields[1] != "#" {
				return nil, errs.New(errs.ErrCodeInvalidRecord, "line %d: want \"t # <id>\", got %q", lineNo, line)
			}
			if cur != nil {
				graphs = append(graphs, cur)
				cur = nil
			}
			if fields[2] == endOfDatabase {
				return graphs, nil
			}
			cur = graph.New(prefix + fields[2])

		case "v":
			if cur == nil {
				return nil, errs.New(errs.ErrCodeInvalidRecord, "line %d: node record before any \"t\" record", lineNo)
			}
			nums, err := parseInts(fields, 2, lineNo, line)
			if err != nil {
				return nil, err
			}
			if err := cur.AddNode(nums[0], nums[1]); err != nil {
				return nil, recordError(err, lineNo, cur.Name())
			}

		case "e":
			if cur == nil {
				return nil, errs.New(errs.ErrCodeInvalidRecord, "line %d: edge record before any \"t\" record", lineNo)
			}
			nums, err := parseInts(fields, 3, lineNo, line)
			if err != nil {
				return nil, err
			}
			if err := cur.AddEdge(nums[0], nums[1], nums[2]); err != nil {
				return nil, recordError(err, lineNo, cur.Name())
			}

		default:
			return nil, errs.New(errs.ErrCodeInvalidRecord, "line %d: unknown record type %q", lineNo, fields[0])
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read: %w", err)
	}

	if cur != nil {
		graphs = append(graphs, cur)
	}
	return graphs, nil
}

func parseInts(fields []string, n, lineNo int, line string) ([]int, error) {
	if len(fields) != n+1 {
		return nil, errs.New(errs.ErrCodeInvalidRecord, "line %d: %q record needs %d fields, got %q", lineNo, fields[0], n, line)
	}
	nums := make([]int, n)
	for i, f := range fields[1:] {
		v, err := strconv.Atoi(f)
		if err != nil {
			return nil, errs.Wrap(errs.ErrCodeInvalidRecord, err, "line %d: field %d of %q", lineNo, i+1, line)
		}
		nums[i] = v
	}
	return nums, nil
}

// recordError maps a graph construction error to a coded error.
func recordError(err error, lineNo int, name string) error {
	code := errs.ErrCodeInvalidRecord
	switch {
	case stderrors.Is(err, graph.ErrNonSequentialNodeID):
		code = errs.ErrCodeInvalidNodeID
	case stderrors.Is(err, graph.ErrUnknownSourceNode), stderrors.Is(err, graph.ErrUnknownTargetNode):
		code = errs.ErrCodeUnknownNode
	case stderrors.Is(err, graph.ErrNegativeLabel):
		code = errs.ErrCodeInvalidLabel
	}
	return errs.Wrap(code, err, "line %d (%s)", lineNo, name)
}

// LoadGraphDB reads a text graph database from the file at path.
func LoadGraphDB(path, prefix string) ([]*graph.Graph, error) {
	f, err := os.Open(path)
	if err != nil {
		if stderrors.Is(err, os.ErrNotExist) {
			return nil, errs.Wrap(errs.ErrCodeFileNotFound, err, "graph database %s", path)
		}
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	graphs, err := ReadGraphDB(f, prefix)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return graphs, nil
}

// WriteGraphDB encodes graphs in the text format, ending with "t # -1".
//
// A graph named prefix followed by a non-negative integer is written under
// that integer, so names survive a round trip through [ReadGraphDB] with the
// same prefix. Any other graph is written under its position in the list.
func WriteGraphDB(w io.Writer, graphs []*graph.Graph, prefix string) error {
	bw := bufio.NewWriter(w)
	for i, g := range graphs {
		writeGraph(bw, graphID(g.Name(), prefix, i), g)
	}
	fmt.Fprintf(bw, "t # %s\n", endOfDatabase)
	return bw.Flush()
}

func graphID(name, prefix string, pos int) string {
	if rest, ok := strings.CutPrefix(name, prefix); ok {
		if n, err := strconv.Atoi(rest); err == nil && n >= 0 && strconv.Itoa(n) == rest {
			return rest
		}
	}
	return strconv.Itoa(pos)
}

func writeGraph(w io.Writer, id string, g *graph.Graph) {
	fmt.Fprintf(w, "t # %s\n", id)
	for i := 0; i < g.NodeCount(); i++ {
		fmt.Fprintf(w, "v %d %d\n", i, g.Label(i))
	}
	for _, e := range g.Edges() {
		fmt.Fprintf(w, "e %d %d %d\n", e.Source, e.Target, e.Label)
	}
}
