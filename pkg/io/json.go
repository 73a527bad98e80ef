package io

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	errs "github.com/matzehuels/isomatch/pkg/errors"
	"github.com/matzehuels/isomatch/pkg/graph"
)

type jsonGraph struct {
	Name  string     `json:"name"`
	Nodes []jsonNode `json:"nodes"`
	Edges []jsonEdge `json:"edges"`
}

type jsonNode struct {
	ID    int `json:"id"`
	Label int `json:"label"`
}

type jsonEdge struct {
	Source int `json:"source"`
	Target int `json:"target"`
	Label  int `json:"label"`
}

// ReadJSON decodes a JSON graph database from r:
//
//	[
//	  {
//	    "name": "Graph 0",
//	    "nodes": [{"id": 0, "label": 1}, {"id": 1, "label": 2}],
//	    "edges": [{"source": 0, "target": 1, "label": 5}]
//	  }
//	]
//
// Nodes must be listed in id order starting at 0. Graphs without a name are
// named prefix followed by their position. ReadJSON does not close r.
func ReadJSON(r io.Reader, prefix string) ([]*graph.Graph, error) {
	var data []jsonGraph
	if err := json.NewDecoder(r).Decode(&data); err != nil {
		return nil, errs.Wrap(errs.ErrCodeInvalidFormat, err, "decode graph database")
	}

	graphs := make([]*graph.Graph, 0, len(data))
	for i, jg := range data {
		name := jg.Name
		if name == "" {
			name = fmt.Sprintf("%s%d", prefix, i)
		}
		g := graph.New(name)
		for _, n := range jg.Nodes {
			if err := g.AddNode(n.ID, n.Label); err != nil {
				return nil, jsonError(err, name)
			}
		}
		for _, e := range jg.Edges {
			if err := g.AddEdge(e.Source, e.Target, e.Label); err != nil {
				return nil, jsonError(err, name)
			}
		}
		graphs = append(graphs, g)
	}
	return graphs, nil
}

func jsonError(err error, name string) error {
	code := errs.ErrCodeInvalidInput
	switch {
	case stderrors.Is(err, graph.ErrNonSequentialNodeID):
		code = errs.ErrCodeInvalidNodeID
	case stderrors.Is(err, graph.ErrUnknownSourceNode), stderrors.Is(err, graph.ErrUnknownTargetNode):
		code = errs.ErrCodeUnknownNode
	case stderrors.Is(err, graph.ErrNegativeLabel):
		code = errs.ErrCodeInvalidLabel
	}
	return errs.Wrap(code, err, "graph %s", name)
}

// WriteJSON encodes graphs as a JSON array readable by [ReadJSON].
func WriteJSON(w io.Writer, graphs []*graph.Graph) error {
	out := make([]jsonGraph, len(graphs))
	for i, g := range graphs {
		jg := jsonGraph{
			Name:  g.Name(),
			Nodes: make([]jsonNode, g.NodeCount()),
			Edges: make([]jsonEdge, 0, g.EdgeCount()),
		}
		for id := range jg.Nodes {
			jg.Nodes[id] = jsonNode{ID: id, Label: g.Label(id)}
		}
		for _, e := range g.Edges() {
			jg.Edges = append(jg.Edges, jsonEdge{Source: e.Source, Target: e.Target, Label: e.Label})
		}
		out[i] = jg
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// Graph database encodings.
const (
	EncodingText = "text"
	EncodingJSON = "json"
)

// EncodingFor returns EncodingJSON for .json paths and EncodingText for
// anything else.
func EncodingFor(path string) string {
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return EncodingJSON
	}
	return EncodingText
}

// LoadGraphs reads a graph database from path in the encoding chosen by
// [EncodingFor].
func LoadGraphs(path, prefix string) ([]*graph.Graph, error) {
	if EncodingFor(path) == EncodingText {
		return LoadGraphDB(path, prefix)
	}
	f, err := os.Open(path)
	if err != nil {
		if stderrors.Is(err, os.ErrNotExist) {
			return nil, errs.Wrap(errs.ErrCodeFileNotFound, err, "graph database %s", path)
		}
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	graphs, err := ReadJSON(f, prefix)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return graphs, nil
}

// ExportGraphs writes graphs to path in the encoding chosen by [EncodingFor].
// prefix is passed to [WriteGraphDB] for text output.
func ExportGraphs(path string, graphs []*graph.Graph, prefix string) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); err == nil && cerr != nil {
			err = fmt.Errorf("close %s: %w", path, cerr)
		}
	}()

	if EncodingFor(path) == EncodingJSON {
		return WriteJSON(f, graphs)
	}
	return WriteGraphDB(f, graphs, prefix)
}
