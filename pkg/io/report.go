package io

import (
	"bufio"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/matzehuels/isomatch/pkg/graph"
	"github.com/matzehuels/isomatch/pkg/report"
)

// WriteReport writes r in the text report format, one block per query in
// report order.
func WriteReport(w io.Writer, r *report.Report) error {
	bw := bufio.NewWriter(w)
	for _, qr := range r.Queries {
		writeQueryResult(bw, qr)
	}
	return bw.Flush()
}

// WriteQueryResult writes a single query block of the text report.
func WriteQueryResult(w io.Writer, qr report.QueryResult) error {
	bw := bufio.NewWriter(w)
	writeQueryResult(bw, qr)
	return bw.Flush()
}

func writeQueryResult(w *bufio.Writer, qr report.QueryResult) {
	if !qr.Matched() {
		fmt.Fprintf(w, "Cannot find a map for: %s\n\n", qr.Query)
		return
	}
	fmt.Fprintf(w, "Maps for: %s\n", qr.Query)
	for _, m := range qr.Matches {
		fmt.Fprintf(w, "In: %s\n", m.Target)
		w.WriteString(FormatPairs(m.Pairs))
		w.WriteByte('\n')
	}
	w.WriteByte('\n')
}

// FormatPairs renders pairs as "(t-q) " per pair, the mapping line of the
// text report.
func FormatPairs(pairs []report.Pair) string {
	buf := make([]byte, 0, len(pairs)*8)
	for _, p := range pairs {
		buf = append(buf, '(')
		buf = strconv.AppendInt(buf, int64(p.Target), 10)
		buf = append(buf, '-')
		buf = strconv.AppendInt(buf, int64(p.Query), 10)
		buf = append(buf, ')', ' ')
	}
	return string(buf)
}

// WriteReportJSON encodes r as indented JSON.
func WriteReportJSON(w io.Writer, r *report.Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(r); err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	return nil
}

// ReadReportJSON decodes a report written by [WriteReportJSON].
func ReadReportJSON(r io.Reader) (*report.Report, error) {
	var rep report.Report
	if err := json.NewDecoder(r).Decode(&rep); err != nil {
		return nil, fmt.Errorf("decode report: %w", err)
	}
	return &rep, nil
}

// Digest returns the hex SHA-256 of the canonical text encoding of graphs,
// graph names included.
func Digest(graphs ...*graph.Graph) string {
	h := sha256.New()
	for _, g := range graphs {
		writeGraph(h, g.Name(), g)
	}
	return hex.EncodeToString(h.Sum(nil))
}
