// Package io reads and writes graph databases and match reports.
//
// # Overview
//
// A graph database is an ordered list of labeled directed graphs. Target sets
// and query sets use the same format. Two encodings are supported:
//
//   - Text: the line-oriented gSpan-style format described below
//   - JSON: an array of {"name", "nodes", "edges"} objects
//
// [LoadGraphs] picks the encoding from the file extension (.json is JSON,
// anything else is text).
//
// # Text Format
//
// Records are one per line; blank lines are ignored:
//
//	t # 0          begins graph "<prefix>0"
//	v 0 1          node 0 with label 1 (ids are sequential from 0)
//	v 1 2
//	e 0 1 5        edge 0 -> 1 with label 5
//	t # -1         optional end-of-database marker
//
// A malformed record aborts loading. The returned error carries one of the
// INVALID_RECORD, INVALID_NODE_ID, UNKNOWN_NODE or INVALID_LABEL codes from
// pkg/errors and names the offending line.
//
// # Reports
//
// [WriteReport] writes the classic text report:
//
//	Maps for: Query 0
//	In: Graph 0
//	(0-0) (1-1)
//
//	Cannot find a map for: Query 1
//
// Each pair is "(target-query) ", one per query node in increasing query id.
// [WriteReportJSON] writes the full [report.Report] including statistics.
//
// # Digests
//
// [Digest] hashes the canonical text encoding of a graph list. Equal digests
// mean equal graphs (names included), which makes them usable as cache keys.
package io
