// mkfixture creates a small representative server log fixture from a larger file.
// Two-pass: first scans all lines to find diverse candidates, then selects the best N
// in original line order.
// Usage: go run ./cmd/mkfixture --in testdata/mongod.log --out testdata/mongod-small.log --lines 200
package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"sort"

	"github.com/gyeh/logload/internal/extract"
	"github.com/gyeh/logload/internal/parser"
	"github.com/gyeh/logload/internal/source"
)

type bucket struct {
	name  string
	lines []int64
	want  int
}

func main() {
	in := flag.String("in", "testdata/mongod.log", "input log")
	out := flag.String("out", "testdata/mongod-small.log", "output log")
	maxLines := flag.Int("lines", 200, "max lines to output")
	enc := flag.String("encoding", "", "input encoding")
	checkOnly := flag.Bool("check", false, "only print stats, don't write")
	flag.Parse()

	p := parser.New(extract.NewRuleSet())

	// Pass 1: read ALL lines, bucket by interesting traits.
	buckets := []*bucket{
		{name: "write", want: 30},
		{name: "read", want: 40},
		{name: "metrics", want: 30},
		{name: parser.ReasonNoStructuralMatch, want: 10},
		{name: parser.ReasonBadTimestamp, want: 10},
		{name: "general", want: *maxLines},
	}
	byName := make(map[string]*bucket)
	for _, b := range buckets {
		byName[b.name] = b
	}
	take := func(name string, n int64) bool {
		b := byName[name]
		if len(b.lines) >= b.want {
			return false
		}
		b.lines = append(b.lines, n)
		return true
	}

	src, err := source.Open(*in, *enc)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open input: %v\n", err)
		os.Exit(1)
	}
	var total int64
	components := make(map[string]int)
	for src.Next() {
		total++
		line := src.Line()
		rec, err := p.Parse(line.Text)
		if err != nil {
			take(parser.Reason(err), line.Number)
			continue
		}
		components[rec.Component]++
		if *checkOnly {
			continue
		}

		placed := false
		if extract.IsWritePath(rec.Component) && rec.Command != "" {
			placed = take("write", line.Number) || placed
		}
		if !extract.IsWritePath(rec.Component) && rec.Collection != "" {
			placed = take("read", line.Number) || placed
		}
		if len(rec.Metrics) > 0 {
			placed = take("metrics", line.Number) || placed
		}
		if !placed {
			take("general", line.Number)
		}
	}
	if err := src.Err(); err != nil {
		fmt.Fprintf(os.Stderr, "read: %v\n", err)
		os.Exit(1)
	}
	src.Close()
	fmt.Printf("Scanned %d lines\n", total)

	if *checkOnly {
		for _, b := range buckets {
			if b.name == parser.ReasonNoStructuralMatch || b.name == parser.ReasonBadTimestamp {
				fmt.Printf("  %-22s %d (first %d kept)\n", b.name, len(b.lines), b.want)
			}
		}
		printComponents(components)
		return
	}

	// Merge buckets in priority order, general last.
	selected := make(map[int64]string)
	for _, b := range buckets {
		for _, n := range b.lines {
			if len(selected) >= *maxLines {
				break
			}
			if _, ok := selected[n]; !ok {
				selected[n] = b.name
			}
		}
	}

	// Pass 2: copy the selected lines in their original order.
	src, err = source.Open(*in, *enc)
	if err != nil {
		fmt.Fprintf(os.Stderr, "reopen input: %v\n", err)
		os.Exit(1)
	}
	defer src.Close()

	outFile, err := os.Create(*out)
	if err != nil {
		fmt.Fprintf(os.Stderr, "create output: %v\n", err)
		os.Exit(1)
	}
	defer outFile.Close()
	w := bufio.NewWriter(outFile)

	counts := make(map[string]int)
	for src.Next() {
		line := src.Line()
		name, ok := selected[line.Number]
		if !ok {
			continue
		}
		counts[name]++
		if _, err := fmt.Fprintln(w, line.Text); err != nil {
			fmt.Fprintf(os.Stderr, "write: %v\n", err)
			os.Exit(1)
		}
	}
	if err := w.Flush(); err != nil {
		fmt.Fprintf(os.Stderr, "flush: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Wrote %d lines to %s\n", len(selected), *out)
	fmt.Println("Bucket distribution:")
	for _, b := range buckets {
		if c := counts[b.name]; c > 0 {
			fmt.Printf("  %-22s %d\n", b.name, c)
		}
	}
}

func printComponents(components map[string]int) {
	names := make([]string, 0, len(components))
	for c := range components {
		names = append(names, c)
	}
	sort.Strings(names)
	fmt.Println("Components:")
	for _, c := range names {
		fmt.Printf("  %-22s %d\n", c, components[c])
	}
}
