package main

import (
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/gyeh/logload/internal/config"
	"github.com/gyeh/logload/internal/exitcode"
	"github.com/gyeh/logload/internal/extract"
	"github.com/gyeh/logload/internal/logging"
	"github.com/gyeh/logload/internal/parser"
	"github.com/gyeh/logload/internal/source"
)

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Dry-run parse and stats (no writes)",
	RunE:  runPlan,
}

var planTop int

func init() {
	f := planCmd.Flags()
	f.StringVar(&cfg.FilePath, "file", "", "Path to the server log file (required)")
	f.StringVar(&cfg.Encoding, "encoding", config.DefaultEncoding, "Source text encoding")
	f.IntVar(&planTop, "top", 10, "Namespaces to list")
	_ = planCmd.MarkFlagRequired("file")
	rootCmd.AddCommand(planCmd)
}

// planStats accumulates what a dry run saw.
type planStats struct {
	lines      int64
	records    int64
	skipped    map[string]int64
	components map[string]int64
	commands   map[string]int64
	namespaces map[string]int64
}

func runPlan(cmd *cobra.Command, args []string) error {
	log, err := logging.Setup(cfg.LogFormat, cfg.LogLevel)
	if err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		log.Error().Err(err).Msg("config validation failed")
		os.Exit(exitcode.UsageError)
	}

	info, err := source.Stat(cfg.FilePath)
	if err != nil {
		log.Error().Err(err).Msg("failed to hash file")
		os.Exit(exitcode.SourceError)
	}

	src, err := source.Open(cfg.FilePath, cfg.Encoding)
	if err != nil {
		log.Error().Err(err).Msg("failed to open log file")
		os.Exit(exitcode.SourceError)
	}
	defer src.Close()

	p := parser.New(extract.NewRuleSet())
	ps := planStats{
		skipped:    make(map[string]int64),
		components: make(map[string]int64),
		commands:   make(map[string]int64),
		namespaces: make(map[string]int64),
	}
	for src.Next() {
		ps.lines++
		rec, err := p.Parse(src.Line().Text)
		if err != nil {
			ps.skipped[parser.Reason(err)]++
			continue
		}
		ps.records++
		ps.components[rec.Component]++
		if rec.Command != "" {
			ps.commands[rec.Command]++
		}
		if ns := rec.Namespace(); ns != "" {
			ps.namespaces[ns]++
		}
	}
	if err := src.Err(); err != nil {
		log.Error().Err(err).Int64("line", src.Count()).Msg("failed to read log file")
		src.Close()
		os.Exit(exitcode.SourceError)
	}

	fmt.Println("=== logload plan ===")
	fmt.Printf("File:     %s\n", info.Path)
	fmt.Printf("SHA-256:  %s\n", info.SHA256)
	fmt.Printf("Size:     %d bytes\n", info.Size)
	fmt.Printf("Lines:    %d\n", ps.lines)
	fmt.Printf("Records:  %d\n", ps.records)
	fmt.Printf("Skipped:  %d\n", ps.lines-ps.records)
	printCounts("Skip reasons:", ps.skipped, 0)
	printCounts("Components:", ps.components, 0)
	printCounts("Commands:", ps.commands, 0)
	printCounts(fmt.Sprintf("Top %d namespaces:", planTop), ps.namespaces, planTop)
	return nil
}

// printCounts prints m sorted by count descending, then key. A positive
// limit keeps only the first limit entries.
func printCounts(title string, m map[string]int64, limit int) {
	if len(m) == 0 {
		return
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if m[keys[i]] != m[keys[j]] {
			return m[keys[i]] > m[keys[j]]
		}
		return keys[i] < keys[j]
	})
	if limit > 0 && len(keys) > limit {
		keys = keys[:limit]
	}
	fmt.Println()
	fmt.Println(title)
	for _, k := range keys {
		fmt.Printf("  %-30s %d\n", k, m[k])
	}
}
