// Package rbc imports trades from RBC account statement PDFs. The
// statements carry no machine-readable table: trades appear as dated
// prose in the Account Activity sections, with symbols only named in
// the Asset Review pages, so the import is a two-pass text
// reconstruction over every statement at once.
package rbc

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"

	"github.com/phuslu/log"

	"github.com/folioscout/folioscout"
)

// Result is the typed outcome of one import.
type Result struct {
	Trades     []folioscout.Trade
	Statements int // PDF files parsed
	Unresolved int // trades dropped because their description matched no symbol
}

var duplicateCopy = regexp.MustCompile(`^(.*)-\d+\.pdf$`)

// listStatements returns the statement PDFs of a folder, in name order,
// skipping download duplicates like "statement-2023-01-31-1.pdf" when
// the base file exists.
func listStatements(dir string) ([]string, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.pdf"))
	if err != nil {
		return nil, err
	}
	sort.Strings(paths)
	selected := make([]string, 0, len(paths))
	for _, path := range paths {
		if m := duplicateCopy.FindStringSubmatch(filepath.Base(path)); m != nil {
			base := filepath.Join(dir, m[1]+".pdf")
			if _, err := os.Stat(base); err == nil {
				continue
			}
		}
		selected = append(selected, path)
	}
	return selected, nil
}

// ImportDir parses every statement in a folder. The fallback rate
// converts USD statements that don't quote their own exchange rate.
func ImportDir(dir string, fallbackFx float64) (Result, error) {
	var result Result
	paths, err := listStatements(dir)
	if err != nil {
		return result, err
	}
	if len(paths) == 0 {
		return result, nil
	}

	// First pass: harvest symbol aliases from every statement, so later
	// activity rows can resolve positions already sold out of the
	// Asset Review.
	pagesByPath := make(map[string][]string, len(paths))
	symbols := newSymbolTable()
	for _, path := range paths {
		pages, err := extractPages(path)
		if err != nil {
			return result, fmt.Errorf("rbc %s: %w", filepath.Base(path), err)
		}
		pagesByPath[path] = pages
		symbols.collect(pages)
	}

	// Second pass: the trades themselves.
	for _, path := range paths {
		trades, unresolved := parseStatement(filepath.Base(path), pagesByPath[path], symbols, fallbackFx)
		result.Trades = append(result.Trades, trades...)
		result.Unresolved += unresolved
		result.Statements++
		if unresolved > 0 {
			log.Warn().Str("statement", filepath.Base(path)).
				Int("count", unresolved).Msg("rbc trades with unresolved symbols")
		}
	}
	log.Info().Int("statements", result.Statements).
		Int("trades", len(result.Trades)).Msg("rbc statements parsed")
	return result, nil
}
