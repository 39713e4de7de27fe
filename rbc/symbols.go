package rbc

import (
	"regexp"
	"sort"
	"strings"

	"github.com/folioscout/folioscout"
)

// Statements describe trades in prose ("RBC US INDEX FUND (0522)...")
// while only the Asset Review section carries real symbols. symbolTable
// collects the review lines of every statement first, then resolves
// activity descriptions against them.
type symbolTable struct {
	compact map[string]string // compacted description -> symbol
	codes   map[string]string // 3-5 digit fund code -> symbol
}

func newSymbolTable() *symbolTable {
	return &symbolTable{compact: make(map[string]string), codes: make(map[string]string)}
}

var (
	assetLine = regexp.MustCompile(`^(.*?)\s+([A-Z][A-Z0-9.\-]{1,12})\s+` +
		`([0-9][0-9,]*(?:\.\d+)?)\s+([0-9][0-9,]*(?:\.\d+)?)\s+` +
		`([0-9][0-9,]*(?:\.\d+)?)\s+\$([0-9][0-9,]*(?:\.\d+)?)$`)
	fundCode    = regexp.MustCompile(`\((\d{3,5})\)`)
	bareCode    = regexp.MustCompile(`(?:^|[^0-9])(\d{3,5})(?:[^0-9]|$)`)
	nonAlnum    = regexp.MustCompile(`[^A-Z0-9]+`)
	alnumTokens = regexp.MustCompile(`[A-Z0-9]+`)
)

func compactKey(s string) string {
	return nonAlnum.ReplaceAllString(strings.ToUpper(s), "")
}

func tokenSet(s string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, tok := range alnumTokens.FindAllString(strings.ToUpper(s), -1) {
		set[tok] = struct{}{}
	}
	return set
}

// collect scans the Asset Review sections of a statement's pages and
// records description and fund-code aliases for each held symbol.
// First write wins, so earlier statements keep their naming.
func (st *symbolTable) collect(pages []string) {
	for _, page := range pages {
		inReview := false
		for _, line := range strings.Split(page, "\n") {
			line = normalizeSpace(line)
			if line == "" {
				continue
			}
			if strings.Contains(line, "Asset Review") {
				inReview = true
				continue
			}
			if inReview && strings.Contains(line, "Account Activity") {
				inReview = false
				continue
			}
			if !inReview {
				continue
			}
			m := assetLine.FindStringSubmatch(line)
			if m == nil {
				continue
			}
			desc := normalizeSpace(m[1])
			symbol := folioscout.NormalizeTicker(m[2])

			if key := compactKey(desc); key != "" {
				st.setCompact(key, symbol)
			}
			if code := fundCode.FindStringSubmatch(desc); code != nil {
				st.setCode(code[1], symbol)
			}
			// Mutual fund symbols embed their own code: RBF0522, FID253.
			for _, prefix := range []string{"RBF", "FID"} {
				if rest, ok := strings.CutPrefix(symbol, prefix); ok && isDigits(rest) {
					st.setCode(rest, symbol)
				}
			}
		}
	}
}

func (st *symbolTable) setCompact(key, symbol string) {
	if _, ok := st.compact[key]; !ok {
		st.compact[key] = symbol
	}
}

func (st *symbolTable) setCode(code, symbol string) {
	if _, ok := st.codes[code]; !ok {
		st.codes[code] = symbol
	}
}

// resolve maps an activity description to a symbol: exact fund code
// first, then exact compacted description, then the best fuzzy match by
// substring containment or token overlap. It returns "" when nothing
// matches with any confidence.
func (st *symbolTable) resolve(desc string) string {
	desc = normalizeSpace(desc)
	if desc == "" {
		return ""
	}
	upper := strings.ToUpper(desc)
	compact := compactKey(upper)

	for _, m := range fundCode.FindAllStringSubmatch(upper, -1) {
		if symbol, ok := st.codes[m[1]]; ok {
			return symbol
		}
	}
	for _, m := range bareCode.FindAllStringSubmatch(upper, -1) {
		if symbol, ok := st.codes[m[1]]; ok {
			return symbol
		}
	}
	if symbol, ok := st.compact[compact]; ok {
		return symbol
	}

	type candidate struct {
		score  int
		symbol string
	}
	var candidates []candidate
	descTokens := tokenSet(desc)
	for key, symbol := range st.compact {
		if key == "" {
			continue
		}
		if compact != "" && (strings.Contains(key, compact) || strings.Contains(compact, key)) {
			candidates = append(candidates, candidate{min(len(key), len(compact)), symbol})
			continue
		}
		overlap := 0
		for tok := range tokenSet(key) {
			if _, ok := descTokens[tok]; ok {
				overlap++
			}
		}
		if overlap >= 2 {
			candidates = append(candidates, candidate{overlap*100 + min(len(key), len(compact)), symbol})
		}
	}
	if len(candidates) == 0 {
		// Infer common mutual-fund symbols from the code alone.
		if m := fundCode.FindStringSubmatch(upper); m != nil {
			if strings.Contains(upper, "RBC") {
				return "RBF" + m[1]
			}
			if strings.Contains(upper, "FIDELITY") {
				return "FID" + m[1]
			}
		}
		return ""
	}
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].score != candidates[j].score {
			return candidates[i].score > candidates[j].score
		}
		return candidates[i].symbol < candidates[j].symbol
	})
	return candidates[0].symbol
}

func normalizeSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
