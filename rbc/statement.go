package rbc

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/folioscout/folioscout"
	"github.com/folioscout/folioscout/date"
)

var (
	activityStart = regexp.MustCompile(
		`(?:^|\b)(JAN(?:UARY)?|FEB(?:RUARY)?|MAR(?:CH)?|APR(?:IL)?|MAY|` +
			`JUN(?:E)?|JUL(?:Y)?|AUG(?:UST)?|SEP(?:T(?:EMBER)?)?|` +
			`OCT(?:OBER)?|NOV(?:EMBER)?|DEC(?:EMBER)?)` +
			`\.?\s*(\d{1,2})\s+([A-Z]+)\b\s*(.*)$`)
	amountColumns = regexp.MustCompile(
		`^([0-9][0-9,]*(?:\.\d+)?-?)\s+([0-9][0-9,]*(?:\.\d+)?-?)\s+([0-9][0-9,]*(?:\.\d+)?-?)$`)
	inlineAmounts = regexp.MustCompile(
		`^(.*?)\s+([0-9][0-9,]*(?:\.\d+)?-?)\s+([0-9][0-9,]*(?:\.\d+)?-?)\s+([0-9][0-9,]*(?:\.\d+)?-?)$`)
	exchangeRate = regexp.MustCompile(`Exchange rate 1USD = ([0-9.]+) CAD`)
	// Boilerplate wedged between a trade's description lines.
	ignoredDescription = regexp.MustCompile(
		`^(UNSOLICITED|INTERCLASSSWITCHIN|INTERCLASSSWITCHOUT|ASOF|` +
			`AVG PRICE SHOWN|WE ACTED AS PRINCIPAL|THESEARESECURITIES|RELATEDISSUER|` +
			`REC[0-9/]+PAY[0-9/]+|REC [0-9/]+ PAY [0-9/]+|STCG|REINV|REINV@|DIST ON|CASHDIV ON|` +
			`CASH DIV ON|PREMIUMDISTON|PREMIUM DIST ON|DA|CA)$`)
	statementDate = regexp.MustCompile(`(\d{4})-(\d{2})-(\d{2})`)
)

// statementPeriod extracts the statement's year and month from its file
// name, e.g. "statement-2023-01-31.pdf".
func statementPeriod(name string) (year int, month time.Month, ok bool) {
	m := statementDate.FindStringSubmatch(name)
	if m == nil {
		return 0, 0, false
	}
	y, _ := strconv.Atoi(m[1])
	mo, _ := strconv.Atoi(m[2])
	return y, time.Month(mo), true
}

// statementFxRate finds the statement's own USD conversion rate, or the
// standing fallback when the statement doesn't quote one.
func statementFxRate(pages []string, fallback float64) float64 {
	for _, page := range pages {
		if m := exchangeRate.FindStringSubmatch(page); m != nil {
			if rate, err := strconv.ParseFloat(m[1], 64); err == nil {
				return rate
			}
		}
	}
	return fallback
}

// pendingTrade accumulates one Account Activity entry until its amount
// column shows up, possibly several lines later.
type pendingTrade struct {
	date     date.Date
	side     folioscout.Side
	currency string
	desc     []string
	amount   *float64
}

// parseStatement walks the Account Activity sections of one statement
// and extracts its buy and sell entries. Multi-line entries carry their
// description across lines until an amount triple terminates them.
func parseStatement(name string, pages []string, symbols *symbolTable, fallbackFx float64) (trades []folioscout.Trade, unresolved int) {
	year, month, ok := statementPeriod(name)
	if !ok {
		return nil, 0
	}
	usdToCAD := statementFxRate(pages, fallbackFx)

	var current *pendingTrade
	flush := func() {
		p := current
		current = nil
		if p == nil || p.amount == nil {
			return
		}
		desc := normalizeSpace(strings.Join(p.desc, " "))
		symbol := symbols.resolve(desc)
		if symbol == "" {
			unresolved++
			return
		}
		amount := *p.amount
		if p.currency == "USD" {
			amount *= usdToCAD
		}
		if amount < 0 {
			amount = -amount
		}
		amount = math.Round(amount*100) / 100
		trades = append(trades, folioscout.Trade{
			Ticker: symbol, Date: p.date, Side: p.side, Amount: amount,
		})
	}

	for _, page := range pages {
		currency := "CAD"
		if strings.Contains(page, "Statement (U.S.$)") {
			currency = "USD"
		}
		inActivity := false

		for _, line := range strings.Split(page, "\n") {
			line = normalizeSpace(line)
			if line == "" {
				continue
			}
			if strings.Contains(line, "FOOTNOTES") {
				flush()
				inActivity = false
				continue
			}
			if strings.Contains(line, "Account Activity") {
				flush()
				inActivity = true
				continue
			}
			if !inActivity {
				continue
			}
			if strings.HasPrefix(line, "Closing Balance") {
				flush()
				inActivity = false
				continue
			}

			m := activityStart.FindStringSubmatch(line)
			if m != nil {
				activity := strings.ToUpper(m[3])
				if activity != "BOUGHT" && activity != "SOLD" {
					// A new dated activity ends a completed trade; an
					// incomplete one is abandoned either way.
					if current != nil && current.amount != nil {
						flush()
					}
					current = nil
					continue
				}
				flush()

				monthNum, ok := monthNumber(m[1])
				if !ok {
					continue
				}
				dayNum, _ := strconv.Atoi(m[2])
				tradeYear := year
				// January statements can carry late-December activity.
				if month == time.January && monthNum == time.December {
					tradeYear--
				}

				side := folioscout.Buy
				if activity == "SOLD" {
					side = folioscout.Sell
				}
				current = &pendingTrade{
					date:     date.New(tradeYear, monthNum, dayNum),
					side:     side,
					currency: currency,
				}
				rest := normalizeSpace(m[4])
				if inline := inlineAmounts.FindStringSubmatch(rest); inline != nil {
					current.desc = append(current.desc, normalizeSpace(inline[1]))
					if v, ok := parseAccountingNumber(inline[4]); ok {
						current.amount = &v
					}
				} else if rest != "" {
					current.desc = append(current.desc, rest)
				}
				continue
			}

			if strings.HasPrefix(line, "Opening Balance") ||
				line == "PRICE" ||
				line == "DATE ACTIVITY DESCRIPTION" ||
				line == `QUANTITY \RATE DEBIT CREDIT` {
				continue
			}
			if current == nil {
				continue
			}

			if m := amountColumns.FindStringSubmatch(line); m != nil && current.amount == nil {
				if v, ok := parseAccountingNumber(m[3]); ok {
					current.amount = &v
				}
				continue
			}
			if m := inlineAmounts.FindStringSubmatch(line); m != nil && current.amount == nil {
				if desc := normalizeSpace(m[1]); desc != "" {
					current.desc = append(current.desc, desc)
				}
				if v, ok := parseAccountingNumber(m[4]); ok {
					current.amount = &v
				}
				continue
			}
			if ignoredDescription.MatchString(strings.ToUpper(line)) {
				continue
			}
			current.desc = append(current.desc, line)
		}
	}
	flush()
	return trades, unresolved
}

func monthNumber(token string) (time.Month, bool) {
	token = strings.TrimSuffix(strings.ToUpper(token), ".")
	if strings.HasPrefix(token, "SEPT") {
		token = "SEP"
	} else if len(token) > 3 {
		token = token[:3]
	}
	months := map[string]time.Month{
		"JAN": time.January, "FEB": time.February, "MAR": time.March,
		"APR": time.April, "MAY": time.May, "JUN": time.June,
		"JUL": time.July, "AUG": time.August, "SEP": time.September,
		"OCT": time.October, "NOV": time.November, "DEC": time.December,
	}
	m, ok := months[token]
	return m, ok
}

// parseAccountingNumber reads an amount that may use trailing-minus
// accounting style, e.g. "3,170.85-".
func parseAccountingNumber(s string) (float64, bool) {
	s = strings.TrimSpace(strings.ReplaceAll(strings.ReplaceAll(s, "$", ""), ",", ""))
	if negative, ok := strings.CutSuffix(s, "-"); ok {
		s = "-" + negative
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
