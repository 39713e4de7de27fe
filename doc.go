// Package folioscout reconstructs a personal portfolio's historical net
// worth and performance from heterogeneous brokerage records.
//
// The core functionalities include:
//   - Trade Normalization: merging buy/sell records from several
//     brokerage exports into one chronological, validated trade list.
//   - Contribution Ledger: a sorted cumulative series of signed cash
//     flows (deposits and withdrawals), queryable as of any date.
//   - Price Lookups: per-ticker sorted date→price series with
//     last-known-value-before-date fallback, and a forex series with a
//     configurable default rate.
//   - Replay Engine: a strict forward fold over calendar days that
//     turns the trade and contribution streams into daily positions,
//     cash balance, net worth, and time-weighted return.
//   - Intraday Projection: the same fold over a merged sub-day
//     timeline, seeded from the daily engine's state.
//   - Data Persistence: plain JSON files, human-readable and
//     git-friendly, one per concern (trades, contributions, prices,
//     net worth).
//
// This package serves as the foundational logic for the `fsc`
// command-line tool; importer packages (nbdb, wealthsimple, rbc) and
// the yahoo price fetcher feed it, the renderer package consumes its
// output.
package folioscout
