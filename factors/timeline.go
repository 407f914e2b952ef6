// Copyright 2022
// SPDX-License-Identifier: Apache-2.0
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package factors

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"sort"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// TradingCalendar is the slice of an exchange calendar the factor engine
// needs: stepping a calendar date to the adjacent market days.
type TradingCalendar interface {
	NextTradingDay(t time.Time) time.Time
	PreviousTradingDay(t time.Time) time.Time
}

// Timeline is a security's ordered table of adjustment rows. Timelines are
// immutable snapshots: Apply returns a new instance and any number of
// goroutines may read one concurrently without locking.
type Timeline struct {
	id                  string
	rows                []Row // ascending by date, unique dates
	minimumReliableDate time.Time
}

// IdentityTimeline returns a timeline with the single terminal row; it
// adjusts nothing and is the seed for generation from corporate events.
func IdentityTimeline(id string) *Timeline {
	one := decimal.NewFromInt(1)
	return &Timeline{
		id:   id,
		rows: []Row{NewRow(TerminalDate, one, one, decimal.Decimal{})},
	}
}

// NewTimeline builds a timeline from an explicit row list. Rows are sorted
// by date and duplicate dates collapse to the last one given. If the newest
// row still carries an adjustment, the terminal sentinel row is appended so
// the present always has a scale factor of exactly 1.
func NewTimeline(id string, rows []Row) *Timeline {
	sorted := make([]Row, len(rows))
	copy(sorted, rows)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Date.Before(sorted[j].Date)
	})

	deduped := sorted[:0]
	for _, row := range sorted {
		if n := len(deduped); n > 0 && deduped[n-1].Date.Equal(row.Date) {
			deduped[n-1] = row
			continue
		}
		deduped = append(deduped, row)
	}

	one := decimal.NewFromInt(1)
	if len(deduped) == 0 || !deduped[len(deduped)-1].PriceScaleFactor().Equal(one) {
		deduped = append(deduped, NewRow(TerminalDate, one, one, decimal.Decimal{}))
	}

	return &Timeline{id: id, rows: deduped}
}

// ParseTimeline reads a factor file. The exchange tag applies to every row;
// an unrecognized tag fails the whole parse.
func ParseTimeline(id string, r io.Reader, exchange string) (*Timeline, error) {
	scanner := bufio.NewScanner(r)
	var lines []string
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading factor file for %s: %w", id, err)
	}

	rows, minimumReliableDate, err := ParseRows(lines, exchange)
	if err != nil {
		return nil, err
	}

	tl := NewTimeline(id, rows)
	tl.minimumReliableDate = minimumReliableDate
	return tl, nil
}

// ID returns the timeline's stable, ticker-independent security identifier.
func (tl *Timeline) ID() string { return tl.id }

// Rows returns a copy of the timeline's rows, oldest first.
func (tl *Timeline) Rows() []Row {
	rows := make([]Row, len(tl.rows))
	copy(rows, tl.rows)
	return rows
}

// Len returns the number of rows, terminal row included.
func (tl *Timeline) Len() int { return len(tl.rows) }

// MinimumReliableDate is the earliest date the timeline can be trusted; the
// zero time means the whole timeline is reliable.
func (tl *Timeline) MinimumReliableDate() time.Time { return tl.minimumReliableDate }

// MostRecentFactorChange is the date of the newest non-terminal row, i.e.
// the last day the old adjustment state applied before the latest corporate
// action. Zero time when the timeline has fewer than two rows.
func (tl *Timeline) MostRecentFactorChange() time.Time {
	if len(tl.rows) < 2 {
		return time.Time{}
	}
	return tl.rows[len(tl.rows)-2].Date
}

// ceilingIndex locates the row with the smallest date >= date, or -1 when
// every row is older. Lookups deliberately search forward: each row records
// the multiplier for prices up to and including its own date, so the row
// governing a date is the next recorded one, not the previous.
func (tl *Timeline) ceilingIndex(date time.Time) int {
	i := sort.Search(len(tl.rows), func(i int) bool {
		return !tl.rows[i].Date.Before(date)
	})
	if i == len(tl.rows) {
		return -1
	}
	return i
}

// PriceScaleFactor returns the multiplier converting a raw price observed on
// date into present-day terms. Dates beyond the newest row need no
// adjustment and return 1.
func (tl *Timeline) PriceScaleFactor(date time.Time) decimal.Decimal {
	i := tl.ceilingIndex(dateOnly(date))
	if i < 0 {
		return decimal.NewFromInt(1)
	}
	return tl.rows[i].PriceScaleFactor()
}

// PendingDividend reports whether the next trading day after date is a
// dividend ex-date. The ratio is the governing price factor divided by the
// one taking over (e.g. 0.9888... for a ~1% yield) and the reference price
// is the raw close on the last cum-dividend day.
func (tl *Timeline) PendingDividend(date time.Time, cal TradingCalendar) (ratio, referencePrice decimal.Decimal, ok bool) {
	this, next, ok := tl.straddle(date, cal)
	if !ok || this.PriceFactor.Equal(next.PriceFactor) {
		return decimal.Decimal{}, decimal.Decimal{}, false
	}
	return this.PriceFactor.Div(next.PriceFactor), this.ReferencePrice, true
}

// PendingSplit reports whether the next trading day after date is a split
// ex-date. The multiplier is the raw split ratio (0.5 for a 2-for-1 split)
// and the reference price is the raw close on the last pre-split day.
func (tl *Timeline) PendingSplit(date time.Time, cal TradingCalendar) (splitFactor, referencePrice decimal.Decimal, ok bool) {
	this, next, ok := tl.straddle(date, cal)
	if !ok || this.SplitFactor.Equal(next.SplitFactor) {
		return decimal.Decimal{}, decimal.Decimal{}, false
	}
	return this.SplitFactor.Div(next.SplitFactor), this.ReferencePrice, true
}

// straddle returns the row governing date and the row governing the next
// trading day. A corporate action sits between them exactly when they are
// different rows, which only happens when date is itself a row date.
func (tl *Timeline) straddle(date time.Time, cal TradingCalendar) (this, next Row, ok bool) {
	d := dateOnly(date)
	i := tl.ceilingIndex(d)
	if i < 0 {
		return Row{}, Row{}, false
	}
	j := tl.ceilingIndex(dateOnly(cal.NextTradingDay(d)))
	if j < 0 || j == i {
		return Row{}, Row{}, false
	}
	return tl.rows[i], tl.rows[j], true
}

// DeriveEvents reconstructs the splits and dividends implied by the
// timeline, oldest first. Each adjacent row pair whose factors differ hides
// an event effective the trading day after the older row. The returned
// slice is freshly built each call and may be consumed destructively.
func (tl *Timeline) DeriveEvents(cal TradingCalendar) []CorporateEvent {
	var events []CorporateEvent
	for i := 0; i+1 < len(tl.rows); i++ {
		this := tl.rows[i]
		next := tl.rows[i+1]
		exDate := dateOnly(cal.NextTradingDay(this.Date))

		if !this.PriceFactor.Equal(next.PriceFactor) {
			events = append(events, NewDividend(exDate, this.ReferencePrice, this.PriceFactor.Div(next.PriceFactor)))
		}
		if !this.SplitFactor.Equal(next.SplitFactor) {
			events = append(events, Split{
				ExDate:         exDate,
				SplitFactor:    this.SplitFactor.Div(next.SplitFactor),
				ReferencePrice: this.ReferencePrice,
				Kind:           SplitOccurred,
			})
		}
	}
	return events
}

// Apply folds newly discovered corporate actions into the timeline and
// returns the result as a new instance; the receiver is unchanged.
//
// Events the timeline already encodes, and duplicate submissions within the
// batch, are dropped first, so applying an event any number of times changes
// history exactly once. Each surviving event rescales the rows at or before
// its pivot -- the last trading day before the ex-date -- in place: a split
// multiplies their split factor by the event factor, a dividend multiplies
// their price factor by one minus the payout ratio. Rows newer than the
// pivot carry over unchanged, provenance included, and the table still ends
// with a scale factor of exactly 1.
func (tl *Timeline) Apply(newEvents []CorporateEvent, cal TradingCalendar) *Timeline {
	if len(newEvents) == 0 {
		return tl
	}

	seen := make(map[string]struct{}, len(newEvents))
	for _, ev := range tl.DeriveEvents(cal) {
		seen[ev.dedupKey()] = struct{}{}
	}

	pending := make([]CorporateEvent, 0, len(newEvents))
	for _, ev := range newEvents {
		if split, isSplit := ev.(Split); isSplit && split.Kind == SplitWarning {
			// advisory notices never rewrite history
			continue
		}
		if _, dup := seen[ev.dedupKey()]; dup {
			continue
		}
		seen[ev.dedupKey()] = struct{}{}
		pending = append(pending, ev)
	}
	if len(pending) == 0 {
		return tl
	}

	one := decimal.NewFromInt(1)
	rows := tl.Rows()
	for _, ev := range pending {
		switch e := ev.(type) {
		case Dividend:
			if e.ReferencePrice.IsZero() {
				log.Warn().Err(ErrZeroReferencePrice).Str("ID", tl.id).Time("ExDate", e.ExDate).Msg("dropping dividend")
				continue
			}
			ratio := one.Sub(e.Distribution.Div(e.ReferencePrice))
			rows = rescale(rows, dateOnly(cal.PreviousTradingDay(e.ExDate)), ratio, one, e.ReferencePrice)
		case Split:
			rows = rescale(rows, dateOnly(cal.PreviousTradingDay(e.ExDate)), one, e.SplitFactor, e.ReferencePrice)
		}
	}

	// an event past the newest row leaves the table without its closing 1
	if n := len(rows); n == 0 || !rows[n-1].PriceScaleFactor().Equal(one) {
		rows = append(rows, NewRow(TerminalDate, one, one, decimal.Decimal{}))
	}

	return &Timeline{
		id:                  tl.id,
		rows:                rows,
		minimumReliableDate: tl.minimumReliableDate,
	}
}

// rescale folds one corporate action into the row table: every row dated at
// or before the pivot absorbs the adjustment ratios, rows after it are
// untouched. When no row sits exactly on the pivot a new one is inserted
// carrying the factors of the row governing that date; its exchange and
// source are unknown.
func rescale(rows []Row, pivotDate time.Time, priceRatio, splitRatio, referencePrice decimal.Decimal) []Row {
	i := sort.Search(len(rows), func(i int) bool {
		return !rows[i].Date.Before(pivotDate)
	})

	if i == len(rows) || !rows[i].Date.Equal(pivotDate) {
		base := Row{PriceFactor: decimal.NewFromInt(1), SplitFactor: decimal.NewFromInt(1)}
		if i < len(rows) {
			base = rows[i]
		}
		rows = append(rows, Row{})
		copy(rows[i+1:], rows[i:])
		rows[i] = Row{
			Date:           pivotDate,
			PriceFactor:    base.PriceFactor,
			SplitFactor:    base.SplitFactor,
			ReferencePrice: referencePrice,
		}
	}

	for j := 0; j <= i; j++ {
		rows[j].PriceFactor = rows[j].PriceFactor.Mul(priceRatio)
		rows[j].SplitFactor = rows[j].SplitFactor.Mul(splitRatio)
	}
	return rows
}

// ToCsv writes the timeline in factor file form, oldest row first.
func (tl *Timeline) ToCsv(w io.Writer) error {
	for _, row := range tl.rows {
		if _, err := fmt.Fprintln(w, row.String()); err != nil {
			return err
		}
	}
	return nil
}

// roundSignificant rounds to the given number of significant digits,
// e.g. 0.12345 -> 0.12 and 1234.5 -> 1200 at two digits.
func roundSignificant(d decimal.Decimal, digits int32) decimal.Decimal {
	if d.IsZero() {
		return d
	}
	f, _ := d.Abs().Float64()
	exponent := int32(math.Floor(math.Log10(f)))
	return d.Round(digits - 1 - exponent)
}
