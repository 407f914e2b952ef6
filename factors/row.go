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
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// RowDateFormat is the date layout used in factor files.
const RowDateFormat = "20060102"

// TerminalDate is the conventional far-future date of the final row in a
// factor file; the present never requires adjustment so its factors are 1.
var TerminalDate = time.Date(2050, time.December, 31, 0, 0, 0, 0, time.UTC)

// Row is one date's cumulative adjustment state for a security. Rows are
// values; once constructed they are never modified.
type Row struct {
	// Date is the last trading day the row's factors fully apply to; raw
	// prices on or before Date are multiplied by PriceFactor*SplitFactor to
	// obtain present-day-equivalent prices.
	Date time.Time

	// PriceFactor is the cumulative dividend adjustment multiplier.
	PriceFactor decimal.Decimal

	// SplitFactor is the cumulative share-split adjustment multiplier.
	SplitFactor decimal.Decimal

	// ReferencePrice is the raw unadjusted close on Date; 0 means unknown.
	ReferencePrice decimal.Decimal

	// Exchange optionally tags the market the row was sourced from.
	Exchange string

	// Source is a free-text provenance annotation; it carries no meaning.
	Source string
}

// NewRow constructs a row with the date normalized to midnight UTC.
func NewRow(date time.Time, priceFactor, splitFactor, referencePrice decimal.Decimal) Row {
	return Row{
		Date:           dateOnly(date),
		PriceFactor:    priceFactor,
		SplitFactor:    splitFactor,
		ReferencePrice: referencePrice,
	}
}

// PriceScaleFactor is the combined multiplier bringing raw prices dated on or
// before the row's date up to present-day terms.
func (r Row) PriceScaleFactor() decimal.Decimal {
	return r.PriceFactor.Mul(r.SplitFactor)
}

// IsTerminal reports whether the row is the conventional far-future sentinel.
func (r Row) IsTerminal() bool {
	return !r.Date.Before(TerminalDate)
}

// String serializes the row in factor file form. The reference price column
// is always written; the source column only when present.
func (r Row) String() string {
	var sb strings.Builder
	sb.WriteString(r.Date.Format(RowDateFormat))
	sb.WriteByte(',')
	sb.WriteString(r.PriceFactor.String())
	sb.WriteByte(',')
	sb.WriteString(r.SplitFactor.String())
	sb.WriteByte(',')
	sb.WriteString(r.ReferencePrice.String())
	if r.Source != "" {
		sb.WriteByte(',')
		sb.WriteString(r.Source)
	}
	return sb.String()
}

// ParseRow parses a single factor file line:
//
//	yyyyMMdd,priceFactor,splitFactor[,referencePrice[,source]]
//
// Numeric fields accept plain decimals, scientific notation (1e+07), and the
// literal `inf`. The 3-column legacy form omits the reference price, which
// defaults to 0 (unknown). The returned bool reports whether the row is
// usable: rows carrying an infinite value record an unreliable price and are
// dropped by ParseRows, but they are not parse errors.
func ParseRow(line string) (Row, bool, error) {
	fields := strings.Split(line, ",")
	if len(fields) < 3 || len(fields) > 5 {
		return Row{}, false, fmt.Errorf("%w: expected 3-5 columns got %d in %q", ErrMalformedRow, len(fields), line)
	}

	date, err := time.Parse(RowDateFormat, fields[0])
	if err != nil {
		return Row{}, false, fmt.Errorf("%w: bad date in %q: %s", ErrMalformedRow, line, err)
	}

	row := Row{Date: dateOnly(date)}
	usable := true

	numeric := []struct {
		name string
		dest *decimal.Decimal
	}{
		{"price factor", &row.PriceFactor},
		{"split factor", &row.SplitFactor},
	}
	if len(fields) >= 4 {
		numeric = append(numeric, struct {
			name string
			dest *decimal.Decimal
		}{"reference price", &row.ReferencePrice})
	}

	for ii, field := range numeric {
		val, finite, err := parseDecimal(fields[ii+1])
		if err != nil {
			return Row{}, false, fmt.Errorf("%w: bad %s in %q: %s", ErrMalformedRow, field.name, line, err)
		}
		if !finite {
			usable = false
			continue
		}
		*field.dest = val
	}

	if len(fields) == 5 {
		row.Source = strings.TrimSpace(fields[4])
	}

	return row, usable, nil
}

// ParseRows parses an entire factor file oldest-to-newest. Rows without a
// reliable price are dropped, and the returned minimum reliable date marks
// the first day the remaining timeline can be trusted: the later of the day
// after the last dropped row and the day before the earliest surviving row,
// so a gap in the middle of a file taints everything before it. Malformed
// lines abort the parse.
func ParseRows(lines []string, exchange string) ([]Row, time.Time, error) {
	tag, err := ParseExchange(exchange)
	if err != nil {
		return nil, time.Time{}, err
	}

	rows := make([]Row, 0, len(lines))
	var minimumReliableDate time.Time
	var lastDropped time.Time
	dropped := false

	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		row, usable, err := ParseRow(line)
		if err != nil {
			return nil, time.Time{}, err
		}
		if !usable {
			dropped = true
			lastDropped = row.Date
			continue
		}

		row.Exchange = tag
		rows = append(rows, row)
	}

	if dropped {
		minimumReliableDate = lastDropped.AddDate(0, 0, 1)
		if len(rows) > 0 {
			if d := rows[0].Date.AddDate(0, 0, -1); d.After(minimumReliableDate) {
				minimumReliableDate = d
			}
		}
	}

	return rows, minimumReliableDate, nil
}

// parseDecimal parses a numeric factor file field. The bool reports whether
// the value is finite; `inf` (any case) and values that overflow float64 are
// legal input but unusable as factors or prices.
func parseDecimal(s string) (decimal.Decimal, bool, error) {
	s = strings.TrimSpace(s)

	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return decimal.Decimal{}, false, err
	}
	if math.IsInf(f, 0) || math.IsNaN(f) {
		return decimal.Decimal{}, false, nil
	}

	val, err := decimal.NewFromString(s)
	if err != nil {
		// float64 accepted it; keep the float approximation
		return decimal.NewFromFloat(f), true, nil
	}
	return val, true, nil
}

// dateOnly strips the time component; factor timelines operate on calendar
// dates in UTC.
func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
