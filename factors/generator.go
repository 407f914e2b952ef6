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
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// DailyBar is one day of raw, unadjusted price history.
type DailyBar struct {
	Date  time.Time
	Close decimal.Decimal
}

// Generator builds a factor timeline for a security from its raw daily price
// history plus a feed of historical corporate actions. The price history is
// only parsed when a generation actually needs it.
type Generator struct {
	ticker string
	prices io.Reader

	once    sync.Once
	history []DailyBar
	loadErr error
}

// NewGenerator creates a generator for ticker whose raw daily prices can be
// read from prices. Lines are `yyyyMMdd,open,high,low,close,volume`; the
// two-column `yyyyMMdd,close` form is also accepted.
func NewGenerator(ticker string, prices io.Reader) *Generator {
	return &Generator{
		ticker: strings.ToUpper(ticker),
		prices: prices,
	}
}

// Ticker returns the security ticker generated timelines are keyed by.
func (g *Generator) Ticker() string { return g.ticker }

// PriceHistory returns the daily bars, oldest first, parsing them on first
// use.
func (g *Generator) PriceHistory() ([]DailyBar, error) {
	g.once.Do(g.load)
	return g.history, g.loadErr
}

func (g *Generator) load() {
	scanner := bufio.NewScanner(g.prices)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		fields := strings.Split(line, ",")
		var closeField string
		switch len(fields) {
		case 2:
			closeField = fields[1]
		case 6:
			closeField = fields[4]
		default:
			g.loadErr = fmt.Errorf("%w: expected 2 or 6 columns got %d in %q", ErrMalformedRow, len(fields), line)
			return
		}

		date, err := time.Parse(RowDateFormat, fields[0])
		if err != nil {
			g.loadErr = fmt.Errorf("%w: bad date in %q: %s", ErrMalformedRow, line, err)
			return
		}

		closePrice, finite, err := parseDecimal(closeField)
		if err != nil || !finite {
			g.loadErr = fmt.Errorf("%w: bad close in %q", ErrMalformedRow, line)
			return
		}

		g.history = append(g.history, DailyBar{Date: dateOnly(date), Close: closePrice})
	}
	if err := scanner.Err(); err != nil {
		g.loadErr = err
		return
	}

	sort.SliceStable(g.history, func(i, j int) bool {
		return g.history[i].Date.Before(g.history[j].Date)
	})
}

// Generate builds the factor timeline implied by the corporate action feed,
// starting from the identity timeline. Events missing a reference price get
// the raw close of the last trading day before their ex-date.
func (g *Generator) Generate(events []CorporateEvent, cal TradingCalendar) (*Timeline, error) {
	filled := make([]CorporateEvent, 0, len(events))
	for _, ev := range events {
		ev, err := g.fillReferencePrice(ev, cal)
		if err != nil {
			return nil, err
		}
		filled = append(filled, ev)
	}

	return IdentityTimeline(g.ticker).Apply(filled, cal), nil
}

func (g *Generator) fillReferencePrice(ev CorporateEvent, cal TradingCalendar) (CorporateEvent, error) {
	switch e := ev.(type) {
	case Dividend:
		if !e.ReferencePrice.IsZero() {
			return e, nil
		}
		ref, err := g.closeOnOrBefore(cal.PreviousTradingDay(e.ExDate))
		if err != nil {
			return nil, fmt.Errorf("dividend on %s: %w", e.ExDate.Format(RowDateFormat), err)
		}
		e.ReferencePrice = ref
		return e, nil
	case Split:
		if !e.ReferencePrice.IsZero() {
			return e, nil
		}
		ref, err := g.closeOnOrBefore(cal.PreviousTradingDay(e.ExDate))
		if err != nil {
			log.Warn().Str("Ticker", g.ticker).Time("ExDate", e.ExDate).Err(err).Msg("no close for split reference price")
			return e, nil
		}
		e.ReferencePrice = ref
		return e, nil
	default:
		return ev, nil
	}
}

// closeOnOrBefore finds the most recent raw close at or before date.
func (g *Generator) closeOnOrBefore(date time.Time) (decimal.Decimal, error) {
	history, err := g.PriceHistory()
	if err != nil {
		return decimal.Decimal{}, err
	}

	d := dateOnly(date)
	i := sort.Search(len(history), func(i int) bool {
		return history[i].Date.After(d)
	})
	if i == 0 {
		return decimal.Decimal{}, ErrNoPriceData
	}
	return history[i-1].Close, nil
}

// feedRecord is one day of a corporate action feed, in the shape the data
// vendors deliver: a cash amount and the share multiple on the ex-date.
type feedRecord struct {
	Date        string  `json:"date"`
	DivCash     float64 `json:"divCash"`
	SplitFactor float64 `json:"splitFactor"`
}

// LoadEventFeed decodes a JSON corporate action feed into events. A share
// multiple of 2 (a 2-for-1 split) becomes a split factor of 0.5, the raw
// price ratio the factor engine works in.
func LoadEventFeed(r io.Reader) ([]CorporateEvent, error) {
	var records []feedRecord
	if err := json.NewDecoder(r).Decode(&records); err != nil {
		return nil, fmt.Errorf("decoding corporate action feed: %w", err)
	}

	var events []CorporateEvent
	for _, rec := range records {
		date, err := time.Parse("2006-01-02", rec.Date)
		if err != nil {
			return nil, fmt.Errorf("corporate action feed: bad date %q: %w", rec.Date, err)
		}

		if rec.DivCash > 0 {
			events = append(events, Dividend{
				ExDate:       dateOnly(date),
				Distribution: decimal.NewFromFloat(rec.DivCash),
			})
		}
		if rec.SplitFactor != 0 && rec.SplitFactor != 1 {
			events = append(events, Split{
				ExDate:      dateOnly(date),
				SplitFactor: decimal.NewFromInt(1).Div(decimal.NewFromFloat(rec.SplitFactor)),
				Kind:        SplitOccurred,
			})
		}
	}

	return events, nil
}
