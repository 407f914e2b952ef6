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

// Package calendar answers "is this a trading day?" and "what is the next
// one?" for an exchange. It holds a pre-computed holiday table; no database
// or network access happens at query time.
package calendar

import (
	"time"

	"github.com/penny-vault/pv-factors/common"
)

type MarketCalendar struct {
	holidays map[int64]int
	tz       *time.Location
}

// NewMarketCalendar creates a calendar from an explicit holiday table. The
// map value is the early close time (e.g. 1300) or 0 for a full-day holiday.
func NewMarketCalendar(holidays map[int64]int) *MarketCalendar {
	return &MarketCalendar{
		holidays: holidays,
		tz:       common.GetTimezone(),
	}
}

// NYSE returns a calendar pre-loaded with the standard US equity market
// holidays between 1980 and 2060.
func NYSE() *MarketCalendar {
	return NewMarketCalendar(usMarketHolidays(1980, 2060))
}

// midnight normalizes t to midnight in the calendar timezone; factor rows
// carry dates only and callers may hand us timestamps from other zones.
func (cal *MarketCalendar) midnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, cal.tz)
}

// EarlyClose returns close time of an early close market day, e.g. 1300
func (cal *MarketCalendar) EarlyClose(t time.Time) int {
	if close, ok := cal.holidays[cal.midnight(t).Unix()]; ok {
		return close
	}
	return 0
}

// IsMarketHoliday returns true if the specified date is a market holiday
func (cal *MarketCalendar) IsMarketHoliday(t time.Time) bool {
	close, ok := cal.holidays[cal.midnight(t).Unix()]
	if close != 0 {
		// early close days still trade
		return false
	}
	return ok
}

// IsMarketDay returns true if the specified date is a valid trading day
// (i.e. not a market holiday or weekend)
func (cal *MarketCalendar) IsMarketDay(t time.Time) bool {
	if t.Weekday() == time.Saturday || t.Weekday() == time.Sunday {
		return false
	}
	return !cal.IsMarketHoliday(t)
}

// NextTradingDay returns the first market day strictly after t.
func (cal *MarketCalendar) NextTradingDay(t time.Time) time.Time {
	d := cal.midnight(t).AddDate(0, 0, 1)
	for !cal.IsMarketDay(d) {
		d = d.AddDate(0, 0, 1)
	}
	return d
}

// PreviousTradingDay returns the first market day strictly before t.
func (cal *MarketCalendar) PreviousTradingDay(t time.Time) time.Time {
	d := cal.midnight(t).AddDate(0, 0, -1)
	for !cal.IsMarketDay(d) {
		d = d.AddDate(0, 0, -1)
	}
	return d
}
