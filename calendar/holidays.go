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

package calendar

import (
	"time"

	"github.com/penny-vault/pv-factors/common"
)

const earlyCloseTime = 1300

// usMarketHolidays computes the standard US equity market holiday table for
// the inclusive year range. Keys are midnight unix timestamps in the market
// timezone; values are early close times or 0 for full-day closures.
func usMarketHolidays(beginYear, endYear int) map[int64]int {
	tz := common.GetTimezone()
	table := make(map[int64]int, (endYear-beginYear+1)*10)

	fullDay := func(t time.Time) {
		table[t.Unix()] = 0
	}
	earlyClose := func(t time.Time) {
		if t.Weekday() == time.Saturday || t.Weekday() == time.Sunday {
			return
		}
		if _, closed := table[t.Unix()]; closed {
			return
		}
		table[t.Unix()] = earlyCloseTime
	}

	for year := beginYear; year <= endYear; year++ {
		// New Year's Day; when it falls on a Saturday the market does not
		// observe it at all
		newYears := time.Date(year, time.January, 1, 0, 0, 0, 0, tz)
		if newYears.Weekday() == time.Sunday {
			newYears = newYears.AddDate(0, 0, 1)
		}
		if newYears.Weekday() != time.Saturday {
			fullDay(newYears)
		}

		// Martin Luther King Jr. Day, observed since 1998
		if year >= 1998 {
			fullDay(nthWeekday(year, time.January, time.Monday, 3, tz))
		}

		// Washington's Birthday
		fullDay(nthWeekday(year, time.February, time.Monday, 3, tz))

		// Good Friday
		fullDay(easter(year, tz).AddDate(0, 0, -2))

		// Memorial Day
		fullDay(lastWeekday(year, time.May, time.Monday, tz))

		// Juneteenth, observed since 2022
		if year >= 2022 {
			fullDay(observed(time.Date(year, time.June, 19, 0, 0, 0, 0, tz)))
		}

		// Independence Day
		independence := time.Date(year, time.July, 4, 0, 0, 0, 0, tz)
		fullDay(observed(independence))
		earlyClose(independence.AddDate(0, 0, -1))

		// Labor Day
		fullDay(nthWeekday(year, time.September, time.Monday, 1, tz))

		// Thanksgiving and the half-day that follows it
		thanksgiving := nthWeekday(year, time.November, time.Thursday, 4, tz)
		fullDay(thanksgiving)
		earlyClose(thanksgiving.AddDate(0, 0, 1))

		// Christmas
		christmas := time.Date(year, time.December, 25, 0, 0, 0, 0, tz)
		fullDay(observed(christmas))
		earlyClose(christmas.AddDate(0, 0, -1))
	}

	return table
}

// observed shifts a fixed-date holiday to the nearest weekday: Saturday
// observes on Friday, Sunday on Monday.
func observed(t time.Time) time.Time {
	switch t.Weekday() {
	case time.Saturday:
		return t.AddDate(0, 0, -1)
	case time.Sunday:
		return t.AddDate(0, 0, 1)
	default:
		return t
	}
}

// nthWeekday returns the n-th weekday of the month, e.g. the 3rd Monday of
// January.
func nthWeekday(year int, month time.Month, weekday time.Weekday, n int, tz *time.Location) time.Time {
	d := time.Date(year, month, 1, 0, 0, 0, 0, tz)
	offset := int(weekday - d.Weekday())
	if offset < 0 {
		offset += 7
	}
	return d.AddDate(0, 0, offset+(n-1)*7)
}

// lastWeekday returns the final weekday of the month, e.g. the last Monday of
// May.
func lastWeekday(year int, month time.Month, weekday time.Weekday, tz *time.Location) time.Time {
	d := time.Date(year, month+1, 0, 0, 0, 0, 0, tz)
	offset := int(d.Weekday() - weekday)
	if offset < 0 {
		offset += 7
	}
	return d.AddDate(0, 0, -offset)
}

// easter computes the date of Easter Sunday using the anonymous Gregorian
// computus.
func easter(year int, tz *time.Location) time.Time {
	a := year % 19
	b := year / 100
	c := year % 100
	d := b / 4
	e := b % 4
	f := (b + 8) / 25
	g := (b - f + 1) / 3
	h := (19*a + b - d - g + 15) % 30
	i := c / 4
	k := c % 4
	l := (32 + 2*e + 2*i - h - k) % 7
	m := (a + 11*h + 22*l) / 451
	month := (h + l - 7*m + 114) / 31
	day := (h+l-7*m+114)%31 + 1
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, tz)
}
