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
	"time"

	"github.com/shopspring/decimal"
)

// distributionPrecision is the number of significant digits a dividend's cash
// distribution is rounded to.
const distributionPrecision = 2

// SplitKind distinguishes the advisory notice emitted the day before a split
// from the split itself.
type SplitKind int

const (
	// SplitWarning is a one-day-ahead notice; it never changes a timeline.
	SplitWarning SplitKind = iota
	// SplitOccurred is an effective split.
	SplitOccurred
)

func (k SplitKind) String() string {
	switch k {
	case SplitWarning:
		return "warning"
	case SplitOccurred:
		return "occurred"
	default:
		return fmt.Sprintf("splitkind(%d)", int(k))
	}
}

// CorporateEvent is a dated split or dividend.
type CorporateEvent interface {
	// EventDate is the date the event takes effect (the ex-date).
	EventDate() time.Time

	// dedupKey collapses repeated submissions of the same event; there is at
	// most one split and one dividend per security per day.
	dedupKey() string
}

// Dividend is a cash distribution per share, effective on ExDate.
type Dividend struct {
	ExDate         time.Time
	Distribution   decimal.Decimal
	ReferencePrice decimal.Decimal
}

// NewDividend builds a dividend from the price factor ratio between the last
// cum-dividend row and the row that follows it. The cash distribution is
// referencePrice * (1 - ratio), rounded to two significant digits.
func NewDividend(exDate time.Time, referencePrice, priceFactorRatio decimal.Decimal) Dividend {
	distribution := referencePrice.Mul(decimal.NewFromInt(1).Sub(priceFactorRatio))
	return Dividend{
		ExDate:         dateOnly(exDate),
		Distribution:   roundSignificant(distribution, distributionPrecision),
		ReferencePrice: referencePrice,
	}
}

func (d Dividend) EventDate() time.Time { return d.ExDate }

func (d Dividend) dedupKey() string {
	return "dividend|" + d.ExDate.Format(RowDateFormat)
}

// Split is a share split effective on ExDate. SplitFactor is the raw price
// ratio: 0.5 for a 2-for-1 split, 5 for a 1-for-5 reverse split.
type Split struct {
	ExDate         time.Time
	SplitFactor    decimal.Decimal
	ReferencePrice decimal.Decimal
	Kind           SplitKind
}

func (s Split) EventDate() time.Time { return s.ExDate }

func (s Split) dedupKey() string {
	return "split|" + s.ExDate.Format(RowDateFormat)
}
