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

package factors_test

import (
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/penny-vault/pv-factors/factors"
	"github.com/shopspring/decimal"
)

var _ = Describe("Row tests", func() {
	Describe("When parsing individual factor file lines", func() {
		DescribeTable("check accepted forms",
			func(line string, expected factors.Row, usable bool) {
				row, ok, err := factors.ParseRow(line)
				Expect(err).To(BeNil())
				Expect(ok).To(Equal(usable))
				if !usable {
					return
				}
				Expect(row.Date).To(Equal(expected.Date))
				Expect(row.PriceFactor.Equal(expected.PriceFactor)).To(BeTrue(), "price factor %s", row.PriceFactor)
				Expect(row.SplitFactor.Equal(expected.SplitFactor)).To(BeTrue(), "split factor %s", row.SplitFactor)
				Expect(row.ReferencePrice.Equal(expected.ReferencePrice)).To(BeTrue(), "reference price %s", row.ReferencePrice)
				Expect(row.Source).To(Equal(expected.Source))
			},

			Entry("When the line has 4 columns", "20200102,0.95,0.5,42.42", factors.Row{
				Date:           time.Date(2020, 1, 2, 0, 0, 0, 0, time.UTC),
				PriceFactor:    decimal.RequireFromString("0.95"),
				SplitFactor:    decimal.RequireFromString("0.5"),
				ReferencePrice: decimal.RequireFromString("42.42"),
			}, true),

			Entry("When the line uses the 3 column legacy form", "20200102,0.95,0.5", factors.Row{
				Date:        time.Date(2020, 1, 2, 0, 0, 0, 0, time.UTC),
				PriceFactor: decimal.RequireFromString("0.95"),
				SplitFactor: decimal.RequireFromString("0.5"),
			}, true),

			Entry("When the line has a source column", "20200102,0.95,0.5,42.42,tiingo", factors.Row{
				Date:           time.Date(2020, 1, 2, 0, 0, 0, 0, time.UTC),
				PriceFactor:    decimal.RequireFromString("0.95"),
				SplitFactor:    decimal.RequireFromString("0.5"),
				ReferencePrice: decimal.RequireFromString("42.42"),
				Source:         "tiingo",
			}, true),

			Entry("When a factor uses scientific notation", "19980102,1,1e+07,0", factors.Row{
				Date:        time.Date(1998, 1, 2, 0, 0, 0, 0, time.UTC),
				PriceFactor: decimal.NewFromInt(1),
				SplitFactor: decimal.NewFromInt(10_000_000),
			}, true),

			Entry("When a factor is infinite", "19980102,1,inf,0", factors.Row{}, false),
			Entry("When the reference price is infinite", "19980102,1,1,inf", factors.Row{}, false),
		)

		DescribeTable("check malformed lines",
			func(line string) {
				_, _, err := factors.ParseRow(line)
				Expect(err).To(MatchError(factors.ErrMalformedRow))
			},

			Entry("When the line has too few columns", "20200102,0.95"),
			Entry("When the line has too many columns", "20200102,0.95,0.5,42.42,tiingo,extra"),
			Entry("When the date is garbage", "2020-01-02,0.95,0.5"),
			Entry("When a factor is not numeric", "20200102,abc,0.5"),
		)
	})

	Describe("When parsing a complete factor file", func() {
		Context("with rows that carry infinite values", func() {
			It("drops them and reports the minimum reliable date", func() {
				lines := []string{
					"19980102,1,inf",
					"20151211,1,inf",
					"20160330,1,2500",
					"20160915,1,80",
					"20501231,1,1",
				}

				rows, minimumReliableDate, err := factors.ParseRows(lines, "")
				Expect(err).To(BeNil())
				Expect(rows).To(HaveLen(3))
				Expect(rows[0].Date).To(Equal(time.Date(2016, 3, 30, 0, 0, 0, 0, time.UTC)))
				Expect(minimumReliableDate).To(Equal(time.Date(2016, 3, 29, 0, 0, 0, 0, time.UTC)))
			})
		})

		Context("with an unreliable row between two good ones", func() {
			It("marks everything before the gap unreliable", func() {
				lines := []string{
					"20100104,0.5,1",
					"20151211,1,inf",
					"20200102,0.9,1",
					"20501231,1,1",
				}

				rows, minimumReliableDate, err := factors.ParseRows(lines, "")
				Expect(err).To(BeNil())
				Expect(rows).To(HaveLen(3))
				Expect(minimumReliableDate).To(Equal(time.Date(2015, 12, 12, 0, 0, 0, 0, time.UTC)))
			})
		})

		Context("with an exchange tag", func() {
			It("stamps every row with the canonical tag", func() {
				rows, _, err := factors.ParseRows([]string{"20200102,0.95,0.5,42.42"}, "nyse")
				Expect(err).To(BeNil())
				Expect(rows[0].Exchange).To(Equal("NYSE"))
			})

			It("rejects an unknown exchange", func() {
				_, _, err := factors.ParseRows([]string{"20200102,0.95,0.5,42.42"}, "MOON")
				Expect(err).To(MatchError(factors.ErrUnknownExchange))
			})
		})
	})

	Describe("When serializing rows", func() {
		It("round-trips through String and ParseRow", func() {
			row := factors.NewRow(
				time.Date(2020, 1, 2, 0, 0, 0, 0, time.UTC),
				decimal.RequireFromString("0.9215"),
				decimal.RequireFromString("0.5"),
				decimal.RequireFromString("42.42"))

			parsed, usable, err := factors.ParseRow(row.String())
			Expect(err).To(BeNil())
			Expect(usable).To(BeTrue())
			Expect(parsed.Date).To(Equal(row.Date))
			Expect(parsed.PriceFactor.Equal(row.PriceFactor)).To(BeTrue())
			Expect(parsed.SplitFactor.Equal(row.SplitFactor)).To(BeTrue())
			Expect(parsed.ReferencePrice.Equal(row.ReferencePrice)).To(BeTrue())
		})

		It("keeps the source column when present", func() {
			row := factors.Row{
				Date:           time.Date(2020, 1, 2, 0, 0, 0, 0, time.UTC),
				PriceFactor:    decimal.NewFromInt(1),
				SplitFactor:    decimal.NewFromInt(1),
				ReferencePrice: decimal.NewFromInt(10),
				Source:         "tiingo",
			}
			Expect(row.String()).To(Equal("20200102,1,1,10,tiingo"))
		})
	})

	Describe("When inspecting rows", func() {
		It("combines both factors into the price scale factor", func() {
			row := factors.NewRow(
				time.Date(2020, 1, 2, 0, 0, 0, 0, time.UTC),
				decimal.RequireFromString("0.8"),
				decimal.RequireFromString("0.5"),
				decimal.Decimal{})
			Expect(row.PriceScaleFactor().Equal(decimal.RequireFromString("0.4"))).To(BeTrue())
		})

		It("recognizes the terminal sentinel", func() {
			one := decimal.NewFromInt(1)
			Expect(factors.NewRow(factors.TerminalDate, one, one, decimal.Decimal{}).IsTerminal()).To(BeTrue())
			Expect(factors.NewRow(time.Date(2020, 1, 2, 0, 0, 0, 0, time.UTC), one, one, decimal.Decimal{}).IsTerminal()).To(BeFalse())
		})
	})
})
