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
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/penny-vault/pv-factors/factors"
	"github.com/shopspring/decimal"
)

var _ = Describe("Generator tests", func() {
	var cal dailyCalendar

	Describe("When loading price history", func() {
		It("parses full daily bars", func() {
			generator := factors.NewGenerator("acme", strings.NewReader(strings.Join([]string{
				"20210311,39,41,38,40,125000",
				"20210310,39,41,38,39.5,90000",
			}, "\n")))

			history, err := generator.PriceHistory()
			Expect(err).To(BeNil())
			Expect(history).To(HaveLen(2))
			Expect(history[0].Date).To(Equal(day("2021-03-10")))
			Expect(history[0].Close.Equal(decimal.RequireFromString("39.5"))).To(BeTrue())
			Expect(history[1].Close.Equal(decimal.NewFromInt(40))).To(BeTrue())
			Expect(generator.Ticker()).To(Equal("ACME"))
		})

		It("accepts the two column date,close form", func() {
			generator := factors.NewGenerator("acme", strings.NewReader("20210310,40"))
			history, err := generator.PriceHistory()
			Expect(err).To(BeNil())
			Expect(history).To(HaveLen(1))
		})

		It("rejects malformed bars", func() {
			generator := factors.NewGenerator("acme", strings.NewReader("20210310,39,40"))
			_, err := generator.PriceHistory()
			Expect(err).To(MatchError(factors.ErrMalformedRow))
		})
	})

	Describe("When loading a corporate action feed", func() {
		It("converts vendor share multiples to price ratios", func() {
			feed := `[
				{"date": "2021-03-15", "divCash": 2.0, "splitFactor": 1},
				{"date": "2021-06-01", "divCash": 0, "splitFactor": 2}
			]`

			events, err := factors.LoadEventFeed(strings.NewReader(feed))
			Expect(err).To(BeNil())
			Expect(events).To(HaveLen(2))

			dividend, ok := events[0].(factors.Dividend)
			Expect(ok).To(BeTrue())
			Expect(dividend.ExDate).To(Equal(day("2021-03-15")))
			Expect(dividend.Distribution.Equal(decimal.NewFromInt(2))).To(BeTrue())

			split, ok := events[1].(factors.Split)
			Expect(ok).To(BeTrue())
			Expect(split.ExDate).To(Equal(day("2021-06-01")))
			Expect(split.SplitFactor.Equal(decimal.RequireFromString("0.5"))).To(BeTrue())
			Expect(split.Kind).To(Equal(factors.SplitOccurred))
		})

		It("rejects unparseable dates", func() {
			_, err := factors.LoadEventFeed(strings.NewReader(`[{"date": "03/15/2021", "divCash": 2.0}]`))
			Expect(err).ToNot(BeNil())
		})
	})

	Describe("When generating a factor timeline", func() {
		It("builds rows for each event with reference prices from the raw closes", func() {
			prices := strings.Join([]string{
				"20210310,40",
				"20210311,40",
				"20210312,40",
				"20210315,38",
			}, "\n")
			generator := factors.NewGenerator("acme", strings.NewReader(prices))

			events := []factors.CorporateEvent{
				factors.Dividend{ExDate: day("2021-03-15"), Distribution: decimal.NewFromInt(2)},
				factors.Split{ExDate: day("2021-06-01"), SplitFactor: decimal.RequireFromString("0.5"), Kind: factors.SplitOccurred},
			}

			timeline, err := generator.Generate(events, cal)
			Expect(err).To(BeNil())

			rows := timeline.Rows()
			Expect(rows).To(HaveLen(3))

			Expect(rows[0].Date).To(Equal(day("2021-03-14")))
			Expect(rows[0].PriceFactor.Equal(decimal.RequireFromString("0.95"))).To(BeTrue())
			Expect(rows[0].SplitFactor.Equal(decimal.RequireFromString("0.5"))).To(BeTrue())
			Expect(rows[0].ReferencePrice.Equal(decimal.NewFromInt(40))).To(BeTrue())

			Expect(rows[1].Date).To(Equal(day("2021-05-31")))
			Expect(rows[1].PriceFactor.Equal(decimal.NewFromInt(1))).To(BeTrue())
			Expect(rows[1].SplitFactor.Equal(decimal.RequireFromString("0.5"))).To(BeTrue())
			Expect(rows[1].ReferencePrice.Equal(decimal.NewFromInt(38))).To(BeTrue())

			Expect(rows[2].Date).To(Equal(factors.TerminalDate))
			Expect(rows[2].PriceScaleFactor().Equal(decimal.NewFromInt(1))).To(BeTrue())
		})

		It("fails when a dividend has no usable reference price", func() {
			generator := factors.NewGenerator("acme", strings.NewReader(""))
			events := []factors.CorporateEvent{
				factors.Dividend{ExDate: day("2021-03-15"), Distribution: decimal.NewFromInt(2)},
			}

			_, err := generator.Generate(events, cal)
			Expect(err).To(MatchError(factors.ErrNoPriceData))
		})

		It("tolerates splits without price history", func() {
			generator := factors.NewGenerator("acme", strings.NewReader(""))
			events := []factors.CorporateEvent{
				factors.Split{ExDate: day("2021-06-01"), SplitFactor: decimal.RequireFromString("0.5"), Kind: factors.SplitOccurred},
			}

			timeline, err := generator.Generate(events, cal)
			Expect(err).To(BeNil())
			Expect(timeline.Rows()[0].SplitFactor.Equal(decimal.RequireFromString("0.5"))).To(BeTrue())
		})
	})
})
