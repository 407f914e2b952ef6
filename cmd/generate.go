// Copyright 2022
// SPDX-License-Identifier: Apache-2.0
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package cmd

import (
	"os"

	"github.com/penny-vault/pv-factors/calendar"
	"github.com/penny-vault/pv-factors/common"
	"github.com/penny-vault/pv-factors/factors"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var generateOutput string

func init() {
	generateCmd.Flags().StringVarP(&generateOutput, "output", "o", "", "Write the factor file here instead of stdout")
	rootCmd.AddCommand(generateCmd)
}

var generateCmd = &cobra.Command{
	Use:   "generate <ticker> <price-history> <event-feed>",
	Args:  cobra.ExactArgs(3),
	Short: "Build a factor file from raw prices and a corporate action feed",
	Long: `Generate rebuilds a security's factor file from scratch. The price
history is a CSV of raw, unadjusted daily bars (yyyyMMdd,open,high,low,close,volume)
and the event feed is the vendor's JSON list of splits and dividends.`,
	Run: func(cmd *cobra.Command, args []string) {
		common.SetupLogging()

		ticker, pricesFn, feedFn := args[0], args[1], args[2]

		prices, err := os.Open(pricesFn)
		if err != nil {
			log.Fatal().Err(err).Str("FileName", pricesFn).Msg("could not open price history")
		}
		defer prices.Close()

		feed, err := os.Open(feedFn)
		if err != nil {
			log.Fatal().Err(err).Str("FileName", feedFn).Msg("could not open corporate action feed")
		}

		events, err := factors.LoadEventFeed(feed)
		feed.Close()
		if err != nil {
			log.Fatal().Err(err).Str("FileName", feedFn).Msg("could not parse corporate action feed")
		}

		generator := factors.NewGenerator(ticker, prices)
		timeline, err := generator.Generate(events, calendar.NYSE())
		if err != nil {
			log.Fatal().Err(err).Str("Ticker", ticker).Msg("could not generate factor file")
		}

		out := os.Stdout
		if generateOutput != "" {
			out, err = os.Create(generateOutput)
			if err != nil {
				log.Fatal().Err(err).Str("FileName", generateOutput).Msg("could not create output file")
			}
			defer out.Close()
		}

		if err := timeline.ToCsv(out); err != nil {
			log.Fatal().Err(err).Msg("could not write factor file")
		}
	},
}
