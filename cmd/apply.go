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
	"path/filepath"
	"strings"

	"github.com/penny-vault/pv-factors/calendar"
	"github.com/penny-vault/pv-factors/common"
	"github.com/penny-vault/pv-factors/factors"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var (
	applyExchange string
	applyOutput   string
)

func init() {
	applyCmd.Flags().StringVar(&applyExchange, "exchange", "", "Exchange the factor file's rows must belong to")
	applyCmd.Flags().StringVarP(&applyOutput, "output", "o", "", "Write the updated factor file here instead of in place")
	rootCmd.AddCommand(applyCmd)
}

var applyCmd = &cobra.Command{
	Use:   "apply <factor-file> <event-feed>",
	Args:  cobra.ExactArgs(2),
	Short: "Fold a corporate action feed into an existing factor file",
	Long: `Apply reads a JSON corporate action feed, folds the new splits and
dividends into the factor file and rewrites it. Events the file already
reflects are left alone.`,
	Run: func(cmd *cobra.Command, args []string) {
		common.SetupLogging()

		factorFn, feedFn := args[0], args[1]

		fh, err := os.Open(factorFn)
		if err != nil {
			log.Fatal().Err(err).Str("FileName", factorFn).Msg("could not open factor file")
		}

		ticker := strings.ToUpper(strings.TrimSuffix(filepath.Base(factorFn), filepath.Ext(factorFn)))
		timeline, err := factors.ParseTimeline(ticker, fh, applyExchange)
		fh.Close()
		if err != nil {
			log.Fatal().Err(err).Str("FileName", factorFn).Msg("could not parse factor file")
		}

		feed, err := os.Open(feedFn)
		if err != nil {
			log.Fatal().Err(err).Str("FileName", feedFn).Msg("could not open corporate action feed")
		}

		events, err := factors.LoadEventFeed(feed)
		feed.Close()
		if err != nil {
			log.Fatal().Err(err).Str("FileName", feedFn).Msg("could not parse corporate action feed")
		}

		updated := timeline.Apply(events, calendar.NYSE())

		outFn := applyOutput
		if outFn == "" {
			outFn = factorFn
		}

		out, err := os.Create(outFn)
		if err != nil {
			log.Fatal().Err(err).Str("FileName", outFn).Msg("could not create output file")
		}
		defer out.Close()

		if err := updated.ToCsv(out); err != nil {
			log.Fatal().Err(err).Str("FileName", outFn).Msg("could not write factor file")
		}

		log.Info().Str("Ticker", ticker).Int("NumEvents", len(events)).Int("NumRows", updated.Len()).Msg("updated factor file")
	},
}
