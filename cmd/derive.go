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
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/penny-vault/pv-factors/calendar"
	"github.com/penny-vault/pv-factors/common"
	"github.com/penny-vault/pv-factors/factors"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var deriveExchange string

func init() {
	deriveCmd.Flags().StringVar(&deriveExchange, "exchange", "", "Exchange the factor file's rows must belong to")
	rootCmd.AddCommand(deriveCmd)
}

var deriveCmd = &cobra.Command{
	Use:   "derive <factor-file>",
	Args:  cobra.ExactArgs(1),
	Short: "List the splits and dividends implied by a factor file",
	Run: func(cmd *cobra.Command, args []string) {
		common.SetupLogging()

		fn := args[0]
		fh, err := os.Open(fn)
		if err != nil {
			log.Fatal().Err(err).Str("FileName", fn).Msg("could not open factor file")
		}
		defer fh.Close()

		ticker := strings.ToUpper(strings.TrimSuffix(filepath.Base(fn), filepath.Ext(fn)))
		timeline, err := factors.ParseTimeline(ticker, fh, deriveExchange)
		if err != nil {
			log.Fatal().Err(err).Str("FileName", fn).Msg("could not parse factor file")
		}

		for _, ev := range timeline.DeriveEvents(calendar.NYSE()) {
			switch e := ev.(type) {
			case factors.Dividend:
				fmt.Printf("%s dividend %s (close %s)\n", e.ExDate.Format("2006-01-02"), e.Distribution, e.ReferencePrice)
			case factors.Split:
				fmt.Printf("%s split %s (close %s)\n", e.ExDate.Format("2006-01-02"), e.SplitFactor, e.ReferencePrice)
			}
		}
	},
}
