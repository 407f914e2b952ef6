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
	"context"
	"fmt"
	"time"

	"github.com/penny-vault/pv-factors/calendar"
	"github.com/penny-vault/pv-factors/common"
	"github.com/penny-vault/pv-factors/factors"
	"github.com/penny-vault/pv-factors/observability/opentelemetry"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func init() {
	rootCmd.AddCommand(lookupCmd)
}

var lookupCmd = &cobra.Command{
	Use:   "lookup <security-id> <date>",
	Args:  cobra.ExactArgs(2),
	Short: "Look up a security's price scale factor for a trading day",
	Run: func(cmd *cobra.Command, args []string) {
		common.SetupLogging()

		if viper.GetString("otlp.endpoint") != "" {
			shutdown, err := opentelemetry.Setup()
			if err != nil {
				log.Fatal().Err(err).Msg("could not initialize opentelemetry")
			}
			defer func() {
				if err := shutdown(context.Background()); err != nil {
					log.Error().Err(err).Msg("opentelemetry shutdown failed")
				}
			}()
		}

		securityID := args[0]
		date, err := time.Parse("2006-01-02", args[1])
		if err != nil {
			log.Fatal().Err(err).Str("InputStr", args[1]).Msg("could not parse date - expected format 2006-01-02")
		}

		master, err := factors.LoadSecurityMaster(viper.GetString("factors.securities"))
		if err != nil {
			log.Fatal().Err(err).Msg("could not load security master")
		}

		var store factors.Store
		if dir := viper.GetString("factors.data_dir"); dir != "" {
			store = factors.NewDirStore(dir)
		} else {
			archive, err := factors.LatestArchive(viper.GetString("factors.archive_dir"))
			if err != nil {
				log.Fatal().Err(err).Msg("no factor archive found")
			}
			archiveStore := factors.NewArchiveStore(archive)
			defer archiveStore.Close()
			store = archiveStore
		}

		var provider factors.Provider
		if err := provider.Initialize(master, store); err != nil {
			log.Fatal().Err(err).Msg("could not initialize factor provider")
		}

		timeline, err := provider.Get(context.Background(), securityID)
		if err != nil {
			log.Fatal().Err(err).Str("SecurityID", securityID).Msg("could not load factor timeline")
		}
		if timeline == nil {
			fmt.Printf("%s: no factor data\n", securityID)
			return
		}

		nyse := calendar.NYSE()
		fmt.Printf("price scale factor: %s\n", timeline.PriceScaleFactor(date))
		if ratio, refPrice, ok := timeline.PendingDividend(date, nyse); ok {
			fmt.Printf("pending dividend: ratio %s (close %s)\n", ratio, refPrice)
		}
		if splitFactor, refPrice, ok := timeline.PendingSplit(date, nyse); ok {
			fmt.Printf("pending split: %s (close %s)\n", splitFactor, refPrice)
		}
	},
}
