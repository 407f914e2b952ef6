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

	"github.com/penny-vault/pv-factors/common"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func init() {
	// Logging configuration
	viper.BindEnv("log.level", "PV_LOG_LEVEL")
	rootCmd.PersistentFlags().String("log-level", "warning", "Logging level")
	viper.BindPFlag("log.level", rootCmd.PersistentFlags().Lookup("log-level"))

	viper.BindEnv("log.report_caller", "PV_LOG_REPORT_CALLER")
	rootCmd.PersistentFlags().Bool("log-report-caller", false, "Log function name that called log statement")
	viper.BindPFlag("log.report_caller", rootCmd.PersistentFlags().Lookup("log-report-caller"))

	viper.BindEnv("log.output", "PV_LOG_OUTPUT")
	rootCmd.PersistentFlags().String("log-output", "stdout", "Write logs to specified output one of: file path, `stdout`, or `stderr`")
	viper.BindPFlag("log.output", rootCmd.PersistentFlags().Lookup("log-output"))

	viper.BindEnv("log.pretty", "PV_LOG_PRETTY")
	rootCmd.PersistentFlags().Bool("log-pretty", false, "Print logs in human readable form")
	viper.BindPFlag("log.pretty", rootCmd.PersistentFlags().Lookup("log-pretty"))

	// Factor file storage
	viper.BindEnv("factors.data_dir", "PV_FACTORS_DATA_DIR")
	rootCmd.PersistentFlags().String("data-dir", "", "Directory holding per-market factor files")
	viper.BindPFlag("factors.data_dir", rootCmd.PersistentFlags().Lookup("data-dir"))

	viper.BindEnv("factors.archive_dir", "PV_FACTORS_ARCHIVE_DIR")
	rootCmd.PersistentFlags().String("archive-dir", "", "Directory holding dated factor_files_*.zip archives")
	viper.BindPFlag("factors.archive_dir", rootCmd.PersistentFlags().Lookup("archive-dir"))

	viper.BindEnv("factors.securities", "PV_FACTORS_SECURITIES")
	rootCmd.PersistentFlags().String("securities", "", "Security master CSV (figi,ticker,market)")
	viper.BindPFlag("factors.securities", rootCmd.PersistentFlags().Lookup("securities"))

	rootCmd.PersistentFlags().Int("cache-size", 1024, "Number of factor timelines to keep in memory")
	viper.BindPFlag("factors.cache_size", rootCmd.PersistentFlags().Lookup("cache-size"))

	// OpenTelemetry
	viper.BindEnv("otlp.endpoint", "OTLP_ENDPOINT")
	rootCmd.PersistentFlags().String("otlp-endpoint", "", "OTLP collector endpoint, if blank don't export traces")
	viper.BindPFlag("otlp.endpoint", rootCmd.PersistentFlags().Lookup("otlp-endpoint"))
}

var rootCmd = &cobra.Command{
	Use:     "pvfactors",
	Version: common.CurrentVersion.String(),
	Short:   "Manage split and dividend price adjustment factors",
	Long:    `pvfactors derives, updates and serves the per-security factor files used to adjust raw prices for splits and dividends.`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
