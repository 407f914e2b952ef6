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
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog/log"
)

// Security identifies a tradeable asset. CompositeFigi is the stable,
// ticker-independent identifier; tickers change with corporate actions.
type Security struct {
	Ticker        string `json:"ticker"`
	CompositeFigi string `json:"compositeFigi"`
	Market        string `json:"market"`
}

// SecurityMaster resolves a security identifier to its current ticker and
// market. Most identifiers legitimately resolve to nothing.
type SecurityMaster interface {
	Resolve(securityID string) (*Security, bool)
}

// StaticSecurityMaster is an in-memory SecurityMaster.
type StaticSecurityMaster struct {
	byFigi map[string]*Security
}

// NewStaticSecurityMaster indexes the given securities by composite FIGI.
func NewStaticSecurityMaster(securities []*Security) *StaticSecurityMaster {
	byFigi := make(map[string]*Security, len(securities))
	for _, s := range securities {
		byFigi[s.CompositeFigi] = s
	}
	return &StaticSecurityMaster{byFigi: byFigi}
}

func (m *StaticSecurityMaster) Resolve(securityID string) (*Security, bool) {
	s, ok := m.byFigi[securityID]
	return s, ok
}

// LoadSecurityMaster reads a `figi,ticker,market` CSV into a security
// master. Blank lines and `#` comments are skipped.
func LoadSecurityMaster(fn string) (*StaticSecurityMaster, error) {
	fh, err := os.Open(fn)
	if err != nil {
		log.Error().Stack().Err(err).Str("FileName", fn).Msg("could not open security master")
		return nil, err
	}
	defer fh.Close()

	var securities []*Security
	scanner := bufio.NewScanner(fh)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		fields := strings.Split(line, ",")
		if len(fields) != 3 {
			return nil, fmt.Errorf("%w: expected 3 columns got %d in %q", ErrMalformedRow, len(fields), line)
		}

		securities = append(securities, &Security{
			CompositeFigi: strings.TrimSpace(fields[0]),
			Ticker:        strings.ToUpper(strings.TrimSpace(fields[1])),
			Market:        strings.TrimSpace(fields[2]),
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return NewStaticSecurityMaster(securities), nil
}
