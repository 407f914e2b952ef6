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
	"strings"
)

// canonical exchange tags accepted on rows and storage paths
var exchanges = map[string]string{
	"NYSE":     "NYSE",
	"NASDAQ":   "NASDAQ",
	"AMEX":     "AMEX",
	"ARCA":     "ARCA",
	"BATS":     "BATS",
	"NYSE MKT": "NYSE MKT",
	"OTC":      "OTC",
}

// ParseExchange validates an exchange tag and returns its canonical form.
// The empty tag is allowed and means unknown. An unrecognized tag is fatal
// for the parse call that supplied it.
func ParseExchange(tag string) (string, error) {
	tag = strings.ToUpper(strings.TrimSpace(tag))
	if tag == "" {
		return "", nil
	}
	if canonical, ok := exchanges[tag]; ok {
		return canonical, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownExchange, tag)
}
