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

import "errors"

var (
	ErrNotFound           = errors.New("no factor data for security")
	ErrNotInitialized     = errors.New("provider not initialized")
	ErrMalformedRow       = errors.New("malformed factor file row")
	ErrUnknownExchange    = errors.New("unrecognized exchange tag")
	ErrNoPriceData        = errors.New("no daily price data available")
	ErrZeroReferencePrice = errors.New("dividend reference price is zero")
)
