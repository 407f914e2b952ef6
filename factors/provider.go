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
	"bytes"
	"context"
	"errors"

	lru "github.com/hashicorp/golang-lru"
	"github.com/penny-vault/pv-factors/observability/opentelemetry"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/singleflight"
)

const defaultCacheSize = 1024

// Provider is the caching façade over factor file storage. Timelines are
// loaded at most once per security: the first access wins a single-flight
// slot for its key and every caller, concurrent or later, receives the same
// cached instance. Unrelated securities never serialize behind each other.
type Provider struct {
	master SecurityMaster
	store  Store
	cache  *lru.Cache
	group  singleflight.Group
}

// Initialize wires the provider's collaborators. It must be called exactly
// once, before any Get.
func (p *Provider) Initialize(master SecurityMaster, store Store) error {
	size := viper.GetInt("factors.cache_size")
	if size <= 0 {
		size = defaultCacheSize
	}

	cache, err := lru.New(size)
	if err != nil {
		return err
	}

	p.master = master
	p.store = store
	p.cache = cache
	return nil
}

// Get returns the factor timeline for a security id, or nil when the
// security is unknown or has no factor data -- most securities have none and
// that is not an error. Storage failures other than "not found" propagate.
func (p *Provider) Get(ctx context.Context, securityID string) (*Timeline, error) {
	ctx, span := otel.Tracer(opentelemetry.Name).Start(ctx, "provider.Get")
	defer span.End()
	span.SetAttributes(attribute.KeyValue{
		Key:   "SecurityID",
		Value: attribute.StringValue(securityID),
	})

	if p.cache == nil {
		return nil, ErrNotInitialized
	}

	if cached, ok := p.cache.Get(securityID); ok {
		return cached.(*Timeline), nil
	}

	val, err, _ := p.group.Do(securityID, func() (interface{}, error) {
		// a concurrent flight may have populated the cache while this
		// caller was waiting for the key
		if cached, ok := p.cache.Get(securityID); ok {
			return cached.(*Timeline), nil
		}
		return p.load(ctx, securityID)
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "factor timeline load failed")
		return nil, err
	}
	if val == nil {
		return nil, nil
	}
	return val.(*Timeline), nil
}

func (p *Provider) load(ctx context.Context, securityID string) (*Timeline, error) {
	security, ok := p.master.Resolve(securityID)
	if !ok {
		log.Debug().Str("SecurityID", securityID).Msg("security unknown to master; no factor data")
		return nil, nil
	}

	raw, err := p.store.Read(ctx, security)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		log.Error().Stack().Err(err).Str("SecurityID", securityID).Str("Ticker", security.Ticker).Msg("could not load factor file")
		return nil, err
	}

	tl, err := ParseTimeline(security.CompositeFigi, bytes.NewReader(raw), security.Market)
	if err != nil {
		log.Error().Stack().Err(err).Str("SecurityID", securityID).Str("Ticker", security.Ticker).Msg("could not parse factor file")
		return nil, err
	}

	p.cache.Add(securityID, tl)
	return tl, nil
}
