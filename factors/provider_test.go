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
	"archive/zip"
	"context"
	"os"
	"path/filepath"
	"sync"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/penny-vault/pv-factors/common"
	"github.com/penny-vault/pv-factors/factors"
)

const spyFigi = "BBG000BDTBL9"

var spyCsv = []byte("20200101,0.95,0.5,300\n20501231,1,1,0\n")

// countingStore records how many reads actually hit the backing data
type countingStore struct {
	mu    sync.Mutex
	reads int
}

func (s *countingStore) Read(_ context.Context, security *factors.Security) ([]byte, error) {
	s.mu.Lock()
	s.reads++
	s.mu.Unlock()

	if security.Ticker != "SPY" {
		return nil, factors.ErrNotFound
	}
	return spyCsv, nil
}

func (s *countingStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reads
}

func newTestMaster() *factors.StaticSecurityMaster {
	return factors.NewStaticSecurityMaster([]*factors.Security{
		{Ticker: "SPY", CompositeFigi: spyFigi, Market: "nyse"},
		{Ticker: "GONE", CompositeFigi: "BBG0000GONE0", Market: "nyse"},
	})
}

var _ = Describe("Provider tests", func() {
	var (
		provider factors.Provider
		store    *countingStore
	)

	BeforeEach(func() {
		store = &countingStore{}
		Expect(provider.Initialize(newTestMaster(), store)).To(Succeed())
	})

	Describe("When fetching factor timelines", func() {
		It("returns the same instance on repeated gets", func() {
			first, err := provider.Get(context.Background(), spyFigi)
			Expect(err).To(BeNil())
			Expect(first).ToNot(BeNil())

			second, err := provider.Get(context.Background(), spyFigi)
			Expect(err).To(BeNil())
			Expect(second).To(BeIdenticalTo(first))
			Expect(store.count()).To(Equal(1))
		})

		It("returns nil for securities the master does not know", func() {
			timeline, err := provider.Get(context.Background(), "NOT-A-TICKER")
			Expect(err).To(BeNil())
			Expect(timeline).To(BeNil())
			Expect(store.count()).To(Equal(0))
		})

		It("returns nil for securities without factor data", func() {
			timeline, err := provider.Get(context.Background(), "BBG0000GONE0")
			Expect(err).To(BeNil())
			Expect(timeline).To(BeNil())
		})

		It("loads each security once under concurrent access", func() {
			var wg sync.WaitGroup
			results := make([]*factors.Timeline, 16)
			for ii := range results {
				wg.Add(1)
				go func(ii int) {
					defer GinkgoRecover()
					defer wg.Done()
					tl, err := provider.Get(context.Background(), spyFigi)
					Expect(err).To(BeNil())
					results[ii] = tl
				}(ii)
			}
			wg.Wait()

			Expect(store.count()).To(Equal(1))
			for _, tl := range results {
				Expect(tl).To(BeIdenticalTo(results[0]))
			}
		})

		It("fails before initialization", func() {
			var uninitialized factors.Provider
			_, err := uninitialized.Get(context.Background(), spyFigi)
			Expect(err).To(MatchError(factors.ErrNotInitialized))
		})
	})
})

var _ = Describe("Store tests", func() {
	var security = &factors.Security{Ticker: "SPY", CompositeFigi: spyFigi, Market: "nyse"}

	Describe("When reading from a directory store", func() {
		var root string

		BeforeEach(func() {
			root = GinkgoT().TempDir()
			Expect(os.MkdirAll(filepath.Join(root, "nyse"), 0o755)).To(Succeed())
			Expect(os.WriteFile(filepath.Join(root, "nyse", "SPY.csv"), spyCsv, 0o644)).To(Succeed())

			compressed, err := common.Compress(spyCsv)
			Expect(err).To(BeNil())
			Expect(os.WriteFile(filepath.Join(root, "nyse", "AAPL.csv.lz4"), compressed, 0o644)).To(Succeed())
		})

		It("reads plain csv files", func() {
			raw, err := factors.NewDirStore(root).Read(context.Background(), security)
			Expect(err).To(BeNil())
			Expect(raw).To(Equal(spyCsv))
		})

		It("falls back to lz4 compressed files", func() {
			aapl := &factors.Security{Ticker: "AAPL", CompositeFigi: "BBG000B9XRY4", Market: "nyse"}
			raw, err := factors.NewDirStore(root).Read(context.Background(), aapl)
			Expect(err).To(BeNil())
			Expect(raw).To(Equal(spyCsv))
		})

		It("reports missing securities as not found", func() {
			missing := &factors.Security{Ticker: "MISSING", Market: "nyse"}
			_, err := factors.NewDirStore(root).Read(context.Background(), missing)
			Expect(err).To(MatchError(factors.ErrNotFound))
		})
	})

	Describe("When reading from an archive store", func() {
		var archivePath string

		BeforeEach(func() {
			dir := GinkgoT().TempDir()
			archivePath = filepath.Join(dir, "factor_files_20220831.zip")

			fh, err := os.Create(archivePath)
			Expect(err).To(BeNil())
			zw := zip.NewWriter(fh)

			w, err := zw.Create("nyse/spy.csv")
			Expect(err).To(BeNil())
			_, err = w.Write(spyCsv)
			Expect(err).To(BeNil())

			compressed, err := common.Compress(spyCsv)
			Expect(err).To(BeNil())
			w, err = zw.Create("nyse/aapl.csv.lz4")
			Expect(err).To(BeNil())
			_, err = w.Write(compressed)
			Expect(err).To(BeNil())

			Expect(zw.Close()).To(Succeed())
			Expect(fh.Close()).To(Succeed())
		})

		It("reads entries by market and ticker", func() {
			store := factors.NewArchiveStore(archivePath)
			defer store.Close()

			raw, err := store.Read(context.Background(), security)
			Expect(err).To(BeNil())
			Expect(raw).To(Equal(spyCsv))
		})

		It("decompresses lz4 entries", func() {
			store := factors.NewArchiveStore(archivePath)
			defer store.Close()

			aapl := &factors.Security{Ticker: "AAPL", CompositeFigi: "BBG000B9XRY4", Market: "nyse"}
			raw, err := store.Read(context.Background(), aapl)
			Expect(err).To(BeNil())
			Expect(raw).To(Equal(spyCsv))
		})

		It("reports missing entries as not found", func() {
			store := factors.NewArchiveStore(archivePath)
			defer store.Close()

			missing := &factors.Security{Ticker: "MISSING", Market: "nyse"}
			_, err := store.Read(context.Background(), missing)
			Expect(err).To(MatchError(factors.ErrNotFound))
		})

		It("selects the newest dated archive", func() {
			dir := GinkgoT().TempDir()
			for _, fn := range []string{"factor_files_20220101.zip", "factor_files_20220831.zip", "factor_files_20211231.zip"} {
				Expect(os.WriteFile(filepath.Join(dir, fn), []byte{}, 0o644)).To(Succeed())
			}

			latest, err := factors.LatestArchive(dir)
			Expect(err).To(BeNil())
			Expect(filepath.Base(latest)).To(Equal("factor_files_20220831.zip"))
		})
	})
})
