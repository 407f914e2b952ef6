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
	"archive/zip"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/penny-vault/pv-factors/common"
	"github.com/rs/zerolog/log"
)

// Store reads a security's raw factor file bytes. Read returns ErrNotFound
// when the security has no factor data; any other error is an I/O failure
// that must surface to the caller.
type Store interface {
	Read(ctx context.Context, security *Security) ([]byte, error)
}

const lz4Ext = ".lz4"

// DirStore serves factor files from `<root>/<market>/<TICKER>.csv`, with an
// optional `.csv.lz4` compressed variant.
type DirStore struct {
	root string
}

func NewDirStore(root string) *DirStore {
	return &DirStore{root: root}
}

func (s *DirStore) Read(_ context.Context, security *Security) ([]byte, error) {
	base := filepath.Join(s.root, strings.ToLower(security.Market), fmt.Sprintf("%s.csv", security.Ticker))

	raw, err := os.ReadFile(base)
	if err == nil {
		return raw, nil
	}
	if !os.IsNotExist(err) {
		log.Error().Stack().Err(err).Str("FileName", base).Msg("could not read factor file")
		return nil, err
	}

	compressed, err := os.ReadFile(base + lz4Ext)
	if os.IsNotExist(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		log.Error().Stack().Err(err).Str("FileName", base+lz4Ext).Msg("could not read factor file")
		return nil, err
	}
	return common.Decompress(compressed)
}

// ArchiveStore serves factor files packed in a zip archive with the same
// `<market>/<TICKER>.csv[.lz4]` entry layout. The archive index is built on
// first read and held for the store's lifetime.
type ArchiveStore struct {
	path string

	once    sync.Once
	entries map[string]*zip.File
	reader  *zip.ReadCloser
	openErr error
}

func NewArchiveStore(path string) *ArchiveStore {
	return &ArchiveStore{path: path}
}

func (s *ArchiveStore) open() {
	s.reader, s.openErr = zip.OpenReader(s.path)
	if s.openErr != nil {
		log.Error().Stack().Err(s.openErr).Str("FileName", s.path).Msg("could not open factor archive")
		return
	}

	s.entries = make(map[string]*zip.File, len(s.reader.File))
	for _, f := range s.reader.File {
		s.entries[strings.ToLower(f.Name)] = f
	}
}

func (s *ArchiveStore) Read(_ context.Context, security *Security) ([]byte, error) {
	s.once.Do(s.open)
	if s.openErr != nil {
		return nil, s.openErr
	}

	name := fmt.Sprintf("%s/%s.csv", strings.ToLower(security.Market), strings.ToLower(security.Ticker))
	entry, compressed := s.entries[name], false
	if entry == nil {
		entry, compressed = s.entries[name+lz4Ext], true
	}
	if entry == nil {
		return nil, ErrNotFound
	}

	rc, err := entry.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	raw, err := io.ReadAll(rc)
	if err != nil {
		return nil, err
	}
	if compressed {
		return common.Decompress(raw)
	}
	return raw, nil
}

// Close releases the underlying archive handle.
func (s *ArchiveStore) Close() error {
	if s.reader != nil {
		return s.reader.Close()
	}
	return nil
}

// LatestArchive finds the newest dated factor archive in dir, expecting
// names like `factor_files_20220831.zip`.
func LatestArchive(dir string) (string, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "factor_files_*.zip"))
	if err != nil {
		return "", err
	}
	if len(matches) == 0 {
		return "", ErrNotFound
	}
	sort.Strings(matches)
	return matches[len(matches)-1], nil
}
