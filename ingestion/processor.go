// Copyright 2025 Poiesic Systems
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


package ingestion

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/poiesic/ragbase/core"
)

// DocumentLoader reads the text of a source file.
type DocumentLoader interface {
	Load(ctx context.Context, path string) (string, error)
	Supports(path string) bool
}

// Splitter cuts document text into chunks.
type Splitter interface {
	Split(ctx context.Context, source, text string) ([]*core.Chunk, error)
}

// processor is an internal interface for turning one document into chunks.
type processor interface {
	// process loads and splits the document at path.
	process(ctx context.Context, path string) ([]*core.Chunk, error)
}

// documentProcessor runs a document through the loader and the splitter.
type documentProcessor struct {
	loader   DocumentLoader
	splitter Splitter
	logger   *slog.Logger
}

var _ processor = (*documentProcessor)(nil)

func newDocumentProcessor(loader DocumentLoader, splitter Splitter, logger *slog.Logger) *documentProcessor {
	return &documentProcessor{
		loader:   loader,
		splitter: splitter,
		logger:   logger.With("processor", "documents"),
	}
}

func (dp *documentProcessor) process(ctx context.Context, path string) ([]*core.Chunk, error) {
	text, err := dp.loader.Load(ctx, path)
	if err != nil {
		return nil, err
	}

	chunks, err := dp.splitter.Split(ctx, path, text)
	if err != nil {
		return nil, err
	}
	if len(chunks) == 0 {
		return nil, fmt.Errorf("%w: %s", core.ErrEmptyDocument, path)
	}

	dp.logger.Debug("processed document", "path", path, "chunks", len(chunks))
	return chunks, nil
}
