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


package loader

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/poiesic/ragbase/core"
	"github.com/tmc/langchaingo/documentloaders"
	"github.com/tmc/langchaingo/schema"
)

// parser extracts the text blocks of one opened file.
type parser func(ctx context.Context, f *os.File, size int64) ([]schema.Document, error)

// Loader reads documents from disk. It is safe for concurrent use.
type Loader struct {
	parsers     map[string]parser
	pdfPassword string
	logger      *slog.Logger
}

// Option is a functional option for configuring a Loader.
type Option func(*Loader) error

// WithLogger sets the logger for the loader.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Loader) error {
		if logger == nil {
			logger = slog.Default()
		}
		l.logger = logger
		return nil
	}
}

// WithPDFPassword sets the password used to open encrypted PDFs.
func WithPDFPassword(password string) Option {
	return func(l *Loader) error {
		l.pdfPassword = password
		return nil
	}
}

// New creates a Loader with the built-in format table.
func New(opts ...Option) (*Loader, error) {
	l := &Loader{logger: slog.Default()}
	for _, opt := range opts {
		if err := opt(l); err != nil {
			return nil, err
		}
	}
	l.logger = l.logger.With("component", "loader")

	text := func(ctx context.Context, f *os.File, _ int64) ([]schema.Document, error) {
		return documentloaders.NewText(f).Load(ctx)
	}
	html := func(ctx context.Context, f *os.File, _ int64) ([]schema.Document, error) {
		return documentloaders.NewHTML(f).Load(ctx)
	}
	l.parsers = map[string]parser{
		".pdf":      l.parsePDF,
		".txt":      text,
		".md":       text,
		".markdown": text,
		".html":     html,
		".htm":      html,
		".csv": func(ctx context.Context, f *os.File, _ int64) ([]schema.Document, error) {
			return documentloaders.NewCSV(f).Load(ctx)
		},
	}
	return l, nil
}

func (l *Loader) parsePDF(ctx context.Context, f *os.File, size int64) ([]schema.Document, error) {
	var opts []documentloaders.PDFOptions
	if l.pdfPassword != "" {
		opts = append(opts, documentloaders.WithPassword(l.pdfPassword))
	}
	return documentloaders.NewPDF(f, size, opts...).Load(ctx)
}

// Supports reports whether path has an extension the loader can parse.
func (l *Loader) Supports(path string) bool {
	_, ok := l.parsers[extension(path)]
	return ok
}

// Extensions returns the supported extensions in sorted order.
func (l *Loader) Extensions() []string {
	return slices.Sorted(maps.Keys(l.parsers))
}

// Load returns the text of the document at path.
func (l *Loader) Load(ctx context.Context, path string) (string, error) {
	ext := extension(path)
	parse, ok := l.parsers[ext]
	if !ok {
		return "", fmt.Errorf("%w: %q", core.ErrUnsupportedFormat, ext)
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return "", err
	}

	docs, err := parse(ctx, f, info.Size())
	if err != nil {
		return "", fmt.Errorf("parse %s: %w", path, err)
	}

	blocks := make([]string, len(docs))
	for i, doc := range docs {
		blocks[i] = doc.PageContent
	}
	text := strings.Join(blocks, "\n")
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("%w: %s", core.ErrEmptyDocument, path)
	}

	l.logger.Debug("loaded document", "path", path, "blocks", len(docs), "bytes", len(text))
	return text, nil
}

func extension(path string) string {
	return strings.ToLower(filepath.Ext(path))
}
