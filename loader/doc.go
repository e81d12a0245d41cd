// Package loader turns source files into plain text.
//
// Parsing is dispatched on the lower-cased file extension through a closed
// table. Files with any other extension fail with core.ErrUnsupportedFormat,
// which the ingestion pipeline records against that one path while the rest
// of the batch carries on.
//
// Supported formats:
//   - .pdf: one block per page
//   - .txt, .md, .markdown: the file contents
//   - .html, .htm: the visible text of the body
//   - .csv: one block per row, rendered as "column: value" lines
//
// Blocks are joined with a newline in source order.
package loader
