package main

import (
	"slices"

	"github.com/poiesic/ragbase/core"
)

// sourcePaths returns the distinct source paths of chunks in first-seen order.
func sourcePaths(chunks []*core.ScoredChunk) []string {
	var paths []string
	for _, chunk := range chunks {
		path := chunk.Chunk.Metadata.SourcePath
		if !slices.Contains(paths, path) {
			paths = append(paths, path)
		}
	}
	return paths
}
