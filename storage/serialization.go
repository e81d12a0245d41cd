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


package storage

import (
	"fmt"

	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/raw"
	"github.com/mus-format/mus-go/varint"
	"github.com/poiesic/ragbase/core"
)

// MarshalID serializes an ID to bytes.
func MarshalID(id core.ID) []byte {
	buf := make([]byte, varint.Uint64.Size(uint64(id)))
	varint.Uint64.Marshal(uint64(id), buf)
	return buf
}

// UnmarshalID deserializes an ID from bytes.
func UnmarshalID(data []byte) (core.ID, error) {
	v, _, err := varint.Uint64.Unmarshal(data)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrSerializationFailed, err)
	}
	return core.ID(v), nil
}

// MarshalChunk serializes a chunk and its vector into a single record.
//
// Layout: id, text, source path, start offset, index, vector length, vector
// components.
func MarshalChunk(chunk *core.Chunk, vector []float32) []byte {
	size := varint.Uint64.Size(uint64(chunk.Id)) +
		ord.String.Size(chunk.Text) +
		ord.String.Size(chunk.Metadata.SourcePath) +
		varint.Int.Size(chunk.Metadata.StartOffset) +
		varint.Int.Size(chunk.Metadata.Index) +
		varint.Int.Size(len(vector))
	for _, f := range vector {
		size += raw.Float32.Size(f)
	}

	buf := make([]byte, size)
	n := varint.Uint64.Marshal(uint64(chunk.Id), buf)
	n += ord.String.Marshal(chunk.Text, buf[n:])
	n += ord.String.Marshal(chunk.Metadata.SourcePath, buf[n:])
	n += varint.Int.Marshal(chunk.Metadata.StartOffset, buf[n:])
	n += varint.Int.Marshal(chunk.Metadata.Index, buf[n:])
	n += varint.Int.Marshal(len(vector), buf[n:])
	for _, f := range vector {
		n += raw.Float32.Marshal(f, buf[n:])
	}
	return buf
}

// UnmarshalChunk deserializes a record written by MarshalChunk.
func UnmarshalChunk(data []byte) (*core.Chunk, []float32, error) {
	var (
		chunk core.Chunk
		n     int
	)

	id, m, err := varint.Uint64.Unmarshal(data)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: chunk id: %w", ErrSerializationFailed, err)
	}
	chunk.Id = core.ID(id)
	n += m

	if chunk.Text, m, err = ord.String.Unmarshal(data[n:]); err != nil {
		return nil, nil, fmt.Errorf("%w: chunk text: %w", ErrSerializationFailed, err)
	}
	n += m
	if chunk.Metadata.SourcePath, m, err = ord.String.Unmarshal(data[n:]); err != nil {
		return nil, nil, fmt.Errorf("%w: source path: %w", ErrSerializationFailed, err)
	}
	n += m
	if chunk.Metadata.StartOffset, m, err = varint.Int.Unmarshal(data[n:]); err != nil {
		return nil, nil, fmt.Errorf("%w: start offset: %w", ErrSerializationFailed, err)
	}
	n += m
	if chunk.Metadata.Index, m, err = varint.Int.Unmarshal(data[n:]); err != nil {
		return nil, nil, fmt.Errorf("%w: chunk index: %w", ErrSerializationFailed, err)
	}
	n += m

	length, m, err := varint.Int.Unmarshal(data[n:])
	if err != nil {
		return nil, nil, fmt.Errorf("%w: vector length: %w", ErrSerializationFailed, err)
	}
	n += m
	// Each component takes exactly four bytes; reject lengths the buffer can't hold.
	if length < 0 || length*4 > len(data)-n {
		return nil, nil, fmt.Errorf("%w: vector of %d components", ErrTruncatedData, length)
	}

	vector := make([]float32, length)
	for i := range vector {
		if vector[i], m, err = raw.Float32.Unmarshal(data[n:]); err != nil {
			return nil, nil, fmt.Errorf("%w: vector component %d: %w", ErrSerializationFailed, i, err)
		}
		n += m
	}
	return &chunk, vector, nil
}

// MarshalTurns serializes a conversation history.
func MarshalTurns(turns []core.Turn) []byte {
	size := varint.Int.Size(len(turns))
	for _, t := range turns {
		size += varint.Int.Size(int(t.Role)) + ord.String.Size(t.Content)
	}

	buf := make([]byte, size)
	n := varint.Int.Marshal(len(turns), buf)
	for _, t := range turns {
		n += varint.Int.Marshal(int(t.Role), buf[n:])
		n += ord.String.Marshal(t.Content, buf[n:])
	}
	return buf
}

// UnmarshalTurns deserializes a history written by MarshalTurns.
func UnmarshalTurns(data []byte) ([]core.Turn, error) {
	count, n, err := varint.Int.Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("%w: turn count: %w", ErrSerializationFailed, err)
	}
	// Every turn needs at least two bytes: a role and an empty-string length.
	if count < 0 || count*2 > len(data)-n {
		return nil, fmt.Errorf("%w: %d turns", ErrTruncatedData, count)
	}

	turns := make([]core.Turn, count)
	for i := range turns {
		role, m, err := varint.Int.Unmarshal(data[n:])
		if err != nil {
			return nil, fmt.Errorf("%w: turn %d role: %w", ErrSerializationFailed, i, err)
		}
		n += m
		turns[i].Role = core.Role(role)

		if turns[i].Content, m, err = ord.String.Unmarshal(data[n:]); err != nil {
			return nil, fmt.Errorf("%w: turn %d content: %w", ErrSerializationFailed, i, err)
		}
		n += m
	}
	return turns, nil
}
