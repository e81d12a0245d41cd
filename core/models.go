package core

import (
	"encoding/binary"
	"strconv"

	"github.com/go-crypt/x/blake2b"
)

type ID uint64

func IDFromContent(text string) ID {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return ID(binary.LittleEndian.Uint64(sum))
}

// ChunkID derives the content-addressed ID of the index-th chunk of a source.
// Re-ingesting an unchanged document therefore overwrites instead of duplicating.
func ChunkID(source string, index int, text string) ID {
	return IDFromContent(source + "#" + strconv.Itoa(index) + "\x00" + text)
}

// UnknownOffset marks a chunk whose position in the loaded text could not be determined.
const UnknownOffset = -1

type ChunkMetadata struct {
	SourcePath  string // File the chunk was loaded from
	StartOffset int    // Byte offset into the loaded text, UnknownOffset if not known
	Index       int    // Ordinal of the chunk within its document
}

// Chunk is a bounded span of document text indexed as one retrievable unit.
// Chunks are immutable once produced by the chunker.
type Chunk struct {
	Id       ID
	Text     string
	Metadata ChunkMetadata
}

// ScoredChunk pairs a chunk with its relevance score for one query.
type ScoredChunk struct {
	Chunk *Chunk
	Score float32
}

type Role int

const (
	// RoleHuman represents a question asked by the user.
	RoleHuman Role = iota + 1
	// RoleAssistant represents an answer produced by the language model.
	RoleAssistant
)

func (r Role) String() string {
	switch r {
	case RoleHuman:
		return "human"
	case RoleAssistant:
		return "assistant"
	default:
		return "unknown"
	}
}

// Turn is one message of a conversation.
type Turn struct {
	Role    Role
	Content string
}

func HumanTurn(content string) Turn {
	return Turn{Role: RoleHuman, Content: content}
}

func AssistantTurn(content string) Turn {
	return Turn{Role: RoleAssistant, Content: content}
}
