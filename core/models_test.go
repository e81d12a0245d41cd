package core

import (
	"testing"
)

func TestIDFromContent(t *testing.T) {
	tests := []struct {
		name     string
		content  string
		wantSame bool
	}{
		{
			name:     "same content produces same ID",
			content:  "test content",
			wantSame: true,
		},
		{
			name:     "empty string",
			content:  "",
			wantSame: true,
		},
		{
			name:     "long content",
			content:  "This is a much longer piece of content that should still hash consistently",
			wantSame: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id1 := IDFromContent(tt.content)
			id2 := IDFromContent(tt.content)

			if tt.wantSame && id1 != id2 {
				t.Errorf("IDFromContent() produced different IDs for same content: %d vs %d", id1, id2)
			}
		})
	}
}

func TestIDFromContent_Different(t *testing.T) {
	id1 := IDFromContent("content1")
	id2 := IDFromContent("content2")

	if id1 == id2 {
		t.Errorf("IDFromContent() produced same ID for different content")
	}
}

func TestChunkID(t *testing.T) {
	base := ChunkID("docs/a.pdf", 0, "hello")

	if base != ChunkID("docs/a.pdf", 0, "hello") {
		t.Errorf("ChunkID() is not deterministic")
	}
	if base == ChunkID("docs/b.pdf", 0, "hello") {
		t.Errorf("ChunkID() ignores the source path")
	}
	if base == ChunkID("docs/a.pdf", 1, "hello") {
		t.Errorf("ChunkID() ignores the chunk index")
	}
	if base == ChunkID("docs/a.pdf", 0, "hello!") {
		t.Errorf("ChunkID() ignores the chunk text")
	}
}

func TestRole_String(t *testing.T) {
	tests := []struct {
		role Role
		want string
	}{
		{RoleHuman, "human"},
		{RoleAssistant, "assistant"},
		{Role(0), "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := tt.role.String(); got != tt.want {
				t.Errorf("Role.String() = %v, want %v", got, tt.want)
			}
		})
	}
}
