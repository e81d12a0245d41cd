package chain

import (
	"fmt"
	"iter"
	"strings"

	"github.com/poiesic/ragbase/core"
)

// EventKind identifies the payload of an Event.
type EventKind int

const (
	// EventRetrievedContext carries the chunks the answer is grounded on.
	EventRetrievedContext EventKind = iota + 1
	// EventAnswerToken carries the next fragment of the answer.
	EventAnswerToken
)

func (k EventKind) String() string {
	switch k {
	case EventRetrievedContext:
		return "retrieved_context"
	case EventAnswerToken:
		return "answer_token"
	default:
		return fmt.Sprintf("EventKind(%d)", int(k))
	}
}

// Event is one element of an answer stream.
type Event struct {
	Kind EventKind

	// Chunks is set for EventRetrievedContext, most relevant first.
	Chunks []*core.ScoredChunk

	// Token is set for EventAnswerToken.
	Token string
}

// State is a step of answering one question.
type State int

const (
	StateStart State = iota
	StateRetrieving
	StatePrompting
	StateGenerating
	StateDone
)

var stateNames = [...]string{"start", "retrieving", "prompting", "generating", "done"}

func (s State) String() string {
	if s >= 0 && int(s) < len(stateNames) {
		return stateNames[s]
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Answer is a fully consumed answer stream.
type Answer struct {
	Text    string
	Sources []*core.ScoredChunk
}

// Collect consumes an answer stream and returns the full answer.
func Collect(events iter.Seq2[Event, error]) (*Answer, error) {
	answer := &Answer{}
	var text strings.Builder
	for event, err := range events {
		if err != nil {
			return nil, err
		}
		switch event.Kind {
		case EventRetrievedContext:
			answer.Sources = event.Chunks
		case EventAnswerToken:
			text.WriteString(event.Token)
		}
	}
	answer.Text = text.String()
	return answer, nil
}
