// Package detect finds acronyms in a batch of messages.
//
// Two scans are provided. Candidates surfaces every short uppercase token regardless of
// the vocabulary, for a human to review. Known matches each message against a compiled
// pattern index and reports one Detection per (message, acronym).
package detect

import (
	"context"
	"io"
)

// Message is one unit of text from the source, e.g. a comment.
type Message struct {
	ID        string `json:"id"`
	ThreadID  string `json:"thread_id"`
	Author    string `json:"author"`
	Body      string `json:"body"`
	Permalink string `json:"permalink,omitempty"`
}

// Stream yields messages newest first. Next returns io.EOF once the batch is exhausted.
// A Stream is single-pass.
type Stream interface {
	Next(ctx context.Context) (Message, error)
}

// SliceStream serves a fixed batch of messages.
type SliceStream struct {
	msgs []Message
	pos  int
}

// NewSliceStream returns a Stream over msgs.
func NewSliceStream(msgs ...Message) *SliceStream {
	return &SliceStream{msgs: msgs}
}

// Next implements Stream.
func (s *SliceStream) Next(ctx context.Context) (Message, error) {
	if err := ctx.Err(); err != nil {
		return Message{}, err
	}
	if s.pos >= len(s.msgs) {
		return Message{}, io.EOF
	}
	m := s.msgs[s.pos]
	s.pos++
	return m, nil
}
