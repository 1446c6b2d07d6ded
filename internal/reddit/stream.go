package reddit

import (
	"context"
	"io"

	"github.com/hpungsan/acrobot/internal/config"
	"github.com/hpungsan/acrobot/internal/detect"
)

// CommentStream pages lazily through a subreddit's newest comments. It implements
// detect.Stream and yields at most limit messages.
type CommentStream struct {
	client    *Client
	topic     string
	remaining int
	after     string
	buf       []Comment
	exhausted bool
}

var _ detect.Stream = (*CommentStream)(nil)

// Comments returns a stream over the newest limit comments of topic.
// No request is made until the first Next.
func (c *Client) Comments(topic string, limit int) *CommentStream {
	return &CommentStream{client: c, topic: topic, remaining: limit}
}

// Next implements detect.Stream.
func (s *CommentStream) Next(ctx context.Context) (detect.Message, error) {
	if err := ctx.Err(); err != nil {
		return detect.Message{}, err
	}
	if s.remaining <= 0 {
		return detect.Message{}, io.EOF
	}

	for len(s.buf) == 0 {
		if s.exhausted {
			return detect.Message{}, io.EOF
		}
		page, err := s.client.Listing(ctx, s.topic, s.after, min(s.remaining, MaxPageSize))
		if err != nil {
			return detect.Message{}, err
		}
		s.buf = page.Comments
		s.after = page.After
		if page.After == "" || len(page.Comments) == 0 {
			s.exhausted = true
		}
	}

	c := s.buf[0]
	s.buf = s.buf[1:]
	s.remaining--
	return c.Message(s.client.baseURL, s.topic), nil
}

// Source returns an opener for comment streams. Every stream it opens shares one
// client, so the rate limit holds across streams.
func Source(cfg *config.Config) func(topic string, limit int) detect.Stream {
	c := NewFromConfig(cfg)
	return func(topic string, limit int) detect.Stream {
		return c.Comments(topic, limit)
	}
}
