package reddit

import (
	"fmt"
	"strings"

	"github.com/hpungsan/acrobot/internal/detect"
)

const kindComment = "t1"

type listing struct {
	Data struct {
		After    string `json:"after"`
		Children []struct {
			Kind string  `json:"kind"`
			Data Comment `json:"data"`
		} `json:"children"`
	} `json:"data"`
}

// Comment is the subset of a Reddit comment acrobot reads.
type Comment struct {
	ID        string `json:"id"`
	LinkID    string `json:"link_id"` // "t3_<thread id>"
	Author    string `json:"author"`
	Body      string `json:"body"`
	Permalink string `json:"permalink"`
	Subreddit string `json:"subreddit"`
}

// ThreadID returns the link id without its "t3_" type prefix.
func (c Comment) ThreadID() string {
	return strings.TrimPrefix(c.LinkID, "t3_")
}

// Message converts c into a detector message. baseURL anchors relative permalinks.
func (c Comment) Message(baseURL, topic string) detect.Message {
	link := c.Permalink
	switch {
	case strings.HasPrefix(link, "/"):
		link = baseURL + link
	case link == "":
		link = fmt.Sprintf("%s/r/%s/comments/%s//%s/", baseURL, topic, c.ThreadID(), c.ID)
	}
	return detect.Message{
		ID:        c.ID,
		ThreadID:  c.ThreadID(),
		Author:    c.Author,
		Body:      c.Body,
		Permalink: link,
	}
}
