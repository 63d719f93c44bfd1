package xapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// postJSON is the wire shape of a single post, however it was enveloped.
type postJSON struct {
	ID            string    `json:"id"`
	Text          string    `json:"text"`
	AuthorID      string    `json:"author_id"`
	CreatedAt     time.Time `json:"created_at"`
	PublicMetrics *struct {
		LikeCount    int `json:"like_count"`
		RetweetCount int `json:"retweet_count"`
		ReplyCount   int `json:"reply_count"`
	} `json:"public_metrics"`
}

// userJSON is the wire shape of an expanded author record.
type userJSON struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Username string `json:"username"`
}

// parsePostsEnvelope normalizes the three envelope shapes the API is known to
// return (a bare array, a {data:[...]} wrapper, and a {data:{data:[...]}}
// double wrapper) into a flat post list plus any expanded author records.
// Anything else fails with ErrUpstreamShape instead of being probed further.
func parsePostsEnvelope(raw []byte) ([]postJSON, []userJSON, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return nil, nil, nil
	}

	// Bare array: no envelope at all.
	if trimmed[0] == '[' {
		var posts []postJSON
		if err := json.Unmarshal(trimmed, &posts); err != nil {
			return nil, nil, fmt.Errorf("%w: %v", ErrUpstreamShape, err)
		}
		return posts, nil, nil
	}

	var outer struct {
		Data     json.RawMessage `json:"data"`
		Includes *struct {
			Users []userJSON `json:"users"`
		} `json:"includes"`
	}
	if err := json.Unmarshal(trimmed, &outer); err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrUpstreamShape, err)
	}

	var users []userJSON
	if outer.Includes != nil {
		users = outer.Includes.Users
	}

	data := bytes.TrimSpace(outer.Data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		// A present envelope with no data is a legitimate empty result.
		return nil, users, nil
	}

	// Single wrapper: data is the post array.
	if data[0] == '[' {
		var posts []postJSON
		if err := json.Unmarshal(data, &posts); err != nil {
			return nil, nil, fmt.Errorf("%w: %v", ErrUpstreamShape, err)
		}
		return posts, users, nil
	}

	// Double wrapper: data is itself an enveloped object.
	if data[0] == '{' {
		var inner struct {
			Data     []postJSON `json:"data"`
			Includes *struct {
				Users []userJSON `json:"users"`
			} `json:"includes"`
		}
		if err := json.Unmarshal(data, &inner); err != nil {
			return nil, nil, fmt.Errorf("%w: %v", ErrUpstreamShape, err)
		}
		if inner.Includes != nil && len(users) == 0 {
			users = inner.Includes.Users
		}
		return inner.Data, users, nil
	}

	return nil, nil, ErrUpstreamShape
}
