package x

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	botpkg "github.com/flexbet/FlexCodeBot-Go/bot"
)

var testCreds = Credentials{
	APIKey:            "ck",
	APISecret:         "cs",
	AccessToken:       "at",
	AccessTokenSecret: "as",
}

// newServerClient wires a client against a stub API server.
func newServerClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := New(nil, nil, testCreds, srv.URL)
	require.NoError(t, err)
	c.httpClient.RetryMax = 0
	c.minBackoff = time.Millisecond
	c.maxBackoff = time.Millisecond
	return c
}

func meHandler(meCalls *atomic.Int32) func(w http.ResponseWriter) {
	return func(w http.ResponseWriter) {
		if meCalls != nil {
			meCalls.Add(1)
		}
		io.WriteString(w, `{"data":{"id":"42","name":"FlexCode Bot","username":"FlexCodeBot"}}`)
	}
}

func TestNewIncompleteCredentials(t *testing.T) {
	_, err := New(nil, nil, Credentials{APIKey: "only"}, "")
	require.ErrorContains(t, err, "incomplete credentials")
}

func TestGetMentions(t *testing.T) {
	var meCalls atomic.Int32
	var gotQuery string
	mux := http.NewServeMux()
	mux.HandleFunc("/2/users/me", func(w http.ResponseWriter, r *http.Request) {
		meHandler(&meCalls)(w)
	})
	mux.HandleFunc("/2/users/42/mentions", func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		io.WriteString(w, `{
			"data":[
				{"id":"901","text":"@FlexCodeBot Convert ABC123 to SportyBet","author_id":"7","created_at":"2026-08-20T10:30:00.000Z"},
				{"id":"902","text":"@FlexCodeBot hello","author_id":"8","created_at":"2026-08-20T10:31:00.000Z"}
			],
			"includes":{"users":[{"id":"7","username":"alice"},{"id":"8","username":"bob"}]},
			"meta":{"newest_id":"902","result_count":2}
		}`)
	})

	c := newServerClient(t, mux)

	mentions, err := c.GetMentions(context.Background(), "900", 10)
	require.NoError(t, err)
	require.Equal(t, []botpkg.Mention{
		{
			ID:           "901",
			AuthorID:     "7",
			AuthorHandle: "alice",
			Text:         "@FlexCodeBot Convert ABC123 to SportyBet",
			CreatedAt:    time.Date(2026, 8, 20, 10, 30, 0, 0, time.UTC),
		},
		{
			ID:           "902",
			AuthorID:     "8",
			AuthorHandle: "bob",
			Text:         "@FlexCodeBot hello",
			CreatedAt:    time.Date(2026, 8, 20, 10, 31, 0, 0, time.UTC),
		},
	}, mentions)

	require.Contains(t, gotQuery, "since_id=900")
	require.Contains(t, gotQuery, "max_results=10")
	require.Contains(t, gotQuery, "expansions=author_id")

	// The identity lookup is cached after the first call.
	_, err = c.GetMentions(context.Background(), "902", 10)
	require.NoError(t, err)
	require.Equal(t, int32(1), meCalls.Load())
}

func TestGetMentionsClampsLimit(t *testing.T) {
	var gotQuery string
	mux := http.NewServeMux()
	mux.HandleFunc("/2/users/me", func(w http.ResponseWriter, r *http.Request) { meHandler(nil)(w) })
	mux.HandleFunc("/2/users/42/mentions", func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		io.WriteString(w, `{"meta":{"result_count":0}}`)
	})

	c := newServerClient(t, mux)

	mentions, err := c.GetMentions(context.Background(), "", 0)
	require.NoError(t, err)
	require.Empty(t, mentions)
	require.Contains(t, gotQuery, "max_results=5")
	require.NotContains(t, gotQuery, "since_id")
}

func TestReplyToMention(t *testing.T) {
	var gotBody []byte
	mux := http.NewServeMux()
	mux.HandleFunc("/2/users/me", func(w http.ResponseWriter, r *http.Request) { meHandler(nil)(w) })
	mux.HandleFunc("/2/tweets", func(w http.ResponseWriter, r *http.Request) {
		gotBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusCreated)
		io.WriteString(w, `{"data":{"id":"950","text":"ok"}}`)
	})

	c := newServerClient(t, mux)

	mention := botpkg.Mention{ID: "901", AuthorHandle: "alice"}
	require.NoError(t, c.ReplyToMention(context.Background(), mention, "Converted codes: stake ABC123 to sportybet: CONVABC123"))

	var payload struct {
		Text  string `json:"text"`
		Reply struct {
			InReplyToTweetID string `json:"in_reply_to_tweet_id"`
		} `json:"reply"`
	}
	require.NoError(t, json.Unmarshal(gotBody, &payload))
	require.Equal(t, "@alice Converted codes: stake ABC123 to sportybet: CONVABC123", payload.Text)
	require.Equal(t, "901", payload.Reply.InReplyToTweetID)
}

func TestReplyToMentionTruncates(t *testing.T) {
	var gotBody []byte
	mux := http.NewServeMux()
	mux.HandleFunc("/2/tweets", func(w http.ResponseWriter, r *http.Request) {
		gotBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusCreated)
		io.WriteString(w, `{"data":{"id":"951"}}`)
	})

	c := newServerClient(t, mux)

	long := strings.Repeat("x", 400)
	require.NoError(t, c.ReplyToMention(context.Background(), botpkg.Mention{ID: "901", AuthorHandle: "alice"}, long))

	var payload struct {
		Text string `json:"text"`
	}
	require.NoError(t, json.Unmarshal(gotBody, &payload))
	require.Len(t, payload.Text, 280)
	require.True(t, strings.HasSuffix(payload.Text, "..."))
	require.True(t, strings.HasPrefix(payload.Text, "@alice "))
}

func TestGetDirectMessages(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/2/users/me", func(w http.ResponseWriter, r *http.Request) { meHandler(nil)(w) })
	mux.HandleFunc("/2/dm_events", func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{
			"data":[
				{"id":"601","event_type":"MessageCreate","text":"Convert ABC123 to SportyBet","sender_id":"7","created_at":"2026-08-20T11:00:00.000Z"},
				{"id":"602","event_type":"MessageCreate","text":"Converted codes: ...","sender_id":"42","created_at":"2026-08-20T11:01:00.000Z"},
				{"id":"603","event_type":"ParticipantsJoin","text":"","sender_id":"9","created_at":"2026-08-20T11:02:00.000Z"}
			]
		}`)
	})

	c := newServerClient(t, mux)

	dms, err := c.GetDirectMessages(context.Background(), 50)
	require.NoError(t, err)
	// Event 602 is the bot's own outbound message, 603 is not a message.
	require.Equal(t, []botpkg.DirectMessage{
		{
			ID:        "601",
			SenderID:  "7",
			Text:      "Convert ABC123 to SportyBet",
			CreatedAt: time.Date(2026, 8, 20, 11, 0, 0, 0, time.UTC),
		},
	}, dms)
}

func TestSendDirectMessage(t *testing.T) {
	var gotPath string
	var gotBody []byte
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusCreated)
		io.WriteString(w, `{"data":{"dm_conversation_id":"42-77","dm_event_id":"700"}}`)
	})

	c := newServerClient(t, mux)

	require.NoError(t, c.SendDirectMessage(context.Background(), "77", "Please specify the original and target platforms for code(s): ABC123"))
	require.Equal(t, "/2/dm_conversations/with/77/messages", gotPath)

	var payload map[string]string
	require.NoError(t, json.Unmarshal(gotBody, &payload))
	require.Equal(t, "Please specify the original and target platforms for code(s): ABC123", payload["text"])
}

func TestValidateCredentials(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/2/users/me", func(w http.ResponseWriter, r *http.Request) { meHandler(nil)(w) })

	c := newServerClient(t, mux)
	require.NoError(t, c.ValidateCredentials(context.Background()))
}

func TestValidateCredentialsRejected(t *testing.T) {
	c := newServerClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"title":"Unauthorized"}`, http.StatusUnauthorized)
	}))

	err := c.ValidateCredentials(context.Background())
	require.ErrorContains(t, err, "credential validation failed")
	require.ErrorContains(t, err, "401")
}

func TestName(t *testing.T) {
	c, err := New(nil, nil, testCreds, "")
	require.NoError(t, err)
	require.Equal(t, "x", c.Name())
}
