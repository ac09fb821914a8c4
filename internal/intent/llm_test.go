package intent

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uicourseai/courseai-backend/internal/model"
)

// completionServer returns an httptest server that answers every
// chat-completions call with the given message content.
func completionServer(t *testing.T, content string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var req chatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Len(t, req.Messages, 2)

		resp := map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"content": content}},
			},
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}))
}

func newTestLLMParser(baseURL string) *LLMParser {
	return NewLLMParser(LLMConfig{
		BaseURL: baseURL,
		Model:   "test-model",
		APIKey:  "test-key",
		Timeout: time.Second,
	}, zerolog.Nop())
}

func TestLLMParserParsesIntent(t *testing.T) {
	srv := completionServer(t, `{"polarity":"hard","subject":"cs","class_num":"580","keywords":["ML","ml"],"recent":true,"level":null,"instructor_like":" Yu ","explain":false,"details":false}`)
	defer srv.Close()

	it, err := newTestLLMParser(srv.URL).Parse(context.Background(), "hard cs 580 recent")
	require.NoError(t, err)

	assert.Equal(t, model.PolarityHard, it.Polarity)
	require.NotNil(t, it.Subject)
	assert.Equal(t, "CS", *it.Subject, "subject is normalized to uppercase")
	require.NotNil(t, it.ClassNum)
	assert.Equal(t, "580", *it.ClassNum)
	assert.Equal(t, []string{"ml"}, it.Keywords, "keywords are lowercased and deduped")
	assert.True(t, it.Recent)
	assert.Nil(t, it.Level)
	require.NotNil(t, it.InstructorLike)
	assert.Equal(t, "yu", *it.InstructorLike)
}

func TestLLMParserHandlesMarkdownWrappedJSON(t *testing.T) {
	srv := completionServer(t, "```json\n{\"polarity\":\"easy\",\"subject\":null,\"class_num\":null,\"keywords\":[],\"recent\":false,\"level\":500,\"instructor_like\":null,\"explain\":true,\"details\":false}\n```")
	defer srv.Close()

	it, err := newTestLLMParser(srv.URL).Parse(context.Background(), "why are 500-level classes easy")
	require.NoError(t, err)

	require.NotNil(t, it.Level)
	assert.Equal(t, 500, *it.Level)
	assert.True(t, it.Explain)
}

func TestLLMParserHandlesNumericClassNum(t *testing.T) {
	srv := completionServer(t, `{"polarity":"easy","subject":"CS","class_num":580,"keywords":[],"recent":false,"level":null,"instructor_like":null,"explain":false,"details":false}`)
	defer srv.Close()

	it, err := newTestLLMParser(srv.URL).Parse(context.Background(), "easy cs 580")
	require.NoError(t, err)
	require.NotNil(t, it.ClassNum)
	assert.Equal(t, "580", *it.ClassNum)
}

func TestLLMParserRejectsInvalidPolarity(t *testing.T) {
	srv := completionServer(t, `{"polarity":"medium","subject":null,"class_num":null,"keywords":[],"recent":false,"level":null,"instructor_like":null,"explain":false,"details":false}`)
	defer srv.Close()

	_, err := newTestLLMParser(srv.URL).Parse(context.Background(), "medium classes")
	assert.Error(t, err)
}

func TestLLMParserRejectsNonJSONCompletion(t *testing.T) {
	srv := completionServer(t, "I think you want easy CS courses!")
	defer srv.Close()

	_, err := newTestLLMParser(srv.URL).Parse(context.Background(), "easy cs")
	assert.Error(t, err)
}

func TestLLMParserProviderError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	_, err := newTestLLMParser(srv.URL).Parse(context.Background(), "easy cs")
	assert.Error(t, err)
}

func TestLLMParserTimesOut(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(300 * time.Millisecond)
	}))
	defer srv.Close()

	p := NewLLMParser(LLMConfig{
		BaseURL: srv.URL,
		Model:   "test-model",
		Timeout: 50 * time.Millisecond,
	}, zerolog.Nop())

	_, err := p.Parse(context.Background(), "easy cs")
	assert.Error(t, err)
}

// stubParser lets resolver tests script each strategy's behavior.
type stubParser struct {
	intent model.Intent
	err    error
}

func (s *stubParser) Parse(context.Context, string) (model.Intent, error) {
	return s.intent, s.err
}

func TestResolverPrefersRemote(t *testing.T) {
	subject := "CS"
	remote := &stubParser{intent: model.Intent{Polarity: model.PolarityHard, Subject: &subject}}
	local := &stubParser{intent: model.NewIntent()}

	it, usedLLM := NewResolver(local, remote, zerolog.Nop()).Resolve(context.Background(), "hard cs", true)
	assert.True(t, usedLLM)
	assert.Equal(t, model.PolarityHard, it.Polarity)
}

func TestResolverFallsBackOnRemoteFailure(t *testing.T) {
	remote := &stubParser{err: errors.New("timeout")}
	local := &stubParser{intent: model.NewIntent()}

	it, usedLLM := NewResolver(local, remote, zerolog.Nop()).Resolve(context.Background(), "easy cs", true)
	assert.False(t, usedLLM)
	assert.Equal(t, model.PolarityEasy, it.Polarity)
}

func TestResolverSkipsRemoteWhenNotAllowed(t *testing.T) {
	remote := &stubParser{intent: model.Intent{Polarity: model.PolarityHard}}
	local := &stubParser{intent: model.NewIntent()}

	_, usedLLM := NewResolver(local, remote, zerolog.Nop()).Resolve(context.Background(), "easy cs", false)
	assert.False(t, usedLLM)
}

func TestResolverWithoutRemoteParser(t *testing.T) {
	local := &stubParser{intent: model.NewIntent()}

	_, usedLLM := NewResolver(local, nil, zerolog.Nop()).Resolve(context.Background(), "easy cs", true)
	assert.False(t, usedLLM)
}
