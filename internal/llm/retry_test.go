package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var quizJSON = json.RawMessage(`{"question":"「食べる」の読み方は？","options":["たべる","のべる","しらべる","くらべる"],"correct_option_id":0,"explanation":"食 is read た here."}`)

func fastRetry(attempts int) RetryConfig {
	return RetryConfig{
		MaxAttempts: attempts,
		InitialWait: time.Millisecond,
		MaxWait:     5 * time.Millisecond,
		Multiplier:  2,
	}
}

func down() MockResponse {
	return MockResponse{Err: &ErrProviderUnavailable{Err: errors.New("connection reset")}}
}

func TestRetry(t *testing.T) {
	cases := []struct {
		name      string
		attempts  int
		responses []MockResponse
		wantCalls int
		wantErr   bool
	}{
		{"first attempt wins", 3, []MockResponse{{Content: quizJSON}}, 1, false},
		{"recovers after outage", 3, []MockResponse{down(), {Content: quizJSON}}, 2, false},
		{"gives up after max attempts", 3, []MockResponse{down(), down(), down(), {Content: quizJSON}}, 3, true},
		{"single attempt", 1, []MockResponse{down(), {Content: quizJSON}}, 1, true},
		{"zero attempts means one", 0, []MockResponse{down(), {Content: quizJSON}}, 1, true},
		{"rate limit honors retry after", 3, []MockResponse{
			{Err: &ErrRateLimit{RetryAfter: time.Millisecond, Err: errors.New("429")}},
			{Content: quizJSON},
		}, 2, false},
		{"invalid answer retried once", 4, []MockResponse{
			{Err: &ErrInvalidResponse{Err: errors.New("not json")}},
			{Err: &ErrInvalidResponse{Err: errors.New("not json")}},
			{Content: quizJSON},
		}, 2, true},
		{"token budget is final", 3, []MockResponse{
			{Err: &ErrMaxTokensExceeded{Content: json.RawMessage(`{"question":"`)}},
			{Content: quizJSON},
		}, 1, true},
		{"rejected key is final", 3, []MockResponse{
			{Err: &ErrAuth{Status: 401, Err: errors.New("bad key")}},
			{Content: quizJSON},
		}, 1, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			mock := NewMockProvider(tc.responses...)
			resp, err := WithRetry(mock, fastRetry(tc.attempts)).Generate(context.Background(), Request{})

			assert.Equal(t, tc.wantCalls, mock.CallCount())
			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.JSONEq(t, string(quizJSON), string(resp.Content))
		})
	}
}

func TestRetry_StopsOnCancelledContext(t *testing.T) {
	mock := NewMockProvider(down(), down(), MockResponse{Content: quizJSON})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := WithRetry(mock, fastRetry(3)).Generate(ctx, Request{})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, mock.CallCount())
}

func TestRetry_ModelIDDelegates(t *testing.T) {
	assert.Equal(t, "mock", WithRetry(NewMockProvider(), fastRetry(2)).ModelID())
}

func TestRetry_BackoffCapped(t *testing.T) {
	r := &RetryProvider{config: RetryConfig{InitialWait: 10 * time.Millisecond, MaxWait: 40 * time.Millisecond, Multiplier: 2}}
	for attempt := range 6 {
		wait := r.backoff(attempt, errors.New("x"))
		assert.LessOrEqual(t, wait, 48*time.Millisecond, "attempt %d", attempt)
		assert.GreaterOrEqual(t, wait, time.Duration(0))
	}
	assert.Equal(t, time.Second, r.backoff(0, &ErrRateLimit{RetryAfter: time.Second}))
}

func TestIsTransient(t *testing.T) {
	cases := []struct {
		err  error
		want bool
	}{
		{nil, false},
		{context.Canceled, false},
		{fmt.Errorf("wrapped: %w", context.DeadlineExceeded), false},
		{&ErrProviderUnavailable{Err: context.Canceled}, false},
		{&ErrAuth{Status: 403}, false},
		{&ErrMaxTokensExceeded{}, false},
		{&ErrRateLimit{}, true},
		{&ErrProviderUnavailable{}, true},
		{&ErrInvalidResponse{Err: errors.New("bad")}, true},
		{errors.New("dial tcp: timeout"), true},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, IsTransient(tc.err), "%v", tc.err)
	}
}

func TestClassifyStatus(t *testing.T) {
	base := errors.New("boom")

	var rl *ErrRateLimit
	assert.ErrorAs(t, classifyStatus(429, base), &rl)

	var auth *ErrAuth
	require.ErrorAs(t, classifyStatus(401, base), &auth)
	assert.Equal(t, 401, auth.Status)
	assert.ErrorAs(t, classifyStatus(403, base), &auth)

	var unavail *ErrProviderUnavailable
	assert.ErrorAs(t, classifyStatus(503, base), &unavail)
	assert.ErrorAs(t, classifyStatus(0, base), &unavail)
	assert.ErrorIs(t, classifyStatus(500, base), base)
}
