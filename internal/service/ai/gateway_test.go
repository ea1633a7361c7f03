package ai

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"testing"

	"github.com/sylvieyl/heartlog/backend/internal/analysis/emotion"
	"github.com/sylvieyl/heartlog/backend/internal/companion"
)

type stubRemote struct {
	calls   int
	payload string
	err     error
}

func (s *stubRemote) Complete(_ context.Context, _ Request) (string, error) {
	s.calls++
	if s.err != nil {
		return "", s.err
	}
	return s.payload, nil
}

func newTestGateway(remote RemoteClient) *Gateway {
	engine := companion.NewEngine(rand.NewSource(1))
	return NewGateway(remote, engine, companion.DefaultProfile())
}

func TestGatewayUnconfiguredUsesLocalSilently(t *testing.T) {
	gw := newTestGateway(nil)
	ctx := context.Background()

	emotionRes := gw.AnalyzeEmotion(ctx, "I feel happy today")
	if emotionRes.Source != SourceLocalUnconfigured {
		t.Fatalf("unexpected emotion source: %s", emotionRes.Source)
	}
	if !emotion.Valid(emotionRes.Emotion.Primary) {
		t.Fatalf("invalid emotion label %s", emotionRes.Emotion.Primary)
	}

	replyRes := gw.GenerateReply(ctx, "I feel happy today", nil)
	if replyRes.Source != SourceLocalUnconfigured || replyRes.Text == "" {
		t.Fatalf("unexpected reply result: %+v", replyRes)
	}

	diaryRes := gw.ComposeDiary(ctx, nil)
	if diaryRes.Source != SourceLocalUnconfigured || diaryRes.Text == "" {
		t.Fatalf("unexpected diary result: %+v", diaryRes)
	}
}

func TestGatewayRemoteSuccessReturnsPayloadVerbatim(t *testing.T) {
	remote := &stubRemote{payload: "It sounds like today held a lot for you."}
	gw := newTestGateway(remote)

	res := gw.GenerateReply(context.Background(), "long day", nil)
	if res.Source != SourceRemote {
		t.Fatalf("expected remote source, got %s", res.Source)
	}
	if res.Text != remote.payload {
		t.Fatalf("payload not returned verbatim: %q", res.Text)
	}
	if remote.calls != 1 {
		t.Fatalf("expected exactly one remote call, got %d", remote.calls)
	}
}

func TestGatewayQuotaFailureTagsLocalResult(t *testing.T) {
	remote := &stubRemote{err: &RemoteError{Kind: FailureQuotaExceeded, Err: errors.New("allowance consumed")}}
	gw := newTestGateway(remote)
	ctx := context.Background()

	emotionRes := gw.AnalyzeEmotion(ctx, "I'm worried about tomorrow")
	if emotionRes.Source != SourceLocalQuotaExceeded {
		t.Fatalf("expected quota source, got %s", emotionRes.Source)
	}
	if emotionRes.Emotion.Intensity < 0 || emotionRes.Emotion.Intensity > 1 {
		t.Fatalf("fallback emotion intensity out of range: %f", emotionRes.Emotion.Intensity)
	}

	replyRes := gw.GenerateReply(ctx, "I'm worried about tomorrow", nil)
	if replyRes.Source != SourceLocalQuotaExceeded || replyRes.Text == "" {
		t.Fatalf("unexpected reply result: %+v", replyRes)
	}

	diaryRes := gw.ComposeDiary(ctx, nil)
	if diaryRes.Source != SourceLocalQuotaExceeded || diaryRes.Text == "" {
		t.Fatalf("unexpected diary result: %+v", diaryRes)
	}
	if remote.calls != 3 {
		t.Fatalf("expected one remote attempt per operation, got %d", remote.calls)
	}
}

func TestGatewayGenericFailureTagsLocalResult(t *testing.T) {
	remote := &stubRemote{err: &RemoteError{Kind: FailureGeneric, Err: errors.New("connection refused")}}
	gw := newTestGateway(remote)

	res := gw.GenerateReply(context.Background(), "hello", nil)
	if res.Source != SourceLocalGenericFailure || res.Text == "" {
		t.Fatalf("unexpected result: %+v", res)
	}
}

func TestGatewayWrappedQuotaErrorStillClassified(t *testing.T) {
	wrapped := fmt.Errorf("invoke chain: %w", &RemoteError{Kind: FailureQuotaExceeded, Err: errors.New("429")})
	remote := &stubRemote{err: wrapped}
	gw := newTestGateway(remote)

	res := gw.GenerateReply(context.Background(), "hello", nil)
	if res.Source != SourceLocalQuotaExceeded {
		t.Fatalf("expected quota source for wrapped error, got %s", res.Source)
	}
}

func TestGatewayRemoteEmotionParsed(t *testing.T) {
	remote := &stubRemote{payload: "```json\n{\"primary\": \"joy\", \"intensity\": 0.8}\n```"}
	gw := newTestGateway(remote)

	res := gw.AnalyzeEmotion(context.Background(), "what a day")
	if res.Source != SourceRemote {
		t.Fatalf("expected remote source, got %s", res.Source)
	}
	if res.Emotion.Primary != emotion.Joy {
		t.Fatalf("expected joy, got %s", res.Emotion.Primary)
	}
	if res.Emotion.Intensity != 0.8 {
		t.Fatalf("expected intensity 0.8, got %f", res.Emotion.Intensity)
	}
	if res.Emotion.Color == "" || res.Emotion.Emoji == "" {
		t.Fatal("display metadata missing on remote emotion")
	}
}

func TestGatewayUnparseableEmotionFallsBack(t *testing.T) {
	remote := &stubRemote{payload: "I think the user is feeling pretty good!"}
	gw := newTestGateway(remote)

	res := gw.AnalyzeEmotion(context.Background(), "so happy today")
	if res.Source != SourceLocalGenericFailure {
		t.Fatalf("expected generic-failure source for unparseable payload, got %s", res.Source)
	}
	if res.Emotion.Primary != emotion.Joy {
		t.Fatalf("expected local classifier to run, got %s", res.Emotion.Primary)
	}
}

func TestGatewayUnknownLabelFallsBack(t *testing.T) {
	remote := &stubRemote{payload: `{"primary": "euphoria", "intensity": 0.9}`}
	gw := newTestGateway(remote)

	res := gw.AnalyzeEmotion(context.Background(), "")
	if res.Source != SourceLocalGenericFailure {
		t.Fatalf("expected fallback for unlisted label, got %s", res.Source)
	}
	if res.Emotion.Primary != emotion.Default {
		t.Fatalf("expected default emotion for empty text, got %s", res.Emotion.Primary)
	}
}

func TestClassifyRemoteErrorMarkers(t *testing.T) {
	quota := classifyRemoteError(errors.New("api error: quota exceeded for model"))
	if quota.Kind != FailureQuotaExceeded {
		t.Fatalf("expected quota kind, got %d", quota.Kind)
	}

	generic := classifyRemoteError(errors.New("dial tcp: connection refused"))
	if generic.Kind != FailureGeneric {
		t.Fatalf("expected generic kind, got %d", generic.Kind)
	}
}
