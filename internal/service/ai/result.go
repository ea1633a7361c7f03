package ai

import (
	"errors"
	"fmt"

	"github.com/sylvieyl/heartlog/backend/internal/analysis/emotion"
)

// Source records where a gateway result came from, for the caller's banner
// logic. Remote failures are never surfaced as errors; they only change the
// source tag on the locally computed value.
type Source string

const (
	SourceRemote              Source = "remote"
	SourceLocalUnconfigured   Source = "local_unconfigured"
	SourceLocalGenericFailure Source = "local_generic_failure"
	SourceLocalQuotaExceeded  Source = "local_quota_exceeded"
)

// Remote reports whether the value came from the remote model verbatim.
func (s Source) Remote() bool {
	return s == SourceRemote
}

// FailureKind discriminates remote failure classes. Quota exhaustion gets
// its own kind because the UI shows a different banner for it.
type FailureKind int

const (
	FailureGeneric FailureKind = iota
	FailureQuotaExceeded
)

// RemoteError is the typed failure the remote client wrapper returns. The
// gateway switches on Kind only, never on message text.
type RemoteError struct {
	Kind FailureKind
	Err  error
}

func (e *RemoteError) Error() string {
	if e.Kind == FailureQuotaExceeded {
		return fmt.Sprintf("remote quota exceeded: %v", e.Err)
	}
	return fmt.Sprintf("remote failure: %v", e.Err)
}

func (e *RemoteError) Unwrap() error {
	return e.Err
}

// failureSource maps a remote error to the source tag of the local result.
func failureSource(err error) Source {
	var remoteErr *RemoteError
	if errors.As(err, &remoteErr) && remoteErr.Kind == FailureQuotaExceeded {
		return SourceLocalQuotaExceeded
	}
	return SourceLocalGenericFailure
}

// EmotionResult carries a classified emotion plus its provenance.
type EmotionResult struct {
	Emotion emotion.Emotion `json:"emotion"`
	Source  Source          `json:"source"`
}

// ReplyResult carries a companion reply plus its provenance.
type ReplyResult struct {
	Text   string `json:"text"`
	Source Source `json:"source"`
}

// DiaryResult carries a synthesized diary narrative plus its provenance.
type DiaryResult struct {
	Text   string `json:"text"`
	Source Source `json:"source"`
}
