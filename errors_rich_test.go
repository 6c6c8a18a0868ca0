package meshwire

import (
	"errors"
	"testing"

	"github.com/libp2p/go-libp2p/core/peer"
)

func TestErrorCode_String(t *testing.T) {
	tests := []struct {
		code ErrorCode
		want string
	}{
		{ErrCodeUnknown, "Unknown"},
		{ErrCodeBindFailed, "BindFailed"},
		{ErrCodeDialFailed, "DialFailed"},
		{ErrCodePublishFailed, "PublishFailed"},
		{ErrCodeSubscribeFailed, "SubscribeFailed"},
		{ErrCodePSKLoadFailed, "PSKLoadFailed"},
		{ErrCodeIdentityFailed, "IdentityFailed"},
		{ErrCodeInvalidTopic, "InvalidTopic"},
		{ErrCodeBufferFull, "BufferFull"},
		{ErrCodeContextCanceled, "ContextCanceled"},
		{ErrCodeInvalidConfig, "InvalidConfig"},
		{ErrCodeNodeNotStarted, "NodeNotStarted"},
		{ErrCodeNodeAlreadyStarted, "NodeAlreadyStarted"},
		{ErrorCode(999), "ErrorCode(999)"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := tt.code.String(); got != tt.want {
				t.Errorf("ErrorCode.String() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestError_Error(t *testing.T) {
	t.Run("without cause", func(t *testing.T) {
		err := &Error{
			Code:    ErrCodeDialFailed,
			Message: "connection refused",
		}
		want := "meshwire: connection refused"
		if got := err.Error(); got != want {
			t.Errorf("Error.Error() = %v, want %v", got, want)
		}
	})

	t.Run("with cause", func(t *testing.T) {
		cause := errors.New("dial timeout")
		err := &Error{
			Code:    ErrCodeDialFailed,
			Message: "connection refused",
			Cause:   cause,
		}
		want := "meshwire: connection refused: dial timeout"
		if got := err.Error(); got != want {
			t.Errorf("Error.Error() = %v, want %v", got, want)
		}
	})
}

func TestError_Unwrap(t *testing.T) {
	t.Run("with cause", func(t *testing.T) {
		cause := errors.New("underlying error")
		err := &Error{
			Code:    ErrCodeUnknown,
			Message: "wrapper",
			Cause:   cause,
		}
		if unwrapped := err.Unwrap(); unwrapped != cause {
			t.Errorf("Error.Unwrap() = %v, want %v", unwrapped, cause)
		}
	})

	t.Run("without cause", func(t *testing.T) {
		err := &Error{
			Code:    ErrCodeUnknown,
			Message: "no cause",
		}
		if unwrapped := err.Unwrap(); unwrapped != nil {
			t.Errorf("Error.Unwrap() = %v, want nil", unwrapped)
		}
	})

	t.Run("errors.Is finds cause", func(t *testing.T) {
		cause := errors.New("root cause")
		err := NewErrorWithCause(ErrCodePSKLoadFailed, "loading key", cause)
		if !errors.Is(err, cause) {
			t.Error("errors.Is should find the wrapped cause")
		}
	})
}

func TestError_Is_MatchesByCode(t *testing.T) {
	err1 := NewError(ErrCodeDialFailed, "first dial")
	err2 := NewError(ErrCodeDialFailed, "second dial")
	err3 := NewError(ErrCodeBindFailed, "bind")

	if !errors.Is(err1, err2) {
		t.Error("errors with the same code should match")
	}
	if errors.Is(err1, err3) {
		t.Error("errors with different codes should not match")
	}
	if errors.Is(err1, errors.New("plain")) {
		t.Error("rich error should not match a plain error")
	}
}

func TestError_As(t *testing.T) {
	cause := errors.New("socket closed")
	var err error = NewErrorWithCause(ErrCodeBindFailed, "binding swarm", cause)

	var mErr *Error
	if !errors.As(err, &mErr) {
		t.Fatal("errors.As should extract *Error")
	}
	if mErr.Code != ErrCodeBindFailed {
		t.Errorf("Code = %v, want ErrCodeBindFailed", mErr.Code)
	}
	if mErr.Cause != cause {
		t.Errorf("Cause = %v, want %v", mErr.Cause, cause)
	}
}

func TestIsRetriable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"retriable error", &Error{Code: ErrCodeDialFailed, Retriable: true}, true},
		{"non-retriable error", &Error{Code: ErrCodeDialFailed, Retriable: false}, false},
		{"plain error", errors.New("plain"), false},
		{"nil error", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsRetriable(tt.err); got != tt.want {
				t.Errorf("IsRetriable() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIsPermanent(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"invalid config", NewError(ErrCodeInvalidConfig, "bad config"), true},
		{"invalid topic", NewError(ErrCodeInvalidTopic, "bad topic"), true},
		{"bind failed", NewError(ErrCodeBindFailed, "bind"), true},
		{"dial failed", NewError(ErrCodeDialFailed, "dial"), false},
		{"plain error", errors.New("plain"), false},
		{"nil error", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsPermanent(tt.err); got != tt.want {
				t.Errorf("IsPermanent() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestErrorConstructors(t *testing.T) {
	t.Run("NewError", func(t *testing.T) {
		err := NewError(ErrCodePublishFailed, "publish")
		if err.Code != ErrCodePublishFailed || err.Message != "publish" {
			t.Errorf("unexpected error: %+v", err)
		}
	})

	t.Run("NewPeerError", func(t *testing.T) {
		pid := peer.ID("test-peer")
		err := NewPeerError(ErrCodeDialFailed, "dial", pid)
		if err.PeerID != pid {
			t.Errorf("PeerID = %v, want %v", err.PeerID, pid)
		}
	})

	t.Run("NewTopicError", func(t *testing.T) {
		err := NewTopicError(ErrCodeInvalidTopic, "bad name", "my-topic")
		if err.Topic != "my-topic" {
			t.Errorf("Topic = %v, want my-topic", err.Topic)
		}
	})
}
