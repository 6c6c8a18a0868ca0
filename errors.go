// Package meshwire provides a self-contained peer-to-peer mesh node built
// on libp2p, with signed gossip messaging, local peer discovery, Kademlia
// routing, and an actor-style command interface.
package meshwire

import (
	"errors"
	"fmt"

	"github.com/libp2p/go-libp2p/core/peer"
)

// ErrorCode identifies the type of error for programmatic handling.
type ErrorCode int

const (
	// ErrCodeUnknown indicates an unknown or unclassified error.
	ErrCodeUnknown ErrorCode = iota

	// ErrCodeBindFailed indicates the swarm could not bind its listening
	// sockets. This is fatal: a node that cannot listen must not run.
	ErrCodeBindFailed

	// ErrCodeDialFailed indicates a dial attempt failed.
	ErrCodeDialFailed

	// ErrCodePublishFailed indicates a message could not be published.
	ErrCodePublishFailed

	// ErrCodeSubscribeFailed indicates a topic could not be joined.
	ErrCodeSubscribeFailed

	// ErrCodePSKLoadFailed indicates the pre-shared key could not be
	// loaded and the policy forbids running without it.
	ErrCodePSKLoadFailed

	// ErrCodeIdentityFailed indicates the node identity could not be
	// generated or loaded.
	ErrCodeIdentityFailed

	// ErrCodeInvalidTopic indicates a malformed topic name.
	ErrCodeInvalidTopic

	// ErrCodeBufferFull indicates a buffer (event or message) is full.
	ErrCodeBufferFull

	// ErrCodeContextCanceled indicates the operation was cancelled via context.
	ErrCodeContextCanceled

	// ErrCodeInvalidConfig indicates the configuration is invalid.
	ErrCodeInvalidConfig

	// ErrCodeNodeNotStarted indicates the node has not been started.
	ErrCodeNodeNotStarted

	// ErrCodeNodeAlreadyStarted indicates the node is already running.
	ErrCodeNodeAlreadyStarted
)

// String returns a human-readable name for the error code.
func (c ErrorCode) String() string {
	switch c {
	case ErrCodeUnknown:
		return "Unknown"
	case ErrCodeBindFailed:
		return "BindFailed"
	case ErrCodeDialFailed:
		return "DialFailed"
	case ErrCodePublishFailed:
		return "PublishFailed"
	case ErrCodeSubscribeFailed:
		return "SubscribeFailed"
	case ErrCodePSKLoadFailed:
		return "PSKLoadFailed"
	case ErrCodeIdentityFailed:
		return "IdentityFailed"
	case ErrCodeInvalidTopic:
		return "InvalidTopic"
	case ErrCodeBufferFull:
		return "BufferFull"
	case ErrCodeContextCanceled:
		return "ContextCanceled"
	case ErrCodeInvalidConfig:
		return "InvalidConfig"
	case ErrCodeNodeNotStarted:
		return "NodeNotStarted"
	case ErrCodeNodeAlreadyStarted:
		return "NodeAlreadyStarted"
	default:
		return fmt.Sprintf("ErrorCode(%d)", c)
	}
}

// Error represents a Meshwire error with rich context.
// It provides structured information for programmatic error handling.
type Error struct {
	// Code identifies the type of error.
	Code ErrorCode

	// Message is a human-readable description of the error.
	Message string

	// PeerID is the peer associated with the error, if any.
	PeerID peer.ID

	// Topic is the topic associated with the error, if any.
	Topic string

	// Cause is the underlying error, if any.
	Cause error

	// Retriable indicates whether the operation can be retried.
	Retriable bool
}

// Error returns a human-readable error message.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("meshwire: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("meshwire: %s", e.Message)
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error.
// Two Meshwire errors are considered equal if they have the same error code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// IsRetriable returns true if the error indicates a retriable operation.
// This checks if the error is a Meshwire Error with Retriable set to true.
func IsRetriable(err error) bool {
	var mErr *Error
	if errors.As(err, &mErr) {
		return mErr.Retriable
	}
	return false
}

// IsPermanent returns true if the error indicates a permanent failure.
// Permanent failures should not be retried.
func IsPermanent(err error) bool {
	var mErr *Error
	if errors.As(err, &mErr) {
		switch mErr.Code {
		case ErrCodeInvalidConfig, ErrCodeInvalidTopic, ErrCodeBindFailed:
			return true
		}
	}
	return false
}

// NewError creates a new Meshwire Error with the given code and message.
func NewError(code ErrorCode, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
	}
}

// NewErrorWithCause creates a new Meshwire Error with the given code, message, and cause.
func NewErrorWithCause(code ErrorCode, message string, cause error) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// NewPeerError creates a new Meshwire Error associated with a specific peer.
func NewPeerError(code ErrorCode, message string, peerID peer.ID) *Error {
	return &Error{
		Code:    code,
		Message: message,
		PeerID:  peerID,
	}
}

// NewTopicError creates a new Meshwire Error associated with a specific topic.
func NewTopicError(code ErrorCode, message string, topic string) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Topic:   topic,
	}
}

// Sentinel errors for topic validation.
var (
	// ErrInvalidTopic indicates a topic name with forbidden characters.
	ErrInvalidTopic = errors.New("invalid topic name")

	// ErrTopicTooLong indicates a topic name exceeding the length limit.
	ErrTopicTooLong = errors.New("topic name too long")

	// ErrPayloadTooLarge indicates a message payload over the size limit.
	ErrPayloadTooLarge = errors.New("payload too large")
)

// Sentinel errors for configuration.
var (
	// ErrInvalidConfig indicates the configuration is invalid.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrConflictingIdentity indicates both an identity and an identity
	// path were configured.
	ErrConflictingIdentity = errors.New("identity and identity path are mutually exclusive")

	// ErrInvalidPSK indicates a pre-shared key of the wrong size.
	ErrInvalidPSK = errors.New("pre-shared key must be 32 bytes")
)

// Sentinel errors for node operations.
var (
	// ErrNodeNotStarted indicates the node has not been started.
	ErrNodeNotStarted = errors.New("node not started")

	// ErrNodeAlreadyStarted indicates the node is already running.
	ErrNodeAlreadyStarted = errors.New("node already started")

	// ErrNodeStopped indicates the node has been stopped.
	ErrNodeStopped = errors.New("node stopped")
)
