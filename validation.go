package meshwire

import (
	"fmt"
	"unicode"
)

// ValidateTopic checks if the topic name is valid.
// Topic names must:
//   - Be non-empty
//   - Contain only alphanumeric characters, hyphens, underscores,
//     dots, and forward slashes
//   - Not exceed the maximum length (if maxLength > 0)
//
// Returns nil if valid, or an error describing the validation failure.
func ValidateTopic(name string, maxLength int) error {
	if name == "" {
		return fmt.Errorf("%w: topic name cannot be empty", ErrInvalidTopic)
	}

	if maxLength > 0 && len(name) > maxLength {
		return fmt.Errorf("%w: %d characters exceeds maximum of %d",
			ErrTopicTooLong, len(name), maxLength)
	}

	for i, r := range name {
		if !isValidTopicChar(r) {
			return fmt.Errorf("%w: invalid character %q at position %d (only alphanumeric, hyphen, underscore, dot, and slash allowed)",
				ErrInvalidTopic, r, i)
		}
	}

	return nil
}

// isValidTopicChar returns true if the rune is valid in a topic name.
// Valid characters are: a-z, A-Z, 0-9, hyphen (-), underscore (_),
// dot (.), slash (/)
func isValidTopicChar(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-' || r == '_' || r == '.' || r == '/'
}

// ValidateTopics validates a slice of topic names.
// Returns an error if any name is invalid.
func ValidateTopics(names []string, maxLength int) error {
	for _, name := range names {
		if err := ValidateTopic(name, maxLength); err != nil {
			return err
		}
	}
	return nil
}

// ValidatePayloadSize checks if a message payload is within limits.
// Returns nil if valid, or ErrPayloadTooLarge if the payload exceeds
// maxSize. A maxSize of zero or less disables the check.
func ValidatePayloadSize(data []byte, maxSize int) error {
	if maxSize <= 0 {
		return nil
	}
	if len(data) > maxSize {
		return fmt.Errorf("%w: %d bytes exceeds maximum of %d bytes",
			ErrPayloadTooLarge, len(data), maxSize)
	}
	return nil
}
