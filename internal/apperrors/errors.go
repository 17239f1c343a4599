package apperrors

import (
	"errors"
	"fmt"
)

// Sentinel errors classify pipeline failures by the stage that produced
// them. Callers match with errors.Is and decide the user-facing message.
var (
	ErrEmbedding     = errors.New("embedding failed")
	ErrRetrieval     = errors.New("retrieval failed")
	ErrCompletion    = errors.New("completion failed")
	ErrTranscription = errors.New("transcription failed")
	ErrSynthesis     = errors.New("speech synthesis failed")
	ErrNotFound      = errors.New("not found")
	ErrStorage       = errors.New("storage failure")
)

// Wrap tags err with a sentinel kind while preserving the cause chain.
func Wrap(kind, err error) error {
	return fmt.Errorf("%w: %w", kind, err)
}

// Wrapf tags a formatted message with a sentinel kind.
func Wrapf(kind error, format string, args ...interface{}) error {
	return fmt.Errorf("%w: "+format, append([]interface{}{kind}, args...)...)
}
