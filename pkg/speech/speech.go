package speech

import "context"

// Transcriber converts recorded audio to text. The language hint matters for
// the corpus domain: Whisper needs "ar" to transcribe colloquial questions
// reliably.
type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte, language string) (string, error)
}

// Synthesizer renders answer text as encoded audio (MP3).
type Synthesizer interface {
	Synthesize(ctx context.Context, text string) ([]byte, error)
}
