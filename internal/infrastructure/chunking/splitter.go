package chunking

// Splitter cuts text into fixed-size rune windows. The output covers the
// input exactly: no overlap, no trimming, concatenating the chunks
// reproduces the input byte for byte. Retrieval quality comes from the
// embedding model, not from boundary awareness, so the window is plain.
type Splitter struct {
	MaxChunkSize int
}

func NewSplitter(maxChunkSize int) *Splitter {
	if maxChunkSize <= 0 {
		maxChunkSize = 1000
	}
	return &Splitter{MaxChunkSize: maxChunkSize}
}

func (s *Splitter) Split(text string) []string {
	runes := []rune(text)
	if len(runes) == 0 {
		return nil
	}

	out := make([]string, 0, len(runes)/s.MaxChunkSize+1)
	for start := 0; start < len(runes); start += s.MaxChunkSize {
		end := start + s.MaxChunkSize
		if end > len(runes) {
			end = len(runes)
		}
		out = append(out, string(runes[start:end]))
	}
	return out
}
