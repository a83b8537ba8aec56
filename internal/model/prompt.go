package model

// PromptRecord is a single prompt drawn from the benchmark dataset.
// Records are immutable once loaded; ID is the ordinal position in
// dataset order, which is stable across runs so every profile visits
// an identical sequence.
type PromptRecord struct {
	ID   int    `json:"id"`
	Text string `json:"prompt"`
}

// Preview returns the first n characters of the prompt with newlines
// flattened, for log lines.
func (p PromptRecord) Preview(n int) string {
	flat := make([]rune, 0, n)
	for _, r := range p.Text {
		if r == '\n' || r == '\r' {
			r = ' '
		}
		flat = append(flat, r)
		if len(flat) >= n {
			break
		}
	}
	return string(flat)
}
