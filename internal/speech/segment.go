package speech

// Segment is one line's synthesized audio, persisted under the run
// dir so a failed run can be inspected or resumed without re-calling
// the provider.
type Segment struct {
	LineIndex  int     `json:"line_index"`
	Path       string  `json:"path"`
	Duration   float64 `json:"duration"`
	SampleRate int     `json:"sample_rate"`
	Channels   int     `json:"channels"`
}
