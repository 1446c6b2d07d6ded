package detect

// Detection is one acronym found in one message. The struct is its own key.
type Detection struct {
	ThreadID  string `json:"thread_id"`
	MessageID string `json:"message_id"`
	AcronymID int64  `json:"acronym_id"`
}

// DetectionSet collapses duplicate detections and keeps first-insertion order.
type DetectionSet struct {
	seen  map[Detection]struct{}
	items []Detection
}

// NewDetectionSet returns an empty set.
func NewDetectionSet() *DetectionSet {
	return &DetectionSet{seen: make(map[Detection]struct{})}
}

// Add inserts d and reports whether it was new.
func (s *DetectionSet) Add(d Detection) bool {
	if _, ok := s.seen[d]; ok {
		return false
	}
	s.seen[d] = struct{}{}
	s.items = append(s.items, d)
	return true
}

// Len returns the number of unique detections.
func (s *DetectionSet) Len() int {
	return len(s.items)
}

// Items returns the unique detections in insertion order.
func (s *DetectionSet) Items() []Detection {
	out := make([]Detection, len(s.items))
	copy(out, s.items)
	return out
}
