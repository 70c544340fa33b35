package capture

import "sync"

// Method is a capture strategy.
type Method string

const (
	// MethodPrimary is the fast privileged capture path.
	MethodPrimary Method = "primary"
	// MethodFallback is the slower universally-compatible path.
	MethodFallback Method = "fallback"
)

// defaultSwitchThreshold is how many consecutive primary failures flip the
// preference to the fallback method.
const defaultSwitchThreshold = 3

// MethodState holds the adaptive capture-method preference. It is shared by
// every display capturing through the same service and safe for concurrent
// use. It is an explicitly-owned object (injected into the service) so tests
// and independent services get isolated instances.
type MethodState struct {
	mu        sync.Mutex
	preferred Method
	failures  int
	threshold int
}

// NewMethodState returns a state preferring the primary method. A threshold
// <= 0 uses the default.
func NewMethodState(switchThreshold int) *MethodState {
	if switchThreshold <= 0 {
		switchThreshold = defaultSwitchThreshold
	}
	return &MethodState{preferred: MethodPrimary, threshold: switchThreshold}
}

// Preferred returns the currently preferred method.
func (s *MethodState) Preferred() Method {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.preferred
}

// RecordPrimarySuccess resets the consecutive failure counter.
func (s *MethodState) RecordPrimarySuccess() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures = 0
}

// RecordPrimaryFailure counts a primary failure and switches the preference
// to fallback once the threshold of consecutive failures is reached. It
// returns true when the switch happened on this call.
func (s *MethodState) RecordPrimaryFailure() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.failures++
	if s.preferred == MethodPrimary && s.failures >= s.threshold {
		s.preferred = MethodFallback
		s.failures = 0
		return true
	}
	return false
}

// Reset forces re-probing the primary method, e.g. after a new display is
// created.
func (s *MethodState) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.preferred = MethodPrimary
	s.failures = 0
}
