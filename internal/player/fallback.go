package player

// Fallback walks the candidate list of the active track after failures.
// The list is derived lazily on the first failure and kept until the next
// Reset, so a track that recovers does not retry containers already known
// to fail.
type Fallback struct {
	resolver *Resolver

	primary    Candidate
	candidates []Candidate
	cursor     int // index of the next untried candidate

	exhausted  bool
	recovering bool
}

// NewFallback creates a fallback controller. A nil resolver disables
// alternate candidates: the first failure exhausts the track.
func NewFallback(resolver *Resolver) *Fallback {
	if resolver == nil {
		resolver = &Resolver{}
	}
	return &Fallback{resolver: resolver}
}

// Reset discards the bookkeeping of the previous track
func (f *Fallback) Reset(track Track) {
	f.primary = f.resolver.Classify(track.PrimarySource)
	f.candidates = nil
	f.cursor = 0
	f.exhausted = false
	f.recovering = false
}

// Primary returns the candidate for the track's own source
func (f *Fallback) Primary() Candidate {
	return f.primary
}

// HandleFailure returns the next untried candidate. It returns false once
// every candidate failed; the track then stays exhausted until Retry.
func (f *Fallback) HandleFailure(kind ErrorKind) (Candidate, bool) {
	if f.exhausted || f.primary.URL == "" {
		return Candidate{}, false
	}

	if f.candidates == nil {
		f.candidates = f.resolver.DeriveCandidates(f.primary.URL)
		// the primary is the one that just failed
		f.cursor = 1
	}

	if f.cursor >= len(f.candidates) {
		f.exhausted = true
		f.recovering = false
		return Candidate{}, false
	}

	next := f.candidates[f.cursor]
	f.cursor++
	f.recovering = true
	return next, true
}

// Retry clears the terminal condition and restarts from the primary
func (f *Fallback) Retry() Candidate {
	f.exhausted = false
	f.recovering = true
	if f.candidates != nil {
		f.cursor = 1
	}
	return f.primary
}

// MetadataReady records that the current candidate loaded. It reports
// whether that candidate was a fallback or retry attempt.
func (f *Fallback) MetadataReady() bool {
	recovered := f.recovering
	f.recovering = false
	f.exhausted = false
	return recovered
}

// Exhausted reports whether every candidate failed
func (f *Fallback) Exhausted() bool {
	return f.exhausted
}

// Remaining returns the number of untried candidates. Before the first
// failure every derived alternate counts as untried.
func (f *Fallback) Remaining() int {
	if f.exhausted || f.primary.URL == "" {
		return 0
	}
	if f.candidates == nil {
		return len(f.resolver.DeriveCandidates(f.primary.URL)) - 1
	}
	return len(f.candidates) - f.cursor
}

// Candidates returns the derived list, or nil before the first failure
func (f *Fallback) Candidates() []Candidate {
	if f.candidates == nil {
		return nil
	}
	out := make([]Candidate, len(f.candidates))
	copy(out, f.candidates)
	return out
}
