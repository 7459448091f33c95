package player

// SignalKind identifies an outbound engine notification
type SignalKind string

const (
	SignalStateChanged      SignalKind = "state_changed"
	SignalProgress          SignalKind = "progress"
	SignalMetadataReady     SignalKind = "metadata_ready"
	SignalTrackChanged      SignalKind = "track_changed"
	SignalTrackFinished     SignalKind = "track_finished"
	SignalPlaybackBlocked   SignalKind = "playback_blocked"
	SignalPlaybackFailed    SignalKind = "playback_failed"
	SignalPlaybackExhausted SignalKind = "playback_exhausted"
	SignalPlaybackRecovered SignalKind = "playback_recovered"
	SignalStopped           SignalKind = "stopped"
)

// String returns the string representation of SignalKind
func (k SignalKind) String() string {
	return string(k)
}

// Signal is emitted by the engine's components. Index and Track describe
// the active track at emission time; Err is set for failures only.
type Signal struct {
	Kind   SignalKind
	State  State
	Index  int
	Track  Track
	Source Candidate
	Err    *PlaybackError
}

// Listener receives signals in emission order. Listeners are called
// without engine locks held and may issue engine commands.
type Listener func(Signal)
