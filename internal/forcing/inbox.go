package forcing

import (
	"sync"
	"time"
)

// Source identifies who contributes to the wind intensity.
type Source uint8

const (
	SourceLocal   Source = iota // Breath/microphone on this device
	SourceRemote                // Companion device over the peer link
	SourceAmbient               // Live weather wind speed

	numSources
)

// String returns the source name.
func (s Source) String() string {
	switch s {
	case SourceLocal:
		return "local"
	case SourceRemote:
		return "remote"
	case SourceAmbient:
		return "ambient"
	default:
		return "unknown"
	}
}

// ParseSource maps a name to a Source. Unknown names read as local.
func ParseSource(s string) Source {
	switch s {
	case "remote":
		return SourceRemote
	case "ambient":
		return SourceAmbient
	default:
		return SourceLocal
	}
}

// Tilt is a remote device orientation in degrees.
type Tilt struct {
	FrontBack float64 `json:"front_back"`
	LeftRight float64 `json:"left_right"`
}

// Batch is everything reported since the previous Drain.
type Batch struct {
	Shake     float64
	Wind      [numSources]float64
	Ambient   *float64
	Tilt      *Tilt
	TiltAt    time.Time
	ClearTilt bool
}

// Inbox buffers events from sensor and network producers until the
// simulation thread drains it.
type Inbox struct {
	mu      sync.Mutex
	pending Batch
	now     func() time.Time
}

// NewInbox creates an empty inbox.
func NewInbox() *Inbox {
	return &Inbox{now: time.Now}
}

// ReportShake records a shake event.
func (in *Inbox) ReportShake(intensity float64) {
	in.mu.Lock()
	in.pending.Shake += Sanitize(intensity)
	in.mu.Unlock()
}

// ReportWind records a wind event from src. Ambient reports replace the
// ambient level instead of adding to it.
func (in *Inbox) ReportWind(src Source, intensity float64) {
	if src >= numSources {
		src = SourceLocal
	}
	v := Sanitize(intensity)

	in.mu.Lock()
	defer in.mu.Unlock()
	if src == SourceAmbient {
		in.pending.Ambient = &v
		return
	}
	in.pending.Wind[src] += v
}

// ReportTilt records the latest remote tilt; later reports win.
func (in *Inbox) ReportTilt(frontBack, leftRight float64) {
	in.mu.Lock()
	in.pending.Tilt = &Tilt{FrontBack: frontBack, LeftRight: leftRight}
	in.pending.TiltAt = in.now()
	in.pending.ClearTilt = false
	in.mu.Unlock()
}

// ClearTilt drops the remote tilt, e.g. when the peer disconnects.
func (in *Inbox) ClearTilt() {
	in.mu.Lock()
	in.pending.Tilt = nil
	in.pending.ClearTilt = true
	in.mu.Unlock()
}

// Drain returns and resets the pending batch.
func (in *Inbox) Drain() Batch {
	in.mu.Lock()
	b := in.pending
	in.pending = Batch{}
	in.mu.Unlock()
	return b
}
