// Package song defines the value types that flow through the queue:
// durations, audio formats, and the detached song record itself.
package song

import (
	"fmt"
	"time"

	"github.com/halcyon-audio/mpdcore/internal/tag"
)

// Time is a non-negative song duration stored as a time.Duration,
// the counterpart of MPD's SongTime.
type Time time.Duration

// Seconds returns t rounded down to whole seconds, the unit most of
// the wire protocol reports in.
func (t Time) Seconds() int64 { return int64(time.Duration(t) / time.Second) }

// SignedTime is a possibly-negative duration; a negative value means
// "unknown", matching MPD's SignedSongTime.
type SignedTime time.Duration

// Unknown reports whether the duration is the "unknown" sentinel.
func (t SignedTime) Unknown() bool { return t < 0 }

// SampleFormat enumerates the PCM sample encodings the core is aware
// of. Concrete decode/resample math is out of scope; this is purely a
// descriptor carried alongside a DetachedSong.
type SampleFormat int

const (
	FormatUndefined SampleFormat = iota
	S8
	S16
	S24P32
	S32
	F32
	DSD
)

// AudioFormat is the triple (sample_rate, sample_format, channels)
// describing a PCM stream.
type AudioFormat struct {
	SampleRate   uint32
	SampleFormat SampleFormat
	Channels     uint8
}

// Validate checks the ranges required by the data model: sample rate
// in [1, 192000] and channels in [1, 8].
func (f AudioFormat) Validate() error {
	if f.SampleRate < 1 || f.SampleRate > 192000 {
		return fmt.Errorf("sample rate %d out of range [1, 192000]", f.SampleRate)
	}
	if f.Channels < 1 || f.Channels > 8 {
		return fmt.Errorf("channel count %d out of range [1, 8]", f.Channels)
	}
	return nil
}

// DetachedSong is a self-contained song record: everything the queue
// needs to know about a track without holding a reference back into
// any database tree.
//
// URI is the display form; RealURI, when non-empty, is the resolution
// form used for I/O (e.g. when URI is a database-relative path and
// RealURI is the absolute path the out-of-scope storage plugin
// resolved it to).
type DetachedSong struct {
	URI          string
	RealURI      string
	Tag          tag.Tag
	LastModified time.Time
	// Start/End mark a sub-song range in milliseconds (for songs that
	// are one track of a larger container, e.g. a CUE sheet entry).
	// End of 0 means "to the end of the stream".
	Start, End uint32
	Format     *AudioFormat
}

// ResolvedURI returns RealURI if set, else URI. Callers doing I/O
// should always go through this; callers doing display should use URI
// directly.
func (s DetachedSong) ResolvedURI() string {
	if s.RealURI != "" {
		return s.RealURI
	}
	return s.URI
}

// Duration returns the tag's duration as a Time, or 0 if unknown.
func (s DetachedSong) Duration() Time {
	d := s.Tag.Duration()
	if d < 0 {
		return 0
	}
	return Time(time.Duration(d) * time.Millisecond)
}

// Clone returns a deep-enough copy safe to hand to another goroutine:
// Tag is already immutable and value-typed, so only Format needs its
// own allocation.
func (s DetachedSong) Clone() DetachedSong {
	out := s
	if s.Format != nil {
		f := *s.Format
		out.Format = &f
	}
	return out
}
