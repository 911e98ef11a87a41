package archive

import (
	"encoding/json"
	"fmt"
)

// ResumeState classifies an artist's resume marker.
type ResumeState string

// Resume marker states. These replace the magic (-1,-1) / (None,None)
// tuples from earlier revisions of the checkpoint format.
const (
	ResumeNotStarted ResumeState = "not_started"
	ResumeInProgress ResumeState = "in_progress"
	ResumeComplete   ResumeState = "complete"
)

// ResumeMarker records where scraping last left off inside an artist.
// It is derived reporting state; the Resume Selector re-derives the
// next unit from stages so the marker can never steer selection wrong.
type ResumeMarker struct {
	State   ResumeState
	AlbumID AlbumID
	SongID  SongID
}

// NotStartedMarker returns the marker for an artist with no scraping
// done yet.
func NotStartedMarker() ResumeMarker {
	return ResumeMarker{State: ResumeNotStarted}
}

// InProgressMarker returns the marker pointing at the album and song
// most recently worked on.
func InProgressMarker(alid AlbumID, sid SongID) ResumeMarker {
	return ResumeMarker{State: ResumeInProgress, AlbumID: alid, SongID: sid}
}

// CompleteMarker returns the marker for a fully-processed artist.
func CompleteMarker() ResumeMarker {
	return ResumeMarker{State: ResumeComplete}
}

type resumeMarkerWire struct {
	State   ResumeState `json:"state"`
	AlbumID *AlbumID    `json:"alid,omitempty"`
	SongID  *SongID     `json:"sid,omitempty"`
}

// MarshalJSON encodes the marker; identifiers appear only in the
// in_progress state.
func (m ResumeMarker) MarshalJSON() ([]byte, error) {
	wire := resumeMarkerWire{State: m.State}
	if m.State == "" {
		wire.State = ResumeNotStarted
	}
	if m.State == ResumeInProgress {
		alid, sid := m.AlbumID, m.SongID
		wire.AlbumID = &alid
		wire.SongID = &sid
	}
	return json.Marshal(wire)
}

// UnmarshalJSON decodes the marker, rejecting unknown states and an
// in_progress marker without identifiers.
func (m *ResumeMarker) UnmarshalJSON(data []byte) error {
	var wire resumeMarkerWire
	if err := json.Unmarshal(data, &wire); err != nil {
		return fmt.Errorf("decode resume marker: %w", err)
	}
	switch wire.State {
	case ResumeNotStarted, ResumeComplete:
		*m = ResumeMarker{State: wire.State}
	case ResumeInProgress:
		if wire.AlbumID == nil || wire.SongID == nil {
			return fmt.Errorf("in_progress resume marker missing alid/sid")
		}
		*m = ResumeMarker{State: ResumeInProgress, AlbumID: *wire.AlbumID, SongID: *wire.SongID}
	default:
		return fmt.Errorf("unknown resume marker state %q", wire.State)
	}
	return nil
}
