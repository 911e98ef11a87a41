package archive

import (
	"encoding/json"
	"fmt"
	"strings"
)

// enumTag is the self-describing wire form for stage values. Stages are
// written as {"__enum__": "<Type>.<member>"} rather than raw ordinals so
// that inserting a stage later never silently reinterprets old
// checkpoints.
type enumTag struct {
	Enum string `json:"__enum__"`
}

// ScrapeStage tracks an artist's or album's progress through the
// retrieval pipeline. Values are strictly ordered; progress is
// monotonic outside of an explicit operator reset.
type ScrapeStage int

// ScrapeStage members, in pipeline order.
const (
	// StageDiscovered means the entity's metadata has been recorded but
	// nothing exists on disk yet.
	StageDiscovered ScrapeStage = iota
	// StageDirInitialized means the entity's storage directory exists.
	StageDirInitialized
	// StageChildrenEnumerated means child metadata has been fetched and
	// recorded (albums for an artist, songs for an album).
	StageChildrenEnumerated
	// StageChildrenDirsInitialized means every child's storage
	// directory exists.
	StageChildrenDirsInitialized
	// StageChildrenProcessed is the terminal stage: every child has
	// finished its own pipeline.
	StageChildrenProcessed
)

var scrapeStageNames = map[ScrapeStage]string{
	StageDiscovered:              "discovered",
	StageDirInitialized:          "dir_initialized",
	StageChildrenEnumerated:      "children_enumerated",
	StageChildrenDirsInitialized: "children_dirs_initialized",
	StageChildrenProcessed:       "children_processed",
}

// String returns the stable member name used on disk.
func (s ScrapeStage) String() string {
	if name, ok := scrapeStageNames[s]; ok {
		return name
	}
	return fmt.Sprintf("ScrapeStage(%d)", int(s))
}

// Valid reports whether s is a defined member.
func (s ScrapeStage) Valid() bool {
	_, ok := scrapeStageNames[s]
	return ok
}

// Terminal reports whether s is the last stage in the order.
func (s ScrapeStage) Terminal() bool {
	return s == StageChildrenProcessed
}

// Advance returns target if it is strictly later than s, otherwise s
// unchanged. Re-applying an already-passed stage is a silent no-op so
// the driver stays idempotent under restart.
func (s ScrapeStage) Advance(target ScrapeStage) ScrapeStage {
	if target > s {
		return target
	}
	return s
}

// MarshalJSON encodes the stage as its tagged wire form.
func (s ScrapeStage) MarshalJSON() ([]byte, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("cannot encode undefined scrape stage %d", int(s))
	}
	return json.Marshal(enumTag{Enum: "ScrapeStage." + s.String()})
}

// UnmarshalJSON decodes the tagged wire form back into the enum,
// rejecting unknown members.
func (s *ScrapeStage) UnmarshalJSON(data []byte) error {
	member, err := decodeEnumTag(data, "ScrapeStage")
	if err != nil {
		return err
	}
	for stage, name := range scrapeStageNames {
		if name == member {
			*s = stage
			return nil
		}
	}
	return fmt.Errorf("unknown ScrapeStage member %q", member)
}

// SongStage tracks an individual song's progress through fetch and
// transcription.
type SongStage int

// SongStage members, in pipeline order.
const (
	// SongMetadataRecorded means the song's identifiers and URL are in
	// the checkpoint but nothing exists on disk.
	SongMetadataRecorded SongStage = iota
	// SongDirInitialized means the song's storage directory exists.
	SongDirInitialized
	// SongTextFetched means the raw lyric text has been retrieved and
	// stored. Raw text is immutable from this point on.
	SongTextFetched
	// SongTranscribed is the terminal stage: cleaning and phonetic
	// transcription have run and their statistics are recorded.
	SongTranscribed
)

var songStageNames = map[SongStage]string{
	SongMetadataRecorded: "metadata_recorded",
	SongDirInitialized:   "dir_initialized",
	SongTextFetched:      "text_fetched",
	SongTranscribed:      "transcribed",
}

// String returns the stable member name used on disk.
func (s SongStage) String() string {
	if name, ok := songStageNames[s]; ok {
		return name
	}
	return fmt.Sprintf("SongStage(%d)", int(s))
}

// Valid reports whether s is a defined member.
func (s SongStage) Valid() bool {
	_, ok := songStageNames[s]
	return ok
}

// Terminal reports whether s is the last stage in the order.
func (s SongStage) Terminal() bool {
	return s == SongTranscribed
}

// Advance returns target if it is strictly later than s, otherwise s
// unchanged.
func (s SongStage) Advance(target SongStage) SongStage {
	if target > s {
		return target
	}
	return s
}

// MarshalJSON encodes the stage as its tagged wire form.
func (s SongStage) MarshalJSON() ([]byte, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("cannot encode undefined song stage %d", int(s))
	}
	return json.Marshal(enumTag{Enum: "SongStage." + s.String()})
}

// UnmarshalJSON decodes the tagged wire form back into the enum,
// rejecting unknown members.
func (s *SongStage) UnmarshalJSON(data []byte) error {
	member, err := decodeEnumTag(data, "SongStage")
	if err != nil {
		return err
	}
	for stage, name := range songStageNames {
		if name == member {
			*s = stage
			return nil
		}
	}
	return fmt.Errorf("unknown SongStage member %q", member)
}

func decodeEnumTag(data []byte, wantType string) (string, error) {
	var tag enumTag
	if err := json.Unmarshal(data, &tag); err != nil {
		return "", fmt.Errorf("decode enum tag: %w", err)
	}
	if tag.Enum == "" {
		return "", fmt.Errorf("missing __enum__ tag for %s", wantType)
	}
	typ, member, found := strings.Cut(tag.Enum, ".")
	if !found || typ != wantType || member == "" {
		return "", fmt.Errorf("malformed enum tag %q for %s", tag.Enum, wantType)
	}
	return member, nil
}
