package labels

import "fmt"

// Column names in the label table.
const (
	ColumnShow                  = "Show"
	ColumnEpisode               = "EpId"
	ColumnClip                  = "ClipId"
	ColumnStart                 = "Start"
	ColumnStop                  = "Stop"
	ColumnProlongation          = "Prolongation"
	ColumnBlock                 = "Block"
	ColumnSoundRep              = "SoundRep"
	ColumnWordRep               = "WordRep"
	ColumnDifficultToUnderstand = "DifficultToUnderstand"
)

// Flags are the disfluency annotations attached to a clip.
type Flags struct {
	Prolongation          bool
	Block                 bool
	SoundRep              bool
	WordRep               bool
	DifficultToUnderstand bool
}

// Clean reports whether no disfluency was annotated.
func (f Flags) Clean() bool {
	return !f.Prolongation && !f.Block && !f.SoundRep && !f.WordRep && !f.DifficultToUnderstand
}

// Record is one parsed label row. Start and Stop are sample offsets into the
// full episode buffer with 0 <= Start < Stop.
type Record struct {
	Line      int
	Show      string
	EpisodeID int
	ClipID    int
	Start     int
	Stop      int
	Flags     Flags
}

// Len returns the labeled clip length in samples.
func (r Record) Len() int {
	return r.Stop - r.Start
}

// String identifies the record in logs and skip ledgers.
func (r Record) String() string {
	return fmt.Sprintf("%s/%d/%d", r.Show, r.EpisodeID, r.ClipID)
}
