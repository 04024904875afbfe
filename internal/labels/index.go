package labels

import "stutterprep/internal/shows"

// Key identifies a clip across the corpus. Show is folded the same way for
// label-table names and for the sanitized directory names written by
// extraction, so either can be used for lookups.
type Key struct {
	Show      string
	EpisodeID int
	ClipID    int
}

// KeyFor builds the index key for a raw show name.
func KeyFor(show string, episodeID, clipID int) Key {
	return Key{Show: shows.Normalize(shows.SafeName(show)), EpisodeID: episodeID, ClipID: clipID}
}

// Index looks up label records by clip key.
type Index struct {
	entries     map[Key]Record
	overwritten int
}

// Build indexes records. Duplicate keys keep the last record seen; the number
// of replaced entries is available from Overwritten.
func Build(records []Record) *Index {
	idx := &Index{entries: make(map[Key]Record, len(records))}
	for _, rec := range records {
		key := KeyFor(rec.Show, rec.EpisodeID, rec.ClipID)
		if _, ok := idx.entries[key]; ok {
			idx.overwritten++
		}
		idx.entries[key] = rec
	}
	return idx
}

// Lookup returns the record for (show, episode, clip).
func (i *Index) Lookup(show string, episodeID, clipID int) (Record, bool) {
	if i == nil {
		return Record{}, false
	}
	rec, ok := i.entries[KeyFor(show, episodeID, clipID)]
	return rec, ok
}

// Len returns the number of distinct keys.
func (i *Index) Len() int {
	if i == nil {
		return 0
	}
	return len(i.entries)
}

// Overwritten returns how many duplicate keys replaced an earlier record.
func (i *Index) Overwritten() int {
	if i == nil {
		return 0
	}
	return i.overwritten
}
