package index

import (
	"fmt"
	"sort"
	"time"

	"github.com/illarion/diaria/internal/codec"
	"github.com/illarion/diaria/internal/crypto"
	"github.com/illarion/diaria/internal/entrystore"
	"github.com/illarion/diaria/internal/keystore"
	"github.com/illarion/diaria/internal/logging"
)

// DefaultOffsets look back one day, a week, a month, then one, two, four,
// eight and sixteen years.
var DefaultOffsets = []int{1, 7, 31, 365, 730, 1461, 2922, 5844}

// YearStats aggregates the entries of one calendar year (UTC).
type YearStats struct {
	Entries int
	Bytes   int64
}

// Stats buckets entries by year. It never decrypts. An absent or empty
// directory yields an empty map.
func Stats(entries *entrystore.Store) (map[int]YearStats, error) {
	items, err := entries.List()
	if err != nil {
		return nil, err
	}

	stats := make(map[int]YearStats)
	for _, it := range items {
		year := it.Timestamp.UTC().Year()
		ys := stats[year]
		ys.Entries++
		ys.Bytes += it.Size
		stats[year] = ys
	}
	return stats, nil
}

// Years returns the keys of stats in ascending order.
func Years(stats map[int]YearStats) []int {
	years := make([]int, 0, len(stats))
	for y := range stats {
		years = append(years, y)
	}
	sort.Ints(years)
	return years
}

// Match is an entry that falls on the day offset days before now.
type Match struct {
	Offset int
	Item   entrystore.Item
}

// Summary is a decrypted Match.
type Summary struct {
	Offset    int
	Timestamp time.Time
	Path      string
	Plaintext []byte
}

// Candidates returns the entries on each offset's calendar day in offset
// order, oldest entry first within a day. Offsets without entries are
// skipped.
func Candidates(entries *entrystore.Store, offsets []int, now time.Time) ([]Match, error) {
	items, err := entries.List()
	if err != nil {
		return nil, err
	}

	byDay := make(map[string][]entrystore.Item)
	for _, it := range items {
		key := dayKey(it.Timestamp)
		byDay[key] = append(byDay[key], it)
	}

	now = now.UTC()
	var matches []Match
	seen := make(map[int]bool)
	for _, offset := range offsets {
		if seen[offset] {
			continue
		}
		seen[offset] = true
		for _, it := range byDay[dayKey(now.AddDate(0, 0, -offset))] {
			matches = append(matches, Match{Offset: offset, Item: it})
		}
	}
	return matches, nil
}

// Summarize decrypts the Candidates. The passphrase is only used, and the
// key only unlocked, when at least one entry matches.
func Summarize(entries *entrystore.Store, keys *keystore.Store, passphrase func() ([]byte, error), offsets []int, now time.Time, logger *logging.Logger) ([]Summary, error) {
	matches, err := Candidates(entries, offsets, now)
	if err != nil {
		return nil, err
	}
	if len(matches) == 0 {
		logger.Debugf("no entries on any of %d summary days", len(offsets))
		return nil, nil
	}

	pass, err := passphrase()
	if err != nil {
		return nil, err
	}
	priv, err := keys.Unlock(pass)
	crypto.ClearBytes(pass)
	if err != nil {
		return nil, err
	}
	defer priv.Close()

	summaries := make([]Summary, 0, len(matches))
	for _, m := range matches {
		ciphertext, err := entrystore.Read(m.Item.Path)
		if err != nil {
			return nil, err
		}
		plaintext, err := codec.Open(ciphertext, priv)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", m.Item.Name, err)
		}
		summaries = append(summaries, Summary{
			Offset:    m.Offset,
			Timestamp: m.Item.Timestamp,
			Path:      m.Item.Path,
			Plaintext: plaintext,
		})
	}
	return summaries, nil
}

func dayKey(t time.Time) string {
	return t.UTC().Format(time.DateOnly)
}
