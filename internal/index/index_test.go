package index

import (
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/illarion/diaria/internal/codec"
	"github.com/illarion/diaria/internal/entrystore"
	derrors "github.com/illarion/diaria/internal/errors"
	"github.com/illarion/diaria/internal/keystore"
)

func newKeys(t *testing.T) (*keystore.Store, *keystore.PublicKey) {
	t.Helper()
	keys := keystore.New(filepath.Join(t.TempDir(), "keys"))
	keys.Params = keystore.Params{Time: 1, Memory: 64, Threads: 1}
	km, err := keys.Init([]byte("abc"))
	if err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	return keys, km.PublicKey
}

func staticPassphrase(p string, calls *int) func() ([]byte, error) {
	return func() ([]byte, error) {
		*calls++
		return []byte(p), nil
	}
}

func TestStatsBucketsByYear(t *testing.T) {
	entries := entrystore.New(filepath.Join(t.TempDir(), "entries"))
	for name, size := range map[string]int{
		"2020-08-07T10:00:00": 10,
		"1931-05-02T08:00:00": 20,
		"1931-11-30T23:59:59": 5,
	} {
		if _, err := entries.WriteName(name+entrystore.Ext, make([]byte, size)); err != nil {
			t.Fatal(err)
		}
	}

	stats, err := Stats(entries)
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	if got := stats[1931]; got.Entries != 2 || got.Bytes != 25 {
		t.Errorf("1931 = %+v, want 2 entries and 25 bytes", got)
	}
	if got := stats[2020]; got.Entries != 1 || got.Bytes != 10 {
		t.Errorf("2020 = %+v, want 1 entry and 10 bytes", got)
	}
	if _, ok := stats[2021]; ok {
		t.Error("unexpected bucket for 2021")
	}
	if years := Years(stats); len(years) != 2 || years[0] != 1931 || years[1] != 2020 {
		t.Errorf("Years = %v", years)
	}
}

func TestStatsMissingDirectory(t *testing.T) {
	stats, err := Stats(entrystore.New(filepath.Join(t.TempDir(), "nope")))
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	if len(stats) != 0 {
		t.Errorf("Stats = %v, want empty", stats)
	}
}

func TestSummarizeDailyEntries(t *testing.T) {
	keys, pub := newKeys(t)
	entries := entrystore.New(filepath.Join(t.TempDir(), "entries"))
	now := time.Date(2024, 3, 10, 18, 0, 0, 0, time.UTC)

	for days := 0; days <= 40; days++ {
		ts := now.AddDate(0, 0, -days).Add(-time.Hour)
		ct, err := codec.Seal([]byte(fmt.Sprintf("entry from %d days ago", days)), pub)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := entries.Write(ts, ct); err != nil {
			t.Fatal(err)
		}
	}

	calls := 0
	summaries, err := Summarize(entries, keys, staticPassphrase("abc", &calls), []int{1, 7, 31}, now, nil)
	if err != nil {
		t.Fatalf("Summarize failed: %v", err)
	}
	if calls != 1 {
		t.Errorf("passphrase requested %d times, want 1", calls)
	}
	if len(summaries) != 3 {
		t.Fatalf("Summarize returned %d summaries, want 3", len(summaries))
	}
	for i, offset := range []int{1, 7, 31} {
		s := summaries[i]
		want := fmt.Sprintf("entry from %d days ago", offset)
		if s.Offset != offset || string(s.Plaintext) != want {
			t.Errorf("summary %d = {%d %q}, want {%d %q}", i, s.Offset, s.Plaintext, offset, want)
		}
	}
}

func TestSummarizeWithoutMatchesNeverUnlocks(t *testing.T) {
	keys, pub := newKeys(t)
	entries := entrystore.New(filepath.Join(t.TempDir(), "entries"))
	now := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)

	ct, err := codec.Seal([]byte("two days ago"), pub)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := entries.Write(now.AddDate(0, 0, -2), ct); err != nil {
		t.Fatal(err)
	}

	calls := 0
	summaries, err := Summarize(entries, keys, staticPassphrase("abc", &calls), []int{1, 7}, now, nil)
	if err != nil {
		t.Fatalf("Summarize failed: %v", err)
	}
	if len(summaries) != 0 || calls != 0 {
		t.Errorf("got %d summaries and %d passphrase requests, want none", len(summaries), calls)
	}
}

func TestSummarizeWrongPassphrase(t *testing.T) {
	keys, pub := newKeys(t)
	entries := entrystore.New(filepath.Join(t.TempDir(), "entries"))
	now := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)

	ct, err := codec.Seal([]byte("yesterday"), pub)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := entries.Write(now.AddDate(0, 0, -1), ct); err != nil {
		t.Fatal(err)
	}

	calls := 0
	_, err = Summarize(entries, keys, staticPassphrase("wrong", &calls), DefaultOffsets, now, nil)
	if !errors.Is(err, derrors.ErrWrongPassphrase) {
		t.Fatalf("Summarize returned %v, want ErrWrongPassphrase", err)
	}
}

func TestCandidatesUseCalendarDays(t *testing.T) {
	entries := entrystore.New(filepath.Join(t.TempDir(), "entries"))
	now := time.Date(2024, 3, 10, 0, 30, 0, 0, time.UTC)

	// 25 hours before 00:30 is already two calendar days back.
	for _, ts := range []time.Time{
		now.Add(-25 * time.Hour),
		now.Add(-1 * time.Hour),
		time.Date(2024, 3, 9, 23, 59, 59, 0, time.UTC),
	} {
		if _, err := entries.Write(ts, []byte("x")); err != nil {
			t.Fatal(err)
		}
	}

	matches, err := Candidates(entries, []int{1, 1}, now)
	if err != nil {
		t.Fatal(err)
	}
	if len(matches) != 2 {
		t.Fatalf("Candidates returned %d matches, want 2", len(matches))
	}
	if !matches[0].Item.Timestamp.Before(matches[1].Item.Timestamp) {
		t.Error("matches within a day are not oldest first")
	}
}
