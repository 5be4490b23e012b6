package crawler

import (
	"crypto/sha256"
	"encoding/hex"
	"os"
)

// ChangeDetector compares the crawler's current output to the previously
// recorded state map and classifies each file (spec.md §4.1).
type ChangeDetector struct {
	crawler *Crawler
}

// NewChangeDetector builds a ChangeDetector over the given Crawler.
func NewChangeDetector(c *Crawler) *ChangeDetector {
	return &ChangeDetector{crawler: c}
}

// DetectChanges runs Discover, then classifies every returned file and
// every file present in prevState but absent from the new discovery as
// Deleted. If force is true every present file is classified Modified
// regardless of mtime/size/hash.
func (cd *ChangeDetector) DetectChanges(prevState map[string]FileState, force bool) (*ChangeSet, error) {
	current, err := cd.crawler.Discover()
	if err != nil {
		return nil, err
	}

	changes := &ChangeSet{}
	seen := make(map[string]bool, len(current))

	for _, rec := range current {
		seen[rec.RelativePath] = true
		prev, existed := prevState[rec.RelativePath]

		if !existed {
			changes.Added = append(changes.Added, rec)
			continue
		}

		if force {
			changes.Modified = append(changes.Modified, rec)
			continue
		}

		if rec.ModTime.Equal(prev.ModTime) && rec.Size == prev.Size {
			changes.Unchanged = append(changes.Unchanged, rec)
			continue
		}

		// mtime/size drifted: a content hash disambiguates a genuine edit
		// from e.g. a touch or a checkout that only updates mtime.
		hash, hashErr := hashFile(rec.FilePath)
		if hashErr == nil && prev.Hash != "" && hash == prev.Hash {
			changes.Unchanged = append(changes.Unchanged, rec)
			continue
		}

		changes.Modified = append(changes.Modified, rec)
	}

	for relPath := range prevState {
		if !seen[relPath] {
			changes.Deleted = append(changes.Deleted, relPath)
		}
	}

	return changes, nil
}

func hashFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}
