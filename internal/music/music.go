// Package music picks background tracks from a read-only directory of MP3s.
package music

import (
	"math/rand/v2"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

// Pool lists the tracks in a directory. It never writes to the directory, so
// concurrent runs may share one without coordination.
type Pool struct {
	Dir string
}

// Tracks returns the sorted .mp3 files in the pool. A missing directory is an
// empty pool.
func (p Pool) Tracks() ([]string, error) {
	if strings.TrimSpace(p.Dir) == "" {
		return nil, nil
	}
	entries, err := os.ReadDir(p.Dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var tracks []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.EqualFold(filepath.Ext(entry.Name()), ".mp3") {
			continue
		}
		tracks = append(tracks, filepath.Join(p.Dir, entry.Name()))
	}
	slices.Sort(tracks)
	return tracks, nil
}

// Pick returns a random track, or "" when the pool is empty.
func (p Pool) Pick(rng *rand.Rand) (string, error) {
	tracks, err := p.Tracks()
	if err != nil || len(tracks) == 0 {
		return "", err
	}
	return tracks[rng.IntN(len(tracks))], nil
}
