package guard

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	pebble "github.com/cockroachdb/pebble"
)

// Guard gates access to the external transcoding service. Creators on the
// blacklist are rejected outright; everyone else is held to a fixed-window
// daily submission quota. Both rejections are permanent from the pipeline's
// point of view: retrying a blocked submission cannot help.
type Guard struct {
	mu         sync.Mutex
	db         *pebble.DB
	dailyQuota int
}

type usageRecord struct {
	Day   string `json:"day"` // YYYY-MM-DD, UTC
	Count int    `json:"count"`
}

const blacklistPrefix = "blacklist/"
const usagePrefix = "usage/"

// Open opens (or creates) the guard store at the given path.
func Open(dbPath string, dailyQuota int) (*Guard, error) {
	db, err := pebble.Open(dbPath, &pebble.Options{})
	if err != nil {
		return nil, fmt.Errorf("failed to open guard store: %w", err)
	}
	if dailyQuota <= 0 {
		dailyQuota = 50
	}
	return &Guard{db: db, dailyQuota: dailyQuota}, nil
}

// Close closes the underlying DB.
func (g *Guard) Close() error {
	return g.db.Close()
}

// Check verifies the creator may submit a transcode right now and, if so,
// consumes one unit of today's quota.
func (g *Guard) Check(creatorID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	blocked, err := g.isBlacklisted(creatorID)
	if err != nil {
		return err
	}
	if blocked {
		return fmt.Errorf("creator %s is blacklisted from transcoding", creatorID)
	}

	today := time.Now().UTC().Format("2006-01-02")
	rec, err := g.loadUsage(creatorID)
	if err != nil {
		return err
	}
	if rec.Day != today {
		// New window; the previous day's count is irrelevant.
		rec = usageRecord{Day: today}
	}
	if rec.Count >= g.dailyQuota {
		return fmt.Errorf("creator %s exceeded daily transcode quota of %d", creatorID, g.dailyQuota)
	}

	rec.Count++
	return g.saveUsage(creatorID, rec)
}

// Blacklist adds a creator to the blacklist.
func (g *Guard) Blacklist(creatorID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.db.Set([]byte(blacklistPrefix+creatorID), []byte("1"), pebble.Sync)
}

// Unblacklist removes a creator from the blacklist.
func (g *Guard) Unblacklist(creatorID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.db.Delete([]byte(blacklistPrefix+creatorID), pebble.Sync)
}

// IsBlacklisted reports whether the creator is on the blacklist.
func (g *Guard) IsBlacklisted(creatorID string) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.isBlacklisted(creatorID)
}

// ListBlacklist returns all blacklisted creator ids.
func (g *Guard) ListBlacklist() ([]string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	var creators []string
	iter, err := g.db.NewIter(&pebble.IterOptions{
		LowerBound: []byte(blacklistPrefix),
		UpperBound: []byte(blacklistPrefix + "\xff"),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create iterator: %w", err)
	}
	defer iter.Close()

	for iter.First(); iter.Valid(); iter.Next() {
		creators = append(creators, string(iter.Key()[len(blacklistPrefix):]))
	}
	if err := iter.Error(); err != nil {
		return nil, fmt.Errorf("iteration error: %w", err)
	}
	return creators, nil
}

func (g *Guard) isBlacklisted(creatorID string) (bool, error) {
	_, closer, err := g.db.Get([]byte(blacklistPrefix + creatorID))
	if err != nil {
		if err == pebble.ErrNotFound {
			return false, nil
		}
		return false, fmt.Errorf("failed to check blacklist: %w", err)
	}
	closer.Close()
	return true, nil
}

func (g *Guard) loadUsage(creatorID string) (usageRecord, error) {
	data, closer, err := g.db.Get([]byte(usagePrefix + creatorID))
	if err != nil {
		if err == pebble.ErrNotFound {
			return usageRecord{}, nil
		}
		return usageRecord{}, fmt.Errorf("failed to get usage record: %w", err)
	}
	defer closer.Close()

	var rec usageRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return usageRecord{}, fmt.Errorf("failed to unmarshal usage record: %w", err)
	}
	return rec, nil
}

func (g *Guard) saveUsage(creatorID string, rec usageRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal usage record: %w", err)
	}
	return g.db.Set([]byte(usagePrefix+creatorID), data, pebble.Sync)
}
