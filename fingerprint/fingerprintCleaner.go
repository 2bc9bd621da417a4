package fingerprint

import (
	"encoding/json"
	"time"

	"github.com/boltdb/bolt"

	"auditserve/metrics"
)

// Cleaner periodically drops fingerprints whose files were removed or
// changed on disk, so the database does not outgrow the served tree.
type Cleaner struct {
	store     *Store
	frequency *time.Ticker
}

// NewCleaner returns a cleaner sweeping the store on every tick.
func NewCleaner(store *Store, frequency *time.Ticker) *Cleaner {
	return &Cleaner{
		store:     store,
		frequency: frequency,
	}
}

// Observe blocks, sweeping the database every tick.
func (c *Cleaner) Observe() {
	for {
		<-c.frequency.C
		removed, err := c.Sweep()
		if err != nil {
			c.store.logger.Error("Fingerprint sweep failed", "err", err)
			continue
		}
		if removed > 0 {
			c.store.logger.Debug("Swept stale fingerprints", "removed", removed)
		}
	}
}

// Sweep removes every record whose file is gone or no longer matches the
// stored size and modification time, and returns how many were dropped.
func (c *Cleaner) Sweep() (int, error) {
	stale := make([][]byte, 0)

	addStaleKeys := func(k, v []byte) error {
		var record Record
		if err := json.Unmarshal(v, &record); err != nil {
			stale = append(stale, append([]byte(nil), k...))
			return nil
		}

		_, info, ok := c.store.resolve(string(k))
		if !ok || info.Size() != record.Size || !info.ModTime().Equal(record.ModTime) {
			stale = append(stale, append([]byte(nil), k...))
		}
		return nil
	}

	err := c.store.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(bucketName)).ForEach(addStaleKeys)
	})
	if err != nil {
		return 0, err
	}

	removed := 0
	for _, key := range stale {
		if err := c.store.delete(key); err != nil {
			c.store.logger.Error("Failed to drop fingerprint", "key", string(key), "err", err)
			continue
		}
		removed++
	}

	if n, err := c.store.Count(); err == nil {
		metrics.SetFingerprints(n)
	}

	return removed, nil
}
