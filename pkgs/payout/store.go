package payout

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	log "github.com/sirupsen/logrus"
)

// FileStore persists each epoch's own payout list as one JSON file per epoch
// under a directory. Files are write-once: a persisted epoch is never
// rewritten.
type FileStore struct {
	dir string
}

// epochFile is the on-disk format: the epoch number plus its payout list.
type epochFile struct {
	Epoch   uint64    `json:"epoch"`
	Payouts []*Payout `json:"payouts"`
}

// NewFileStore creates the directory if needed.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create payout directory: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

func (s *FileStore) epochPath(epoch uint64) string {
	return filepath.Join(s.dir, fmt.Sprintf("%010d.json", epoch))
}

// Persist writes every cached epoch that does not yet have a file. Existing
// files are skipped, never overwritten.
func (s *FileStore) Persist(epochs *Epochs) error {
	for _, epoch := range epochs.EpochNumbers() {
		path := s.epochPath(epoch)
		if _, err := os.Stat(path); err == nil {
			continue
		} else if !os.IsNotExist(err) {
			return fmt.Errorf("stat %s: %w", path, err)
		}

		payouts, _ := epochs.Get(epoch)
		data, err := json.Marshal(epochFile{Epoch: epoch, Payouts: payouts})
		if err != nil {
			return fmt.Errorf("marshal epoch %d: %w", epoch, err)
		}
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return fmt.Errorf("write epoch %d: %w", epoch, err)
		}
		log.WithFields(log.Fields{
			"epoch": epoch,
			"file":  path,
		}).Debug("Persisted epoch payouts")
	}
	return nil
}

// Load reads every epoch file in the directory back into the cache. A file
// whose recorded epoch number disagrees with its name indicates corrupted
// state and is returned as an error; callers treat it as fatal.
func (s *FileStore) Load(epochs *Epochs) error {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return fmt.Errorf("read payout directory: %w", err)
	}

	loaded := 0
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		path := filepath.Join(s.dir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read %s: %w", path, err)
		}
		var file epochFile
		if err := json.Unmarshal(data, &file); err != nil {
			return fmt.Errorf("decode %s: %w", path, err)
		}

		var nameEpoch uint64
		if _, err := fmt.Sscanf(entry.Name(), "%d.json", &nameEpoch); err != nil {
			return fmt.Errorf("unexpected payout file name %q: %w", entry.Name(), err)
		}
		if nameEpoch != file.Epoch {
			return fmt.Errorf("payout file %q records epoch %d", entry.Name(), file.Epoch)
		}

		if epochs.InsertIfAbsent(file.Epoch, file.Payouts) {
			loaded++
		}
	}
	if loaded > 0 {
		log.WithField("epochs", loaded).Info("Loaded persisted epoch payouts")
	}
	return nil
}
