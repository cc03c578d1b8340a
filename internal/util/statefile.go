package util

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
	log "github.com/sirupsen/logrus"
)

type ExportState struct {
	// Last month fully exported, "YYYY-MM". Empty until the first run.
	LastExported string `json:"last_exported"`
}

// StateFile is a flock-protected JSON watermark so concurrent export
// runs (cron overlap, operator re-run) never clobber each other.
type StateFile struct {
	flock *flock.Flock
	state ExportState
	file  string
}

func NewStateFile(file string) *StateFile {
	dir := filepath.Dir(file)
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		if err := os.MkdirAll(dir, 0755); err != nil {
			log.Errorf("Failed to create directories: %s %v", dir, err)
			return nil
		}
	} else if err != nil {
		log.Errorf("Error checking directory: %v", err)
		return nil
	}

	lock := flock.New(file + ".lock")
	return &StateFile{
		flock: lock,
		file:  file,
	}
}

func (sf *StateFile) Load() error {
	err := sf.flock.RLock()
	if err != nil {
		log.Errorf("Failed to lock state file: %s", err)
		return err
	}
	defer sf.flock.Unlock()

	file, err := os.Open(sf.file)
	if err != nil {
		if os.IsNotExist(err) {
			sf.state = ExportState{}
			return nil
		}
		return err
	}
	defer file.Close()

	decoder := json.NewDecoder(file)
	return decoder.Decode(&sf.state)
}

func (sf *StateFile) Save() error {
	err := sf.flock.Lock()
	if err != nil {
		return err
	}
	defer sf.flock.Unlock()

	file, err := os.Create(sf.file)
	if err != nil {
		return err
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	return encoder.Encode(&sf.state)
}

func (sf *StateFile) LastExported() string {
	return sf.state.LastExported
}

func (sf *StateFile) SetLastExported(yearMonth string) {
	sf.state.LastExported = yearMonth
}
