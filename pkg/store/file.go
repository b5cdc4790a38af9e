package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/mquery-dev/api/pkg/logging"
	"go.uber.org/zap"
)

const fileFormatVersion = "1.0"

// FileStore is a file-backed implementation of the Store interface with an in-memory layer
// Used for development to keep cached documents across server restarts
type FileStore struct {
	*MemoryStore
	filePath     string
	saveInterval time.Duration
	done         chan struct{}
	closeOnce    sync.Once
	saveMu       sync.Mutex
}

type fileStoreData struct {
	Documents map[string]*fileDocument `json:"documents"`
	Version   string                   `json:"version"`
}

type fileDocument struct {
	Rev  string          `json:"_rev"`
	Body json.RawMessage `json:"body"`
}

// NewFileStore creates a new file-backed store, loading any existing documents
func NewFileStore(filePath string, saveInterval time.Duration) (*FileStore, error) {
	if saveInterval <= 0 {
		saveInterval = 30 * time.Second
	}

	fs := &FileStore{
		MemoryStore:  NewMemoryStore(),
		filePath:     filePath,
		saveInterval: saveInterval,
		done:         make(chan struct{}),
	}

	// Ensure directory exists
	dir := filepath.Dir(filePath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create store directory: %w", err)
	}

	if err := fs.load(); err != nil {
		logging.Logger.Warn("Failed to load store from file, starting empty",
			zap.String("file", filePath),
			zap.Error(err))
	} else {
		logging.Logger.Info("Loaded store from file",
			zap.String("file", filePath),
			zap.Int("documents", fs.Len()))
	}

	go fs.periodicSave()

	return fs, nil
}

// periodicSave writes the store to disk until Close is called
func (fs *FileStore) periodicSave() {
	ticker := time.NewTicker(fs.saveInterval)
	defer ticker.Stop()

	for {
		select {
		case <-fs.done:
			return
		case <-ticker.C:
			if err := fs.save(); err != nil {
				logging.Logger.Warn("Failed to save store to file",
					zap.String("file", fs.filePath),
					zap.Error(err))
			}
		}
	}
}

// load reads documents from disk
func (fs *FileStore) load() error {
	data, err := os.ReadFile(fs.filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil // File doesn't exist yet, that's ok
		}
		return err
	}

	var fileData fileStoreData
	if err := json.Unmarshal(data, &fileData); err != nil {
		return fmt.Errorf("failed to unmarshal store file: %w", err)
	}

	fs.mu.Lock()
	defer fs.mu.Unlock()

	for id, doc := range fileData.Documents {
		fs.data[id] = &Document{
			ID:   id,
			Rev:  doc.Rev,
			Body: []byte(doc.Body),
		}
	}

	return nil
}

// save writes the store to disk
func (fs *FileStore) save() error {
	fs.saveMu.Lock()
	defer fs.saveMu.Unlock()

	fs.mu.RLock()
	fileData := fileStoreData{
		Version:   fileFormatVersion,
		Documents: make(map[string]*fileDocument, len(fs.data)),
	}
	for id, doc := range fs.data {
		body := json.RawMessage(doc.Body)
		if len(body) == 0 {
			body = json.RawMessage("null")
		}
		fileData.Documents[id] = &fileDocument{
			Rev:  doc.Rev,
			Body: body,
		}
	}
	fs.mu.RUnlock()

	data, err := json.MarshalIndent(fileData, "", "  ")
	if err != nil {
		return err
	}

	// Write to temp file first, then rename
	tempFile := fs.filePath + ".tmp"
	if err := os.WriteFile(tempFile, data, 0644); err != nil {
		return err
	}
	if err := os.Rename(tempFile, fs.filePath); err != nil {
		return err
	}

	logging.Logger.Debug("Store saved to disk",
		zap.String("file", fs.filePath),
		zap.Int("documents", len(fileData.Documents)))

	return nil
}

// Close stops the background saver and saves the store one final time
func (fs *FileStore) Close() error {
	fs.closeOnce.Do(func() {
		close(fs.done)
	})
	return fs.save()
}
