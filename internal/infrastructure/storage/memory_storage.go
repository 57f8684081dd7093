package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

const memoryURLPrefix = "memory://"

// MemoryStorage keeps uploads in process. It serves the memory store driver.
type MemoryStorage struct {
	mu      sync.RWMutex
	objects map[string][]byte
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{objects: make(map[string][]byte)}
}

func (m *MemoryStorage) UploadFile(ctx context.Context, file io.Reader, contentType, folder string, isPublic bool) (string, error) {
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, file); err != nil {
		return "", fmt.Errorf("failed to read upload: %v", err)
	}

	name := objectName(folder, contentType, isPublic, uuid.New().String(), time.Now())

	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[name] = buf.Bytes()
	return memoryURLPrefix + name, nil
}

func (m *MemoryStorage) DeleteFile(ctx context.Context, fileURL string) error {
	if !strings.HasPrefix(fileURL, memoryURLPrefix) {
		return fmt.Errorf("invalid memory URL format")
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, strings.TrimPrefix(fileURL, memoryURLPrefix))
	return nil
}

// Object returns the stored bytes for a URL produced by UploadFile.
func (m *MemoryStorage) Object(fileURL string) ([]byte, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	data, ok := m.objects[strings.TrimPrefix(fileURL, memoryURLPrefix)]
	return data, ok
}

func (m *MemoryStorage) Close() error {
	return nil
}
