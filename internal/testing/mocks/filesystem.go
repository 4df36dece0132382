package mocks

import (
	"os"
	"path/filepath"
	"sync"
	"time"
)

// MockFileInfo implements os.FileInfo
type MockFileInfo struct {
	NameVal  string
	SizeVal  int64
	ModeVal  os.FileMode
	IsDirVal bool
}

func (f *MockFileInfo) Name() string       { return f.NameVal }
func (f *MockFileInfo) Size() int64        { return f.SizeVal }
func (f *MockFileInfo) Mode() os.FileMode  { return f.ModeVal }
func (f *MockFileInfo) ModTime() time.Time { return time.Time{} }
func (f *MockFileInfo) IsDir() bool        { return f.IsDirVal }
func (f *MockFileInfo) Sys() any           { return nil }

// MockFileSystem is an in-memory read-only filesystem for config and
// .gitignore loading.
type MockFileSystem struct {
	Mu       sync.Mutex
	Files    map[string][]byte
	HomeDir  string
	OpErrors map[string]error
}

// NewMockFileSystem creates an empty MockFileSystem with no home directory.
func NewMockFileSystem() *MockFileSystem {
	return &MockFileSystem{
		Files:    make(map[string][]byte),
		OpErrors: make(map[string]error),
	}
}

// CreateFile adds a file.
func (m *MockFileSystem) CreateFile(path string, content []byte) {
	m.Mu.Lock()
	defer m.Mu.Unlock()
	m.Files[filepath.Clean(path)] = content
}

func (m *MockFileSystem) Stat(path string) (os.FileInfo, error) {
	m.Mu.Lock()
	defer m.Mu.Unlock()

	if err, ok := m.OpErrors["Stat"]; ok {
		return nil, err
	}
	content, ok := m.Files[filepath.Clean(path)]
	if !ok {
		return nil, os.ErrNotExist
	}
	return &MockFileInfo{NameVal: filepath.Base(path), SizeVal: int64(len(content)), ModeVal: 0o644}, nil
}

func (m *MockFileSystem) ReadFile(path string) ([]byte, error) {
	m.Mu.Lock()
	defer m.Mu.Unlock()

	if err, ok := m.OpErrors["ReadFile"]; ok {
		return nil, err
	}
	content, ok := m.Files[filepath.Clean(path)]
	if !ok {
		return nil, os.ErrNotExist
	}
	return content, nil
}

func (m *MockFileSystem) UserHomeDir() (string, error) {
	if m.HomeDir == "" {
		return "", os.ErrNotExist
	}
	return m.HomeDir, nil
}
