package mocks

// MockIgnoreFilter ignores exactly the listed root-relative paths.
type MockIgnoreFilter struct {
	Paths map[string]bool
}

// NewMockIgnoreFilter creates a filter ignoring the given paths.
func NewMockIgnoreFilter(paths ...string) *MockIgnoreFilter {
	m := &MockIgnoreFilter{Paths: make(map[string]bool)}
	for _, p := range paths {
		m.Paths[p] = true
	}
	return m
}

// ShouldIgnore implements reload.IgnoreFilter.
func (m *MockIgnoreFilter) ShouldIgnore(relativePath string, isDir bool) bool {
	return m.Paths[relativePath]
}
