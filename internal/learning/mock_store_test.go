package learning

import (
	"errors"
	"sync"
	"time"

	"github.com/vmtran/cadence/internal/storage"
)

// mockStorage is an in-memory storage.Store for tests.
type mockStorage struct {
	mu      sync.Mutex
	records []storage.PerformanceRecord
	failAll bool
}

func newMockStorage() *mockStorage {
	return &mockStorage{}
}

func (m *mockStorage) Init() error {
	if m.failAll {
		return errors.New("storage unavailable")
	}
	return nil
}

func (m *mockStorage) RecordPerformance(rec storage.PerformanceRecord) error {
	if m.failAll {
		return errors.New("storage unavailable")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = append(m.records, rec)
	return nil
}

func (m *mockStorage) GetPerformanceHistory(since time.Time) ([]storage.PerformanceRecord, error) {
	if m.failAll {
		return nil, errors.New("storage unavailable")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []storage.PerformanceRecord
	for _, r := range m.records {
		if r.Timestamp.After(since) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *mockStorage) EnqueueContribution(c storage.Contribution) error      { return nil }
func (m *mockStorage) GetContributionQueue() ([]storage.Contribution, error) { return nil, nil }
func (m *mockStorage) ClearContributionQueue() error                         { return nil }
func (m *mockStorage) SaveGlobalModel(gm storage.GlobalModel) error          { return nil }
func (m *mockStorage) GetGlobalModel() (*storage.GlobalModel, error)         { return nil, nil }
func (m *mockStorage) Close() error                                          { return nil }

func (m *mockStorage) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.records)
}
