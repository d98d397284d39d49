// Package store provides an in-memory payroll.Store for tests and demos.
package store

import (
	"context"
	"sort"
	"sync"

	"github.com/warp/payroll-engine/payroll"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

type Memory struct {
	mu      sync.RWMutex
	entries map[payroll.WorkerID][]payroll.ProductionEntry
	rates   map[payroll.StyleID][]payroll.StyleRate
	rules   map[payroll.RuleID]payroll.BonusRule
	workers map[payroll.WorkerID]payroll.Worker
}

func NewMemory() *Memory {
	return &Memory{
		entries: make(map[payroll.WorkerID][]payroll.ProductionEntry),
		rates:   make(map[payroll.StyleID][]payroll.StyleRate),
		rules:   make(map[payroll.RuleID]payroll.BonusRule),
		workers: make(map[payroll.WorkerID]payroll.Worker),
	}
}

var _ payroll.Store = (*Memory)(nil)

// AddEntry inserts a production entry, keeping the worker's entries sorted
// by date (stable: same-date entries keep insertion order, matching the
// sqlite store's date-then-created ordering).
func (m *Memory) AddEntry(entry payroll.ProductionEntry) {
	m.mu.Lock()
	defer m.mu.Unlock()

	list := m.entries[entry.WorkerID]
	i := sort.Search(len(list), func(i int) bool {
		return list[i].Date.After(entry.Date)
	})
	list = append(list, payroll.ProductionEntry{})
	copy(list[i+1:], list[i:])
	list[i] = entry
	m.entries[entry.WorkerID] = list
}

func (m *Memory) AddRate(rate payroll.StyleRate) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rates[rate.StyleID] = append(m.rates[rate.StyleID], rate)
}

func (m *Memory) AddRule(rule payroll.BonusRule) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rules[rule.ID] = rule
}

func (m *Memory) AddWorker(worker payroll.Worker) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.workers[worker.ID] = worker
}

// =============================================================================
// payroll.Store
// =============================================================================

func (m *Memory) ProductionEntries(_ context.Context, workerID payroll.WorkerID, period payroll.Period) ([]payroll.ProductionEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []payroll.ProductionEntry
	for _, e := range m.entries[workerID] {
		if period.Contains(e.Date) {
			result = append(result, e)
		}
	}
	return result, nil
}

func (m *Memory) StyleRates(_ context.Context, styleID payroll.StyleID) ([]payroll.StyleRate, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]payroll.StyleRate, len(m.rates[styleID]))
	copy(result, m.rates[styleID])
	return result, nil
}

func (m *Memory) BonusRule(_ context.Context, ruleID payroll.RuleID) (*payroll.BonusRule, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	rule, ok := m.rules[ruleID]
	if !ok {
		return nil, nil
	}
	return &rule, nil
}

func (m *Memory) Worker(_ context.Context, workerID payroll.WorkerID) (*payroll.Worker, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	w, ok := m.workers[workerID]
	if !ok {
		return nil, nil
	}
	return &w, nil
}
