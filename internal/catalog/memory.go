package catalog

import (
	"context"
	"fmt"
	"sync"
)

// Memory is an in-process catalog. It backs tests and embedded single-node
// deployments where no external metastore is available.
type Memory struct {
	mu          sync.RWMutex
	tables      map[Identifier]*Table
	partitions  map[Identifier][]Partition
	primaryKeys map[Identifier][]string
}

// NewMemory creates an empty in-memory catalog.
func NewMemory() *Memory {
	return &Memory{
		tables:      make(map[Identifier]*Table),
		partitions:  make(map[Identifier][]Partition),
		primaryKeys: make(map[Identifier][]string),
	}
}

// RegisterTable adds a table descriptor.
func (m *Memory) RegisterTable(t *Table) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tables[t.ID] = t
}

// AddPartition records a partition for a previously registered table.
func (m *Memory) AddPartition(id Identifier, p Partition) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.partitions[id] = append(m.partitions[id], p)
}

// SetPrimaryKeys records primary-key columns for a table.
func (m *Memory) SetPrimaryKeys(id Identifier, cols []string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.primaryKeys[id] = cols
}

func (m *Memory) TableExists(ctx context.Context, id Identifier) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.tables[id]
	return ok, nil
}

func (m *Memory) GetTable(ctx context.Context, id Identifier) (*Table, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, ok := m.tables[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrTableNotFound, id)
	}
	return t, nil
}

func (m *Memory) ListPartitionNames(ctx context.Context, id Identifier) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if _, ok := m.tables[id]; !ok {
		return nil, fmt.Errorf("%w: %s", ErrTableNotFound, id)
	}
	names := make([]string, 0, len(m.partitions[id]))
	for _, p := range m.partitions[id] {
		names = append(names, p.Name)
	}
	return names, nil
}

func (m *Memory) GetPartition(ctx context.Context, id Identifier, name string) (*Partition, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for i := range m.partitions[id] {
		if m.partitions[id][i].Name == name {
			p := m.partitions[id][i]
			return &p, nil
		}
	}
	return nil, fmt.Errorf("partition %q of %s not found", name, id)
}

func (m *Memory) PartitionSpec(ctx context.Context, id Identifier, name string) (map[string]string, error) {
	return ParsePartitionName(name)
}

func (m *Memory) PrimaryKeys(ctx context.Context, id Identifier) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.primaryKeys[id], nil
}

func (m *Memory) DropTable(ctx context.Context, id Identifier) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.tables[id]; !ok {
		return fmt.Errorf("%w: %s", ErrTableNotFound, id)
	}
	delete(m.tables, id)
	delete(m.partitions, id)
	delete(m.primaryKeys, id)
	return nil
}
