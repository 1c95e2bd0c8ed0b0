package table

import (
	"context"
	"encoding/json"
	"fmt"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/klauspost/compress/zstd"
)

// CommitMessage pairs one partition key with the data files relocated into
// it. It is immutable once built and consumed exactly once by Commit.
type CommitMessage struct {
	Partition PartitionKey
	Files     []FileEntry
}

// FileEntry describes one data file referenced by a snapshot.
type FileEntry struct {
	Path      string                `json:"path"`
	Format    string                `json:"format"`
	SizeBytes int64                 `json:"size_bytes"`
	RowCount  int64                 `json:"row_count"`
	Columns   map[string]ColumnStat `json:"columns,omitempty"`
}

// ColumnStat mirrors the extractor output in the manifest.
type ColumnStat struct {
	Min       string `json:"min,omitempty"`
	Max       string `json:"max,omitempty"`
	NullCount int64  `json:"null_count"`
}

// Snapshot is the durable record of one commit.
type Snapshot struct {
	ID         int64     `json:"id"`
	SchemaID   int64     `json:"schema_id"`
	CommitUUID string    `json:"commit_uuid"`
	Manifest   string    `json:"manifest"`
	FileCount  int       `json:"file_count"`
	RowCount   int64     `json:"row_count"`
	CommitAt   time.Time `json:"commit_at"`
}

// manifestEntry is one partition's slice of the manifest file.
type manifestEntry struct {
	Partition    string      `json:"partition,omitempty"`
	PartitionKey string      `json:"partition_key,omitempty"` // hex key bytes
	Files        []FileEntry `json:"files"`
}

// Committer applies commit messages to a table as one atomic snapshot.
type Committer struct {
	table *FileStoreTable
}

// Commit writes a manifest for all messages, then publishes a new snapshot.
// The final rename of the LATEST pointer is the commit point: before it, no
// reader observes the snapshot; after it, the commit is complete. All-or-
// nothing: on any failure the partially written manifest and snapshot files
// are removed and the previous snapshot remains current.
func (c *Committer) Commit(ctx context.Context, messages []CommitMessage) (*Snapshot, error) {
	fs := c.table.fs

	current, err := c.LatestSnapshotID(ctx)
	if err != nil {
		return nil, err
	}
	next := current + 1

	entries := make([]manifestEntry, 0, len(messages))
	var fileCount int
	var rowCount int64
	for _, msg := range messages {
		entries = append(entries, manifestEntry{
			Partition:    msg.Partition.Name,
			PartitionKey: msg.Partition.Hex(),
			Files:        msg.Files,
		})
		fileCount += len(msg.Files)
		for _, f := range msg.Files {
			rowCount += f.RowCount
		}
	}

	manifestName := fmt.Sprintf("manifest-%s.json.zst", uuid.NewString())
	manifestPath := path.Join(c.table.manifestDir(), manifestName)

	raw, err := json.Marshal(entries)
	if err != nil {
		return nil, fmt.Errorf("marshal manifest: %w", err)
	}
	enc, err := zstd.NewWriter(nil)
	if err != nil {
		return nil, fmt.Errorf("create zstd encoder: %w", err)
	}
	compressed := enc.EncodeAll(raw, nil)
	enc.Close()

	if err := fs.WriteFile(ctx, manifestPath, compressed); err != nil {
		return nil, fmt.Errorf("write manifest: %w", err)
	}

	snapshot := &Snapshot{
		ID:         next,
		SchemaID:   0,
		CommitUUID: uuid.NewString(),
		Manifest:   manifestName,
		FileCount:  fileCount,
		RowCount:   rowCount,
		CommitAt:   time.Now().UTC(),
	}

	snapData, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		fs.Remove(ctx, manifestPath)
		return nil, fmt.Errorf("marshal snapshot: %w", err)
	}

	snapPath := path.Join(c.table.snapshotDir(), fmt.Sprintf("snapshot-%d", next))
	if err := fs.WriteFile(ctx, snapPath, snapData); err != nil {
		fs.Remove(ctx, manifestPath)
		return nil, fmt.Errorf("write snapshot %d: %w", next, err)
	}

	// Commit point.
	latest := path.Join(c.table.snapshotDir(), "LATEST")
	if err := fs.WriteFile(ctx, latest, []byte(strconv.FormatInt(next, 10))); err != nil {
		fs.Remove(ctx, snapPath)
		fs.Remove(ctx, manifestPath)
		return nil, fmt.Errorf("publish snapshot %d: %w", next, err)
	}

	return snapshot, nil
}

// LatestSnapshotID returns the current snapshot id, or 0 when the table has
// never been committed to.
func (c *Committer) LatestSnapshotID(ctx context.Context) (int64, error) {
	latest := path.Join(c.table.snapshotDir(), "LATEST")
	exists, err := c.table.fs.Exists(ctx, latest)
	if err != nil {
		return 0, err
	}
	if !exists {
		return 0, nil
	}
	data, err := c.table.fs.ReadFile(ctx, latest)
	if err != nil {
		return 0, fmt.Errorf("read snapshot pointer: %w", err)
	}
	id, err := strconv.ParseInt(strings.TrimSpace(string(data)), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse snapshot pointer: %w", err)
	}
	return id, nil
}

// ReadSnapshot loads one snapshot record by id.
func (c *Committer) ReadSnapshot(ctx context.Context, id int64) (*Snapshot, error) {
	data, err := c.table.fs.ReadFile(ctx, path.Join(c.table.snapshotDir(), fmt.Sprintf("snapshot-%d", id)))
	if err != nil {
		return nil, fmt.Errorf("read snapshot %d: %w", id, err)
	}
	var s Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parse snapshot %d: %w", id, err)
	}
	return &s, nil
}

// ReadManifest loads and decompresses the manifest of a snapshot.
func (c *Committer) ReadManifest(ctx context.Context, s *Snapshot) ([]CommitMessage, error) {
	compressed, err := c.table.fs.ReadFile(ctx, path.Join(c.table.manifestDir(), s.Manifest))
	if err != nil {
		return nil, fmt.Errorf("read manifest %s: %w", s.Manifest, err)
	}

	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, err
	}
	defer dec.Close()
	raw, err := dec.DecodeAll(compressed, nil)
	if err != nil {
		return nil, fmt.Errorf("decompress manifest %s: %w", s.Manifest, err)
	}

	var entries []manifestEntry
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, fmt.Errorf("parse manifest %s: %w", s.Manifest, err)
	}

	messages := make([]CommitMessage, 0, len(entries))
	for _, e := range entries {
		messages = append(messages, CommitMessage{
			Partition: PartitionKey{Name: e.Partition},
			Files:     e.Files,
		})
	}
	return messages, nil
}
