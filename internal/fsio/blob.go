package fsio

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"gocloud.dev/blob"
	_ "gocloud.dev/blob/fileblob"
	_ "gocloud.dev/blob/gcsblob"
	_ "gocloud.dev/blob/s3blob"
)

// Blob implements FileIO on top of a gocloud.dev bucket (GCS, S3, or any
// s3-compatible endpoint). Object stores have no rename primitive, so Rename
// is copy+delete and is NOT atomic; rollback on these backends can observe a
// file at both paths briefly. Local filesystems are the supported substrate
// when strict rename atomicity is required.
type Blob struct {
	bucket *blob.Bucket
}

// OpenBlob opens a bucket by URL, e.g. "s3://bucket?region=us-east-1" or
// "gs://bucket".
func OpenBlob(ctx context.Context, bucketURL string) (*Blob, error) {
	bucket, err := blob.OpenBucket(ctx, bucketURL)
	if err != nil {
		return nil, fmt.Errorf("open bucket %s: %w", bucketURL, err)
	}
	return &Blob{bucket: bucket}, nil
}

// NewBlob wraps an already-open bucket.
func NewBlob(bucket *blob.Bucket) *Blob {
	return &Blob{bucket: bucket}
}

func (b *Blob) Exists(ctx context.Context, p string) (bool, error) {
	key := normalizeKey(p)
	ok, err := b.bucket.Exists(ctx, key)
	if err != nil {
		return false, err
	}
	if ok {
		return true, nil
	}
	// A "directory" exists when at least one key lives under it.
	iter := b.bucket.List(&blob.ListOptions{Prefix: key + "/"})
	if _, err := iter.Next(ctx); err == nil {
		return true, nil
	} else if err != io.EOF {
		return false, err
	}
	return false, nil
}

// MkdirAll is a no-op: object stores have no directories.
func (b *Blob) MkdirAll(ctx context.Context, p string) error {
	return nil
}

func (b *Blob) Rename(ctx context.Context, oldPath, newPath string) error {
	oldKey, newKey := normalizeKey(oldPath), normalizeKey(newPath)
	if err := b.bucket.Copy(ctx, newKey, oldKey, nil); err != nil {
		return fmt.Errorf("copy %s to %s: %w", oldKey, newKey, err)
	}
	if err := b.bucket.Delete(ctx, oldKey); err != nil {
		return fmt.Errorf("delete %s after copy: %w", oldKey, err)
	}
	return nil
}

func (b *Blob) List(ctx context.Context, dir string) ([]FileStatus, error) {
	prefix := normalizeKey(dir)
	if prefix != "" {
		prefix += "/"
	}

	var statuses []FileStatus
	iter := b.bucket.List(&blob.ListOptions{Prefix: prefix, Delimiter: "/"})
	for {
		obj, err := iter.Next(ctx)
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("list %s: %w", prefix, err)
		}
		statuses = append(statuses, FileStatus{
			Path:  strings.TrimSuffix(obj.Key, "/"),
			Name:  path.Base(strings.TrimSuffix(obj.Key, "/")),
			Size:  obj.Size,
			IsDir: obj.IsDir,
		})
	}
	return statuses, nil
}

func (b *Blob) Open(ctx context.Context, p string) (File, error) {
	key := normalizeKey(p)
	attrs, err := b.bucket.Attributes(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("attributes %s: %w", key, err)
	}
	r, err := b.bucket.NewReader(ctx, key, nil)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", key, err)
	}
	return &blobFile{ctx: ctx, bucket: b.bucket, key: key, r: r, size: attrs.Size}, nil
}

func (b *Blob) ReadFile(ctx context.Context, p string) ([]byte, error) {
	return b.bucket.ReadAll(ctx, normalizeKey(p))
}

func (b *Blob) WriteFile(ctx context.Context, p string, data []byte) error {
	key := normalizeKey(p)
	w, err := b.bucket.NewWriter(ctx, key, nil)
	if err != nil {
		return fmt.Errorf("write %s: %w", key, err)
	}
	if _, err := w.Write(data); err != nil {
		w.Close()
		return fmt.Errorf("write %s: %w", key, err)
	}
	return w.Close()
}

func (b *Blob) Remove(ctx context.Context, p string) error {
	return b.bucket.Delete(ctx, normalizeKey(p))
}

func (b *Blob) RemoveAll(ctx context.Context, p string) error {
	prefix := normalizeKey(p)
	if prefix != "" {
		prefix += "/"
	}
	iter := b.bucket.List(&blob.ListOptions{Prefix: prefix})
	for {
		obj, err := iter.Next(ctx)
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("list %s: %w", prefix, err)
		}
		if err := b.bucket.Delete(ctx, obj.Key); err != nil {
			return fmt.Errorf("delete %s: %w", obj.Key, err)
		}
	}
	return nil
}

// Close releases the underlying bucket.
func (b *Blob) Close() error {
	return b.bucket.Close()
}

func normalizeKey(p string) string {
	return strings.Trim(path.Clean(p), "/")
}

// blobFile adapts a bucket object to the File interface. Sequential reads use
// a streaming reader; ReadAt issues range reads.
type blobFile struct {
	ctx    context.Context
	bucket *blob.Bucket
	key    string
	r      *blob.Reader
	size   int64
}

func (f *blobFile) Read(p []byte) (int, error) {
	return f.r.Read(p)
}

func (f *blobFile) ReadAt(p []byte, off int64) (int, error) {
	rr, err := f.bucket.NewRangeReader(f.ctx, f.key, off, int64(len(p)), nil)
	if err != nil {
		return 0, err
	}
	defer rr.Close()
	return io.ReadFull(rr, p)
}

func (f *blobFile) Size() int64 {
	return f.size
}

func (f *blobFile) Close() error {
	return f.r.Close()
}
