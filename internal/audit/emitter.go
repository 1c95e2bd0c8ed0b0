package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Emitter sends audit events somewhere durable.
type Emitter interface {
	Emit(ctx context.Context, e *Event) error
	Close() error
}

// Config selects the emitter backend.
type Config struct {
	Enabled  bool   `yaml:"enabled"`
	Endpoint string `yaml:"endpoint"`
	Dir      string `yaml:"dir"`
}

// New builds an emitter from config. Disabled config yields a no-op emitter.
func New(cfg Config, log *slog.Logger) (Emitter, error) {
	if !cfg.Enabled {
		return &noopEmitter{}, nil
	}
	if cfg.Endpoint != "" {
		return &httpEmitter{
			endpoint: cfg.Endpoint,
			client:   &http.Client{Timeout: 10 * time.Second},
			chains:   make(map[string]string),
			log:      log,
		}, nil
	}
	if cfg.Dir != "" {
		if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
			return nil, fmt.Errorf("create audit dir: %w", err)
		}
		return &fileEmitter{dir: cfg.Dir, chains: make(map[string]string), log: log}, nil
	}
	return nil, fmt.Errorf("audit enabled but no endpoint or dir configured")
}

type noopEmitter struct{}

func (*noopEmitter) Emit(context.Context, *Event) error { return nil }
func (*noopEmitter) Close() error                       { return nil }

// fileEmitter appends events as JSON lines, one file per day.
type fileEmitter struct {
	mu     sync.Mutex
	dir    string
	chains map[string]string
	log    *slog.Logger
}

func (f *fileEmitter) Emit(_ context.Context, e *Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.seal(e)

	path := filepath.Join(f.dir, e.Timestamp.UTC().Format("2006-01-02")+".jsonl")
	line, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal audit event: %w", err)
	}
	fh, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open audit log: %w", err)
	}
	defer fh.Close()
	if _, err := fh.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("write audit event: %w", err)
	}
	return nil
}

func (f *fileEmitter) seal(e *Event) {
	key := e.ChainKey()
	e.Chain.PrevEventHash = f.chains[key]
	e.Chain.EventHash = ComputeEventHash(e)
	f.chains[key] = e.Chain.EventHash
}

func (f *fileEmitter) Close() error { return nil }

// httpEmitter posts events to a collector endpoint.
type httpEmitter struct {
	mu       sync.Mutex
	endpoint string
	client   *http.Client
	chains   map[string]string
	log      *slog.Logger
}

func (h *httpEmitter) Emit(ctx context.Context, e *Event) error {
	h.mu.Lock()
	key := e.ChainKey()
	e.Chain.PrevEventHash = h.chains[key]
	e.Chain.EventHash = ComputeEventHash(e)
	h.chains[key] = e.Chain.EventHash
	h.mu.Unlock()

	body, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal audit event: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build audit request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := h.client.Do(req)
	if err != nil {
		return fmt.Errorf("post audit event: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("audit collector returned %s", resp.Status)
	}
	return nil
}

func (h *httpEmitter) Close() error {
	h.client.CloseIdleConnections()
	return nil
}
