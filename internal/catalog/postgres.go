package catalog

import (
	"context"
	_ "embed"
	"fmt"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

//go:embed schema.sql
var schemaSQL string

// Postgres is a Catalog backed by a PostgreSQL metastore mirror.
type Postgres struct {
	pool *pgxpool.Pool

	mu      sync.RWMutex
	idCache map[Identifier]int64
}

// NewPostgres connects to the metastore and ensures its schema exists.
func NewPostgres(dsn string) (*Postgres, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	poolCfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse DSN: %w", err)
	}

	poolCfg.MaxConns = 5
	poolCfg.MinConns = 1
	poolCfg.MaxConnLifetime = 30 * time.Minute
	poolCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	c := &Postgres{
		pool:    pool,
		idCache: make(map[Identifier]int64),
	}

	if _, err := pool.Exec(ctx, schemaSQL); err != nil {
		pool.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}

	return c, nil
}

// Close releases the connection pool.
func (c *Postgres) Close() {
	c.pool.Close()
}

func (c *Postgres) tableID(ctx context.Context, id Identifier) (int64, error) {
	c.mu.RLock()
	if tid, ok := c.idCache[id]; ok {
		c.mu.RUnlock()
		return tid, nil
	}
	c.mu.RUnlock()

	var tid int64
	err := c.pool.QueryRow(ctx,
		`SELECT id FROM _meta_tables WHERE database_name = $1 AND table_name = $2`,
		id.Database, id.Table,
	).Scan(&tid)
	if err == pgx.ErrNoRows {
		return 0, fmt.Errorf("%w: %s", ErrTableNotFound, id)
	}
	if err != nil {
		return 0, fmt.Errorf("lookup table %s: %w", id, err)
	}

	c.mu.Lock()
	c.idCache[id] = tid
	c.mu.Unlock()
	return tid, nil
}

func (c *Postgres) TableExists(ctx context.Context, id Identifier) (bool, error) {
	var exists bool
	err := c.pool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM _meta_tables WHERE database_name = $1 AND table_name = $2)`,
		id.Database, id.Table,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check table exists: %w", err)
	}
	return exists, nil
}

func (c *Postgres) GetTable(ctx context.Context, id Identifier) (*Table, error) {
	tid, err := c.tableID(ctx, id)
	if err != nil {
		return nil, err
	}

	t := &Table{ID: id, Parameters: make(map[string]string)}
	err = c.pool.QueryRow(ctx,
		`SELECT location, serde_lib, parameters FROM _meta_tables WHERE id = $1`,
		tid,
	).Scan(&t.Location, &t.SerdeLib, &t.Parameters)
	if err != nil {
		return nil, fmt.Errorf("get table %s: %w", id, err)
	}

	rows, err := c.pool.Query(ctx,
		`SELECT column_name, column_type, comment, is_partition
		 FROM _meta_columns WHERE table_id = $1 ORDER BY ordinal`,
		tid,
	)
	if err != nil {
		return nil, fmt.Errorf("get columns of %s: %w", id, err)
	}
	defer rows.Close()

	for rows.Next() {
		var f Field
		var isPartition bool
		if err := rows.Scan(&f.Name, &f.Type, &f.Comment, &isPartition); err != nil {
			return nil, fmt.Errorf("scan column of %s: %w", id, err)
		}
		t.Fields = append(t.Fields, f)
		if isPartition {
			t.PartitionKeys = append(t.PartitionKeys, f)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate columns of %s: %w", id, err)
	}
	return t, nil
}

func (c *Postgres) ListPartitionNames(ctx context.Context, id Identifier) ([]string, error) {
	tid, err := c.tableID(ctx, id)
	if err != nil {
		return nil, err
	}

	rows, err := c.pool.Query(ctx,
		`SELECT partition_name FROM _meta_partitions WHERE table_id = $1 ORDER BY partition_name`,
		tid,
	)
	if err != nil {
		return nil, fmt.Errorf("list partitions of %s: %w", id, err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan partition of %s: %w", id, err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

func (c *Postgres) GetPartition(ctx context.Context, id Identifier, name string) (*Partition, error) {
	tid, err := c.tableID(ctx, id)
	if err != nil {
		return nil, err
	}

	p := &Partition{Name: name}
	err = c.pool.QueryRow(ctx,
		`SELECT location, serde_lib FROM _meta_partitions WHERE table_id = $1 AND partition_name = $2`,
		tid, name,
	).Scan(&p.Location, &p.SerdeLib)
	if err == pgx.ErrNoRows {
		return nil, fmt.Errorf("partition %q of %s not found", name, id)
	}
	if err != nil {
		return nil, fmt.Errorf("get partition %q of %s: %w", name, id, err)
	}
	return p, nil
}

func (c *Postgres) PartitionSpec(ctx context.Context, id Identifier, name string) (map[string]string, error) {
	return ParsePartitionName(name)
}

func (c *Postgres) PrimaryKeys(ctx context.Context, id Identifier) ([]string, error) {
	tid, err := c.tableID(ctx, id)
	if err != nil {
		return nil, err
	}

	rows, err := c.pool.Query(ctx,
		`SELECT column_name FROM _meta_primary_keys WHERE table_id = $1`,
		tid,
	)
	if err != nil {
		return nil, fmt.Errorf("get primary keys of %s: %w", id, err)
	}
	defer rows.Close()

	var cols []string
	for rows.Next() {
		var col string
		if err := rows.Scan(&col); err != nil {
			return nil, err
		}
		cols = append(cols, col)
	}
	return cols, rows.Err()
}

func (c *Postgres) DropTable(ctx context.Context, id Identifier) error {
	tid, err := c.tableID(ctx, id)
	if err != nil {
		return err
	}

	if _, err := c.pool.Exec(ctx, `DELETE FROM _meta_tables WHERE id = $1`, tid); err != nil {
		return fmt.Errorf("drop table %s: %w", id, err)
	}

	c.mu.Lock()
	delete(c.idCache, id)
	c.mu.Unlock()
	return nil
}
