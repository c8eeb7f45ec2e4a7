package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/mesh-intelligence/prefstore/pkg/types"
)

// Get reads from the mirror.
func (b *Backend) Get(ctx context.Context, namespace, key string) (types.Value, bool, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if err := b.check(namespace); err != nil {
		return types.Value{}, false, err
	}
	v, ok := b.mirror[namespace][key]
	return v, ok, nil
}

// Put upserts a batch in one transaction (or one queued write). Under the
// immediate strategy the mirror changes only after the database accepted the
// batch. Under deferred strategies the mirror takes the batch when it is
// queued and leads the database until the next flush.
func (b *Backend) Put(ctx context.Context, namespace string, entries types.Entries) error {
	if len(entries) == 0 {
		return nil
	}

	type row struct {
		key, kind, payload string
	}
	rows := make([]row, 0, len(entries))
	for key, v := range entries {
		if key == "" {
			return types.ErrEmptyKey
		}
		payload, err := v.MarshalPayload()
		if err != nil {
			return fmt.Errorf("encoding %s/%s: %w", namespace, key, err)
		}
		rows = append(rows, row{key: key, kind: string(v.Kind()), payload: string(payload)})
	}
	batch := entries.Clone()

	b.mu.Lock()
	defer b.mu.Unlock()

	if err := b.check(namespace); err != nil {
		return err
	}

	now := time.Now().UTC().Format(time.RFC3339Nano)
	err := b.persist(ctx, namespace, "put", func(ctx context.Context, tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, upsertEntry)
		if err != nil {
			return fmt.Errorf("preparing upsert: %w", err)
		}
		defer stmt.Close()
		for _, r := range rows {
			if _, err := stmt.ExecContext(ctx, namespace, r.key, r.kind, r.payload, now); err != nil {
				return fmt.Errorf("upserting %s/%s: %w", namespace, r.key, err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	ns, ok := b.mirror[namespace]
	if !ok {
		ns = make(types.Entries, len(batch))
		b.mirror[namespace] = ns
	}
	for key, v := range batch {
		ns[key] = v
	}
	return nil
}

// Remove deletes keys. Missing keys are ignored.
func (b *Backend) Remove(ctx context.Context, namespace string, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	keys = append([]string(nil), keys...)

	b.mu.Lock()
	defer b.mu.Unlock()

	if err := b.check(namespace); err != nil {
		return err
	}

	err := b.persist(ctx, namespace, "remove", func(ctx context.Context, tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, deleteEntry)
		if err != nil {
			return fmt.Errorf("preparing delete: %w", err)
		}
		defer stmt.Close()
		for _, key := range keys {
			if _, err := stmt.ExecContext(ctx, namespace, key); err != nil {
				return fmt.Errorf("deleting %s/%s: %w", namespace, key, err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	ns := b.mirror[namespace]
	for _, key := range keys {
		delete(ns, key)
	}
	return nil
}

// Clear deletes every row of namespace.
func (b *Backend) Clear(ctx context.Context, namespace string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err := b.check(namespace); err != nil {
		return err
	}

	err := b.persist(ctx, namespace, "clear", func(ctx context.Context, tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, deleteNamespace, namespace); err != nil {
			return fmt.Errorf("clearing %s: %w", namespace, err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	delete(b.mirror, namespace)
	return nil
}

// Keys lists the keys of namespace in no particular order.
func (b *Backend) Keys(ctx context.Context, namespace string) ([]string, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if err := b.check(namespace); err != nil {
		return nil, err
	}
	ns := b.mirror[namespace]
	keys := make([]string, 0, len(ns))
	for key := range ns {
		keys = append(keys, key)
	}
	return keys, nil
}

// Entries returns a copy of every entry in namespace.
func (b *Backend) Entries(ctx context.Context, namespace string) (types.Entries, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if err := b.check(namespace); err != nil {
		return nil, err
	}
	return b.mirror[namespace].Clone(), nil
}

// check must be called with b.mu held.
func (b *Backend) check(namespace string) error {
	if !b.attached {
		return types.ErrDetached
	}
	if namespace == "" {
		return types.ErrEmptyNamespace
	}
	return nil
}
