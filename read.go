package taskstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
)

// Get returns the cached record with the given identity, or ok=false when no
// live revision exists. Deleted records read as absent.
func Get[T Record](ctx context.Context, s *Store, id string) (T, bool, error) {
	var zero T
	collection := collectionOf[T]()
	if err := validateCollection(collection); err != nil {
		return zero, false, err
	}
	if err := validateIdentity(collection, id); err != nil {
		return zero, false, err
	}

	var body string
	err := s.db.QueryRowContext(ctx, `
		SELECT body FROM records WHERE collection = ? AND id = ?
	`, collection, id).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return zero, false, nil
	}
	if err != nil {
		return zero, false, newError(ErrCodeCache, collection, id, "read record", err)
	}

	var rec T
	if err := json.Unmarshal([]byte(body), &rec); err != nil {
		return zero, false, newError(ErrCodeDeserialize, collection, id, "decode record", err)
	}
	return rec, true, nil
}

// List returns the live records of T's collection matching every filter,
// decoded into T. Undecodable bodies are skipped with a warning rather than
// failing the whole listing. The result is never nil.
func List[T Record](ctx context.Context, s *Store, filters []Filter, opts ListOptions) ([]T, error) {
	collection := collectionOf[T]()
	rows, err := s.listRows(ctx, collection, filters, opts)
	if err != nil {
		return nil, err
	}

	out := make([]T, 0, len(rows))
	for _, row := range rows {
		var rec T
		if err := json.Unmarshal([]byte(row.Body), &rec); err != nil {
			s.logger.Warn("skipping undecodable record",
				"collection", collection, "id", row.ID, "error", err)
			skippedTotal.WithLabelValues(collection).Inc()
			continue
		}
		out = append(out, rec)
	}
	return out, nil
}

// RawRecord is an untyped listing row, used by tooling that inspects a store
// without knowing its record types.
type RawRecord struct {
	ID        string
	Body      string
	UpdatedAt int64
}

// ListRaw is List without decoding: it returns the raw cached bodies of a
// collection named at runtime.
func (s *Store) ListRaw(ctx context.Context, collection string, filters []Filter, opts ListOptions) ([]RawRecord, error) {
	if err := validateCollection(collection); err != nil {
		return nil, err
	}
	return s.listRows(ctx, collection, filters, opts)
}

// GetRaw returns the raw cached body for (collection, id).
func (s *Store) GetRaw(ctx context.Context, collection, id string) (RawRecord, bool, error) {
	if err := validateCollection(collection); err != nil {
		return RawRecord{}, false, err
	}
	if err := validateIdentity(collection, id); err != nil {
		return RawRecord{}, false, err
	}

	var rec RawRecord
	err := s.db.QueryRowContext(ctx, `
		SELECT id, body, updated_at FROM records WHERE collection = ? AND id = ?
	`, collection, id).Scan(&rec.ID, &rec.Body, &rec.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return RawRecord{}, false, nil
	}
	if err != nil {
		return RawRecord{}, false, newError(ErrCodeCache, collection, id, "read record", err)
	}
	return rec, true, nil
}

// Collections returns the names of every collection with a log file,
// in name order.
func (s *Store) Collections() ([]string, error) {
	paths, err := s.logFiles()
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(paths))
	for _, path := range paths {
		names = append(names, collectionFromPath(path))
	}
	return names, nil
}

func (s *Store) listRows(ctx context.Context, collection string, filters []Filter, opts ListOptions) ([]RawRecord, error) {
	query, args, err := buildListQuery(collection, filters, opts)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, newError(ErrCodeCache, collection, "", "query records", err)
	}
	defer rows.Close()

	out := make([]RawRecord, 0)
	for rows.Next() {
		var rec RawRecord
		if err := rows.Scan(&rec.ID, &rec.Body, &rec.UpdatedAt); err != nil {
			return nil, newError(ErrCodeCache, collection, "", "scan record row", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, newError(ErrCodeCache, collection, "", "iterate record rows", err)
	}
	return out, nil
}
