package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"sort"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/MRamiBalles/heatcity/internal/domain/content"
	"github.com/MRamiBalles/heatcity/internal/domain/ids"
	"github.com/MRamiBalles/heatcity/internal/platform/logger"
)

// DefaultContentCacheSize bounds each by-ID cache of the content store.
const DefaultContentCacheSize = 256

// SQLiteContentStore serves content from the database. The whole store is
// checked for referential integrity when it is opened; afterwards powers,
// expressions and acquisitions are read on demand through LRU caches.
// Content is read-only at runtime, so cached entries never go stale.
type SQLiteContentStore struct {
	db     *sql.DB
	logger *logger.Logger

	powers       *lru.Cache[ids.PowerID, content.Power]
	expressions  *lru.Cache[ids.ExpressionID, content.Expression]
	acquisitions *lru.Cache[ids.AcquisitionID, content.Acquisition]

	storylets      []content.Storylet
	nemesisActions []content.NemesisAction
}

// OpenSQLiteContent validates the stored content and returns a store over it.
// A broken store fails with *content.IntegrityError.
func OpenSQLiteContent(ctx context.Context, db *sql.DB, cacheSize int, log *logger.Logger) (*SQLiteContentStore, error) {
	if cacheSize <= 0 {
		cacheSize = DefaultContentCacheSize
	}
	set, err := ReadContentSet(ctx, db)
	if err != nil {
		return nil, err
	}
	if err := content.CheckIntegrity(set); err != nil {
		return nil, err
	}

	s := &SQLiteContentStore{db: db, logger: log}
	if s.powers, err = lru.New[ids.PowerID, content.Power](cacheSize); err != nil {
		return nil, err
	}
	if s.expressions, err = lru.New[ids.ExpressionID, content.Expression](cacheSize); err != nil {
		return nil, err
	}
	if s.acquisitions, err = lru.New[ids.AcquisitionID, content.Acquisition](cacheSize); err != nil {
		return nil, err
	}
	s.storylets = set.Storylets
	sort.Slice(s.storylets, func(i, j int) bool { return s.storylets[i].ID < s.storylets[j].ID })
	s.nemesisActions = set.NemesisActions
	sort.Slice(s.nemesisActions, func(i, j int) bool { return s.nemesisActions[i].ID < s.nemesisActions[j].ID })

	log.Info(fmt.Sprintf("content store ready: %d powers, %d expressions, %d storylets",
		len(set.Powers), len(set.Expressions), len(set.Storylets)))
	return s, nil
}

func (s *SQLiteContentStore) GetPower(id ids.PowerID) (content.Power, bool) {
	return cachedLookup(s, s.powers, id, `SELECT payload FROM content_powers WHERE power_id = ?`)
}

func (s *SQLiteContentStore) GetExpression(id ids.ExpressionID) (content.Expression, bool) {
	return cachedLookup(s, s.expressions, id, `SELECT payload FROM content_expressions WHERE expression_id = ?`)
}

func (s *SQLiteContentStore) GetAcquisition(id ids.AcquisitionID) (content.Acquisition, bool) {
	return cachedLookup(s, s.acquisitions, id, `SELECT payload FROM content_acquisitions WHERE acquisition_id = ?`)
}

func (s *SQLiteContentStore) Storylets() []content.Storylet { return slices.Clone(s.storylets) }

func (s *SQLiteContentStore) NemesisActions() []content.NemesisAction {
	return slices.Clone(s.nemesisActions)
}

// CacheLen reports how many powers, expressions and acquisitions are cached.
func (s *SQLiteContentStore) CacheLen() int {
	return s.powers.Len() + s.expressions.Len() + s.acquisitions.Len()
}

// cachedLookup reads one row through the cache. Read errors are logged and
// reported as a miss: the repository port has no error channel.
func cachedLookup[K ~string, V any](s *SQLiteContentStore, cache *lru.Cache[K, V], id K, query string) (V, bool) {
	if v, ok := cache.Get(id); ok {
		return v, true
	}
	var zero V
	var payload string
	err := s.db.QueryRow(query, string(id)).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return zero, false
	}
	if err != nil {
		s.logger.Error(fmt.Sprintf("content lookup %s: %v", id, err))
		return zero, false
	}
	var v V
	if err := json.Unmarshal([]byte(payload), &v); err != nil {
		s.logger.Error(fmt.Sprintf("content decode %s: %v", id, err))
		return zero, false
	}
	cache.Add(id, v)
	return v, true
}

// ReadContentSet loads every content row.
func ReadContentSet(ctx context.Context, db *sql.DB) (content.Set, error) {
	var set content.Set
	if err := readAll(ctx, db, `SELECT payload FROM content_powers ORDER BY power_id`, &set.Powers); err != nil {
		return set, fmt.Errorf("read powers: %w", err)
	}
	if err := readAll(ctx, db, `SELECT payload FROM content_expressions ORDER BY expression_id`, &set.Expressions); err != nil {
		return set, fmt.Errorf("read expressions: %w", err)
	}
	if err := readAll(ctx, db, `SELECT payload FROM content_acquisitions ORDER BY acquisition_id`, &set.Acquisitions); err != nil {
		return set, fmt.Errorf("read acquisitions: %w", err)
	}
	if err := readAll(ctx, db, `SELECT payload FROM content_storylets ORDER BY storylet_id`, &set.Storylets); err != nil {
		return set, fmt.Errorf("read storylets: %w", err)
	}
	if err := readAll(ctx, db, `SELECT payload FROM content_nemesis_actions ORDER BY action_id`, &set.NemesisActions); err != nil {
		return set, fmt.Errorf("read nemesis actions: %w", err)
	}
	return set, nil
}

func readAll[T any](ctx context.Context, db *sql.DB, query string, out *[]T) error {
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return err
		}
		var v T
		if err := json.Unmarshal([]byte(payload), &v); err != nil {
			return err
		}
		*out = append(*out, v)
	}
	return rows.Err()
}

// WriteContentSet replaces the stored content with set. It does not validate:
// OpenSQLiteContent does that for every reader.
func WriteContentSet(ctx context.Context, db *sql.DB, set content.Set) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin content write: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	for _, table := range []string{"content_powers", "content_expressions", "content_acquisitions", "content_storylets", "content_nemesis_actions"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}

	insert := func(query string, v any, args ...any) error {
		raw, err := json.Marshal(v)
		if err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx, query, append(args, string(raw))...)
		return err
	}
	for _, p := range set.Powers {
		if err := insert(`INSERT INTO content_powers (power_id, payload) VALUES (?, ?)`, p, string(p.ID)); err != nil {
			return fmt.Errorf("write power %s: %w", p.ID, err)
		}
	}
	for _, e := range set.Expressions {
		if err := insert(`INSERT INTO content_expressions (expression_id, power_id, payload) VALUES (?, ?, ?)`, e, string(e.ID), string(e.PowerID)); err != nil {
			return fmt.Errorf("write expression %s: %w", e.ID, err)
		}
	}
	for _, a := range set.Acquisitions {
		if err := insert(`INSERT INTO content_acquisitions (acquisition_id, power_id, payload) VALUES (?, ?, ?)`, a, string(a.ID), string(a.PowerID)); err != nil {
			return fmt.Errorf("write acquisition %s: %w", a.ID, err)
		}
	}
	for _, st := range set.Storylets {
		if err := insert(`INSERT INTO content_storylets (storylet_id, payload) VALUES (?, ?)`, st, string(st.ID)); err != nil {
			return fmt.Errorf("write storylet %s: %w", st.ID, err)
		}
	}
	for _, na := range set.NemesisActions {
		if err := insert(`INSERT INTO content_nemesis_actions (action_id, payload) VALUES (?, ?)`, na, na.ID); err != nil {
			return fmt.Errorf("write nemesis action %s: %w", na.ID, err)
		}
	}
	return tx.Commit()
}

// SeedDefaultContent writes the built-in content when the store is empty.
func SeedDefaultContent(ctx context.Context, db *sql.DB) (bool, error) {
	var n int
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM content_powers`).Scan(&n); err != nil {
		return false, fmt.Errorf("count powers: %w", err)
	}
	if n > 0 {
		return false, nil
	}
	return true, WriteContentSet(ctx, db, content.DefaultSet())
}
