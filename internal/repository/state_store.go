package repository

import (
	"context"
	"fmt"

	"TradePilot/internal/domain/models"
	"TradePilot/internal/domain/repository"

	"github.com/vmihailenco/msgpack/v5"
)

const (
	keyLedger    = "ledger"
	keyWatchlist = "watchlist"
	keyHistory   = "portfolio_history"
)

// KVStateStore persists session state as msgpack blobs in a key-value store.
type KVStateStore struct {
	kv repository.KeyValueStore
}

func NewKVStateStore(kv repository.KeyValueStore) *KVStateStore {
	return &KVStateStore{kv: kv}
}

func (s *KVStateStore) LoadLedger(ctx context.Context) (models.LedgerState, bool, error) {
	var st models.LedgerState
	ok, err := s.load(ctx, keyLedger, &st)
	if err != nil || !ok {
		return models.LedgerState{}, ok, err
	}
	if st.Positions == nil {
		st.Positions = make(map[string]models.Position)
	}
	return st, true, nil
}

func (s *KVStateStore) SaveLedger(ctx context.Context, st models.LedgerState) error {
	return s.save(ctx, keyLedger, st)
}

func (s *KVStateStore) LoadWatchlist(ctx context.Context) ([]string, bool, error) {
	var symbols []string
	ok, err := s.load(ctx, keyWatchlist, &symbols)
	return symbols, ok, err
}

func (s *KVStateStore) SaveWatchlist(ctx context.Context, symbols []string) error {
	return s.save(ctx, keyWatchlist, symbols)
}

func (s *KVStateStore) LoadHistory(ctx context.Context) ([]models.ValuePoint, bool, error) {
	var points []models.ValuePoint
	ok, err := s.load(ctx, keyHistory, &points)
	return points, ok, err
}

func (s *KVStateStore) SaveHistory(ctx context.Context, points []models.ValuePoint) error {
	return s.save(ctx, keyHistory, points)
}

func (s *KVStateStore) load(ctx context.Context, key string, dest interface{}) (bool, error) {
	raw, ok, err := s.kv.Get(ctx, key)
	if err != nil {
		return false, fmt.Errorf("load %s: %w", key, err)
	}
	if !ok {
		return false, nil
	}
	if err := msgpack.Unmarshal(raw, dest); err != nil {
		return false, fmt.Errorf("decode %s: %w", key, err)
	}
	return true, nil
}

func (s *KVStateStore) save(ctx context.Context, key string, v interface{}) error {
	raw, err := msgpack.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	if err := s.kv.Set(ctx, key, raw); err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	return nil
}
