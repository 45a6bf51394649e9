package tradelog

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"raven-trader/internal/types"
)

// Store owns the two persisted artifacts of the engine: the append-only trade
// ledger (JSON lines) and the engine state snapshot (overwritten each cycle).
// It also appends a human-readable markdown line per fill.
type Store struct {
	dir string
	mu  sync.Mutex
}

func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

func (s *Store) ledgerPath() string   { return filepath.Join(s.dir, "trades.jsonl") }
func (s *Store) statePath() string    { return filepath.Join(s.dir, "state.json") }
func (s *Store) markdownPath() string { return filepath.Join(s.dir, "log.md") }

// Append writes one record to the ledger. Records are never rewritten.
func (s *Store) Append(r types.TradeRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(s.ledgerPath(), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()
	b, err := json.Marshal(r)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintln(f, string(b)); err != nil {
		return err
	}

	line := fmt.Sprintf("| %s | %s | %s | %v | $%g | $%.2f | %s |\n",
		r.Timestamp, r.Symbol, r.Side, r.Quantity, r.Price, r.Value, r.Reasoning)
	md, err := os.OpenFile(s.markdownPath(), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	defer md.Close()
	_, err = md.WriteString(line)
	return err
}

// All replays the full ledger in append order. A missing ledger is an empty
// history, not an error.
func (s *Store) All() ([]types.TradeRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.Open(s.ledgerPath())
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var records []types.TradeRecord
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := sc.Bytes()
		if len(line) == 0 {
			continue
		}
		var r types.TradeRecord
		if err := json.Unmarshal(line, &r); err != nil {
			// A torn line means a partial write; skip it rather than lose
			// the rest of the ledger.
			continue
		}
		records = append(records, r)
	}
	return records, sc.Err()
}

// LoadState returns the zero state when no snapshot exists yet.
func (s *Store) LoadState() (types.EngineState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var st types.EngineState
	b, err := os.ReadFile(s.statePath())
	if errors.Is(err, os.ErrNotExist) {
		return st, nil
	}
	if err != nil {
		return st, err
	}
	if err := json.Unmarshal(b, &st); err != nil {
		return types.EngineState{}, fmt.Errorf("corrupt state file: %w", err)
	}
	return st, nil
}

func (s *Store) SaveState(st types.EngineState) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return err
	}
	b, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(s.statePath(), b, 0o644)
}
