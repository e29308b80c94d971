package store

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"quarterly_intel/pkg/models"
)

// DefaultFileDir is used when neither a database nor a directory is configured.
var DefaultFileDir = filepath.Join(".cache", "docintel", "runs")

// FileStore writes one <request_id>.json per run and appends events to
// <request_id>.events.jsonl in the same directory.
type FileStore struct {
	dir string
	mu  sync.Mutex
}

var (
	_ RunStore   = (*FileStore)(nil)
	_ RunCatalog = (*FileStore)(nil)
)

// runEntry wraps saved insights with bookkeeping fields.
type runEntry struct {
	RequestID string                   `json:"request_id"`
	Ticker    string                   `json:"ticker"`
	Status    string                   `json:"status"`
	SavedAt   time.Time                `json:"saved_at"`
	Insights  *models.DocumentInsights `json:"insights,omitempty"`
}

func NewFileStore(dir string) (*FileStore, error) {
	if dir == "" {
		dir = DefaultFileDir
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create run directory: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

func (s *FileStore) Dir() string { return s.dir }

func (s *FileStore) StartRun(_ context.Context, requestID, ticker string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := os.Stat(s.runPath(requestID)); err == nil {
		return nil
	}
	return s.write(runEntry{RequestID: requestID, Ticker: ticker, Status: StatusRunning, SavedAt: time.Now()})
}

func (s *FileStore) SaveRun(_ context.Context, insights *models.DocumentInsights) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.write(runEntry{
		RequestID: insights.RequestID,
		Ticker:    insights.Ticker,
		Status:    StatusCompleted,
		SavedAt:   time.Now(),
		Insights:  insights,
	})
}

func (s *FileStore) LoadRun(_ context.Context, requestID string) (*models.DocumentInsights, error) {
	entry, err := s.loadEntry(s.runPath(requestID))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrRunNotFound, requestID)
		}
		return nil, err
	}
	if entry.Insights == nil {
		return nil, fmt.Errorf("%w: %s has not completed", ErrRunNotFound, requestID)
	}
	return entry.Insights, nil
}

func (s *FileStore) ListRuns(_ context.Context, ticker string) ([]*models.DocumentInsights, error) {
	files, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}

	var out []*models.DocumentInsights
	for _, f := range files {
		name := f.Name()
		if filepath.Ext(name) != ".json" {
			continue
		}
		entry, err := s.loadEntry(filepath.Join(s.dir, name))
		if err != nil || entry.Insights == nil {
			continue
		}
		if ticker != "" && !strings.EqualFold(entry.Ticker, ticker) {
			continue
		}
		out = append(out, entry.Insights)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].GeneratedAt.After(out[j].GeneratedAt) })
	return out, nil
}

func (s *FileStore) LogEvent(_ context.Context, requestID, kind string, payload interface{}) error {
	line, err := json.Marshal(Event{RequestID: requestID, Kind: kind, Payload: payload})
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	f, err := os.OpenFile(s.eventsPath(requestID), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open event log: %w", err)
	}
	defer f.Close()
	if _, err := f.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("failed to append event: %w", err)
	}
	return nil
}

// Events reads back the event trail of a run.
func (s *FileStore) Events(_ context.Context, requestID string) ([]Event, error) {
	f, err := os.Open(s.eventsPath(requestID))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to open event log: %w", err)
	}
	defer f.Close()

	var events []Event
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for sc.Scan() {
		var ev Event
		if err := json.Unmarshal(sc.Bytes(), &ev); err != nil {
			return nil, fmt.Errorf("failed to parse event: %w", err)
		}
		events = append(events, ev)
	}
	return events, sc.Err()
}

func (s *FileStore) write(entry runEntry) error {
	data, err := json.MarshalIndent(entry, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal run: %w", err)
	}
	if err := os.WriteFile(s.runPath(entry.RequestID), data, 0o644); err != nil {
		return fmt.Errorf("failed to save run file: %w", err)
	}
	return nil
}

func (s *FileStore) loadEntry(path string) (*runEntry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var entry runEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, fmt.Errorf("failed to parse run file %s: %w", filepath.Base(path), err)
	}
	return &entry, nil
}

func (s *FileStore) runPath(requestID string) string {
	return filepath.Join(s.dir, safeName(requestID)+".json")
}

func (s *FileStore) eventsPath(requestID string) string {
	return filepath.Join(s.dir, safeName(requestID)+".events.jsonl")
}

func safeName(id string) string {
	return strings.Map(func(r rune) rune {
		if r == '/' || r == '\\' || r == ':' || r == '.' {
			return '_'
		}
		return r
	}, id)
}
