// Package lobby owns the table registry: creating tables, finding
// seats for quick-start, and reaping tables nobody plays at.
package lobby

import (
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"pokerroom/internal/codec"
	"pokerroom/internal/ledger"
	"pokerroom/internal/table"
)

const (
	idleTableTTL  = 5 * time.Minute
	reapInterval  = 30 * time.Second
	maxOpenTables = 200
)

// Lobby manages the live tables.
type Lobby struct {
	mu     sync.RWMutex
	tables map[string]*table.Table
	closed bool

	defaultConfig table.Config
	wallet        ledger.Service
	broadcast     func(userID string, data []byte)

	done     chan struct{}
	stopOnce sync.Once
}

func New(defaultConfig table.Config, wallet ledger.Service, broadcastFn func(userID string, data []byte)) *Lobby {
	l := &Lobby{
		tables:        make(map[string]*table.Table),
		defaultConfig: defaultConfig,
		wallet:        wallet,
		broadcast:     broadcastFn,
		done:          make(chan struct{}),
	}
	go l.reapLoop()
	return l
}

// QuickStart finds an open seat at an existing table or creates a new
// table with the default config.
func (l *Lobby) QuickStart(userID string) (*table.Table, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return nil, fmt.Errorf("lobby closed")
	}

	for _, t := range l.tables {
		if t.IsClosed() {
			continue
		}
		info := t.Info()
		if info.Seated < info.MaxSeats {
			log.Printf("[Lobby] QuickStart: user %s joining table %s", userID, t.ID)
			return t, nil
		}
	}

	t, err := l.createTableLocked(l.defaultConfig)
	if err != nil {
		return nil, err
	}
	log.Printf("[Lobby] QuickStart: user %s opened table %s", userID, t.ID)
	return t, nil
}

// CreateTable opens a table with an explicit config.
func (l *Lobby) CreateTable(cfg table.Config) (*table.Table, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return nil, fmt.Errorf("lobby closed")
	}
	return l.createTableLocked(cfg)
}

func (l *Lobby) createTableLocked(cfg table.Config) (*table.Table, error) {
	if len(l.tables) >= maxOpenTables {
		return nil, fmt.Errorf("table limit reached")
	}
	tableID := uuid.NewString()
	if cfg.Name == "" {
		cfg.Name = "table-" + tableID[:8]
	}
	t, err := table.New(tableID, cfg, l.broadcast, l.wallet)
	if err != nil {
		return nil, err
	}
	l.tables[tableID] = t
	return t, nil
}

func (l *Lobby) GetTable(tableID string) *table.Table {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.tables[tableID]
}

// ListTables summarizes open tables, stable by name.
func (l *Lobby) ListTables() []codec.TableInfo {
	l.mu.RLock()
	defer l.mu.RUnlock()

	infos := make([]codec.TableInfo, 0, len(l.tables))
	for _, t := range l.tables {
		if t.IsClosed() {
			continue
		}
		infos = append(infos, t.Info())
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })
	return infos
}

func (l *Lobby) reapLoop() {
	ticker := time.NewTicker(reapInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			l.reapIdleTables()
		case <-l.done:
			return
		}
	}
}

func (l *Lobby) reapIdleTables() {
	l.mu.Lock()
	defer l.mu.Unlock()

	for id, t := range l.tables {
		if !t.IsIdleFor(idleTableTTL) {
			continue
		}
		t.Stop()
		delete(l.tables, id)
		log.Printf("[Lobby] Reaped idle table %s", id)
	}
}

// Close stops every table and the reaper.
func (l *Lobby) Close() {
	l.mu.Lock()
	l.closed = true
	tables := make([]*table.Table, 0, len(l.tables))
	for id, t := range l.tables {
		tables = append(tables, t)
		delete(l.tables, id)
	}
	l.mu.Unlock()

	for _, t := range tables {
		t.Stop()
	}
	l.stopOnce.Do(func() {
		close(l.done)
	})
}
