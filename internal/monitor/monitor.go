package monitor

import (
	"context"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"

	"github.com/fragmede/threadview/internal/api"
	"github.com/fragmede/threadview/internal/cache"
	"github.com/fragmede/threadview/internal/logging"
	"github.com/fragmede/threadview/internal/ui/messages"
)

const pollTimeout = 30 * time.Second

// Lister fetches the full comment list of a subject.
type Lister interface {
	ListComments(ctx context.Context, s api.Subject) (*api.Thread, error)
}

// Monitor polls the open thread for comments the user has not loaded yet.
type Monitor struct {
	client   Lister
	cache    *cache.DB
	interval time.Duration
	log      zerolog.Logger
	send     func(tea.Msg)
	stopCh   chan struct{}
	stopOnce sync.Once

	mu        sync.Mutex
	subject   *api.Subject
	known     map[int]bool
	lastCount int
}

// New creates a new background monitor. db may be nil.
func New(client Lister, db *cache.DB, interval time.Duration) *Monitor {
	return &Monitor{
		client:   client,
		cache:    db,
		interval: interval,
		log:      logging.Component("monitor"),
		stopCh:   make(chan struct{}),
	}
}

// Start begins the background polling loop. send is usually
// (*tea.Program).Send.
func (m *Monitor) Start(send func(tea.Msg)) {
	m.send = send
	go m.loop()
}

// Stop halts the background polling.
func (m *Monitor) Stop() {
	m.stopOnce.Do(func() { close(m.stopCh) })
}

// Track makes t the thread being watched. Every comment it contains counts
// as seen. It is safe to call from the UI goroutine while the loop runs.
func (m *Monitor) Track(t *api.Thread) {
	ids := commentIDs(t.Comments, nil)
	known := make(map[int]bool, len(ids))
	for _, id := range ids {
		known[id] = true
	}

	m.mu.Lock()
	s := t.Subject
	m.subject = &s
	m.known = known
	m.lastCount = 0
	m.mu.Unlock()

	if m.cache != nil {
		err := m.cache.PutSeen(cache.Seen{Subject: s, IDs: ids, CheckedAt: time.Now()})
		if err != nil {
			m.log.Error().Err(err).Stringer("subject", s).Msg("saving seen comments")
		}
	}
}

// Unseen returns how many comments of t were not there on the previous
// visit. A subject never opened before has no unseen comments.
func (m *Monitor) Unseen(t *api.Thread) int {
	if m.cache == nil {
		return 0
	}
	seen, ok, err := m.cache.GetSeen(t.Subject)
	if err != nil {
		m.log.Error().Err(err).Stringer("subject", t.Subject).Msg("reading seen comments")
		return 0
	}
	if !ok {
		return 0
	}
	return countNew(commentIDs(t.Comments, nil), seen.IDs)
}

func (m *Monitor) loop() {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-m.stopCh:
			return
		case <-ticker.C:
			n, changed, err := m.Check(context.Background())
			if err != nil {
				m.log.Debug().Err(err).Msg("poll failed")
				continue
			}
			if changed && m.send != nil {
				m.send(messages.NewCommentsMsg{Count: n})
			}
		}
	}
}

// Check lists the tracked subject once and returns the number of comments
// not yet known. changed reports whether the count differs from the last
// check.
func (m *Monitor) Check(ctx context.Context) (int, bool, error) {
	m.mu.Lock()
	if m.subject == nil {
		m.mu.Unlock()
		return 0, false, nil
	}
	s := *m.subject
	m.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, pollTimeout)
	defer cancel()
	t, err := m.client.ListComments(ctx, s)
	if err != nil {
		return 0, false, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.subject == nil || *m.subject != s {
		// Another thread was opened meanwhile.
		return 0, false, nil
	}
	n := 0
	for _, id := range commentIDs(t.Comments, nil) {
		if !m.known[id] {
			n++
		}
	}
	changed := n != m.lastCount
	m.lastCount = n
	if changed {
		m.log.Debug().Stringer("subject", s).Int("new", n).Msg("new comments")
	}
	return n, changed, nil
}

func commentIDs(comments []api.Comment, ids []int) []int {
	for _, c := range comments {
		ids = append(ids, c.ID)
		ids = commentIDs(c.ChildComments, ids)
	}
	return ids
}

func countNew(current, seen []int) int {
	known := make(map[int]bool, len(seen))
	for _, id := range seen {
		known[id] = true
	}
	n := 0
	for _, id := range current {
		if !known[id] {
			n++
		}
	}
	return n
}
