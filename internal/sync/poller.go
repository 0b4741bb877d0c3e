// Package sync keeps the dashboard's per-view totals fresh by polling the
// list endpoints in the background. Live arrivals are handled by the push
// channel; the poller only covers counts, including while the channel is
// reconnecting.
package sync

import (
	"context"
	"fmt"
	gosync "sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"

	"github.com/nhle/certconsole/internal/api"
	"github.com/nhle/certconsole/internal/model"
)

// SyncState represents the current state of a view's count poll.
type SyncState int

const (
	SyncIdle SyncState = iota
	SyncRunning
	SyncError
)

// SyncStatus holds the poll state for a single view.
type SyncStatus struct {
	View     model.ViewKey
	State    SyncState
	LastSync time.Time
	Error    error
}

// CountsMsg is a tea.Msg sent when a view's totals have been fetched.
// Counts is keyed by sub-tab ("" for untabbed views).
type CountsMsg struct {
	View      model.ViewKey
	Counts    map[string]int
	Error     error
	AuthError bool
}

// fetchTimeout is the maximum time allowed for a single fetch operation.
const fetchTimeout = 30 * time.Second

// Poller orchestrates background polling of view totals.
type Poller struct {
	fetcher  api.RecordFetcher
	views    []model.ViewSpec
	interval time.Duration
	log      zerolog.Logger

	statuses  map[model.ViewKey]*SyncStatus
	resultCh  chan CountsMsg
	triggerCh chan struct{}
	stopCh    chan struct{}
	mu        gosync.Mutex
	running   bool
	stopped   bool
}

// New creates a Poller for views. A non-positive interval defaults to 60s.
func New(f api.RecordFetcher, views []model.ViewSpec, interval time.Duration, log zerolog.Logger) *Poller {
	if interval <= 0 {
		interval = 60 * time.Second
	}
	p := &Poller{
		fetcher:   f,
		views:     views,
		interval:  interval,
		log:       log.With().Str("component", "poller").Logger(),
		statuses:  make(map[model.ViewKey]*SyncStatus, len(views)),
		resultCh:  make(chan CountsMsg, 16),
		triggerCh: make(chan struct{}, 1),
		stopCh:    make(chan struct{}),
	}
	for _, v := range views {
		p.statuses[v.Key] = &SyncStatus{View: v.Key, State: SyncIdle}
	}
	return p
}

// Start returns a tea.Cmd that starts the polling goroutine and
// subscribes to results.
func (p *Poller) Start() tea.Cmd {
	p.mu.Lock()
	if p.running || p.stopped {
		p.mu.Unlock()
		return nil
	}
	p.running = true
	p.mu.Unlock()

	go p.loop()

	return p.waitForResult()
}

// Stop halts polling. A stopped poller cannot be restarted.
func (p *Poller) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.stopped {
		return
	}
	p.stopped = true
	p.running = false
	close(p.stopCh)
}

// RefreshAll triggers an immediate poll of every view.
func (p *Poller) RefreshAll() {
	select {
	case p.triggerCh <- struct{}{}:
	default:
		// A refresh is already pending.
	}
}

// GetStatuses returns the current poll status of every view.
func (p *Poller) GetStatuses() []SyncStatus {
	p.mu.Lock()
	defer p.mu.Unlock()

	statuses := make([]SyncStatus, 0, len(p.views))
	for _, v := range p.views {
		statuses = append(statuses, *p.statuses[v.Key])
	}
	return statuses
}

func (p *Poller) loop() {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.pollAll()
	for {
		select {
		case <-p.stopCh:
			return
		case <-ticker.C:
			p.pollAll()
		case <-p.triggerCh:
			p.pollAll()
		}
	}
}

func (p *Poller) pollAll() {
	for _, v := range p.views {
		select {
		case <-p.stopCh:
			return
		default:
		}
		p.pollView(v)
	}
}

// pollView fetches the total of every sub-tab of v and sends a CountsMsg.
func (p *Poller) pollView(v model.ViewSpec) {
	p.setStatus(v.Key, SyncRunning, nil)

	ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
	defer cancel()

	tabs := []string{""}
	if v.Tabbed() {
		tabs = tabs[:0]
		for _, t := range v.Tabs {
			tabs = append(tabs, t.Key)
		}
	}

	counts := make(map[string]int, len(tabs))
	for _, tab := range tabs {
		page, err := p.fetcher.ListRecords(ctx, v.Kind, api.ListQuery{
			Page:   1,
			Limit:  1,
			Status: v.StatusFilter(tab),
		})
		if err != nil {
			p.setStatus(v.Key, SyncError, err)
			p.log.Warn().Err(err).Str("view", string(v.Key)).Msg("count poll failed")
			p.sendResult(CountsMsg{
				View:      v.Key,
				Error:     fmt.Errorf("counting %s: %w", v.Title, err),
				AuthError: api.IsAuthError(err),
			})
			return
		}
		counts[tab] = page.Pagination.Total
	}

	p.setStatus(v.Key, SyncIdle, nil)
	p.sendResult(CountsMsg{View: v.Key, Counts: counts})
}

// setStatus updates the poll status for a view.
func (p *Poller) setStatus(view model.ViewKey, state SyncState, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	status, ok := p.statuses[view]
	if !ok {
		return
	}

	status.State = state
	status.Error = err
	if state == SyncIdle && err == nil {
		status.LastSync = time.Now()
	}
}

// sendResult sends a CountsMsg on the result channel without blocking.
func (p *Poller) sendResult(msg CountsMsg) {
	select {
	case p.resultCh <- msg:
	default:
		// Drop if channel is full to avoid blocking the poller
	}
}

// waitForResult returns a tea.Cmd that waits for the next result. It
// yields nil once the poller is stopped.
func (p *Poller) waitForResult() tea.Cmd {
	return func() tea.Msg {
		select {
		case result := <-p.resultCh:
			return result
		case <-p.stopCh:
			return nil
		}
	}
}

// WaitForNextResult returns a tea.Cmd that waits for the next count result.
// Call it after processing each CountsMsg to keep listening.
func (p *Poller) WaitForNextResult() tea.Cmd {
	return p.waitForResult()
}
