// Package dispatch turns a notification into either an in-place update of
// the mounted view or a navigation that carries a pending-item descriptor.
package dispatch

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"

	"github.com/nhle/certconsole/internal/api"
	"github.com/nhle/certconsole/internal/model"
)

// fetchTimeout bounds the single-record fetch of the same-view path.
const fetchTimeout = 15 * time.Second

// ItemArrivedMsg is a tea.Msg carrying a full record for the view named by
// View. It is delivered only to a page mounted for that view and dropped
// otherwise.
type ItemArrivedMsg struct {
	View           model.ViewKey
	Record         model.Record
	NotificationID string
}

// NavigateMsg is a tea.Msg asking the root model to open View with Pending
// attached as transient navigation state.
type NavigateMsg struct {
	View    model.ViewKey
	Pending model.PendingItem
}

// ClickedMsg is sent when the operator opens a notification from the bell.
type ClickedMsg struct {
	Notification model.Notification
}

// NotifyClicked is the entry point for UI elements that open a notification.
func NotifyClicked(n model.Notification) tea.Cmd {
	return func() tea.Msg {
		return ClickedMsg{Notification: n}
	}
}

// ReadMarker is the part of the notification store the router mutates.
type ReadMarker interface {
	MarkRead(id string) bool
}

// Router routes notifications. It holds no per-notification state, so
// routing the same notification twice is safe as long as the receiving
// page merges idempotently.
type Router struct {
	store   ReadMarker
	fetcher api.RecordFetcher
	log     zerolog.Logger
}

// NewRouter creates a Router.
func NewRouter(store ReadMarker, fetcher api.RecordFetcher, log zerolog.Logger) *Router {
	return &Router{
		store:   store,
		fetcher: fetcher,
		log:     log.With().Str("component", "dispatch").Logger(),
	}
}

// Route marks n read and returns the command that completes the dispatch.
// When current is the target view, the command fetches the record and
// yields an ItemArrivedMsg (or nil if the fetch fails). Otherwise it yields
// a NavigateMsg with a descriptor for the record. Route must be called from
// the UI event loop.
func (r *Router) Route(n model.Notification, current model.ViewKey) tea.Cmd {
	r.store.MarkRead(n.ID)

	target, kind, ok := model.Route(n.Type)
	if !ok {
		r.log.Warn().Str("type", string(n.Type)).Str("id", n.ID).Msg("no route for notification")
		return nil
	}

	if current != target {
		pending := model.PendingItem{
			ItemID:                    n.ID,
			ItemType:                  kind,
			OriginatingNotificationID: n.ID,
		}
		return func() tea.Msg {
			return NavigateMsg{View: target, Pending: pending}
		}
	}

	fetcher := r.fetcher
	log := r.log
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
		defer cancel()

		rec, err := fetcher.GetRecord(ctx, kind, n.ID)
		if err != nil {
			log.Warn().Err(err).Str("kind", string(kind)).Str("id", n.ID).
				Msg("fetching notified record failed")
			return nil
		}
		return ItemArrivedMsg{View: target, Record: rec, NotificationID: n.ID}
	}
}
