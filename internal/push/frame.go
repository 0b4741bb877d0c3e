package push

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/nhle/certconsole/internal/model"
)

// ErrUnknownType is returned by ParseFrame for frames whose type is not a
// known notification type (control frames, newer server events).
var ErrUnknownType = errors.New("unknown notification type")

// frame is the wire shape of a push event.
type frame struct {
	ID        string `json:"id"`
	Type      string `json:"type"`
	Title     string `json:"title"`
	CreatedAt string `json:"createdAt"`
}

// ParseFrame decodes a push frame into a Notification.
func ParseFrame(data []byte) (model.Notification, error) {
	var f frame
	if err := json.Unmarshal(data, &f); err != nil {
		return model.Notification{}, fmt.Errorf("decoding frame: %w", err)
	}

	t := model.NotificationType(f.Type)
	if !t.Valid() {
		return model.Notification{}, fmt.Errorf("%w: %q", ErrUnknownType, f.Type)
	}
	if f.ID == "" {
		return model.Notification{}, fmt.Errorf("frame of type %s has no id", f.Type)
	}

	n := model.Notification{
		ID:    f.ID,
		Type:  t,
		Title: f.Title,
	}
	if f.CreatedAt != "" {
		if ts, err := time.Parse(time.RFC3339, f.CreatedAt); err == nil {
			n.CreatedAt = ts
		}
	}
	return n, nil
}

// EncodeFrame is the inverse of ParseFrame, used by the dev server.
func EncodeFrame(n model.Notification) ([]byte, error) {
	f := frame{
		ID:    n.ID,
		Type:  string(n.Type),
		Title: n.Title,
	}
	if !n.CreatedAt.IsZero() {
		f.CreatedAt = n.CreatedAt.UTC().Format(time.RFC3339)
	}
	return json.Marshal(f)
}
