package theme

import (
	"testing"

	"github.com/nhle/certconsole/internal/model"
)

func TestEveryStatusAndKindHasAColor(t *testing.T) {
	for _, s := range []string{
		model.StatusPending, model.StatusAnswered, model.StatusResolved,
		model.StatusAccepted, model.StatusRejected, model.StatusOpen, model.StatusClosed,
	} {
		if _, ok := statusColors[s]; !ok {
			t.Errorf("status %q has no color", s)
		}
	}
	for _, k := range model.RecordKinds {
		if _, ok := kindColors[k]; !ok {
			t.Errorf("kind %q has no color", k)
		}
	}
}

func TestUnknownValuesFallBackToGray(t *testing.T) {
	if got := StatusStyle("archived").GetForeground(); got != ColorGray {
		t.Errorf("unknown status foreground = %v", got)
	}
	if got := ConnectionStyle(model.ConnectionClosed).GetForeground(); got != ColorGray {
		t.Errorf("closed connection foreground = %v", got)
	}
	if got := KindLabelStyle(model.KindUserFAQ).GetForeground(); got != ColorMagenta {
		t.Errorf("faq foreground = %v", got)
	}
}
