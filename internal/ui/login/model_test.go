package login

import (
	"context"
	"errors"
	"testing"

	"github.com/nhle/certconsole/internal/api"
)

type fakeAuth struct {
	token string
	err   error
	calls int
}

func (f *fakeAuth) Login(_ context.Context, email, password string) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return f.token + ":" + email, nil
}

func TestSubmitReturnsToken(t *testing.T) {
	auth := &fakeAuth{token: "tok"}
	m := New(auth, 80, 20)
	m.Init()
	m.fb.email = " ops@example.org "
	m.fb.password = "pw"

	msg, ok := m.submit()().(SucceededMsg)
	if !ok {
		t.Fatal("expected SucceededMsg")
	}
	if msg.Token != "tok:ops@example.org" || msg.Email != "ops@example.org" {
		t.Errorf("got %+v", msg)
	}
}

func TestFailureRebuildsFormKeepingEmail(t *testing.T) {
	auth := &fakeAuth{err: &api.AuthError{Message: "bad credentials"}}
	m := New(auth, 80, 20)
	m.Init()
	m.fb.email = "ops@example.org"
	m.fb.password = "wrong"

	m, _ = m.Update(m.submit()())
	if !api.IsAuthError(m.Err()) {
		t.Fatalf("Err = %v", m.Err())
	}
	if m.fb.email != "ops@example.org" || m.fb.password != "" {
		t.Errorf("bindings = %+v", *m.fb)
	}
	if m.form == nil || m.working {
		t.Error("form should be editable again")
	}

	auth.err = errors.New("network down")
	m, _ = m.Update(m.submit()())
	if m.Err() == nil || api.IsAuthError(m.Err()) {
		t.Errorf("Err = %v", m.Err())
	}
}
