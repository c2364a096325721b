package core

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
)

// trackingModule is a test helper that tracks lifecycle calls.
type trackingModule struct {
	id           ModuleID
	calls        *[]string
	provisionErr error
	validateErr  error
	startErr     error
}

func (m *trackingModule) ModuleInfo() ModuleInfo {
	id := m.id
	return ModuleInfo{
		ID: id,
		New: func() Module {
			return &trackingModule{
				id:           id,
				calls:        m.calls,
				provisionErr: m.provisionErr,
				validateErr:  m.validateErr,
				startErr:     m.startErr,
			}
		},
	}
}

func (m *trackingModule) record(call string) {
	if m.calls != nil {
		*m.calls = append(*m.calls, string(m.id)+":"+call)
	}
}

func (m *trackingModule) Provision(_ *AppContext) error {
	m.record("provision")
	return m.provisionErr
}

func (m *trackingModule) Validate() error {
	m.record("validate")
	return m.validateErr
}

func (m *trackingModule) Start() error {
	m.record("start")
	return m.startErr
}

func (m *trackingModule) Stop(_ context.Context) error {
	m.record("stop")
	return nil
}

func TestAppContext_ForModule(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo}))

	ctx := NewAppContext(logger, "/data")
	child := ctx.ForModule("provider.anthropic")

	child.Logger.Info("hello")

	if !bytes.Contains(buf.Bytes(), []byte("provider.anthropic")) {
		t.Errorf("expected child logger to contain module ID, got: %s", buf.String())
	}
}

func TestAppContext_Services(t *testing.T) {
	ctx := NewAppContext(nil, "/data")
	ctx.RegisterService("session.manager", 42)

	// Services are shared with module-scoped contexts.
	child := ctx.ForModule("gateway.http")
	svc, ok := child.Service("session.manager")
	if !ok || svc != 42 {
		t.Errorf("service = %v/%v, want 42/true", svc, ok)
	}

	if _, ok := ctx.Service("missing"); ok {
		t.Error("unexpected service")
	}
}

func TestAppContext_LoadModule_Lifecycle(t *testing.T) {
	t.Cleanup(resetRegistry)

	var calls []string
	RegisterModule(&trackingModule{id: "test.lifecycle", calls: &calls})

	ctx := NewAppContext(nil, "/data")
	mod, err := ctx.LoadModule("test.lifecycle")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if mod == nil {
		t.Fatal("expected non-nil module")
	}

	want := []string{"test.lifecycle:provision", "test.lifecycle:validate"}
	if len(calls) != len(want) || calls[0] != want[0] || calls[1] != want[1] {
		t.Errorf("lifecycle order = %v, want %v", calls, want)
	}
}

func TestAppContext_LoadModule_UnknownID(t *testing.T) {
	t.Cleanup(resetRegistry)

	ctx := NewAppContext(nil, "/data")
	if _, err := ctx.LoadModule("does.not.exist"); err == nil {
		t.Fatal("expected error for unknown module")
	}
}

func TestAppContext_LoadModule_ProvisionError(t *testing.T) {
	t.Cleanup(resetRegistry)

	RegisterModule(&trackingModule{id: "test.provfail", provisionErr: errors.New("boom")})

	ctx := NewAppContext(nil, "/data")
	if _, err := ctx.LoadModule("test.provfail"); err == nil {
		t.Fatal("expected error on provision failure")
	}
}

func TestApp_StartStopOrder(t *testing.T) {
	t.Cleanup(resetRegistry)

	var calls []string
	RegisterModule(&trackingModule{id: "test.a", calls: &calls})
	RegisterModule(&trackingModule{id: "test.b", calls: &calls})

	ctx := NewAppContext(nil, "/data")
	app := NewApp(ctx)
	if err := app.LoadModules([]string{"test.a", "test.b"}); err != nil {
		t.Fatal(err)
	}

	calls = calls[:0]
	if err := app.Start(); err != nil {
		t.Fatal(err)
	}
	app.Stop()

	want := []string{"test.a:start", "test.b:start", "test.b:stop", "test.a:stop"}
	if len(calls) != len(want) {
		t.Fatalf("calls = %v, want %v", calls, want)
	}
	for i := range want {
		if calls[i] != want[i] {
			t.Errorf("calls[%d] = %s, want %s", i, calls[i], want[i])
		}
	}
}

func TestApp_StartFailureUnwindsInReverse(t *testing.T) {
	t.Cleanup(resetRegistry)

	var calls []string
	RegisterModule(&trackingModule{id: "test.ok", calls: &calls})
	RegisterModule(&trackingModule{id: "test.bad", calls: &calls, startErr: errors.New("bind")})

	ctx := NewAppContext(nil, "/data")
	app := NewApp(ctx)
	if err := app.LoadModules([]string{"test.ok", "test.bad"}); err != nil {
		t.Fatal(err)
	}

	calls = calls[:0]
	if err := app.Start(); err == nil {
		t.Fatal("expected start failure")
	}

	want := []string{"test.ok:start", "test.bad:start", "test.ok:stop"}
	if len(calls) != len(want) {
		t.Fatalf("calls = %v, want %v", calls, want)
	}
}

func TestRegisterModule_Duplicate(t *testing.T) {
	t.Cleanup(resetRegistry)

	RegisterModule(&trackingModule{id: "test.dup"})

	defer func() {
		if recover() == nil {
			t.Fatal("expected panic on duplicate registration")
		}
	}()
	RegisterModule(&trackingModule{id: "test.dup"})
}
