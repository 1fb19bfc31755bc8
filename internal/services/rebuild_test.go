package services

import (
	"context"
	stderrors "errors"
	"io"
	"net"
	"runtime"
	"strings"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"

	"sales-dashboard/internal/errors"
	"sales-dashboard/internal/models"
)

// recordingUI captures what the rebuild flow did to the page, in order.
type recordingUI struct {
	mu     sync.Mutex
	events []string
	busy   bool
}

func (u *recordingUI) SetBusy(busy bool) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.busy = busy
	if busy {
		u.events = append(u.events, "busy")
	} else {
		u.events = append(u.events, "idle")
	}
	return nil
}

func (u *recordingUI) Notify(message string) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.events = append(u.events, "notify:"+message)
	return nil
}

func (u *recordingUI) Reload() error {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.events = append(u.events, "reload")
	return nil
}

func TestRebuildDatabase_Cancelled(t *testing.T) {
	backend := &fakeBackend{}
	d := newTestDashboard(backend)
	ui := &recordingUI{}

	out := d.RebuildDatabase(context.Background(), false, ui)

	if backend.rebuildCalls != 0 {
		t.Error("cancelled rebuild must not call the backend")
	}
	if len(ui.events) != 0 {
		t.Errorf("cancelled rebuild touched the page: %v", ui.events)
	}
	want := []RebuildState{RebuildIdle, RebuildConfirming, RebuildIdle}
	if diff := cmp.Diff(want, out.Flow.History()); diff != "" {
		t.Errorf("history mismatch (-want +got):\n%s", diff)
	}
}

func TestRebuildDatabase_Success(t *testing.T) {
	backend := &fakeBackend{rebuild: models.RebuildResult{Status: "success", Log: "ok"}}
	d := newTestDashboard(backend)
	ui := &recordingUI{}

	out := d.RebuildDatabase(context.Background(), true, ui)

	if out.Err != nil {
		t.Fatalf("Err = %v", out.Err)
	}
	want := []string{
		"busy",
		"notify:Database rebuilt successfully! Result: success",
		"reload",
		"idle",
	}
	if diff := cmp.Diff(want, ui.events); diff != "" {
		t.Errorf("events mismatch (-want +got):\n%s", diff)
	}
	if out.Flow.State() != RebuildReloading {
		t.Errorf("state = %s, want reloading", out.Flow.State())
	}
}

func TestRebuildDatabase_ServerError(t *testing.T) {
	backend := &fakeBackend{rebuildErr: errors.Upstream(500, "X")}
	d := newTestDashboard(backend)
	ui := &recordingUI{}

	out := d.RebuildDatabase(context.Background(), true, ui)

	if !strings.Contains(out.Message, "X") {
		t.Errorf("message %q should contain backend detail", out.Message)
	}
	if ui.busy {
		t.Error("trigger should be re-enabled")
	}
	want := []string{"busy", "notify:Error: X", "idle"}
	if diff := cmp.Diff(want, ui.events); diff != "" {
		t.Errorf("events mismatch (-want +got):\n%s", diff)
	}
	if out.Flow.State() != RebuildIdle {
		t.Errorf("state = %s, want idle", out.Flow.State())
	}
}

func TestRebuildDatabase_ServerErrorWithoutDetail(t *testing.T) {
	backend := &fakeBackend{rebuildErr: errors.Upstream(500, "")}
	d := newTestDashboard(backend)
	ui := &recordingUI{}

	out := d.RebuildDatabase(context.Background(), true, ui)

	want := []string{"busy", "notify:Error: backend responded 500", "idle"}
	if diff := cmp.Diff(want, ui.events); diff != "" {
		t.Errorf("events mismatch (-want +got):\n%s", diff)
	}
	if out.Message != "Error: backend responded 500" {
		t.Errorf("message = %q", out.Message)
	}
}

func TestRebuildDatabase_NetworkFailure(t *testing.T) {
	netErr := &net.OpError{Op: "dial", Net: "tcp", Err: stderrors.New("connection refused")}
	backend := &fakeBackend{rebuildErr: errors.Network(netErr, "POST /system/rebuild-database")}
	d := newTestDashboard(backend)
	ui := &recordingUI{}

	out := d.RebuildDatabase(context.Background(), true, ui)

	if out.Message != "Network Error: "+netErr.Error() {
		t.Errorf("Message = %q", out.Message)
	}
	if ui.busy {
		t.Error("cleanup should hide the busy indicator")
	}
	if ui.events[len(ui.events)-1] != "idle" {
		t.Errorf("last event = %q, want idle", ui.events[len(ui.events)-1])
	}
	if d.rebuilding.Load() {
		t.Error("in-flight guard should be released")
	}
}

func TestRebuildDatabase_ParseFailureReportedAsNetworkError(t *testing.T) {
	backend := &fakeBackend{rebuildErr: errors.Parse(io.ErrUnexpectedEOF, "decode")}
	d := newTestDashboard(backend)

	out := d.RebuildDatabase(context.Background(), true, &recordingUI{})

	if out.Message != "Network Error: unexpected EOF" {
		t.Errorf("Message = %q", out.Message)
	}
}

func TestRebuildDatabase_RejectsConcurrentRebuild(t *testing.T) {
	gate := make(chan struct{})
	backend := &fakeBackend{rebuild: models.RebuildResult{Status: "success"}, rebuildGate: gate}
	d := newTestDashboard(backend)

	first := &recordingUI{}
	done := make(chan RebuildOutcome)
	go func() { done <- d.RebuildDatabase(context.Background(), true, first) }()

	// Wait until the first rebuild holds the guard.
	for !d.rebuilding.Load() {
		runtime.Gosched()
	}

	second := &recordingUI{}
	out := d.RebuildDatabase(context.Background(), true, second)
	if !stderrors.Is(out.Err, ErrRebuildInProgress) {
		t.Errorf("Err = %v, want ErrRebuildInProgress", out.Err)
	}
	if len(second.events) != 1 || !strings.HasPrefix(second.events[0], "notify:") {
		t.Errorf("second page events = %v", second.events)
	}

	close(gate)
	<-done

	if backend.rebuildCalls != 1 {
		t.Errorf("backend called %d times, want 1", backend.rebuildCalls)
	}
}

func TestRebuildFlow_InvalidTransition(t *testing.T) {
	f := NewRebuildFlow()
	if err := f.transition(RebuildBusy); err == nil {
		t.Error("idle -> busy should be rejected")
	}
	if f.State() != RebuildIdle {
		t.Errorf("state = %s, want idle", f.State())
	}
}
