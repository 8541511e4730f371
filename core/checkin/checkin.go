// Package checkin implements the scan -> lookup -> confirm -> mutate workflow.
package checkin

import (
	"context"
	"sync"

	"github.com/pkg/errors"

	"github.com/vanderidme15/vz-academias-sub001/core/notify"
)

type (
	Kind  string
	State string
)

// Kinds
const (
	KindEnrollment Kind = "enrollment"
	KindVolunteer  Kind = "volunteer"
)

// States
const (
	StateIdle     State = "idle"
	StateScanning State = "scanning"
	StateMatched  State = "matched"
)

// Notices
const (
	MsgCameraDenied = "No se pudo acceder a la cámara. Revisa los permisos del navegador e inténtalo de nuevo."
	MsgCheckInError = "No se pudo registrar el ingreso"
)

var (
	ErrInvalidTransition = errors.New("invalid check-in transition")

	notFoundMessages = map[Kind]string{
		KindEnrollment: "No se encontró ninguna matrícula con este código QR",
		KindVolunteer:  "No se encontró ningún voluntario con este código QR",
	}
	successMessages = map[Kind]string{
		KindEnrollment: "Asistencia registrada",
		KindVolunteer:  "Ingreso del voluntario registrado",
	}
)

type (
	// Subject is the record a QR code resolves to.
	Subject interface {
		GetID() string
		DisplayName() string
	}

	Config struct {
		Kind Kind
		// Lookup returns nil when no record matches the code.
		Lookup func(ctx context.Context, code string) Subject
		// CheckIn is the side-effecting mutation, called with the matched record id.
		CheckIn func(ctx context.Context, id string) error
	}

	// Camera is the scan surface's video source.
	Camera interface {
		Start(ctx context.Context) error
		Stop() error
	}

	Snapshot struct {
		Kind         Kind    `json:"kind"`
		State        State   `json:"state"`
		Result       Subject `json:"-"`
		CameraActive bool    `json:"camera_active"`
	}

	// Workflow is the check-in state machine of one session. The camera is released on every exit path.
	Workflow struct {
		cfg      Config
		camera   Camera
		notifier notify.Notifier

		mu           sync.Mutex
		state        State
		result       Subject
		cameraActive bool
	}
)

func NotFoundMessage(kind Kind) string { return notFoundMessages[kind] }
func SuccessMessage(kind Kind) string  { return successMessages[kind] }

func New(cfg Config, camera Camera, notifier notify.Notifier) *Workflow {
	return &Workflow{cfg: cfg, camera: camera, notifier: notifier, state: StateIdle}
}

func (w *Workflow) Kind() Kind { return w.cfg.Kind }

// Camera returns the workflow's camera.
func (w *Workflow) Camera() Camera { return w.camera }

func (w *Workflow) Snapshot() Snapshot {
	w.mu.Lock()
	defer w.mu.Unlock()
	return Snapshot{Kind: w.cfg.Kind, State: w.state, Result: w.result, CameraActive: w.cameraActive}
}

// Start opens the scan surface and acquires the camera. A camera failure is reported
// and leaves the workflow scanning without a camera, so that Retry can be called.
func (w *Workflow) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.state != StateIdle {
		return errors.Wrapf(ErrInvalidTransition, "start from %s", w.state)
	}
	w.state = StateScanning
	w.result = nil
	w.acquire(ctx)
	return nil
}

// Retry acquires the camera again after a failure.
func (w *Workflow) Retry(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.state != StateScanning {
		return errors.Wrapf(ErrInvalidTransition, "retry from %s", w.state)
	}
	if !w.cameraActive {
		w.acquire(ctx)
	}
	return nil
}

func (w *Workflow) acquire(ctx context.Context) {
	if err := w.camera.Start(ctx); err != nil {
		w.notifier.Error(ctx, MsgCameraDenied)
		return
	}
	w.cameraActive = true
}

func (w *Workflow) release() {
	if w.cameraActive {
		_ = w.camera.Stop()
		w.cameraActive = false
	}
}

// Decoded resolves a scanned code. On a match the workflow waits for confirmation; otherwise a
// not-found notice is sent and the scan surface closes. The camera is released either way.
func (w *Workflow) Decoded(ctx context.Context, code string) (Subject, error) {
	w.mu.Lock()
	if w.state != StateScanning {
		state := w.state
		w.mu.Unlock()
		return nil, errors.Wrapf(ErrInvalidTransition, "decoded from %s", state)
	}
	w.mu.Unlock()

	subject := w.cfg.Lookup(ctx, code)

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.state != StateScanning {
		return nil, errors.Wrapf(ErrInvalidTransition, "decoded from %s", w.state)
	}
	w.release()
	if subject == nil {
		w.state = StateIdle
		w.notifier.Error(ctx, NotFoundMessage(w.cfg.Kind))
		return nil, nil
	}
	w.state = StateMatched
	w.result = subject
	return subject, nil
}

// Confirm calls the check-in mutation with the matched id, then goes back to idle.
func (w *Workflow) Confirm(ctx context.Context) error {
	w.mu.Lock()
	if w.state != StateMatched {
		state := w.state
		w.mu.Unlock()
		return errors.Wrapf(ErrInvalidTransition, "confirm from %s", state)
	}
	id := w.result.GetID()
	w.state = StateIdle
	w.result = nil
	w.mu.Unlock()

	if err := w.cfg.CheckIn(ctx, id); err != nil {
		w.notifier.Error(ctx, MsgCheckInError)
		return errors.Wrap(err, "checking in")
	}
	w.notifier.Success(ctx, SuccessMessage(w.cfg.Kind))
	return nil
}

// Cancel drops the matched result without mutating anything.
func (w *Workflow) Cancel() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.state != StateMatched {
		return errors.Wrapf(ErrInvalidTransition, "cancel from %s", w.state)
	}
	w.state = StateIdle
	w.result = nil
	return nil
}

// Close closes the scan surface.
func (w *Workflow) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.state != StateScanning {
		return errors.Wrapf(ErrInvalidTransition, "close from %s", w.state)
	}
	w.release()
	w.state = StateIdle
	return nil
}

// Teardown releases the camera and resets the workflow, whatever its state.
func (w *Workflow) Teardown() {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.release()
	w.state = StateIdle
	w.result = nil
}
