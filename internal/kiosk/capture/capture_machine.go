package capture

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"go-presensi/internal/event"
	"go-presensi/internal/kiosk/idempotency"
	"go-presensi/internal/kiosk/roster"
	"go-presensi/internal/scan"

	"go.uber.org/zap"
)

type State string

const (
	StateIdle       State = "idle"
	StateProcessing State = "processing"
	StateSuccess    State = "success"
	StateEarlyLeave State = "early_leave"
	StateBlocked    State = "blocked"
	StateError      State = "error"
)

// displayHold adalah lama state terminal tampil sebelum otomatis balik idle.
const (
	displayHold        = 5 * time.Second
	defaultScanTimeout = 3 * time.Second
)

// ErrServerUnavailable dikembalikan ScanClient saat server tidak bisa
// dihubungi (timeout / koneksi putus). Machine menjawabnya dengan jalur
// offline, bukan layar error.
var ErrServerUnavailable = errors.New("scan endpoint unreachable")

// ScanClient memanggil endpoint scan server secara sinkron.
type ScanClient interface {
	Scan(ctx context.Context, req scan.ScanRequest) (*scan.ScanResponse, error)
}

// SubjectLookup meresolusi token ke subjek dari roster lokal saat offline.
type SubjectLookup interface {
	ByQRToken(ctx context.Context, qrToken string) (*roster.Entry, error)
	ByPIN(ctx context.Context, pin string) (*roster.Entry, error)
}

// EventSink menerima event yang dibangun di jalur offline.
type EventSink interface {
	Enqueue(ctx context.Context, p event.EventPayload) error
	// LastQueuedEventType mengembalikan tipe event terakhir yang masih
	// mengantre untuk subjek ini hari itu ("" kalau tidak ada).
	LastQueuedEventType(ctx context.Context, subjectUserID string, onDate time.Time) (string, error)
}

// Display adalah apa yang layar kiosk tampilkan sekarang.
type Display struct {
	State                State
	EventType            string
	SubjectName          string
	Grade                string
	ClassName            string
	Queued               bool // true = tersimpan offline, menunggu sync
	BlockReason          string
	PickupPersonName     string
	PickupPersonRelation string
	Message              string
	Since                time.Time
}

// Machine adalah loop capture kiosk: satu decode aktif pada satu waktu,
// input tambahan selama processing diabaikan.
type Machine struct {
	deviceCode string
	deviceID   string
	tenantID   string
	branchID   string

	client      ScanClient
	subjects    SubjectLookup
	sink        EventSink
	keys        *idempotency.Generator
	scanTimeout time.Duration
	now         func() time.Time
	logger      *zap.Logger

	processing atomic.Bool

	mu       sync.Mutex
	strategy Strategy
	display  Display
	revert   *time.Timer
}

type Config struct {
	DeviceCode  string
	DeviceID    string
	TenantID    string
	BranchID    string
	ScanTimeout time.Duration
}

func NewMachine(cfg Config, client ScanClient, subjects SubjectLookup, sink EventSink, keys *idempotency.Generator, logger ...*zap.Logger) *Machine {
	l := zap.L().Named("kiosk.capture")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("kiosk.capture")
	}
	timeout := cfg.ScanTimeout
	if timeout <= 0 {
		timeout = defaultScanTimeout
	}
	return &Machine{
		deviceCode:  cfg.DeviceCode,
		deviceID:    cfg.DeviceID,
		tenantID:    cfg.TenantID,
		branchID:    cfg.BranchID,
		client:      client,
		subjects:    subjects,
		sink:        sink,
		keys:        keys,
		scanTimeout: timeout,
		now:         func() time.Time { return time.Now().UTC() },
		logger:      l,
		strategy:    NewHIDWedge(),
		display:     Display{State: StateIdle},
	}
}

// SetMode mengganti strategi input. Input setengah jadi mode lama dibatalkan
// tanpa efek samping.
func (m *Machine) SetMode(s Strategy) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.strategy != nil {
		m.strategy.Reset()
	}
	m.strategy = s
	m.logger.Info("input mode switched", zap.String("mode", s.Name()))
}

// Display mengembalikan state layar sekarang.
func (m *Machine) Display() Display {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.display
}

// HandleInput memberi satu input mentah ke strategi aktif. Saat satu scan
// masih diproses, input baru dibuang, bukan diantre.
func (m *Machine) HandleInput(ctx context.Context, in Input) {
	if m.processing.Load() {
		return
	}

	m.mu.Lock()
	tok, ok := m.strategy.Feed(in)
	m.mu.Unlock()
	if !ok {
		return
	}

	m.ProcessToken(ctx, tok)
}

// ProcessToken menjalankan satu token lewat pipeline scan. Return false
// kalau masih ada scan lain yang in flight.
func (m *Machine) ProcessToken(ctx context.Context, tok Token) bool {
	if !m.processing.CompareAndSwap(false, true) {
		return false
	}
	defer m.processing.Store(false)

	m.setDisplay(Display{State: StateProcessing})

	reqCtx, cancel := context.WithTimeout(ctx, m.scanTimeout)
	defer cancel()

	resp, err := m.client.Scan(reqCtx, scan.ScanRequest{
		QRToken:  tok.QRToken,
		PINCode:  tok.PINCode,
		DeviceID: m.deviceID,
	})
	switch {
	case err == nil:
		m.showScanResult(resp)
	case errors.Is(err, ErrServerUnavailable), errors.Is(err, context.DeadlineExceeded):
		// Gerbang fisik tidak boleh tergantung jaringan: catat lokal,
		// kirim saat sync berikutnya
		m.captureOffline(ctx, tok)
	default:
		m.logger.Warn("scan rejected by server", zap.Error(err))
		m.holdDisplay(Display{State: StateError, Message: err.Error()})
	}
	return true
}

func (m *Machine) showScanResult(resp *scan.ScanResponse) {
	d := Display{
		EventType:   resp.EventType,
		SubjectName: resp.LearnerName,
		Grade:       resp.Grade,
		ClassName:   resp.ClassName,
	}
	switch resp.Status {
	case scan.ResultBlocked:
		d.State = StateBlocked
		d.BlockReason = resp.BlockReason
	case scan.ResultEarlyLeave:
		d.State = StateEarlyLeave
		d.PickupPersonName = resp.PickupPersonName
		d.PickupPersonRelation = resp.PickupPersonRelation
	default:
		d.State = StateSuccess
	}
	m.holdDisplay(d)
}

func (m *Machine) captureOffline(ctx context.Context, tok Token) {
	entry, err := m.lookupSubject(ctx, tok)
	if err != nil {
		m.logger.Warn("offline lookup failed", zap.Error(err))
		m.holdDisplay(Display{State: StateError, Message: "Subjek tidak dikenal (offline)"})
		return
	}

	var qr *string
	if tok.QRToken != "" {
		v := tok.QRToken
		qr = &v
	}

	// Toggle in/out dari antrian lokal saja; scan online sebelum jaringan
	// putus tidak terlihat di sini, anti-passback server yang menyerap sisanya
	now := m.now()
	eventType := event.TypeCheckIn
	if last, err := m.sink.LastQueuedEventType(ctx, entry.SubjectUserID, now); err == nil && last == event.TypeCheckIn {
		eventType = event.TypeCheckOut
	}

	payload := event.EventPayload{
		IdempotencyKey:   m.keys.NewKey(),
		TenantID:         m.tenantID,
		BranchID:         m.branchID,
		SubjectType:      entry.SubjectType,
		SubjectUserID:    entry.SubjectUserID,
		EventType:        eventType,
		Source:           event.SourceKioskScan,
		CapturedAtDevice: now,
		QRToken:          qr,
	}

	if err := m.sink.Enqueue(ctx, payload); err != nil {
		// Event TIDAK tersimpan: operator harus tahu sekarang, bukan nanti
		m.logger.Error("offline enqueue failed", zap.Error(err))
		m.holdDisplay(Display{State: StateError, Message: "Event tidak tersimpan, ulangi scan"})
		return
	}

	m.logger.Info("event queued offline",
		zap.String("idempotency_key", payload.IdempotencyKey),
		zap.String("subject_user_id", payload.SubjectUserID),
	)
	m.holdDisplay(Display{
		State:       StateSuccess,
		EventType:   payload.EventType,
		SubjectName: entry.FullName,
		Queued:      true,
	})
}

func (m *Machine) lookupSubject(ctx context.Context, tok Token) (*roster.Entry, error) {
	if tok.QRToken != "" {
		return m.subjects.ByQRToken(ctx, tok.QRToken)
	}
	return m.subjects.ByPIN(ctx, tok.PINCode)
}

func (m *Machine) setDisplay(d Display) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.revert != nil {
		m.revert.Stop()
		m.revert = nil
	}
	d.Since = m.now()
	m.display = d
}

// holdDisplay menampilkan state terminal lalu balik idle setelah displayHold,
// kecuali disela state baru.
func (m *Machine) holdDisplay(d Display) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.revert != nil {
		m.revert.Stop()
	}
	d.Since = m.now()
	m.display = d
	shown := d.Since
	m.revert = time.AfterFunc(displayHold, func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		if m.display.Since.Equal(shown) {
			m.display = Display{State: StateIdle, Since: m.now()}
		}
	})
}
