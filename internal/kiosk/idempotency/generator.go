// Package idempotency mencetak key unik per percobaan capture.
//
// Key dibuat SEKALI saat capture, lalu disimpan bersama item antrian; retry
// pengiriman memakai key yang sama dari antrian, bukan mencetak key baru.
package idempotency

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Generator menggabungkan identitas device yang stabil, komponen waktu
// monotonic, dan randomness. Aman dipanggil dari banyak goroutine dan tetap
// unik setelah restart proses.
type Generator struct {
	deviceCode string
	now        func() time.Time

	mu       sync.Mutex
	lastNano int64
}

func NewGenerator(deviceCode string) *Generator {
	return &Generator{
		deviceCode: deviceCode,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// NewKey menghasilkan key bentuk <device_code>-<unix_nano>-<uuid>.
// Komponen nano dijaga naik ketat: kalau jam sistem mundur (NTP step),
// key tetap tidak pernah tabrakan dengan key sebelumnya.
func (g *Generator) NewKey() string {
	g.mu.Lock()
	nano := g.now().UnixNano()
	if nano <= g.lastNano {
		nano = g.lastNano + 1
	}
	g.lastNano = nano
	g.mu.Unlock()

	return fmt.Sprintf("%s-%d-%s", g.deviceCode, nano, uuid.NewString())
}
