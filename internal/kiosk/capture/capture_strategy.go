package capture

import "time"

// Token adalah hasil decode yang sudah valid dari salah satu mode input.
// Persis satu dari QRToken / PINCode yang terisi.
type Token struct {
	QRToken string
	PINCode string
}

// Input adalah satu unit input mentah: keystroke wedge, digit PIN pad,
// atau payload hasil decode kamera.
type Input struct {
	Rune    rune
	Payload string
	Enter   bool
	At      time.Time
}

// Strategy menerjemahkan input mentah mode tertentu menjadi Token.
// Semua mode bermuara ke pipeline processScan yang sama.
type Strategy interface {
	Name() string
	// Feed mengonsumsi satu input; ok=true saat satu token lengkap ter-decode.
	Feed(in Input) (tok Token, ok bool)
	// Reset membuang input setengah jadi, dipanggil saat ganti mode.
	Reset()
}

const (
	// Wedge scanner mengetik sangat cepat; jeda lebih lama dari ini berarti
	// burst sebelumnya sudah selesai.
	hidIdleGap  = 100 * time.Millisecond
	minTokenLen = 4
	minPINLen   = 4
	maxPINLen   = 12
)

// HIDWedge membaca scanner keyboard-wedge: burst keystroke cepat yang
// diakhiri Enter, atau dipisah jeda idle dari burst berikutnya.
type HIDWedge struct {
	buf    []rune
	lastAt time.Time
}

func NewHIDWedge() *HIDWedge {
	return &HIDWedge{}
}

func (h *HIDWedge) Name() string { return "hid" }

func (h *HIDWedge) Feed(in Input) (Token, bool) {
	if in.Enter {
		return h.flush()
	}
	if in.Rune == 0 {
		return Token{}, false
	}

	// Jeda idle memisahkan dua burst: yang lama diselesaikan dulu,
	// keystroke sekarang membuka burst baru
	if len(h.buf) > 0 && in.At.Sub(h.lastAt) > hidIdleGap {
		tok, ok := h.flush()
		h.buf = append(h.buf, in.Rune)
		h.lastAt = in.At
		return tok, ok
	}

	h.buf = append(h.buf, in.Rune)
	h.lastAt = in.At
	return Token{}, false
}

func (h *HIDWedge) flush() (Token, bool) {
	if len(h.buf) < minTokenLen {
		// Keystroke nyasar (operator menyenggol keyboard), bukan hasil scan
		h.buf = h.buf[:0]
		return Token{}, false
	}
	tok := Token{QRToken: string(h.buf)}
	h.buf = h.buf[:0]
	return tok, true
}

func (h *HIDWedge) Reset() {
	h.buf = h.buf[:0]
}

// CameraQR menerima payload yang sudah di-decode library QR; satu payload
// langsung menjadi satu token.
type CameraQR struct{}

func NewCameraQR() *CameraQR {
	return &CameraQR{}
}

func (c *CameraQR) Name() string { return "camera" }

func (c *CameraQR) Feed(in Input) (Token, bool) {
	if len(in.Payload) < minTokenLen {
		return Token{}, false
	}
	return Token{QRToken: in.Payload}, true
}

func (c *CameraQR) Reset() {}

// PINPad mengumpulkan digit dan hanya submit saat Enter dengan panjang
// minimal terpenuhi.
type PINPad struct {
	digits []rune
}

func NewPINPad() *PINPad {
	return &PINPad{}
}

func (p *PINPad) Name() string { return "pin" }

func (p *PINPad) Feed(in Input) (Token, bool) {
	if in.Enter {
		if len(p.digits) < minPINLen {
			// Entry gagal tidak boleh menjadi prefix entry orang berikutnya
			p.digits = p.digits[:0]
			return Token{}, false
		}
		tok := Token{PINCode: string(p.digits)}
		p.digits = p.digits[:0]
		return tok, true
	}
	if in.Rune < '0' || in.Rune > '9' {
		return Token{}, false
	}
	if len(p.digits) >= maxPINLen {
		return Token{}, false
	}
	p.digits = append(p.digits, in.Rune)
	return Token{}, false
}

func (p *PINPad) Reset() {
	p.digits = p.digits[:0]
}
