package policy

import (
	"time"

	"go-presensi/internal/event"
)

const (
	StatusPresent     = "PRESENT"
	StatusAbsent      = "ABSENT"
	StatusLate        = "LATE"
	StatusEarlyPickup = "EARLY_PICKUP"
	StatusUnknown     = "UNKNOWN"
)

// Gerbang sekolah buka jauh sebelum jam masuk; kedatangan di rentang ini
// bukan pelanggaran jam kerja.
const earlyArrivalMargin = 2 * time.Hour

// Evaluation adalah hasil murni engine untuk satu (subject, tanggal).
type Evaluation struct {
	Status          string
	EarliestCheckIn *time.Time
	LatestCheckOut  *time.Time
	LateMinutes     int
	Flags           Flag
	CountedEvents   int
}

// Evaluate menghitung status harian dari stream event yang sudah terurut
// kronologis. Fungsi murni: tidak menyentuh storage, seluruh input eksplisit,
// supaya recompute dari consumer Kafka dan dari endpoint HTTP identik.
//
// Event yang kena anti-passback tetap tersimpan sebagai data mentah; di sini
// hanya dikeluarkan dari perhitungan status.
func Evaluate(p AttendancePolicy, date time.Time, events []event.AttendanceEvent, now time.Time) Evaluation {
	// Register manual adalah klaim kehadiran, bukan event gerbang: ikut ke
	// pemeriksaan konflik, tapi tidak ke perhitungan status/jam
	gate := make([]event.AttendanceEvent, 0, len(events))
	for i := range events {
		if events[i].Source != event.SourceManualRegister {
			gate = append(gate, events[i])
		}
	}

	counted := filterAntiPassback(gate, time.Duration(p.AntiPassbackMinutes)*time.Minute)

	eval := Evaluation{
		Status:        StatusAbsent,
		CountedEvents: len(counted),
	}

	var earliestIn, latestOut *time.Time
	for i := range counted {
		e := counted[i]
		ts := e.CapturedAtDevice
		switch e.EventType {
		case event.TypeCheckIn:
			if earliestIn == nil || ts.Before(*earliestIn) {
				t := ts
				earliestIn = &t
			}
		case event.TypeCheckOut:
			if latestOut == nil || ts.After(*latestOut) {
				t := ts
				latestOut = &t
			}
		}
	}
	eval.EarliestCheckIn = earliestIn
	eval.LatestCheckOut = latestOut

	startAt := clockOn(date, p.StartTime)
	endAt := clockOn(date, p.EndTime)
	graceBoundary := startAt.Add(time.Duration(p.GraceMinutes) * time.Minute)

	switch {
	case len(counted) == 0:
		eval.Status = StatusAbsent
	case earliestIn == nil:
		// Hanya ada CHECK_OUT: hari tidak bisa diklasifikasikan
		eval.Status = StatusUnknown
	case earliestIn.After(graceBoundary):
		eval.LateMinutes = int(earliestIn.Sub(graceBoundary) / time.Minute)
		// Lewat ambang terlambat berarti datang terlalu siang untuk dihitung
		// hadir; late_minutes tetap diisi sebagai data mentah
		lateCutoff := graceBoundary.Add(time.Duration(p.LateThresholdMinutes) * time.Minute)
		if p.LateThresholdMinutes > 0 && earliestIn.After(lateCutoff) {
			eval.Status = StatusAbsent
		} else {
			eval.Status = StatusLate
		}
	default:
		eval.Status = StatusPresent
	}

	// Pulang lebih awal menimpa PRESENT, tapi keterlambatan tetap dominan
	if eval.Status == StatusPresent && latestOut != nil {
		earlyBoundary := endAt.Add(-time.Duration(p.GraceMinutes) * time.Minute)
		if latestOut.Before(earlyBoundary) {
			eval.Status = StatusEarlyPickup
		}
	}

	eval.Flags = computeFlags(p, date, counted, events, eval, startAt, endAt, now)
	return eval
}

func computeFlags(
	p AttendancePolicy,
	date time.Time,
	counted, raw []event.AttendanceEvent,
	eval Evaluation,
	startAt, endAt time.Time,
	now time.Time,
) Flag {
	var flags Flag

	// missing_checkout: ada check-in, tidak ada checkout, dan batas tunggu
	// setelah jam pulang sudah lewat
	if eval.EarliestCheckIn != nil && eval.LatestCheckOut == nil {
		cutoff := endAt.Add(time.Duration(p.MissingCheckoutCutoffMinutes) * time.Minute)
		if now.After(cutoff) {
			flags = flags.With(FlagMissingCheckout)
		}
	}

	// outside_policy: bukan hari kerja, atau timestamp jauh di luar jam
	// operasional (sebelum gerbang buka / setelah jam pulang + toleransi)
	if len(counted) > 0 && !p.IsWorkingDay(date) {
		flags = flags.With(FlagOutsidePolicy)
	}
	windowOpen := startAt.Add(-earlyArrivalMargin)
	windowClose := endAt.Add(time.Duration(p.OvertimeGraceMinutes) * time.Minute)
	for i := range counted {
		ts := counted[i].CapturedAtDevice
		if ts.Before(windowOpen) || ts.After(windowClose) {
			flags = flags.With(FlagOutsidePolicy)
			break
		}
	}

	if hasRegisterConflict(raw) {
		flags = flags.With(FlagRegisterConflict)
	}

	return flags
}

// hasRegisterConflict membandingkan klaim register manual dengan data gerbang
// untuk subjek/hari yang sama. Konflik tidak pernah diselesaikan otomatis.
func hasRegisterConflict(raw []event.AttendanceEvent) bool {
	var hasRegister, registerPresent, gatePresent bool
	for i := range raw {
		e := raw[i]
		if e.Source == event.SourceManualRegister {
			hasRegister = true
			if e.EventType == event.TypeCheckIn {
				registerPresent = true
			}
			continue
		}
		if e.EventType == event.TypeCheckIn {
			gatePresent = true
		}
	}
	if !hasRegister {
		return false
	}
	return registerPresent != gatePresent
}

// filterAntiPassback membuang event kedua dari pasangan bertipe sama dalam
// jendela anti-passback (kemungkinan besar scan ganda tidak sengaja).
func filterAntiPassback(events []event.AttendanceEvent, window time.Duration) []event.AttendanceEvent {
	if window <= 0 || len(events) == 0 {
		return events
	}

	counted := make([]event.AttendanceEvent, 0, len(events))
	lastByType := make(map[string]time.Time, 2)

	for i := range events {
		e := events[i]
		if last, ok := lastByType[e.EventType]; ok && e.CapturedAtDevice.Sub(last) < window {
			continue
		}
		lastByType[e.EventType] = e.CapturedAtDevice
		counted = append(counted, e)
	}
	return counted
}

// clockOn menempatkan jam "HH:MM" pada tanggal tertentu (UTC).
func clockOn(date time.Time, hhmm string) time.Time {
	y, m, d := date.UTC().Date()
	parsed, err := time.Parse("15:04", hhmm)
	if err != nil {
		return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	}
	return time.Date(y, m, d, parsed.Hour(), parsed.Minute(), 0, 0, time.UTC)
}
