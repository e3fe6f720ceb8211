package policy

import (
	"testing"
	"time"

	"go-presensi/internal/event"

	"github.com/stretchr/testify/assert"
)

func testPolicy() AttendancePolicy {
	return AttendancePolicy{
		WorkingDays:                  "12345",
		StartTime:                    "07:30",
		EndTime:                      "15:00",
		GraceMinutes:                 10,
		OvertimeGraceMinutes:         30,
		LateThresholdMinutes:         120,
		MissingCheckoutCutoffMinutes: 240,
		AntiPassbackMinutes:          5,
	}
}

// Senin 2 Juni 2025
var testDate = time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)

func at(hh, mm int) time.Time {
	return time.Date(2025, 6, 2, hh, mm, 0, 0, time.UTC)
}

func gateEvent(eventType string, ts time.Time) event.AttendanceEvent {
	return event.AttendanceEvent{
		EventType:        eventType,
		Source:           event.SourceKioskScan,
		CapturedAtDevice: ts,
	}
}

func TestEvaluate_NoEvents(t *testing.T) {
	eval := Evaluate(testPolicy(), testDate, nil, at(16, 0))
	assert.Equal(t, StatusAbsent, eval.Status)
	assert.Equal(t, Flag(0), eval.Flags)
	assert.Nil(t, eval.EarliestCheckIn)
}

func TestEvaluate_PresentWithinGrace(t *testing.T) {
	evs := []event.AttendanceEvent{
		gateEvent(event.TypeCheckIn, at(7, 35)),
		gateEvent(event.TypeCheckOut, at(15, 5)),
	}
	eval := Evaluate(testPolicy(), testDate, evs, at(16, 0))
	assert.Equal(t, StatusPresent, eval.Status)
	assert.Equal(t, 0, eval.LateMinutes)
	assert.Equal(t, Flag(0), eval.Flags)
}

func TestEvaluate_LateMinutes(t *testing.T) {
	// start 07:30 + grace 10 = 07:40; masuk 07:42 = telat 2 menit
	evs := []event.AttendanceEvent{
		gateEvent(event.TypeCheckIn, at(7, 42)),
		gateEvent(event.TypeCheckOut, at(15, 0)),
	}
	eval := Evaluate(testPolicy(), testDate, evs, at(16, 0))
	assert.Equal(t, StatusLate, eval.Status)
	assert.Equal(t, 2, eval.LateMinutes)
}

func TestEvaluate_LateWithinThreshold(t *testing.T) {
	// Ambang telat 120 menit dari batas grace 07:40; masuk 09:30 masih LATE
	evs := []event.AttendanceEvent{
		gateEvent(event.TypeCheckIn, at(9, 30)),
		gateEvent(event.TypeCheckOut, at(15, 0)),
	}
	eval := Evaluate(testPolicy(), testDate, evs, at(16, 0))
	assert.Equal(t, StatusLate, eval.Status)
	assert.Equal(t, 110, eval.LateMinutes)
}

func TestEvaluate_LateBeyondThresholdIsAbsent(t *testing.T) {
	// Masuk 11:30, jauh lewat ambang 07:40+120=09:40: hari dihitung ABSENT,
	// late_minutes tetap terisi sebagai data mentah
	evs := []event.AttendanceEvent{
		gateEvent(event.TypeCheckIn, at(11, 30)),
		gateEvent(event.TypeCheckOut, at(15, 0)),
	}
	eval := Evaluate(testPolicy(), testDate, evs, at(16, 0))
	assert.Equal(t, StatusAbsent, eval.Status)
	assert.Equal(t, 230, eval.LateMinutes)
}

func TestEvaluate_ZeroThresholdUnbounded(t *testing.T) {
	// Ambang 0 = tidak ada cutoff; telat berapa pun tetap LATE
	p := testPolicy()
	p.LateThresholdMinutes = 0
	evs := []event.AttendanceEvent{
		gateEvent(event.TypeCheckIn, at(11, 30)),
	}
	eval := Evaluate(p, testDate, evs, at(12, 0))
	assert.Equal(t, StatusLate, eval.Status)
}

func TestEvaluate_AntiPassback(t *testing.T) {
	// Dua check-in berjarak 2 menit, jendela 5 menit: hanya yang pertama
	// dihitung, keduanya tetap tersimpan sebagai data mentah
	evs := []event.AttendanceEvent{
		gateEvent(event.TypeCheckIn, at(7, 32)),
		gateEvent(event.TypeCheckIn, at(7, 34)),
		gateEvent(event.TypeCheckOut, at(15, 2)),
	}
	eval := Evaluate(testPolicy(), testDate, evs, at(16, 0))
	assert.Equal(t, StatusPresent, eval.Status)
	assert.Equal(t, 2, eval.CountedEvents)
	assert.Equal(t, at(7, 32), *eval.EarliestCheckIn)
}

func TestEvaluate_AntiPassbackKeepsDistantRescan(t *testing.T) {
	evs := []event.AttendanceEvent{
		gateEvent(event.TypeCheckIn, at(7, 32)),
		gateEvent(event.TypeCheckIn, at(7, 40)),
	}
	eval := Evaluate(testPolicy(), testDate, evs, at(12, 0))
	assert.Equal(t, 2, eval.CountedEvents)
	// earliest tetap yang pertama
	assert.Equal(t, at(7, 32), *eval.EarliestCheckIn)
}

func TestEvaluate_MissingCheckout(t *testing.T) {
	evs := []event.AttendanceEvent{
		gateEvent(event.TypeCheckIn, at(7, 35)),
	}

	// Evaluasi sebelum cutoff (end 15:00 + 240m = 19:00): belum flag
	early := Evaluate(testPolicy(), testDate, evs, at(16, 0))
	assert.False(t, early.Flags.Has(FlagMissingCheckout))

	// Setelah cutoff: flag menyala, checkout tetap kosong
	late := Evaluate(testPolicy(), testDate, evs, at(19, 30))
	assert.True(t, late.Flags.Has(FlagMissingCheckout))
	assert.Nil(t, late.LatestCheckOut)
	assert.Equal(t, StatusPresent, late.Status)
}

func TestEvaluate_EarlyPickup(t *testing.T) {
	evs := []event.AttendanceEvent{
		gateEvent(event.TypeCheckIn, at(7, 35)),
		gateEvent(event.TypeCheckOut, at(12, 0)),
	}
	eval := Evaluate(testPolicy(), testDate, evs, at(16, 0))
	assert.Equal(t, StatusEarlyPickup, eval.Status)
}

func TestEvaluate_LateDominatesEarlyPickup(t *testing.T) {
	evs := []event.AttendanceEvent{
		gateEvent(event.TypeCheckIn, at(8, 0)),
		gateEvent(event.TypeCheckOut, at(12, 0)),
	}
	eval := Evaluate(testPolicy(), testDate, evs, at(16, 0))
	assert.Equal(t, StatusLate, eval.Status)
}

func TestEvaluate_CheckoutOnlyDayIsUnknown(t *testing.T) {
	evs := []event.AttendanceEvent{
		gateEvent(event.TypeCheckOut, at(14, 0)),
	}
	eval := Evaluate(testPolicy(), testDate, evs, at(16, 0))
	assert.Equal(t, StatusUnknown, eval.Status)
}

func TestEvaluate_OutsidePolicyNonWorkingDay(t *testing.T) {
	sunday := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	evs := []event.AttendanceEvent{
		{
			EventType:        event.TypeCheckIn,
			Source:           event.SourceKioskScan,
			CapturedAtDevice: time.Date(2025, 6, 1, 7, 35, 0, 0, time.UTC),
		},
	}
	eval := Evaluate(testPolicy(), sunday, evs, time.Date(2025, 6, 1, 16, 0, 0, 0, time.UTC))
	assert.True(t, eval.Flags.Has(FlagOutsidePolicy))
	// Status tetap dihitung dari event yang ada
	assert.Equal(t, StatusPresent, eval.Status)
}

func TestEvaluate_OutsidePolicyTimestamps(t *testing.T) {
	// 04:00 = lebih dari 2 jam sebelum jam masuk
	evs := []event.AttendanceEvent{
		gateEvent(event.TypeCheckIn, at(4, 0)),
		gateEvent(event.TypeCheckOut, at(15, 0)),
	}
	eval := Evaluate(testPolicy(), testDate, evs, at(16, 0))
	assert.True(t, eval.Flags.Has(FlagOutsidePolicy))
}

func TestEvaluate_RegisterConflict(t *testing.T) {
	// Register bilang hadir, gerbang tidak pernah melihat check-in
	evs := []event.AttendanceEvent{
		{
			EventType:        event.TypeCheckIn,
			Source:           event.SourceManualRegister,
			CapturedAtDevice: testDate,
		},
	}
	eval := Evaluate(testPolicy(), testDate, evs, at(19, 30))
	assert.True(t, eval.Flags.Has(FlagRegisterConflict))
	// Klaim register tidak mengubah status gerbang
	assert.Equal(t, StatusAbsent, eval.Status)
	assert.False(t, eval.Flags.Has(FlagOutsidePolicy))
}

func TestEvaluate_RegisterAgreesNoConflict(t *testing.T) {
	evs := []event.AttendanceEvent{
		gateEvent(event.TypeCheckIn, at(7, 35)),
		{
			EventType:        event.TypeCheckIn,
			Source:           event.SourceManualRegister,
			CapturedAtDevice: testDate,
		},
		gateEvent(event.TypeCheckOut, at(15, 0)),
	}
	eval := Evaluate(testPolicy(), testDate, evs, at(16, 0))
	assert.False(t, eval.Flags.Has(FlagRegisterConflict))
	assert.Equal(t, StatusPresent, eval.Status)
}

func TestFlag_DisplayPrecedence(t *testing.T) {
	f := Flag(0).With(FlagOutsidePolicy).With(FlagRegisterConflict).With(FlagMissingCheckout)
	assert.Equal(t, "register_conflict", f.Primary())
	assert.Equal(t, []string{"register_conflict", "missing_checkout", "outside_policy"}, f.Names())
	assert.True(t, f.IsException())

	overridden := f.With(FlagOverridden)
	assert.False(t, overridden.IsException())
}

func TestParseFlagName(t *testing.T) {
	f, ok := ParseFlagName("missing_checkout")
	assert.True(t, ok)
	assert.Equal(t, FlagMissingCheckout, f)

	_, ok = ParseFlagName("bogus")
	assert.False(t, ok)
}

func TestPolicy_IsWorkingDay(t *testing.T) {
	p := testPolicy()
	assert.True(t, p.IsWorkingDay(testDate)) // Senin
	assert.False(t, p.IsWorkingDay(time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)))
}
