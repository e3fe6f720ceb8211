package policy

import "strings"

// Flag adalah bitset kecil untuk anomali ringkasan harian. Sengaja eksplisit
// (bukan kumpulan kolom boolean) supaya urutan tampil dan penggabungan
// terdefinisi di satu tempat.
type Flag uint8

const (
	FlagMissingCheckout Flag = 1 << iota
	FlagOutsidePolicy
	FlagRegisterConflict
	FlagOverridden
)

// displayOrder menentukan prioritas tampil: konflik register paling butuh
// perhatian manusia, overridden paling rendah karena sudah selesai.
var displayOrder = []Flag{
	FlagRegisterConflict,
	FlagMissingCheckout,
	FlagOutsidePolicy,
	FlagOverridden,
}

var flagNames = map[Flag]string{
	FlagMissingCheckout:  "missing_checkout",
	FlagOutsidePolicy:    "outside_policy",
	FlagRegisterConflict: "register_conflict",
	FlagOverridden:       "overridden",
}

func (f Flag) Has(other Flag) bool {
	return f&other != 0
}

func (f Flag) With(other Flag) Flag {
	return f | other
}

// Primary mengembalikan nama flag dengan prioritas tampil tertinggi,
// string kosong kalau tidak ada flag.
func (f Flag) Primary() string {
	for _, candidate := range displayOrder {
		if f.Has(candidate) {
			return flagNames[candidate]
		}
	}
	return ""
}

// Names mengembalikan semua nama flag aktif, urut sesuai prioritas tampil.
func (f Flag) Names() []string {
	names := make([]string, 0, len(displayOrder))
	for _, candidate := range displayOrder {
		if f.Has(candidate) {
			names = append(names, flagNames[candidate])
		}
	}
	return names
}

// IsException: ada anomali dan belum di-override manusia.
func (f Flag) IsException() bool {
	return f != 0 && !f.Has(FlagOverridden)
}

func (f Flag) String() string {
	names := f.Names()
	if len(names) == 0 {
		return "none"
	}
	return strings.Join(names, ",")
}

// ParseFlagName dipakai filter query ?flag= di endpoint exceptions.
func ParseFlagName(name string) (Flag, bool) {
	for fl, n := range flagNames {
		if n == name {
			return fl, true
		}
	}
	return 0, false
}
