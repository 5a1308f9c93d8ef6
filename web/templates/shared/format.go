package shared

import (
	"fmt"
	"time"
)

var bulan = [...]string{
	"Januari", "Februari", "Maret", "April", "Mei", "Juni",
	"Juli", "Agustus", "September", "Oktober", "November", "Desember",
}

// WIB is Asia/Jakarta, which has no daylight saving
var WIB = time.FixedZone("WIB", 7*60*60)

// FormatTanggal renders t as "02 Januari 2006" in WIB, optionally followed by "15.04"
func FormatTanggal(t time.Time, withJam bool) string {
	if t.IsZero() {
		return "-"
	}
	t = t.In(WIB)
	s := fmt.Sprintf("%02d %s %d", t.Day(), bulan[t.Month()-1], t.Year())
	if withJam {
		s += " " + t.Format("15.04")
	}
	return s
}
