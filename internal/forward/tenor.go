package forward

import (
	"fmt"
	"strings"
)

// Tenor labels a settlement horizon on the standard FX forward schedule.
type Tenor string

const (
	TenorSpot Tenor = "Spot"
	Tenor1W   Tenor = "1W"
	Tenor1M   Tenor = "1M"
	Tenor2M   Tenor = "2M"
	Tenor3M   Tenor = "3M"
	Tenor6M   Tenor = "6M"
	Tenor9M   Tenor = "9M"
	Tenor1Y   Tenor = "1Y"
)

// TenorDays pairs a tenor with its calendar-day offset from the as-of date.
type TenorDays struct {
	Tenor Tenor
	Days  int
}

// Schedule is the fixed tenor set in increasing days.
var Schedule = [...]TenorDays{
	{TenorSpot, 0},
	{Tenor1W, 7},
	{Tenor1M, 30},
	{Tenor2M, 60},
	{Tenor3M, 90},
	{Tenor6M, 180},
	{Tenor9M, 270},
	{Tenor1Y, 365},
}

// Tenors returns the schedule labels in order.
func Tenors() []Tenor {
	out := make([]Tenor, 0, len(Schedule))
	for _, td := range Schedule {
		out = append(out, td.Tenor)
	}
	return out
}

// ParseTenor accepts labels such as "6m" or "spot".
func ParseTenor(s string) (Tenor, error) {
	trimmed := strings.TrimSpace(s)
	for _, td := range Schedule {
		if strings.EqualFold(string(td.Tenor), trimmed) {
			return td.Tenor, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrTenorNotFound, s)
}

// Days returns the day offset of t.
func (t Tenor) Days() (int, error) {
	for _, td := range Schedule {
		if td.Tenor == t {
			return td.Days, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrTenorNotFound, string(t))
}

func (t Tenor) String() string {
	return string(t)
}
