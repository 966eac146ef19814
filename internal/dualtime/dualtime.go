package dualtime

import (
	"fmt"
	"time"
)

// Instant is one moment seen from two clocks: the origin (system) zone and
// the local (user) zone. Each side carries the start of its day.
//
// The two constructors are not mirror images. FromLocal computes the day start
// in the local zone and projects it into the origin zone, FromOrigin does the
// opposite. For the same moment they can disagree on OriginDayStart.
type Instant struct {
	origin         time.Time
	local          time.Time
	originDayStart time.Time
	localDayStart  time.Time
}

// FromLocal builds an Instant from a moment on the user's clock.
func FromLocal(t time.Time, originZone, localZone *time.Location) Instant {
	local := t.In(localZone)
	localDayStart := DayStart(local, localZone)
	return Instant{
		local:          local,
		origin:         local.In(originZone),
		localDayStart:  localDayStart,
		originDayStart: localDayStart.In(originZone),
	}
}

// FromOrigin builds an Instant from a moment on the system clock.
func FromOrigin(t time.Time, originZone, localZone *time.Location) Instant {
	origin := t.In(originZone)
	originDayStart := DayStart(origin, originZone)
	return Instant{
		origin:         origin,
		local:          origin.In(localZone),
		originDayStart: originDayStart,
		localDayStart:  originDayStart.In(localZone),
	}
}

// DayStart truncates t to 00:00:00.000 in zone.
func DayStart(t time.Time, zone *time.Location) time.Time {
	z := t.In(zone)
	return time.Date(z.Year(), z.Month(), z.Day(), 0, 0, 0, 0, zone)
}

// Instant returns the absolute moment.
func (i Instant) Instant() time.Time { return i.origin }

// Origin returns the moment in the origin zone.
func (i Instant) Origin() time.Time { return i.origin }

// Local returns the moment in the local zone.
func (i Instant) Local() time.Time { return i.local }

// OriginDayStart returns the day start as seen from the origin zone.
func (i Instant) OriginDayStart() time.Time { return i.originDayStart }

// LocalDayStart returns the day start as seen from the local zone.
func (i Instant) LocalDayStart() time.Time { return i.localDayStart }

// OriginZone returns the origin location.
func (i Instant) OriginZone() *time.Location { return i.origin.Location() }

// LocalZone returns the local location.
func (i Instant) LocalZone() *time.Location { return i.local.Location() }

// LocalDate returns the calendar date on the user's clock.
func (i Instant) LocalDate() Date { return DateOf(i.local) }

// OriginDate returns the calendar date on the system clock.
func (i Instant) OriginDate() Date { return DateOf(i.origin) }

func (i Instant) String() string {
	return fmt.Sprintf("%s (origin %s)", i.local.Format(time.RFC3339), i.origin.Format(time.RFC3339))
}
