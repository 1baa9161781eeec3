package workunit

import (
	"fmt"
	"strconv"
)

// Unit is a work-day multiplier. It drives both pay and the expected clock times.
type Unit float64

const (
	HalfDay  Unit = 0.5
	FullDay  Unit = 1
	Extended Unit = 1.5
	Double   Unit = 2
)

type HourRange struct {
	Min float64
	Max float64
}

type Preset struct {
	Unit          Unit
	Label         string
	InTime        string
	OutTime       string
	LunchOut      string
	LunchIn       string
	ExpectedHours HourRange
}

var presets = []Preset{
	{Unit: HalfDay, Label: "Half Day", InTime: "09:00", OutTime: "13:00", ExpectedHours: HourRange{Min: 3.5, Max: 5}},
	{Unit: FullDay, Label: "Full Day", InTime: "09:00", OutTime: "18:00", LunchOut: "13:00", LunchIn: "14:00", ExpectedHours: HourRange{Min: 7, Max: 9}},
	{Unit: Extended, Label: "Extended", InTime: "09:00", OutTime: "22:00", LunchOut: "13:00", LunchIn: "14:00", ExpectedHours: HourRange{Min: 11, Max: 13}},
	{Unit: Double, Label: "Double", InTime: "06:00", OutTime: "23:00", LunchOut: "13:00", LunchIn: "14:00", ExpectedHours: HourRange{Min: 15, Max: 17}},
}

// Presets returns the preset table ordered by unit.
func Presets() []Preset {
	out := make([]Preset, len(presets))
	copy(out, presets)
	return out
}

func (u Unit) IsKnown() bool {
	for _, p := range presets {
		if p.Unit == u {
			return true
		}
	}
	return false
}

func (u Unit) String() string {
	return strconv.FormatFloat(float64(u), 'f', -1, 64)
}

// ParseUnit accepts only the units of the preset table.
func ParseUnit(s string) (Unit, error) {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid work unit %q: %w", s, err)
	}
	u := Unit(f)
	if !u.IsKnown() {
		return 0, fmt.Errorf("unknown work unit %q", s)
	}
	return u, nil
}

// PresetFor returns the preset of the unit. Units outside the table resolve to Full Day,
// so validate with IsKnown first when the exact unit matters.
func PresetFor(u Unit) Preset {
	for _, p := range presets {
		if p.Unit == u {
			return p
		}
	}
	return presets[1]
}

// ApplyPreset returns the canonical clock times for the unit.
func ApplyPreset(u Unit) TimeSpan {
	p := PresetFor(u)
	return TimeSpan{
		InTime:   p.InTime,
		LunchOut: p.LunchOut,
		LunchIn:  p.LunchIn,
		OutTime:  p.OutTime,
	}
}

type Alignment string

const (
	Aligned   Alignment = "aligned"
	Underwork Alignment = "underwork"
	Overwork  Alignment = "overwork"
	NoTimes   Alignment = "no-times"
)

// AlignmentStatus compares worked hours with the preset's expected range. It is a hint only.
func AlignmentStatus(workHours float64, preset Preset, hasTimeEntries bool) Alignment {
	if !hasTimeEntries || workHours == 0 {
		return NoTimes
	}
	if workHours < preset.ExpectedHours.Min {
		return Underwork
	}
	if workHours > preset.ExpectedHours.Max {
		return Overwork
	}
	return Aligned
}
