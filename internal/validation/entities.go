package validation

import (
	"regexp"

	"github.com/timevault/timevault/internal/models"
)

// Activity name and note length limits.
const (
	MaxActivityNameLen = 64
	MaxNoteLen         = 280
)

// colorPattern matches a hex color like #1a2b3c.
var colorPattern = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

// ActivityRules returns the rule set gating activity writes.
// The block value invariant is the load-bearing one: a block is 30
// minutes, so its value is exactly half the hourly value.
func ActivityRules() *RuleSet[*models.Activity] {
	return NewRuleSet[*models.Activity](models.KindActivity).
		Add(SeverityError, "name is required", func(a *models.Activity) bool {
			return a.Name != ""
		}).
		Add(SeverityError, "name exceeds 64 characters", func(a *models.Activity) bool {
			return len(a.Name) <= MaxActivityNameLen
		}).
		Add(SeverityError, "hourly value must not be negative", func(a *models.Activity) bool {
			return a.HourlyValue >= 0
		}).
		Add(SeverityError, "block value must equal half the hourly value", func(a *models.Activity) bool {
			return a.BlockValue == a.HourlyValue/2
		}).
		Add(SeverityWarning, "color should be a hex value like #aabbcc", func(a *models.Activity) bool {
			return a.Color == "" || colorPattern.MatchString(a.Color)
		})
}

// TimeSlotRules returns the rule set gating time slot writes.
func TimeSlotRules() *RuleSet[*models.TimeSlot] {
	return NewRuleSet[*models.TimeSlot](models.KindTimeSlot).
		Add(SeverityError, "activity id is required", func(s *models.TimeSlot) bool {
			return s.ActivityID != ""
		}).
		Add(SeverityError, "start time is required", func(s *models.TimeSlot) bool {
			return !s.Start.IsZero()
		}).
		Add(SeverityError, "end must be after start", func(s *models.TimeSlot) bool {
			return s.End.IsZero() || s.End.After(s.Start)
		}).
		Add(SeverityWarning, "note exceeds 280 characters", func(s *models.TimeSlot) bool {
			return len(s.Note) <= MaxNoteLen
		})
}

// SettingsRules returns the rule set gating settings writes.
func SettingsRules() *RuleSet[*models.Settings] {
	return NewRuleSet[*models.Settings](models.KindSettings).
		Add(SeverityError, "settings id must be \"default\"", func(s *models.Settings) bool {
			return s.ID == "" || s.ID == models.SettingsID
		}).
		Add(SeverityError, "day hours must be within 0..24", func(s *models.Settings) bool {
			return s.DayStartHour >= 0 && s.DayEndHour <= 24
		}).
		Add(SeverityError, "day must start before it ends", func(s *models.Settings) bool {
			return s.DayStartHour < s.DayEndHour
		}).
		Add(SeverityError, "first day of week must be within 0..6", func(s *models.Settings) bool {
			return s.FirstDayOfWeek >= 0 && s.FirstDayOfWeek <= 6
		})
}
