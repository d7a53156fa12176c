package models

// SettingsID is the fixed identifier of the settings singleton.
const SettingsID = "default"

// Settings holds per-user application preferences. There is exactly one
// settings record per local store, keyed by SettingsID.
type Settings struct {
	Timestamps
	ID             string `json:"id"`
	DayStartHour   int    `json:"day_start_hour"`
	DayEndHour     int    `json:"day_end_hour"`
	FirstDayOfWeek int    `json:"first_day_of_week"`
	RemindersOn    bool   `json:"reminders_on"`
}

func (s *Settings) EntityID() string      { return s.ID }
func (s *Settings) SetEntityID(id string) { s.ID = id }

// DefaultSettings returns the settings used before the user changed
// anything.
func DefaultSettings() *Settings {
	return &Settings{
		ID:           SettingsID,
		DayStartHour: 8,
		DayEndHour:   22,
	}
}
