package models

// Activity represents a trackable kind of work or rest.
// HourlyValue and BlockValue are stored in cents; a block is 30 minutes,
// so BlockValue must always equal HourlyValue/2.
type Activity struct {
	Timestamps
	ID          string `json:"id"`
	Name        string `json:"name"`
	Emoji       string `json:"emoji,omitempty"`
	Color       string `json:"color,omitempty"`
	HourlyValue int64  `json:"hourly_value"`
	BlockValue  int64  `json:"block_value"`
	Archived    bool   `json:"archived"`
}

func (a *Activity) EntityID() string      { return a.ID }
func (a *Activity) SetEntityID(id string) { a.ID = id }

// NewActivity builds an activity with a consistent block value.
func NewActivity(name string, hourlyValue int64) *Activity {
	return &Activity{
		Name:        name,
		HourlyValue: hourlyValue,
		BlockValue:  hourlyValue / 2,
	}
}
