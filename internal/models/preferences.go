package models

// Default schedule preference values, matching the mobile client's settings screen.
const (
	DefaultWakeTime  = "07:00"
	DefaultBedTime   = "22:00"
	DefaultWorkStart = "09:00"
	DefaultWorkEnd   = "17:00"
)

// SchedulePreferences describes the user's daily rhythm. The timing
// recommendation prompt uses these to pick a notification time.
// All fields are local clock times in "HH:mm" form.
type SchedulePreferences struct {
	WakeTime  string `json:"wake_time" validate:"required,clock_time"`
	BedTime   string `json:"bed_time" validate:"required,clock_time"`
	WorkStart string `json:"work_start" validate:"required,clock_time"`
	WorkEnd   string `json:"work_end" validate:"required,clock_time"`
}

// DefaultSchedulePreferences returns preferences used before the user sets any.
func DefaultSchedulePreferences() *SchedulePreferences {
	return &SchedulePreferences{
		WakeTime:  DefaultWakeTime,
		BedTime:   DefaultBedTime,
		WorkStart: DefaultWorkStart,
		WorkEnd:   DefaultWorkEnd,
	}
}
