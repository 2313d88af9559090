package model

import "time"

type Mood string

const (
	MoodHappy   Mood = "happy"
	MoodNeutral Mood = "neutral"
	MoodSad     Mood = "sad"
)

func (m Mood) Valid() bool {
	switch m {
	case MoodHappy, MoodNeutral, MoodSad:
		return true
	}
	return false
}

// MoodEntry 每人每天一条，再次打卡覆盖当天
type MoodEntry struct {
	UserID    string    `gorm:"primaryKey;size:36" json:"-"`
	Day       string    `gorm:"primaryKey;size:10" json:"date"` // 2006-01-02
	Mood      Mood      `gorm:"size:16;not null" json:"mood"`
	UpdatedAt time.Time `json:"updated_at"`
}

const DayLayout = "2006-01-02"

func DayOf(t time.Time) string {
	return t.UTC().Format(DayLayout)
}

// ChatTurn 一轮对话，role 为 user 或 assistant
type ChatTurn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}
