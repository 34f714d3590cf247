package models

import "time"

// Project groups scripts, usually one show or series.
type Project struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"size:255;uniqueIndex;not null" json:"name"`
	Description string    `gorm:"type:text" json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Topic tags scripts for categorisation.
type Topic struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"size:100;uniqueIndex;not null" json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// ScriptTopic links a script to a topic.
type ScriptTopic struct {
	ID       uint `gorm:"primaryKey" json:"id"`
	ScriptID uint `gorm:"not null;uniqueIndex:idx_script_topic" json:"script_id"`
	TopicID  uint `gorm:"not null;uniqueIndex:idx_script_topic;index" json:"topic_id"`
}
