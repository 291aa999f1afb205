package models

import (
	"time"

	"github.com/google/uuid"
)

// Progress хранит текущую позицию игрока в рамках одной истории.
type Progress struct {
	UserID     string    `db:"user_id" json:"userId"`
	StoryID    string    `db:"story_id" json:"storyId"`
	NodeID     string    `db:"node_id" json:"nodeId"`
	Inventory  []string  `db:"inventory" json:"inventory"`
	IsFinished bool      `db:"is_finished" json:"isFinished"`
	CreatedAt  time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt  time.Time `db:"updated_at" json:"updatedAt"`
}

// StoryProgress is the short per-story status returned when listing a user's stories.
type StoryProgress struct {
	StoryID    string    `db:"story_id" json:"storyId"`
	IsFinished bool      `db:"is_finished" json:"isFinished"`
	UpdatedAt  time.Time `db:"updated_at" json:"updatedAt"`
}

// OptionKey identifies an option inside the catalog by its natural key.
type OptionKey struct {
	StoryID string `db:"story_id"`
	NodeID  string `db:"node_id"`
	Text    string `db:"option_text"`
}

// OptionSelection is one row of the analytics read side.
type OptionSelection struct {
	OptionID uuid.UUID `db:"option_id" json:"optionId"`
	Text     string    `db:"option_text" json:"text"`
	Count    int64     `db:"selections" json:"count"`
}
