package models

import "time"

// SelectionEvent описывает факт выбора варианта игроком.
// Используется и для синхронной записи статистики, и как payload в очереди.
type SelectionEvent struct {
	UserID     string    `json:"userId"`
	StoryID    string    `json:"storyId"`
	NodeID     string    `json:"nodeId"`
	OptionText string    `json:"optionText"`
	SelectedAt time.Time `json:"selectedAt"`
}
