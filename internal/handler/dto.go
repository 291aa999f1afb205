package handler

import "quest-server/internal/service"

// APIError представляет стандартизированный ответ об ошибке.
type APIError struct {
	Message string `json:"message"`
}

// OptionDTO is a button of the current node. Index is 1-based, as shown to the player.
type OptionDTO struct {
	Index int    `json:"index"`
	Text  string `json:"text"`
}

// NodeResponse renders the player's current position.
type NodeResponse struct {
	StoryID    string                 `json:"storyId"`
	NodeID     string                 `json:"nodeId"`
	Text       []string               `json:"text"`
	Options    []OptionDTO            `json:"options"`
	Inventory  []string               `json:"inventory"`
	IsFinished bool                   `json:"isFinished"`
	Resumed    bool                   `json:"resumed,omitempty"`
	Chance     *service.ChanceOutcome `json:"chance,omitempty"`
}

type choiceRequest struct {
	NodeID string `json:"nodeId" validate:"required,max=200"`
	Option string `json:"option" validate:"required,max=500"`
}

// NodeStatsResponse is the analytics view of one node.
type NodeStatsResponse struct {
	StoryID string               `json:"storyId"`
	NodeID  string               `json:"nodeId"`
	Options []service.OptionStat `json:"options"`
}
