package model

import "time"

// TeamEventType 队伍事件类型
type TeamEventType string

const (
	TeamEventCreated          TeamEventType = "created"
	TeamEventUpdated          TeamEventType = "updated"
	TeamEventJoined           TeamEventType = "joined"
	TeamEventQuit             TeamEventType = "quit"
	TeamEventOwnerTransferred TeamEventType = "owner_transferred"
	TeamEventDissolved        TeamEventType = "dissolved"
)

// TeamEvent 队伍状态变更事件，提交成功后发布
type TeamEvent struct {
	Type       TeamEventType `json:"type"`
	TeamID     int64         `json:"teamId,string"`
	UserID     int64         `json:"userId,string"`               // 触发者
	NewOwnerID int64         `json:"newOwnerId,string,omitempty"` // 仅 owner_transferred
	OccurredAt time.Time     `json:"occurredAt"`
}
