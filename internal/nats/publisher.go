package nats

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/w22j/find-friends-backend/internal/model"
)

// SubjectTeamEventsPrefix 队伍事件主题前缀，完整主题为 team.events.<type>
const SubjectTeamEventsPrefix = "team.events."

// BuildTeamEventSubject 构建队伍事件主题
func BuildTeamEventSubject(eventType model.TeamEventType) string {
	return SubjectTeamEventsPrefix + string(eventType)
}

// publishConn 发布所需的最小连接能力，*nats.Conn 满足
type publishConn interface {
	Publish(subject string, data []byte) error
}

// TeamEventPublisher 队伍事件发布器
type TeamEventPublisher struct {
	nc     publishConn
	logger *slog.Logger
}

// NewTeamEventPublisher 创建队伍事件发布器
func NewTeamEventPublisher(nc publishConn) *TeamEventPublisher {
	return &TeamEventPublisher{
		nc:     nc,
		logger: slog.Default(),
	}
}

// PublishTeamEvent 发布队伍事件
func (p *TeamEventPublisher) PublishTeamEvent(_ context.Context, event *model.TeamEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal team event: %w", err)
	}

	subject := BuildTeamEventSubject(event.Type)
	if err := p.nc.Publish(subject, data); err != nil {
		return fmt.Errorf("publish %s: %w", subject, err)
	}

	p.logger.Debug("Published team event", "subject", subject, "teamId", event.TeamID)
	return nil
}
