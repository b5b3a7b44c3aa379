package service

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"log/slog"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/w22j/find-friends-backend/internal/lock"
	"github.com/w22j/find-friends-backend/internal/metrics"
	"github.com/w22j/find-friends-backend/internal/model"
	"github.com/w22j/find-friends-backend/internal/repository"
	appErrors "github.com/w22j/find-friends-backend/pkg/errors"
	"github.com/w22j/find-friends-backend/pkg/snowflake"
)

// DefaultJoinLockName 加入队伍的全局锁名
const DefaultJoinLockName = "team:join:lock"

// EventPublisher 队伍事件发布
type EventPublisher interface {
	PublishTeamEvent(ctx context.Context, event *model.TeamEvent) error
}

type noopPublisher struct{}

func (noopPublisher) PublishTeamEvent(context.Context, *model.TeamEvent) error { return nil }

// Option TeamService 配置项
type Option func(*TeamService)

// WithPublisher 设置事件发布器
func WithPublisher(p EventPublisher) Option {
	return func(s *TeamService) {
		if p != nil {
			s.publisher = p
		}
	}
}

// WithMetrics 设置指标
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *TeamService) { s.metrics = m }
}

// WithJoinLockName 设置加入队伍的锁名
func WithJoinLockName(name string) Option {
	return func(s *TeamService) {
		if name != "" {
			s.joinLockName = name
		}
	}
}

// WithSerializeCreate 创建队伍时按队长加锁，保证每人创建数不超过上限
func WithSerializeCreate(enabled bool) Option {
	return func(s *TeamService) { s.serializeCreate = enabled }
}

// WithPasswordCost 设置队伍密码的 bcrypt cost
func WithPasswordCost(cost int) Option {
	return func(s *TeamService) { s.passwordCost = cost }
}

// WithClock 设置时钟
func WithClock(now func() time.Time) Option {
	return func(s *TeamService) { s.now = now }
}

// WithLogger 设置日志
func WithLogger(logger *slog.Logger) Option {
	return func(s *TeamService) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// TeamService 队伍服务
type TeamService struct {
	teams     repository.TeamStore
	users     repository.UserStore
	locker    lock.Locker
	sfNode    *snowflake.Node
	publisher EventPublisher
	metrics   *metrics.Metrics
	logger    *slog.Logger

	joinLockName    string
	serializeCreate bool
	passwordCost    int
	now             func() time.Time
}

// NewTeamService 创建队伍服务
func NewTeamService(teams repository.TeamStore, users repository.UserStore, locker lock.Locker, sfNode *snowflake.Node, opts ...Option) *TeamService {
	s := &TeamService{
		teams:        teams,
		users:        users,
		locker:       locker,
		sfNode:       sfNode,
		publisher:    noopPublisher{},
		logger:       slog.Default(),
		joinLockName: DefaultJoinLockName,
		passwordCost: bcrypt.DefaultCost,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// publish 提交成功后发布事件，失败只记日志
func (s *TeamService) publish(ctx context.Context, eventType model.TeamEventType, teamID, userID, newOwnerID int64) {
	event := &model.TeamEvent{
		Type:       eventType,
		TeamID:     teamID,
		UserID:     userID,
		NewOwnerID: newOwnerID,
		OccurredAt: s.now(),
	}
	if err := s.publisher.PublishTeamEvent(context.WithoutCancel(ctx), event); err != nil {
		s.logger.Warn("Failed to publish team event", "error", err, "type", eventType, "teamId", teamID)
	}
}

// getTeam 获取队伍，不存在时返回 NotFound
func (s *TeamService) getTeam(ctx context.Context, teamID int64) (*model.Team, error) {
	team, err := s.teams.GetTeamByID(ctx, teamID)
	if err != nil {
		if errors.Is(err, repository.ErrTeamNotFound) {
			return nil, appErrors.ErrNotFound.WithMessage("队伍不存在")
		}
		s.logger.Error("Failed to get team", "error", err, "teamId", teamID)
		return nil, appErrors.ErrSystem.Wrap(err)
	}
	return team, nil
}

// mapTeamNotFound 将仓库层的队伍不存在转换为 NotFound
func mapTeamNotFound(err error) error {
	if errors.Is(err, repository.ErrTeamNotFound) {
		return appErrors.ErrNotFound.WithMessage("队伍不存在")
	}
	return err
}

// toAppError 事务内已是 AppError 的直接透出，其余包装为系统错误
func toAppError(err error, fallback *appErrors.AppError) error {
	var appErr *appErrors.AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return fallback.Wrap(err)
}

// prehashPassword 先做 SHA-256，bcrypt 只接受 72 字节以内的输入
func prehashPassword(password string) []byte {
	sum := sha256.Sum256([]byte(password))
	return []byte(base64.StdEncoding.EncodeToString(sum[:]))
}

func (s *TeamService) hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword(prehashPassword(password), s.passwordCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func passwordMatches(hash, password string) bool {
	if hash == "" || password == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), prehashPassword(password)) == nil
}
