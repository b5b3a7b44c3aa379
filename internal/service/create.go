package service

import (
	"context"
	"fmt"
	"time"

	"github.com/w22j/find-friends-backend/internal/model"
	"github.com/w22j/find-friends-backend/internal/repository"
	appErrors "github.com/w22j/find-friends-backend/pkg/errors"
)

// CreateTeam 创建队伍，创建者自动成为队长和第一个成员
func (s *TeamService) CreateTeam(ctx context.Context, req *CreateTeamRequest, loginUser *model.User) (teamID int64, err error) {
	defer func() { s.metrics.ObserveOperation("create", err) }()

	// 1. 校验请求参数
	if loginUser == nil {
		return 0, appErrors.ErrNotLogin
	}
	if req == nil {
		return 0, appErrors.ErrParams
	}
	if err := validateName(req.Name); err != nil {
		return 0, err
	}
	if err := validateDescription(req.Description); err != nil {
		return 0, err
	}
	if err := validateMaxNum(req.MaxNum); err != nil {
		return 0, err
	}
	status, err := parseStatus(req.Status)
	if err != nil {
		return 0, err
	}
	if status == model.TeamStatusSecret {
		if err := validatePassword(req.Password); err != nil {
			return 0, err
		}
	}
	now := s.now()
	if err := validateExpireTime(req.ExpireTime, now); err != nil {
		return 0, err
	}
	if err := validateAvatarURL(req.AvatarURL); err != nil {
		return 0, err
	}

	// 2. 按需对同一队长的创建加锁，关闭"先计数后写入"的竞态
	if s.serializeCreate {
		mu := s.locker.NewMutex(fmt.Sprintf("team:create:%d", loginUser.ID))
		if err := mu.Lock(ctx); err != nil {
			s.logger.Warn("Failed to acquire create lock", "error", err, "userId", loginUser.ID)
			return 0, appErrors.ErrSystem.WithMessage("创建队伍失败").Wrap(err)
		}
		defer func() {
			if mu.IsHeld() {
				if err := mu.Unlock(context.WithoutCancel(ctx)); err != nil {
					s.logger.Warn("Failed to release create lock", "error", err, "userId", loginUser.ID)
				}
			}
		}()
	}

	// 3. 每人最多创建 5 个队伍
	owned, err := s.teams.CountTeamsByUser(ctx, loginUser.ID)
	if err != nil {
		s.logger.Error("Failed to count owned teams", "error", err, "userId", loginUser.ID)
		return 0, appErrors.ErrSystem.Wrap(err)
	}
	if owned >= model.MaxOwnedTeamsPerUser {
		return 0, appErrors.ErrParams.WithMessage("队伍创建已达上限")
	}

	team := &model.Team{
		ID:          s.sfNode.Generate().Int64(),
		Name:        req.Name,
		Description: req.Description,
		AvatarURL:   req.AvatarURL,
		MaxNum:      req.MaxNum,
		Status:      status,
		ExpireTime:  normalizeTime(req.ExpireTime),
		UserID:      loginUser.ID,
	}
	if status == model.TeamStatusSecret {
		hash, err := s.hashPassword(req.Password)
		if err != nil {
			return 0, appErrors.ErrSystem.WithMessage("创建队伍失败").Wrap(err)
		}
		team.Password = hash
	}

	// 4. 队伍和队长的成员关系在同一事务中写入
	err = s.teams.InTx(ctx, func(tx repository.TeamStore) error {
		if err := tx.CreateTeam(ctx, team); err != nil {
			return err
		}
		return tx.AddMember(ctx, &model.UserTeam{
			UserID:   loginUser.ID,
			TeamID:   team.ID,
			JoinTime: now,
		})
	})
	if err != nil {
		s.logger.Error("Failed to create team", "error", err, "userId", loginUser.ID)
		return 0, appErrors.ErrSystem.WithMessage("创建队伍失败").Wrap(err)
	}

	s.logger.Info("Team created", "teamId", team.ID, "userId", loginUser.ID, "status", status.String())
	s.publish(ctx, model.TeamEventCreated, team.ID, loginUser.ID, 0)
	return team.ID, nil
}

// normalizeTime 统一为 UTC 并截断到数据库精度
func normalizeTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := t.UTC().Truncate(time.Microsecond)
	return &v
}
