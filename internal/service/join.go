package service

import (
	"context"
	"errors"
	"time"

	"github.com/w22j/find-friends-backend/internal/lock"
	"github.com/w22j/find-friends-backend/internal/model"
	"github.com/w22j/find-friends-backend/internal/repository"
	appErrors "github.com/w22j/find-friends-backend/pkg/errors"
)

// JoinTeam 加入队伍
// 人数、上限和重复加入的检查与写入在全局锁内完成，所有实例上的加入操作互斥
func (s *TeamService) JoinTeam(ctx context.Context, req *JoinTeamRequest, loginUser *model.User) (err error) {
	defer func() { s.metrics.ObserveOperation("join", err) }()

	if loginUser == nil {
		return appErrors.ErrNotLogin
	}
	if req == nil || req.TeamID <= 0 {
		return appErrors.ErrParams
	}

	// 1. 加锁前校验队伍本身的条件
	team, err := s.getTeam(ctx, req.TeamID)
	if err != nil {
		return err
	}
	if err := s.validateJoinConditions(team, req); err != nil {
		s.logger.Warn("Join rejected", "teamId", team.ID, "userId", loginUser.ID, "reason", appErrors.GetMessage(err))
		return err
	}

	// 2. 获取全局加入锁，无限等待，ctx 取消视为失败
	mu := s.locker.NewMutex(s.joinLockName)
	start := time.Now()
	if err := mu.Lock(ctx); err != nil {
		s.metrics.ObserveLockWait(s.joinLockName, false, time.Since(start))
		if errors.Is(err, lock.ErrInterrupted) {
			s.logger.Warn("Join interrupted while waiting for lock", "teamId", team.ID, "userId", loginUser.ID)
			return appErrors.ErrSystem.WithMessage("加入队伍被中断").Wrap(err)
		}
		s.logger.Error("Failed to acquire join lock", "error", err, "teamId", team.ID)
		return appErrors.ErrSystem.WithMessage("加入队伍失败").Wrap(err)
	}
	s.metrics.ObserveLockWait(s.joinLockName, true, time.Since(start))
	defer func() {
		// 只释放自己持有的锁
		if mu.IsHeld() {
			if err := mu.Unlock(context.WithoutCancel(ctx)); err != nil {
				s.logger.Warn("Failed to release join lock", "error", err, "teamId", team.ID)
			}
		}
	}()

	// 3. 锁内校验人数、个人上限、是否已加入
	if err := s.validateMembership(ctx, team, loginUser.ID); err != nil {
		return err
	}

	// 4. 写入成员关系
	member := &model.UserTeam{
		UserID:   loginUser.ID,
		TeamID:   team.ID,
		JoinTime: s.now(),
	}
	if err := s.teams.AddMember(ctx, member); err != nil {
		switch {
		case errors.Is(err, repository.ErrAlreadyMember):
			return appErrors.ErrParams.WithMessage("已加入队伍")
		case errors.Is(err, repository.ErrTeamNotFound):
			return appErrors.ErrNotFound.WithMessage("队伍不存在")
		}
		s.logger.Error("Failed to add team member", "error", err, "teamId", team.ID, "userId", loginUser.ID)
		return appErrors.ErrSystem.WithMessage("加入队伍失败").Wrap(err)
	}

	s.logger.Info("User joined team", "teamId", team.ID, "userId", loginUser.ID)
	s.publish(ctx, model.TeamEventJoined, team.ID, loginUser.ID, 0)
	return nil
}

// validateJoinConditions 校验队伍是否可加入
func (s *TeamService) validateJoinConditions(team *model.Team, req *JoinTeamRequest) error {
	if team.Expired(s.now()) {
		return appErrors.ErrParams.WithMessage("队伍已过期，无法加入")
	}
	if team.Status == model.TeamStatusPrivate {
		return appErrors.ErrNoAuth.WithMessage("不能加入私有队伍")
	}
	if team.Status == model.TeamStatusSecret && !passwordMatches(team.Password, req.Password) {
		return appErrors.ErrParams.WithMessage("密码不正确")
	}
	return nil
}

// validateMembership 必须在持有加入锁时调用
func (s *TeamService) validateMembership(ctx context.Context, team *model.Team, userID int64) error {
	memberCount, err := s.teams.CountMembersByTeam(ctx, team.ID)
	if err != nil {
		return appErrors.ErrSystem.Wrap(err)
	}
	if memberCount >= team.MaxNum {
		return appErrors.ErrParams.WithMessage("队伍已满")
	}

	joinedCount, err := s.teams.CountMembersByUser(ctx, userID)
	if err != nil {
		return appErrors.ErrSystem.Wrap(err)
	}
	if joinedCount >= model.MaxJoinedTeamsPerUser {
		return appErrors.ErrParams.WithMessage("用户创建和加入队伍已达上限")
	}

	joined, err := s.teams.HasMember(ctx, team.ID, userID)
	if err != nil {
		return appErrors.ErrSystem.Wrap(err)
	}
	if joined {
		return appErrors.ErrParams.WithMessage("已加入队伍")
	}
	return nil
}
