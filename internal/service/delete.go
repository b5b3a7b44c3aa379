package service

import (
	"context"

	"github.com/w22j/find-friends-backend/internal/model"
	"github.com/w22j/find-friends-backend/internal/repository"
	appErrors "github.com/w22j/find-friends-backend/pkg/errors"
)

// DeleteTeam 解散队伍，只有队长可以操作
func (s *TeamService) DeleteTeam(ctx context.Context, teamID int64, loginUser *model.User) (err error) {
	defer func() { s.metrics.ObserveOperation("delete", err) }()

	if loginUser == nil {
		return appErrors.ErrNotLogin
	}
	if teamID <= 0 {
		return appErrors.ErrParams
	}

	team, err := s.getTeam(ctx, teamID)
	if err != nil {
		return err
	}
	if team.UserID != loginUser.ID {
		return appErrors.ErrNoAuth.WithMessage("无删除权限")
	}

	err = s.teams.InTx(ctx, func(tx repository.TeamStore) error {
		locked, err := tx.LockTeam(ctx, teamID)
		if err != nil {
			return mapTeamNotFound(err)
		}
		if locked.UserID != loginUser.ID {
			return appErrors.ErrNoAuth.WithMessage("无删除权限")
		}

		// 先删成员关系，失败时不动队伍行
		removed, err := tx.RemoveMembersByTeam(ctx, teamID)
		if err != nil {
			return appErrors.ErrSystem.WithMessage("删除队伍关联信息失败").Wrap(err)
		}
		if removed == 0 {
			return appErrors.ErrSystem.WithMessage("删除队伍关联信息失败")
		}
		if err := tx.DeleteTeam(ctx, teamID); err != nil {
			return appErrors.ErrSystem.WithMessage("删除队伍失败").Wrap(err)
		}
		return nil
	})
	if err != nil {
		s.logger.Error("Failed to delete team", "error", err, "teamId", teamID, "userId", loginUser.ID)
		return toAppError(err, appErrors.ErrSystem.WithMessage("删除队伍失败"))
	}

	s.logger.Info("Team deleted", "teamId", teamID, "userId", loginUser.ID)
	s.publish(ctx, model.TeamEventDissolved, teamID, loginUser.ID, 0)
	return nil
}
