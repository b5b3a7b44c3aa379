package service

import (
	"context"
	"errors"

	"github.com/w22j/find-friends-backend/internal/model"
	"github.com/w22j/find-friends-backend/internal/repository"
	appErrors "github.com/w22j/find-friends-backend/pkg/errors"
)

// quitResult 退出队伍后的状态变化
type quitResult struct {
	dissolved  bool
	newOwnerID int64
}

// QuitTeam 退出队伍
// 最后一个成员退出时解散队伍；队长退出时队长转让给最早入队的其他成员
func (s *TeamService) QuitTeam(ctx context.Context, teamID int64, loginUser *model.User) (err error) {
	defer func() { s.metrics.ObserveOperation("quit", err) }()

	if loginUser == nil {
		return appErrors.ErrNotLogin
	}
	if teamID <= 0 {
		return appErrors.ErrParams
	}

	if _, err := s.getTeam(ctx, teamID); err != nil {
		return err
	}
	joined, err := s.teams.HasMember(ctx, teamID, loginUser.ID)
	if err != nil {
		return appErrors.ErrSystem.Wrap(err)
	}
	if !joined {
		return appErrors.ErrNotFound.WithMessage("用户不在此队伍中")
	}

	var result quitResult
	err = s.teams.InTx(ctx, func(tx repository.TeamStore) error {
		r, err := s.quitInTx(ctx, tx, teamID, loginUser.ID)
		result = r
		return err
	})
	if err != nil {
		s.logger.Error("Failed to quit team", "error", err, "teamId", teamID, "userId", loginUser.ID)
		return toAppError(err, appErrors.ErrSystem.WithMessage("退出队伍失败"))
	}

	switch {
	case result.dissolved:
		s.logger.Info("Team dissolved by last member quitting", "teamId", teamID, "userId", loginUser.ID)
		s.publish(ctx, model.TeamEventDissolved, teamID, loginUser.ID, 0)
	case result.newOwnerID != 0:
		s.logger.Info("Team owner transferred", "teamId", teamID, "from", loginUser.ID, "to", result.newOwnerID)
		s.publish(ctx, model.TeamEventQuit, teamID, loginUser.ID, 0)
		s.publish(ctx, model.TeamEventOwnerTransferred, teamID, loginUser.ID, result.newOwnerID)
	default:
		s.logger.Info("User quit team", "teamId", teamID, "userId", loginUser.ID)
		s.publish(ctx, model.TeamEventQuit, teamID, loginUser.ID, 0)
	}
	return nil
}

// quitInTx 队伍行加锁后再判断人数，避免并发退出留下无人的队伍
func (s *TeamService) quitInTx(ctx context.Context, tx repository.TeamStore, teamID, userID int64) (quitResult, error) {
	var result quitResult

	team, err := tx.LockTeam(ctx, teamID)
	if err != nil {
		return result, mapTeamNotFound(err)
	}
	joined, err := tx.HasMember(ctx, teamID, userID)
	if err != nil {
		return result, err
	}
	if !joined {
		return result, appErrors.ErrNotFound.WithMessage("用户不在此队伍中")
	}

	memberCount, err := tx.CountMembersByTeam(ctx, teamID)
	if err != nil {
		return result, err
	}

	switch {
	case memberCount <= 1:
		// 成员关系随外键级联删除
		if err := tx.DeleteTeam(ctx, teamID); err != nil {
			return result, err
		}
		result.dissolved = true
	case team.UserID == userID:
		successor, err := pickSuccessor(ctx, tx, teamID, userID)
		if err != nil {
			return result, err
		}
		if err := tx.UpdateTeamOwner(ctx, teamID, successor); err != nil {
			return result, appErrors.ErrSystem.WithMessage("更新队伍队长失败").Wrap(err)
		}
		result.newOwnerID = successor
	}

	// 最后删除退出者的成员关系
	if err := tx.RemoveMember(ctx, teamID, userID); err != nil {
		if result.dissolved && errors.Is(err, repository.ErrMemberNotFound) {
			return result, nil
		}
		return result, err
	}
	return result, nil
}

// pickSuccessor 按入队先后取除退出者外最早的成员
func pickSuccessor(ctx context.Context, tx repository.TeamStore, teamID, quitterID int64) (int64, error) {
	members, err := tx.ListEarliestMembers(ctx, teamID, 2)
	if err != nil {
		return 0, err
	}
	for _, m := range members {
		if m.UserID != quitterID {
			return m.UserID, nil
		}
	}
	return 0, appErrors.ErrSystem.WithMessage("队伍成员数据异常")
}
