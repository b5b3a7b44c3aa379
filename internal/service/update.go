package service

import (
	"context"
	"time"

	"github.com/w22j/find-friends-backend/internal/model"
	appErrors "github.com/w22j/find-friends-backend/pkg/errors"
)

// UpdateTeam 修改队伍信息，仅队长或管理员可操作
func (s *TeamService) UpdateTeam(ctx context.Context, req *UpdateTeamRequest, loginUser *model.User) (err error) {
	defer func() { s.metrics.ObserveOperation("update", err) }()

	if loginUser == nil {
		return appErrors.ErrNotLogin
	}
	if req == nil || req.ID <= 0 {
		return appErrors.ErrParams
	}

	oldTeam, err := s.getTeam(ctx, req.ID)
	if err != nil {
		return err
	}
	if !loginUser.IsAdmin() && oldTeam.UserID != loginUser.ID {
		return appErrors.ErrNoAuth
	}

	// 显式设为加密队伍时必须同时提供密码
	if req.Status != nil && model.TeamStatus(*req.Status) == model.TeamStatusSecret &&
		(req.Password == nil || isBlank(*req.Password)) {
		return appErrors.ErrParams.WithMessage("加密队伍需要设置密码")
	}

	// 传入的值与原值完全一致时不写库
	if unchangedPatch(oldTeam, req) {
		return nil
	}

	updated := *oldTeam
	if req.Name != nil {
		if err := validateName(*req.Name); err != nil {
			return err
		}
		updated.Name = *req.Name
	}
	if req.Description != nil {
		if err := validateDescription(*req.Description); err != nil {
			return err
		}
		updated.Description = *req.Description
	}
	if req.AvatarURL != nil {
		if err := validateAvatarURL(*req.AvatarURL); err != nil {
			return err
		}
		updated.AvatarURL = *req.AvatarURL
	}
	if req.ExpireTime != nil {
		if err := validateExpireTime(req.ExpireTime, s.now()); err != nil {
			return err
		}
		updated.ExpireTime = normalizeTime(req.ExpireTime)
	}
	if req.Status != nil {
		status, err := parseStatus(req.Status)
		if err != nil {
			return err
		}
		updated.Status = status
	}

	// 密码：非加密队伍一律清空；未传状态且已是加密队伍时沿用原密码
	switch {
	case updated.Status != model.TeamStatusSecret:
		updated.Password = ""
	case req.Password != nil && !isBlank(*req.Password):
		if err := validatePassword(*req.Password); err != nil {
			return err
		}
		if !passwordMatches(oldTeam.Password, *req.Password) {
			hash, err := s.hashPassword(*req.Password)
			if err != nil {
				return appErrors.ErrSystem.WithMessage("更新队伍失败").Wrap(err)
			}
			updated.Password = hash
		}
	case req.Status != nil || oldTeam.Password == "":
		return appErrors.ErrParams.WithMessage("加密队伍需要设置密码")
	}

	if err := s.teams.UpdateTeam(ctx, &updated); err != nil {
		s.logger.Error("Failed to update team", "error", err, "teamId", req.ID)
		return toAppError(mapTeamNotFound(err), appErrors.ErrSystem.WithMessage("更新队伍失败"))
	}

	s.logger.Info("Team updated", "teamId", req.ID, "userId", loginUser.ID)
	s.publish(ctx, model.TeamEventUpdated, req.ID, loginUser.ID, 0)
	return nil
}

// unchangedPatch 所有传入字段都与当前值相同
func unchangedPatch(team *model.Team, req *UpdateTeamRequest) bool {
	if req.Name != nil && *req.Name != team.Name {
		return false
	}
	if req.Description != nil && *req.Description != team.Description {
		return false
	}
	if req.AvatarURL != nil && *req.AvatarURL != team.AvatarURL {
		return false
	}
	if req.Status != nil && model.TeamStatus(*req.Status) != team.Status {
		return false
	}
	if req.ExpireTime != nil && !sameTime(normalizeTime(req.ExpireTime), team.ExpireTime) {
		return false
	}
	if req.Password != nil && !isBlank(*req.Password) {
		// 非加密队伍传入的密码最终会被清空，不算变更
		if team.Status == model.TeamStatusSecret && !passwordMatches(team.Password, *req.Password) {
			return false
		}
	}
	return true
}

func sameTime(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(*b)
}
