package service

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/w22j/find-friends-backend/internal/model"
	appErrors "github.com/w22j/find-friends-backend/pkg/errors"
)

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}

func validateName(name string) error {
	if isBlank(name) || utf8.RuneCountInString(name) > model.TeamNameMaxLen {
		return appErrors.ErrParams.WithMessage("标题不符合要求")
	}
	return nil
}

func validateDescription(description string) error {
	if utf8.RuneCountInString(description) > model.TeamDescriptionMaxLen {
		return appErrors.ErrParams.WithMessage("描述过长")
	}
	return nil
}

func validateAvatarURL(avatarURL string) error {
	if utf8.RuneCountInString(avatarURL) > model.TeamAvatarURLMaxLen {
		return appErrors.ErrParams.WithMessage("头像地址过长")
	}
	return nil
}

func validateMaxNum(maxNum int) error {
	if maxNum < model.TeamMinMembers || maxNum > model.TeamMaxMembers {
		return appErrors.ErrParams.WithMessage("队伍人数不符合要求")
	}
	return nil
}

// parseStatus 解析队伍状态，未传时为公开
func parseStatus(v *int) (model.TeamStatus, error) {
	if v == nil {
		return model.TeamStatusPublic, nil
	}
	status, ok := model.ParseTeamStatus(v)
	if !ok {
		return 0, appErrors.ErrParams.WithMessage("队伍状态不满足要求")
	}
	return status, nil
}

func validatePassword(password string) error {
	if isBlank(password) || utf8.RuneCountInString(password) > model.TeamPasswordMaxLen {
		return appErrors.ErrParams.WithMessage("密码设置不正确")
	}
	return nil
}

func validateExpireTime(expireTime *time.Time, now time.Time) error {
	if expireTime != nil && !expireTime.After(now) {
		return appErrors.ErrParams.WithMessage("过期时间不符合要求")
	}
	return nil
}
