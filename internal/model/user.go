package model

import "time"

// UserRole 用户角色
const (
	UserRoleDefault = 0 // 普通用户
	UserRoleAdmin   = 1 // 管理员
)

// User 平台用户（由账号服务维护，本服务只读）
type User struct {
	ID          int64     `json:"id,string" db:"id"`
	Username    string    `json:"username" db:"username"`
	UserAccount string    `json:"userAccount" db:"user_account"`
	AvatarURL   string    `json:"avatarUrl" db:"avatar_url"`
	Gender      int       `json:"gender" db:"gender"`
	Profile     string    `json:"profile" db:"profile"`
	Tags        string    `json:"tags" db:"tags"`
	UserRole    int       `json:"userRole" db:"user_role"`
	CreateTime  time.Time `json:"createTime" db:"create_time"`
}

// IsAdmin 是否为管理员
func (u *User) IsAdmin() bool {
	return u != nil && u.UserRole == UserRoleAdmin
}

// UserView 脱敏后的用户信息
type UserView struct {
	ID          int64     `json:"id,string"`
	Username    string    `json:"username"`
	UserAccount string    `json:"userAccount"`
	AvatarURL   string    `json:"avatarUrl"`
	Gender      int       `json:"gender"`
	Profile     string    `json:"profile"`
	Tags        string    `json:"tags"`
	CreateTime  time.Time `json:"createTime"`
}

// NewUserView 脱敏
func NewUserView(u *User) *UserView {
	if u == nil {
		return nil
	}
	return &UserView{
		ID:          u.ID,
		Username:    u.Username,
		UserAccount: u.UserAccount,
		AvatarURL:   u.AvatarURL,
		Gender:      u.Gender,
		Profile:     u.Profile,
		Tags:        u.Tags,
		CreateTime:  u.CreateTime,
	}
}
