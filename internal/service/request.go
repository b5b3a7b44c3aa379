package service

import "time"

// CreateTeamRequest 创建队伍请求
type CreateTeamRequest struct {
	Name        string `json:"name" example:"周末羽毛球"`
	Description string `json:"description" example:"每周六下午"`
	AvatarURL   string `json:"avatarUrl"`
	MaxNum      int    `json:"maxNum" example:"5"`
	// 0 公开 1 私有 2 加密，缺省为公开
	Status *int `json:"status" example:"0"`
	// 加密队伍的密码
	Password string `json:"password"`
	// 过期时间，缺省永不过期
	ExpireTime *time.Time `json:"expireTime" format:"date-time"`
}

// UpdateTeamRequest 修改队伍请求，未传的字段保持不变
type UpdateTeamRequest struct {
	ID          int64      `json:"id,string" binding:"required" example:"1"`
	Name        *string    `json:"name"`
	Description *string    `json:"description"`
	AvatarURL   *string    `json:"avatarUrl"`
	Status      *int       `json:"status"`
	Password    *string    `json:"password"`
	ExpireTime  *time.Time `json:"expireTime" format:"date-time"`
}

// JoinTeamRequest 加入队伍请求
type JoinTeamRequest struct {
	TeamID int64 `json:"teamId,string" binding:"required" example:"1"`
	// 加密队伍必填
	Password string `json:"password"`
}

// TeamIDRequest 只携带队伍 ID 的请求（退出、解散）
type TeamIDRequest struct {
	TeamID int64 `json:"teamId,string" binding:"required" example:"1"`
}

// TeamQuery 队伍查询条件
type TeamQuery struct {
	ID     int64   `form:"id" json:"id,string"`
	IDList []int64 `form:"idList" json:"idList"`
	// 同时匹配名称和描述
	SearchText  string `form:"searchText" json:"searchText"`
	Name        string `form:"name" json:"name"`
	Description string `form:"description" json:"description"`
	MaxNum      int    `form:"maxNum" json:"maxNum"`
	UserID      int64  `form:"userId" json:"userId,string"`
	Status      *int   `form:"status" json:"status"`
	PageNum     int    `form:"pageNum" json:"pageNum"`
	// 0 表示不分页
	PageSize int `form:"pageSize" json:"pageSize"`
}

// 分页限制
const (
	DefaultPageSize = 10
	MaxPageSize     = 50
)
