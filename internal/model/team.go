package model

import "time"

// TeamStatus 队伍可见性
type TeamStatus int

const (
	TeamStatusPublic  TeamStatus = 0 // 公开
	TeamStatusPrivate TeamStatus = 1 // 私有，仅管理员可见，不可加入
	TeamStatusSecret  TeamStatus = 2 // 加密，凭密码加入
)

// 队伍规则限制
const (
	TeamNameMaxLen        = 20
	TeamDescriptionMaxLen = 512
	TeamAvatarURLMaxLen   = 1024
	TeamPasswordMaxLen    = 32
	TeamMinMembers        = 1
	TeamMaxMembers        = 20
	MaxOwnedTeamsPerUser  = 5
	MaxJoinedTeamsPerUser = 5
)

// Valid 是否为合法的状态值
func (s TeamStatus) Valid() bool {
	switch s {
	case TeamStatusPublic, TeamStatusPrivate, TeamStatusSecret:
		return true
	}
	return false
}

// String 状态名称
func (s TeamStatus) String() string {
	switch s {
	case TeamStatusPublic:
		return "public"
	case TeamStatusPrivate:
		return "private"
	case TeamStatusSecret:
		return "secret"
	}
	return "unknown"
}

// ParseTeamStatus 解析状态值，不合法时 ok 为 false
func ParseTeamStatus(v *int) (status TeamStatus, ok bool) {
	if v == nil {
		return TeamStatusPublic, false
	}
	status = TeamStatus(*v)
	return status, status.Valid()
}

// Team 队伍
type Team struct {
	ID          int64      `json:"id,string" db:"id"`
	Name        string     `json:"name" db:"name"`
	Description string     `json:"description" db:"description"`
	AvatarURL   string     `json:"avatarUrl" db:"avatar_url"`
	MaxNum      int        `json:"maxNum" db:"max_num"`
	Status      TeamStatus `json:"status" db:"status"`
	Password    string     `json:"-" db:"password"` // bcrypt 哈希，永不返回给调用方
	ExpireTime  *time.Time `json:"expireTime" db:"expire_time"`
	UserID      int64      `json:"userId,string" db:"user_id"` // 队长
	CreateTime  time.Time  `json:"createTime" db:"create_time"`
	UpdateTime  time.Time  `json:"updateTime" db:"update_time"`
}

// Expired 在 now 时刻是否已过期，未设置过期时间的队伍永不过期
func (t *Team) Expired(now time.Time) bool {
	return t.ExpireTime != nil && t.ExpireTime.Before(now)
}

// UserTeam 用户队伍关系
// ID 为自增主键，越小入队越早，用于队长转让的先后判定
type UserTeam struct {
	ID         int64     `json:"id,string" db:"id"`
	UserID     int64     `json:"userId,string" db:"user_id"`
	TeamID     int64     `json:"teamId,string" db:"team_id"`
	JoinTime   time.Time `json:"joinTime" db:"join_time"`
	CreateTime time.Time `json:"createTime" db:"create_time"`
}

// TeamFilter 队伍组合查询条件，各条件之间为 AND
type TeamFilter struct {
	ID          int64
	IDList      []int64
	Name        string
	Description string
	SearchText  string // 对名称和描述做 OR 模糊匹配
	MaxNum      int
	UserID      int64
	Status      *TeamStatus // 为空时不按状态过滤
	Now         time.Time   // 过期判定时间点
	Limit       int         // 0 表示不分页
	Offset      int
}

// TeamView 返回给调用方的队伍信息（不含密码）
type TeamView struct {
	ID          int64      `json:"id,string"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	AvatarURL   string     `json:"avatarUrl"`
	MaxNum      int        `json:"maxNum"`
	Status      TeamStatus `json:"status"`
	ExpireTime  *time.Time `json:"expireTime"`
	UserID      int64      `json:"userId,string"`
	CreateTime  time.Time  `json:"createTime"`
	UpdateTime  time.Time  `json:"updateTime"`
	CreateUser  *UserView  `json:"createUser"`
	HasJoin     bool       `json:"hasJoin"`
	HasJoinNum  int        `json:"hasJoinNum"`
}

// NewTeamView 由队伍实体构造视图
func NewTeamView(t *Team) *TeamView {
	return &TeamView{
		ID:          t.ID,
		Name:        t.Name,
		Description: t.Description,
		AvatarURL:   t.AvatarURL,
		MaxNum:      t.MaxNum,
		Status:      t.Status,
		ExpireTime:  t.ExpireTime,
		UserID:      t.UserID,
		CreateTime:  t.CreateTime,
		UpdateTime:  t.UpdateTime,
	}
}
