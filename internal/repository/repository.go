package repository

import (
	"context"
	"errors"

	"github.com/w22j/find-friends-backend/internal/model"
)

var (
	ErrTeamNotFound   = errors.New("repository: team not found")
	ErrMemberNotFound = errors.New("repository: team member not found")
	ErrAlreadyMember  = errors.New("repository: already team member")
	ErrUserNotFound   = errors.New("repository: user not found")
)

// TeamStore 队伍与用户队伍关系的持久化
type TeamStore interface {
	// InTx 在同一个事务中执行 fn，fn 返回错误时整体回滚
	InTx(ctx context.Context, fn func(tx TeamStore) error) error

	CreateTeam(ctx context.Context, team *model.Team) error
	GetTeamByID(ctx context.Context, id int64) (*model.Team, error)
	// LockTeam 读取队伍并加行锁，仅在事务内有意义
	LockTeam(ctx context.Context, id int64) (*model.Team, error)
	UpdateTeam(ctx context.Context, team *model.Team) error
	UpdateTeamOwner(ctx context.Context, teamID, userID int64) error
	DeleteTeam(ctx context.Context, id int64) error
	CountTeamsByUser(ctx context.Context, userID int64) (int, error)
	ListTeams(ctx context.Context, filter *model.TeamFilter) ([]*model.Team, error)

	AddMember(ctx context.Context, member *model.UserTeam) error
	RemoveMember(ctx context.Context, teamID, userID int64) error
	RemoveMembersByTeam(ctx context.Context, teamID int64) (int64, error)
	HasMember(ctx context.Context, teamID, userID int64) (bool, error)
	CountMembersByTeam(ctx context.Context, teamID int64) (int, error)
	CountMembersByUser(ctx context.Context, userID int64) (int, error)
	// ListEarliestMembers 按入队先后（自增 id 升序）返回前 limit 个成员
	ListEarliestMembers(ctx context.Context, teamID int64, limit int) ([]*model.UserTeam, error)
	ListJoinedTeamIDs(ctx context.Context, userID int64) ([]int64, error)
	CountMembersByTeams(ctx context.Context, teamIDs []int64) (map[int64]int, error)
	FilterJoinedTeamIDs(ctx context.Context, userID int64, teamIDs []int64) (map[int64]bool, error)
}

// UserStore 平台用户只读查询
type UserStore interface {
	GetUserByID(ctx context.Context, id int64) (*model.User, error)
	GetUsersByIDs(ctx context.Context, ids []int64) (map[int64]*model.User, error)
}
