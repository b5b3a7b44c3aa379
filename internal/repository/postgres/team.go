package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/w22j/find-friends-backend/internal/model"
	"github.com/w22j/find-friends-backend/internal/repository"
)

const teamColumns = `id, name, description, avatar_url, max_num, status, password, expire_time, user_id, create_time, update_time`

// TeamRepository 队伍数据访问
type TeamRepository struct {
	pool *pgxpool.Pool
	db   querier
}

var _ repository.TeamStore = (*TeamRepository)(nil)

// NewTeamRepository 创建队伍仓库
func NewTeamRepository(pool *pgxpool.Pool) *TeamRepository {
	return &TeamRepository{pool: pool, db: pool}
}

// InTx 在事务中执行，已处于事务中时直接复用
func (r *TeamRepository) InTx(ctx context.Context, fn func(tx repository.TeamStore) error) error {
	if r.pool == nil {
		return fn(r)
	}
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(&TeamRepository{db: tx})
	})
}

func scanTeam(row pgx.Row) (*model.Team, error) {
	team := &model.Team{}
	var status int16
	err := row.Scan(
		&team.ID,
		&team.Name,
		&team.Description,
		&team.AvatarURL,
		&team.MaxNum,
		&status,
		&team.Password,
		&team.ExpireTime,
		&team.UserID,
		&team.CreateTime,
		&team.UpdateTime,
	)
	if err != nil {
		return nil, err
	}
	team.Status = model.TeamStatus(status)
	return team, nil
}

// CreateTeam 创建队伍
func (r *TeamRepository) CreateTeam(ctx context.Context, team *model.Team) error {
	query := `
		INSERT INTO team (id, name, description, avatar_url, max_num, status, password, expire_time, user_id, create_time, update_time)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW(), NOW())
		RETURNING create_time, update_time
	`
	return r.db.QueryRow(ctx, query,
		team.ID,
		team.Name,
		team.Description,
		team.AvatarURL,
		team.MaxNum,
		int16(team.Status),
		team.Password,
		team.ExpireTime,
		team.UserID,
	).Scan(&team.CreateTime, &team.UpdateTime)
}

// GetTeamByID 通过 ID 获取队伍
func (r *TeamRepository) GetTeamByID(ctx context.Context, id int64) (*model.Team, error) {
	query := `SELECT ` + teamColumns + ` FROM team WHERE id = $1`
	team, err := scanTeam(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrTeamNotFound
		}
		return nil, err
	}
	return team, nil
}

// LockTeam 读取队伍并加行锁
func (r *TeamRepository) LockTeam(ctx context.Context, id int64) (*model.Team, error) {
	query := `SELECT ` + teamColumns + ` FROM team WHERE id = $1 FOR UPDATE`
	team, err := scanTeam(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrTeamNotFound
		}
		return nil, err
	}
	return team, nil
}

// UpdateTeam 更新队伍可修改字段
func (r *TeamRepository) UpdateTeam(ctx context.Context, team *model.Team) error {
	query := `
		UPDATE team SET name = $2, description = $3, avatar_url = $4, status = $5, password = $6, expire_time = $7, update_time = NOW()
		WHERE id = $1
		RETURNING update_time
	`
	err := r.db.QueryRow(ctx, query,
		team.ID,
		team.Name,
		team.Description,
		team.AvatarURL,
		int16(team.Status),
		team.Password,
		team.ExpireTime,
	).Scan(&team.UpdateTime)
	if errors.Is(err, pgx.ErrNoRows) {
		return repository.ErrTeamNotFound
	}
	return err
}

// UpdateTeamOwner 转让队长
func (r *TeamRepository) UpdateTeamOwner(ctx context.Context, teamID, userID int64) error {
	query := `UPDATE team SET user_id = $2, update_time = NOW() WHERE id = $1`
	result, err := r.db.Exec(ctx, query, teamID, userID)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return repository.ErrTeamNotFound
	}
	return nil
}

// DeleteTeam 删除队伍，成员关系随外键级联删除
func (r *TeamRepository) DeleteTeam(ctx context.Context, id int64) error {
	result, err := r.db.Exec(ctx, `DELETE FROM team WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return repository.ErrTeamNotFound
	}
	return nil
}

// CountTeamsByUser 用户创建的队伍数
func (r *TeamRepository) CountTeamsByUser(ctx context.Context, userID int64) (int, error) {
	var count int
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM team WHERE user_id = $1`, userID).Scan(&count)
	return count, err
}

// buildTeamQuery 由过滤条件拼接查询，值全部走占位符
func buildTeamQuery(filter *model.TeamFilter) (string, []any) {
	var (
		conds []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if filter.ID > 0 {
		conds = append(conds, "id = "+arg(filter.ID))
	}
	if len(filter.IDList) > 0 {
		conds = append(conds, "id = ANY("+arg(filter.IDList)+")")
	}
	if filter.SearchText != "" {
		p := arg("%" + escapeLike(filter.SearchText) + "%")
		conds = append(conds, "(name ILIKE "+p+" OR description ILIKE "+p+")")
	}
	if filter.Name != "" {
		conds = append(conds, "name ILIKE "+arg("%"+escapeLike(filter.Name)+"%"))
	}
	if filter.Description != "" {
		conds = append(conds, "description ILIKE "+arg("%"+escapeLike(filter.Description)+"%"))
	}
	if filter.MaxNum > 0 {
		conds = append(conds, "max_num = "+arg(filter.MaxNum))
	}
	if filter.UserID > 0 {
		conds = append(conds, "user_id = "+arg(filter.UserID))
	}
	if filter.Status != nil {
		conds = append(conds, "status = "+arg(int16(*filter.Status)))
	}
	if !filter.Now.IsZero() {
		conds = append(conds, "(expire_time IS NULL OR expire_time > "+arg(filter.Now)+")")
	}

	var sb strings.Builder
	sb.WriteString("SELECT ")
	sb.WriteString(teamColumns)
	sb.WriteString(" FROM team")
	if len(conds) > 0 {
		sb.WriteString(" WHERE ")
		sb.WriteString(strings.Join(conds, " AND "))
	}
	sb.WriteString(" ORDER BY id DESC")
	if filter.Limit > 0 {
		sb.WriteString(" LIMIT " + arg(filter.Limit))
		sb.WriteString(" OFFSET " + arg(filter.Offset))
	}
	return sb.String(), args
}

// ListTeams 组合条件查询队伍
func (r *TeamRepository) ListTeams(ctx context.Context, filter *model.TeamFilter) ([]*model.Team, error) {
	if filter == nil {
		filter = &model.TeamFilter{}
	}
	query, args := buildTeamQuery(filter)
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var teams []*model.Team
	for rows.Next() {
		team, err := scanTeam(rows)
		if err != nil {
			return nil, err
		}
		teams = append(teams, team)
	}
	return teams, rows.Err()
}

// AddMember 添加队伍成员
func (r *TeamRepository) AddMember(ctx context.Context, member *model.UserTeam) error {
	query := `
		INSERT INTO user_team (user_id, team_id, join_time, create_time)
		VALUES ($1, $2, $3, NOW())
		RETURNING id, create_time
	`
	err := r.db.QueryRow(ctx, query, member.UserID, member.TeamID, member.JoinTime).
		Scan(&member.ID, &member.CreateTime)
	switch pgErrorCode(err) {
	case pgUniqueViolation:
		return repository.ErrAlreadyMember
	case pgForeignKeyViolation:
		return repository.ErrTeamNotFound
	}
	return err
}

// RemoveMember 移除队伍成员
func (r *TeamRepository) RemoveMember(ctx context.Context, teamID, userID int64) error {
	result, err := r.db.Exec(ctx, `DELETE FROM user_team WHERE team_id = $1 AND user_id = $2`, teamID, userID)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return repository.ErrMemberNotFound
	}
	return nil
}

// RemoveMembersByTeam 移除队伍全部成员，返回删除行数
func (r *TeamRepository) RemoveMembersByTeam(ctx context.Context, teamID int64) (int64, error) {
	result, err := r.db.Exec(ctx, `DELETE FROM user_team WHERE team_id = $1`, teamID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}

// HasMember 用户是否已在队伍中
func (r *TeamRepository) HasMember(ctx context.Context, teamID, userID int64) (bool, error) {
	var exists bool
	query := `SELECT EXISTS(SELECT 1 FROM user_team WHERE team_id = $1 AND user_id = $2)`
	err := r.db.QueryRow(ctx, query, teamID, userID).Scan(&exists)
	return exists, err
}

// CountMembersByTeam 队伍当前人数
func (r *TeamRepository) CountMembersByTeam(ctx context.Context, teamID int64) (int, error) {
	var count int
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM user_team WHERE team_id = $1`, teamID).Scan(&count)
	return count, err
}

// CountMembersByUser 用户已加入的队伍数（含自己创建的）
func (r *TeamRepository) CountMembersByUser(ctx context.Context, userID int64) (int, error) {
	var count int
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM user_team WHERE user_id = $1`, userID).Scan(&count)
	return count, err
}

// ListEarliestMembers 最早入队的 limit 个成员
func (r *TeamRepository) ListEarliestMembers(ctx context.Context, teamID int64, limit int) ([]*model.UserTeam, error) {
	query := `
		SELECT id, user_id, team_id, join_time, create_time
		FROM user_team WHERE team_id = $1
		ORDER BY id ASC
		LIMIT $2
	`
	rows, err := r.db.Query(ctx, query, teamID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var members []*model.UserTeam
	for rows.Next() {
		m := &model.UserTeam{}
		if err := rows.Scan(&m.ID, &m.UserID, &m.TeamID, &m.JoinTime, &m.CreateTime); err != nil {
			return nil, err
		}
		members = append(members, m)
	}
	return members, rows.Err()
}

// ListJoinedTeamIDs 用户加入的全部队伍 ID
func (r *TeamRepository) ListJoinedTeamIDs(ctx context.Context, userID int64) ([]int64, error) {
	rows, err := r.db.Query(ctx, `SELECT team_id FROM user_team WHERE user_id = $1 ORDER BY team_id`, userID)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowTo[int64])
}

// CountMembersByTeams 批量统计队伍人数
func (r *TeamRepository) CountMembersByTeams(ctx context.Context, teamIDs []int64) (map[int64]int, error) {
	counts := make(map[int64]int, len(teamIDs))
	if len(teamIDs) == 0 {
		return counts, nil
	}
	query := `SELECT team_id, COUNT(*) FROM user_team WHERE team_id = ANY($1) GROUP BY team_id`
	rows, err := r.db.Query(ctx, query, teamIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			teamID int64
			count  int
		)
		if err := rows.Scan(&teamID, &count); err != nil {
			return nil, err
		}
		counts[teamID] = count
	}
	return counts, rows.Err()
}

// FilterJoinedTeamIDs 在给定队伍中筛出用户已加入的
func (r *TeamRepository) FilterJoinedTeamIDs(ctx context.Context, userID int64, teamIDs []int64) (map[int64]bool, error) {
	joined := make(map[int64]bool)
	if len(teamIDs) == 0 {
		return joined, nil
	}
	query := `SELECT team_id FROM user_team WHERE user_id = $1 AND team_id = ANY($2)`
	rows, err := r.db.Query(ctx, query, userID, teamIDs)
	if err != nil {
		return nil, err
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[int64])
	if err != nil {
		return nil, err
	}
	for _, id := range ids {
		joined[id] = true
	}
	return joined, nil
}
