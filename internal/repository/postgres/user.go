package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/w22j/find-friends-backend/internal/model"
	"github.com/w22j/find-friends-backend/internal/repository"
)

const userColumns = `id, username, user_account, avatar_url, gender, profile, tags, user_role, create_time`

// UserRepository 用户只读数据访问
type UserRepository struct {
	db querier
}

var _ repository.UserStore = (*UserRepository)(nil)

// NewUserRepository 创建用户仓库
func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{db: pool}
}

func scanUser(row pgx.Row) (*model.User, error) {
	user := &model.User{}
	err := row.Scan(
		&user.ID,
		&user.Username,
		&user.UserAccount,
		&user.AvatarURL,
		&user.Gender,
		&user.Profile,
		&user.Tags,
		&user.UserRole,
		&user.CreateTime,
	)
	return user, err
}

// GetUserByID 通过 ID 获取用户
func (r *UserRepository) GetUserByID(ctx context.Context, id int64) (*model.User, error) {
	user, err := scanUser(r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

// GetUsersByIDs 批量获取用户，不存在的 ID 不出现在结果中
func (r *UserRepository) GetUsersByIDs(ctx context.Context, ids []int64) (map[int64]*model.User, error) {
	users := make(map[int64]*model.User, len(ids))
	if len(ids) == 0 {
		return users, nil
	}
	rows, err := r.db.Query(ctx, `SELECT `+userColumns+` FROM users WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users[user.ID] = user
	}
	return users, rows.Err()
}
