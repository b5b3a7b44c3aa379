package service

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/w22j/find-friends-backend/internal/model"
	appErrors "github.com/w22j/find-friends-backend/pkg/errors"
)

// GetTeam 根据 ID 获取队伍
func (s *TeamService) GetTeam(ctx context.Context, teamID int64, loginUser *model.User) (*model.TeamView, error) {
	if teamID <= 0 {
		return nil, appErrors.ErrParams
	}
	team, err := s.getTeam(ctx, teamID)
	if err != nil {
		return nil, err
	}
	views, err := s.assembleViews(ctx, []*model.Team{team}, loginUser)
	if err != nil {
		return nil, err
	}
	return views[0], nil
}

// ListTeams 按条件查询队伍，非管理员不能查询私有队伍
func (s *TeamService) ListTeams(ctx context.Context, query *TeamQuery, loginUser *model.User) ([]*model.TeamView, error) {
	if query == nil {
		query = &TeamQuery{}
	}
	// 状态未传或不合法时按公开处理
	status, ok := model.ParseTeamStatus(query.Status)
	if !ok {
		status = model.TeamStatusPublic
	}
	if status == model.TeamStatusPrivate && !loginUser.IsAdmin() {
		return nil, appErrors.ErrNoAuth
	}

	filter := s.buildFilter(query)
	filter.Status = &status
	return s.listTeams(ctx, filter, loginUser)
}

// ListTeamsByMembership 与 ListTeams 相同的查询流程，但不校验可见性也不按状态过滤
func (s *TeamService) ListTeamsByMembership(ctx context.Context, query *TeamQuery, loginUser *model.User) ([]*model.TeamView, error) {
	if query == nil {
		query = &TeamQuery{}
	}
	return s.listTeams(ctx, s.buildFilter(query), loginUser)
}

// ListMyCreatedTeams 我创建的队伍
func (s *TeamService) ListMyCreatedTeams(ctx context.Context, query *TeamQuery, loginUser *model.User) ([]*model.TeamView, error) {
	if loginUser == nil {
		return nil, appErrors.ErrNotLogin
	}
	q := TeamQuery{}
	if query != nil {
		q = *query
	}
	q.UserID = loginUser.ID
	return s.ListTeamsByMembership(ctx, &q, loginUser)
}

// ListMyJoinedTeams 我加入的队伍（包含我创建的）
func (s *TeamService) ListMyJoinedTeams(ctx context.Context, query *TeamQuery, loginUser *model.User) ([]*model.TeamView, error) {
	if loginUser == nil {
		return nil, appErrors.ErrNotLogin
	}
	teamIDs, err := s.teams.ListJoinedTeamIDs(ctx, loginUser.ID)
	if err != nil {
		s.logger.Error("Failed to list joined team ids", "error", err, "userId", loginUser.ID)
		return nil, appErrors.ErrSystem.Wrap(err)
	}
	if len(teamIDs) == 0 {
		return []*model.TeamView{}, nil
	}

	q := TeamQuery{}
	if query != nil {
		q = *query
	}
	q.IDList = teamIDs
	return s.ListTeamsByMembership(ctx, &q, loginUser)
}

// buildFilter 查询条件转换为仓库过滤条件，始终排除已过期队伍
func (s *TeamService) buildFilter(query *TeamQuery) *model.TeamFilter {
	filter := &model.TeamFilter{
		ID:          query.ID,
		IDList:      query.IDList,
		Name:        query.Name,
		Description: query.Description,
		SearchText:  query.SearchText,
		MaxNum:      query.MaxNum,
		UserID:      query.UserID,
		Now:         s.now(),
	}
	if query.PageSize > 0 {
		pageSize := min(query.PageSize, MaxPageSize)
		pageNum := max(query.PageNum, 1)
		filter.Limit = pageSize
		filter.Offset = (pageNum - 1) * pageSize
	}
	return filter
}

func (s *TeamService) listTeams(ctx context.Context, filter *model.TeamFilter, loginUser *model.User) ([]*model.TeamView, error) {
	teams, err := s.teams.ListTeams(ctx, filter)
	if err != nil {
		s.logger.Error("Failed to list teams", "error", err)
		return nil, appErrors.ErrSystem.Wrap(err)
	}
	if len(teams) == 0 {
		return []*model.TeamView{}, nil
	}
	return s.assembleViews(ctx, teams, loginUser)
}

// assembleViews 并发补全队长信息、当前人数和登录用户是否已加入
func (s *TeamService) assembleViews(ctx context.Context, teams []*model.Team, loginUser *model.User) ([]*model.TeamView, error) {
	teamIDs := make([]int64, 0, len(teams))
	ownerIDs := make([]int64, 0, len(teams))
	for _, t := range teams {
		teamIDs = append(teamIDs, t.ID)
		ownerIDs = append(ownerIDs, t.UserID)
	}

	var (
		owners map[int64]*model.User
		counts map[int64]int
		joined map[int64]bool
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		owners, err = s.users.GetUsersByIDs(gctx, ownerIDs)
		return err
	})
	g.Go(func() error {
		var err error
		counts, err = s.teams.CountMembersByTeams(gctx, teamIDs)
		return err
	})
	if loginUser != nil {
		g.Go(func() error {
			var err error
			joined, err = s.teams.FilterJoinedTeamIDs(gctx, loginUser.ID, teamIDs)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		s.logger.Error("Failed to assemble team views", "error", err)
		return nil, appErrors.ErrSystem.Wrap(err)
	}

	views := make([]*model.TeamView, 0, len(teams))
	for _, t := range teams {
		view := model.NewTeamView(t)
		view.CreateUser = model.NewUserView(owners[t.UserID])
		view.HasJoinNum = counts[t.ID]
		view.HasJoin = joined[t.ID]
		views = append(views, view)
	}
	return views, nil
}
