package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/w22j/find-friends-backend/internal/model"
	appErrors "github.com/w22j/find-friends-backend/pkg/errors"
)

func teamIDs(views []*model.TeamView) []int64 {
	ids := make([]int64, 0, len(views))
	for _, v := range views {
		ids = append(ids, v.ID)
	}
	return ids
}

func TestListTeams_Visibility(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	publicID := env.createTeam(t, 1, 3)
	privateID, err := env.svc.CreateTeam(ctx, &CreateTeamRequest{Name: "private", MaxNum: 3, Status: intPtr(int(model.TeamStatusPrivate))}, env.user(1))
	require.NoError(t, err)
	expiredPrivateID, err := env.svc.CreateTeam(ctx, &CreateTeamRequest{Name: "old private", MaxNum: 3, Status: intPtr(int(model.TeamStatusPrivate))}, env.user(2))
	require.NoError(t, err)
	env.store.mu.Lock()
	env.store.teams[expiredPrivateID].ExpireTime = timePtr(time.Now().Add(-time.Hour))
	env.store.mu.Unlock()

	private := intPtr(int(model.TeamStatusPrivate))

	_, err = env.svc.ListTeams(ctx, &TeamQuery{Status: private}, env.user(2))
	assertCode(t, err, appErrors.CodeNoAuth)
	_, err = env.svc.ListTeams(ctx, &TeamQuery{Status: private}, nil)
	assertCode(t, err, appErrors.CodeNoAuth)

	views, err := env.svc.ListTeams(ctx, &TeamQuery{Status: private}, env.user(adminID))
	require.NoError(t, err)
	assert.Equal(t, []int64{privateID}, teamIDs(views), "过期队伍不返回")

	// 未传或非法状态按公开查询
	for _, q := range []*TeamQuery{nil, {}, {Status: intPtr(42)}} {
		views, err := env.svc.ListTeams(ctx, q, nil)
		require.NoError(t, err)
		assert.Equal(t, []int64{publicID}, teamIDs(views))
	}
}

func TestListTeams_NeverExpiringTeamIsListed(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	forever := env.createTeam(t, 1, 3)
	future, err := env.svc.CreateTeam(ctx, &CreateTeamRequest{Name: "soon", MaxNum: 3, ExpireTime: timePtr(time.Now().Add(time.Hour))}, env.user(1))
	require.NoError(t, err)
	expired := env.createTeam(t, 1, 3)
	env.store.mu.Lock()
	env.store.teams[expired].ExpireTime = timePtr(time.Now().Add(-time.Second))
	env.store.mu.Unlock()

	views, err := env.svc.ListTeams(ctx, &TeamQuery{}, nil)
	require.NoError(t, err)
	assert.ElementsMatch(t, []int64{forever, future}, teamIDs(views))
}

func TestListTeams_Filters(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	goID, err := env.svc.CreateTeam(ctx, &CreateTeamRequest{Name: "Golang 学习", Description: "每周读源码", MaxNum: 5}, env.user(1))
	require.NoError(t, err)
	runID, err := env.svc.CreateTeam(ctx, &CreateTeamRequest{Name: "夜跑", Description: "golang 程序员跑步", MaxNum: 3}, env.user(2))
	require.NoError(t, err)

	tests := []struct {
		name  string
		query *TeamQuery
		want  []int64
	}{
		{"search text matches name or description", &TeamQuery{SearchText: "golang"}, []int64{goID, runID}},
		{"name substring", &TeamQuery{Name: "golang"}, []int64{goID}},
		{"description substring", &TeamQuery{Description: "跑步"}, []int64{runID}},
		{"exact id", &TeamQuery{ID: runID}, []int64{runID}},
		{"id list", &TeamQuery{IDList: []int64{goID}}, []int64{goID}},
		{"max num", &TeamQuery{MaxNum: 3}, []int64{runID}},
		{"owner", &TeamQuery{UserID: 1}, []int64{goID}},
		{"conjunction", &TeamQuery{SearchText: "golang", UserID: 2}, []int64{runID}},
		{"no match", &TeamQuery{Name: "羽毛球"}, []int64{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			views, err := env.svc.ListTeams(ctx, tt.query, nil)
			require.NoError(t, err)
			assert.ElementsMatch(t, tt.want, teamIDs(views))
		})
	}
}

func TestListTeams_Pagination(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	var ids []int64
	for owner := int64(1); owner <= 5; owner++ {
		ids = append(ids, env.createTeam(t, owner, 3))
	}

	page1, err := env.svc.ListTeams(ctx, &TeamQuery{PageNum: 1, PageSize: 2}, nil)
	require.NoError(t, err)
	assert.Equal(t, []int64{ids[4], ids[3]}, teamIDs(page1), "按 id 倒序")

	page3, err := env.svc.ListTeams(ctx, &TeamQuery{PageNum: 3, PageSize: 2}, nil)
	require.NoError(t, err)
	assert.Equal(t, []int64{ids[0]}, teamIDs(page3))

	page9, err := env.svc.ListTeams(ctx, &TeamQuery{PageNum: 9, PageSize: 2}, nil)
	require.NoError(t, err)
	assert.NotNil(t, page9)
	assert.Empty(t, page9)
}

func TestListTeams_AssemblesViews(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	teamID, err := env.svc.CreateTeam(ctx, &CreateTeamRequest{
		Name:     "secret",
		MaxNum:   5,
		Status:   intPtr(int(model.TeamStatusSecret)),
		Password: "hunter2",
	}, env.user(1))
	require.NoError(t, err)
	require.NoError(t, env.svc.JoinTeam(ctx, &JoinTeamRequest{TeamID: teamID, Password: "hunter2"}, env.user(2)))

	secret := intPtr(int(model.TeamStatusSecret))
	views, err := env.svc.ListTeams(ctx, &TeamQuery{Status: secret}, env.user(2))
	require.NoError(t, err)
	require.Len(t, views, 1)

	view := views[0]
	assert.True(t, view.HasJoin)
	assert.Equal(t, 2, view.HasJoinNum)
	require.NotNil(t, view.CreateUser)
	assert.Equal(t, "user1", view.CreateUser.Username)

	data, err := json.Marshal(views)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "password")
	assert.NotContains(t, string(data), "$2a$")

	views, err = env.svc.ListTeams(ctx, &TeamQuery{Status: secret}, env.user(3))
	require.NoError(t, err)
	assert.False(t, views[0].HasJoin)
}

func TestListTeams_StoreFailure(t *testing.T) {
	env := newTestEnv(t)
	env.createTeam(t, 1, 3)
	env.store.failOn("CountMembersByTeams", errInjected)

	_, err := env.svc.ListTeams(context.Background(), &TeamQuery{}, env.user(1))
	assertCode(t, err, appErrors.CodeSystemError)
}

func TestListTeamsByMembership_SkipsVisibility(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	publicID := env.createTeam(t, 1, 3)
	privateID, err := env.svc.CreateTeam(ctx, &CreateTeamRequest{Name: "private", MaxNum: 3, Status: intPtr(int(model.TeamStatusPrivate))}, env.user(1))
	require.NoError(t, err)

	views, err := env.svc.ListTeamsByMembership(ctx, &TeamQuery{UserID: 1, Status: intPtr(int(model.TeamStatusPrivate))}, env.user(2))
	require.NoError(t, err)
	assert.ElementsMatch(t, []int64{publicID, privateID}, teamIDs(views), "不按状态过滤")
}

func TestListMyTeams(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	mine := env.createTeam(t, 1, 3)
	other := env.createTeam(t, 2, 3)
	env.createTeam(t, 3, 3)
	env.join(t, other, 1)

	_, err := env.svc.ListMyCreatedTeams(ctx, nil, nil)
	assertCode(t, err, appErrors.CodeNotLogin)
	_, err = env.svc.ListMyJoinedTeams(ctx, nil, nil)
	assertCode(t, err, appErrors.CodeNotLogin)

	created, err := env.svc.ListMyCreatedTeams(ctx, &TeamQuery{UserID: 2}, env.user(1))
	require.NoError(t, err)
	assert.Equal(t, []int64{mine}, teamIDs(created), "始终限定为当前用户")

	joined, err := env.svc.ListMyJoinedTeams(ctx, nil, env.user(1))
	require.NoError(t, err)
	assert.ElementsMatch(t, []int64{mine, other}, teamIDs(joined))
	for _, v := range joined {
		assert.True(t, v.HasJoin)
	}

	none, err := env.svc.ListMyJoinedTeams(ctx, nil, env.user(40))
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)
}

func TestGetTeam(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	teamID := env.createTeam(t, 1, 3)

	_, err := env.svc.GetTeam(ctx, 0, nil)
	assertCode(t, err, appErrors.CodeParamsError)
	_, err = env.svc.GetTeam(ctx, 404, nil)
	assertCode(t, err, appErrors.CodeNullError)

	view, err := env.svc.GetTeam(ctx, teamID, env.user(1))
	require.NoError(t, err)
	assert.Equal(t, teamID, view.ID)
	assert.Equal(t, 1, view.HasJoinNum)
	assert.True(t, view.HasJoin)
}
