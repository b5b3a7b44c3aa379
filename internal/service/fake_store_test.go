package service

import (
	"context"
	"errors"
	"slices"
	"strings"
	"sync"

	"github.com/w22j/find-friends-backend/internal/model"
	"github.com/w22j/find-friends-backend/internal/repository"
)

var errInjected = errors.New("injected failure")

// fakeStore 内存版 TeamStore，事务通过快照回滚实现
type fakeStore struct {
	txMu sync.Mutex
	mu   sync.Mutex

	teams        map[int64]*model.Team
	members      map[int64]*model.UserTeam
	nextMemberID int64

	fail  map[string]error
	calls map[string]int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		teams:   make(map[int64]*model.Team),
		members: make(map[int64]*model.UserTeam),
		fail:    make(map[string]error),
		calls:   make(map[string]int),
	}
}

// enter 记录调用并返回注入的错误，调用方需持有 mu
func (f *fakeStore) enter(method string) error {
	f.calls[method]++
	return f.fail[method]
}

func (f *fakeStore) failOn(method string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fail[method] = err
}

func (f *fakeStore) callCount(method string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[method]
}

func (f *fakeStore) InTx(ctx context.Context, fn func(tx repository.TeamStore) error) error {
	f.txMu.Lock()
	defer f.txMu.Unlock()

	f.mu.Lock()
	teams := make(map[int64]*model.Team, len(f.teams))
	for id, t := range f.teams {
		cp := *t
		teams[id] = &cp
	}
	members := make(map[int64]*model.UserTeam, len(f.members))
	for id, m := range f.members {
		cp := *m
		members[id] = &cp
	}
	f.mu.Unlock()

	if err := fn(f); err != nil {
		f.mu.Lock()
		f.teams = teams
		f.members = members
		f.mu.Unlock()
		return err
	}
	return nil
}

func (f *fakeStore) CreateTeam(_ context.Context, team *model.Team) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("CreateTeam"); err != nil {
		return err
	}
	cp := *team
	f.teams[team.ID] = &cp
	return nil
}

func (f *fakeStore) GetTeamByID(_ context.Context, id int64) (*model.Team, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("GetTeamByID"); err != nil {
		return nil, err
	}
	t, ok := f.teams[id]
	if !ok {
		return nil, repository.ErrTeamNotFound
	}
	cp := *t
	return &cp, nil
}

func (f *fakeStore) LockTeam(ctx context.Context, id int64) (*model.Team, error) {
	return f.GetTeamByID(ctx, id)
}

func (f *fakeStore) UpdateTeam(_ context.Context, team *model.Team) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("UpdateTeam"); err != nil {
		return err
	}
	if _, ok := f.teams[team.ID]; !ok {
		return repository.ErrTeamNotFound
	}
	cp := *team
	f.teams[team.ID] = &cp
	return nil
}

func (f *fakeStore) UpdateTeamOwner(_ context.Context, teamID, userID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("UpdateTeamOwner"); err != nil {
		return err
	}
	t, ok := f.teams[teamID]
	if !ok {
		return repository.ErrTeamNotFound
	}
	t.UserID = userID
	return nil
}

func (f *fakeStore) DeleteTeam(_ context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("DeleteTeam"); err != nil {
		return err
	}
	if _, ok := f.teams[id]; !ok {
		return repository.ErrTeamNotFound
	}
	delete(f.teams, id)
	for mid, m := range f.members {
		if m.TeamID == id {
			delete(f.members, mid)
		}
	}
	return nil
}

func (f *fakeStore) CountTeamsByUser(_ context.Context, userID int64) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("CountTeamsByUser"); err != nil {
		return 0, err
	}
	n := 0
	for _, t := range f.teams {
		if t.UserID == userID {
			n++
		}
	}
	return n, nil
}

func containsFold(s, sub string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(sub))
}

func (f *fakeStore) ListTeams(_ context.Context, filter *model.TeamFilter) ([]*model.Team, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("ListTeams"); err != nil {
		return nil, err
	}

	var out []*model.Team
	for _, t := range f.teams {
		switch {
		case filter.ID > 0 && t.ID != filter.ID,
			len(filter.IDList) > 0 && !slices.Contains(filter.IDList, t.ID),
			filter.SearchText != "" && !containsFold(t.Name, filter.SearchText) && !containsFold(t.Description, filter.SearchText),
			filter.Name != "" && !containsFold(t.Name, filter.Name),
			filter.Description != "" && !containsFold(t.Description, filter.Description),
			filter.MaxNum > 0 && t.MaxNum != filter.MaxNum,
			filter.UserID > 0 && t.UserID != filter.UserID,
			filter.Status != nil && t.Status != *filter.Status,
			!filter.Now.IsZero() && t.ExpireTime != nil && !t.ExpireTime.After(filter.Now):
			continue
		}
		cp := *t
		out = append(out, &cp)
	}
	slices.SortFunc(out, func(a, b *model.Team) int {
		switch {
		case a.ID > b.ID:
			return -1
		case a.ID < b.ID:
			return 1
		}
		return 0
	})
	if filter.Limit > 0 {
		if filter.Offset >= len(out) {
			return nil, nil
		}
		out = out[filter.Offset:min(filter.Offset+filter.Limit, len(out))]
	}
	return out, nil
}

func (f *fakeStore) AddMember(_ context.Context, member *model.UserTeam) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("AddMember"); err != nil {
		return err
	}
	if _, ok := f.teams[member.TeamID]; !ok {
		return repository.ErrTeamNotFound
	}
	for _, m := range f.members {
		if m.TeamID == member.TeamID && m.UserID == member.UserID {
			return repository.ErrAlreadyMember
		}
	}
	f.nextMemberID++
	member.ID = f.nextMemberID
	cp := *member
	f.members[member.ID] = &cp
	return nil
}

func (f *fakeStore) RemoveMember(_ context.Context, teamID, userID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("RemoveMember"); err != nil {
		return err
	}
	for id, m := range f.members {
		if m.TeamID == teamID && m.UserID == userID {
			delete(f.members, id)
			return nil
		}
	}
	return repository.ErrMemberNotFound
}

func (f *fakeStore) RemoveMembersByTeam(_ context.Context, teamID int64) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("RemoveMembersByTeam"); err != nil {
		return 0, err
	}
	var n int64
	for id, m := range f.members {
		if m.TeamID == teamID {
			delete(f.members, id)
			n++
		}
	}
	return n, nil
}

func (f *fakeStore) HasMember(_ context.Context, teamID, userID int64) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("HasMember"); err != nil {
		return false, err
	}
	for _, m := range f.members {
		if m.TeamID == teamID && m.UserID == userID {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeStore) CountMembersByTeam(_ context.Context, teamID int64) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("CountMembersByTeam"); err != nil {
		return 0, err
	}
	return f.countByTeamLocked(teamID), nil
}

func (f *fakeStore) countByTeamLocked(teamID int64) int {
	n := 0
	for _, m := range f.members {
		if m.TeamID == teamID {
			n++
		}
	}
	return n
}

func (f *fakeStore) CountMembersByUser(_ context.Context, userID int64) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("CountMembersByUser"); err != nil {
		return 0, err
	}
	n := 0
	for _, m := range f.members {
		if m.UserID == userID {
			n++
		}
	}
	return n, nil
}

func (f *fakeStore) ListEarliestMembers(_ context.Context, teamID int64, limit int) ([]*model.UserTeam, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("ListEarliestMembers"); err != nil {
		return nil, err
	}
	var out []*model.UserTeam
	for _, m := range f.members {
		if m.TeamID == teamID {
			cp := *m
			out = append(out, &cp)
		}
	}
	slices.SortFunc(out, func(a, b *model.UserTeam) int { return int(a.ID - b.ID) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeStore) ListJoinedTeamIDs(_ context.Context, userID int64) ([]int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("ListJoinedTeamIDs"); err != nil {
		return nil, err
	}
	var ids []int64
	for _, m := range f.members {
		if m.UserID == userID {
			ids = append(ids, m.TeamID)
		}
	}
	slices.Sort(ids)
	return ids, nil
}

func (f *fakeStore) CountMembersByTeams(_ context.Context, teamIDs []int64) (map[int64]int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("CountMembersByTeams"); err != nil {
		return nil, err
	}
	counts := make(map[int64]int, len(teamIDs))
	for _, id := range teamIDs {
		if n := f.countByTeamLocked(id); n > 0 {
			counts[id] = n
		}
	}
	return counts, nil
}

func (f *fakeStore) FilterJoinedTeamIDs(_ context.Context, userID int64, teamIDs []int64) (map[int64]bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("FilterJoinedTeamIDs"); err != nil {
		return nil, err
	}
	joined := make(map[int64]bool)
	for _, m := range f.members {
		if m.UserID == userID && slices.Contains(teamIDs, m.TeamID) {
			joined[m.TeamID] = true
		}
	}
	return joined, nil
}

// snapshot 辅助断言
func (f *fakeStore) team(id int64) *model.Team {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.teams[id]
	if !ok {
		return nil
	}
	cp := *t
	return &cp
}

func (f *fakeStore) memberCount(teamID int64) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.countByTeamLocked(teamID)
}

func (f *fakeStore) ownedCount(userID int64) int {
	n, _ := f.CountTeamsByUser(context.Background(), userID)
	return n
}

// fakeUsers 内存版 UserStore
type fakeUsers struct {
	users map[int64]*model.User
}

func (u *fakeUsers) GetUserByID(_ context.Context, id int64) (*model.User, error) {
	user, ok := u.users[id]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	return user, nil
}

func (u *fakeUsers) GetUsersByIDs(_ context.Context, ids []int64) (map[int64]*model.User, error) {
	out := make(map[int64]*model.User, len(ids))
	for _, id := range ids {
		if user, ok := u.users[id]; ok {
			out[id] = user
		}
	}
	return out, nil
}

// recordPublisher 记录发布的事件
type recordPublisher struct {
	mu     sync.Mutex
	events []*model.TeamEvent
	err    error
}

func (p *recordPublisher) PublishTeamEvent(_ context.Context, event *model.TeamEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return p.err
}

func (p *recordPublisher) types() []model.TeamEventType {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]model.TeamEventType, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}
