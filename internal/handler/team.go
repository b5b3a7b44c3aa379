package handler

import (
	"context"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/w22j/find-friends-backend/internal/middleware"
	"github.com/w22j/find-friends-backend/internal/model"
	"github.com/w22j/find-friends-backend/internal/service"
	"github.com/w22j/find-friends-backend/pkg/response"
)

// TeamService 队伍服务
type TeamService interface {
	CreateTeam(ctx context.Context, req *service.CreateTeamRequest, loginUser *model.User) (int64, error)
	UpdateTeam(ctx context.Context, req *service.UpdateTeamRequest, loginUser *model.User) error
	DeleteTeam(ctx context.Context, teamID int64, loginUser *model.User) error
	JoinTeam(ctx context.Context, req *service.JoinTeamRequest, loginUser *model.User) error
	QuitTeam(ctx context.Context, teamID int64, loginUser *model.User) error
	GetTeam(ctx context.Context, teamID int64, loginUser *model.User) (*model.TeamView, error)
	ListTeams(ctx context.Context, query *service.TeamQuery, loginUser *model.User) ([]*model.TeamView, error)
	ListMyCreatedTeams(ctx context.Context, query *service.TeamQuery, loginUser *model.User) ([]*model.TeamView, error)
	ListMyJoinedTeams(ctx context.Context, query *service.TeamQuery, loginUser *model.User) ([]*model.TeamView, error)
}

// TeamHandler 队伍处理器
type TeamHandler struct {
	teamService TeamService
}

// NewTeamHandler 创建队伍处理器
func NewTeamHandler(teamService TeamService) *TeamHandler {
	return &TeamHandler{teamService: teamService}
}

// CreateTeam 创建队伍
// @Summary 创建队伍
// @Tags team
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body service.CreateTeamRequest true "队伍信息"
// @Success 200 {object} response.Response{data=string} "队伍 ID"
// @Router /team/add [post]
func (h *TeamHandler) CreateTeam(c *gin.Context) {
	var req service.CreateTeamRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.InvalidParams(c, err)
		return
	}

	teamID, err := h.teamService.CreateTeam(c.Request.Context(), &req, middleware.GetLoginUser(c))
	if err != nil {
		response.ErrorFromAppError(c, err)
		return
	}

	response.Success(c, strconv.FormatInt(teamID, 10))
}

// UpdateTeam 修改队伍
// @Summary 修改队伍
// @Tags team
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body service.UpdateTeamRequest true "修改内容"
// @Success 200 {object} response.Response{data=bool}
// @Router /team/update [post]
func (h *TeamHandler) UpdateTeam(c *gin.Context) {
	var req service.UpdateTeamRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.InvalidParams(c, err)
		return
	}

	if err := h.teamService.UpdateTeam(c.Request.Context(), &req, middleware.GetLoginUser(c)); err != nil {
		response.ErrorFromAppError(c, err)
		return
	}

	response.Success(c, true)
}

// DeleteTeam 解散队伍
// @Summary 解散队伍
// @Tags team
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body service.TeamIDRequest true "队伍 ID"
// @Success 200 {object} response.Response{data=bool}
// @Router /team/delete [post]
func (h *TeamHandler) DeleteTeam(c *gin.Context) {
	var req service.TeamIDRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.InvalidParams(c, err)
		return
	}

	if err := h.teamService.DeleteTeam(c.Request.Context(), req.TeamID, middleware.GetLoginUser(c)); err != nil {
		response.ErrorFromAppError(c, err)
		return
	}

	response.Success(c, true)
}

// JoinTeam 加入队伍
// @Summary 加入队伍
// @Tags team
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body service.JoinTeamRequest true "队伍 ID 和密码"
// @Success 200 {object} response.Response{data=bool}
// @Router /team/join [post]
func (h *TeamHandler) JoinTeam(c *gin.Context) {
	var req service.JoinTeamRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.InvalidParams(c, err)
		return
	}

	if err := h.teamService.JoinTeam(c.Request.Context(), &req, middleware.GetLoginUser(c)); err != nil {
		response.ErrorFromAppError(c, err)
		return
	}

	response.Success(c, true)
}

// QuitTeam 退出队伍
// @Summary 退出队伍
// @Tags team
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body service.TeamIDRequest true "队伍 ID"
// @Success 200 {object} response.Response{data=bool}
// @Router /team/quit [post]
func (h *TeamHandler) QuitTeam(c *gin.Context) {
	var req service.TeamIDRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.InvalidParams(c, err)
		return
	}

	if err := h.teamService.QuitTeam(c.Request.Context(), req.TeamID, middleware.GetLoginUser(c)); err != nil {
		response.ErrorFromAppError(c, err)
		return
	}

	response.Success(c, true)
}

// GetTeam 获取队伍详情
// @Summary 获取队伍详情
// @Tags team
// @Produce json
// @Param id query string true "队伍 ID"
// @Success 200 {object} response.Response{data=model.TeamView}
// @Router /team/get [get]
func (h *TeamHandler) GetTeam(c *gin.Context) {
	id, err := strconv.ParseInt(c.Query("id"), 10, 64)
	if err != nil || id <= 0 {
		response.ErrorWithMsg(c, response.CodeParamsError, "队伍 ID 不正确")
		return
	}

	view, err := h.teamService.GetTeam(c.Request.Context(), id, middleware.GetLoginUser(c))
	if err != nil {
		response.ErrorFromAppError(c, err)
		return
	}

	response.Success(c, view)
}

// ListTeams 查询队伍列表（不分页）
// @Summary 查询队伍列表
// @Tags team
// @Produce json
// @Param query query service.TeamQuery false "查询条件"
// @Success 200 {object} response.Response{data=[]model.TeamView}
// @Router /team/list [get]
func (h *TeamHandler) ListTeams(c *gin.Context) {
	query, ok := bindQuery(c)
	if !ok {
		return
	}
	query.PageNum = 0
	query.PageSize = 0

	h.respondList(c, h.teamService.ListTeams, query)
}

// ListTeamsByPage 分页查询队伍列表
// @Summary 分页查询队伍列表
// @Tags team
// @Produce json
// @Param query query service.TeamQuery false "查询条件"
// @Success 200 {object} response.Response{data=[]model.TeamView}
// @Router /team/list/page [get]
func (h *TeamHandler) ListTeamsByPage(c *gin.Context) {
	query, ok := bindQuery(c)
	if !ok {
		return
	}
	if query.PageNum <= 0 {
		query.PageNum = 1
	}
	if query.PageSize <= 0 {
		query.PageSize = service.DefaultPageSize
	}

	h.respondList(c, h.teamService.ListTeams, query)
}

// ListMyCreatedTeams 我创建的队伍
// @Summary 我创建的队伍
// @Tags team
// @Produce json
// @Security BearerAuth
// @Param query query service.TeamQuery false "查询条件"
// @Success 200 {object} response.Response{data=[]model.TeamView}
// @Router /team/list/my/create [get]
func (h *TeamHandler) ListMyCreatedTeams(c *gin.Context) {
	query, ok := bindQuery(c)
	if !ok {
		return
	}

	h.respondList(c, h.teamService.ListMyCreatedTeams, query)
}

// ListMyJoinedTeams 我加入的队伍
// @Summary 我加入的队伍
// @Tags team
// @Produce json
// @Security BearerAuth
// @Param query query service.TeamQuery false "查询条件"
// @Success 200 {object} response.Response{data=[]model.TeamView}
// @Router /team/list/my/join [get]
func (h *TeamHandler) ListMyJoinedTeams(c *gin.Context) {
	query, ok := bindQuery(c)
	if !ok {
		return
	}

	h.respondList(c, h.teamService.ListMyJoinedTeams, query)
}

type listFunc func(ctx context.Context, query *service.TeamQuery, loginUser *model.User) ([]*model.TeamView, error)

func bindQuery(c *gin.Context) (*service.TeamQuery, bool) {
	var query service.TeamQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.InvalidParams(c, err)
		return nil, false
	}
	return &query, true
}

func (h *TeamHandler) respondList(c *gin.Context, list listFunc, query *service.TeamQuery) {
	views, err := list(c.Request.Context(), query, middleware.GetLoginUser(c))
	if err != nil {
		response.ErrorFromAppError(c, err)
		return
	}

	response.Success(c, views)
}
