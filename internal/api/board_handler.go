package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/taoyao-code/soundboard-gateway/internal/api/middleware"
	"github.com/taoyao-code/soundboard-gateway/internal/session"
	"github.com/taoyao-code/soundboard-gateway/internal/soundboard"
	"github.com/taoyao-code/soundboard-gateway/internal/storage"
	"github.com/taoyao-code/soundboard-gateway/internal/storage/models"
)

// Deps 板控制API依赖；Audit 与 Store 可为 nil
type Deps struct {
	Manager *session.Manager
	Audit   storage.AuditReader
	Store   session.StateStore
	Logger  *zap.Logger
	Timeout time.Duration // 单次请求的总线超时，默认 5s
}

// BoardHandler 板控制API处理器
type BoardHandler struct {
	mgr     *session.Manager
	audit   storage.AuditReader
	store   session.StateStore
	logger  *zap.Logger
	timeout time.Duration
}

// NewBoardHandler 创建板控制API处理器
func NewBoardHandler(d Deps) *BoardHandler {
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	if d.Timeout <= 0 {
		d.Timeout = 5 * time.Second
	}
	return &BoardHandler{
		mgr:     d.Manager,
		audit:   d.Audit,
		store:   d.Store,
		logger:  d.Logger,
		timeout: d.Timeout,
	}
}

// BoardView 板概要
type BoardView struct {
	Name     string     `json:"name"`
	Addr     string     `json:"addr"`
	Started  bool       `json:"started"`
	Online   bool       `json:"online"`
	Volume   uint8      `json:"volume"`
	Status   uint8      `json:"status"`
	LastSeen *time.Time `json:"last_seen,omitempty"`
}

// PlayRequest 播放请求
type PlayRequest struct {
	File    string `json:"file" binding:"required"` // 设备上的文件名
	Channel int    `json:"channel"`                 // 0..3，默认 0
	Repeat  bool   `json:"repeat"`                  // 循环播放
}

// StopRequest 停止请求（请求体可省略）
type StopRequest struct {
	Channel int `json:"channel"`
}

// VolumeRequest 音量请求（请求体可省略，默认 5）
type VolumeRequest struct {
	Level *int `json:"level"`
}

// ListBoards 查询板列表
// @Summary 查询板列表
// @Description 返回所有已配置的板及其缓存音量、状态与在线情况（不访问总线）
// @Tags 板控制
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} StandardResponse{data=[]BoardView} "成功"
// @Router /api/boards [get]
func (h *BoardHandler) ListBoards(c *gin.Context) {
	now := time.Now()
	names := h.mgr.Names()
	views := make([]BoardView, 0, len(names))
	for _, name := range names {
		b, ok := h.mgr.Get(name)
		if !ok {
			continue
		}
		v := BoardView{
			Name:    name,
			Addr:    fmt.Sprintf("0x%02X", b.Addr()),
			Started: b.Started(),
			Online:  h.mgr.IsOnline(name, now),
			Volume:  b.Volume(),
			Status:  b.LastStatusValue(),
		}
		if ts, ok := h.mgr.LastSeen(name); ok {
			v.LastSeen = &ts
		}
		views = append(views, v)
	}
	respondOK(c, views)
}

// Play 播放文件
// @Summary 播放文件
// @Description 在指定通道播放设备上的文件，文件名超过 253 字节会被截断
// @Tags 板控制
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param name path string true "板名"
// @Param request body PlayRequest true "播放参数"
// @Success 200 {object} StandardResponse{data=soundboard.Outcome} "成功"
// @Failure 400 {object} StandardResponse "参数错误/通道非法"
// @Failure 404 {object} StandardResponse "板不存在"
// @Failure 503 {object} StandardResponse "总线不可用"
// @Router /api/boards/{name}/play [post]
func (h *BoardHandler) Play(c *gin.Context) {
	var req PlayRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, fmt.Errorf("%w: %v", errBadRequest, err), nil)
		return
	}
	h.apply(c, soundboard.Request{
		Op:      soundboard.OpPlay,
		File:    req.File,
		Channel: req.Channel,
		Repeat:  req.Repeat,
	})
}

// Stop 停止通道
// @Summary 停止通道
// @Tags 板控制
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param name path string true "板名"
// @Param request body StopRequest false "停止参数"
// @Success 200 {object} StandardResponse{data=soundboard.Outcome} "成功"
// @Failure 400 {object} StandardResponse "通道非法"
// @Router /api/boards/{name}/stop [post]
func (h *BoardHandler) Stop(c *gin.Context) {
	var req StopRequest
	if !bindOptional(c, &req) {
		return
	}
	h.apply(c, soundboard.Request{Op: soundboard.OpStop, Channel: req.Channel})
}

// SetVolume 设置音量
// @Summary 设置音量
// @Description 设置绝对音量，越界值夹到 0..9；不修改本地缓存，需读取状态后刷新
// @Tags 板控制
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param name path string true "板名"
// @Param request body VolumeRequest false "音量参数"
// @Success 200 {object} StandardResponse{data=soundboard.Outcome} "成功"
// @Router /api/boards/{name}/volume [put]
func (h *BoardHandler) SetVolume(c *gin.Context) {
	var req VolumeRequest
	if !bindOptional(c, &req) {
		return
	}
	h.apply(c, soundboard.Request{Op: soundboard.OpVolume, Level: req.Level})
}

// VolumeUp 音量加一
// @Summary 音量加一
// @Tags 板控制
// @Produce json
// @Security ApiKeyAuth
// @Param name path string true "板名"
// @Success 200 {object} StandardResponse{data=soundboard.Outcome} "成功"
// @Router /api/boards/{name}/volume/up [post]
func (h *BoardHandler) VolumeUp(c *gin.Context) {
	h.apply(c, soundboard.Request{Op: soundboard.OpUp})
}

// VolumeDown 音量减一
// @Summary 音量减一
// @Tags 板控制
// @Produce json
// @Security ApiKeyAuth
// @Param name path string true "板名"
// @Success 200 {object} StandardResponse{data=soundboard.Outcome} "成功"
// @Router /api/boards/{name}/volume/down [post]
func (h *BoardHandler) VolumeDown(c *gin.Context) {
	h.apply(c, soundboard.Request{Op: soundboard.OpDown})
}

// Status 读取状态
// @Summary 读取设备状态
// @Description 从总线读取一次 4 字节应答，返回音量、状态半字节与指定通道是否在播放
// @Tags 板控制
// @Produce json
// @Security ApiKeyAuth
// @Param name path string true "板名"
// @Param channel query int false "通道(默认0)"
// @Success 200 {object} StandardResponse{data=soundboard.Outcome} "成功"
// @Failure 502 {object} StandardResponse "设备未就绪/应答异常"
// @Router /api/boards/{name}/status [get]
func (h *BoardHandler) Status(c *gin.Context) {
	channel := 0
	if v := c.Query("channel"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			respondError(c, fmt.Errorf("%w: channel %q", errBadRequest, v), nil)
			return
		}
		channel = n
	}
	h.apply(c, soundboard.Request{Op: soundboard.OpStatus, Channel: channel})
}

// ListCommands 查询指令审计
// @Summary 查询指令审计日志
// @Tags 审计
// @Produce json
// @Security ApiKeyAuth
// @Param name path string true "板名"
// @Param limit query int false "条数(默认50，最大500)"
// @Param command query string false "指令类型"
// @Param fails query bool false "仅失败"
// @Success 200 {object} StandardResponse{data=[]models.CommandLog} "成功"
// @Failure 503 {object} StandardResponse "未启用数据库"
// @Router /api/boards/{name}/commands [get]
func (h *BoardHandler) ListCommands(c *gin.Context) {
	name := c.Param("name")
	if !h.known(c, name) {
		return
	}
	if h.audit == nil {
		respondError(c, errAuditDisabled, nil)
		return
	}

	q := storage.CommandQuery{Board: name, Command: c.Query("command")}
	if v := c.Query("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			q.Limit = n
		}
	}
	q.OnlyFails, _ = strconv.ParseBool(c.Query("fails"))

	list, err := h.audit.ListCommands(c.Request.Context(), q)
	if err != nil {
		h.logger.Error("list commands failed", zap.String("board", name), zap.Error(err))
		respondError(c, err, nil)
		return
	}
	if list == nil {
		list = []models.CommandLog{}
	}
	respondOK(c, list)
}

// CommandStats 指令统计
// @Summary 按指令与结果聚合计数
// @Tags 审计
// @Produce json
// @Security ApiKeyAuth
// @Param name path string true "板名"
// @Param hours query int false "统计窗口小时数(默认24)"
// @Success 200 {object} StandardResponse{data=[]storage.CommandStat} "成功"
// @Router /api/boards/{name}/stats [get]
func (h *BoardHandler) CommandStats(c *gin.Context) {
	name := c.Param("name")
	if !h.known(c, name) {
		return
	}
	if h.audit == nil {
		respondError(c, errAuditDisabled, nil)
		return
	}
	hours := 24
	if v := c.Query("hours"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			hours = n
		}
	}

	ctx := c.Request.Context()
	stats, err := h.audit.CommandStats(ctx, name, time.Now().Add(-time.Duration(hours)*time.Hour))
	if err != nil {
		respondError(c, err, nil)
		return
	}
	latest, err := h.audit.LatestStatus(ctx, name)
	if err != nil {
		respondError(c, err, nil)
		return
	}
	respondOK(c, gin.H{"commands": stats, "latest_status": latest})
}

// Snapshot 最近一次状态快照
// @Summary 查询状态快照
// @Description 读取快照存储（Redis 或内存）中的最近状态，多实例部署时可看到其它实例写入的状态
// @Tags 板控制
// @Produce json
// @Security ApiKeyAuth
// @Param name path string true "板名"
// @Success 200 {object} StandardResponse{data=session.Snapshot} "成功"
// @Failure 404 {object} StandardResponse "无快照"
// @Router /api/boards/{name}/snapshot [get]
func (h *BoardHandler) Snapshot(c *gin.Context) {
	name := c.Param("name")
	if !h.known(c, name) {
		return
	}
	if h.store == nil {
		respondError(c, errNoSnapshot, nil)
		return
	}
	snap, ok, err := h.store.Load(c.Request.Context(), name)
	if err != nil {
		respondError(c, err, nil)
		return
	}
	if !ok {
		respondError(c, errNoSnapshot, nil)
		return
	}
	respondOK(c, snap)
}

func (h *BoardHandler) known(c *gin.Context, name string) bool {
	if _, ok := h.mgr.Get(name); !ok {
		respondError(c, fmt.Errorf("%w: %s", session.ErrUnknownBoard, name), nil)
		return false
	}
	return true
}

// apply 独占板执行一次请求并输出结果
func (h *BoardHandler) apply(c *gin.Context, req soundboard.Request) {
	name := c.Param("name")
	ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
	defer cancel()

	var out *soundboard.Outcome
	err := h.mgr.Do(ctx, name, func(b *soundboard.Board) error {
		o, err := soundboard.Apply(ctx, b, req)
		out = &o
		return err
	})
	if err != nil {
		h.logger.Warn("board request failed",
			zap.String("board", name),
			zap.String("op", string(req.Op)),
			zap.String("request_id", c.GetString(middleware.RequestIDKey)),
			zap.Error(err),
		)
		if out != nil {
			respondError(c, err, out)
		} else {
			respondError(c, err, nil)
		}
		return
	}
	respondOK(c, out)
}

// bindOptional 请求体为空时保留默认值
func bindOptional(c *gin.Context, obj any) bool {
	if err := c.ShouldBindJSON(obj); err != nil && !errors.Is(err, io.EOF) {
		respondError(c, fmt.Errorf("%w: %v", errBadRequest, err), nil)
		return false
	}
	return true
}
