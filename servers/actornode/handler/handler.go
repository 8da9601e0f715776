package handler

import (
	"context"
	"net/http"
	"time"

	"goactor/framework/cluster"
	"goactor/framework/log"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	ErrCodeSuccess    = 0
	ErrDescSuccess    = "OK"
	ErrCodeShutdown   = 1
	ErrDescShutdown   = "shutdown cluster failed"
	ErrCodeNotStarted = 2
	ErrDescNotStarted = "cluster not started"
)

type MembersResp struct {
	ErrCode int      `json:"error_code"`
	ErrDesc string   `json:"error_desc"`
	Id      string   `json:"id"`
	Seed    string   `json:"seed"`
	State   string   `json:"state"`
	Members []string `json:"members"`
}

type ActorsResp struct {
	ErrCode int      `json:"error_code"`
	ErrDesc string   `json:"error_desc"`
	Local   []string `json:"local"`
	Remote  []string `json:"remote"`
}

type ShutdownResp struct {
	ErrCode int    `json:"error_code"`
	ErrDesc string `json:"error_desc"`
}

// 管理端口
type AdminHandler struct {
	cluster  func() *cluster.Cluster
	gatherer prometheus.Gatherer
}

func NewAdminHandler(clusterFunc func() *cluster.Cluster, gatherer prometheus.Gatherer) *AdminHandler {
	return &AdminHandler{
		cluster:  clusterFunc,
		gatherer: gatherer,
	}
}

func (h *AdminHandler) RegHttpHandler(engine *gin.Engine) {
	engine.GET("/members", h.handleMembers)
	engine.GET("/actors", h.handleActors)
	engine.POST("/shutdown", h.handleShutdown)
	engine.GET("/metrics", gin.WrapH(promhttp.HandlerFor(h.gatherer, promhttp.HandlerOpts{})))
}

// 成员列表
func (h *AdminHandler) handleMembers(c *gin.Context) {
	resp := &MembersResp{}
	node := h.cluster()
	if node == nil {
		resp.ErrCode = ErrCodeNotStarted
		resp.ErrDesc = ErrDescNotStarted
		c.JSON(http.StatusServiceUnavailable, resp)
		return
	}

	resp.ErrCode = ErrCodeSuccess
	resp.ErrDesc = ErrDescSuccess
	resp.Id = node.Id()
	resp.Seed = node.Seed()
	resp.State = node.State()
	resp.Members = node.Members()
	c.JSON(http.StatusOK, resp)
}

// 本地actor和已知的远程actor
func (h *AdminHandler) handleActors(c *gin.Context) {
	resp := &ActorsResp{}
	node := h.cluster()
	if node == nil {
		resp.ErrCode = ErrCodeNotStarted
		resp.ErrDesc = ErrDescNotStarted
		c.JSON(http.StatusServiceUnavailable, resp)
		return
	}

	resp.ErrCode = ErrCodeSuccess
	resp.ErrDesc = ErrDescSuccess
	resp.Local = node.System().LocalRefs()
	resp.Remote = node.System().RemoteRefs()
	c.JSON(http.StatusOK, resp)
}

// 停止整个集群
func (h *AdminHandler) handleShutdown(c *gin.Context) {
	resp := &ShutdownResp{}
	node := h.cluster()
	if node == nil {
		resp.ErrCode = ErrCodeNotStarted
		resp.ErrDesc = ErrDescNotStarted
		c.JSON(http.StatusServiceUnavailable, resp)
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()
	if err := node.Shutdown(ctx); err != nil {
		log.Error("admin shutdown cluster error: %v", err)
		resp.ErrCode = ErrCodeShutdown
		resp.ErrDesc = ErrDescShutdown + ": " + err.Error()
		c.JSON(http.StatusOK, resp)
		return
	}
	resp.ErrCode = ErrCodeSuccess
	resp.ErrDesc = ErrDescSuccess
	c.JSON(http.StatusOK, resp)
}
