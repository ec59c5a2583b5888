package server

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/gin-contrib/pprof"
	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"github.com/thomasphansen/deepin-installer-reborn/config"
	"github.com/thomasphansen/deepin-installer-reborn/partman"
	"github.com/thomasphansen/deepin-installer-reborn/util/logger"
)

// Facade 分区管理器对外的异步接口, *partman.Manager 实现了该接口.
type Facade interface {
	RefreshDevices() <-chan partman.DevicesResult
	AutoPart(scriptPath string) <-chan partman.Result
	ManualPart(operations []partman.Operation) <-chan partman.Result
}

// Server 分区管理的HTTP接口.
//
//	GET  /api/v1/devices       设备列表, 支持 If-None-Match
//	GET  /api/v1/filesystems   支持的文件系统名称
//	POST /api/v1/autopart      {"script": "/path/to/script"}
//	POST /api/v1/manualpart    操作列表
type Server struct {
	facade Facade
	cfg    config.Server
	engine *gin.Engine
}

type response struct {
	OK    bool              `json:"ok"`
	Kind  partman.ErrorKind `json:"kind,omitempty"`
	Error string            `json:"error,omitempty"`
}

type autoPartRequest struct {
	Script string `json:"script" binding:"required"`
}

func New(facade Facade, cfg config.Server) *Server {
	gin.DisableConsoleColor()
	gin.DefaultWriter = io.Discard

	s := &Server{facade: facade, cfg: cfg, engine: gin.New()}
	s.engine.Use(accessLog(), gin.Recovery())
	if cfg.PProf {
		pprof.Register(s.engine)
	}
	v1 := s.engine.Group("/api/v1")
	v1.GET("/devices", s.devices)
	v1.GET("/filesystems", s.filesystems)
	v1.POST("/autopart", s.autoPart)
	v1.POST("/manualpart", s.manualPart)
	return s
}

// Handler 返回路由, 供测试与嵌入使用.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run 监听配置的地址直到 ctx 结束.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Listen,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errc := make(chan error, 1)
	go func() {
		logger.Infof("Server listen on %s", s.cfg.Listen)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return errors.Wrapf(err, "listen on %s", s.cfg.Listen)
	case <-ctx.Done():
	}
	shutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdown); err != nil {
		return errors.Wrap(err, "shutdown server")
	}
	return nil
}

func accessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Debugf("%s %s %d %v", c.Request.Method, c.Request.URL.Path, c.Writer.Status(), time.Since(start))
	}
}

// ETag 设备列表JSON的实体标签.
func ETag(body string) string {
	return fmt.Sprintf(`"%016x"`, xxhash.Sum64String(body))
}

func (s *Server) devices(c *gin.Context) {
	var res partman.DevicesResult
	select {
	case res = <-s.facade.RefreshDevices():
	case <-c.Request.Context().Done():
		logger.Warnf("client left before devices refreshed")
		return
	}
	if res.Err != nil {
		fail(c, res.Err)
		return
	}
	body, err := partman.DevicesJSON(res.Devices)
	if err != nil {
		fail(c, err)
		return
	}

	etag := ETag(body)
	c.Header("ETag", etag)
	if c.GetHeader("If-None-Match") == etag {
		c.Status(http.StatusNotModified)
		return
	}
	c.Data(http.StatusOK, "application/json; charset=utf-8", []byte(body))
}

func (s *Server) filesystems(c *gin.Context) {
	c.JSON(http.StatusOK, partman.FsTypeNames())
}

func (s *Server) autoPart(c *gin.Context) {
	var req autoPartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response{Error: err.Error()})
		return
	}
	s.wait(c, s.facade.AutoPart(req.Script))
}

func (s *Server) manualPart(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, response{Error: err.Error()})
		return
	}
	ops, err := partman.DecodeOperations(body)
	if err != nil {
		c.JSON(http.StatusBadRequest, response{Error: err.Error()})
		return
	}
	s.wait(c, s.facade.ManualPart(ops))
}

// wait 等待请求完成. 请求一旦提交就会执行完毕, 客户端断开只影响响应.
func (s *Server) wait(c *gin.Context, ch <-chan partman.Result) {
	select {
	case res := <-ch:
		if !res.OK {
			fail(c, res.Err)
			return
		}
		c.JSON(http.StatusOK, response{OK: true})
	case <-c.Request.Context().Done():
		logger.Warnf("client left before %s finished", c.Request.URL.Path)
	}
}

func fail(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, partman.ErrManagerStopped):
		status = http.StatusServiceUnavailable
	case partman.KindOf(err) == partman.ScriptNotFound:
		status = http.StatusNotFound
	}
	c.JSON(status, response{Kind: partman.KindOf(err), Error: err.Error()})
}
