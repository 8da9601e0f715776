package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"goactor/framework/actor"
	"goactor/framework/cluster"
	"goactor/framework/log"
	"goactor/framework/registry"
	"goactor/framework/remote"
	"goactor/servers/actornode/configmgr"
	"goactor/servers/actornode/handler"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/multierr"
)

var (
	appOnce      = sync.Once{}
	app     *App = nil
)

func GetApp() *App {
	appOnce.Do(func() {
		app = new(App)
		app.init()
	})
	return app
}

type App struct {
	logger     *log.CommonLogger
	fileSink   *log.FileLogSink
	promReg    *prometheus.Registry
	httpEngine *gin.Engine
	httpServer *http.Server

	reg     registry.Registry
	remote  *remote.Remote
	system  *actor.ActorSystem
	cluster atomic.Pointer[cluster.Cluster]
}

func (app *App) init() bool {
	// init config
	conf := configmgr.Instance().GetConfig()
	if conf == nil {
		fmt.Printf("load config error, program exit!")
		os.Exit(1)
	}

	//init logger
	app.logger = log.NewCommonLogger()
	app.logger.SetLogLevel(log.ParseLogLevel(conf.Log.Level))
	app.logger.AddSink(log.NewStdLogSink())
	if conf.Log.Dir != "" {
		rotate := log.RotateByDay
		if conf.Log.RotateByHour {
			rotate = log.RotateByHour
		}
		app.fileSink = log.NewFileLogSink(conf.Log.Prefix, conf.Log.Dir, rotate)
		app.logger.AddSink(app.fileSink)
	}
	app.logger.Start()
	log.SetLogger(app.logger)

	// metrics
	app.promReg = prometheus.NewRegistry()
	app.promReg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	// init http server
	gin.SetMode(gin.ReleaseMode)
	app.httpEngine = gin.New()
	app.httpEngine.Use(gin.Recovery())
	app.httpEngine.SetTrustedProxies(nil)
	handler.NewAdminHandler(app.cluster.Load, app.promReg).RegHttpHandler(app.httpEngine)

	return true
}

// Start 启动节点并阻塞, ctx结束或者集群被停止后返回
func (app *App) Start(ctx context.Context) error {
	log.Info("********************************************************")
	log.Info("********************    actor node    ******************")
	log.Info("********************************************************")
	log.Info("App Start ..")
	// log app config info
	conf := configmgr.Instance().GetConfig()
	log.Info("App config info :")
	log.Info("%+v", *conf)

	var err error
	app.reg, err = registry.NewRegistry(conf.Registry)
	if err != nil {
		return fmt.Errorf("create registry: %w", err)
	}

	// start rpc
	app.remote = remote.NewRemote(app.reg,
		remote.WithListen(conf.Node.Listen),
		remote.WithCallTimeout(conf.Rpc.CallTimeout()),
		remote.WithDialTimeout(conf.Rpc.DialTimeout()),
	)
	if err := app.remote.Start(ctx); err != nil {
		_ = app.reg.Close()
		return err
	}

	app.system = actor.NewActorSystem(
		actor.WithName(conf.Node.Host),
		actor.WithHost(conf.Node.Host),
		actor.WithTransport(app.remote),
		actor.WithRegisterer(app.promReg),
	)
	app.remote.Attach(app.system)

	node, err := cluster.Join(ctx, app.system, app.remote, cluster.WithSeed(conf.Node.Seed))
	if err != nil {
		_ = app.stop(context.Background())
		return err
	}
	app.cluster.Store(node)

	// start http server
	if conf.Admin.Listen != "" {
		app.httpServer = &http.Server{
			Addr:    conf.Admin.Listen,
			Handler: app.httpEngine,
		}
		go func() {
			log.Info("admin http listen on %v", conf.Admin.Listen)
			if err := app.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error("admin http server error: %v", err)
			}
		}()
	}

	select {
	case <-ctx.Done():
		log.Info("App receive stop signal")
	case <-node.Done():
		log.Info("App cluster stopped")
	}

	stopCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return app.stop(stopCtx)
}

func (app *App) stop(ctx context.Context) error {
	var errs error
	if app.httpServer != nil {
		errs = multierr.Append(errs, app.httpServer.Shutdown(ctx))
	}
	if node := app.cluster.Load(); node != nil {
		errs = multierr.Append(errs, node.Close(ctx))
	} else if app.system != nil {
		errs = multierr.Append(errs, app.system.Shutdown(ctx))
	}
	if app.remote != nil {
		errs = multierr.Append(errs, app.remote.Close())
	}
	if app.reg != nil {
		errs = multierr.Append(errs, app.reg.Close())
	}
	log.Info("App stopped, error: %v", errs)
	log.Flush()
	if app.fileSink != nil {
		_ = app.fileSink.Close()
	}
	return errs
}
