package main

import (
	"os"
	"strconv"
	"time"

	"github.com/filswan/go-mcs-sdk/mcs/api/common/logs"
	"github.com/gin-contrib/pprof"
	"github.com/gin-gonic/gin"
	cors "github.com/itsjamie/gin-cors"
	"github.com/joho/godotenv"
	"github.com/gpumesh/go-compute-router/conf"
	"github.com/gpumesh/go-compute-router/internal/api"
	"github.com/gpumesh/go-compute-router/internal/initializer"
	"github.com/gpumesh/go-compute-router/util"
	"github.com/urfave/cli/v2"
)

var runCmd = &cli.Command{
	Name:  "run",
	Usage: "Start a compute router process",
	Action: func(cctx *cli.Context) error {
		logs.GetLogger().Info("Start in compute router mode.")
		if err := godotenv.Load(".env"); err != nil && !os.IsNotExist(err) {
			logs.GetLogger().Error(err)
		}

		routerRepoPath := cctx.String(FlagRouterRepo)
		os.Setenv("ROUTER_PATH", routerRepoPath)
		initializer.ProjectInit(routerRepoPath)

		r := gin.Default()
		r.Use(cors.Middleware(cors.Config{
			Origins:         "*",
			Methods:         "GET, PUT, POST, DELETE",
			RequestHeaders:  "Origin, Authorization, Content-Type",
			ExposedHeaders:  "",
			MaxAge:          50 * time.Second,
			ValidateHeaders: false,
		}))
		pprof.Register(r)

		v1 := r.Group("/api/v1")
		routerManager(v1.Group("/routing"))

		shutdownChan := make(chan struct{})
		httpStopper, err := util.ServeHttp(r, "router-api", ":"+strconv.Itoa(conf.GetConfig().API.Port))
		if err != nil {
			logs.GetLogger().Fatalf("failed to start router-api endpoint: %s", err)
		}

		finishCh := util.MonitorShutdown(shutdownChan,
			util.ShutdownHandler{Component: "router-api", StopFunc: httpStopper},
		)
		<-finishCh

		return nil
	},
}

func routerManager(router *gin.RouterGroup) {

	router.GET("/host/info", api.GetRouterInfo)
	router.GET("/health", api.HealthCheck)
	router.POST("/jobs", api.RouteJob)
	router.GET("/providers", api.ListProviders)
	router.POST("/providers", api.RegisterProvider)
	router.DELETE("/providers/:id", api.RemoveProvider)
}
