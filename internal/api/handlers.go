package api

import (
	"errors"
	"net/http"
	"runtime"

	"github.com/filswan/go-mcs-sdk/mcs/api/common/logs"
	"github.com/gin-gonic/gin"
	"github.com/gpumesh/go-compute-router/conf"
	"github.com/gpumesh/go-compute-router/internal/models"
	"github.com/gpumesh/go-compute-router/internal/routing"
	"github.com/gpumesh/go-compute-router/internal/storage"
	"github.com/gpumesh/go-compute-router/util"
)

var engine *routing.Engine
var uploader storage.TraceUploader

// Init wires the handlers to the engine built during project init.
func Init(e *routing.Engine, u storage.TraceUploader) {
	engine = e
	uploader = u
}

func GetRouterInfo(c *gin.Context) {
	info := &models.HostInfo{
		NodeName:        conf.GetConfig().API.NodeName,
		OperatingSystem: runtime.GOOS,
		Architecture:    runtime.GOARCH,
		CPUCores:        runtime.NumCPU(),
	}
	c.JSON(http.StatusOK, util.CreateSuccessResponse(info))
}

// RouteJob is the job submission boundary: it validates the request, runs the
// routing pipeline and returns the full ranked result.
func RouteJob(c *gin.Context) {
	var req models.JobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, util.CreateErrorResponse(util.JsonError, err.Error()))
		return
	}
	logs.GetLogger().Infof("Job received: buyer: %s, gpu_count: %d, duration_hours: %.1f",
		req.WalletAddress, req.GpuCount, req.DurationHours)

	if err := routing.ValidateRequest(&req); err != nil {
		c.JSON(http.StatusBadRequest, util.CreateErrorResponse(util.BadRequestError, err.Error()))
		return
	}

	result, err := engine.ProcessJob(c.Request.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, routing.ErrNoEligibleProviders):
			c.JSON(http.StatusOK, util.CreateErrorResponse(util.NoEligibleProviders))
		default:
			logs.GetLogger().Errorf("Failed route job, error: %v", err)
			c.JSON(http.StatusInternalServerError, util.CreateErrorResponse(util.RoutingInternalError))
		}
		return
	}

	c.JSON(http.StatusOK, util.CreateSuccessResponse(result))
}

func ListProviders(c *gin.Context) {
	c.JSON(http.StatusOK, util.CreateSuccessResponse(engine.Registry().Snapshot()))
}

func RegisterProvider(c *gin.Context) {
	var provider models.Provider
	if err := c.ShouldBindJSON(&provider); err != nil {
		c.JSON(http.StatusBadRequest, util.CreateErrorResponse(util.JsonError, err.Error()))
		return
	}

	if err := engine.Registry().Register(provider); err != nil {
		c.JSON(http.StatusBadRequest, util.CreateErrorResponse(util.ProviderRegisterError, err.Error()))
		return
	}
	logs.GetLogger().Infof("provider registered, id: %s, pricing_model: %s", provider.ID, provider.PricingModel)
	c.JSON(http.StatusOK, util.CreateSuccessResponse(provider))
}

func RemoveProvider(c *gin.Context) {
	id := c.Param("id")
	engine.Registry().Remove(id)
	c.JSON(http.StatusOK, util.CreateSuccessResponse(gin.H{"removed": id}))
}

// HealthCheck reports storage readiness and the registry composition. Used by
// operators, never by the decision logic.
func HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, util.CreateSuccessResponse(gin.H{
		"trace_storage_initialized": uploader != nil && uploader.Initialized(),
		"provider_count":            engine.Registry().Count(),
		"provider_composition":      engine.Registry().Composition(),
	}))
}
