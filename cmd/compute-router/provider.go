package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/gpumesh/go-compute-router/conf"
	"github.com/gpumesh/go-compute-router/internal/models"
	"github.com/gpumesh/go-compute-router/util"
	"github.com/urfave/cli/v2"
)

var providerCmd = &cli.Command{
	Name:  "provider",
	Usage: "Manage the provider registry",
	Subcommands: []*cli.Command{
		providerList,
	},
}

var providerList = &cli.Command{
	Name:  "list",
	Usage: "List registered providers",
	Flags: []cli.Flag{
		&cli.BoolFlag{
			Name:    "verbose",
			Usage:   "--verbose",
			Aliases: []string{"v"},
		},
	},
	Action: func(cctx *cli.Context) error {

		fullFlag := cctx.Bool("verbose")

		routerPath, exit := os.LookupEnv("ROUTER_PATH")
		if !exit {
			return fmt.Errorf("missing ROUTER_PATH env, please set export ROUTER_PATH=xxx")
		}
		if err := conf.InitConfig(routerPath); err != nil {
			return fmt.Errorf("load config file failed, error: %+v", err)
		}

		listUrl := fmt.Sprintf("http://localhost:%d/api/v1/routing/providers", conf.GetConfig().API.Port)
		client := &http.Client{Timeout: 10 * time.Second}
		resp, err := client.Get(listUrl)
		if err != nil {
			return fmt.Errorf("failed request provider list, error: %+v", err)
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("failed read provider list, error: %+v", err)
		}

		var response struct {
			util.BasicResponse
			Data []models.Provider `json:"data"`
		}
		if err := json.Unmarshal(body, &response); err != nil {
			return fmt.Errorf("failed parse provider list, error: %+v", err)
		}

		var taskData [][]string
		header := []string{"ID", "NAME", "PRICING", "BASE $/HR", "REPUTATION", "REGIONS"}
		if fullFlag {
			header = append(header, "GPU MODELS", "UPTIME %", "JOBS")
		}
		for _, provider := range response.Data {
			row := []string{
				provider.ID,
				provider.Name,
				string(provider.PricingModel),
				strconv.FormatFloat(provider.BasePricePerHour, 'f', 2, 64),
				strconv.FormatFloat(provider.Reputation, 'f', 0, 64),
				fmt.Sprintf("%v", provider.Regions),
			}
			if fullFlag {
				row = append(row,
					fmt.Sprintf("%v", provider.GpuModels),
					strconv.FormatFloat(provider.UptimePercent, 'f', 1, 64),
					strconv.Itoa(provider.CompletedJobs))
			}
			taskData = append(taskData, row)
		}

		NewVisualTable(header, taskData).Generate()
		return nil
	},
}
