// Command checkjobs prints the most recent scheduled job runs
package main

import (
	"flag"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/sahilchouksey/elearning-api/config"
	"github.com/sahilchouksey/elearning-api/database"
	"github.com/sahilchouksey/elearning-api/model"
	"github.com/sahilchouksey/elearning-api/utils/logger"
)

func main() {
	job := flag.String("job", "", "only show runs of this job, e.g. reconcile_pending_payments")
	limit := flag.Int("limit", 20, "number of runs to show")
	flag.Parse()

	if err := config.LoadENV(); err != nil {
		log.Fatalf("Failed to load environment: %v", err)
	}
	env, err := config.Get()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	store, err := database.StartGORM(env, logger.NewNop())
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer store.Close()

	query := store.DB().Order("started_at DESC").Limit(*limit)
	if *job != "" {
		query = query.Where("job_name = ?", *job)
	}

	var runs []model.CronJobLog
	if err := query.Find(&runs).Error; err != nil {
		log.Fatalf("Failed to fetch job logs: %v", err)
	}

	separator := strings.Repeat("=", 60)
	fmt.Println(separator)
	fmt.Println("SCHEDULED JOB RUNS")
	fmt.Println(separator)

	if len(runs) == 0 {
		fmt.Println("No job runs recorded")
		return
	}

	for _, run := range runs {
		duration := "running"
		if run.CompletedAt != nil {
			duration = run.CompletedAt.Sub(run.StartedAt).Round(time.Millisecond).String()
		}
		fmt.Printf("#%d %-30s %-10s %s (%s)\n",
			run.ID, run.JobName, run.Status, run.StartedAt.Format(time.RFC3339), duration)
		if run.Message != "" {
			fmt.Printf("    %s\n", run.Message)
		}
		if run.ErrorMsg != "" {
			fmt.Printf("    error: %s\n", run.ErrorMsg)
		}
	}
}
