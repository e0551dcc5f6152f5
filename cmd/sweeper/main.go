// The sweeper runs the status sweep as a periodic job, so past appointments are
// flipped to completed even while nobody is loading calendars.
package main

import (
	"clinic-booking/internal/configs"
	"clinic-booking/internal/database"
	"clinic-booking/internal/locker"
	"clinic-booking/internal/logging"
	"clinic-booking/internal/schedule"
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"
)

var configPath = flag.String("config", "", "Config file path")

func main() {
	flag.Parse()
	if *configPath == "" {
		log.Fatal("no config file path was given")
	}
	config := configs.MustLoad(*configPath)
	dbConn, err := database.NewConnection(config)
	if err != nil {
		log.Fatal(err)
	}
	defer dbConn.Close()

	logger := log.New(os.Stdout, "", log.LstdFlags)
	service := schedule.NewService(config, dbConn, locker.NewNoopLocker(), nil, logger)

	interval := time.Duration(config.SweepIntervalMinutes()) * time.Minute
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	exit := make(chan os.Signal, 1)
	signal.Notify(exit, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	logging.PrintlnInfo(logger, fmt.Sprint("status sweeper started, interval ", interval))

	sweep := func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		swept, sweepErr := service.SweepStatuses(ctx)
		if sweepErr != nil {
			logging.PrintlnError(logger, fmt.Sprint("sweep failed: ", sweepErr))
			return
		}
		if swept > 0 {
			logging.PrintlnInfo(logger, fmt.Sprint("swept ", swept, " appointments to completed"))
		}
	}

	sweep()
	for {
		select {
		case <-ticker.C:
			sweep()
		case <-exit:
			logging.PrintlnWarn(logger, "status sweeper stopped")
			return
		}
	}
}
