package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	repo "github.com/piyushdan-dataslush/bms-analytics/internal/repository/redis"
	"github.com/piyushdan-dataslush/bms-analytics/pkg/logger"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/pflag"
)

var (
	redisAddr = pflag.String("redis", "localhost:6379", "Redis address (host:port)")
	redisPass = pflag.String("password", "", "Redis password")
	redisDB   = pflag.Int("db", 0, "Redis database")
	limit     = pflag.Int("limit", 50, "Max jobs to list")
	showKey   = pflag.String("show", "", "Print the stored record of one show (event:session:date)")
)

func main() {
	pflag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	rdb := redis.NewClient(&redis.Options{
		Addr:     *redisAddr,
		Password: *redisPass,
		DB:       *redisDB,
	})
	defer rdb.Close()

	if err := rdb.Ping(ctx).Err(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to connect to Redis at %s: %v\n", *redisAddr, err)
		os.Exit(1)
	}

	l := logger.InitializeZapLogger(logger.ZapConfig{Level: "warn", Mode: "development", Encoding: "console"})

	if *showKey != "" {
		show, err := repo.NewRedisShowRepository(rdb, 0, l).Get(ctx, *showKey)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to load show %s: %v\n", *showKey, err)
			os.Exit(1)
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(show)
		return
	}

	jobs := repo.NewRedisJobRepository(rdb, l)
	total, err := jobs.Count(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to count jobs: %v\n", err)
		os.Exit(1)
	}

	inFlight, err := jobs.InFlight(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to count leased jobs: %v\n", err)
		os.Exit(1)
	}

	pending, err := jobs.Pending(ctx, *limit)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to list jobs: %v\n", err)
		os.Exit(1)
	}

	now := time.Now()
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "FIRE AT (UTC)\tIN\tKIND\tDEDUPE KEY\tID")
	for _, j := range pending {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			j.FireAt.UTC().Format(time.DateTime), j.FireAt.Sub(now).Round(time.Second), j.Kind, j.DedupeKey, j.ID)
	}
	_ = w.Flush()

	fmt.Printf("\n%d of %d pending jobs shown, %d in flight\n", len(pending), total, inFlight)
}
