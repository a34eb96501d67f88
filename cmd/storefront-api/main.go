package main

import (
	"context"
	"flag"
	"log"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/GTRcubautos/https-github.com-gwxpgvsgsn-byte-VentaGlobal-sub001/cmd/storefront-api/app"
	"github.com/GTRcubautos/https-github.com-gwxpgvsgsn-byte-VentaGlobal-sub001/configs"
	grpcadapter "github.com/GTRcubautos/https-github.com-gwxpgvsgsn-byte-VentaGlobal-sub001/internal/adapter/grpc"
)

func main() {
	healthcheck := flag.Bool("healthcheck", false, "probe the running instance's gRPC health endpoint and exit")
	flag.Parse()

	env := os.Getenv("APP_ENV") // dev | staging | prod
	if env == "" {
		env = "dev"
	}

	cfg, err := configs.Load("configs", env)
	if err != nil {
		log.Fatal(err)
	}

	if *healthcheck {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		if err := grpcadapter.Probe(ctx, localAddr(cfg.GRPC.HealthAddr)); err != nil {
			log.Fatal(err)
		}
		return
	}

	a, cleanup, err := app.InitWithConfig(cfg)
	if err != nil {
		log.Fatal(err)
	}
	defer cleanup()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := a.Run(ctx); err != nil {
		log.Printf("storefront-api (%s) stopped: %v", env, err)
		cleanup()
		os.Exit(1)
	}
}

// localAddr points a listen address such as ":9090" at the loopback interface.
func localAddr(listen string) string {
	_, port, err := net.SplitHostPort(listen)
	if err != nil {
		return listen
	}
	return net.JoinHostPort("localhost", port)
}
