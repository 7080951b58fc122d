// Package main содержит probe-утилиту для HEALTHCHECK контейнера:
// опрашивает gRPC health-сервер и завершается с кодом 1, если сервис не готов.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/magabrotheeeer/ewa-delivery/internal/grpc/client"
)

func main() {
	addr := flag.String("addr", "localhost:9090", "адрес gRPC health-сервера")
	service := flag.String("service", "", "имя зависимости, пустое для всего сервиса")
	timeout := flag.Duration("timeout", 3*time.Second, "таймаут проверки")
	flag.Parse()

	c, err := client.NewHealthClient(*addr)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer func() { _ = c.Close() }()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	if err := c.Check(ctx, *service); err != nil {
		fmt.Fprintln(os.Stderr, err)
		cancel()
		os.Exit(1)
	}
	fmt.Println("SERVING")
}
