package main

// @title           MercadoPago Mock Gateway
// @version         1.0
// @description     Simulates the MercadoPago payment API for local development and testing: scenario-driven payment outcomes, refunds and webhook notifications.

// @contact.name   BarberPro Platform
// @contact.email  dev@barberpro.com.ar

// @host      localhost:3001
// @BasePath  /

import (
	"context"
	"os"

	_ "github.com/joho/godotenv/autoload"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/barberpro/mpmock/internal/app"
)

func main() {
	// Allow graceful stop with SIGINT/SIGTERM handled by fx
	exitCode := 0
	defer func() { os.Exit(exitCode) }()

	a := fx.New(app.Module)
	startCtx, cancel := context.WithTimeout(context.Background(), app.DefaultStartTimeout)
	defer cancel()
	if err := a.Start(startCtx); err != nil {
		// Logging might not be ready; fallback to zap example
		zap.NewExample().Sugar().Errorf("failed to start app: %v", err)
		exitCode = 1
		return
	}

	// Block until signal
	<-a.Done()

	stopCtx, cancel2 := context.WithTimeout(context.Background(), app.DefaultStopTimeout)
	defer cancel2()
	if err := a.Stop(stopCtx); err != nil {
		zap.NewExample().Sugar().Errorf("failed to stop app: %v", err)
		exitCode = 1
		return
	}
}
