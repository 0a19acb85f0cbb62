package app

import (
	"time"

	"go.uber.org/fx"

	"github.com/barberpro/mpmock/internal/app/api/server"
	"github.com/barberpro/mpmock/internal/app/service/payment"
	"github.com/barberpro/mpmock/internal/app/service/scenario"
	"github.com/barberpro/mpmock/internal/app/service/webhook"
	"github.com/barberpro/mpmock/pkg/config"
	"github.com/barberpro/mpmock/pkg/logger"
)

const (
	DefaultStartTimeout = 15 * time.Second
	DefaultStopTimeout  = 10 * time.Second
)

var Module = fx.Options(
	logger.Module,
	config.Module,
	scenario.Module,
	webhook.Module,
	payment.Module,
	server.Module,
)
