package app

import (
	"time"

	"go.uber.org/fx"

	"github.com/authartic/certify/internal/app/api/server"
	"github.com/authartic/certify/internal/app/service/artifact"
	"github.com/authartic/certify/internal/app/service/certificate"
	"github.com/authartic/certify/internal/app/service/subscription"
	"github.com/authartic/certify/internal/platform/db"
	"github.com/authartic/certify/internal/platform/mail"
	"github.com/authartic/certify/pkg/config"
	"github.com/authartic/certify/pkg/logger"
)

const (
	DefaultStartTimeout = 15 * time.Second
	DefaultStopTimeout  = 10 * time.Second
)

var Module = fx.Options(
	logger.Module,
	config.Module,
	db.Module,
	mail.Module,
	artifact.Module,
	subscription.Module,
	certificate.Module,
	server.Module,
)
