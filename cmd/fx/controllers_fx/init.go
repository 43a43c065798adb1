package controllers_fx

import (
	"go.uber.org/fx"

	"resellerdash/internal/api/controllers"
)

var Module = fx.Options(
	fx.Provide(controllers.NewSettlementController))
