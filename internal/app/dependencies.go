package app

import (
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sitebook/sitebook/internal/config"
	"github.com/sitebook/sitebook/internal/database"
	"github.com/sitebook/sitebook/internal/event_bus"
	"github.com/sitebook/sitebook/internal/utils"
	"github.com/sitebook/sitebook/pkg/attendance"
	"github.com/sitebook/sitebook/pkg/consumption"
	"github.com/sitebook/sitebook/pkg/money"
	"github.com/sitebook/sitebook/pkg/settlement"
	"github.com/sitebook/sitebook/pkg/site"
	"github.com/sitebook/sitebook/pkg/teashop"
)

// Dependencies holds all services and handlers for the application.
type Dependencies struct {
	EventBus  *event_bus.EventBus
	Clock     utils.Clock
	Precision money.Precision

	SiteService site.Service
	SiteHandler *site.Handler

	AttendanceService *attendance.ServiceImpl
	AttendanceHandler *attendance.Handler

	TeaShopService *teashop.ServiceImpl
	TeaShopHandler *teashop.Handler

	SettlementService *settlement.ServiceImpl
	StatementRenderer settlement.StatementRenderer
	SettlementHandler *settlement.Handler
}

// BuildDependencies initializes and wires all application services and handlers.
func BuildDependencies(db *pgxpool.Pool, cfg config.Application) *Dependencies {
	deps := &Dependencies{}

	deps.EventBus = event_bus.NewEventBus()
	deps.Clock = &utils.SystemClock{}
	deps.Precision = money.NewPrecision(cfg.Currency.MinorUnits)

	deps.SiteService = site.NewSiteService(site.NewSiteRepo(db))
	deps.SiteHandler = site.NewHandler(deps.SiteService)

	deps.AttendanceService = attendance.NewService(attendance.NewRepository(db), deps.EventBus, deps.Precision)
	deps.AttendanceHandler = attendance.NewHandler(deps.AttendanceService, deps.Precision)

	deps.TeaShopService = teashop.NewService(
		teashop.NewRepository(db),
		database.NewTransactor(db),
		deps.AttendanceService,
		consumption.NewAllocator(deps.Precision),
		deps.EventBus,
		deps.Clock,
	)
	deps.TeaShopHandler = teashop.NewHandler(deps.TeaShopService)

	deps.SettlementService = settlement.NewService(settlement.NewRepository(db), deps.AttendanceService, deps.Precision, deps.Clock)
	deps.StatementRenderer = settlement.NewCsvStatementRenderer(deps.Precision.Places)
	deps.SettlementHandler = settlement.NewHandler(deps.SettlementService, deps.StatementRenderer)

	return deps
}
