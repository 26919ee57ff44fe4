package internal

import (
	"net/http"
	"standbot/internal/controllers"
	"standbot/internal/providers"
	"standbot/internal/structures"
)

func InitRoutes(apiController *controllers.ApiController, webhookController *controllers.WebhookController, conf *structures.Config) providers.RouterProviderInterface {
	routers := providers.NewRouterProvider()

	routers.Get("/leaderboard", http.HandlerFunc(apiController.GetLeaderboard))
	routers.Get("/totals", http.HandlerFunc(apiController.GetTotal))
	if conf.Telegram.Mode == structures.ModeWebhook {
		routers.Post(conf.Telegram.WebhookPath, http.HandlerFunc(webhookController.ReceiveUpdate))
	}
	return routers
}
