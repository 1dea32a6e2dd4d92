package main

import (
	"context"
	"os"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/counselorcorner/storefront_be/internal/catalog"
	"github.com/counselorcorner/storefront_be/internal/config"
	"github.com/counselorcorner/storefront_be/internal/handlers"
	"github.com/counselorcorner/storefront_be/internal/middleware"
	"github.com/counselorcorner/storefront_be/internal/services/campaign"
	"github.com/counselorcorner/storefront_be/internal/services/checkout"
	"github.com/counselorcorner/storefront_be/internal/services/idp"
	"github.com/counselorcorner/storefront_be/internal/services/mailer"
	"github.com/counselorcorner/storefront_be/internal/services/payment"
	"github.com/counselorcorner/storefront_be/internal/services/printpod"
	"github.com/counselorcorner/storefront_be/internal/services/search"
	"github.com/counselorcorner/storefront_be/internal/store"
)

func main() {
	_ = godotenv.Load()

	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	cfg := config.Load()

	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(),
		awsconfig.WithRegion(cfg.AWSRegion),
	)
	if err != nil {
		log.Fatal().Err(err).Msg("aws config load failed")
	}
	db := dynamodb.NewFromConfig(awsCfg)

	var rdb *redis.Client
	if cfg.RedisAddr != "" {
		rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		})
		if err := rdb.Ping(context.Background()).Err(); err != nil {
			log.Warn().Err(err).Msg("redis unreachable, campaign progress polling disabled")
			rdb = nil
		}
	}

	st := store.New(db, cfg.TableName)
	cat := catalog.New(st)

	payments := payment.NewClient(cfg.PaymentBaseURL, cfg.PaymentSecretKey, cfg.PaymentWebhookSecret)
	mail := mailer.NewClient(cfg.MailBaseURL, cfg.MailAPIKey, cfg.MailFrom)
	searchC := search.NewClient(cfg.SearchHost, cfg.SearchAPIKey)
	pod := printpod.NewClient(cfg.PrintBaseURL, cfg.PrintShopID, cfg.PrintAccessToken)
	idpA := idp.NewAdapter(cfg.AuthJWTSecret, cfg.IDPClientID, cfg.IDPClientSecret, cfg.IDPTokenURL)

	checkoutSvc := checkout.NewService(cat, payments,
		cfg.FrontendBaseURL+"/checkout/success?session_id={CHECKOUT_SESSION_ID}",
		cfg.FrontendBaseURL+"/cart",
	)
	dispatcher := campaign.NewDispatcher(cat, mail, rdb)

	productH := handlers.NewProductHandler(cat)
	blogH := handlers.NewBlogHandler(cat)
	bundleH := handlers.NewBundleHandler(cat)
	couponH := handlers.NewCouponHandler(cat)
	checkoutH := handlers.NewCheckoutHandler(checkoutSvc, payments)
	searchH := handlers.NewSearchHandler(searchC)
	newsletterH := handlers.NewNewsletterHandler(cat, dispatcher)
	orderH := handlers.NewOrderHandler(cat)
	adminH := handlers.NewAdminHandler(cat, pod)
	authH := handlers.NewAuthHandler(idpA)

	app := fiber.New()

	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.FrontendBaseURL,
		AllowMethods:     "GET,POST,PUT,PATCH,DELETE,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: true,
	}))

	api := app.Group("/api")

	optAuth := middleware.OptionalAuth(idpA)
	auth := middleware.RequireAuth(idpA)
	adminOnly := middleware.RequireRoles("admin", "superadmin")

	// public storefront
	api.Get("/products", optAuth, productH.List)
	api.Get("/products/:id", optAuth, productH.Get)
	api.Get("/products/slug/:slug", productH.GetBySlug)
	api.Get("/products/:id/download", productH.Download)
	api.Get("/posts", blogH.List)
	api.Get("/posts/slug/:slug", blogH.GetBySlug)
	api.Get("/bundles", bundleH.List)
	api.Get("/bundles/slug/:slug", bundleH.GetBySlug)
	api.Get("/bundles/:id", bundleH.Get)
	api.Get("/search", searchH.Query)
	api.Post("/coupons/validate", couponH.Validate)

	// checkout; an anonymous buyer is fine, a signed-in one gets the
	// order attached to their account
	api.Post("/checkout/create-session", optAuth, checkoutH.CreateSession)
	api.Post("/checkout/verify-payment", checkoutH.VerifyPayment)
	api.Post("/checkout/webhook", checkoutH.Webhook)

	// newsletter
	api.Post("/newsletter/subscribe", newsletterH.Subscribe)
	api.Post("/newsletter/unsubscribe", newsletterH.Unsubscribe)

	// session
	api.Get("/auth/me", auth, authH.Me)
	api.Post("/auth/refresh", authH.Refresh)
	api.Post("/auth/logout", authH.Logout)

	// customer
	api.Get("/orders", auth, orderH.List)
	api.Get("/orders/:id", auth, orderH.Get)

	// content management; mounted on the public paths, gated per route
	api.Post("/products", auth, adminOnly, productH.Create)
	api.Put("/products/:id", auth, adminOnly, productH.Update)
	api.Delete("/products/:id", auth, adminOnly, productH.Delete)

	api.Post("/posts", auth, adminOnly, blogH.Create)
	api.Get("/posts/:id", auth, adminOnly, blogH.Get)
	api.Put("/posts/:id", auth, adminOnly, blogH.Update)
	api.Delete("/posts/:id", auth, adminOnly, blogH.Delete)

	api.Post("/bundles", auth, adminOnly, bundleH.Create)
	api.Put("/bundles/:id", auth, adminOnly, bundleH.Update)
	api.Delete("/bundles/:id", auth, adminOnly, bundleH.Delete)

	// admin
	admin := api.Group("/admin", auth, adminOnly)

	admin.Get("/stats", adminH.Stats)
	admin.Get("/orders", orderH.AdminList)
	admin.Get("/products", productH.AdminList)

	admin.Get("/coupons", couponH.List)
	admin.Post("/coupons", couponH.Create)
	admin.Put("/coupons/:code", couponH.Update)
	admin.Delete("/coupons/:code", couponH.Delete)

	admin.Get("/newsletter/subscribers", newsletterH.ListSubscribers)

	campaigns := api.Group("/newsletter/campaigns", auth, adminOnly)
	campaigns.Get("/", newsletterH.ListCampaigns)
	campaigns.Post("/", newsletterH.CreateCampaign)
	campaigns.Get("/:id", newsletterH.GetCampaign)
	campaigns.Put("/:id", newsletterH.UpdateCampaign)
	campaigns.Post("/:id/send", newsletterH.SendCampaign)
	campaigns.Get("/:id/progress", newsletterH.CampaignProgress)

	admin.Get("/print/providers", adminH.ListPrintProviders)
	admin.Post("/print/products/:id/publish", adminH.PublishPrintProduct)

	log.Info().Str("port", cfg.AppPort).Msg("storefront api listening")
	if err := app.Listen(":" + cfg.AppPort); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}
