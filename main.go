package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"

	"bazario/config"
	"bazario/consumers"
	"bazario/controllers"
	"bazario/database"
	"bazario/gateway"
	"bazario/mailer"
	"bazario/outbox"
	"bazario/rabbitmq"
	"bazario/repository"
	"bazario/services"
)

func main() {
	logrus.SetFormatter(&logrus.JSONFormatter{})

	app := &cli.App{
		Name:  "bazario",
		Usage: "multi-vendor marketplace backend",
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "run the HTTP API, outbox relay and email consumer",
				Action: serve,
			},
			{
				Name:  "create-admin",
				Usage: "seed a verified administrator account",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "name", Value: "Admin"},
					&cli.StringFlag{Name: "email", Required: true},
					&cli.StringFlag{Name: "password", Required: true},
				},
				Action: createAdmin,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		logrus.WithError(err).Fatal("exited")
	}
}

func serve(c *cli.Context) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}

	db, err := database.Connect(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		return err
	}

	mq, err := rabbitmq.NewRabbitMQ(cfg)
	if err != nil {
		return err
	}
	defer mq.Close()
	if err := mq.SetupQueues(); err != nil {
		return err
	}

	users := repository.NewMySQLUsers(db)
	profiles := repository.NewMySQLVendorProfiles(db)
	products := repository.NewMySQLProducts(db)
	orders := repository.NewMySQLOrders(db)
	payments := repository.NewMySQLPayments(db)
	reviews := repository.NewMySQLReviews(db)
	notifications := repository.NewMySQLNotifications(db)
	outboxRepo := repository.NewMySQLOutbox(db)
	tx := repository.NewSQLTxManager(db)

	orderSvc := services.NewOrderService(orders, products, users, notifications, outboxRepo, tx)
	accountSvc := services.NewAccountService(users, outboxRepo, tx, cfg.JWTSecret)
	paymentSvc := services.NewPaymentService(payments, orderSvc, gateway.NewStripeProvider(cfg))
	productSvc := services.NewProductService(products)
	reviewSvc := services.NewReviewService(reviews, products)
	notificationSvc := services.NewNotificationService(notifications)

	ctx, stop := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	relay := outbox.NewRelay(outboxRepo, mq)
	go relay.Run(ctx)

	if err := consumers.StartEmailConsumer(mq.Channel, cfg, mailer.NewSMTPSender(cfg)); err != nil {
		return err
	}

	router := controllers.NewRouter(controllers.RouterDeps{
		JWTSecret:     cfg.JWTSecret,
		Users:         users,
		Profiles:      profiles,
		Accounts:      accountSvc,
		Orders:        orderSvc,
		Payments:      paymentSvc,
		Products:      productSvc,
		Reviews:       reviewSvc,
		Notifications: notificationSvc,
	})

	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: router,
	}

	errCh := make(chan error, 1)
	go func() {
		logrus.WithField("addr", cfg.HTTPAddr).Info("http server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logrus.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func createAdmin(c *cli.Context) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}

	db, err := database.Connect(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		return err
	}

	users := repository.NewMySQLUsers(db)
	outboxRepo := repository.NewMySQLOutbox(db)
	tx := repository.NewSQLTxManager(db)
	accounts := services.NewAccountService(users, outboxRepo, tx, cfg.JWTSecret)

	u, err := accounts.CreateAdmin(c.Context, c.String("name"), c.String("email"), c.String("password"))
	if err != nil {
		return err
	}
	logrus.WithFields(logrus.Fields{"user_id": u.ID, "email": u.Email}).Info("admin created")
	return nil
}
