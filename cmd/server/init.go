package main

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/mongo"

	"servicehub/config"
	appointmentmodels "servicehub/internal/api/appointment/models"
	jobmodels "servicehub/internal/api/job/models"
	ordermodels "servicehub/internal/api/order/models"
	quotemodels "servicehub/internal/api/quote/models"
	apirouter "servicehub/internal/api/router"
	visitmodels "servicehub/internal/api/visit/models"
	"servicehub/internal/database"
	"servicehub/internal/eventbus"
	"servicehub/internal/global"
	"servicehub/internal/lock"
	"servicehub/internal/mailer"
	"servicehub/internal/notification"
	"servicehub/internal/storage"
)

// InitGlobal sets up the validator, config and database handles.
func InitGlobal() {
	initValidator()
	initConfig()
	initDatabase_MongoDB()
}

func initValidator() {
	global.InitValidator()
	logrus.Info("Initialized validator")
}

func initConfig() {
	cfg, err := config.NewConfig()
	if err != nil {
		logrus.Fatalf("Failed to initialize config: %v", err)
	}
	global.MongoDB_ServerConfig = cfg
	logrus.Info("Initialized server config")
}

func initDatabase_MongoDB() {
	var err error
	global.MongoDB_Session, err = database.GetInstance(global.MongoDB_ServerConfig)
	if err != nil {
		logrus.Fatalf("Failed to get database instance: %v", err)
	}
	logrus.Info("Connected to MongoDB")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db := global.MongoDB_Session.Database(global.MongoDB_ServerConfig.MongoDB_DBName)
	if _, err := global.RegistryDatabase.Register(db.Name(), db); err != nil {
		logrus.Fatalf("Failed to register database: %v", err)
	}

	names := global.MongoDB_ColNames
	models := []struct {
		name  string
		model interface{}
	}{
		{names.Visits, visitmodels.Visit{}},
		{names.Jobs, jobmodels.Job{}},
		{names.Quotes, quotemodels.Quote{}},
		{names.Orders, ordermodels.Order{}},
		{names.Appointments, appointmentmodels.Appointment{}},
		{names.Bookings, appointmentmodels.Booking{}},
		{names.Devices, notification.Device{}},
	}

	colNames := make([]string, 0, len(models))
	for _, m := range models {
		colNames = append(colNames, m.name)
	}
	if err := database.EnsureCollections(ctx, db, colNames); err != nil {
		logrus.Fatalf("Failed to ensure collections: %v", err)
	}
	logrus.Info("Ensured database and collections")

	for _, m := range models {
		coll := db.Collection(m.name)
		if _, err := global.RegistryCollections.Register(m.name, coll); err != nil {
			logrus.Fatalf("Failed to register collection %s: %v", m.name, err)
		}
		if err := database.CreateIndexes(ctx, coll, m.model); err != nil {
			logrus.Errorf("Failed to create indexes on %s: %v", m.name, err)
		}
	}
	if err := database.CreateScheduleIndexes(ctx, db.Collection(names.Visits), db.Collection(names.Jobs)); err != nil {
		logrus.Errorf("Failed to create schedule indexes: %v", err)
	}
	logrus.Info("Initialized collection registry")
}

// initCollaborators builds the external services from config. Anything unconfigured or
// failing to start falls back to its no-op form so the API still serves. The returned
// func releases what was started.
func initCollaborators(ctx context.Context, cfg *config.Configuration, client *mongo.Client) (apirouter.Collaborators, func()) {
	var closers []func()
	deps := apirouter.Collaborators{
		Transactor: database.NewMongoTransactor(client),
		Storage:    storage.Unconfigured{},
		Notifier:   notification.Nop{},
		Mailer:     mailer.Nop{},
		MailFrom:   cfg.MailFrom,
		Events:     eventbus.Nop{},
		Locker:     lock.Nop{},
	}

	if cfg.GCSBucket != "" {
		gcs, err := storage.NewGCS(ctx, cfg.GCSBucket, cfg.GCSPrefix, cfg.GCSCredentialsJSON)
		if err != nil {
			logrus.Errorf("Failed to initialize file storage, uploads disabled: %v", err)
		} else {
			deps.Storage = gcs
			closers = append(closers, func() { _ = gcs.Close() })
			logrus.Info("File storage initialized")
		}
	}

	if coll, ok := global.RegistryCollections.Get(global.MongoDB_ColNames.Devices); ok {
		devices := notification.NewMongoDeviceStore(coll)
		deps.Devices = devices
		if cfg.FirebaseProjectID != "" && cfg.FirebaseCredentialsPath != "" {
			fcm, err := notification.NewMessagingClient(ctx, cfg.FirebaseProjectID, cfg.FirebaseCredentialsPath)
			if err != nil {
				logrus.Errorf("Failed to initialize Firebase, push disabled: %v", err)
			} else {
				d := notification.NewDispatcher(devices, notification.NewFCMSender(fcm), cfg.NotifyWorkers, cfg.NotifyQueueSize)
				d.Start()
				deps.Notifier = d
				closers = append(closers, d.Stop)
				logrus.Info("Push notifications initialized")
			}
		} else {
			logrus.Warn("Firebase config incomplete, push notifications disabled")
		}
	}

	if cfg.SMTPHost != "" {
		m, err := mailer.NewSMTPMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword)
		if err != nil {
			logrus.Errorf("Failed to initialize mailer, mail disabled: %v", err)
		} else {
			deps.Mailer = m
		}
	}

	if cfg.PubSubTopic != "" {
		ps, err := eventbus.NewPubSub(ctx, cfg.PubSubProjectID, cfg.PubSubTopic, cfg.PubSubCredentialsJSON, cfg.PubSubCreateTopic)
		if err != nil {
			logrus.Errorf("Failed to initialize Pub/Sub, status events disabled: %v", err)
		} else {
			deps.Events = ps
			closers = append(closers, func() { _ = ps.Close() })
		}
	}

	if cfg.RedisURL != "" {
		l, err := lock.NewRedis(ctx, cfg.RedisURL, time.Duration(cfg.RedisLockTTL)*time.Second)
		if err != nil {
			logrus.Errorf("Failed to initialize Redis, series locking disabled: %v", err)
		} else {
			deps.Locker = l
			closers = append(closers, func() { _ = l.Close() })
		}
	}

	return deps, func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}
}
