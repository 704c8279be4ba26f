package boot

import (
	"classrent/src/booking"
	"classrent/src/calendar"
	"classrent/src/chat"
	"classrent/src/config"
	"classrent/src/db"
	"classrent/src/lib"
	"classrent/src/models"
	"classrent/src/notify"
	"context"
	"log"
	"time"

	"gorm.io/gorm"
)

const noOverlapConstraint = `
DO $$
BEGIN
	IF NOT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = 'reservations_no_overlap') THEN
		ALTER TABLE reservations ADD CONSTRAINT reservations_no_overlap
		EXCLUDE USING gist (space_id WITH =, tstzrange(start_datetime, end_datetime, '[)') WITH &&)
		WHERE (status IN ('pending', 'confirmed') AND deleted_at IS NULL);
	END IF;
END
$$;`

func InitDb() *gorm.DB {
	db := db.GetDb()

	err := db.AutoMigrate(
		&models.User{},
		&models.Space{},
		&models.Reservation{},
		&models.CalendarEvent{},
	)
	if err != nil {
		log.Fatalf("error migration: %s", err.Error())
	}
	EnsureNoOverlapConstraint(db)

	return db
}

// EnsureNoOverlapConstraint installs the exclusion constraint backing the store's overlap check.
// Without it the transactional check still holds; failures are only logged.
func EnsureNoOverlapConstraint(db *gorm.DB) {
	if err := db.Exec("CREATE EXTENSION IF NOT EXISTS btree_gist").Error; err != nil {
		log.Printf("Error creating extension btree_gist: %s\n", err.Error())
		return
	}
	if err := db.Exec(noOverlapConstraint).Error; err != nil {
		log.Printf("Error creating constraint reservations_no_overlap: %s\n", err.Error())
	}
}

// Services is the wired application graph shared by the HTTP handlers.
type Services struct {
	Store      booking.ReservationStore
	Policy     booking.SpacePolicy
	Directory  booking.Directory
	Arbitrator *booking.Arbitrator
	Mirror     *calendar.Mirror
	Reconciler *calendar.Reconciler
	Mediator   *chat.Mediator
	Location   *time.Location

	closers []func()
}

// Close waits for in-flight side effects and releases background clients.
func (s *Services) Close() {
	if s.Arbitrator != nil {
		s.Arbitrator.Wait()
	}
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
}

func (s *Services) OnClose(fn func()) {
	s.closers = append(s.closers, fn)
}

// NewServices wires the booking core over db. Optional collaborators left nil are no-ops.
func NewServices(db *gorm.DB, store booking.ReservationStore, sender notify.Sender, publisher booking.Publisher) *Services {
	loc := config.BookingLocation()
	var policy booking.SpacePolicy = booking.NewGormSpacePolicy(db)
	if rdb := lib.GetRedisClient(); rdb != nil {
		policy = booking.NewCachedSpacePolicy(policy, rdb, booking.SpacePolicyTTL)
	}
	if store == nil {
		store = booking.NewGormStore(db)
	}
	directory := booking.NewGormDirectory(db)
	mirror := calendar.NewMirror(db)

	deps := booking.Deps{
		Store:     store,
		Policy:    policy,
		Directory: directory,
		Mirror:    mirror,
		Location:  loc,
	}
	if sender != nil {
		deps.Notifier = notify.NewNotifier(sender, config.MAIL_FROM, config.MAIL_FROM_NAME, loc)
	}
	if publisher != nil {
		deps.Publisher = publisher
	}
	arbitrator := booking.NewArbitrator(deps)

	return &Services{
		Store:      store,
		Policy:     policy,
		Directory:  directory,
		Arbitrator: arbitrator,
		Mirror:     mirror,
		Reconciler: calendar.NewReconciler(store, policy, directory, mirror, time.Now().Add(-config.MIRROR_RECONCILE_INTERVAL)),
		Mediator:   chat.NewMediator(chat.NotConfigured{}, chat.NewGormCatalog(db), arbitrator, loc),
		Location:   loc,
	}
}

func smtpSender() notify.Sender {
	return notify.NewSMTPSender(notify.SMTPConfig{
		Host:     config.SMTP_HOST,
		Port:     config.SMTP_PORT,
		Username: config.SMTP_USERNAME,
		Password: config.SMTP_PASSWORD,
	})
}

// InitSender picks the delivery path named by NOTIFY_DRIVER.
func InitSender(ctx context.Context) notify.Sender {
	switch config.NOTIFY_DRIVER {
	case "smtp":
		if config.SMTP_HOST == "" {
			log.Println("[mailer] SMTP_HOST is not set, emails will only be logged")
			return notify.LogSender{}
		}
		return smtpSender()
	case "ses":
		client, err := lib.AWSGetSESClient(ctx)
		if err != nil {
			log.Printf("[mailer] Error initializing SES client: %s\n", err.Error())
			return notify.LogSender{}
		}
		return notify.NewSESSender(client)
	case "sqs":
		client, err := lib.AWSGetSQSClient(ctx)
		if err != nil {
			log.Printf("[mailer] Error initializing SQS client: %s\n", err.Error())
			return notify.LogSender{}
		}
		return notify.NewQueueSender(client, config.EMAIL_QUEUE)
	default:
		return notify.LogSender{}
	}
}

// InitBroker starts the email queue consumer when mail is queued and connects the
// domain event publisher when a broker is configured. The returned func releases it.
func InitBroker(ctx context.Context) (booking.Publisher, func()) {
	if config.NOTIFY_DRIVER == "sqs" {
		go startEmailConsumer(ctx)
	}
	if config.KAFKA_BROKER == "" {
		return nil, func() {}
	}
	if _, err := lib.KafkaCreateTopics(ctx, lib.ReservationsTopic); err != nil {
		log.Printf("[kafka] Topic setup failed: %s\n", err.Error())
	}
	publisher, err := lib.DialKafkaPublisher("classrent-api")
	if err != nil {
		return nil, func() {}
	}
	return publisher, publisher.Close
}

// StartMirrorConsumer replays reservation events from the broker onto the calendar mirror.
func StartMirrorConsumer(ctx context.Context, svc *Services) {
	if config.KAFKA_BROKER == "" {
		return
	}
	if err := lib.KafkaConsumer(ctx, "classrent-mirror", lib.ReservationsTopic, svc.Reconciler.EventHandler(ctx)); err != nil {
		log.Printf("[kafka] Mirror consumer not started: %s\n", err.Error())
	}
}

func startEmailConsumer(ctx context.Context) {
	client, err := lib.AWSGetSQSClient(ctx)
	if err != nil {
		log.Printf("[mailer] Error initializing SQS consumer: %s\n", err.Error())
		return
	}
	consumer := notify.NewQueueConsumer(client, config.EMAIL_QUEUE, smtpSender())
	if err := consumer.Listen(ctx); err != nil {
		log.Printf("[mailer] Consumer stopped: %s\n", err.Error())
	}
}

func InitScheduler(svc *Services) {
	sched, err := lib.GetScheduler()
	if err != nil {
		log.Println("An error has occurred. Check logs for info")
		return
	}
	j, err := svc.Reconciler.Schedule(sched, config.MIRROR_RECONCILE_INTERVAL)
	if err != nil {
		log.Printf("Error scheduling job: %s\n", err.Error())
		return
	}
	log.Printf("Job ID: %s %s\n", j.Name(), j.ID().String())
	sched.Start()
}

func StopScheduler() {
	lib.StopScheduler()
}
