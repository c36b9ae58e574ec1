package api

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/handlers"
	"github.com/npezzotti/go-budget/internal/config"
	"github.com/npezzotti/go-budget/internal/database"
	"github.com/npezzotti/go-budget/internal/money"
	"github.com/npezzotti/go-budget/internal/notify"
	"github.com/npezzotti/go-budget/internal/room"
	"github.com/npezzotti/go-budget/internal/stats"
	"github.com/teris-io/shortid"
)

const (
	notifyTimeout   = 10 * time.Second
	defaultCurrency = "USD"
)

type BudgetApp struct {
	log             *log.Logger
	db              database.Repository
	srv             *http.Server
	stats           stats.StatsProvider
	signingKey      []byte
	allowedOrigins  []string
	notifier        *notify.Notifier
	registry        *notify.Registry
	subs            *notify.Subscriptions
	resolver        *room.Resolver
	roomSecret      string
	heartbeat       time.Duration
	converter       *money.Converter
	generateShortId func() (string, error)
	pending         sync.WaitGroup
}

// NewBudgetApp wires the HTTP API onto mux. In local delivery mode live
// events flow through an in-process registry; in rooms mode they are
// published to room hosts.
func NewBudgetApp(mux *http.ServeMux, logger *log.Logger, db database.Repository, su stats.StatsProvider, cfg *config.Config) (*BudgetApp, error) {
	baseCurrency := cfg.BaseCurrency
	if baseCurrency == "" {
		baseCurrency = defaultCurrency
	}

	s := &BudgetApp{
		log:             logger,
		db:              db,
		stats:           su,
		signingKey:      cfg.SigningKey,
		allowedOrigins:  cfg.AllowedOrigins,
		roomSecret:      cfg.Delivery.RoomSecret,
		heartbeat:       cfg.Notifications.HeartbeatInterval,
		converter:       money.NewConverter(baseCurrency, cfg.ExchangeRates),
		generateShortId: shortid.Generate,
	}

	for _, m := range []string{stats.NotificationsCreated, stats.LivePushes} {
		su.RegisterMetric(m)
	}

	switch cfg.Delivery.Mode {
	case config.DeliveryRooms:
		resolver, err := room.NewResolver(cfg.Delivery.RoomHosts)
		if err != nil {
			return nil, fmt.Errorf("room resolver: %w", err)
		}
		s.resolver = resolver
		s.notifier = notify.NewNotifier(logger, db, notify.ShareAudience{Shares: db},
			room.NewBroadcaster(logger, resolver, cfg.Delivery.RoomSecret), su)
	default:
		for _, m := range []string{stats.ActiveStreams, stats.ActiveSubscriptions, stats.DeadConnections} {
			su.RegisterMetric(m)
		}
		s.subs = notify.NewSubscriptions(su)
		s.registry = notify.NewRegistry(logger, s.subs, su)
		s.notifier = notify.NewNotifier(logger, db, s.subs, notify.NewDelivery(logger, s.registry, su), su)
	}

	mux.HandleFunc("GET /healthz", s.healthCheck)
	mux.HandleFunc("POST /api/auth/register", s.createAccount)
	mux.HandleFunc("POST /api/auth/login", s.login)
	mux.HandleFunc("GET /api/auth/session", s.authMiddleware(s.session))
	mux.HandleFunc("GET /api/auth/logout", s.authMiddleware(s.logout))
	mux.HandleFunc("GET /api/account", s.authMiddleware(s.account))
	mux.HandleFunc("PUT /api/account/currency", s.authMiddleware(s.updateCurrency))

	mux.HandleFunc("GET /api/shares", s.authMiddleware(s.listShares))
	mux.HandleFunc("PUT /api/shares/{username}", s.authMiddleware(s.putShare))
	mux.HandleFunc("DELETE /api/shares/{username}", s.authMiddleware(s.deleteShare))

	mux.HandleFunc("GET /api/budgets/{owner}/months", s.authMiddleware(s.listMonths))
	mux.HandleFunc("POST /api/budgets/{owner}/months", s.authMiddleware(s.createMonth))
	mux.HandleFunc("DELETE /api/budgets/{owner}/months/{year}/{month}", s.authMiddleware(s.deleteMonth))
	mux.HandleFunc("GET /api/budgets/{owner}/months/{year}/{month}/entries", s.authMiddleware(s.listEntries))
	mux.HandleFunc("GET /api/budgets/{owner}/months/{year}/{month}/summary", s.authMiddleware(s.monthSummary))
	mux.HandleFunc("POST /api/budgets/{owner}/entries", s.authMiddleware(s.createEntry))
	mux.HandleFunc("PUT /api/budgets/{owner}/entries/{id}", s.authMiddleware(s.updateEntry))
	mux.HandleFunc("DELETE /api/budgets/{owner}/entries/{id}", s.authMiddleware(s.deleteEntry))
	mux.HandleFunc("POST /api/budgets/{owner}/import", s.authMiddleware(s.importEntries))

	mux.HandleFunc("GET /api/budgets/{owner}/todos", s.authMiddleware(s.listTodos))
	mux.HandleFunc("POST /api/budgets/{owner}/todos", s.authMiddleware(s.createTodo))
	mux.HandleFunc("PUT /api/budgets/{owner}/todos/{id}", s.authMiddleware(s.updateTodo))
	mux.HandleFunc("POST /api/budgets/{owner}/todos/{id}/toggle", s.authMiddleware(s.toggleTodo))
	mux.HandleFunc("DELETE /api/budgets/{owner}/todos/{id}", s.authMiddleware(s.deleteTodo))
	mux.HandleFunc("GET /api/budgets/{owner}/memos", s.authMiddleware(s.listMemos))
	mux.HandleFunc("POST /api/budgets/{owner}/memos", s.authMiddleware(s.createMemo))
	mux.HandleFunc("PUT /api/budgets/{owner}/memos/{id}", s.authMiddleware(s.updateMemo))
	mux.HandleFunc("DELETE /api/budgets/{owner}/memos/{id}", s.authMiddleware(s.deleteMemo))

	mux.HandleFunc("GET /api/notifications", s.authMiddleware(s.listNotifications))
	mux.HandleFunc("PUT /api/notifications/{id}/mark-read", s.authMiddleware(s.markNotificationRead))
	mux.HandleFunc("PUT /api/notifications/mark-all-read", s.authMiddleware(s.markAllNotificationsRead))
	if s.registry != nil {
		mux.HandleFunc("GET /api/notifications/events", s.authMiddleware(s.notificationEvents))
		mux.HandleFunc("POST /api/notifications/subscribe/{username}", s.authMiddleware(s.subscribe))
		mux.HandleFunc("POST /api/notifications/unsubscribe/{username}", s.authMiddleware(s.unsubscribe))
	}
	if s.resolver != nil {
		mux.HandleFunc("GET /api/notifications/ws/{budgetOwnerId}", s.authMiddleware(s.forwardWebSocket))
	}

	h := handlers.CORS(
		handlers.MaxAge(3600),
		handlers.AllowedOrigins(cfg.AllowedOrigins),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions}),
		handlers.AllowedHeaders([]string{"Origin", "Content-Type", "Accept"}),
		handlers.AllowCredentials(),
	)(mux)

	h = handlers.LoggingHandler(logger.Writer(), h)
	h = s.errorHandler(h)

	s.srv = &http.Server{
		Addr:    cfg.ServerAddr,
		Handler: h,
	}
	if s.registry != nil {
		s.srv.RegisterOnShutdown(s.registry.CloseAll)
	}

	return s, nil
}

func (s *BudgetApp) Handler() http.Handler {
	return s.srv.Handler
}

func (s *BudgetApp) Notifier() *notify.Notifier {
	return s.notifier
}

func (s *BudgetApp) Start() error {
	s.log.Printf("starting server on %s\n", s.srv.Addr)
	return s.srv.ListenAndServe()
}

// Shutdown stops the HTTP server and waits for queued notifications.
func (s *BudgetApp) Shutdown(ctx context.Context) error {
	s.log.Println("shutting down HTTP server...")
	if err := s.srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	done := make(chan struct{})
	go func() {
		s.pending.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("waiting for notifications: %w", ctx.Err())
	}
}

// notifyAsync records and pushes a notification after the mutation that caused it
// has committed. Failures are logged and never reach the caller.
func (s *BudgetApp) notifyAsync(sourceUserId, budgetOwnerId int, p notify.Params) {
	s.pending.Add(1)
	go func() {
		defer s.pending.Done()

		ctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
		defer cancel()

		if err := s.notifier.CreateNotification(ctx, sourceUserId, budgetOwnerId, p); err != nil {
			s.log.Printf("create notification %s: %v", p.Type(), err)
		}
	}()
}
