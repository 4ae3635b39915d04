package restservice

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	appconfig "github.com/ark-network/oracle/internal/app-config"
	"github.com/ark-network/oracle/internal/core/application"
	interfaces "github.com/ark-network/oracle/internal/interface"
	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

func init() {
	gin.SetMode(gin.ReleaseMode)
}

type service struct {
	config    Config
	appConfig *appconfig.Config
	server    *http.Server
}

func NewService(
	svcConfig Config, appConfig *appconfig.Config,
) (interfaces.Service, error) {
	if err := svcConfig.Validate(); err != nil {
		return nil, fmt.Errorf("invalid service config: %s", err)
	}
	if err := appConfig.Validate(); err != nil {
		return nil, fmt.Errorf("invalid app config: %s", err)
	}

	return &service{svcConfig, appConfig, nil}, nil
}

func (s *service) Start() error {
	appSvc, err := s.appConfig.AppService()
	if err != nil {
		return err
	}
	if err := appSvc.Start(); err != nil {
		return fmt.Errorf("failed to start app service: %s", err)
	}
	log.Info("started app service")

	s.server = &http.Server{
		Addr:              s.config.address(),
		Handler:           NewHandler(appSvc, s.config.RateLimit),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if err := s.server.ListenAndServe(); err != nil &&
			!errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Error("rest server stopped unexpectedly")
		}
	}()
	log.Infof("started listening at %s", s.config.address())

	return nil
}

func (s *service) Stop() {
	if s.server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		//nolint:all
		s.server.Shutdown(ctx)
		log.Info("stopped rest server")
	}

	appSvc, _ := s.appConfig.AppService()
	if appSvc != nil {
		appSvc.Stop()
		log.Info("stopped app service")
	}
}

// NewHandler returns the router exposing the application service over
// http. Mutation routes are rate limited per client ip.
func NewHandler(appSvc application.Service, rateLimit float64) http.Handler {
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger())

	h := &handler{appSvc}
	limited := newRateLimiter(rateLimit).middleware()

	v1 := router.Group("/v1")

	resolvers := v1.Group("/resolvers")
	resolvers.POST("/manual", limited, h.createManualResolver)
	resolvers.POST("/majority", limited, h.createMajorityResolver)
	resolvers.POST("/challenge", limited, h.createChallengeResolver)
	resolvers.GET("/:id/outcome", h.getOutcome)
	resolvers.POST("/:id/outcome", limited, h.setOutcome)
	resolvers.POST("/:id/owner", limited, h.replaceOwner)
	resolvers.POST("/:id/pull", limited, h.pullForwardedOutcome)
	resolvers.POST("/:id/bids", limited, h.placeBid)
	resolvers.POST("/:id/withdraw", limited, h.withdraw)
	resolvers.GET("/:id/challenge", h.getChallengeInfo)
	resolvers.GET("/:id/events", h.getEvents)

	ledger := v1.Group("/ledger")
	ledger.POST("/deposit", limited, h.deposit)
	ledger.POST("/approve", limited, h.approve)
	ledger.GET("/:account", h.getBalance)

	return router
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		log.WithFields(log.Fields{
			"method":  c.Request.Method,
			"path":    c.Request.URL.Path,
			"status":  c.Writer.Status(),
			"latency": time.Since(start).String(),
		}).Debug("handled request")
	}
}
