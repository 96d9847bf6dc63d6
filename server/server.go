// SPDX-License-Identifier: GPL-3.0-or-later
package server

import (
	"context"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/sirupsen/logrus"

	"github.com/CrawX/go-imap-crmsync/crmsync"
	"github.com/CrawX/go-imap-crmsync/domain"
	"github.com/CrawX/go-imap-crmsync/log"
)

type Trigger interface {
	SyncNow(ctx context.Context, configId string) (*crmsync.Result, error)
	Cancel(configId string) bool
}

type Sender interface {
	SendEmail(ctx context.Context, configId string, out *domain.OutgoingMessage) (string, error)
}

type ActivityLister interface {
	ListActivities(configId string, limit int) ([]*domain.ActivityEvent, error)
}

type Server struct {
	echo       *echo.Echo
	trigger    Trigger
	sender     Sender
	activities ActivityLister

	l *logrus.Logger
}

type requestValidator struct {
	validate *validator.Validate
}

func (v *requestValidator) Validate(i interface{}) error {
	return v.validate.Struct(i)
}

func NewServer(trigger Trigger, sender Sender, activities ActivityLister) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = &requestValidator{validate: validator.New()}

	s := &Server{
		echo:       e,
		trigger:    trigger,
		sender:     sender,
		activities: activities,
		l:          log.Logger(log.LOG_SERVER),
	}

	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			s.l.WithFields(logrus.Fields{
				"method":    v.Method,
				"uri":       v.URI,
				"status":    v.Status,
				"latency":   v.Latency,
				"requestid": v.RequestID,
			}).Debug("Handled request")
			return nil
		},
	}))

	e.GET("/health", s.health)
	api := e.Group("/api/v1/mailboxes/:id")
	api.POST("/sync", s.syncNow)
	api.DELETE("/sync", s.cancelSync)
	api.POST("/messages", s.sendMessage)
	api.GET("/activities", s.listActivities)

	return s
}

func (s *Server) health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) Start(address string) error {
	s.l.WithFields(logrus.Fields{"address": address}).Info("Starting http server")
	err := s.echo.Start(address)
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.l.Info("Shutting down http server")
	return s.echo.Shutdown(ctx)
}

func errorResponse(c echo.Context, status int, message string) error {
	return c.JSON(status, map[string]string{"error": message})
}
