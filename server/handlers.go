// SPDX-License-Identifier: GPL-3.0-or-later
package server

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/CrawX/go-imap-crmsync/crmsync"
	"github.com/CrawX/go-imap-crmsync/domain"
	"github.com/CrawX/go-imap-crmsync/scheduler"
)

const (
	defaultActivityLimit = 50
	maxActivityLimit     = 500
)

type syncResponse struct {
	Success        bool     `json:"success"`
	InboundSynced  int      `json:"inboundSynced"`
	OutboundSynced int      `json:"outboundSynced"`
	Errors         []string `json:"errors"`
	Error          string   `json:"error,omitempty"`
}

func toSyncResponse(result *crmsync.Result, err error) syncResponse {
	response := syncResponse{Errors: []string{}}
	if result != nil {
		response.Success = result.Success
		response.InboundSynced = result.InboundSynced
		response.OutboundSynced = result.OutboundSynced
		for _, e := range result.Errors {
			response.Errors = append(response.Errors, e.Error())
		}
	}
	if err != nil {
		response.Error = err.Error()
	}
	return response
}

func (s *Server) syncNow(c echo.Context) error {
	id := c.Param("id")
	result, err := s.trigger.SyncNow(c.Request().Context(), id)
	switch {
	case errors.Is(err, scheduler.ErrAlreadyRunning):
		return errorResponse(c, http.StatusConflict, err.Error())
	case errors.Is(err, domain.ErrConfigNotFound):
		return errorResponse(c, http.StatusNotFound, err.Error())
	case err != nil:
		s.l.WithError(err).WithFields(logrus.Fields{"config": id}).Warn("Manual sync failed")
		return c.JSON(http.StatusBadGateway, toSyncResponse(result, err))
	}

	return c.JSON(http.StatusOK, toSyncResponse(result, nil))
}

func (s *Server) cancelSync(c echo.Context) error {
	if !s.trigger.Cancel(c.Param("id")) {
		return errorResponse(c, http.StatusNotFound, "no sync running")
	}
	return c.NoContent(http.StatusAccepted)
}

type addressRequest struct {
	Name    string `json:"name"`
	Address string `json:"address" validate:"required,email"`
}

type composeRequest struct {
	To         []addressRequest `json:"to" validate:"required_without_all=Cc Bcc,dive"`
	Cc         []addressRequest `json:"cc" validate:"dive"`
	Bcc        []addressRequest `json:"bcc" validate:"dive"`
	Subject    string           `json:"subject" validate:"max=998"`
	Text       string           `json:"text" validate:"required_without=Html"`
	Html       string           `json:"html"`
	InReplyTo  string           `json:"inReplyTo"`
	References []string         `json:"references"`
}

func toAddresses(requests []addressRequest) []domain.Address {
	addresses := []domain.Address{}
	for _, r := range requests {
		addresses = append(addresses, domain.Address{Name: r.Name, Address: r.Address})
	}
	return addresses
}

func (r *composeRequest) toOutgoing() *domain.OutgoingMessage {
	return &domain.OutgoingMessage{
		To:         toAddresses(r.To),
		Cc:         toAddresses(r.Cc),
		Bcc:        toAddresses(r.Bcc),
		Subject:    r.Subject,
		TextBody:   r.Text,
		HtmlBody:   r.Html,
		InReplyTo:  r.InReplyTo,
		References: r.References,
	}
}

func (s *Server) sendMessage(c echo.Context) error {
	var req composeRequest
	if err := c.Bind(&req); err != nil {
		return errorResponse(c, http.StatusBadRequest, "invalid request payload")
	}
	if err := c.Validate(&req); err != nil {
		return errorResponse(c, http.StatusBadRequest, err.Error())
	}

	id := c.Param("id")
	messageId, err := s.sender.SendEmail(c.Request().Context(), id, req.toOutgoing())
	if err != nil {
		return s.sendErrorResponse(c, id, err)
	}

	return c.JSON(http.StatusCreated, map[string]string{"messageId": messageId})
}

func (s *Server) sendErrorResponse(c echo.Context, id string, err error) error {
	var sendErr *domain.SendError
	var connErr *domain.ConnectionError
	switch {
	case errors.Is(err, domain.ErrConfigNotFound):
		return errorResponse(c, http.StatusNotFound, err.Error())
	case errors.As(err, &connErr):
		s.l.WithError(err).WithFields(logrus.Fields{"config": id}).Warn("Could not open send session")
		return errorResponse(c, http.StatusServiceUnavailable, err.Error())
	case errors.As(err, &sendErr):
		return c.JSON(http.StatusBadGateway, map[string]interface{}{
			"error":  sendErr.Error(),
			"code":   sendErr.Code,
			"reason": sendErr.Reason,
		})
	default:
		return errorResponse(c, http.StatusUnprocessableEntity, err.Error())
	}
}

type activityResponse struct {
	Id             string    `json:"id"`
	ContactId      string    `json:"contactId"`
	Direction      string    `json:"direction"`
	MessageId      string    `json:"messageId"`
	ThreadId       string    `json:"threadId"`
	Subject        string    `json:"subject"`
	From           string    `json:"from"`
	To             []string  `json:"to"`
	Snippet        string    `json:"snippet"`
	HasAttachments bool      `json:"hasAttachments"`
	OccurredAt     time.Time `json:"occurredAt"`
}

func (s *Server) listActivities(c echo.Context) error {
	limit := defaultActivityLimit
	err := echo.QueryParamsBinder(c).Int("limit", &limit).BindError()
	if err != nil || limit <= 0 || limit > maxActivityLimit {
		return errorResponse(c, http.StatusBadRequest, "limit must be between 1 and 500")
	}

	events, err := s.activities.ListActivities(c.Param("id"), limit)
	if err != nil {
		s.l.WithError(err).Warn("Could not list activities")
		return errorResponse(c, http.StatusInternalServerError, "could not list activities")
	}

	response := make([]activityResponse, 0, len(events))
	for _, e := range events {
		response = append(response, activityResponse{
			Id:             e.Id,
			ContactId:      e.ContactId,
			Direction:      string(e.Direction),
			MessageId:      e.MessageId,
			ThreadId:       e.ThreadId,
			Subject:        e.Subject,
			From:           e.From,
			To:             e.To,
			Snippet:        e.Snippet,
			HasAttachments: e.HasAttachments,
			OccurredAt:     e.OccurredAt,
		})
	}
	return c.JSON(http.StatusOK, response)
}
