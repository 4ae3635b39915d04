package restservice

import (
	"errors"
	"net/http"

	"github.com/ark-network/oracle/internal/core/application"
	"github.com/ark-network/oracle/internal/core/domain"
	"github.com/ark-network/oracle/internal/core/ports"
	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

type handler struct {
	svc application.Service
}

func (h *handler) createManualResolver(c *gin.Context) {
	var req createManualResolverRequest
	if !bind(c, &req) {
		return
	}

	id, err := h.svc.CreateManualResolver(c.Request.Context(), req.Owner, req.QuestionRef)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, idResponse{id})
}

func (h *handler) createMajorityResolver(c *gin.Context) {
	var req createMajorityResolverRequest
	if !bind(c, &req) {
		return
	}

	id, err := h.svc.CreateMajorityResolver(c.Request.Context(), req.Children)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, idResponse{id})
}

func (h *handler) createChallengeResolver(c *gin.Context) {
	var req createChallengeResolverRequest
	if !bind(c, &req) {
		return
	}

	id, err := h.svc.CreateChallengeResolver(
		c.Request.Context(), req.Upstream, req.config(),
	)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, idResponse{id})
}

func (h *handler) getOutcome(c *gin.Context) {
	info, err := h.svc.GetOutcome(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	resp := outcomeResponse{
		Id:           info.Id,
		Kind:         string(info.Kind),
		IsOutcomeSet: info.IsOutcomeSet,
	}
	if info.Outcome != nil {
		outcome := uint64(*info.Outcome)
		resp.Outcome = &outcome
	}
	c.JSON(http.StatusOK, resp)
}

func (h *handler) setOutcome(c *gin.Context) {
	var req setOutcomeRequest
	if !bind(c, &req) {
		return
	}

	if err := h.svc.SetOutcome(
		c.Request.Context(), c.Param("id"), req.Caller, domain.Outcome(req.Outcome),
	); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *handler) replaceOwner(c *gin.Context) {
	var req replaceOwnerRequest
	if !bind(c, &req) {
		return
	}

	if err := h.svc.ReplaceOwner(
		c.Request.Context(), c.Param("id"), req.Caller, req.NewOwner,
	); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *handler) pullForwardedOutcome(c *gin.Context) {
	outcome, err := h.svc.PullForwardedOutcome(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, pullResponse{uint64(outcome)})
}

func (h *handler) placeBid(c *gin.Context) {
	var req placeBidRequest
	if !bind(c, &req) {
		return
	}

	if err := h.svc.PlaceBid(
		c.Request.Context(), c.Param("id"), req.Bidder,
		domain.Outcome(req.Outcome), domain.Stake(req.Stake),
	); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *handler) withdraw(c *gin.Context) {
	var req withdrawRequest
	if !bind(c, &req) {
		return
	}

	amount, err := h.svc.Withdraw(c.Request.Context(), c.Param("id"), req.Caller)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, amountResponse{uint64(amount)})
}

func (h *handler) getChallengeInfo(c *gin.Context) {
	info, err := h.svc.GetChallengeInfo(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toChallengeResponse(info))
}

func (h *handler) getEvents(c *gin.Context) {
	events, err := h.svc.GetEvents(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	resp := make([]eventResponse, 0, len(events))
	for _, event := range events {
		resp = append(resp, eventResponse{
			Type:  event.GetType().String(),
			Topic: event.GetTopic(),
			Data:  event,
		})
	}
	c.JSON(http.StatusOK, resp)
}

func (h *handler) deposit(c *gin.Context) {
	var req depositRequest
	if !bind(c, &req) {
		return
	}

	if err := h.svc.Deposit(
		c.Request.Context(), req.Account, domain.Stake(req.Amount),
	); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *handler) approve(c *gin.Context) {
	var req approveRequest
	if !bind(c, &req) {
		return
	}

	if err := h.svc.Approve(
		c.Request.Context(), req.Owner, req.Spender, domain.Stake(req.Amount),
	); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *handler) getBalance(c *gin.Context) {
	account := c.Param("account")
	balance, err := h.svc.GetBalance(c.Request.Context(), account)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, balanceResponse{account, uint64(balance)})
}

func bind(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, errorResponse{err.Error()})
		return false
	}
	return true
}

var errorStatusCodes = []struct {
	err    error
	status int
}{
	{application.ErrResolverNotFound, http.StatusNotFound},
	{application.ErrWrongResolverKind, http.StatusBadRequest},
	{domain.ErrUnauthorized, http.StatusForbidden},
	{domain.ErrNotWinner, http.StatusForbidden},
	{ports.ErrCustodianAccount, http.StatusForbidden},
	{domain.ErrNotResolved, http.StatusConflict},
	{domain.ErrUpstreamNotResolved, http.StatusConflict},
	{domain.ErrForwardNotPulled, http.StatusConflict},
	{domain.ErrForwardAlreadyPulled, http.StatusConflict},
	{domain.ErrAlreadyResolved, http.StatusConflict},
	{domain.ErrAlreadyPaid, http.StatusConflict},
	{domain.ErrOutcomeAlreadySet, http.StatusConflict},
	{domain.ErrStakeTooLow, http.StatusUnprocessableEntity},
	{domain.ErrInsufficientFunds, http.StatusUnprocessableEntity},
	{ports.ErrBalanceOverflow, http.StatusUnprocessableEntity},
	{domain.ErrNoChildren, http.StatusBadRequest},
}

func respondError(c *gin.Context, err error) {
	for _, e := range errorStatusCodes {
		if errors.Is(err, e.err) {
			c.AbortWithStatusJSON(e.status, errorResponse{err.Error()})
			return
		}
	}

	log.WithError(err).Warnf("%s %s failed", c.Request.Method, c.Request.URL.Path)
	c.AbortWithStatusJSON(http.StatusBadRequest, errorResponse{err.Error()})
}
