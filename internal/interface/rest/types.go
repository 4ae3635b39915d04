package restservice

import "github.com/ark-network/oracle/internal/core/domain"

type errorResponse struct {
	Error string `json:"error"`
}

type idResponse struct {
	Id string `json:"id"`
}

type createManualResolverRequest struct {
	Owner       string `json:"owner" binding:"required"`
	QuestionRef string `json:"questionRef"`
}

type createMajorityResolverRequest struct {
	Children []string `json:"children" binding:"required"`
}

type createChallengeResolverRequest struct {
	Upstream          string `json:"upstream" binding:"required"`
	SpreadMultiplier  uint64 `json:"spreadMultiplier"`
	ChallengeWindow   int64  `json:"challengeWindow"`
	MinChallengeStake uint64 `json:"minChallengeStake"`
	FrontRunnerPeriod int64  `json:"frontRunnerPeriod"`
	MarginRule        string `json:"marginRule"`
}

func (r createChallengeResolverRequest) config() domain.ChallengeConfig {
	return domain.ChallengeConfig{
		SpreadMultiplier:  r.SpreadMultiplier,
		ChallengeWindow:   r.ChallengeWindow,
		MinChallengeStake: domain.Stake(r.MinChallengeStake),
		FrontRunnerPeriod: r.FrontRunnerPeriod,
		MarginRule:        r.MarginRule,
	}
}

type outcomeResponse struct {
	Id           string  `json:"id"`
	Kind         string  `json:"kind"`
	IsOutcomeSet bool    `json:"isOutcomeSet"`
	Outcome      *uint64 `json:"outcome,omitempty"`
}

type setOutcomeRequest struct {
	Caller  string `json:"caller" binding:"required"`
	Outcome uint64 `json:"outcome"`
}

type replaceOwnerRequest struct {
	Caller   string `json:"caller" binding:"required"`
	NewOwner string `json:"newOwner" binding:"required"`
}

type pullResponse struct {
	Outcome uint64 `json:"outcome"`
}

type placeBidRequest struct {
	Bidder  string `json:"bidder" binding:"required"`
	Outcome uint64 `json:"outcome"`
	Stake   uint64 `json:"stake"`
}

type withdrawRequest struct {
	Caller string `json:"caller" binding:"required"`
}

type amountResponse struct {
	Amount uint64 `json:"amount"`
}

type bid struct {
	Bidder    string `json:"bidder"`
	Outcome   uint64 `json:"outcome"`
	Amount    uint64 `json:"amount"`
	Timestamp int64  `json:"timestamp"`
}

type challengeConfig struct {
	SpreadMultiplier  uint64 `json:"spreadMultiplier"`
	ChallengeWindow   int64  `json:"challengeWindow"`
	MinChallengeStake uint64 `json:"minChallengeStake"`
	FrontRunnerPeriod int64  `json:"frontRunnerPeriod"`
	MarginRule        string `json:"marginRule"`
}

type challengeResponse struct {
	Id               string          `json:"id"`
	Upstream         string          `json:"upstream"`
	Stage            string          `json:"stage"`
	Config           challengeConfig `json:"config"`
	ForwardedOutcome *uint64         `json:"forwardedOutcome,omitempty"`
	ForwardedAt      int64           `json:"forwardedAt"`
	FrontRunner      *bid            `json:"frontRunner,omitempty"`
	TotalPot         uint64          `json:"totalPot"`
	Outcome          *uint64         `json:"outcome,omitempty"`
	Winner           string          `json:"winner,omitempty"`
	WinnerPaid       bool            `json:"winnerPaid"`
	Now              int64           `json:"now"`
}

func toChallengeResponse(info *domain.ChallengeInfo) challengeResponse {
	resp := challengeResponse{
		Id:       info.Id,
		Upstream: info.Upstream,
		Stage:    info.Stage.String(),
		Config: challengeConfig{
			SpreadMultiplier:  info.Config.SpreadMultiplier,
			ChallengeWindow:   info.Config.ChallengeWindow,
			MinChallengeStake: uint64(info.Config.MinChallengeStake),
			FrontRunnerPeriod: info.Config.FrontRunnerPeriod,
			MarginRule:        info.Config.MarginRule,
		},
		ForwardedAt: info.ForwardedAt,
		TotalPot:    uint64(info.TotalPot),
		Winner:      info.Winner,
		WinnerPaid:  info.WinnerPaid,
		Now:         info.Now,
	}
	if info.ForwardedOutcome != nil {
		outcome := uint64(*info.ForwardedOutcome)
		resp.ForwardedOutcome = &outcome
	}
	if info.FrontRunner != nil {
		resp.FrontRunner = &bid{
			Bidder:    info.FrontRunner.Bidder,
			Outcome:   uint64(info.FrontRunner.Outcome),
			Amount:    uint64(info.FrontRunner.Amount),
			Timestamp: info.FrontRunner.Timestamp,
		}
	}
	if info.Outcome != nil {
		outcome := uint64(*info.Outcome)
		resp.Outcome = &outcome
	}
	return resp
}

type eventResponse struct {
	Type  string       `json:"type"`
	Topic string       `json:"topic"`
	Data  domain.Event `json:"data"`
}

type depositRequest struct {
	Account string `json:"account" binding:"required"`
	Amount  uint64 `json:"amount"`
}

type approveRequest struct {
	Owner   string `json:"owner" binding:"required"`
	Spender string `json:"spender" binding:"required"`
	Amount  uint64 `json:"amount"`
}

type balanceResponse struct {
	Account string `json:"account"`
	Balance uint64 `json:"balance"`
}
