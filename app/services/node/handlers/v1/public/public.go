// Package public maintains the group of handlers for public access.
package public

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/websocket"
	"github.com/openwager/wagerchain/business/web/errs"
	"github.com/openwager/wagerchain/foundation/blockchain/database"
	"github.com/openwager/wagerchain/foundation/blockchain/state"
	"github.com/openwager/wagerchain/foundation/events"
	"github.com/openwager/wagerchain/foundation/nameservice"
	"github.com/openwager/wagerchain/foundation/web"
	"go.uber.org/zap"
)

// Handlers manages the set of node endpoints.
type Handlers struct {
	Log   *zap.SugaredLogger
	State *state.State
	NS    *nameservice.NameService
	WS    websocket.Upgrader
	Evts  *events.Events
}

// Events handles a web socket to provide events to a client.
func (h Handlers) Events(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	h.WS.CheckOrigin = func(r *http.Request) bool { return true }

	c, err := h.WS.Upgrade(w, r, nil)
	if err != nil {
		return err
	}
	defer c.Close()

	ch := h.Evts.Acquire(v.TraceID)
	defer h.Evts.Release(v.TraceID)

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case msg, wd := <-ch:
			if !wd {
				return nil
			}

			if err := c.WriteMessage(websocket.TextMessage, []byte(msg)); err != nil {
				return err
			}

		case <-ticker.C:
			if err := c.WriteMessage(websocket.PingMessage, []byte("ping")); err != nil {
				return nil
			}
		}
	}
}

// SubmitWalletTransaction adds a new user transaction to the mempool.
func (h Handlers) SubmitWalletTransaction(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	var signedTx database.SignedTx
	if err := web.Decode(r, &signedTx); err != nil {
		return fmt.Errorf("unable to decode payload: %w", err)
	}

	h.Log.Infow("add user tran", "traceid", v.TraceID, "from", signedTx.FromID, "type", signedTx.Type)

	if err := h.State.SubmitWalletTransaction(signedTx); err != nil {
		return errs.NewTrusted(err, http.StatusBadRequest)
	}

	resp := struct {
		Status string `json:"status"`
	}{
		Status: "transaction added to mempool",
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// RegisterAccount authorizes a new account to submit transactions.
func (h Handlers) RegisterAccount(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	var reg struct {
		Account database.AccountID `json:"account" validate:"required"`
		Name    string             `json:"name" validate:"required"`
	}
	if err := web.Decode(r, &reg); err != nil {
		return fmt.Errorf("unable to decode payload: %w", err)
	}

	if err := h.State.RegisterAccount(reg.Account, reg.Name); err != nil {
		return errs.NewTrusted(err, http.StatusBadRequest)
	}

	resp := struct {
		Status string `json:"status"`
	}{
		Status: "account registered",
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// Genesis returns the genesis information.
func (h Handlers) Genesis(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	gen := h.State.RetrieveGenesis()
	return web.Respond(ctx, w, gen, http.StatusOK)
}

// Accounts returns the set of registered accounts.
func (h Handlers) Accounts(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	registered := h.State.RetrieveAccounts()

	acts := make([]account, 0, len(registered))
	for accountID, name := range registered {
		acts = append(acts, account{
			Account: accountID,
			Name:    name,
		})
	}

	ai := actInfo{
		LatestBlock: h.State.RetrieveLatestBlock().Hash(),
		Uncommitted: h.State.QueryMempoolLength(),
		Accounts:    acts,
	}

	return web.Respond(ctx, w, ai, http.StatusOK)
}

// Mempool returns the set of uncommitted transactions.
func (h Handlers) Mempool(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	mempool := h.State.RetrieveMempool()

	trans := make([]tx, len(mempool))
	for i, tran := range mempool {
		trans[i] = toTxModel(h.NS, tran)
	}

	return web.Respond(ctx, w, trans, http.StatusOK)
}

// SignalMining signals the background worker to start a mining operation.
func (h Handlers) SignalMining(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	h.State.Worker.SignalStartMining()

	resp := struct {
		Status string `json:"status"`
	}{
		Status: "mining signaled",
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// ValidateChain re-checks every block in the chain.
func (h Handlers) ValidateChain(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	resp := struct {
		Valid bool   `json:"valid"`
		Error string `json:"error,omitempty"`
	}{
		Valid: true,
	}

	if err := h.State.Validate(); err != nil {
		resp.Valid = false
		resp.Error = err.Error()
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// BlocksByNumber returns the blocks in the specified range.
func (h Handlers) BlocksByNumber(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	fromStr := web.Param(r, "from")
	if fromStr == "latest" || fromStr == "" {
		fromStr = fmt.Sprintf("%d", state.QueryLastest)
	}

	toStr := web.Param(r, "to")
	if toStr == "latest" || toStr == "" {
		toStr = fmt.Sprintf("%d", state.QueryLastest)
	}

	from, err := strconv.ParseUint(fromStr, 10, 64)
	if err != nil {
		return errs.NewTrusted(err, http.StatusBadRequest)
	}
	to, err := strconv.ParseUint(toStr, 10, 64)
	if err != nil {
		return errs.NewTrusted(err, http.StatusBadRequest)
	}

	if from > to {
		return errs.NewTrusted(errors.New("from greater than to"), http.StatusBadRequest)
	}

	dbBlocks := h.State.QueryBlocksByNumber(from, to)
	if len(dbBlocks) == 0 {
		return web.Respond(ctx, w, nil, http.StatusNoContent)
	}

	blocks := make([]block, len(dbBlocks))
	for j, blk := range dbBlocks {
		trans := make([]tx, len(blk.Trans))
		for i, tran := range blk.Trans {
			trans[i] = toTxModel(h.NS, tran)
		}

		blocks[j] = block{
			Number:        blk.Header.Number,
			PrevBlockHash: blk.Header.PrevBlockHash,
			TimeStamp:     blk.Header.TimeStamp,
			Beneficiary:   blk.Header.BeneficiaryID,
			Difficulty:    blk.Header.Difficulty,
			Nonce:         blk.Header.Nonce,
			TransRoot:     blk.Header.TransRoot,
			Hash:          blk.Hash(),
			Transactions:  trans,
		}
	}

	return web.Respond(ctx, w, blocks, http.StatusOK)
}

// Markets returns the set of markets in the derived state.
func (h Handlers) Markets(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	dbMarkets := h.State.QueryMarkets()

	markets := make([]market, 0, len(dbMarkets))
	for _, mkt := range dbMarkets {
		markets = append(markets, market{
			MarketID: mkt.MarketID,
			Question: mkt.Question,
			OptionA:  mkt.OptionA,
			OptionB:  mkt.OptionB,
			EndTime:  mkt.EndTime,
			Resolved: mkt.Resolved,
			Winner:   mkt.Winner,
			Creator:  mkt.CreatorID,
			Name:     h.NS.Lookup(mkt.CreatorID),
		})
	}

	return web.Respond(ctx, w, markets, http.StatusOK)
}

// Bets returns the bet ledger for the specified market.
func (h Handlers) Bets(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	marketID := web.Param(r, "market")

	bets, err := h.State.QueryBets(marketID)
	if err != nil {
		return errs.NewTrusted(err, http.StatusNotFound)
	}

	ledger := betLedger{
		MarketID: marketID,
		OptionA:  toStakes(h.NS, bets.A),
		OptionB:  toStakes(h.NS, bets.B),
	}

	return web.Respond(ctx, w, ledger, http.StatusOK)
}

// Payouts computes and returns the payouts for a resolved market.
func (h Handlers) Payouts(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	marketID := web.Param(r, "market")

	mkt, err := h.State.QueryMarket(marketID)
	if err != nil {
		return errs.NewTrusted(err, http.StatusNotFound)
	}

	dbPayouts, err := h.State.QueryPayouts(marketID)
	if err != nil {
		return errs.NewTrusted(err, http.StatusBadRequest)
	}

	payouts := make([]payout, 0, len(dbPayouts))
	for accountID, amount := range dbPayouts {
		approx, _ := amount.Float64()
		payouts = append(payouts, payout{
			Account: accountID,
			Name:    h.NS.Lookup(accountID),
			Exact:   amount.RatString(),
			Amount:  approx,
		})
	}

	pi := payoutInfo{
		MarketID: marketID,
		Winner:   mkt.Winner,
		Payouts:  payouts,
	}

	return web.Respond(ctx, w, pi, http.StatusOK)
}

// =============================================================================

// toTxModel converts a block transaction into its API view, resolving the
// sender's name and decoding the payload for display.
func toTxModel(ns *nameservice.NameService, tran database.BlockTx) tx {
	var data any
	if err := json.Unmarshal(tran.Data, &data); err != nil {
		data = string(tran.Data)
	}

	return tx{
		FromAccount: tran.FromID,
		FromName:    ns.Lookup(tran.FromID),
		Type:        tran.Type,
		Data:        data,
		TimeStamp:   tran.TimeStamp,
		Sig:         tran.SignatureString(),
	}
}

// toStakes converts one side of a bet ledger into its API view.
func toStakes(ns *nameservice.NameService, side map[database.AccountID]uint64) []stake {
	stakes := make([]stake, 0, len(side))
	for accountID, amount := range side {
		stakes = append(stakes, stake{
			Account: accountID,
			Name:    ns.Lookup(accountID),
			Amount:  amount,
		})
	}
	return stakes
}
