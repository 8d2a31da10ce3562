package api

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"realvora-go/internal/ledger"
	"realvora-go/internal/model"
)

func (h *Handler) getHeight(w http.ResponseWriter, r *http.Request) {
	height, err := h.blocks.Height()
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]uint64{"height": height})
}

func (h *Handler) getTradingFee(w http.ResponseWriter, r *http.Request) {
	bps, err := h.ledger.TradingFeeBps()
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]uint64{"trading_fee_bps": bps})
}

// GET /history?limit=N
func (h *Handler) getHistory(w http.ResponseWriter, r *http.Request) {
	limit := defaultHistoryLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			h.writeError(w, &paramError{name: "limit", value: raw})
			return
		}
		limit = n
	}
	ops, err := h.ledger.GetHistory(limit)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(ops))
}

func (h *Handler) listProperties(w http.ResponseWriter, r *http.Request) {
	props, err := h.ledger.ListProperties()
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(props))
}

func (h *Handler) getProperty(w http.ResponseWriter, r *http.Request) {
	id, err := uintParam(r, "id")
	if err != nil {
		h.writeError(w, err)
		return
	}
	p, err := h.ledger.GetProperty(id)
	respond(h, w, p, err, ledger.ErrPropertyNotFound)
}

func (h *Handler) listHolders(w http.ResponseWriter, r *http.Request) {
	id, err := uintParam(r, "id")
	if err != nil {
		h.writeError(w, err)
		return
	}
	holders, err := h.ledger.ListHolders(id)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(holders))
}

func (h *Handler) getShares(w http.ResponseWriter, r *http.Request) {
	id, err := uintParam(r, "id")
	if err != nil {
		h.writeError(w, err)
		return
	}
	holder := chi.URLParam(r, "holder")
	shares, err := h.ledger.GetUserShares(holder, id)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"property_id": id, "holder": holder, "shares": shares})
}

func (h *Handler) getOrderBook(w http.ResponseWriter, r *http.Request) {
	id, err := uintParam(r, "id")
	if err != nil {
		h.writeError(w, err)
		return
	}
	book, err := h.ledger.GetOrderBook(id)
	respond(h, w, book, err, ledger.ErrPropertyNotFound)
}

func (h *Handler) listTrades(w http.ResponseWriter, r *http.Request) {
	id, err := uintParam(r, "id")
	if err != nil {
		h.writeError(w, err)
		return
	}
	trades, err := h.ledger.ListTrades(id)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(trades))
}

func (h *Handler) getDistribution(w http.ResponseWriter, r *http.Request) {
	id, err := uintParam(r, "id")
	if err != nil {
		h.writeError(w, err)
		return
	}
	dist, err := uintParam(r, "dist")
	if err != nil {
		h.writeError(w, err)
		return
	}
	d, err := h.ledger.GetDistribution(id, dist)
	respond(h, w, d, err, ledger.ErrDistributionNotFound)
}

func (h *Handler) getClaim(w http.ResponseWriter, r *http.Request) {
	id, err := uintParam(r, "id")
	if err != nil {
		h.writeError(w, err)
		return
	}
	dist, err := uintParam(r, "dist")
	if err != nil {
		h.writeError(w, err)
		return
	}
	holder := chi.URLParam(r, "holder")
	c, err := h.ledger.GetClaim(id, dist, holder)
	respond(h, w, c, err, fmt.Errorf("claim by %s on distribution %d: %w", holder, dist, errNotFound))
}

func (h *Handler) getOrder(w http.ResponseWriter, r *http.Request) {
	id, err := uintParam(r, "id")
	if err != nil {
		h.writeError(w, err)
		return
	}
	o, err := h.ledger.GetOrder(id)
	respond(h, w, o, err, ledger.ErrOrderNotFound)
}

func (h *Handler) getTrade(w http.ResponseWriter, r *http.Request) {
	id, err := uintParam(r, "id")
	if err != nil {
		h.writeError(w, err)
		return
	}
	t, err := h.ledger.GetTrade(id)
	respond(h, w, t, err, fmt.Errorf("trade %d: %w", id, errNotFound))
}

func (h *Handler) getProposal(w http.ResponseWriter, r *http.Request) {
	id, err := uintParam(r, "id")
	if err != nil {
		h.writeError(w, err)
		return
	}
	p, err := h.ledger.GetProposal(id)
	respond(h, w, p, err, ledger.ErrProposalNotFound)
}

func (h *Handler) getVote(w http.ResponseWriter, r *http.Request) {
	id, err := uintParam(r, "id")
	if err != nil {
		h.writeError(w, err)
		return
	}
	voter := chi.URLParam(r, "voter")
	v, err := h.ledger.GetVote(id, voter)
	respond(h, w, v, err, fmt.Errorf("vote by %s on proposal %d: %w", voter, id, errNotFound))
}

func (h *Handler) getBalance(w http.ResponseWriter, r *http.Request) {
	address := chi.URLParam(r, "address")
	balance, err := h.ledger.GetBalance(address)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"address": address, "balance": balance})
}

func (h *Handler) listRoles(w http.ResponseWriter, r *http.Request) {
	address := chi.URLParam(r, "address")
	roles, err := h.ledger.ListRoles(address)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"address": address, "roles": nonNil(roles)})
}

// GET /accounts/{address}/voting-power[?property=ID]
func (h *Handler) getVotingPower(w http.ResponseWriter, r *http.Request) {
	address := chi.URLParam(r, "address")
	scope := model.None[uint64]()
	if raw := r.URL.Query().Get("property"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			h.writeError(w, &paramError{name: "property", value: raw})
			return
		}
		scope = model.Some(id)
	}
	power, err := h.ledger.GetVotingPower(address, scope)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"address": address, "property_id": scope, "voting_power": power})
}

// nonNil turns a nil slice into an empty one so it encodes as [].
func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
