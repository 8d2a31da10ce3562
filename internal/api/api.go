// Package api serves read-only ledger queries over HTTP.
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"realvora-go/internal/ledger"
	"realvora-go/internal/model"
)

// Ledger is the query side of the ledger service.
type Ledger interface {
	GetProperty(id uint64) (*model.Property, error)
	ListProperties() ([]*model.Property, error)
	ListHolders(propertyID uint64) ([]*model.ShareHolding, error)
	GetUserShares(holder string, propertyID uint64) (uint64, error)
	GetDistribution(propertyID, distributionID uint64) (*model.Distribution, error)
	GetClaim(propertyID, distributionID uint64, holder string) (*model.Claim, error)
	GetOrderBook(propertyID uint64) (*ledger.OrderBook, error)
	ListTrades(propertyID uint64) ([]*model.Trade, error)
	GetOrder(id uint64) (*model.Order, error)
	GetTrade(id uint64) (*model.Trade, error)
	GetProposal(id uint64) (*model.Proposal, error)
	GetVote(proposalID uint64, voter string) (*model.Vote, error)
	GetVotingPower(address string, propertyID model.Option[uint64]) (uint64, error)
	GetBalance(address string) (uint64, error)
	ListRoles(address string) ([]model.Role, error)
	TradingFeeBps() (uint64, error)
	GetHistory(limit int) ([]*model.Operation, error)
}

// errNotFound answers lookups with no ledger sentinel of their own.
var errNotFound = errors.New("not found")

const defaultHistoryLimit = 20

// Handler serves the query routes.
type Handler struct {
	ledger Ledger
	blocks ledger.BlockSource
	logger *slog.Logger
}

// NewRouter returns the query API mounted on a chi router.
func NewRouter(l Ledger, blocks ledger.BlockSource, logger *slog.Logger) http.Handler {
	h := &Handler{ledger: l, blocks: blocks, logger: logger}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(h.logRequests)

	r.Get("/height", h.getHeight)
	r.Get("/params/trading-fee", h.getTradingFee)
	r.Get("/history", h.getHistory)

	r.Route("/properties", func(r chi.Router) {
		r.Get("/", h.listProperties)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.getProperty)
			r.Get("/holders", h.listHolders)
			r.Get("/shares/{holder}", h.getShares)
			r.Get("/orderbook", h.getOrderBook)
			r.Get("/trades", h.listTrades)
			r.Get("/distributions/{dist}", h.getDistribution)
			r.Get("/distributions/{dist}/claims/{holder}", h.getClaim)
		})
	})

	r.Get("/orders/{id}", h.getOrder)
	r.Get("/trades/{id}", h.getTrade)
	r.Get("/proposals/{id}", h.getProposal)
	r.Get("/proposals/{id}/votes/{voter}", h.getVote)

	r.Route("/accounts/{address}", func(r chi.Router) {
		r.Get("/balance", h.getBalance)
		r.Get("/roles", h.listRoles)
		r.Get("/voting-power", h.getVotingPower)
	})
	return r
}

func (h *Handler) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		h.logger.Debug("http request", "method", r.Method, "path", r.URL.Path,
			"status", ww.Status(), "request_id", middleware.GetReqID(r.Context()))
	})
}

// errorBody is the JSON shape of every error response.
type errorBody struct {
	Error string      `json:"error"`
	Kind  ledger.Kind `json:"kind,omitempty"`
	Code  uint32      `json:"code,omitempty"`
}

// statusFor maps a ledger error kind to an HTTP status.
func statusFor(kind ledger.Kind) int {
	switch kind {
	case ledger.KindNotFound:
		return http.StatusNotFound
	case ledger.KindUnauthorized:
		return http.StatusForbidden
	case ledger.KindInvalidState, ledger.KindExpired, ledger.KindDuplicateOperation:
		return http.StatusConflict
	default:
		return http.StatusBadRequest
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	if le, ok := ledger.AsError(err); ok {
		writeJSON(w, statusFor(le.Kind), errorBody{Error: err.Error(), Kind: le.Kind, Code: le.Code})
		return
	}
	if errors.Is(err, errNotFound) {
		writeJSON(w, http.StatusNotFound, errorBody{Error: err.Error(), Kind: ledger.KindNotFound})
		return
	}
	var pe *paramError
	if errors.As(err, &pe) {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: err.Error()})
		return
	}
	h.logger.Error("query failed", "error", err)
	writeJSON(w, http.StatusInternalServerError, errorBody{Error: "internal error"})
}

// respond writes v, or a not-found error when v is a nil pointer.
func respond[T any](h *Handler, w http.ResponseWriter, v *T, err error, missing error) {
	if err != nil {
		h.writeError(w, err)
		return
	}
	if v == nil {
		h.writeError(w, missing)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

type paramError struct {
	name, value string
}

func (e *paramError) Error() string {
	return fmt.Sprintf("invalid %s %q", e.name, e.value)
}

func uintParam(r *http.Request, name string) (uint64, error) {
	raw := chi.URLParam(r, name)
	v, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, &paramError{name: name, value: raw}
	}
	return v, nil
}
