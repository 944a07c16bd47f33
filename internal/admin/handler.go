// Package admin serves the owner-only views under /admin.
package admin

import (
	"github.com/sudo-init-do/gigledger/internal/logger"
	"github.com/sudo-init-do/gigledger/internal/marketplace"
)

type Handler struct {
	ledger *marketplace.Service
	log    *logger.Logger
}

func NewHandler(ledger *marketplace.Service, baseLog *logger.Logger) *Handler {
	return &Handler{ledger: ledger, log: baseLog.With("handler", "admin")}
}
