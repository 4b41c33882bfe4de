package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/congo-pay/wallet_api/internal/wallet"
)

// RegisterWalletRoutes wires wallet-related endpoints.
func RegisterWalletRoutes(r fiber.Router, h *wallet.Handler) {
	r.Get("/wallets", h.List)
	r.Post("/wallets", h.Create)
	r.Get("/wallets/:walletId", h.Retrieve)
	r.Post("/wallets/:walletId/operation", h.Operation)
}
