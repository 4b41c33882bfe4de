package wallet

import (
	"bytes"
	"errors"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/congo-pay/wallet_api/internal/money"
)

const (
	fieldBalance    = "balance"
	msgRequired     = "this field is required"
	msgInvalidValue = "this field is invalid"
)

// Handler exposes wallet HTTP endpoints.
type Handler struct {
	service  *Service
	validate *validator.Validate
}

// NewHandler builds a wallet HTTP handler.
func NewHandler(service *Service) *Handler {
	v := validator.New()
	v.RegisterTagNameFunc(jsonFieldName)
	return &Handler{service: service, validate: v}
}

// jsonAmount accepts an amount written either as a JSON string or as a bare
// number. Numbers keep their literal text so no precision is lost to float64.
type jsonAmount string

func (a *jsonAmount) UnmarshalJSON(data []byte) error {
	text, err := money.JSONText(data)
	if err != nil {
		return err
	}
	*a = jsonAmount(text)
	return nil
}

type createRequest struct {
	Balance jsonAmount `json:"balance"`
}

type operationRequest struct {
	OperationType string     `json:"operation_type" validate:"required"`
	Amount        jsonAmount `json:"amount" validate:"required"`
}

// List returns every wallet with a link to its detail view.
func (h *Handler) List(c *fiber.Ctx) error {
	wallets, err := h.service.ListWallets(c.UserContext())
	if err != nil {
		return err
	}
	return c.Status(http.StatusOK).JSON(PresentList(c.BaseURL(), wallets))
}

// Create provisions a wallet. The body is optional; the opening balance defaults to zero.
func (h *Handler) Create(c *fiber.Ctx) error {
	var req createRequest
	if len(bytes.TrimSpace(c.Body())) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return malformedBody(c, err)
		}
	}

	initial := money.Zero
	if req.Balance != "" {
		parsed, err := money.Parse(string(req.Balance))
		if err != nil {
			return h.respondError(c, &FieldError{Field: fieldBalance, Err: err})
		}
		initial = parsed
	}

	snap, err := h.service.CreateWallet(c.UserContext(), initial)
	if err != nil {
		return h.respondError(c, err)
	}
	return c.Status(http.StatusCreated).JSON(Present(ViewCreate, c.BaseURL(), snap))
}

// Retrieve returns the wallet balance.
func (h *Handler) Retrieve(c *fiber.Ctx) error {
	snap, err := h.service.GetWallet(c.UserContext(), c.Params("walletId"))
	if err != nil {
		return h.respondError(c, err)
	}
	return c.Status(http.StatusOK).JSON(Present(ViewRetrieve, c.BaseURL(), snap))
}

// Operation applies a DEPOSIT or WITHDRAW and returns the resulting balance.
func (h *Handler) Operation(c *fiber.Ctx) error {
	var req operationRequest
	if err := c.BodyParser(&req); err != nil {
		return malformedBody(c, err)
	}
	if err := h.validate.Struct(req); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			return c.Status(http.StatusBadRequest).JSON(validationBody(verrs))
		}
		return err
	}

	snap, err := h.service.Apply(c.UserContext(), c.Params("walletId"), OperationRequest{
		OperationType: req.OperationType,
		Amount:        string(req.Amount),
	})
	if err != nil {
		return h.respondError(c, err)
	}
	return c.Status(http.StatusOK).JSON(Present(ViewOperation, c.BaseURL(), snap))
}

func (h *Handler) respondError(c *fiber.Ctx, err error) error {
	var fe *FieldError
	switch {
	case errors.As(err, &fe):
		return c.Status(http.StatusBadRequest).JSON(map[string][]string{fe.Field: {fe.Err.Error()}})
	case errors.Is(err, ErrWalletNotFound):
		return c.Status(http.StatusNotFound).JSON(fiber.Map{"detail": ErrWalletNotFound.Error()})
	case errors.Is(err, ErrInvalidBalance):
		return c.Status(http.StatusBadRequest).JSON(map[string][]string{fieldBalance: {err.Error()}})
	default:
		return err
	}
}

func malformedBody(c *fiber.Ctx, err error) error {
	return c.Status(http.StatusBadRequest).JSON(fiber.Map{"detail": "malformed request body: " + err.Error()})
}

func validationBody(verrs validator.ValidationErrors) map[string][]string {
	out := make(map[string][]string, len(verrs))
	for _, fe := range verrs {
		msg := msgInvalidValue
		if fe.Tag() == "required" {
			msg = msgRequired
		}
		out[fe.Field()] = append(out[fe.Field()], msg)
	}
	return out
}

func jsonFieldName(fld reflect.StructField) string {
	name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
	if name == "-" || name == "" {
		return fld.Name
	}
	return name
}
