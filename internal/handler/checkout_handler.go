package handler

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	checkout "storefront/internal/usecase/checkout_usecase"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
)

type CheckoutHandler struct {
	uc *checkout.PlaceOrderUsecase
}

func NewCheckoutHandler(uc *checkout.PlaceOrderUsecase) *CheckoutHandler {
	return &CheckoutHandler{uc: uc}
}

// JSONで送るときの形。productsは文字列でもオブジェクトでもよい
type checkoutJSONRequest struct {
	Products       []json.RawMessage    `json:"products"`
	Total          json.RawMessage      `json:"total"`
	Payment        *checkoutPaymentJSON `json:"payment"`
	IdempotencyKey string               `json:"idempotency_key"`
}

type checkoutPaymentJSON struct {
	Name       string `json:"name"`
	CardNumber string `json:"card_number"`
	ExpiryDate string `json:"expiry_date"`
	CVV        string `json:"cvv"`
}

type checkoutResponse struct {
	State    checkout.State      `json:"state"`
	Error    string              `json:"error,omitempty"`
	Code     checkout.ErrorKind  `json:"code,omitempty"`
	Login    string              `json:"login,omitempty"`
	Items    []checkout.CartItem `json:"items,omitempty"`
	Total    *decimal.Decimal    `json:"total,omitempty"`
	Snapshot []string            `json:"snapshot,omitempty"`
	OrderID  int64               `json:"order_id,omitempty"`
	Redirect string              `json:"redirect,omitempty"`
	Replayed bool                `json:"replayed,omitempty"`
}

// mwは任意認証（未ログインはcheckoutがNotAuthenticatedを返す）
func (h *CheckoutHandler) RegisterRoutes(e *echo.Echo, mw ...echo.MiddlewareFunc) {
	e.POST("/checkout", h.placeOrder, mw...)
}

func (h *CheckoutHandler) placeOrder(c echo.Context) error {
	req, err := bindCheckoutRequest(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}
	if v := strings.TrimSpace(c.Request().Header.Get("X-Idempotency-Key")); v != "" && req.IdempotencyKey == "" {
		req.IdempotencyKey = v
	}
	if len(req.IdempotencyKey) > 255 {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid idempotency_key"})
	}
	if userID, ok := getUserIDFromContext(c); ok {
		req.UserID = userID
	}

	res := h.uc.Execute(c.Request().Context(), req)
	return writeCheckoutResult(c, res)
}

func writeCheckoutResult(c echo.Context, res checkout.Result) error {
	switch res.State {
	case checkout.StateSucceeded:
		return c.JSON(http.StatusCreated, checkoutResponse{
			State:    res.State,
			OrderID:  res.OrderID,
			Redirect: "/orders/" + strconv.FormatInt(res.OrderID, 10),
			Replayed: res.Replayed,
		})
	case checkout.StateAwaitingPayment:
		total := res.Total
		return c.JSON(http.StatusOK, checkoutResponse{
			State:    res.State,
			Items:    res.Items,
			Total:    &total,
			Snapshot: checkout.EncodeSnapshot(res.Items),
		})
	}

	body := checkoutResponse{State: res.State}
	if res.Err != nil {
		body.Error = res.Err.Message()
		body.Code = res.Err.Kind
		if res.Err.Kind == checkout.KindNotAuthenticated {
			body.Login = "/login"
		}
	}
	return c.JSON(checkoutStatus(res), body)
}

func checkoutStatus(res checkout.Result) int {
	if res.State == checkout.StateAwaitingItems || res.Err == nil {
		return http.StatusBadRequest
	}
	switch res.Err.Kind {
	case checkout.KindNotAuthenticated:
		return http.StatusUnauthorized
	case checkout.KindMissingPaymentField, checkout.KindInvalidExpiryFormat, checkout.KindExpiredCard,
		checkout.KindInvalidCvv, checkout.KindInvalidCardNumber, checkout.KindInvalidTotal:
		return http.StatusUnprocessableEntity
	case checkout.KindProductNotFound:
		return http.StatusNotFound
	case checkout.KindInsufficientStock:
		return http.StatusConflict
	case checkout.KindEmptyCart:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func bindCheckoutRequest(c echo.Context) (checkout.Request, error) {
	ctype := c.Request().Header.Get(echo.HeaderContentType)
	if strings.HasPrefix(ctype, echo.MIMEApplicationJSON) {
		return bindCheckoutJSON(c)
	}
	return bindCheckoutForm(c)
}

func bindCheckoutJSON(c echo.Context) (checkout.Request, error) {
	var body checkoutJSONRequest
	if err := json.NewDecoder(c.Request().Body).Decode(&body); err != nil {
		return checkout.Request{}, err
	}

	req := checkout.Request{
		Records:        make([]string, 0, len(body.Products)),
		Total:          rawScalar(body.Total),
		IdempotencyKey: strings.TrimSpace(body.IdempotencyKey),
	}
	for _, raw := range body.Products {
		//文字列ならその中身、オブジェクトならそのまま1行として扱う
		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			req.Records = append(req.Records, s)
			continue
		}
		req.Records = append(req.Records, string(raw))
	}
	if body.Payment != nil {
		req.Payment = &checkout.PaymentFields{
			Name:       body.Payment.Name,
			CardNumber: body.Payment.CardNumber,
			Expiry:     body.Payment.ExpiryDate,
			CVV:        body.Payment.CVV,
		}
	}
	return req, nil
}

var paymentFormKeys = []string{"name", "card_number", "expiry_date", "cvv"}

func bindCheckoutForm(c echo.Context) (checkout.Request, error) {
	form, err := c.FormParams()
	if err != nil {
		return checkout.Request{}, err
	}

	records := form["products[]"]
	if len(records) == 0 {
		records = form["products"]
	}
	req := checkout.Request{
		Records:        records,
		Total:          strings.TrimSpace(form.Get("total")),
		IdempotencyKey: strings.TrimSpace(form.Get("idempotency_key")),
	}

	//支払いフォームの項目が1つでも送られていれば検証へ進む
	for _, k := range paymentFormKeys {
		if _, ok := form[k]; ok {
			req.Payment = &checkout.PaymentFields{
				Name:       form.Get("name"),
				CardNumber: form.Get("card_number"),
				Expiry:     form.Get("expiry_date"),
				CVV:        form.Get("cvv"),
			}
			break
		}
	}
	return req, nil
}

// "12.50" でも 12.50 でも文字列にする
func rawScalar(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s)
	}
	return strings.TrimSpace(string(raw))
}
