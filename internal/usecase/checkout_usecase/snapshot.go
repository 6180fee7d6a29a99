package checkout

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// カートスナップショットの1行
type CartItem struct {
	ProductID int64           `json:"product_id"`
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Quantity  int64           `json:"quantity"`
	ImageRef  string          `json:"image"`
}

// エラー表示用の商品名
func (it CartItem) DisplayName() string {
	if strings.TrimSpace(it.Name) != "" {
		return it.Name
	}
	return "#" + strconv.FormatInt(it.ProductID, 10)
}

// 数値でも数字の文字列でも受ける
type lenientInt int64

func (n *lenientInt) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if unq, err := strconv.Unquote(s); err == nil {
		s = strings.TrimSpace(unq)
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return fmt.Errorf("not an integer: %s", b)
	}
	*n = lenientInt(v)
	return nil
}

// カート画面が出す形（product_id + quantity、古い行はqty）
type keyedRecord struct {
	ProductID *lenientInt      `json:"product_id"`
	Quantity  *lenientInt      `json:"quantity"`
	Qty       *lenientInt      `json:"qty"`
	Name      string           `json:"name"`
	Price     *decimal.Decimal `json:"price"`
	Image     string           `json:"image"`
}

// チェックアウト画面が出し直す形（id + quantity）
type legacyRecord struct {
	ID       *lenientInt      `json:"id"`
	Quantity *lenientInt      `json:"quantity"`
	Name     string           `json:"name"`
	Price    *decimal.Decimal `json:"price"`
	Image    string           `json:"image"`
}

// DecodeSnapshotは送られてきた行をCartItemにする。
// product_id形式、id形式の順に試し、読めない行は黙って捨てる（残りは続行）。
func DecodeSnapshot(records []string) []CartItem {
	items := make([]CartItem, 0, len(records))
	for _, rec := range records {
		it, ok := decodeRecord(rec)
		if !ok {
			continue
		}
		items = append(items, it)
	}
	return items
}

func decodeRecord(rec string) (CartItem, bool) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(rec), &fields); err != nil {
		return CartItem{}, false
	}

	var it CartItem
	var price *decimal.Decimal
	switch {
	case present(fields, "product_id"):
		var r keyedRecord
		if err := json.Unmarshal([]byte(rec), &r); err != nil || r.ProductID == nil {
			return CartItem{}, false
		}
		qty := r.Quantity
		if qty == nil {
			qty = r.Qty
		}
		if qty == nil {
			return CartItem{}, false
		}
		it = CartItem{ProductID: int64(*r.ProductID), Quantity: int64(*qty), Name: r.Name, ImageRef: r.Image}
		price = r.Price
	case present(fields, "id"):
		var r legacyRecord
		if err := json.Unmarshal([]byte(rec), &r); err != nil || r.ID == nil || r.Quantity == nil {
			return CartItem{}, false
		}
		it = CartItem{ProductID: int64(*r.ID), Quantity: int64(*r.Quantity), Name: r.Name, ImageRef: r.Image}
		price = r.Price
	default:
		return CartItem{}, false
	}

	if it.ProductID <= 0 || it.Quantity <= 0 {
		return CartItem{}, false
	}
	if price != nil {
		if price.IsNegative() {
			return CartItem{}, false
		}
		it.UnitPrice = *price
	}
	return it, true
}

// nullは無いのと同じ
func present(fields map[string]json.RawMessage, key string) bool {
	v, ok := fields[key]
	return ok && string(bytes.TrimSpace(v)) != "null"
}

// カート画面の形で書き出す
func EncodeKeyed(items []CartItem) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		b, _ := json.Marshal(map[string]interface{}{
			"product_id": it.ProductID,
			"name":       it.Name,
			"price":      it.UnitPrice.StringFixed(2),
			"quantity":   it.Quantity,
			"image":      it.ImageRef,
		})
		out = append(out, string(b))
	}
	return out
}

// 支払い入力画面で次の送信に使う形（id形式）
func EncodeSnapshot(items []CartItem) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		b, _ := json.Marshal(map[string]interface{}{
			"id":       it.ProductID,
			"name":     it.Name,
			"price":    it.UnitPrice.StringFixed(2),
			"quantity": it.Quantity,
			"image":    it.ImageRef,
		})
		out = append(out, string(b))
	}
	return out
}

// 単価×数量の合計
func Subtotal(items []CartItem) decimal.Decimal {
	sum := decimal.Zero
	for _, it := range items {
		sum = sum.Add(it.UnitPrice.Mul(decimal.NewFromInt(it.Quantity)))
	}
	return sum
}
