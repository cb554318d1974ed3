// Package i18n holds the storefront's user-facing messages in Vietnamese and English.
package i18n

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
)

const (
	MsgGenericError   = "messages.error"
	MsgOrderFailed    = "checkout.order_failed"
	MsgOrderSuccess   = "checkout.order_success"
	MsgSessionExpired = "session.expired"
	MsgEmptyCart      = "checkout.empty_cart"
	MsgAddedToCart    = "messages.add_to_cart_success"
	MsgAddToCartError = "messages.add_to_cart_error"
	MsgOutOfStock     = "products.out_of_stock"
	MsgNoProducts     = "products.no_products"
	MsgFree           = "checkout.free"
)

// Supported lists the translated languages; the first is the fallback.
var Supported = []language.Tag{language.Vietnamese, language.English}

var translations = map[language.Tag]map[string]string{
	language.Vietnamese: {
		MsgGenericError:   "Đã có lỗi xảy ra, vui lòng thử lại sau.",
		MsgOrderFailed:    "Đặt hàng thất bại, vui lòng thử lại!",
		MsgOrderSuccess:   "Đặt hàng thành công!",
		MsgSessionExpired: "Phiên đăng nhập đã hết hạn, vui lòng đăng nhập lại!",
		MsgEmptyCart:      "Giỏ hàng của bạn đang trống.",
		MsgAddedToCart:    "Đã thêm %s vào giỏ hàng!",
		MsgAddToCartError: "Không thể thêm sản phẩm vào giỏ hàng.",
		MsgOutOfStock:     "Hết hàng",
		MsgNoProducts:     "Không tìm thấy sản phẩm nào.",
		MsgFree:           "Miễn phí",

		"shipping.standard": "Giao hàng tiêu chuẩn (2-3 ngày)",
		"shipping.express":  "Giao hàng nhanh (trong ngày)",
		"shipping.pickup":   "Nhận tại cửa hàng",
		"payment.cod":       "Thanh toán khi nhận hàng (COD)",
		"payment.bank":      "Chuyển khoản ngân hàng",
		"payment.momo":      "Ví điện tử Momo",
		"payment.card":      "Thẻ tín dụng/Ghi nợ",
	},
	language.English: {
		MsgGenericError:   "Something went wrong, please try again later.",
		MsgOrderFailed:    "Placing the order failed, please try again!",
		MsgOrderSuccess:   "Order placed successfully!",
		MsgSessionExpired: "Your session has expired, please log in again!",
		MsgEmptyCart:      "Your cart is empty.",
		MsgAddedToCart:    "Added %s to your cart!",
		MsgAddToCartError: "Could not add the product to your cart.",
		MsgOutOfStock:     "Out of stock",
		MsgNoProducts:     "No products found.",
		MsgFree:           "Free",

		"shipping.standard": "Standard delivery (2-3 days)",
		"shipping.express":  "Express delivery (same day)",
		"shipping.pickup":   "Store pickup",
		"payment.cod":       "Cash on delivery (COD)",
		"payment.bank":      "Bank transfer",
		"payment.momo":      "MoMo e-wallet",
		"payment.card":      "Credit/Debit card",
	},
}

type Messages struct {
	cat     *catalog.Builder
	matcher language.Matcher
	keys    map[string]bool
}

func New() *Messages {
	cat := catalog.NewBuilder(catalog.Fallback(Supported[0]))
	keys := make(map[string]bool)
	for tag, msgs := range translations {
		for key, text := range msgs {
			// SetString only fails on malformed tags
			_ = cat.SetString(tag, key, text)
			keys[key] = true
		}
	}
	return &Messages{
		cat:     cat,
		matcher: language.NewMatcher(Supported),
		keys:    keys,
	}
}

// Match picks the supported language for an Accept-Language header value.
func (m *Messages) Match(acceptLanguage string) language.Tag {
	tags, _, err := language.ParseAcceptLanguage(acceptLanguage)
	if err != nil || len(tags) == 0 {
		return Supported[0]
	}
	_, idx, _ := m.matcher.Match(tags...)
	return Supported[idx]
}

func (m *Messages) Printer(tag language.Tag) *message.Printer {
	return message.NewPrinter(tag, message.Catalog(m.cat))
}

// Text renders the message key in tag's language.
func (m *Messages) Text(tag language.Tag, key string, args ...interface{}) string {
	return m.Printer(tag).Sprintf(key, args...)
}

// ShippingLabel returns the translated label of a shipping method, or "" when
// the method has no translation.
func (m *Messages) ShippingLabel(tag language.Tag, id string) string {
	return m.label(tag, "shipping."+id)
}

func (m *Messages) PaymentLabel(tag language.Tag, id string) string {
	return m.label(tag, "payment."+id)
}

func (m *Messages) label(tag language.Tag, key string) string {
	if !m.keys[key] {
		return ""
	}
	return m.Text(tag, key)
}
