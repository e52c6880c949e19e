package submission

import (
	"errors"
	"net/url"
	"strings"

	"github.com/ttacon/libphonenumber"
)

// ErrInvalidPhone is returned when a WhatsApp target cannot be parsed.
var ErrInvalidPhone = errors.New("invalid phone number")

// NormalizePhone returns the number in E.164 form, for example
// "+31612345678". Numbers without a leading plus are read as already
// carrying their country code, which is how wa.me expects them.
func NormalizePhone(number string) (string, error) {
	number = strings.TrimSpace(number)
	if number == "" {
		return "", ErrInvalidPhone
	}
	candidate := number
	if !strings.HasPrefix(candidate, "+") {
		candidate = "+" + strings.TrimLeft(candidate, "0")
	}
	num, err := libphonenumber.Parse(candidate, "")
	if err != nil {
		return "", ErrInvalidPhone
	}
	if !libphonenumber.IsValidNumber(num) {
		return "", ErrInvalidPhone
	}
	return libphonenumber.Format(num, libphonenumber.E164), nil
}

// WhatsAppURL builds the wa.me deep link that opens a chat with number
// prefilled with text. A number libphonenumber rejects is reduced to its
// digits so a slightly malformed target still produces a usable link.
func WhatsAppURL(number, text string) string {
	digits := ""
	if e164, err := NormalizePhone(number); err == nil {
		digits = strings.TrimPrefix(e164, "+")
	} else {
		digits = onlyDigits(number)
	}
	return "https://wa.me/" + digits + "?text=" + encodeURIComponent(text)
}

func onlyDigits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// uriUnreserved undoes the escapes QueryEscape applies to characters the
// browser's encodeURIComponent leaves alone.
var uriUnreserved = strings.NewReplacer(
	"+", "%20",
	"%21", "!",
	"%27", "'",
	"%28", "(",
	"%29", ")",
	"%2A", "*",
)

// encodeURIComponent escapes like the browser function of the same name,
// so the bold markers of the message stay readable in the link.
func encodeURIComponent(s string) string {
	return uriUnreserved.Replace(url.QueryEscape(s))
}
