package robokassa

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"net/url"
	"strings"
)

const merchantURL = "https://auth.robokassa.ru/Merchant/Index.aspx"

// Client builds Robokassa payment links and verifies result callbacks.
// Password1 signs outbound links, Password2 signs the merchant callback.
type Client struct {
	login     string
	password1 string
	password2 string
	isTest    bool
}

// NewClient creates a Robokassa client
func NewClient(login, password1, password2 string, isTest bool) *Client {
	return &Client{
		login:     login,
		password1: password1,
		password2: password2,
		isTest:    isTest,
	}
}

// FormatAmount renders an amount the way Robokassa signs it
func FormatAmount(amount float64) string {
	return fmt.Sprintf("%.2f", amount)
}

// PaymentURL builds a signed checkout link for one invoice
func (c *Client) PaymentURL(invID string, amount float64, description string) string {
	outSum := FormatAmount(amount)
	signature := md5Hex(fmt.Sprintf("%s:%s:%s:%s", c.login, outSum, invID, c.password1))

	params := url.Values{}
	params.Set("MerchantLogin", c.login)
	params.Set("OutSum", outSum)
	params.Set("InvId", invID)
	params.Set("Description", description)
	params.Set("SignatureValue", signature)
	if c.isTest {
		params.Set("IsTest", "1")
	}
	return merchantURL + "?" + params.Encode()
}

// VerifyResult checks the signature of a /robokassa/result callback.
// Robokassa sends the digest in upper case; comparison is case-insensitive.
func (c *Client) VerifyResult(outSum, invID, signature string) bool {
	expected := md5Hex(fmt.Sprintf("%s:%s:%s", outSum, invID, c.password2))
	return strings.EqualFold(expected, signature)
}

func md5Hex(s string) string {
	sum := md5.Sum([]byte(s))
	return hex.EncodeToString(sum[:])
}
