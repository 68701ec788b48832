package domain

import "fmt"

// Account is the opaque, externally-authenticated identity of a caller or
// owner. The hosting environment (JWT middleware in this service) is the only
// source of caller accounts; handlers never accept a caller as input.
type Account string

// ZeroAccount marks "no account". Mint and burn notifications use it as the
// counterparty, and an empty approval slot reads as ZeroAccount.
const ZeroAccount Account = ""

// ParseAccount validates an externally supplied account string.
func ParseAccount(s string) (Account, error) {
	if s == "" {
		return ZeroAccount, fmt.Errorf("account must not be empty")
	}
	return Account(s), nil
}

func (a Account) String() string {
	return string(a)
}

// IsZero reports whether the account is the zero sentinel.
func (a Account) IsZero() bool {
	return a == ZeroAccount
}
