package model

// Identity describes one automated account. It is fixed for the lifetime of the account loop.
type Identity struct {
	Name      string // unique per account, used as log prefix
	UserAgent string
	Proxy     string // empty means direct connection
}
