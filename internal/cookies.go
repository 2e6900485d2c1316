package internal

const (
	COOKIE_ACCESS_TOKEN_NAME = "vridhashram-access-token"
)
