package context

type Key string

const (
	Claims Key = "claims"
	APIKey Key = "api_key"
	UserID Key = "user_id"
	Params Key = "params"
)
