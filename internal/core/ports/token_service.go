package ports

// TokenService issues and verifies bearer tokens carrying a user id.
type TokenService interface {
	IssueToken(userID string) (string, error)
	VerifyToken(token string) (string, error)
}
