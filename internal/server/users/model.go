package users

// User is a registered forum account. Secrets are stored and compared in
// plaintext; the credentials file is the compatibility contract and does
// not allow for hashing.
type User struct {
	Name   string
	Secret string
}
