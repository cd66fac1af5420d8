package users

// Repository persists the credential table. Save rewrites the whole table,
// so registration cost is O(total users); acceptable for the expected scale.
type Repository interface {
	Load() (map[string]string, error)
	Save(table map[string]string) error
}
