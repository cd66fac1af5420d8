package users

import (
	"bufio"
	"fmt"
	"os"
	"sort"
	"strings"
)

// FileRepository stores the credential table as one "<user> <secret>" line
// per user. A missing file is treated as an empty table; it is created on
// the first save.
type FileRepository struct {
	path string
}

func NewFileRepository(path string) *FileRepository {
	return &FileRepository{path: path}
}

func (r *FileRepository) Load() (map[string]string, error) {
	table := make(map[string]string)

	f, err := os.Open(r.path)
	if err != nil {
		if os.IsNotExist(err) {
			return table, nil
		}
		return nil, fmt.Errorf("open credentials file: %w", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		name, secret, ok := strings.Cut(line, " ")
		if !ok {
			continue
		}
		table[name] = secret
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read credentials file: %w", err)
	}

	return table, nil
}

func (r *FileRepository) Save(table map[string]string) error {
	names := make([]string, 0, len(table))
	for name := range table {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	for _, name := range names {
		fmt.Fprintf(&b, "%s %s\n", name, table[name])
	}

	if err := os.WriteFile(r.path, []byte(b.String()), 0o600); err != nil {
		return fmt.Errorf("write credentials file: %w", err)
	}
	return nil
}
