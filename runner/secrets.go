package runner

import (
	"sort"
	"strings"

	"github.com/joho/godotenv"
	"github.com/samber/oops"
)

// ParseSecrets reads KEY=value lines. Blank lines and # comments are
// skipped; quoting follows dotenv rules.
func ParseSecrets(blob string) (map[string]string, error) {
	if strings.TrimSpace(blob) == "" {
		return map[string]string{}, nil
	}
	secrets, err := godotenv.Unmarshal(blob)
	if err != nil {
		return nil, oops.
			In("ParseSecrets").
			Hint("secrets are KEY=value, one per line").
			Wrap(err)
	}
	return secrets, nil
}

// childEnv layers extra and then secrets over base. Later entries win, so
// secrets override anything inherited.
func childEnv(base []string, extra, secrets map[string]string) []string {
	env := append([]string{}, base...)
	for _, m := range []map[string]string{extra, secrets} {
		keys := make([]string, 0, len(m))
		for k := range m {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			env = append(env, k+"="+m[k])
		}
	}
	return env
}
