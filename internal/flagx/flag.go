// Package flagx contains helpers for parsing a subset of command-line flags
// without colliding with flags owned by other packages.
package flagx

import (
	"flag"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
)

// FilterArgs returns the arguments from args that belong to allowedFlags,
// keeping values that follow a flag as a separate token.
//
// Both "-f value" and "-f=value" forms are recognized. A token starting with
// "-" is never consumed as a value.
func FilterArgs(args []string, allowedFlags []string) []string {
	allowed := make(map[string]struct{}, len(allowedFlags))
	for _, f := range allowedFlags {
		allowed[f] = struct{}{}
	}

	filtered := make([]string, 0, len(args))

	for i := 0; i < len(args); i++ {
		arg := args[i]

		if strings.HasPrefix(arg, "-") && strings.Contains(arg, "=") {
			name := strings.SplitN(arg, "=", 2)[0]
			if _, ok := allowed[name]; ok {
				filtered = append(filtered, arg)
			}
			continue
		}

		if _, ok := allowed[arg]; ok {
			filtered = append(filtered, arg)
			if i+1 < len(args) && !strings.HasPrefix(args[i+1], "-") {
				filtered = append(filtered, args[i+1])
				i++
			}
		}
	}

	return filtered
}

// ConfigFileFlag returns the path passed with -c or -config, or "" when
// neither is present. Other arguments are ignored.
func ConfigFileFlag() string {
	var config string

	args := FilterArgs(os.Args[1:], []string{"-c", "-config"})

	fs := flag.NewFlagSet("config-file", flag.ContinueOnError)
	fs.StringVar(&config, "config", "", "Path to config file")
	fs.StringVar(&config, "c", "", "Path to config file (short)")
	_ = fs.Parse(args)

	return config
}

// Int64List is a flag.Value holding a comma-separated list of positive
// integers, sorted ascending with duplicates removed.
type Int64List []int64

func (l *Int64List) String() string {
	if l == nil {
		return ""
	}
	parts := make([]string, len(*l))
	for i, v := range *l {
		parts[i] = strconv.FormatInt(v, 10)
	}
	return strings.Join(parts, ",")
}

func (l *Int64List) Set(s string) error {
	values, err := ParseInt64List(s)
	if err != nil {
		return err
	}
	*l = values
	return nil
}

// ParseInt64List parses "10, 25,50" into a sorted, de-duplicated slice.
func ParseInt64List(s string) ([]int64, error) {
	seen := make(map[int64]struct{})
	var out []int64
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		v, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid integer %q: %w", part, err)
		}
		if v <= 0 {
			return nil, fmt.Errorf("value %d must be positive", v)
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out, nil
}
