package parsers

import "strings"

// ZeekRecord is one row of a Zeek TSV log, keyed by its declared field
// names. Columns holding Zeek's empty markers ("-" or "(empty)") are
// omitted from the map entirely rather than stored as empty strings, so a
// column holding an empty marker looks the same as a field that is absent.
type ZeekRecord = map[string]string

// ParseZeekLog parses a Zeek ASCII TSV log. Data lines are only accepted
// once a "#fields" header line has been seen; any line before that point,
// and any other "#"-prefixed line, is treated as a comment/directive and
// skipped.
func ParseZeekLog(data string) []ZeekRecord {
	var fields []string
	var out []ZeekRecord

	for _, line := range strings.Split(data, "\n") {
		line = strings.TrimRight(line, "\r")
		if line == "" {
			continue
		}

		if strings.HasPrefix(line, "#") {
			if strings.HasPrefix(line, "#fields") {
				parts := strings.Split(line, "\t")
				if len(parts) > 1 {
					fields = parts[1:]
				}
			}
			continue
		}

		if fields == nil {
			continue
		}

		values := strings.Split(line, "\t")
		rec := ZeekRecord{}
		for i, name := range fields {
			if i >= len(values) {
				break
			}
			v := values[i]
			if v == "-" || v == "(empty)" {
				continue
			}
			rec[name] = v
		}
		out = append(out, rec)
	}

	return out
}
