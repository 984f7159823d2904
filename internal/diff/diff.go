// Package diff renders line-oriented diffs between extracted values.
package diff

import "strings"

// Lines returns a +/- prefixed line diff between two values, computed over
// a longest-common-subsequence alignment.
func Lines(old, new string) string {
	a := split(old)
	b := split(new)

	// table[i][j] holds the LCS length of a[i:] and b[j:].
	table := make([][]int, len(a)+1)
	for i := range table {
		table[i] = make([]int, len(b)+1)
	}
	for i := len(a) - 1; i >= 0; i-- {
		for j := len(b) - 1; j >= 0; j-- {
			if a[i] == b[j] {
				table[i][j] = table[i+1][j+1] + 1
			} else if table[i+1][j] >= table[i][j+1] {
				table[i][j] = table[i+1][j]
			} else {
				table[i][j] = table[i][j+1]
			}
		}
	}

	var sb strings.Builder
	i, j := 0, 0
	for i < len(a) || j < len(b) {
		switch {
		case i < len(a) && j < len(b) && a[i] == b[j]:
			sb.WriteByte(' ')
			sb.WriteString(a[i])
			i++
			j++
		case i < len(a) && (j == len(b) || table[i+1][j] >= table[i][j+1]):
			sb.WriteByte('-')
			sb.WriteString(a[i])
			i++
		default:
			sb.WriteByte('+')
			sb.WriteString(b[j])
			j++
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}

func split(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, "\n")
}
