package stream

// extractCandidate scans a line for the first complete top-level JSON object
// and returns it, or ok == false when the line carries none. The byte-level
// state machine tracks string and escape state so braces inside string values
// never confuse the depth count. Iterating bytes is safe for the ASCII
// delimiters involved because UTF-8 never embeds ASCII bytes inside a
// multi-byte sequence.
func extractCandidate(line string) (string, bool) {
	var (
		depth    int
		start    = -1
		inString bool
		escape   bool
	)
	for i := 0; i < len(line); i++ {
		b := line[i]

		if escape {
			escape = false
			continue
		}
		if inString {
			if b == '\\' {
				escape = true
			} else if b == '"' {
				inString = false
			}
			continue
		}

		switch b {
		case '"':
			inString = true
		case '{':
			if depth == 0 {
				start = i
			}
			depth++
		case '}':
			if depth > 0 {
				depth--
				if depth == 0 && start != -1 {
					return line[start : i+1], true
				}
			}
		}
	}
	return "", false
}
