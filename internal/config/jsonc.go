package config

// StripJSONComments removes // and /* */ comments from JSONC content.
// Comment markers inside string literals are left alone.
func StripJSONComments(data []byte) []byte {
	out := make([]byte, 0, len(data))

	const (
		code = iota
		str
		lineComment
		blockComment
	)
	state := code

	for i := 0; i < len(data); i++ {
		c := data[i]
		switch state {
		case code:
			switch {
			case c == '"':
				state = str
				out = append(out, c)
			case c == '/' && i+1 < len(data) && data[i+1] == '/':
				state = lineComment
				i++
			case c == '/' && i+1 < len(data) && data[i+1] == '*':
				state = blockComment
				i++
			default:
				out = append(out, c)
			}
		case str:
			if c == '\\' && i+1 < len(data) {
				out = append(out, c, data[i+1])
				i++
				continue
			}
			if c == '"' {
				state = code
			}
			out = append(out, c)
		case lineComment:
			if c == '\n' {
				state = code
				out = append(out, c)
			}
		case blockComment:
			if c == '*' && i+1 < len(data) && data[i+1] == '/' {
				state = code
				i++
			}
		}
	}

	return out
}
