package console

// matcher tracks how much of pattern is currently a suffix of the bytes fed
// so far. fail[i] is the length of the longest proper prefix of pattern[:i+1]
// that is also a suffix of it.
type matcher struct {
	pattern []byte
	fail    []int
	state   int
}

func newMatcher(pattern []byte) *matcher {
	fail := make([]int, len(pattern))
	k := 0
	for i := 1; i < len(pattern); i++ {
		for k > 0 && pattern[i] != pattern[k] {
			k = fail[k-1]
		}
		if pattern[i] == pattern[k] {
			k++
		}
		fail[i] = k
	}
	return &matcher{pattern: pattern, fail: fail}
}

// feed advances the matcher by one byte and reports whether the input now
// ends with the full pattern.
func (m *matcher) feed(b byte) bool {
	if len(m.pattern) == 0 {
		return true
	}
	for m.state > 0 && m.pattern[m.state] != b {
		m.state = m.fail[m.state-1]
	}
	if m.pattern[m.state] == b {
		m.state++
	}
	if m.state == len(m.pattern) {
		m.state = m.fail[m.state-1]
		return true
	}
	return false
}
