// SPDX-License-Identifier: MIT

package toolchain

import (
	"bytes"
	"strings"
	"sync"
)

// tail keeps the last lines of tool output for failure reports. Writes
// may split a line anywhere; fragments are reassembled before they
// count against the limit.
type tail struct {
	mu    sync.Mutex
	limit int
	lines []string
	part  []byte
}

func newTail(limit int) *tail {
	if limit < 1 {
		limit = 64
	}
	return &tail{limit: limit}
}

// Write implements io.Writer for subprocess stdout and stderr.
func (t *tail) Write(p []byte) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.part = append(t.part, p...)
	for {
		i := bytes.IndexByte(t.part, '\n')
		if i < 0 {
			break
		}
		t.push(string(t.part[:i]))
		t.part = t.part[i+1:]
	}
	return len(p), nil
}

func (t *tail) push(line string) {
	line = strings.TrimSuffix(line, "\r")
	if line == "" {
		return
	}
	t.lines = append(t.lines, line)
	if len(t.lines) > t.limit {
		t.lines = t.lines[len(t.lines)-t.limit:]
	}
}

// Last returns up to n lines in arrival order. An unterminated final
// line counts; tools often omit the trailing newline on their last
// diagnostic.
func (t *tail) Last(n int) []string {
	t.mu.Lock()
	defer t.mu.Unlock()

	all := t.lines
	if rem := strings.TrimSuffix(string(t.part), "\r"); rem != "" {
		all = append(append([]string(nil), t.lines...), rem)
	}
	if n < 0 {
		n = 0
	}
	if len(all) > n {
		all = all[len(all)-n:]
	}
	return append([]string(nil), all...)
}
