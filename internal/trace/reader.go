package trace

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

// wireEvent mirrors the JSON-lines schema before conversion to Event.
type wireEvent struct {
	Event  string   `json:"event"`
	ID     string   `json:"id"`
	Size   *int     `json:"size"`
	Mu     *float64 `json:"mu"`
	Sigma  *float64 `json:"sigma"`
	Schema string   `json:"schema"`
}

// ParseError reports a malformed trace line with its 1-based line number,
// satisfying the fail-fast-with-line-number requirement for trace parse
// errors.
type ParseError struct {
	Line int
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("trace line %d: %v", e.Line, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Decode parses a single non-empty trace line into an Event. Unknown event
// kinds yield a zero Event with known=false and a nil error, so the caller
// can treat them as a no-op without aborting.
func Decode(lineNo int, raw []byte) (ev Event, known bool, err error) {
	var w wireEvent
	if jerr := json.Unmarshal(raw, &w); jerr != nil {
		return Event{}, false, &ParseError{Line: lineNo, Err: jerr}
	}
	if serr := checkSchema(lineNo, w.Schema); serr != nil {
		return Event{}, false, serr
	}

	ev = Event{Line: lineNo, ID: w.ID, Mu: w.Mu, Sigma: w.Sigma, Schema: w.Schema}

	switch Kind(w.Event) {
	case KindAlloc:
		if w.ID == "" {
			return Event{}, false, &ParseError{Line: lineNo, Err: fmt.Errorf("alloc event missing id")}
		}
		if w.Size == nil || *w.Size < 1 {
			return Event{}, false, &ParseError{Line: lineNo, Err: fmt.Errorf("alloc event requires size >= 1")}
		}
		ev.Kind = KindAlloc
		ev.Size = *w.Size
		return ev, true, nil
	case KindFree:
		if w.ID == "" {
			return Event{}, false, &ParseError{Line: lineNo, Err: fmt.Errorf("free event missing id")}
		}
		ev.Kind = KindFree
		return ev, true, nil
	case KindTouch:
		if w.ID == "" {
			return Event{}, false, &ParseError{Line: lineNo, Err: fmt.Errorf("touch event missing id")}
		}
		ev.Kind = KindTouch
		return ev, true, nil
	case KindSafeWindow:
		ev.Kind = KindSafeWindow
		return ev, true, nil
	default:
		// Unknown event types are no-ops, not errors.
		return Event{}, false, nil
	}
}

// ReadAll reads every non-empty line from r and invokes fn for each
// successfully decoded, known event, in line order. A malformed line or an
// unsupported schema aborts iteration immediately with a *ParseError.
func ReadAll(r io.Reader, fn func(Event) error) error {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		ev, known, err := Decode(lineNo, []byte(line))
		if err != nil {
			return err
		}
		if !known {
			continue
		}
		if err := fn(ev); err != nil {
			return err
		}
	}
	return sc.Err()
}
