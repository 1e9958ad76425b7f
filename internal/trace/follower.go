package trace

import (
	"bufio"
	"io"
	"os"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Follower tails a trace file that an external producer appends to,
// delivering newly-written lines instead of requiring the whole trace to
// exist upfront. It is the --follow counterpart to a one-shot ReadAll:
// the simulation driver still consumes events strictly in order, one at a
// time, the follower only decides when more bytes are available.
type Follower struct {
	path string
	w    *fsnotify.Watcher
	f    *os.File
	r    *bufio.Reader

	partial strings.Builder // undelimited bytes carried across reads

	evC  chan Event
	erC  chan error
	done chan struct{}
}

// NewFollower opens path and begins watching it for appended writes.
func NewFollower(path string) (*Follower, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		f.Close()
		return nil, err
	}
	if err := w.Add(path); err != nil {
		w.Close()
		f.Close()
		return nil, err
	}

	fl := &Follower{
		path: path,
		w:    w,
		f:    f,
		r:    bufio.NewReader(f),
		evC:  make(chan Event, 128),
		erC:  make(chan error, 1),
		done: make(chan struct{}),
	}
	go fl.loop()
	return fl, nil
}

// Events returns the channel of decoded, known events from the file: the
// lines already present when it was opened, then lines appended later.
// Malformed lines or unsupported schemas are
// sent to Errors instead and stop the follower.
func (fl *Follower) Events() <-chan Event { return fl.evC }

// Errors returns the channel of fatal follower errors.
func (fl *Follower) Errors() <-chan error { return fl.erC }

func (fl *Follower) loop() {
	defer close(fl.evC)
	lineNo := 0
	drain := func() bool {
		for {
			line, err := fl.r.ReadString('\n')
			if err != nil {
				if err != io.EOF {
					fl.erC <- err
					return false
				}
				if line != "" {
					// Partial line at EOF: carry the undelimited bytes
					// forward instead of discarding them, so a line
					// split across two producer flushes is reassembled
					// on the next drain instead of silently losing its
					// prefix.
					fl.partial.WriteString(line)
				}
				return true
			}
			if fl.partial.Len() > 0 {
				line = fl.partial.String() + line
				fl.partial.Reset()
			}
			lineNo++
			trimmed := strings.TrimSpace(line)
			if trimmed == "" {
				continue
			}
			ev, known, derr := Decode(lineNo, []byte(trimmed))
			if derr != nil {
				fl.erC <- derr
				return false
			}
			if known {
				fl.evC <- ev
			}
		}
	}

	if !drain() {
		return
	}
	for {
		select {
		case ev, ok := <-fl.w.Events:
			if !ok {
				return
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create) != 0 {
				if !drain() {
					return
				}
			}
		case err, ok := <-fl.w.Errors:
			if !ok {
				return
			}
			fl.erC <- err
			return
		case <-fl.done:
			return
		case <-time.After(time.Second):
			// Periodic wakeup covers producers whose writes don't
			// generate a distinguishable fsnotify event on some
			// filesystems (e.g. network mounts).
			if !drain() {
				return
			}
		}
	}
}

// Close stops watching and releases the underlying file handle.
func (fl *Follower) Close() error {
	close(fl.done)
	werr := fl.w.Close()
	ferr := fl.f.Close()
	if werr != nil {
		return werr
	}
	return ferr
}
