package calls

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// syncFileName is the fixed channel name for the same-device broadcast. Every
// process on the machine that shares the sync directory sees the same file.
const syncFileName = "clinica-call-sync.json"

// LocalChannel is the same-device fallback path: calls are mirrored into a
// well-known file and other local listeners pick them up through filesystem
// notifications, beating the network round trip on single-machine setups.
// It is a best-effort accelerant that runs in parallel with the push
// transport, never a substitute for it; the monitor's dedup stage absorbs
// the duplicate delivery.
type LocalChannel struct {
	path   string
	logger zerolog.Logger
}

// NewLocalChannel creates a channel rooted at dir (os.TempDir when empty).
func NewLocalChannel(dir string, logger zerolog.Logger) *LocalChannel {
	if dir == "" {
		dir = os.TempDir()
	}
	return &LocalChannel{path: filepath.Join(dir, syncFileName), logger: logger}
}

// Path returns the broadcast file location.
func (l *LocalChannel) Path() string {
	return l.path
}

// Publish writes the event to the broadcast file, waking every subscriber on
// this device.
func (l *LocalChannel) Publish(event CallEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return os.WriteFile(l.path, data, 0o644)
}

// Subscribe watches the broadcast file and invokes onCall for each published
// event. Malformed payloads are logged and dropped without tearing down the
// subscription. The returned function cancels the watch.
func (l *LocalChannel) Subscribe(onCall func(CallEvent)) (func(), error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := watcher.Add(filepath.Dir(l.path)); err != nil {
		watcher.Close()
		return nil, err
	}

	go func() {
		for {
			select {
			case ev, ok := <-watcher.Events:
				if !ok {
					return
				}
				if ev.Name != l.path || !ev.Op.Has(fsnotify.Write) && !ev.Op.Has(fsnotify.Create) {
					continue
				}
				data, err := os.ReadFile(l.path)
				if err != nil {
					l.logger.Warn().Err(err).Msg("local channel read failed")
					continue
				}
				var event CallEvent
				if err := json.Unmarshal(data, &event); err != nil {
					l.logger.Warn().Err(err).Msg("local channel payload malformed, dropping")
					continue
				}
				onCall(event)
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				l.logger.Warn().Err(err).Msg("local channel watch error")
			}
		}
	}()

	return func() { watcher.Close() }, nil
}
