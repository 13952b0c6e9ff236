package client

import "log"

// LogNotifier writes notifications to the process log. It stands in where
// no desktop notification capability exists; permission requests always
// grant.
type LogNotifier struct {
	granted bool
}

func NewLogNotifier() *LogNotifier { return &LogNotifier{} }

func (n *LogNotifier) Permission() Permission {
	if n.granted {
		return PermissionGranted
	}
	return PermissionDefault
}

func (n *LogNotifier) RequestPermission() Permission {
	n.granted = true
	return PermissionGranted
}

func (n *LogNotifier) Notify(title, body string) {
	log.Printf("notification: %s: %s", title, body)
}

// UnsupportedNotifier reports the capability as absent.
type UnsupportedNotifier struct{}

func (UnsupportedNotifier) Permission() Permission        { return PermissionUnsupported }
func (UnsupportedNotifier) RequestPermission() Permission { return PermissionUnsupported }
func (UnsupportedNotifier) Notify(string, string)         {}
