// Package protocol defines the command and result types exchanged between
// the browser daemon and its clients, and the decoding rules applied at the
// channel boundary.
package protocol

import "fmt"

// Command types understood by the daemon.
const (
	TypeNavigate   = "navigate"
	TypeClick      = "click"
	TypeFill       = "fill"
	TypeScreenshot = "screenshot"
	TypeTitle      = "title"
	TypeWait       = "wait"
	TypeJS         = "js"
	TypeNewTab     = "new_tab"
	TypeSwitchTab  = "switch_tab"
	TypeListTabs   = "list_tabs"
	TypeCurrentTab = "current_tab"
	TypeStop       = "stop"
)

// Result status values.
const (
	StatusSuccess = "success"
	StatusError   = "error"
	StatusStarted = "started"
)

// Defaults applied while decoding command arguments.
const (
	DefaultScreenshotFile = "screenshot.png"
	DefaultWaitTimeout    = 30000.0 // milliseconds
)

// ReadyMessage is the message carried by the startup readiness result.
const ReadyMessage = "Browser daemon ready"

// Command is a decoded command ready for dispatch. Args holds exactly one
// of the typed argument structs below, or nil for commands that carry no
// arguments and for unrecognized types.
type Command struct {
	Type string
	Args interface{}
}

// NavigateArgs are the arguments of a navigate command.
type NavigateArgs struct {
	URL string `json:"url"`
}

// ClickArgs are the arguments of a click command.
type ClickArgs struct {
	Selector string `json:"selector"`
}

// FillArgs are the arguments of a fill command.
type FillArgs struct {
	Selector string `json:"selector"`
	Text     string `json:"text"`
}

// ScreenshotArgs are the arguments of a screenshot command.
type ScreenshotArgs struct {
	Filename string `json:"filename"`
}

// WaitArgs are the arguments of a wait command. Timeout is in milliseconds.
type WaitArgs struct {
	Selector string  `json:"selector"`
	Timeout  float64 `json:"timeout"`
}

// JSArgs are the arguments of a js command.
type JSArgs struct {
	Script string `json:"script"`
}

// NewTabArgs are the arguments of a new_tab command. Both fields are
// optional; an empty URL opens the tab on about:blank.
type NewTabArgs struct {
	Purpose string `json:"purpose"`
	URL     string `json:"url"`
}

// SwitchTabArgs are the arguments of a switch_tab command.
type SwitchTabArgs struct {
	Index int `json:"index"`
}

// Result is the daemon's reply to one command.
type Result struct {
	Status  string      `json:"status"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// OK reports whether the result carries a non-error status.
func (r Result) OK() bool {
	return r.Status == StatusSuccess || r.Status == StatusStarted
}

// Success builds a success result.
func Success(message string, data interface{}) Result {
	return Result{Status: StatusSuccess, Message: message, Data: data}
}

// Errorf builds an error result from a format string.
func Errorf(format string, v ...interface{}) Result {
	return Result{Status: StatusError, Message: fmt.Sprintf(format, v...)}
}

// Error builds an error result from an error.
func Error(err error) Result {
	return Result{Status: StatusError, Message: err.Error()}
}

// Started is the readiness result the daemon announces once its browser
// session is up. It is not tied to any command.
func Started() Result {
	return Result{Status: StatusStarted, Message: ReadyMessage}
}

// NavigateData reports where a navigation ended up.
type NavigateData struct {
	URL   string `json:"url"`
	Title string `json:"title"`
}

// SelectorData echoes the selector an interaction targeted.
type SelectorData struct {
	Selector string `json:"selector"`
}

// ScreenshotData reports the file a screenshot was written to.
type ScreenshotData struct {
	Filename string `json:"filename"`
}

// EvalData carries the value produced by a js command.
type EvalData struct {
	Result interface{} `json:"result"`
}

// TabInfo describes one registry tab as reported by list_tabs.
type TabInfo struct {
	Index   int    `json:"index"`
	Title   string `json:"title"`
	URL     string `json:"url"`
	Purpose string `json:"purpose"`
	Active  bool   `json:"active"`
}

// TabListData is the data payload of a list_tabs result.
type TabListData struct {
	Tabs       []TabInfo `json:"tabs"`
	CurrentTab int       `json:"current_tab"`
}

// NewTabData is the data payload of a new_tab result.
type NewTabData struct {
	TabIndex int    `json:"tab_index"`
	Purpose  string `json:"purpose"`
	URL      string `json:"url"`
}

// TabData is the data payload of switch_tab and current_tab results.
type TabData struct {
	TabIndex int    `json:"tab_index"`
	Title    string `json:"title"`
	URL      string `json:"url"`
	Purpose  string `json:"purpose"`
}
