package protocol

import (
	"encoding/json"
	"fmt"
)

// Envelope is the wire form of a command.
type Envelope struct {
	Type string          `json:"type"`
	Args json.RawMessage `json:"args,omitempty"`
}

// DecodeCommand parses raw command JSON and validates its arguments.
// Argument validation happens here, at the channel boundary, so dispatch
// cases only ever see well-formed payloads. Unrecognized types decode
// without error and without arguments; the dispatcher owns the
// unknown-command response.
func DecodeCommand(data []byte) (Command, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return Command{}, fmt.Errorf("invalid command: %w", err)
	}
	if env.Type == "" {
		return Command{}, fmt.Errorf("command type is required")
	}

	cmd := Command{Type: env.Type}

	switch env.Type {
	case TypeNavigate:
		var args NavigateArgs
		if err := unmarshalArgs(env.Args, &args); err != nil {
			return Command{}, err
		}
		if args.URL == "" {
			return Command{}, fmt.Errorf("url is required")
		}
		cmd.Args = args

	case TypeClick:
		var args ClickArgs
		if err := unmarshalArgs(env.Args, &args); err != nil {
			return Command{}, err
		}
		if args.Selector == "" {
			return Command{}, fmt.Errorf("selector is required")
		}
		cmd.Args = args

	case TypeFill:
		var args FillArgs
		if err := unmarshalArgs(env.Args, &args); err != nil {
			return Command{}, err
		}
		if args.Selector == "" {
			return Command{}, fmt.Errorf("selector is required")
		}
		cmd.Args = args

	case TypeScreenshot:
		var args ScreenshotArgs
		if err := unmarshalArgs(env.Args, &args); err != nil {
			return Command{}, err
		}
		if args.Filename == "" {
			args.Filename = DefaultScreenshotFile
		}
		cmd.Args = args

	case TypeWait:
		var args WaitArgs
		if err := unmarshalArgs(env.Args, &args); err != nil {
			return Command{}, err
		}
		if args.Selector == "" {
			return Command{}, fmt.Errorf("selector is required")
		}
		if args.Timeout <= 0 {
			args.Timeout = DefaultWaitTimeout
		}
		cmd.Args = args

	case TypeJS:
		var args JSArgs
		if err := unmarshalArgs(env.Args, &args); err != nil {
			return Command{}, err
		}
		if args.Script == "" {
			return Command{}, fmt.Errorf("script is required")
		}
		cmd.Args = args

	case TypeNewTab:
		var args NewTabArgs
		if err := unmarshalArgs(env.Args, &args); err != nil {
			return Command{}, err
		}
		cmd.Args = args

	case TypeSwitchTab:
		// The index must be present; a pointer distinguishes a missing
		// field from a literal zero.
		var args struct {
			Index *int `json:"index"`
		}
		if err := unmarshalArgs(env.Args, &args); err != nil {
			return Command{}, err
		}
		if args.Index == nil {
			return Command{}, fmt.Errorf("index is required")
		}
		cmd.Args = SwitchTabArgs{Index: *args.Index}

	case TypeTitle, TypeListTabs, TypeCurrentTab, TypeStop:
		// No arguments.

	default:
		// Unknown type. The dispatcher's fallback case produces the
		// error result so that unrecognized commands never cause side
		// effects.
	}

	return cmd, nil
}

// EncodeCommand marshals a command into its wire form.
func EncodeCommand(cmd Command) ([]byte, error) {
	env := Envelope{Type: cmd.Type}
	if cmd.Args != nil {
		raw, err := json.Marshal(cmd.Args)
		if err != nil {
			return nil, fmt.Errorf("failed to encode arguments: %w", err)
		}
		env.Args = raw
	}
	return json.Marshal(env)
}

// DecodeResult parses a result read from the channel.
func DecodeResult(data []byte) (Result, error) {
	var res Result
	if err := json.Unmarshal(data, &res); err != nil {
		return Result{}, fmt.Errorf("invalid result: %w", err)
	}
	return res, nil
}

// EncodeResult marshals a result into its wire form.
func EncodeResult(res Result) ([]byte, error) {
	return json.Marshal(res)
}

// DecodeData converts a result's Data field into the typed payload
// out points to. Data arrives as generic JSON maps on the client side
// and as typed structs in-process; the round trip handles both.
func DecodeData(data interface{}, out interface{}) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to encode data: %w", err)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("invalid data payload: %w", err)
	}
	return nil
}

func unmarshalArgs(raw json.RawMessage, v interface{}) error {
	if len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("invalid arguments: %w", err)
	}
	return nil
}
