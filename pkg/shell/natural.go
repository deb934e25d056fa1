package shell

import (
	"strconv"
	"strings"

	"github.com/Duyfrom/browser-automation-with-LLM/pkg/protocol"
)

// Selectors used when a phrase implies a search box interaction.
const (
	searchInputSelector  = `input[name="q"]`
	searchSubmitSelector = `input[type="submit"]`
)

// ParsePhrase maps one loose English phrase onto protocol commands.
// Matching is deterministic prefix and keyword work, no model calls.
// Returns nil when the phrase has no known shape. Arguments keep the
// caller's casing; only the matching is case-insensitive.
func ParsePhrase(input string) []protocol.Command {
	input = strings.TrimSpace(input)
	phrase := strings.ToLower(input)

	switch {
	case phrase == "":
		return nil

	case phrase == "open a new tab" || phrase == "new tab":
		return []protocol.Command{{Type: protocol.TypeNewTab, Args: protocol.NewTabArgs{}}}

	case strings.HasPrefix(phrase, "go to "):
		return navigateTo(input[len("go to "):])

	case strings.HasPrefix(phrase, "open "):
		return navigateTo(input[len("open "):])

	case strings.HasPrefix(phrase, "search for "):
		query := strings.TrimSpace(input[len("search for "):])
		if query == "" {
			return nil
		}
		return []protocol.Command{
			{Type: protocol.TypeFill, Args: protocol.FillArgs{Selector: searchInputSelector, Text: query}},
			{Type: protocol.TypeClick, Args: protocol.ClickArgs{Selector: searchSubmitSelector}},
		}

	case phrase == "take a screenshot" || phrase == "screenshot":
		return []protocol.Command{{Type: protocol.TypeScreenshot, Args: protocol.ScreenshotArgs{}}}

	case phrase == "what tabs are open" || phrase == "list tabs":
		return []protocol.Command{{Type: protocol.TypeListTabs}}

	case strings.HasPrefix(phrase, "switch to tab "):
		// Phrases count tabs the way the daemon reports them, from 1.
		n, err := strconv.Atoi(strings.TrimSpace(phrase[len("switch to tab "):]))
		if err != nil || n < 1 {
			return nil
		}
		return []protocol.Command{{Type: protocol.TypeSwitchTab, Args: protocol.SwitchTabArgs{Index: n - 1}}}

	case phrase == "what is the title" || phrase == "what's the title" || phrase == "title":
		return []protocol.Command{{Type: protocol.TypeTitle}}

	case phrase == "stop the browser" || phrase == "stop":
		return []protocol.Command{{Type: protocol.TypeStop}}
	}

	return nil
}

func navigateTo(target string) []protocol.Command {
	target = strings.TrimSpace(target)
	if target == "" {
		return nil
	}
	return []protocol.Command{{Type: protocol.TypeNavigate, Args: protocol.NavigateArgs{URL: target}}}
}
