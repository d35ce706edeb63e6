package command

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/keshon/voicelog/pkg/cmd"
)

// Router turns chat messages into prefix command invocations.
type Router struct {
	registry *cmd.Registry
}

// NewRouter registers the voice log commands, each wrapped in mws.
func NewRouter(mws ...cmd.Middleware) *Router {
	r := &Router{registry: cmd.NewRegistry()}
	for _, c := range []cmd.Command{
		&SetVoiceLogCommand{},
		&RemoveVoiceLogCommand{},
		&GetVoiceLogCommand{},
	} {
		r.registry.Register(cmd.Apply(c, mws...))
	}
	return r
}

// Commands lists the registered command names, sorted.
func (r *Router) Commands() []string {
	var names []string
	for _, c := range r.registry.All() {
		names = append(names, c.Name())
	}
	return names
}

// Parse drops the leading prefix character, whatever it is, and splits the
// rest on whitespace. The command name is lower-cased.
func Parse(content string) (name string, args []string) {
	_, size := utf8.DecodeRuneInString(content)
	fields := strings.Fields(content[size:])
	if len(fields) == 0 {
		return "", nil
	}
	return strings.ToLower(fields[0]), fields[1:]
}

// Dispatch runs the command named in the message, if any. Unknown commands are
// ignored. Failures are reported by the middlewares (see WithCommandLogger).
func (r *Router) Dispatch(ctx context.Context, mc *MessageContext) {
	name, args := Parse(mc.Event.Content)
	if name == "" {
		return
	}
	c, ok := r.registry.Get(name)
	if !ok {
		return
	}

	_ = c.Run(ctx, &cmd.Invocation{Name: name, Args: args, Data: mc})
}
