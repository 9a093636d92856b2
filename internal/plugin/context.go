package plugin

// Context carries an inbound message and the host's per-message attributes
// (session_id, create_time, receiver, ...).
type Context struct {
	Type    ContextType
	Content string
	kwargs  map[string]any
}

// NewContext returns a context of the given type and content.
func NewContext(typ ContextType, content string) *Context {
	return &Context{Type: typ, Content: content, kwargs: make(map[string]any)}
}

// Get returns the attribute stored under key, or def when it is absent.
func (c *Context) Get(key string, def any) any {
	if c == nil || c.kwargs == nil {
		return def
	}
	if v, ok := c.kwargs[key]; ok {
		return v
	}
	return def
}

// String returns the attribute under key when it is a string, else "".
func (c *Context) String(key string) string {
	s, _ := c.Get(key, "").(string)
	return s
}

// Set stores an attribute.
func (c *Context) Set(key string, value any) {
	if c.kwargs == nil {
		c.kwargs = make(map[string]any)
	}
	c.kwargs[key] = value
}

// Reply is an outbound bot reply.
type Reply struct {
	Type    ReplyType
	Content string
}

// EventContext is the mutable payload handed to every handler of an event.
type EventContext struct {
	Event   Event
	Context *Context
	Reply   *Reply
	Action  Action
}

// IsBreak reports whether a handler stopped dispatch.
func (e *EventContext) IsBreak() bool {
	return e.Action == ActionBreak || e.Action == ActionBreakPass
}

// IsPass reports whether the host should skip its default handling.
func (e *EventContext) IsPass() bool {
	return e.Action == ActionBreakPass
}
