package plugin

// Event names a hook point in the message pipeline.
type Event string

const (
	EventOnReceiveMessage Event = "on_receive_message"
	EventOnHandleContext  Event = "on_handle_context"
	EventOnDecorateReply  Event = "on_decorate_reply"
	EventOnSendReply      Event = "on_send_reply"
)

// Action tells the dispatcher what to do after a handler returns.
type Action int

const (
	// ActionContinue passes the event to the next plugin.
	ActionContinue Action = iota
	// ActionBreak stops plugin dispatch; the host keeps its default handling.
	ActionBreak
	// ActionBreakPass stops plugin dispatch and skips the host's default handling.
	ActionBreakPass
)

func (a Action) String() string {
	switch a {
	case ActionContinue:
		return "continue"
	case ActionBreak:
		return "break"
	case ActionBreakPass:
		return "break_pass"
	default:
		return "unknown"
	}
}

// ContextType classifies an inbound message.
type ContextType string

const (
	ContextText  ContextType = "TEXT"
	ContextVoice ContextType = "VOICE"
	ContextImage ContextType = "IMAGE"
	ContextFile  ContextType = "FILE"
)

// ReplyType classifies an outbound reply.
type ReplyType string

const (
	ReplyText  ReplyType = "TEXT"
	ReplyVoice ReplyType = "VOICE"
	ReplyImage ReplyType = "IMAGE"
	ReplyError ReplyType = "ERROR"
	ReplyInfo  ReplyType = "INFO"
)
