// Package archiver implements the DialogueArchiver plugin, which records each
// user message and bot text reply of a session in a document store.
//
// The plugin never fails the chat: configuration problems disable it, and
// write errors are logged and the turn is dropped.
package archiver

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/m2tx/dialogue_archiver/internal/config"
	"github.com/m2tx/dialogue_archiver/internal/model"
	"github.com/m2tx/dialogue_archiver/internal/plugin"
	"github.com/m2tx/dialogue_archiver/internal/repository"
)

const (
	Name        = "DialogueArchiver"
	Version     = "0.8"
	description = "Archives dialogue turns to MongoDB."
	helpText    = "Saves every text message and text reply of a session to MongoDB."

	keySessionID  = "session_id"
	keyCreateTime = "create_time"
)

// Opener connects to a MongoDB backend.
type Opener func(ctx context.Context, cfg config.Mongo) (repository.DialogueRepository, error)

// Option customizes an Archiver.
type Option func(*Archiver)

// WithLogger sets the logger. The default discards output.
func WithLogger(logger *zap.Logger) Option {
	return func(a *Archiver) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// WithOpener replaces the MongoDB opener.
func WithOpener(open Opener) Option {
	return func(a *Archiver) {
		if open != nil {
			a.open = open
		}
	}
}

// WithClock replaces the time source used for write timestamps.
func WithClock(now func() time.Time) Option {
	return func(a *Archiver) {
		if now != nil {
			a.now = now
		}
	}
}

// Archiver is the DialogueArchiver plugin. A nil store means the feature is
// disabled and both handlers return immediately.
type Archiver struct {
	store  repository.DialogueRepository
	logger *zap.Logger
	open   Opener
	now    func() time.Time
}

// New initializes the plugin from its configuration block. cfg may be nil,
// which disables the plugin. New never fails: setup errors are logged and
// leave the plugin disabled.
func New(ctx context.Context, cfg *config.Archiver, opts ...Option) *Archiver {
	a := &Archiver{
		logger: zap.NewNop(),
		open:   openMongo,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	a.logger = a.logger.With(zap.String("plugin", Name))

	if err := a.init(ctx, cfg); err != nil {
		a.logger.Error("error initializing storage client, plugin disabled", zap.Error(err))
	}
	a.logger.Info("initialized", zap.Bool("enabled", a.Enabled()))
	return a
}

func (a *Archiver) init(ctx context.Context, cfg *config.Archiver) error {
	backend, err := config.Resolve(cfg)
	if err != nil {
		return err
	}

	switch b := backend.(type) {
	case config.Disabled:
		a.logger.Info("plugin disabled", zap.String("reason", b.Reason))
		return nil
	case config.Mongo:
		a.logger.Info("storage type set", zap.String("storage_type", string(config.StorageMongoDB)))
		store, err := a.open(ctx, b)
		if err != nil {
			return err
		}
		if store == nil {
			return errors.New("mongodb opener returned no repository")
		}
		a.store = store
		a.logger.Info("MongoDB client initialized",
			zap.String("database", b.Database),
			zap.String("collection", b.Collection),
		)
		return nil
	default:
		return config.ErrUnsupportedBackend
	}
}

func openMongo(ctx context.Context, cfg config.Mongo) (repository.DialogueRepository, error) {
	return repository.OpenMongo(ctx, cfg)
}

// Enabled reports whether a backend is connected.
func (a *Archiver) Enabled() bool {
	return a.store != nil
}

func (a *Archiver) Name() string        { return Name }
func (a *Archiver) Description() string { return description }
func (a *Archiver) Version() string     { return Version }
func (a *Archiver) HelpText() string    { return helpText }

func (a *Archiver) Handlers() map[plugin.Event]plugin.Handler {
	return map[plugin.Event]plugin.Handler{
		plugin.EventOnHandleContext: a.OnHandleContext,
		plugin.EventOnDecorateReply: a.OnDecorateReply,
	}
}

// OnHandleContext archives an inbound text message as a new session document.
func (a *Archiver) OnHandleContext(ctx context.Context, ec *plugin.EventContext) {
	if a.store == nil || ec == nil {
		return
	}

	c := ec.Context
	if c == nil || c.Type != plugin.ContextText {
		return
	}

	sessionID := c.String(keySessionID)
	if sessionID == "" {
		return
	}

	now := model.Epoch(a.now())
	at, ok := model.EpochOf(c.Get(keyCreateTime, nil))
	if !ok {
		at = now
	}

	doc := model.SessionDocument{
		SessionID: sessionID,
		Dialogue:  []model.Turn{model.UserTurn(c.Content, at)},
		Timestamp: now,
	}

	if err := a.store.Insert(ctx, doc); err != nil {
		a.logger.Error("error saving user input", zap.String("session_id", sessionID), zap.Error(err))
		return
	}
	a.logger.Info("user input saved", zap.String("session_id", sessionID))
}

// OnDecorateReply appends a text reply to the session's document. A session
// with no archived document is left untouched.
func (a *Archiver) OnDecorateReply(ctx context.Context, ec *plugin.EventContext) {
	if a.store == nil || ec == nil {
		return
	}

	r := ec.Reply
	if r == nil || r.Type != plugin.ReplyText {
		return
	}

	sessionID := ec.Context.String(keySessionID)
	if sessionID == "" {
		return
	}

	turn := model.BotTurn(r.Content, model.Epoch(a.now()))

	matched, err := a.store.AppendTurn(ctx, sessionID, turn)
	if err != nil {
		a.logger.Error("error updating bot reply", zap.String("session_id", sessionID), zap.Error(err))
		return
	}
	if !matched {
		a.logger.Warn("no session document for bot reply", zap.String("session_id", sessionID))
		return
	}
	a.logger.Info("bot reply saved", zap.String("session_id", sessionID))
}

// Close disconnects the backend, if any.
func (a *Archiver) Close(ctx context.Context) error {
	if a.store == nil {
		return nil
	}
	return a.store.Close(ctx)
}
