package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"go.opentelemetry.io/otel/trace"

	gamestate "github.com/goliatone/go-gamestate"
	"github.com/goliatone/go-gamestate/pkg/achievement"
	"github.com/goliatone/go-gamestate/pkg/activity"
	"github.com/goliatone/go-gamestate/pkg/store"
)

var errUsage = errors.New("usage: savetool [-profile p] [-slot n] [-engine name] <show|new|pickup|complete|advance|check|achievements|slots> [args]")

type slotLister interface {
	Slots(ctx context.Context, profile string) ([]int, error)
}

type tool struct {
	cfg    config
	out    io.Writer
	logger gamestate.Logger
	codec  store.Codec
	slots  store.Store[gamestate.PersistentState]
	lister slotLister
	ref    store.Ref
}

func run(ctx context.Context, cfg config, args []string, out io.Writer, logger gamestate.Logger, tracer trace.Tracer) error {
	flags := flag.NewFlagSet("savetool", flag.ContinueOnError)
	flags.SetOutput(io.Discard)
	flags.StringVar(&cfg.Profile, "profile", cfg.Profile, "player profile")
	flags.IntVar(&cfg.Slot, "slot", cfg.Slot, "save slot")
	flags.StringVar(&cfg.Engine, "engine", cfg.Engine, "condition engine")
	if err := flags.Parse(args); err != nil {
		return fmt.Errorf("%w: %v", errUsage, err)
	}
	args = flags.Args()
	if len(args) == 0 {
		return errUsage
	}

	codec, err := store.CodecByName(cfg.Format)
	if err != nil {
		return err
	}
	backend, closer, err := openStore(cfg, codec)
	if err != nil {
		return err
	}
	defer closer.Close()

	t := &tool{
		cfg:    cfg,
		out:    out,
		logger: logger,
		codec:  codec,
		slots:  store.NewTracedStore(backend, tracer),
		ref:    store.Ref{Profile: cfg.Profile, Slot: cfg.Slot},
	}
	if lister, ok := backend.(slotLister); ok {
		t.lister = lister
	}

	command, rest := args[0], args[1:]
	switch command {
	case "show":
		return t.show(ctx)
	case "new":
		return t.create(ctx, rest)
	case "pickup":
		return t.pickup(ctx, rest)
	case "complete":
		return t.complete(ctx, rest)
	case "advance":
		return t.advance(ctx, rest)
	case "check":
		return t.check(ctx, rest)
	case "achievements":
		return t.achievements(ctx)
	case "slots":
		return t.listSlots(ctx)
	default:
		return fmt.Errorf("%w: unknown command %q", errUsage, command)
	}
}

func openStore(cfg config, codec store.Codec) (store.Store[gamestate.PersistentState], io.Closer, error) {
	opts := []store.FileStoreOption{
		store.WithCodec(codec),
		store.WithMigrations(gamestate.MigrateSave),
	}
	switch strings.ToLower(cfg.Backend) {
	case "", "file":
		slots, err := store.NewFileStore[gamestate.PersistentState](cfg.SaveDir, opts...)
		if err != nil {
			return nil, nil, err
		}
		return slots, nopCloser{}, nil
	case "sqlite":
		if err := os.MkdirAll(cfg.SaveDir, 0o700); err != nil {
			return nil, nil, fmt.Errorf("create save dir: %w", err)
		}
		slots, err := store.OpenSQLite[gamestate.PersistentState](filepath.Join(cfg.SaveDir, "saves.db"), opts...)
		if err != nil {
			return nil, nil, err
		}
		return slots, slots, nil
	default:
		return nil, nil, fmt.Errorf("unknown save backend %q", cfg.Backend)
	}
}

func (t *tool) session(opts ...gamestate.Option) *gamestate.Session {
	opts = append([]gamestate.Option{
		gamestate.WithLogger(t.logger),
		gamestate.WithActor(t.cfg.Profile, t.cfg.Profile),
		gamestate.WithActivityEmitter(t.emitter()),
	}, opts...)
	return gamestate.NewSession(nil, opts...)
}

// emitter puts the activity journal, when ACTIVITY_LOG is set, ahead of extra.
func (t *tool) emitter(extra ...activity.ActivityHook) *activity.Emitter {
	hooks := make(activity.Hooks, 0, len(extra)+1)
	if t.cfg.ActivityLog {
		var journal activity.ActivityHook = activity.HookFunc(t.journal)
		if len(t.cfg.ActivityVerbs) > 0 {
			journal = activity.OnlyVerbs(journal, t.cfg.ActivityVerbs...)
		}
		hooks = append(hooks, journal)
	}
	hooks = append(hooks, extra...)
	return activity.NewEmitter(hooks, activity.Config{Enabled: true, Muted: t.cfg.ActivityMuted})
}

func (t *tool) journal(_ context.Context, event activity.Event) error {
	t.logger.Info("activity", gamestate.Fields{
		"verb":        event.Verb,
		"object_type": event.ObjectType,
		"object_id":   event.ObjectID,
		"actor_id":    event.ActorID,
		"channel":     event.Channel,
	})
	return nil
}

func (t *tool) load(ctx context.Context, opts ...gamestate.Option) (*gamestate.Session, error) {
	session := t.session(opts...)
	found, err := session.Load(ctx, t.slots, t.ref)
	if err != nil {
		return nil, err
	}
	if !found {
		t.logger.Info("slot empty, starting from defaults", gamestate.Fields{"ref": t.ref.String()})
	}
	return session, nil
}

func (t *tool) save(ctx context.Context, session *gamestate.Session) error {
	meta, err := session.Save(ctx, t.slots, t.ref)
	if err != nil {
		return err
	}
	t.logger.Debug("slot saved", gamestate.Fields{"ref": t.ref.String(), "etag": meta.ETag})
	return nil
}

func (t *tool) show(ctx context.Context) error {
	session, err := t.load(ctx)
	if err != nil {
		return err
	}
	body, err := t.codec.Marshal(session.Snapshot())
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	_, err = fmt.Fprintln(t.out, strings.TrimRight(string(body), "\n"))
	return err
}

func (t *tool) create(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("%w: new <player-name>", errUsage)
	}
	// Overwrites whatever the slot held.
	fresh := gamestate.NewSession(gamestate.New(args[0]), gamestate.WithLogger(t.logger))
	if err := t.save(ctx, fresh); err != nil {
		return err
	}
	_, err := fmt.Fprintf(t.out, "created %s for %s\n", t.ref, args[0])
	return err
}

func (t *tool) pickup(ctx context.Context, args []string) error {
	if len(args) < 1 || len(args) > 2 {
		return fmt.Errorf("%w: pickup <item> [quantity]", errUsage)
	}
	item := gamestate.InventoryItem{Name: args[0], Quantity: 1}
	if len(args) == 2 {
		qty, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("%w: quantity %q: %v", errUsage, args[1], err)
		}
		item.Quantity = qty
		item.Stackable = true
	}
	session, err := t.load(ctx)
	if err != nil {
		return err
	}
	stored, err := session.PickUp(ctx, item)
	if err != nil {
		return err
	}
	if err := t.save(ctx, session); err != nil {
		return err
	}
	_, err = fmt.Fprintf(t.out, "picked up %s x%d (%s)\n", stored.Name, stored.Quantity, stored.UniqueID)
	return err
}

func (t *tool) complete(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("%w: complete <event-id>", errUsage)
	}
	session, err := t.load(ctx)
	if err != nil {
		return err
	}
	if !session.CompleteEvent(ctx, args[0]) {
		_, err := fmt.Fprintf(t.out, "%s already cleared\n", args[0])
		return err
	}
	if err := t.save(ctx, session); err != nil {
		return err
	}
	_, err = fmt.Fprintf(t.out, "cleared %s\n", args[0])
	return err
}

func (t *tool) advance(ctx context.Context, args []string) error {
	if len(args) != 1 || (args[0] != "scene" && args[0] != "chapter") {
		return fmt.Errorf("%w: advance <scene|chapter>", errUsage)
	}
	layout, err := t.layout()
	if err != nil {
		return err
	}
	session, err := t.load(ctx, gamestate.WithStoryLayout(layout))
	if err != nil {
		return err
	}
	var step gamestate.Step
	if args[0] == "scene" {
		step, err = session.AdvanceScene(ctx)
	} else {
		step, err = session.AdvanceChapter(ctx)
	}
	if err != nil {
		return err
	}
	if err := t.save(ctx, session); err != nil {
		return err
	}
	progress := session.Snapshot().Progress
	_, err = fmt.Fprintf(t.out, "%s: story %d chapter %d scene %d\n", step, progress.StoryIndex, progress.ChapterIndex, progress.SceneIndex)
	return err
}

func (t *tool) layout() (gamestate.StoryLayout, error) {
	if t.cfg.LayoutFile == "" {
		return gamestate.NewStoryLayout(3, 3, 3), nil
	}
	data, err := os.ReadFile(t.cfg.LayoutFile)
	if err != nil {
		return gamestate.StoryLayout{}, fmt.Errorf("read story layout: %w", err)
	}
	codec, err := store.CodecByName(strings.TrimPrefix(filepath.Ext(t.cfg.LayoutFile), "."))
	if err != nil {
		return gamestate.StoryLayout{}, err
	}
	return gamestate.ParseStoryLayout(data, codec)
}

func (t *tool) check(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("%w: check <expression>", errUsage)
	}
	session, err := t.load(ctx)
	if err != nil {
		return err
	}
	condition, err := gamestate.NewExpressionCondition(
		strings.Join(args, " "),
		session.Inventory(),
		session.History(),
		gamestate.WithEngine(t.cfg.Engine),
		gamestate.WithLabel("savetool"),
		gamestate.WithEvaluatorLogger(gamestate.EvaluatorLoggerFromLogger(t.logger)),
	)
	if err != nil {
		return err
	}
	satisfied, err := condition.Evaluate()
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(t.out, satisfied)
	return err
}

func (t *tool) achievements(ctx context.Context) error {
	if t.cfg.RulesFile == "" {
		return fmt.Errorf("%w: achievements needs ACHIEVEMENTS_FILE", errUsage)
	}
	data, err := os.ReadFile(t.cfg.RulesFile)
	if err != nil {
		return fmt.Errorf("read achievements: %w", err)
	}
	codec, err := store.CodecByName(strings.TrimPrefix(filepath.Ext(t.cfg.RulesFile), "."))
	if err != nil {
		return err
	}
	rules, err := achievement.LoadRules(data, codec)
	if err != nil {
		return err
	}
	tracker, err := achievement.NewTracker(rules, achievement.UnlockerFunc(func(_ context.Context, id string) error {
		_, err := fmt.Fprintf(t.out, "unlocked %s\n", id)
		return err
	}), achievement.WithLogger(t.logger))
	if err != nil {
		return err
	}

	session := t.session(gamestate.WithActivityEmitter(t.emitter(tracker)))
	tracker.Attach(session)
	if _, err := session.Load(ctx, t.slots, t.ref); err != nil {
		return err
	}
	// Load only notifies hooks for stored slots; a second pass covers empty
	// slots and retries unlocks that failed during the notification.
	_, err = tracker.Evaluate(ctx)
	return err
}

func (t *tool) listSlots(ctx context.Context) error {
	if t.lister == nil {
		return fmt.Errorf("slots requires the sqlite backend")
	}
	slots, err := t.lister.Slots(ctx, t.cfg.Profile)
	if err != nil {
		return err
	}
	for _, slot := range slots {
		if _, err := fmt.Fprintf(t.out, "%s/%d\n", t.cfg.Profile, slot); err != nil {
			return err
		}
	}
	return nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
