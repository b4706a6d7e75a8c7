package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/abhisek/lingoz/internal/lessons"
	"github.com/abhisek/lingoz/internal/llm"
	"github.com/abhisek/lingoz/internal/persist"
	"github.com/abhisek/lingoz/internal/speech"
	"github.com/abhisek/lingoz/internal/store"
	"github.com/abhisek/lingoz/internal/tutor"
)

// env is what a command needs to run lessons: storage, content, speech
// and the optional LLM tutor.
type env struct {
	// store and events are nil when the database could not be opened;
	// adapter then serves page state from memory.
	store    *store.Store
	events   store.EventRepo
	dbPath   string
	lessons  *lessons.Registry
	adapter  *persist.Resilient
	speech   speech.Requester
	provider llm.Provider
	tutor    *tutor.Service

	speechCfg speech.Config
	strict    bool
}

// envOptions selects the optional parts of an env.
type envOptions struct {
	speech bool
	tutor  bool
}

// openEnv builds an env from flags and environment variables. Close must
// be called when done.
func openEnv(cmd *cobra.Command, opts envOptions) (*env, error) {
	ctx := cmd.Context()

	reg, err := lessons.Load(lessonDirs(cmd)...)
	if err != nil {
		return nil, fmt.Errorf("load lessons: %w", err)
	}

	e := &env{
		lessons: reg,
		speech:  speech.Nop{},
		strict:  os.Getenv("LINGOZ_DEV") != "",
	}
	e.openStore(cmd)

	e.speechCfg = speech.ConfigFromEnv()
	if a, _ := cmd.Flags().GetString("accent"); a != "" {
		e.speechCfg.Accent = speech.NormalizeTag(a)
	}
	if e.speechCfg.CacheDir == "" {
		if dir, err := store.DataDir(); err == nil {
			e.speechCfg.CacheDir = filepath.Join(dir, "tts")
		}
	}
	if mute, _ := cmd.Flags().GetBool("mute"); mute {
		e.speechCfg.Engine = speech.EngineOff
	}
	if opts.speech {
		e.speech = speech.New(e.speechCfg)
	}

	if opts.tutor {
		provider, err := llm.NewProvider(ctx, llm.ConfigFromEnv(), e.events)
		switch {
		case errors.Is(err, llm.ErrDisabled):
			log.Info("no LLM provider configured; tutor explanations disabled")
		case err != nil:
			fmt.Fprintln(os.Stderr, "LLM provider not configured:", err)
			fmt.Fprintln(os.Stderr, "Tutor explanations will be unavailable.")
		default:
			e.provider = provider
			e.tutor = tutor.NewService(provider, tutor.DefaultConfig())
		}
	}

	return e, nil
}

// openStore opens the database. When it is unusable the env keeps going
// with in-memory page state and no event log.
func (e *env) openStore(cmd *cobra.Command) {
	path, err := resolveDBPath(cmd)
	if err == nil {
		e.dbPath = path
		e.store, err = store.Open(path)
	}
	if err != nil {
		log.WithError(err).WithField("db", path).Warn("storage unavailable, progress will not be saved")
		e.store = nil
		e.adapter = persist.NewResilient(nil)
		return
	}
	e.events = e.store.EventRepo()
	e.adapter = persist.NewResilient(e.store.KVRepo())
}

// lessonDirs merges --lessons with LINGOZ_LESSONS.
func lessonDirs(cmd *cobra.Command) []string {
	dirs, _ := cmd.Flags().GetStringSlice("lessons")
	if v := os.Getenv("LINGOZ_LESSONS"); v != "" {
		dirs = append(dirs, filepath.SplitList(v)...)
	}
	if dir, err := store.DataDir(); err == nil {
		dirs = append(dirs, filepath.Join(dir, "lessons"))
	}
	out := dirs[:0]
	for _, d := range dirs {
		if d = strings.TrimSpace(d); d != "" {
			out = append(out, d)
		}
	}
	return out
}

// Close stops speech and closes the store.
func (e *env) Close() {
	if p, ok := e.speech.(*speech.Player); ok {
		p.Close()
	}
	if e.store != nil {
		e.store.Close()
	}
}
