package main

import (
	"bufio"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/log"
	"github.com/desertthunder/setlist/internal/catalog"
	"github.com/desertthunder/setlist/internal/models"
	"github.com/desertthunder/setlist/internal/playlist"
	"github.com/desertthunder/setlist/internal/repositories"
	"github.com/desertthunder/setlist/internal/services"
	"github.com/desertthunder/setlist/internal/shared"
	"github.com/desertthunder/setlist/internal/tasks"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config     *shared.Config
	configPath string
	httpClient *http.Client
	logger     *log.Logger
	output     io.Writer
	input      io.Reader
	copyText   func(string) error
	now        func() time.Time
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	HTTPClient *http.Client
	Logger     *log.Logger
	Output     io.Writer
	Input      io.Reader          // answers to confirmation prompts
	Copy       func(string) error // defaults to the system clipboard
	Now        func() time.Time
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.Input == nil {
		opts.Input = os.Stdin
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}
	if opts.Copy == nil {
		opts.Copy = clipboard.WriteAll
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	return &Runner{
		config:     opts.Config,
		configPath: opts.ConfigPath,
		httpClient: opts.HTTPClient,
		logger:     opts.Logger,
		output:     opts.Output,
		input:      opts.Input,
		copyText:   opts.Copy,
		now:        opts.Now,
	}
}

// SetLogger swaps the logger, e.g. for a file logger while the TUI owns the terminal.
func (r *Runner) SetLogger(l *log.Logger) {
	r.logger = l
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, catalogCommand, listCommand, historyCommand, exportCommand, songCommand, tuiCommand, serveCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// workspace is the open database plus the session built on top of it.
type workspace struct {
	db        *sql.DB
	session   *tasks.Session
	songs     *repositories.CustomSongRepository
	snapshots *repositories.SnapshotRepository
}

func (w *workspace) Close() error {
	return w.db.Close()
}

// persist stores the live list so the next command picks it up.
func (w *workspace) persist(ctx context.Context) error {
	if err := w.session.Persist(ctx); err != nil {
		return fmt.Errorf("failed to persist list: %w", err)
	}
	return nil
}

// openWorkspace opens the database, picks the configured history backend and restores the last working
// list. The catalog is not loaded; see [Runner.loadCatalog].
func (r *Runner) openWorkspace(ctx context.Context, progress chan<- tasks.ProgressUpdate) (*workspace, error) {
	db, err := shared.OpenDatabase(r.config.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	history, err := r.historyStore(db)
	if err != nil {
		db.Close()
		return nil, err
	}

	ws := &workspace{
		db:        db,
		songs:     repositories.NewCustomSongRepository(db),
		snapshots: repositories.NewSnapshotRepository(db),
	}

	ws.session = tasks.NewSession(tasks.SessionOpts{
		GroupID:   r.config.Playlist.Group,
		Date:      models.DateOf(r.now()),
		Guard:     playlist.Guard{WindowDays: r.config.Playlist.RecencyWindowDays},
		History:   history,
		Snapshots: ws.snapshots,
		Logger:    r.logger,
		Progress:  progress,
		Now:       r.now,
	})

	restored, err := ws.session.Restore(ctx)
	if err != nil {
		r.logger.Warn("could not restore working list, starting empty", "error", err)
	} else if restored {
		r.logger.Debug("restored working list", "group", ws.session.GroupID(), "songs", ws.session.Count())
	}

	return ws, nil
}

// historyStore builds the saved-list backend named by history.backend.
func (r *Runner) historyStore(db *sql.DB) (tasks.HistoryStore, error) {
	switch backend := strings.ToLower(strings.TrimSpace(r.config.History.Backend)); backend {
	case "", "sqlite":
		return repositories.NewHistoryRepository(db), nil
	case "realtime":
		// the store builds its own client from realtime.timeout_seconds
		store, err := services.NewRealtimeStore(r.config.Realtime, nil, r.logger)
		if err != nil {
			return nil, err
		}
		return store, nil
	default:
		return nil, fmt.Errorf("%w: unknown history backend %q", shared.ErrInvalidConfig, backend)
	}
}

// catalogSource returns the configured hymnal collections.
func (r *Runner) catalogSource() catalog.Source {
	return catalog.NewLoaderFromConfig(r.config.Catalog, r.httpClient)
}

// customSongs returns the custom songs of the session's group, which are searched with the catalog.
func (r *Runner) customSongs(ws *workspace) []models.Song {
	songs, err := ws.songs.Songs(ws.session.GroupID())
	if err != nil {
		r.logger.Warn("failed to load custom songs", "error", err)
		return nil
	}
	return songs
}

// loadCatalog loads the hymnals plus the group's custom songs into the session.
func (r *Runner) loadCatalog(ctx context.Context, ws *workspace) error {
	count, err := ws.session.LoadCatalog(ctx, r.catalogSource(), r.customSongs(ws)...)
	if err != nil {
		return err
	}
	r.logger.Debug("catalog loaded", "songs", count)
	return nil
}

// confirm asks on the terminal whether a recently sung song goes in anyway. yes skips the prompt.
func (r *Runner) confirm(yes bool) playlist.ConfirmFunc {
	return func(song models.Song, conflict playlist.Conflict) bool {
		if yes {
			return true
		}

		r.writePlain("%s was %s. Add anyway? [y/N] ", song.Display(), conflict.Message())
		line, err := bufio.NewReader(r.input).ReadString('\n')
		if err != nil && line == "" {
			r.writePlain("\n")
			return false
		}

		switch strings.ToLower(strings.TrimSpace(line)) {
		case "y", "yes", "s", "sim":
			return true
		default:
			return false
		}
	}
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", title)
	r.writePlain("═══════════════════════════════════════\n")
}
