// termchess is a terminal application to play chess against a built-in or external engine.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
	"go.uber.org/zap"
	"golang.org/x/term"

	"termchess/config"
	"termchess/controller"
	"termchess/engine"
	"termchess/engine/rules"
	"termchess/engine/search"
	"termchess/engine/uci"
	"termchess/logging"
	"termchess/record"
	"termchess/ui"
)

// Version is set at build time via ldflags
var Version = "dev"

// Command-line flags
var (
	flagWhite     = flag.String("white", "", "White player (human or computer)")
	flagBlack     = flag.String("black", "", "Black player (human or computer)")
	flagDepth     = flag.Int("depth", 0, "Search depth in plies (1-8)")
	flagEngine    = flag.String("engine", "", "Path to an external UCI engine")
	flagFEN       = flag.String("fen", "", "Start position in FEN")
	flagQuick     = flag.Bool("play", false, "Start game immediately with defaults")
	flagFocus     = flag.Bool("focus", false, "Start in focus mode (fullscreen board)")
	flagNoHistory = flag.Bool("no-history", false, "Do not record games")
	flagVersion   = flag.Bool("version", false, "Print version and exit")
)

var (
	app       *tview.Application
	rootPage  *tview.Pages
	gameBoard *ui.BoardView
	gameFrame *tview.Flex
	gameHint  *tview.TextView
	history   *ui.HistoryBrowserUI
	cfg       *config.Config
	logger    *zap.Logger
	gameRules *rules.Rules
	recorder  *record.Recorder

	ctx      context.Context
	ctrl     *controller.Controller
	external *uci.Engine
)

func main() {
	flag.Parse()

	if *flagVersion {
		fmt.Printf("termchess %s\n", Version)
		return
	}
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		fmt.Fprintln(os.Stderr, "termchess needs an interactive terminal")
		os.Exit(1)
	}

	var err error
	cfg, err = config.InitConfig()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	applyFlags(cfg)
	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	logPath, err := cfg.LogFile()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Log file unavailable: %s\n", err)
	}
	var closeLog func()
	logger, closeLog, err = logging.New(cfg.Log, logPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer closeLog()
	logger.Info("termchess starting", zap.String("version", Version))

	gameRules = rules.New()
	archive := openHistory()
	defer func() {
		if recorder != nil {
			recorder.Close()
		}
		if archive != nil {
			archive.Close()
		}
	}()

	var cancel context.CancelFunc
	ctx, cancel = context.WithCancel(context.Background())
	defer cancel()

	app = tview.NewApplication()
	app.EnableMouse(true)
	rootPage = tview.NewPages()
	rootPage.SetBorder(true).SetTitle(" ♞ termchess ")

	// Game view setup
	gameHint = tview.NewTextView()
	gameHint.SetDynamicColors(true)
	gameHint.SetBorderPadding(0, 0, 1, 1)
	gameBoard = ui.NewBoardView(app, cfg, gameHint)
	gameFrame = ui.CreateGameLayout(gameBoard, gameHint)

	gameBoard.Box.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		if ctrl == nil {
			return event
		}
		if event.Key() == tcell.KeyRune && event.Rune() == 'f' {
			if gameBoard.ToggleFocusMode() {
				ui.BuildFocusLayout(gameFrame, gameBoard, gameHint)
			} else {
				ui.RebuildNormalLayout(gameFrame, gameBoard, gameHint)
			}
			return nil
		}
		if cmd, ok := gameBoard.KeyCommand(event); ok {
			handle(cmd)
		}
		return nil
	})
	gameBoard.Box.SetMouseCapture(func(action tview.MouseAction, event *tcell.EventMouse) (tview.MouseAction, *tcell.EventMouse) {
		if ctrl == nil {
			return action, event
		}
		if cmd, ok := gameBoard.MouseCommand(action, event); ok {
			handle(cmd)
		}
		return action, event
	})

	// Game setup screen
	setupUI := ui.NewGameSetup(
		defaultGameConfig(),
		func(gameCfg engine.GameConfig) {
			startGame(gameCfg)
		},
		func() {
			history.Refresh()
			rootPage.SwitchToPage("history")
		},
		func() {
			rootPage.SwitchToPage("colors")
		},
		func() {
			app.Stop()
		},
	)
	setupUI.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		if event.Key() == tcell.KeyEsc {
			app.Stop()
			return nil
		}
		return event
	})

	// History screen
	history = ui.NewHistoryBrowser(cfg, record.History{Dir: cfg.HistoryDir(), Archive: archive}, gameRules, logger, func() {
		rootPage.SwitchToPage("setup")
	})

	// Color configuration screen
	colorConfig := ui.NewColorConfig(cfg, logger, func() {
		gameBoard.SetConfig(cfg)
		rootPage.SwitchToPage("setup")
	})
	colorConfig.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		if event.Key() == tcell.KeyEsc || (event.Key() == tcell.KeyRune && event.Rune() == 'q') {
			rootPage.SwitchToPage("setup")
			return nil
		}
		if event.Key() == tcell.KeyTab {
			colorConfig.ToggleMode()
			return nil
		}
		return event
	})

	rootPage.AddPage("setup", ui.CreateCenteredForm(setupUI.Form(), 64), true, !*flagQuick)
	rootPage.AddPage("gameview", gameFrame, true, *flagQuick)
	rootPage.AddPage("history", history.Flex(), true, false)
	rootPage.AddPage("colors", colorConfig.Flex(), true, false)

	if *flagQuick {
		startGame(defaultGameConfig())
		if *flagFocus {
			gameBoard.ToggleFocusMode()
			ui.BuildFocusLayout(gameFrame, gameBoard, gameHint)
		}
	}

	go ui.RunTicker(ctx, app, cfg.Animation.FPS, func() {
		if ctrl == nil {
			return
		}
		ctrl.Tick()
		ctrl.Draw()
	})

	if err := app.SetRoot(rootPage, true).Run(); err != nil {
		logger.Error("ui stopped", zap.Error(err))
	}
	stopGame()
	logger.Info("termchess stopped")
}

// applyFlags overrides the config file with command-line flags.
func applyFlags(c *config.Config) {
	if *flagWhite != "" {
		c.Players.White = *flagWhite
	}
	if *flagBlack != "" {
		c.Players.Black = *flagBlack
	}
	if *flagDepth > 0 {
		c.Search.Depth = *flagDepth
	}
	if *flagEngine != "" {
		c.Search.EnginePath = *flagEngine
	}
	if *flagNoHistory {
		c.History.Enabled = false
	}
}

func defaultGameConfig() engine.GameConfig {
	gameCfg := cfg.GameConfig()
	gameCfg.FEN = *flagFEN
	return gameCfg
}

// openHistory opens the game archive and recorder. A broken archive leaves PGN recording on.
func openHistory() *record.Archive {
	if !cfg.History.Enabled {
		return nil
	}
	var archive *record.Archive
	path, err := cfg.ArchivePath()
	if err == nil {
		archive, err = record.OpenArchive(path, logger)
	}
	if err != nil {
		logger.Warn("game archive unavailable, recording PGN only", zap.Error(err))
		archive = nil
	}
	recorder = record.NewRecorder(cfg.HistoryDir(), archive, logger)
	return archive
}

// handle forwards a command to the running game and stops the application on quit.
func handle(cmd controller.Command) {
	if ctrl.Handle(cmd) {
		app.Stop()
		return
	}
	ctrl.Draw()
}

// startGame replaces the running game with a new one built from gameCfg.
func startGame(gameCfg engine.GameConfig) {
	var start engine.Position
	if gameCfg.FEN != "" {
		pos, err := gameRules.FromFEN(gameCfg.FEN)
		if err != nil {
			showError(fmt.Sprintf("Invalid start position:\n%s", err))
			return
		}
		start = pos
	}

	searcher, err := newSearcher(gameCfg)
	if err != nil {
		showError(fmt.Sprintf("Failed to start engine:\n%s", err))
		return
	}

	stopGame()
	if e, ok := searcher.(*uci.Engine); ok {
		external = e
	}
	opts := controller.Options{
		Rules:     gameRules,
		Searcher:  searcher,
		Presenter: gameBoard,
		Logger:    logger,
		Players:   gameCfg.Players,
		Start:     start,
	}
	if recorder != nil {
		opts.Recorder = recorder
	}
	ctrl = controller.New(ctx, opts)
	logger.Info("game started",
		zap.String("white", gameCfg.Players.Label(engine.White)),
		zap.String("black", gameCfg.Players.Label(engine.Black)),
		zap.Int("depth", gameCfg.Depth),
		zap.String("engine", gameCfg.EnginePath),
	)
	ctrl.Draw()
	rootPage.SwitchToPage("gameview")
	app.SetFocus(gameBoard.Box)
}

func newSearcher(gameCfg engine.GameConfig) (engine.Searcher, error) {
	if gameCfg.EnginePath == "" {
		return search.New(gameCfg.Depth, logger), nil
	}
	opt := uci.Options{Path: gameCfg.EnginePath, MoveTimeMs: gameCfg.MoveTimeMs}
	if opt.MoveTimeMs == 0 {
		opt.Depth = gameCfg.Depth
	}
	e := uci.New(opt, logger)
	if err := e.Check(ctx); err != nil {
		e.Close()
		return nil, err
	}
	return e, nil
}

// stopGame cancels the running game's search and shuts down its external engine.
func stopGame() {
	if ctrl != nil {
		ctrl.Close()
		ctrl = nil
	}
	if external != nil {
		external.Close()
		external = nil
	}
}

func showError(text string) {
	logger.Warn("game not started", zap.String("reason", text))
	modal := tview.NewModal().
		SetText(text).
		AddButtons([]string{"OK"}).
		SetDoneFunc(func(buttonIndex int, buttonLabel string) {
			rootPage.RemovePage("error")
		})
	rootPage.AddPage("error", modal, true, true)
}
